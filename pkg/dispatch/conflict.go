// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dispatch

import (
	"fmt"
	"strings"

	"github.com/walteh/arcpatch/pkg/model"
)

// settle picks at most one operation out of several surviving operations on
// the same unit. ordinals are in ordinal order. It returns the winning ordinal,
// or -1, and an exclusion for every other operation.
//
// A unit receives at most one operation per run, so any two operations on it
// conflict. Without a priority order all of them are excluded. With one, the
// single best-ranked operation wins; if the best rank is shared, the tied
// operations conflict and everything ranked below them is superseded.
func settle(set *model.PatchSet, u model.Unit, ordinals []int) (int, []model.Exclusion) {
	if !set.HasPriority() {
		return -1, conflicting(set, u, ordinals)
	}

	best := len(set.Priority) + 1
	for _, i := range ordinals {
		if r := set.Rank(set.Operations[i].Group); r < best {
			best = r
		}
	}

	var top, rest []int
	for _, i := range ordinals {
		if set.Rank(set.Operations[i].Group) == best {
			top = append(top, i)
		} else {
			rest = append(rest, i)
		}
	}

	winner := -1
	var excluded []model.Exclusion
	if len(top) == 1 {
		winner = top[0]
	} else {
		excluded = append(excluded, conflicting(set, u, top)...)
	}

	winners := opIDs(set, top)
	for _, i := range rest {
		op := &set.Operations[i]
		excluded = append(excluded, model.Exclusion{
			Ordinal:       i,
			OpID:          set.OpID(i),
			Target:        op.Target,
			Kind:          op.Kind,
			Reason:        model.ReasonSupersededByPriority,
			Detail:        fmt.Sprintf("outranked on unit %s by %s (group %s)", u.ID, strings.Join(winners, ", "), groupName(set.Operations[top[0]].Group)),
			ConflictsWith: winners,
		})
	}

	return winner, excluded
}

func conflicting(set *model.PatchSet, u model.Unit, ordinals []int) []model.Exclusion {
	out := make([]model.Exclusion, 0, len(ordinals))
	for _, i := range ordinals {
		op := &set.Operations[i]
		span := op.Span(len(u.Data))

		var others []string
		how := "same unit"
		for _, j := range ordinals {
			if j == i {
				continue
			}
			others = append(others, set.OpID(j))
			if op.Range != nil && set.Operations[j].Range != nil && span.Overlaps(set.Operations[j].Span(len(u.Data))) {
				how = "overlapping byte ranges"
			}
		}

		out = append(out, model.Exclusion{
			Ordinal:       i,
			OpID:          set.OpID(i),
			Target:        op.Target,
			Kind:          op.Kind,
			Reason:        model.ReasonConflict,
			Detail:        fmt.Sprintf("conflicts with %s on unit %s (%s)", strings.Join(others, ", "), u.ID, how),
			ConflictsWith: others,
		})
	}
	return out
}

func opIDs(set *model.PatchSet, ordinals []int) []string {
	ids := make([]string, len(ordinals))
	for k, i := range ordinals {
		ids[k] = set.OpID(i)
	}
	return ids
}

func groupName(g string) string {
	if g == "" {
		return "<none>"
	}
	return g
}
