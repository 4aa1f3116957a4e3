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

// Package dispatch resolves the operations of a patch set against the units of
// one input and produces a deterministic, conflict-free plan.
//
// Every problem with a single operation (unknown target, drifted content, a
// conflict) becomes an exclusion in the plan. Dispatch only fails when its
// context is cancelled.
package dispatch

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/walteh/arcpatch/pkg/encoding"
	"github.com/walteh/arcpatch/pkg/model"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// Option configures Dispatch.
type Option func(*options)

type options struct {
	workers int
	codec   encoding.Codec
}

// WithWorkers bounds the number of operations resolved concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithCodec sets the codec used to encode text preconditions when checking
// whether an operation was already applied.
func WithCodec(c encoding.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// resolution is the per-operation result of the parallel stage. A nil
// exclusion means the operation survived.
type resolution struct {
	unit      model.Unit
	exclusion *model.Exclusion
}

// Dispatch builds the application plan for set against snap. The set must
// already have passed model.Validate. Neither argument is modified.
func Dispatch(ctx context.Context, snap *model.Snapshot, set *model.PatchSet, opts ...Option) (*model.Plan, error) {
	o := options{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}

	logger := zerolog.Ctx(ctx)
	logger.Debug().
		Str("patch_set", set.ID).
		Int("operations", len(set.Operations)).
		Int("units", snap.Len()).
		Int("workers", o.workers).
		Msg("dispatching patch set")

	// each worker owns one slot, so the result does not depend on scheduling
	resolved := make([]resolution, len(set.Operations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := range set.Operations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resolved[i] = resolve(snap, set, i, o.codec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Errorf("resolving operations: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("dispatch cancelled: %w", err)
	}

	plan := &model.Plan{PatchSet: set.ID}

	// survivors grouped by unit, each list in ordinal order
	byUnit := make(map[string][]int)
	var units []string
	for i, r := range resolved {
		if r.exclusion != nil {
			plan.Exclusions = append(plan.Exclusions, *r.exclusion)
			continue
		}
		id := r.unit.ID
		if _, ok := byUnit[id]; !ok {
			units = append(units, id)
		}
		byUnit[id] = append(byUnit[id], i)
	}

	for _, id := range units {
		ordinals := byUnit[id]
		if len(ordinals) == 1 {
			i := ordinals[0]
			plan.Entries = append(plan.Entries, model.Entry{
				Ordinal: i,
				OpID:    set.OpID(i),
				Unit:    id,
				Op:      set.Operations[i],
			})
			continue
		}

		winner, excluded := settle(set, resolved[ordinals[0]].unit, ordinals)
		if winner >= 0 {
			plan.Entries = append(plan.Entries, model.Entry{
				Ordinal: winner,
				OpID:    set.OpID(winner),
				Unit:    id,
				Op:      set.Operations[winner],
			})
		}
		plan.Exclusions = append(plan.Exclusions, excluded...)
	}

	plan.Sort()

	for _, ex := range plan.Exclusions {
		logger.Debug().
			Str("op", ex.OpID).
			Str("target", ex.Target).
			Str("reason", string(ex.Reason)).
			Str("detail", ex.Detail).
			Msg("operation excluded")
	}
	logger.Debug().
		Str("patch_set", set.ID).
		Int("entries", len(plan.Entries)).
		Int("exclusions", len(plan.Exclusions)).
		Msg("plan ready")

	return plan, nil
}

func resolve(snap *model.Snapshot, set *model.PatchSet, i int, codec encoding.Codec) resolution {
	op := &set.Operations[i]

	unit, ok := snap.Lookup(op.Target)
	if !ok {
		return resolution{exclusion: exclude(set, i, model.ReasonTargetNotFound, fmt.Sprintf("no unit %q in input", op.Target))}
	}

	if reason, detail := checkPrecondition(unit, op, codec); reason != "" {
		return resolution{unit: unit, exclusion: exclude(set, i, reason, detail)}
	}

	return resolution{unit: unit}
}

func exclude(set *model.PatchSet, i int, reason model.Reason, detail string) *model.Exclusion {
	op := &set.Operations[i]
	return &model.Exclusion{
		Ordinal: i,
		OpID:    set.OpID(i),
		Target:  op.Target,
		Kind:    op.Kind,
		Reason:  reason,
		Detail:  detail,
	}
}
