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

package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/walteh/arcpatch/pkg/encoding"
)

// Unit is one addressable region of the input data.
type Unit struct {
	// ID is unique within a snapshot
	ID string
	// Start and End locate the unit in the input, half-open
	Start int64
	End   int64
	// Data is the content operations see, already unwrapped from any container
	// obfuscation. Treat as read-only.
	Data []byte
	// Encoding of the text stored in Data
	Encoding encoding.Name
	// MaxSize bounds len(Data) after patching; zero means unbounded
	MaxSize int
	// Forbidden lists bytes Data may not hold after patching, such as the
	// terminator of a NUL terminated string
	Forbidden []byte
}

func (u Unit) String() string {
	return fmt.Sprintf("%s[%d:%d]", u.ID, u.Start, u.End)
}

// Snapshot is an immutable, ID-indexed view of the units derived from one
// input. It is shared read-only between planning and application.
type Snapshot struct {
	units []Unit
	index map[string]int
}

// NewSnapshot builds a snapshot, enforcing that IDs are unique and that the
// byte ranges of distinct units do not overlap.
func NewSnapshot(units []Unit) (*Snapshot, error) {
	snap := &Snapshot{
		units: make([]Unit, len(units)),
		index: make(map[string]int, len(units)),
	}
	copy(snap.units, units)

	for i, u := range snap.units {
		if u.ID == "" {
			return nil, &StructuralError{Reason: fmt.Sprintf("unit %d has an empty id", i)}
		}
		if u.End < u.Start {
			return nil, &StructuralError{Reason: fmt.Sprintf("unit %s has an inverted range", u)}
		}
		if prev, ok := snap.index[u.ID]; ok {
			return nil, &StructuralError{Reason: fmt.Sprintf("duplicate unit id %q (units %d and %d)", u.ID, prev, i)}
		}
		snap.index[u.ID] = i
	}

	order := make([]int, len(snap.units))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return snap.units[order[a]].Start < snap.units[order[b]].Start
	})
	// widest tracks the unit reaching furthest so far
	widest := -1
	for _, i := range order {
		cur := snap.units[i]
		if cur.End == cur.Start {
			continue
		}
		if widest >= 0 && snap.units[widest].End > cur.Start {
			return nil, &StructuralError{Reason: fmt.Sprintf("units %s and %s overlap", snap.units[widest], cur)}
		}
		if widest < 0 || cur.End > snap.units[widest].End {
			widest = i
		}
	}

	return snap, nil
}

// Len returns the number of units.
func (s *Snapshot) Len() int {
	return len(s.units)
}

// Lookup returns the unit with the given id.
func (s *Snapshot) Lookup(id string) (Unit, bool) {
	i, ok := s.index[id]
	if !ok {
		return Unit{}, false
	}
	return s.units[i], true
}

// Position returns the input-order position of the unit with the given id.
func (s *Snapshot) Position(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// Units returns the units in input order. The slice is a copy; the unit data
// is shared and must not be modified.
func (s *Snapshot) Units() []Unit {
	out := make([]Unit, len(s.units))
	copy(out, s.units)
	return out
}

// CompareIDs orders unit ids naturally: ids that are unsigned integers compare
// numerically and sort before all other ids, which compare lexically.
func CompareIDs(a, b string) int {
	na, aerr := strconv.ParseUint(a, 10, 64)
	nb, berr := strconv.ParseUint(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		// "007" and "7" are distinct ids with the same value
		return strings.Compare(a, b)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return strings.Compare(a, b)
}
