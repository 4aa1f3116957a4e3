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

	"gitlab.com/tozd/go/errors"
)

// Kind is the closed set of operation kinds.
type Kind string

const (
	KindReplaceText  Kind = "replace-text"
	KindReplaceBytes Kind = "replace-bytes"
	KindInsert       Kind = "insert"
	KindDelete       Kind = "delete"
)

// ErrUnknownKind is returned by ParseKind for names outside the closed set.
var ErrUnknownKind = errors.Base("unknown operation kind")

// ParseKind resolves a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindReplaceText, KindReplaceBytes, KindInsert, KindDelete:
		return k, nil
	}
	return "", errors.Errorf("%w: %q", ErrUnknownKind, s)
}

// Valid reports whether k is in the closed set.
func (k Kind) Valid() bool {
	_, err := ParseKind(string(k))
	return err == nil
}

// IsText reports whether the kind carries a text payload.
func (k Kind) IsText() bool {
	return k == KindReplaceText
}

// Range is a half-open byte range relative to the start of a unit's data.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered.
func (r Range) Len() int {
	return r.End - r.Start
}

// Overlaps reports whether the two ranges share at least one byte, or, for an
// empty range, whether it sits strictly inside the other.
func (r Range) Overlaps(o Range) bool {
	if r.Len() == 0 || o.Len() == 0 {
		return r.Start == o.Start || (r.Start > o.Start && r.Start < o.End) || (o.Start > r.Start && o.Start < r.End)
	}
	return r.Start < o.End && o.Start < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d:%d]", r.Start, r.End)
}

// Precondition is the content a unit is expected to hold before an operation
// applies. Exactly one of Text and Bytes is set.
type Precondition struct {
	Text  *string
	Bytes []byte
}

// Operation is one requested change against a unit.
type Operation struct {
	// ID names the operation in reports; PatchSet.OpID supplies a default
	ID     string
	Target string
	Kind   Kind
	// Text is the payload of replace-text
	Text *string
	// Bytes is the payload of replace-bytes and insert
	Bytes []byte
	// Range limits byte operations to part of the unit; nil means the whole unit
	Range  *Range
	Expect *Precondition
	// Group names the source or author of the operation, used for priority
	Group string
}

// Span returns the byte range the operation touches within data of length n.
func (op *Operation) Span(n int) Range {
	if op.Range == nil {
		return Range{Start: 0, End: n}
	}
	return *op.Range
}

// Start returns the range start used for ordering.
func (op *Operation) Start() int {
	if op.Range == nil {
		return 0
	}
	return op.Range.Start
}

// PatchSet is a collection of operations processed together in one run.
type PatchSet struct {
	ID         string
	Operations []Operation
	// Priority lists groups from highest to lowest priority. When empty,
	// conflicting operations are all excluded.
	Priority []string
}

// OpID returns the id of the operation at ordinal i, defaulting to "<set>#<i>".
func (ps *PatchSet) OpID(i int) string {
	if id := ps.Operations[i].ID; id != "" {
		return id
	}
	return fmt.Sprintf("%s#%d", ps.ID, i)
}

// Rank returns the priority rank of a group, lower is stronger. Groups absent
// from Priority share the weakest rank.
func (ps *PatchSet) Rank(group string) int {
	for i, g := range ps.Priority {
		if g == group {
			return i
		}
	}
	return len(ps.Priority)
}

// HasPriority reports whether the set declares an explicit priority order.
func (ps *PatchSet) HasPriority() bool {
	return len(ps.Priority) > 0
}
