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

import "sort"

// Reason explains why an operation was excluded or failed.
type Reason string

const (
	ReasonTargetNotFound       Reason = "target-not-found"
	ReasonPreconditionFailed   Reason = "precondition-failed"
	ReasonConflict             Reason = "conflict"
	ReasonSupersededByPriority Reason = "superseded-by-priority"
	ReasonAlreadyApplied       Reason = "already-applied"

	ReasonUnencodable   Reason = "unencodable"
	ReasonOutOfRange    Reason = "out-of-range"
	ReasonSizeExceeded  Reason = "size-exceeded"
	ReasonForbiddenByte Reason = "forbidden-byte"
)

// Category groups reasons by the remediation they call for.
type Category string

const (
	CategoryAuthor   Category = "author"
	CategoryDrift    Category = "drift"
	CategoryConflict Category = "conflict"
	CategoryNoop     Category = "noop"
	CategoryEncoding Category = "encoding"
	CategoryBounds   Category = "bounds"
)

// Category returns the remediation category of r.
func (r Reason) Category() Category {
	switch r {
	case ReasonTargetNotFound:
		return CategoryAuthor
	case ReasonPreconditionFailed:
		return CategoryDrift
	case ReasonConflict, ReasonSupersededByPriority:
		return CategoryConflict
	case ReasonAlreadyApplied:
		return CategoryNoop
	case ReasonUnencodable, ReasonForbiddenByte:
		return CategoryEncoding
	case ReasonOutOfRange, ReasonSizeExceeded:
		return CategoryBounds
	}
	return ""
}

// Entry is one operation the plan will execute.
type Entry struct {
	Ordinal int
	OpID    string
	Unit    string
	Op      Operation
}

// Exclusion is an operation the plan will not execute.
type Exclusion struct {
	Ordinal       int
	OpID          string
	Target        string
	Kind          Kind
	Reason        Reason
	Detail        string
	ConflictsWith []string
}

// Plan is the conflict-free, ordered output of dispatch.
type Plan struct {
	PatchSet   string
	Entries    []Entry
	Exclusions []Exclusion
}

// Len returns the number of operations the plan accounts for.
func (p *Plan) Len() int {
	return len(p.Entries) + len(p.Exclusions)
}

// Sort puts entries in (unit id, range start, ordinal) order and exclusions in
// ordinal order.
func (p *Plan) Sort() {
	sort.SliceStable(p.Entries, func(i, j int) bool {
		a, b := p.Entries[i], p.Entries[j]
		if c := CompareIDs(a.Unit, b.Unit); c != 0 {
			return c < 0
		}
		if a.Op.Start() != b.Op.Start() {
			return a.Op.Start() < b.Op.Start()
		}
		return a.Ordinal < b.Ordinal
	})
	sort.SliceStable(p.Exclusions, func(i, j int) bool {
		return p.Exclusions[i].Ordinal < p.Exclusions[j].Ordinal
	})
}
