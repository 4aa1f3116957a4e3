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

var (
	// ErrOutOfRange is returned when a byte operation addresses bytes outside
	// the unit.
	ErrOutOfRange = errors.Base("byte range out of bounds")
	// ErrSizeExceeded is returned when a result is larger than the unit allows.
	ErrSizeExceeded = errors.Base("unit size exceeded")
	// ErrForbiddenByte is returned when a result holds a byte the unit's
	// container cannot store.
	ErrForbiddenByte = errors.Base("forbidden byte")
)

// StructuralError means the input could not be decomposed into units. It
// aborts the run.
type StructuralError struct {
	Reason string
	Err    error
}

func (e *StructuralError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("structural parse error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("structural parse error: %s", e.Reason)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// ValidationError reports a malformed operation or patch set. Ordinal is -1
// for problems with the set as a whole.
type ValidationError struct {
	PatchSet string
	Ordinal  int
	OpID     string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Ordinal < 0 {
		return fmt.Sprintf("malformed patch set %q: %s", e.PatchSet, e.Reason)
	}
	return fmt.Sprintf("malformed operation %s (#%d in %q): %s", e.OpID, e.Ordinal, e.PatchSet, e.Reason)
}
