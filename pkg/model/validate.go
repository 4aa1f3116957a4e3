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
	"unicode/utf8"
)

// Validate checks a patch set before dispatch and returns a *ValidationError
// for the first malformed operation.
func Validate(set *PatchSet) error {
	if set == nil {
		return &ValidationError{Ordinal: -1, Reason: "patch set is nil"}
	}
	if set.ID == "" {
		return &ValidationError{Ordinal: -1, Reason: "patch set id is required"}
	}

	groups := make(map[string]bool)
	ids := make(map[string]int, len(set.Operations))
	for i := range set.Operations {
		op := &set.Operations[i]
		id := set.OpID(i)

		if prev, ok := ids[id]; ok {
			return &ValidationError{PatchSet: set.ID, Ordinal: i, OpID: id, Reason: fmt.Sprintf("duplicate operation id (also #%d)", prev)}
		}
		ids[id] = i

		if reason := validateOperation(op); reason != "" {
			return &ValidationError{PatchSet: set.ID, Ordinal: i, OpID: id, Reason: reason}
		}
		if op.Group != "" {
			groups[op.Group] = true
		}
	}

	seen := make(map[string]bool, len(set.Priority))
	for _, g := range set.Priority {
		if g == "" {
			return &ValidationError{PatchSet: set.ID, Ordinal: -1, Reason: "priority contains an empty group name"}
		}
		if seen[g] {
			return &ValidationError{PatchSet: set.ID, Ordinal: -1, Reason: fmt.Sprintf("priority lists group %q twice", g)}
		}
		if !groups[g] {
			return &ValidationError{PatchSet: set.ID, Ordinal: -1, Reason: fmt.Sprintf("priority names unknown group %q", g)}
		}
		seen[g] = true
	}

	return nil
}

func validateOperation(op *Operation) string {
	if !op.Kind.Valid() {
		return fmt.Sprintf("unknown kind %q", op.Kind)
	}
	if op.Target == "" {
		return "target is required"
	}

	switch op.Kind {
	case KindReplaceText:
		if op.Text == nil {
			return "replace-text requires a text payload"
		}
		if !utf8.ValidString(*op.Text) {
			return "text payload is not valid UTF-8"
		}
		if op.Bytes != nil {
			return "replace-text does not take a byte payload"
		}
		if op.Range != nil {
			return "replace-text always targets the whole unit"
		}
	case KindReplaceBytes, KindInsert:
		if op.Bytes == nil {
			return fmt.Sprintf("%s requires a byte payload", op.Kind)
		}
		if op.Text != nil {
			return fmt.Sprintf("%s does not take a text payload", op.Kind)
		}
	case KindDelete:
		if op.Bytes != nil || op.Text != nil {
			return "delete does not take a payload"
		}
		if op.Range == nil {
			return "delete requires a range"
		}
	}

	if r := op.Range; r != nil {
		if r.Start < 0 || r.End < r.Start {
			return fmt.Sprintf("invalid range %s", r)
		}
	}
	if op.Kind == KindInsert {
		if op.Range == nil {
			return "insert requires an offset"
		}
		if op.Range.Len() != 0 {
			return "insert range must be empty"
		}
	}

	if p := op.Expect; p != nil {
		switch {
		case p.Text != nil && p.Bytes != nil:
			return "precondition sets both text and bytes"
		case p.Text == nil && p.Bytes == nil:
			return "precondition is empty"
		case p.Text != nil && !utf8.ValidString(*p.Text):
			return "precondition text is not valid UTF-8"
		}
	}

	return ""
}
