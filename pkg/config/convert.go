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

package config

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/walteh/arcpatch/pkg/encoding"
	"github.com/walteh/arcpatch/pkg/model"
	"gitlab.com/tozd/go/errors"
)

// 🔄 Convert turns the file schema into a patch set. It checks only what the
// schema itself can get wrong; model.Validate does the rest.
func (f *File) Convert() (*PatchFile, error) {
	pf := &PatchFile{
		Set: &model.PatchSet{
			ID:       f.ID,
			Priority: f.Priority,
		},
	}

	if f.Encoding != "" {
		name, err := encoding.ParseName(f.Encoding)
		if err != nil {
			return nil, errors.Errorf("file encoding: %w", err)
		}
		pf.Encoding = name
	}

	add := func(where string, specs []OperationSpec, group string) error {
		for i := range specs {
			op, err := specs[i].convert(group)
			if err != nil {
				return errors.Errorf("%s operation %d: %w", where, i, err)
			}
			pf.Set.Operations = append(pf.Set.Operations, op)
		}
		return nil
	}

	if err := add("top level", f.Operations, ""); err != nil {
		return nil, err
	}
	for _, g := range f.Groups {
		if g.Name == "" {
			return nil, errors.New("group without a name")
		}
		if err := add(fmt.Sprintf("group %q", g.Name), g.Operations, g.Name); err != nil {
			return nil, err
		}
	}

	return pf, nil
}

func (s *OperationSpec) convert(group string) (model.Operation, error) {
	kind, err := model.ParseKind(s.Kind)
	if err != nil {
		return model.Operation{}, err
	}

	op := model.Operation{
		ID:     s.ID,
		Target: s.Target,
		Kind:   kind,
		Text:   s.Text,
		Group:  group,
	}

	if s.Hex != nil {
		if op.Bytes, err = decodeHex(*s.Hex); err != nil {
			return model.Operation{}, errors.Errorf("hex payload: %w", err)
		}
	}

	if s.Range != nil {
		end := s.Range.Start
		if s.Range.End != nil {
			end = *s.Range.End
		}
		op.Range = &model.Range{Start: s.Range.Start, End: end}
	}

	if s.Expect != nil {
		op.Expect = &model.Precondition{Text: s.Expect.Text}
		if s.Expect.Hex != nil {
			if op.Expect.Bytes, err = decodeHex(*s.Expect.Hex); err != nil {
				return model.Operation{}, errors.Errorf("hex precondition: %w", err)
			}
		}
	}

	return op, nil
}

// decodeHex accepts hex digits separated by any whitespace. An empty string
// is an empty, non-nil payload.
func decodeHex(s string) ([]byte, error) {
	compact := strings.Join(strings.Fields(s), "")
	if compact == "" {
		return []byte{}, nil
	}
	b, err := hex.DecodeString(compact)
	if err != nil {
		return nil, errors.Errorf("decoding %q: %w", s, err)
	}
	return b, nil
}
