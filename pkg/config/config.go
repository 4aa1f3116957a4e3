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
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/arcpatch/pkg/encoding"
	"github.com/walteh/arcpatch/pkg/model"
	"gitlab.com/tozd/go/errors"
)

// ErrNoParser is returned for file names no registered parser accepts.
var ErrNoParser = errors.Base("no parser for file")

// 🔌 Parser decodes one file format into the patch file schema
type Parser interface {
	// 📝 Parse decodes the file contents
	Parse(ctx context.Context, filename string, data []byte) (*File, error)

	// 🔍 CanParse checks if this parser handles the given file name
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	name := strings.ToLower(strings.TrimSpace(filename))
	for _, p := range parsers {
		if p.CanParse(name) {
			return p
		}
	}
	return nil
}

// 📚 File is the on-disk patch file schema
type File struct {
	ID         string          `json:"id,omitempty" yaml:"id,omitempty" hcl:"id,optional"`
	Encoding   string          `json:"encoding,omitempty" yaml:"encoding,omitempty" hcl:"encoding,optional"`
	Priority   []string        `json:"priority,omitempty" yaml:"priority,omitempty" hcl:"priority,optional"`
	Groups     []GroupSpec     `json:"groups,omitempty" yaml:"groups,omitempty" hcl:"group,block"`
	Operations []OperationSpec `json:"operations,omitempty" yaml:"operations,omitempty" hcl:"operation,block"`
}

// 👥 GroupSpec holds the operations of one source or author
type GroupSpec struct {
	Name       string          `json:"name" yaml:"name" hcl:"name,label"`
	Operations []OperationSpec `json:"operations" yaml:"operations" hcl:"operation,block"`
}

// 🔧 OperationSpec is one operation as written in a file
type OperationSpec struct {
	ID     string      `json:"id,omitempty" yaml:"id,omitempty" hcl:"id,optional"`
	Target string      `json:"target" yaml:"target" hcl:"target"`
	Kind   string      `json:"kind" yaml:"kind" hcl:"kind"`
	Text   *string     `json:"text,omitempty" yaml:"text,omitempty" hcl:"text,optional"`
	Hex    *string     `json:"hex,omitempty" yaml:"hex,omitempty" hcl:"hex,optional"`
	Range  *RangeSpec  `json:"range,omitempty" yaml:"range,omitempty" hcl:"range,block"`
	Expect *ExpectSpec `json:"expect,omitempty" yaml:"expect,omitempty" hcl:"expect,block"`
}

// 📏 RangeSpec is a unit-relative byte range. A missing end means an empty
// range at start.
type RangeSpec struct {
	Start int  `json:"start" yaml:"start" hcl:"start"`
	End   *int `json:"end,omitempty" yaml:"end,omitempty" hcl:"end,optional"`
}

// ✅ ExpectSpec is a precondition on the current unit content
type ExpectSpec struct {
	Text *string `json:"text,omitempty" yaml:"text,omitempty" hcl:"text,optional"`
	Hex  *string `json:"hex,omitempty" yaml:"hex,omitempty" hcl:"hex,optional"`
}

// 📦 PatchFile is a loaded and validated patch set
type PatchFile struct {
	// Source is the path or reference the set was loaded from
	Source string
	Set    *model.PatchSet
	// Encoding is the declared encoding of the targets, empty when unset
	Encoding encoding.Name
}

// 🎯 Load reads, parses and validates a patch file
func Load(ctx context.Context, path string) (*PatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading patch file: %w", err)
	}
	return Parse(ctx, path, data)
}

// 📝 Parse decodes data using the parser registered for filename
func Parse(ctx context.Context, filename string, data []byte) (*PatchFile, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("file", filename).Int("bytes", len(data)).Msg("parsing patch file")

	p := GetParser(filename)
	if p == nil {
		return nil, errors.Errorf("%w: %s", ErrNoParser, filename)
	}

	f, err := p.Parse(ctx, filename, data)
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", filename, err)
	}

	if f.ID == "" {
		base := filepath.Base(filename)
		f.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}

	pf, err := f.Convert()
	if err != nil {
		return nil, errors.Errorf("converting %s: %w", filename, err)
	}
	pf.Source = filename

	if err := model.Validate(pf.Set); err != nil {
		return nil, errors.Errorf("validating %s: %w", filename, err)
	}

	logger.Debug().
		Str("patch_set", pf.Set.ID).
		Int("operations", len(pf.Set.Operations)).
		Strs("priority", pf.Set.Priority).
		Msg("patch file loaded")

	return pf, nil
}
