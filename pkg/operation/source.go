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

package operation

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/arcpatch/pkg/arc"
	"github.com/walteh/arcpatch/pkg/encoding"
	"github.com/walteh/arcpatch/pkg/layout"
	"github.com/walteh/arcpatch/pkg/model"
	"github.com/walteh/arcpatch/pkg/patcher"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Source turns one input into units and back into bytes
type Source interface {
	// Snapshot derives the units of the input
	Snapshot(ctx context.Context) (*model.Snapshot, error)
	// Assemble serialises the input with the patched units
	Assemble(ctx context.Context, res *patcher.Result) ([]byte, error)
}

// 📦 ArcSource is a tblstr.arc string table
type ArcSource struct {
	Table *arc.Table
}

func (s *ArcSource) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	return s.Table.Snapshot()
}

func (s *ArcSource) Assemble(ctx context.Context, res *patcher.Result) ([]byte, error) {
	return s.Table.Assemble(res.Units)
}

// 📦 LayoutSource is a raw blob addressed through a layout
type LayoutSource struct {
	Blob *layout.Blob
}

func (s *LayoutSource) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	return s.Blob.Snapshot()
}

func (s *LayoutSource) Assemble(ctx context.Context, res *patcher.Result) ([]byte, error) {
	return s.Blob.Assemble(res.Units)
}

// 🏭 OpenSource reads path as a layout blob when l is set and as an arc
// string table otherwise. enc is the encoding a patch file declares.
func OpenSource(ctx context.Context, path string, l *layout.Layout, enc encoding.Name) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading input: %w", err)
	}
	return NewSource(ctx, data, l, enc)
}

// 🏭 NewSource is OpenSource over bytes already in memory
func NewSource(ctx context.Context, data []byte, l *layout.Layout, enc encoding.Name) (Source, error) {
	logger := zerolog.Ctx(ctx)

	if l != nil {
		blob, err := l.Bind(data, enc)
		if err != nil {
			return nil, err
		}
		return &LayoutSource{Blob: blob}, nil
	}

	if enc != "" && enc != encoding.ShiftJIS {
		logger.Warn().Str("declared", enc.String()).Msg("arc string tables are always shift_jis, ignoring declared encoding")
	}
	tbl, err := arc.Parse(data)
	if err != nil {
		return nil, err
	}
	return &ArcSource{Table: tbl}, nil
}
