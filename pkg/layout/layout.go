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

// Package layout addresses fixed-size regions of a raw blob through a
// declarative layout file.
//
//	fill: 0x00
//	encoding: shift_jis
//	regions:
//	  - { id: title, start: 0x100, end: 0x120 }
//	  - { id: help, start: 0x120, end: 0x1a0, encoding: euc-jp }
//
// A region's unit data is its content with trailing fill bytes removed. When
// a changed unit is written back it is padded with the fill byte up to the
// region end, so the blob never changes size.
package layout

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/arcpatch/pkg/encoding"
	"github.com/walteh/arcpatch/pkg/model"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Region is one addressable range of the blob, half-open.
type Region struct {
	ID       string `yaml:"id"`
	Start    int64  `yaml:"start"`
	End      int64  `yaml:"end"`
	Encoding string `yaml:"encoding,omitempty"`
}

// Len is the fixed size of the region.
func (r Region) Len() int {
	return int(r.End - r.Start)
}

// Layout describes the regions of a blob.
type Layout struct {
	Fill     byte     `yaml:"fill"`
	Encoding string   `yaml:"encoding,omitempty"`
	Regions  []Region `yaml:"regions"`
}

// Load reads a layout file. JSON layouts are accepted as YAML.
func Load(ctx context.Context, path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading layout: %w", err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, errors.Errorf("parsing layout %s: %w", path, err)
	}
	zerolog.Ctx(ctx).Debug().Str("path", path).Int("regions", len(l.Regions)).Msg("layout loaded")
	return l, nil
}

// Parse decodes a layout, rejecting unknown fields.
func Parse(data []byte) (*Layout, error) {
	var l Layout
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&l); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &l, nil
}

// Blob is a raw input bound to a layout.
type Blob struct {
	layout *Layout
	data   []byte
	encs   []encoding.Name
}

// Bind checks the layout against data. Regions outside the data, or an
// unknown encoding, are structural errors. fallback is used for regions
// and layouts that name no encoding; Shift_JIS when empty.
func (l *Layout) Bind(data []byte, fallback encoding.Name) (*Blob, error) {
	if fallback == "" {
		fallback = encoding.ShiftJIS
	}
	def := fallback
	if l.Encoding != "" {
		n, err := encoding.ParseName(l.Encoding)
		if err != nil {
			return nil, &model.StructuralError{Reason: "layout encoding", Err: err}
		}
		def = n
	}

	b := &Blob{layout: l, data: data, encs: make([]encoding.Name, len(l.Regions))}
	for i, r := range l.Regions {
		if r.Start < 0 || r.End < r.Start || r.End > int64(len(data)) {
			return nil, &model.StructuralError{Reason: fmt.Sprintf("region %q [%d:%d] is outside the %d byte input", r.ID, r.Start, r.End, len(data))}
		}
		b.encs[i] = def
		if r.Encoding != "" {
			n, err := encoding.ParseName(r.Encoding)
			if err != nil {
				return nil, &model.StructuralError{Reason: fmt.Sprintf("region %q encoding", r.ID), Err: err}
			}
			b.encs[i] = n
		}
	}
	return b, nil
}

// Snapshot exposes every region as a fixed-size unit.
func (b *Blob) Snapshot() (*model.Snapshot, error) {
	units := make([]model.Unit, len(b.layout.Regions))
	for i, r := range b.layout.Regions {
		units[i] = model.Unit{
			ID:       r.ID,
			Start:    r.Start,
			End:      r.End,
			Data:     b.content(r),
			Encoding: b.encs[i],
			MaxSize:  r.Len(),
		}
	}
	return model.NewSnapshot(units)
}

func (b *Blob) content(r Region) []byte {
	return bytes.TrimRight(b.data[r.Start:r.End], string([]byte{b.layout.Fill}))
}

// Assemble writes changed units into a copy of the blob. Units are matched to
// regions by id.
func (b *Blob) Assemble(units []model.Unit) ([]byte, error) {
	byID := make(map[string][]byte, len(units))
	for _, u := range units {
		byID[u.ID] = u.Data
	}

	out := bytes.Clone(b.data)
	for _, r := range b.layout.Regions {
		data, ok := byID[r.ID]
		if !ok || bytes.Equal(data, b.content(r)) {
			continue
		}
		if len(data) > r.Len() {
			return nil, errors.Errorf("region %s: %w: %d bytes, region holds %d", r.ID, model.ErrSizeExceeded, len(data), r.Len())
		}
		dst := out[r.Start:r.End]
		n := copy(dst, data)
		for i := n; i < len(dst); i++ {
			dst[i] = b.layout.Fill
		}
	}
	return out, nil
}
