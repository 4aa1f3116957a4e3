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

package layout

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/arcpatch/pkg/encoding"
	"github.com/walteh/arcpatch/pkg/model"
	"gitlab.com/tozd/go/errors"
)

const sample = `
fill: 0x20
encoding: sjis
regions:
  - { id: a, start: 0, end: 8 }
  - { id: b, start: 8, end: 12, encoding: utf-8 }
`

func blob() []byte {
	return []byte("HELLO   abc HEADER")
}

func TestSnapshot(t *testing.T) {
	l, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, byte(0x20), l.Fill)

	b, err := l.Bind(blob(), "")
	require.NoError(t, err)
	snap, err := b.Snapshot()
	require.NoError(t, err)

	a, ok := snap.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "HELLO", string(a.Data), "trailing fill should be trimmed")
	assert.Equal(t, encoding.ShiftJIS, a.Encoding)
	assert.Equal(t, 8, a.MaxSize)

	bu, ok := snap.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "abc", string(bu.Data))
	assert.Equal(t, encoding.UTF8, bu.Encoding)
	assert.Equal(t, int64(8), bu.Start)
}

func TestBindFallbackEncoding(t *testing.T) {
	l, err := Parse([]byte("regions:\n  - { id: x, start: 0, end: 2 }\n"))
	require.NoError(t, err)

	b, err := l.Bind([]byte("ab"), encoding.EUCJP)
	require.NoError(t, err)
	snap, err := b.Snapshot()
	require.NoError(t, err)
	u, _ := snap.Lookup("x")
	assert.Equal(t, encoding.EUCJP, u.Encoding)
}

func TestBindErrors(t *testing.T) {
	tests := []struct {
		name   string
		layout string
	}{
		{name: "past_end", layout: "regions:\n  - { id: a, start: 0, end: 99 }\n"},
		{name: "inverted", layout: "regions:\n  - { id: a, start: 4, end: 2 }\n"},
		{name: "bad_encoding", layout: "regions:\n  - { id: a, start: 0, end: 2, encoding: klingon }\n"},
		{name: "bad_layout_encoding", layout: "encoding: klingon\nregions: []\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Parse([]byte(tt.layout))
			require.NoError(t, err)
			_, err = l.Bind(blob(), "")
			require.Error(t, err)
			var serr *model.StructuralError
			assert.True(t, errors.As(err, &serr), "error should be structural")
		})
	}
}

func TestSnapshotOverlap(t *testing.T) {
	l, err := Parse([]byte("regions:\n  - { id: a, start: 0, end: 6 }\n  - { id: b, start: 4, end: 8 }\n"))
	require.NoError(t, err)
	b, err := l.Bind(blob(), "")
	require.NoError(t, err)

	_, err = b.Snapshot()
	require.Error(t, err)
	var serr *model.StructuralError
	assert.True(t, errors.As(err, &serr))
}

func TestParseUnknownField(t *testing.T) {
	_, err := Parse([]byte("fil: 0\n"))
	require.Error(t, err)
}

func TestAssemble(t *testing.T) {
	l, err := Parse([]byte(sample))
	require.NoError(t, err)
	in := blob()
	b, err := l.Bind(in, "")
	require.NoError(t, err)
	snap, err := b.Snapshot()
	require.NoError(t, err)

	t.Run("unchanged", func(t *testing.T) {
		out, err := b.Assemble(snap.Units())
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("shorter_is_padded", func(t *testing.T) {
		units := snap.Units()
		units[0].Data = []byte("HI")
		out, err := b.Assemble(units)
		require.NoError(t, err)
		assert.Equal(t, "HI      abc HEADER", string(out))
		assert.Equal(t, "HELLO   abc HEADER", string(in), "input should not be modified")
	})

	t.Run("full_region", func(t *testing.T) {
		units := snap.Units()
		units[1].Data = []byte("wxyz")
		out, err := b.Assemble(units)
		require.NoError(t, err)
		assert.Equal(t, "HELLO   wxyzHEADER", string(out))
	})

	t.Run("too_long", func(t *testing.T) {
		units := snap.Units()
		units[1].Data = bytes.Repeat([]byte("z"), 5)
		_, err := b.Assemble(units)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrSizeExceeded)
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"fill": 0, "regions": [{"id": "r", "start": 0, "end": 4}]}`), 0644))

	ctx := zerolog.New(os.Stderr).Level(zerolog.WarnLevel).WithContext(context.Background())
	l, err := Load(ctx, path)
	require.NoError(t, err)
	require.Len(t, l.Regions, 1)
	assert.Equal(t, 4, l.Regions[0].Len())
}
