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

// Package arc reads and writes the tblstr.arc string table.
//
//	0                   1
//	0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|     MAGIC     | COUNT |  UNK  |   header, u32 little-endian fields
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|   ID  |L|X|  DATA ...   | PAD |   item, repeated COUNT times
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//
// DATA is L bytes, stored bitwise negated. Underneath it is Shift_JIS text
// followed by at least one NUL, padded to an even length. X is a length
// extension that is always zero.
package arc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/walteh/arcpatch/pkg/encoding"
	"github.com/walteh/arcpatch/pkg/model"
)

const (
	HeaderSize     = 16
	ItemHeaderSize = 6

	// MaxTextSize is the longest text that still fits the u8 length once the
	// terminator and padding are added.
	MaxTextSize = 253

	align = 2
)

// Header is the fixed leading block of the table.
type Header struct {
	Magic [8]byte
	Count uint32
	// Unknown is carried through unchanged
	Unknown uint32
}

// Item is one string entry.
type Item struct {
	ID uint32
	// Offset of the item header in the file
	Offset int64
	// Raw is the item as stored, header included
	Raw []byte
	// Text is the de-negated text without terminator or padding
	Text []byte
}

// DataOffset is where the stored data of the item begins.
func (it *Item) DataOffset() int64 {
	return it.Offset + ItemHeaderSize
}

// DataLen is the stored data length, padding included.
func (it *Item) DataLen() int {
	return len(it.Raw) - ItemHeaderSize
}

// Table is a parsed string table.
type Table struct {
	Header Header
	Items  []Item
	// Trailer holds any bytes after the last item
	Trailer []byte
}

func structural(reason string, args ...any) *model.StructuralError {
	return &model.StructuralError{Reason: fmt.Sprintf(reason, args...)}
}

// Parse decodes a string table. The returned table does not alias b.
func Parse(b []byte) (*Table, error) {
	if len(b) < HeaderSize {
		return nil, structural("truncated header: %d of %d bytes", len(b), HeaderSize)
	}

	t := &Table{}
	copy(t.Header.Magic[:], b[:8])
	t.Header.Count = binary.LittleEndian.Uint32(b[8:12])
	t.Header.Unknown = binary.LittleEndian.Uint32(b[12:16])

	seen := make(map[uint32]int, t.Header.Count)
	off := HeaderSize
	for n := 0; n < int(t.Header.Count); n++ {
		if len(b)-off < ItemHeaderSize {
			return nil, structural("item %d: truncated header at offset %d", n, off)
		}
		id := binary.LittleEndian.Uint32(b[off : off+4])
		length := int(b[off+4])
		if ext := b[off+5]; ext != 0 {
			return nil, structural("item %d (id %d): length extension is %#02x, want 0", n, id, ext)
		}
		end := off + ItemHeaderSize + length
		if end > len(b) {
			return nil, structural("item %d (id %d): truncated data, need %d bytes at offset %d, have %d", n, id, length, off+ItemHeaderSize, len(b)-off-ItemHeaderSize)
		}
		if prev, ok := seen[id]; ok {
			return nil, structural("duplicate item id %d (items %d and %d)", id, prev, n)
		}
		seen[id] = n

		raw := bytes.Clone(b[off:end])
		t.Items = append(t.Items, Item{
			ID:     id,
			Offset: int64(off),
			Raw:    raw,
			Text:   unwrap(raw[ItemHeaderSize:]),
		})
		off = end
	}
	t.Trailer = bytes.Clone(b[off:])

	return t, nil
}

// Snapshot exposes every item as a unit keyed by its decimal id.
func (t *Table) Snapshot() (*model.Snapshot, error) {
	units := make([]model.Unit, len(t.Items))
	for i := range t.Items {
		it := &t.Items[i]
		units[i] = model.Unit{
			ID:       UnitID(it.ID),
			Start:    it.DataOffset(),
			End:      it.DataOffset() + int64(it.DataLen()),
			Data:     it.Text,
			Encoding: encoding.ShiftJIS,
			MaxSize:  MaxTextSize,
		}
		// NUL terminates the stored string
		units[i].Forbidden = []byte{0}
	}
	return model.NewSnapshot(units)
}

// UnitID is the unit id of the item with the given id.
func UnitID(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}

func negate(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = ^c
	}
	return out
}

// unwrap de-negates stored data and cuts it at the NUL terminator. Bytes past
// the terminator are kept only in the raw item.
func unwrap(stored []byte) []byte {
	plain := negate(stored)
	if i := bytes.IndexByte(plain, 0); i >= 0 {
		plain = plain[:i]
	}
	return plain
}

// wrap terminates and pads text and negates it for storage.
func wrap(text []byte) []byte {
	n := len(text) + 1
	if r := n % align; r != 0 {
		n += align - r
	}
	plain := make([]byte, n)
	copy(plain, text)
	return negate(plain)
}
