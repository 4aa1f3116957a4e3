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

package arc

import (
	"bytes"
	"encoding/binary"

	"github.com/walteh/arcpatch/pkg/model"
	"gitlab.com/tozd/go/errors"
)

// Assemble serialises the table with the given unit contents. Items whose
// text is unchanged, or that have no unit, are written exactly as parsed.
func (t *Table) Assemble(units []model.Unit) ([]byte, error) {
	byID := make(map[string][]byte, len(units))
	for _, u := range units {
		byID[u.ID] = u.Data
	}

	size := HeaderSize + len(t.Trailer)
	for i := range t.Items {
		size += len(t.Items[i].Raw) + align
	}

	var buf bytes.Buffer
	buf.Grow(size)

	var hdr [HeaderSize]byte
	copy(hdr[:8], t.Header.Magic[:])
	binary.LittleEndian.PutUint32(hdr[8:12], t.Header.Count)
	binary.LittleEndian.PutUint32(hdr[12:16], t.Header.Unknown)
	buf.Write(hdr[:])

	for i := range t.Items {
		it := &t.Items[i]
		text, ok := byID[UnitID(it.ID)]
		if !ok || bytes.Equal(text, it.Text) {
			buf.Write(it.Raw)
			continue
		}
		if len(text) > MaxTextSize {
			return nil, errors.Errorf("item %d: %w: %d bytes, limit %d", it.ID, model.ErrSizeExceeded, len(text), MaxTextSize)
		}
		if bytes.IndexByte(text, 0) >= 0 {
			return nil, errors.Errorf("item %d: text contains a NUL byte", it.ID)
		}

		data := wrap(text)
		var ih [ItemHeaderSize]byte
		binary.LittleEndian.PutUint32(ih[:4], it.ID)
		ih[4] = byte(len(data))
		buf.Write(ih[:])
		buf.Write(data)
	}

	buf.Write(t.Trailer)
	return buf.Bytes(), nil
}
