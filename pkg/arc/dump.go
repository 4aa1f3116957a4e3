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
	"fmt"
	"io"

	"github.com/walteh/arcpatch/pkg/encoding"
	"gitlab.com/tozd/go/errors"
)

// Dump writes the header and every item with its decoded text. Undecodable
// bytes are shown as U+FFFD.
func (t *Table) Dump(w io.Writer) error {
	codec := encoding.Codec{Lossy: true}

	if _, err := fmt.Fprintf(w, "magic=%q count=%d unknown=%#08x\n", t.Header.Magic[:], t.Header.Count, t.Header.Unknown); err != nil {
		return errors.Errorf("writing header: %w", err)
	}
	for i := range t.Items {
		it := &t.Items[i]
		text, err := codec.Decode(it.Text, encoding.ShiftJIS)
		if err != nil {
			return errors.Errorf("decoding item %d: %w", it.ID, err)
		}
		if _, err := fmt.Fprintf(w, "%d\tlen=%d\t%q\n", it.ID, it.DataLen(), text); err != nil {
			return errors.Errorf("writing item %d: %w", it.ID, err)
		}
	}
	if len(t.Trailer) > 0 {
		if _, err := fmt.Fprintf(w, "trailer=%d bytes\n", len(t.Trailer)); err != nil {
			return errors.Errorf("writing trailer: %w", err)
		}
	}
	return nil
}
