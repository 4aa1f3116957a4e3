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

package encoding

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		input      []byte
		encoding   Name
		want       string
		wantOffset int
		wantErr    bool
	}{
		{
			name:     "shift_jis_ascii",
			input:    []byte("ABC"),
			encoding: ShiftJIS,
			want:     "ABC",
		},
		{
			name:     "shift_jis_hiragana",
			input:    []byte{0x82, 0xa0, 0x82, 0xa2},
			encoding: ShiftJIS,
			want:     "あい",
		},
		{
			name:     "shift_jis_halfwidth_katakana",
			input:    []byte{0xb1},
			encoding: ShiftJIS,
			want:     "ｱ",
		},
		{
			name:       "shift_jis_truncated_lead_byte",
			input:      []byte{'A', 0x82},
			encoding:   ShiftJIS,
			wantErr:    true,
			wantOffset: 1,
		},
		{
			name:       "shift_jis_unmappable_0x80",
			input:      []byte{'A', 0x80, 'B'},
			encoding:   ShiftJIS,
			wantErr:    true,
			wantOffset: 1,
		},
		{
			name:     "euc_jp_hiragana",
			input:    []byte{0xa4, 0xa2},
			encoding: EUCJP,
			want:     "あ",
		},
		{
			name:     "utf8_passthrough",
			input:    []byte("héllo"),
			encoding: UTF8,
			want:     "héllo",
		},
		{
			name:       "utf8_invalid",
			input:      []byte{'o', 'k', 0xff},
			encoding:   UTF8,
			wantErr:    true,
			wantOffset: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input, tt.encoding)
			if tt.wantErr {
				require.Error(t, err, "Decode should fail")
				var ierr *InvalidEncodingError
				require.True(t, errors.As(err, &ierr), "error should be an InvalidEncodingError")
				assert.Equal(t, tt.encoding, ierr.Encoding, "encoding should be reported")
				assert.Equal(t, tt.wantOffset, ierr.Offset, "offset should point at the bad byte")
				return
			}
			require.NoError(t, err, "Decode should succeed")
			assert.Equal(t, tt.want, got, "decoded text should match")
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		encoding  Name
		want      []byte
		wantRune  rune
		wantIndex int
		wantErr   bool
	}{
		{
			name:     "shift_jis_hiragana",
			text:     "あい",
			encoding: ShiftJIS,
			want:     []byte{0x82, 0xa0, 0x82, 0xa2},
		},
		{
			name:     "shift_jis_newline",
			text:     "A\n",
			encoding: ShiftJIS,
			want:     []byte{'A', '\n'},
		},
		{
			name:      "shift_jis_emoji_unencodable",
			text:      "ok🎮",
			encoding:  ShiftJIS,
			wantErr:   true,
			wantRune:  '🎮',
			wantIndex: 2,
		},
		{
			name:      "euc_jp_hangul_unencodable",
			text:      "한",
			encoding:  EUCJP,
			wantErr:   true,
			wantRune:  '한',
			wantIndex: 0,
		},
		{
			name:     "utf8_anything",
			text:     "🎮",
			encoding: UTF8,
			want:     []byte("🎮"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.text, tt.encoding)
			if tt.wantErr {
				require.Error(t, err, "Encode should fail")
				var uerr *UnencodableError
				require.True(t, errors.As(err, &uerr), "error should be an UnencodableError")
				assert.Equal(t, tt.wantRune, uerr.Rune, "rune should be reported")
				assert.Equal(t, tt.wantIndex, uerr.Index, "index should be reported")
				return
			}
			require.NoError(t, err, "Encode should succeed")
			assert.Equal(t, tt.want, got, "encoded bytes should match")
		})
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := [][]byte{
		[]byte("plain ascii"),
		{0x82, 0xa0, 0x82, 0xa2, 0x82, 0xa4},
		{0x93, 0xfa, 0x96, 0x7b, 0x8c, 0xea},
		{0xb1, 0xb2, 0xb3},
		{'a', '\n', 0x81, 0x40},
	}

	for _, in := range inputs {
		text, err := Decode(in, ShiftJIS)
		require.NoError(t, err, "Decode should succeed for %x", in)

		encoded, err := Encode(text, ShiftJIS)
		require.NoError(t, err, "Encode should succeed for %q", text)

		again, err := Decode(encoded, ShiftJIS)
		require.NoError(t, err, "second Decode should succeed")
		assert.Equal(t, text, again, "decode(encode(decode(b))) should equal decode(b)")
	}
}

// every one and two byte input a strict Decode accepts must survive a
// re-encode unchanged
func TestRoundTripAllShortInputs(t *testing.T) {
	for _, name := range []Name{ShiftJIS, EUCJP} {
		t.Run(name.String(), func(t *testing.T) {
			var inputs [][]byte
			for a := 0; a < 256; a++ {
				inputs = append(inputs, []byte{byte(a)})
				for b := 0; b < 256; b++ {
					inputs = append(inputs, []byte{byte(a), byte(b)})
				}
			}

			var violations []string
			for _, in := range inputs {
				text, err := Decode(in, name)
				if err != nil {
					continue
				}
				encoded, err := Encode(text, name)
				if err != nil {
					violations = append(violations, fmt.Sprintf("%x: encode: %v", in, err))
					continue
				}
				again, err := Decode(encoded, name)
				if err != nil || again != text {
					violations = append(violations, fmt.Sprintf("%x: %q -> %q (%v)", in, text, again, err))
				}
			}
			if len(violations) > 10 {
				violations = violations[:10]
			}
			assert.Empty(t, violations, "decode(encode(decode(b))) should equal decode(b)")
		})
	}
}

func TestLossyCodec(t *testing.T) {
	codec := Codec{Lossy: true}

	out, err := codec.Encode("a🎮b", ShiftJIS)
	require.NoError(t, err, "lossy Encode should not fail")
	assert.Len(t, out, 3, "unencodable rune should become one substitution byte")
	assert.Equal(t, byte('a'), out[0])
	assert.Equal(t, byte('b'), out[2])

	text, err := codec.Decode([]byte{'A', 0x82}, ShiftJIS)
	require.NoError(t, err, "lossy Decode should not fail")
	assert.Contains(t, text, "�", "invalid bytes should be replaced")
}

func TestParseName(t *testing.T) {
	tests := []struct {
		input   string
		want    Name
		wantErr bool
	}{
		{input: "shift_jis", want: ShiftJIS},
		{input: "SJIS", want: ShiftJIS},
		{input: " cp932 ", want: ShiftJIS},
		{input: "csShiftJIS", want: ShiftJIS},
		{input: "EUC-JP", want: EUCJP},
		{input: "utf8", want: UTF8},
		{input: "klingon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownEncoding), "error should wrap ErrUnknownEncoding")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}
