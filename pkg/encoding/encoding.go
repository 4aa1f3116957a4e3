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

// Package encoding converts between the native byte encodings found in game
// assets and canonical UTF-8 text.
//
// Decoding is strict: a byte sequence that is not valid in the named encoding
// is reported as an *InvalidEncodingError instead of being replaced. Encoding is
// strict too; a rune the target encoding cannot represent is reported as an
// *UnencodableError. A Codec with Lossy set relaxes both.
package encoding

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// Name identifies one of the supported encodings.
type Name string

const (
	ShiftJIS Name = "shift_jis"
	EUCJP    Name = "euc-jp"
	UTF8     Name = "utf-8"
)

// ErrUnknownEncoding is returned for names outside the supported set.
var ErrUnknownEncoding = errors.Base("unknown encoding")

var aliases = map[string]Name{
	"shift_jis":   ShiftJIS,
	"shift-jis":   ShiftJIS,
	"shiftjis":    ShiftJIS,
	"sjis":        ShiftJIS,
	"cp932":       ShiftJIS,
	"windows-31j": ShiftJIS,
	"ms_kanji":    ShiftJIS,
	"euc-jp":      EUCJP,
	"euc_jp":      EUCJP,
	"eucjp":       EUCJP,
	"utf-8":       UTF8,
	"utf8":        UTF8,
}

// Names returns the supported encodings.
func Names() []Name {
	return []Name{ShiftJIS, EUCJP, UTF8}
}

// Valid reports whether n is a supported encoding.
func (n Name) Valid() bool {
	switch n {
	case ShiftJIS, EUCJP, UTF8:
		return true
	}
	return false
}

func (n Name) String() string {
	return string(n)
}

// ParseName resolves an encoding name or alias, case-insensitively. Names not
// in the alias table are looked up in the IANA registry.
func ParseName(s string) (Name, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if n, ok := aliases[key]; ok {
		return n, nil
	}

	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil || enc == nil {
		return "", errors.Errorf("%w: %q", ErrUnknownEncoding, s)
	}
	switch enc {
	case japanese.ShiftJIS:
		return ShiftJIS, nil
	case japanese.EUCJP:
		return EUCJP, nil
	case unicode.UTF8:
		return UTF8, nil
	}
	return "", errors.Errorf("%w: %q", ErrUnknownEncoding, s)
}

// InvalidEncodingError reports bytes that are not valid in the named encoding.
type InvalidEncodingError struct {
	Encoding Name
	Offset   int
}

func (e *InvalidEncodingError) Error() string {
	return fmt.Sprintf("invalid %s byte sequence at offset %d", e.Encoding, e.Offset)
}

// UnencodableError reports a rune the named encoding cannot represent. Index is
// the byte index of the rune within the UTF-8 text.
type UnencodableError struct {
	Encoding Name
	Rune     rune
	Index    int
}

func (e *UnencodableError) Error() string {
	return fmt.Sprintf("character %q (U+%04X) at index %d cannot be encoded as %s", e.Rune, e.Rune, e.Index, e.Encoding)
}

// Codec performs conversions. The zero value is strict.
type Codec struct {
	// Lossy substitutes unencodable runes with the encoding's replacement byte
	// and invalid input bytes with U+FFFD instead of failing.
	Lossy bool
}

// Decode converts b from the named encoding to UTF-8 text using a strict Codec.
func Decode(b []byte, name Name) (string, error) {
	return Codec{}.Decode(b, name)
}

// Encode converts text to the named encoding using a strict Codec.
func Encode(text string, name Name) ([]byte, error) {
	return Codec{}.Encode(text, name)
}

func lookup(name Name) (xencoding.Encoding, error) {
	switch name {
	case ShiftJIS:
		return japanese.ShiftJIS, nil
	case EUCJP:
		return japanese.EUCJP, nil
	case UTF8:
		return unicode.UTF8, nil
	}
	return nil, errors.Errorf("%w: %q", ErrUnknownEncoding, string(name))
}

// Decode converts b from the named encoding to UTF-8 text.
func (c Codec) Decode(b []byte, name Name) (string, error) {
	if name == UTF8 {
		if !utf8.Valid(b) && !c.Lossy {
			return "", &InvalidEncodingError{Encoding: name, Offset: invalidUTF8Offset(b)}
		}
		return strings.ToValidUTF8(string(b), string(utf8.RuneError)), nil
	}

	enc, err := lookup(name)
	if err != nil {
		return "", err
	}

	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", errors.Errorf("decoding %s: %w", name, err)
	}

	text := string(out)
	if c.Lossy {
		return text, nil
	}

	// the japanese decoders emit U+FFFD for invalid input and no valid sequence
	// maps to it, so its presence marks the first bad byte
	if i := strings.IndexRune(text, utf8.RuneError); i >= 0 {
		return "", &InvalidEncodingError{Encoding: name, Offset: sourceOffset(enc, text[:i])}
	}

	// the WHATWG shift_jis decoder passes 0x80 through as U+0080, which no
	// encoder writes back
	if _, err := enc.NewEncoder().String(text); err != nil {
		if uerr := firstUnencodable(enc, name, text); uerr != nil {
			return "", &InvalidEncodingError{Encoding: name, Offset: sourceOffset(enc, text[:uerr.Index])}
		}
		return "", errors.Errorf("decoding %s: %w", name, err)
	}

	return text, nil
}

// Encode converts UTF-8 text to the named encoding.
func (c Codec) Encode(text string, name Name) ([]byte, error) {
	if !utf8.ValidString(text) {
		return nil, &UnencodableError{Encoding: name, Rune: utf8.RuneError, Index: invalidUTF8Offset([]byte(text))}
	}

	enc, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if name == UTF8 {
		return []byte(text), nil
	}

	encoder := enc.NewEncoder()
	if c.Lossy {
		encoder = xencoding.ReplaceUnsupported(encoder)
	}

	out, err := encoder.Bytes([]byte(text))
	if err != nil {
		if uerr := firstUnencodable(enc, name, text); uerr != nil {
			return nil, uerr
		}
		return nil, errors.Errorf("encoding %s: %w", name, err)
	}

	return out, nil
}

func firstUnencodable(enc xencoding.Encoding, name Name, text string) *UnencodableError {
	for i, r := range text {
		if _, err := enc.NewEncoder().String(string(r)); err != nil {
			return &UnencodableError{Encoding: name, Rune: r, Index: i}
		}
	}
	return nil
}

// sourceOffset estimates the byte length of the valid decoded prefix in the
// source encoding.
func sourceOffset(enc xencoding.Encoding, prefix string) int {
	b, err := enc.NewEncoder().String(prefix)
	if err != nil {
		return 0
	}
	return len(b)
}

func invalidUTF8Offset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}
