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

package model

import (
	"bytes"

	"github.com/walteh/arcpatch/pkg/encoding"
	"gitlab.com/tozd/go/errors"
)

// Mutate returns the result of applying op to content without modifying
// content. Text payloads are encoded with codec into enc. Errors wrap
// ErrOutOfRange or are an *encoding.UnencodableError.
func Mutate(content []byte, op *Operation, enc encoding.Name, codec encoding.Codec) ([]byte, error) {
	switch op.Kind {
	case KindReplaceText:
		if op.Text == nil {
			return nil, errors.New("replace-text without payload")
		}
		return codec.Encode(*op.Text, enc)

	case KindReplaceBytes, KindDelete:
		span := op.Span(len(content))
		if span.Start < 0 || span.End < span.Start || span.End > len(content) {
			return nil, errors.Errorf("%w: %s on %d bytes", ErrOutOfRange, span, len(content))
		}
		var payload []byte
		if op.Kind == KindReplaceBytes {
			payload = op.Bytes
		}
		out := make([]byte, 0, len(content)-span.Len()+len(payload))
		out = append(out, content[:span.Start]...)
		out = append(out, payload...)
		out = append(out, content[span.End:]...)
		return out, nil

	case KindInsert:
		at := op.Start()
		if at < 0 || at > len(content) {
			return nil, errors.Errorf("%w: insert at %d on %d bytes", ErrOutOfRange, at, len(content))
		}
		out := make([]byte, 0, len(content)+len(op.Bytes))
		out = append(out, content[:at]...)
		out = append(out, op.Bytes...)
		out = append(out, content[at:]...)
		return out, nil
	}

	return nil, errors.Errorf("%w: %q", ErrUnknownKind, op.Kind)
}

// CheckSize returns an error wrapping ErrSizeExceeded if data does not fit u.
func CheckSize(u Unit, data []byte) error {
	if u.MaxSize > 0 && len(data) > u.MaxSize {
		return errors.Errorf("%w: %d bytes, unit %s allows %d", ErrSizeExceeded, len(data), u.ID, u.MaxSize)
	}
	return nil
}

// CheckContent returns an error wrapping ErrForbiddenByte if data holds a
// byte u forbids.
func CheckContent(u Unit, data []byte) error {
	for _, c := range u.Forbidden {
		if i := bytes.IndexByte(data, c); i >= 0 {
			return errors.Errorf("%w: 0x%02x at offset %d, unit %s cannot store it", ErrForbiddenByte, c, i, u.ID)
		}
	}
	return nil
}
