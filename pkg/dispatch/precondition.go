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

package dispatch

import (
	"bytes"
	"fmt"

	"github.com/walteh/arcpatch/pkg/encoding"
	"github.com/walteh/arcpatch/pkg/model"
)

const maxDetailBytes = 32

// checkPrecondition returns an exclusion reason when op must not run against
// u, or "" when it should. Content that already equals the operation's result
// yields ReasonAlreadyApplied so a patch set can be re-run over its own output.
func checkPrecondition(u model.Unit, op *model.Operation, codec encoding.Codec) (model.Reason, string) {
	if op.Expect == nil {
		if noop(u, op) {
			return model.ReasonAlreadyApplied, "unit already holds the payload"
		}
		return "", ""
	}

	matches, detail := expectationHolds(u, op.Expect)
	if matches {
		return "", ""
	}

	if before, err := expectedBytes(u, op.Expect, codec); err == nil {
		after, err := model.Mutate(before, op, u.Encoding, codec)
		if err == nil && bytes.Equal(after, u.Data) {
			return model.ReasonAlreadyApplied, "unit already holds the patched content"
		}
	}

	return model.ReasonPreconditionFailed, detail
}

func expectationHolds(u model.Unit, p *model.Precondition) (bool, string) {
	if p.Text != nil {
		text, err := encoding.Decode(u.Data, u.Encoding)
		if err != nil {
			return false, fmt.Sprintf("unit content is not valid %s: %v", u.Encoding, err)
		}
		if text == *p.Text {
			return true, ""
		}
		return false, fmt.Sprintf("expected %q, found %q", *p.Text, text)
	}

	if bytes.Equal(u.Data, p.Bytes) {
		return true, ""
	}
	return false, fmt.Sprintf("expected %s, found %s", hexPreview(p.Bytes), hexPreview(u.Data))
}

func expectedBytes(u model.Unit, p *model.Precondition, codec encoding.Codec) ([]byte, error) {
	if p.Text != nil {
		return codec.Encode(*p.Text, u.Encoding)
	}
	return p.Bytes, nil
}

// noop reports whether an unconditioned replace would leave u unchanged.
// Inserts and deletes are only detected through a precondition.
func noop(u model.Unit, op *model.Operation) bool {
	switch op.Kind {
	case model.KindReplaceText:
		text, err := encoding.Decode(u.Data, u.Encoding)
		return err == nil && text == *op.Text
	case model.KindReplaceBytes:
		span := op.Span(len(u.Data))
		if span.End > len(u.Data) {
			return false
		}
		return bytes.Equal(u.Data[span.Start:span.End], op.Bytes)
	}
	return false
}

func hexPreview(b []byte) string {
	if len(b) > maxDetailBytes {
		return fmt.Sprintf("% x ... (%d bytes)", b[:maxDetailBytes], len(b))
	}
	return fmt.Sprintf("[% x]", b)
}
