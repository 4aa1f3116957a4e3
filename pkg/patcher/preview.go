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

package patcher

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/walteh/arcpatch/pkg/encoding"
	"github.com/walteh/arcpatch/pkg/model"
)

// preview renders the change from u to the written bytes as an inline word
// diff, e.g. "Hello [-world-]{+there+}". Lossy substitutions show up as they
// were written.
func preview(u model.Unit, data []byte) string {
	codec := encoding.Codec{Lossy: true}
	before, err := codec.Decode(u.Data, u.Encoding)
	if err != nil {
		return ""
	}
	after, err := codec.Decode(data, u.Encoding)
	if err != nil {
		return ""
	}
	return InlineDiff(before, after)
}

// InlineDiff marks deletions with [-...-] and insertions with {+...+}.
func InlineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			b.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-")
			b.WriteString(d.Text)
			b.WriteString("-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+")
			b.WriteString(d.Text)
			b.WriteString("+}")
		}
	}
	return b.String()
}
