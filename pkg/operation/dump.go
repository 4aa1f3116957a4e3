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

package operation

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/arcpatch/pkg/arc"
	"gitlab.com/tozd/go/errors"
)

// 🔍 DumpOperation prints the header and items of a string table
type DumpOperation struct {
	Input string
	Out   io.Writer
}

// 🏃 Execute runs the dump
func (op *DumpOperation) Execute(ctx context.Context) error {
	data, err := os.ReadFile(op.Input)
	if err != nil {
		return errors.Errorf("reading input: %w", err)
	}

	tbl, err := arc.Parse(data)
	if err != nil {
		return errors.Errorf("parsing %s: %w", op.Input, err)
	}
	zerolog.Ctx(ctx).Debug().Str("input", op.Input).Int("items", len(tbl.Items)).Msg("dumping string table")

	return tbl.Dump(op.Out)
}
