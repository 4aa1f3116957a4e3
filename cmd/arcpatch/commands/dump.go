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

package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/arcpatch/cmd/arcpatch/opts"
	"github.com/walteh/arcpatch/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// NewDumpCmd creates the dump command
func NewDumpCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <tblstr.arc>",
		Short: "Print the header and every string of a string table",
		Long: `Dump decodes a tblstr.arc string table and prints its header followed by one
line per item: the item id, its stored length and its text. Unit ids in patch
sets are the item ids shown here.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "dump").Logger().WithContext(cmd.Context())

			op := &operation.DumpOperation{Input: args[0], Out: cmd.OutOrStdout()}
			if err := operation.NewRunner(zerolog.Ctx(ctx), false).Run(ctx, op); err != nil {
				return errors.Errorf("dumping %s: %w", args[0], err)
			}
			return nil
		},
	}

	return cmd
}
