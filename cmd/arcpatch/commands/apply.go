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
	"github.com/walteh/arcpatch/pkg/output"
	"gitlab.com/tozd/go/errors"
)

// NewApplyCmd creates the apply command
func NewApplyCmd(o *opts.RootOpts) *cobra.Command {
	var (
		patchRef   string
		layoutPath string
		reportPath string
		dest       targetFlags
		dryRun     bool
		strict     bool
		backup     bool
	)

	cmd := &cobra.Command{
		Use:   "apply --patch <file|github://owner/repo/path@ref> <input|glob>...",
		Short: "Apply a patch set to one or more inputs",
		Long: `Apply resolves every operation of the patch set against each input and
writes the patched result. It will:
1. Load and validate the patch set
2. Plan the operations against each input, excluding drifted or conflicting ones
3. Patch the planned units in parallel
4. Write every output once all inputs were patched

Inputs may be doublestar globs such as "data/**/tblstr.arc". With --output-dir
the directory structure below the static part of the pattern is mirrored.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "apply").Logger().WithContext(cmd.Context())
			logger := zerolog.Ctx(ctx)

			pf, err := loadPatch(ctx, patchRef)
			if err != nil {
				return errors.Errorf("loading patch set: %w", err)
			}

			l, err := loadLayout(ctx, layoutPath)
			if err != nil {
				return errors.Errorf("loading layout: %w", err)
			}

			inputs, err := expandInputs(args)
			if err != nil {
				return err
			}
			targets, err := dest.targets(inputs, dryRun)
			if err != nil {
				return err
			}

			op := &operation.ApplyOperation{
				Targets:    targets,
				Patch:      pf,
				Layout:     l,
				Options:    o.Pipeline(),
				Output:     output.New(".", logger),
				Console:    o.Console,
				DryRun:     dryRun,
				Backup:     backup,
				Strict:     strict,
				ReportPath: reportPath,
			}

			runErr := operation.NewRunner(logger, false).Run(ctx, op)
			if len(op.Runs) > 0 {
				if err := renderRuns(cmd.OutOrStdout(), op.Runs, dryRun); err != nil {
					return errors.Errorf("rendering summary: %w", err)
				}
			}
			if runErr != nil {
				return errors.Errorf("applying %s: %w", pf.Set.ID, runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&patchRef, "patch", "p", "", "patch set file or github:// reference")
	cmd.Flags().StringVarP(&dest.Output, "output", "o", "", "output file for a single input")
	cmd.Flags().StringVar(&dest.OutputDir, "output-dir", "", "directory to write outputs into")
	cmd.Flags().BoolVar(&dest.InPlace, "in-place", false, "overwrite the inputs")
	cmd.Flags().StringVarP(&layoutPath, "layout", "l", "", "layout file; inputs are raw blobs instead of string tables")
	cmd.Flags().StringVar(&reportPath, "report", "", "write a JSON report to this path")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "patch in memory without writing outputs")
	cmd.Flags().BoolVar(&strict, "strict", false, "write nothing and fail when any operation fails")
	cmd.Flags().BoolVar(&backup, "backup", false, "keep a .bak copy of overwritten outputs")
	_ = cmd.MarkFlagRequired("patch")

	return cmd
}
