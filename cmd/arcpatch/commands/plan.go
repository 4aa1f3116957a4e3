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

// NewPlanCmd creates the plan command
func NewPlanCmd(o *opts.RootOpts) *cobra.Command {
	var (
		patchRef   string
		layoutPath string
	)

	cmd := &cobra.Command{
		Use:   "plan --patch <file|github://owner/repo/path@ref> <input|glob>...",
		Short: "Show what a patch set would do without patching",
		Long: `Plan resolves every operation of the patch set against each input and prints
which operations would run and why the others are excluded. Nothing is
patched or written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "plan").Logger().WithContext(cmd.Context())
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

			paths := make([]string, len(inputs))
			for i, in := range inputs {
				paths[i] = in.Path
			}

			op := &operation.PlanOperation{
				Inputs:  paths,
				Patch:   pf,
				Layout:  l,
				Options: o.Pipeline(),
			}
			if err := operation.NewRunner(logger, false).Run(ctx, op); err != nil {
				return errors.Errorf("planning %s: %w", pf.Set.ID, err)
			}

			return renderPlans(cmd.OutOrStdout(), op.Plans)
		},
	}

	cmd.Flags().StringVarP(&patchRef, "patch", "p", "", "patch set file or github:// reference")
	cmd.Flags().StringVarP(&layoutPath, "layout", "l", "", "layout file; inputs are raw blobs instead of string tables")
	_ = cmd.MarkFlagRequired("patch")

	return cmd
}
