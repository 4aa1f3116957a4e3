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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/arcpatch/cmd/arcpatch/commands"

	_ "github.com/walteh/arcpatch/pkg/remote/github"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	ctx = logger.WithContext(ctx)

	opts := newRootOpts(logger)

	rootCmd := &cobra.Command{
		Use:   "arcpatch",
		Short: "Apply declarative patch sets to legacy game string tables",
		Long: `arcpatch applies patch sets (YAML, JSON or HCL) to tblstr.arc string tables
and other fixed-layout blobs. Operations are checked against the current
content, conflicts are reported instead of guessed, and text is encoded back
into the encoding the game expects.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(opts)
		},
	}

	addRootFlags(rootCmd, opts)

	rootCmd.AddCommand(
		commands.NewApplyCmd(opts),
		commands.NewPlanCmd(opts),
		commands.NewDumpCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprint(cmd.OutOrStdout(), FormatVersion())
			},
		},
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
