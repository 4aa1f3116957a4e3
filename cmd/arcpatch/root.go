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
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/arcpatch/cmd/arcpatch/opts"
	"github.com/walteh/arcpatch/pkg/log"
)

// newRootOpts creates a new rootOpts with initialized dependencies
func newRootOpts(logger zerolog.Logger) *opts.RootOpts {
	return &opts.RootOpts{
		Console: log.New(os.Stdout, logger),
	}
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().IntVarP(&o.Workers, "workers", "w", 0, "worker pool size (0 = one per cpu)")
	cmd.PersistentFlags().BoolVar(&o.Lossy, "lossy", false, "substitute characters the target encoding cannot represent")
}

// newLogger builds the stderr logger all structured events go to
func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// setupLogging sets the global level from the parsed flags
func setupLogging(o *opts.RootOpts) {
	if o.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
