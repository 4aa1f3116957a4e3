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
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/walteh/arcpatch/pkg/config"
	"github.com/walteh/arcpatch/pkg/layout"
	"github.com/walteh/arcpatch/pkg/log"
	"github.com/walteh/arcpatch/pkg/output"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 📦 ApplyOperation patches every target with one patch set
type ApplyOperation struct {
	Targets []Target
	Patch   *config.PatchFile
	// Layout switches inputs from arc tables to layout blobs
	Layout  *layout.Layout
	Options Options

	// Output writes results and the report; required unless DryRun is set
	// and no report is requested
	Output  *output.Manager
	Console *log.Logger

	DryRun     bool
	Backup     bool
	Strict     bool
	ReportPath string

	// Runs holds one entry per target after Execute
	Runs []*Run
}

// 🏃 Execute runs the operation. Nothing is written unless every input was
// patched, and in strict mode unless no operation failed.
func (op *ApplyOperation) Execute(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	if op.Patch == nil {
		return errors.New("patch set is required")
	}
	if len(op.Targets) == 0 {
		return errors.New("no inputs")
	}
	if op.Output == nil && (!op.DryRun || op.ReportPath != "") {
		return errors.New("output manager is required")
	}

	runs, err := op.runAll(ctx)
	if err != nil {
		return err
	}
	op.Runs = runs

	failed := 0
	for _, run := range runs {
		if op.Console != nil {
			dest := run.Target.Output
			if op.DryRun {
				dest = ""
			}
			op.Console.StartRun(ctx, log.RunOperation{PatchSet: op.Patch.Set.ID, Input: run.Target.Input, Output: dest})
			op.Console.LogReport(ctx, run.Result.Report)
			op.Console.EndRun(ctx)
		}
		failed += run.Result.Report.Summary().Failed
	}

	if op.ReportPath != "" {
		records := make([]output.Record, len(runs))
		for i, run := range runs {
			records[i] = run.Record(op.DryRun)
		}
		if err := op.Output.WriteReport(ctx, op.ReportPath, records); err != nil {
			return err
		}
		logger.Debug().Str("path", op.ReportPath).Msg("report written")
	}

	if op.Strict && failed > 0 {
		return errors.Errorf("%w: %d failed, no output written", ErrFailures, failed)
	}

	if op.DryRun {
		return nil
	}
	return op.writeAll(ctx, runs)
}

func (op *ApplyOperation) runAll(ctx context.Context) ([]*Run, error) {
	workers := op.Options.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	runs := make([]*Run, len(op.Targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range op.Targets {
		g.Go(func() error {
			src, err := OpenSource(gctx, t.Input, op.Layout, op.Patch.Encoding)
			if err != nil {
				return errors.Errorf("opening %s: %w", t.Input, err)
			}
			run, err := ApplySource(gctx, src, op.Patch.Set, op.Options)
			if err != nil {
				return errors.Errorf("patching %s: %w", t.Input, err)
			}
			run.Target = t
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("apply cancelled: %w", err)
	}
	return runs, nil
}

// written is one output already put in place by writeAll.
type written struct {
	path     string
	status   output.FileStatus
	backedUp bool
}

// writeAll writes every output. When a write fails, outputs created by this
// run are removed and overwritten ones are restored from their backups.
func (op *ApplyOperation) writeAll(ctx context.Context, runs []*Run) error {
	logger := zerolog.Ctx(ctx)

	var done []written
	rollback := func(cause error) error {
		for i := len(done) - 1; i >= 0; i-- {
			w := done[i]
			var err error
			switch {
			case w.status == output.StatusNew:
				err = op.Output.RemoveFile(ctx, w.path)
			case w.backedUp:
				err = op.Output.RestoreFile(ctx, w.path)
			case w.status == output.StatusModified:
				logger.Warn().Str("path", w.path).Msg("output overwritten without a backup, cannot restore")
			}
			if err != nil {
				logger.Error().Err(err).Str("path", w.path).Msg("rolling back output")
			}
		}
		return cause
	}

	for _, run := range runs {
		path := run.Target.Output

		backedUp := false
		if op.Backup {
			made, err := op.Output.BackupFile(ctx, path)
			if err != nil {
				return rollback(errors.Errorf("backing up %s: %w", path, err))
			}
			backedUp = made
		}

		status, err := op.Output.WriteFileAtomic(ctx, path, run.Data)
		if err != nil {
			if backedUp {
				if derr := op.Output.DiscardBackup(ctx, path); derr != nil {
					logger.Error().Err(derr).Str("path", path).Msg("discarding backup")
				}
			}
			return rollback(errors.Errorf("writing %s: %w", path, err))
		}
		done = append(done, written{path: path, status: status, backedUp: backedUp})

		if op.Console != nil {
			op.Console.Info(fmt.Sprintf("%s %s", path, status))
		}
	}
	return nil
}
