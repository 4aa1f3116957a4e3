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

	"github.com/rs/zerolog"
	"github.com/walteh/arcpatch/pkg/dispatch"
	"github.com/walteh/arcpatch/pkg/encoding"
	"github.com/walteh/arcpatch/pkg/model"
	"github.com/walteh/arcpatch/pkg/output"
	"github.com/walteh/arcpatch/pkg/patcher"
	"gitlab.com/tozd/go/errors"
)

// ErrFailures is returned in strict mode when any operation failed.
var ErrFailures = errors.Base("operations failed")

// 🎯 Operation is one unit of work for the runner
type Operation interface {
	Execute(ctx context.Context) error
}

// 🔧 Options tunes the pipeline stages
type Options struct {
	// Workers bounds each worker pool; zero means GOMAXPROCS
	Workers int
	// Lossy substitutes unencodable characters instead of failing
	Lossy bool
}

func (o Options) dispatch() []dispatch.Option {
	return []dispatch.Option{
		dispatch.WithWorkers(o.Workers),
		dispatch.WithCodec(encoding.Codec{Lossy: o.Lossy}),
	}
}

func (o Options) patcher() []patcher.Option {
	opts := []patcher.Option{patcher.WithWorkers(o.Workers)}
	if o.Lossy {
		opts = append(opts, patcher.WithLossy())
	}
	return opts
}

// 📍 Target pairs an input with the path its output goes to
type Target struct {
	Input  string
	Output string
}

// 📄 Run is the outcome of patching one input
type Run struct {
	Target   Target
	Plan     *model.Plan
	Result   *patcher.Result
	Data     []byte
	Checksum string
}

// Record converts the run into its report file entry.
func (r *Run) Record(dryRun bool) output.Record {
	rec := output.Record{
		Input:   r.Target.Input,
		Changed: r.Result.ChangedCount(),
		Summary: r.Result.Report.Summary(),
		Report:  r.Result.Report,
	}
	if !dryRun {
		rec.Output = r.Target.Output
		rec.Checksum = r.Checksum
	}
	return rec
}

// 🗺️ PlanSource builds the plan of set against src
func PlanSource(ctx context.Context, src Source, set *model.PatchSet, opts Options) (*model.Snapshot, *model.Plan, error) {
	snap, err := src.Snapshot(ctx)
	if err != nil {
		return nil, nil, errors.Errorf("reading units: %w", err)
	}
	plan, err := dispatch.Dispatch(ctx, snap, set, opts.dispatch()...)
	if err != nil {
		return nil, nil, errors.Errorf("dispatching: %w", err)
	}
	return snap, plan, nil
}

// 🏃 ApplySource runs the whole pipeline for one source in memory
func ApplySource(ctx context.Context, src Source, set *model.PatchSet, opts Options) (*Run, error) {
	snap, plan, err := PlanSource(ctx, src, set, opts)
	if err != nil {
		return nil, err
	}

	res, err := patcher.Apply(ctx, snap, plan, opts.patcher()...)
	if err != nil {
		return nil, errors.Errorf("patching: %w", err)
	}

	data, err := src.Assemble(ctx, res)
	if err != nil {
		return nil, errors.Errorf("assembling output: %w", err)
	}

	run := &Run{
		Plan:     plan,
		Result:   res,
		Data:     data,
		Checksum: output.Checksum(data),
	}

	zerolog.Ctx(ctx).Debug().
		Str("patch_set", set.ID).
		Int("changed_units", res.ChangedCount()).
		Int("bytes", len(data)).
		Str("sha256", run.Checksum).
		Msg("source patched")

	return run, nil
}
