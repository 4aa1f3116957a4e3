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

// Package patcher executes an application plan against the units of a
// snapshot.
//
// A failing operation leaves its unit untouched and is recorded in the report;
// it never stops the run. Units no entry touches are passed through with
// their original bytes.
package patcher

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/walteh/arcpatch/pkg/encoding"
	"github.com/walteh/arcpatch/pkg/model"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// Option configures Apply.
type Option func(*options)

type options struct {
	workers int
	codec   encoding.Codec
}

// WithWorkers bounds the number of units patched concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLossy substitutes characters the unit encoding cannot represent instead
// of failing the operation.
func WithLossy() Option {
	return func(o *options) {
		o.codec.Lossy = true
	}
}

// Result is the patched output of one run.
type Result struct {
	// Units holds the output units in snapshot order
	Units []model.Unit
	// Changed marks the units an operation was applied to
	Changed []bool
	Report  *model.Report
}

// ChangedCount returns the number of modified units.
func (r *Result) ChangedCount() int {
	n := 0
	for _, c := range r.Changed {
		if c {
			n++
		}
	}
	return n
}

// Apply executes plan against snap. The snapshot is not modified; the result
// holds new data for changed units and shares data for unchanged ones.
func Apply(ctx context.Context, snap *model.Snapshot, plan *model.Plan, opts ...Option) (*Result, error) {
	o := options{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}

	logger := zerolog.Ctx(ctx)

	units := snap.Units()
	changed := make([]bool, len(units))

	// entries must address distinct units so that every worker writes a
	// disjoint slot
	claimed := make(map[string]string, len(plan.Entries))
	for _, e := range plan.Entries {
		if prev, ok := claimed[e.Unit]; ok {
			return nil, errors.Errorf("plan applies both %s and %s to unit %s", prev, e.OpID, e.Unit)
		}
		claimed[e.Unit] = e.OpID
	}

	outcomes := make([]model.Outcome, len(plan.Entries), plan.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for k := range plan.Entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e := &plan.Entries[k]
			pos, ok := snap.Position(e.Unit)
			if !ok {
				outcomes[k] = outcome(e, model.StatusFailed, model.ReasonTargetNotFound, "unit is not part of this snapshot")
				return nil
			}

			data, out := applyEntry(units[pos], e, o.codec)
			outcomes[k] = out
			if out.Status == model.StatusApplied {
				units[pos].Data = data
				changed[pos] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Errorf("applying plan: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("apply cancelled: %w", err)
	}

	for _, ex := range plan.Exclusions {
		outcomes = append(outcomes, model.Outcome{
			Ordinal: ex.Ordinal,
			OpID:    ex.OpID,
			Target:  ex.Target,
			Kind:    ex.Kind,
			Status:  model.StatusSkipped,
			Reason:  ex.Reason,
			Detail:  ex.Detail,
		})
	}

	res := &Result{
		Units:   units,
		Changed: changed,
		Report:  model.NewReport(plan.PatchSet, outcomes),
	}

	summary := res.Report.Summary()
	logger.Debug().
		Str("patch_set", plan.PatchSet).
		Int("applied", summary.Applied).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("changed_units", res.ChangedCount()).
		Msg("plan applied")

	return res, nil
}

func applyEntry(u model.Unit, e *model.Entry, codec encoding.Codec) ([]byte, model.Outcome) {
	data, err := model.Mutate(u.Data, &e.Op, u.Encoding, codec)
	if err != nil {
		reason, detail := classify(e.Op.Kind, err)
		return nil, outcome(e, model.StatusFailed, reason, detail)
	}

	if err := model.CheckSize(u, data); err != nil {
		return nil, outcome(e, model.StatusFailed, model.ReasonSizeExceeded, err.Error())
	}
	if err := model.CheckContent(u, data); err != nil {
		return nil, outcome(e, model.StatusFailed, model.ReasonForbiddenByte, err.Error())
	}

	out := outcome(e, model.StatusApplied, "", fmt.Sprintf("%d -> %d bytes", len(u.Data), len(data)))
	if e.Op.Kind == model.KindReplaceText {
		out.Preview = preview(u, data)
	}
	return data, out
}

// classify maps a Mutate error to a failure reason. Text operations only fail
// while encoding and byte operations only on their range.
func classify(kind model.Kind, err error) (model.Reason, string) {
	var uerr *encoding.UnencodableError
	switch {
	case errors.As(err, &uerr):
		return model.ReasonUnencodable, uerr.Error()
	case errors.Is(err, model.ErrOutOfRange):
		return model.ReasonOutOfRange, err.Error()
	case kind.IsText():
		return model.ReasonUnencodable, err.Error()
	}
	return model.ReasonOutOfRange, err.Error()
}

func outcome(e *model.Entry, status model.Status, reason model.Reason, detail string) model.Outcome {
	return model.Outcome{
		Ordinal: e.Ordinal,
		OpID:    e.OpID,
		Target:  e.Unit,
		Kind:    e.Op.Kind,
		Status:  status,
		Reason:  reason,
		Detail:  detail,
	}
}
