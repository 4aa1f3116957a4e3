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
	"runtime"

	"github.com/walteh/arcpatch/pkg/config"
	"github.com/walteh/arcpatch/pkg/layout"
	"github.com/walteh/arcpatch/pkg/model"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🗺️ InputPlan is the plan for one input
type InputPlan struct {
	Input string
	Units int
	Plan  *model.Plan
}

// 🗺️ PlanOperation dispatches without patching or writing
type PlanOperation struct {
	Inputs  []string
	Patch   *config.PatchFile
	Layout  *layout.Layout
	Options Options

	// Plans holds one entry per input after Execute
	Plans []InputPlan
}

// 🏃 Execute builds the plan for every input
func (op *PlanOperation) Execute(ctx context.Context) error {
	if op.Patch == nil {
		return errors.New("patch set is required")
	}

	workers := op.Options.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	plans := make([]InputPlan, len(op.Inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, in := range op.Inputs {
		g.Go(func() error {
			src, err := OpenSource(gctx, in, op.Layout, op.Patch.Encoding)
			if err != nil {
				return errors.Errorf("opening %s: %w", in, err)
			}
			snap, plan, err := PlanSource(gctx, src, op.Patch.Set, op.Options)
			if err != nil {
				return errors.Errorf("planning %s: %w", in, err)
			}
			plans[i] = InputPlan{Input: in, Units: snap.Len(), Plan: plan}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	op.Plans = plans
	return nil
}
