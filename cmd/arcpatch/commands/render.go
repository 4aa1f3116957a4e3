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
	"fmt"
	"io"
	"sort"

	"github.com/pterm/pterm"
	"github.com/walteh/arcpatch/pkg/operation"
)

const checksumWidth = 12

// 📊 renderRuns prints one summary row per patched input
func renderRuns(w io.Writer, runs []*operation.Run, dryRun bool) error {
	data := pterm.TableData{{"Input", "Output", "Applied", "Skipped", "Failed", "Changed", "SHA-256"}}
	for _, run := range runs {
		s := run.Result.Report.Summary()
		dest := run.Target.Output
		if dryRun {
			dest = "(dry run)"
		}
		sum := run.Checksum
		if len(sum) > checksumWidth {
			sum = sum[:checksumWidth]
		}
		data = append(data, []string{
			run.Target.Input,
			dest,
			fmt.Sprint(s.Applied),
			fmt.Sprint(s.Skipped),
			fmt.Sprint(s.Failed),
			fmt.Sprint(run.Result.ChangedCount()),
			sum,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render()
}

type planRow struct {
	ordinal int
	cells   []string
}

// 📊 renderPlans prints every operation of every plan in ordinal order
func renderPlans(w io.Writer, plans []operation.InputPlan) error {
	data := pterm.TableData{{"Input", "Op", "Target", "Kind", "Verdict", "Detail"}}
	for _, p := range plans {
		var rows []planRow
		for _, e := range p.Plan.Entries {
			rows = append(rows, planRow{e.Ordinal, []string{p.Input, e.OpID, e.Unit, string(e.Op.Kind), "apply", ""}})
		}
		for _, ex := range p.Plan.Exclusions {
			rows = append(rows, planRow{ex.Ordinal, []string{p.Input, ex.OpID, ex.Target, string(ex.Kind), string(ex.Reason), ex.Detail}})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].ordinal < rows[j].ordinal })
		for _, r := range rows {
			data = append(data, r.cells)
		}
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render()
}
