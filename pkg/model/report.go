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

package model

import "sort"

// Status is the outcome of one operation.
type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records what happened to one operation.
type Outcome struct {
	Ordinal int    `json:"ordinal"`
	OpID    string `json:"op"`
	Target  string `json:"target"`
	Kind    Kind   `json:"kind"`
	Status  Status `json:"status"`
	Reason  Reason `json:"reason,omitempty"`
	Detail  string `json:"detail,omitempty"`
	// Preview shows the text change of a replace-text operation
	Preview string `json:"preview,omitempty"`
}

// Report lists the outcome of every operation in a patch set, in ordinal order.
type Report struct {
	PatchSet string    `json:"patch_set"`
	Outcomes []Outcome `json:"outcomes"`
}

// Summary counts outcomes.
type Summary struct {
	Applied    int              `json:"applied"`
	Skipped    int              `json:"skipped"`
	Failed     int              `json:"failed"`
	ByCategory map[Category]int `json:"by_category,omitempty"`
}

// NewReport sorts outcomes by ordinal.
func NewReport(patchSet string, outcomes []Outcome) *Report {
	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].Ordinal < outcomes[j].Ordinal
	})
	return &Report{PatchSet: patchSet, Outcomes: outcomes}
}

// Summary tallies the report.
func (r *Report) Summary() Summary {
	s := Summary{ByCategory: map[Category]int{}}
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusApplied:
			s.Applied++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
		if c := o.Reason.Category(); c != "" {
			s.ByCategory[c]++
		}
	}
	return s
}

// OK reports whether no operation failed. Skipped operations do not count.
func (r *Report) OK() bool {
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			return false
		}
	}
	return true
}

// Filter returns the outcomes with the given status.
func (r *Report) Filter(status Status) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}
