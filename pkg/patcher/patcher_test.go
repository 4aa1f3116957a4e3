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

package patcher

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/arcpatch/pkg/dispatch"
	"github.com/walteh/arcpatch/pkg/encoding"
	"github.com/walteh/arcpatch/pkg/model"
)

func ptr(s string) *string { return &s }

func testContext() context.Context {
	return zerolog.New(os.Stderr).Level(zerolog.WarnLevel).WithContext(context.Background())
}

// units builds consecutive units from id/content pairs.
func units(maxSize int, pairs ...string) []model.Unit {
	var out []model.Unit
	var offset int64
	for i := 0; i+1 < len(pairs); i += 2 {
		data := []byte(pairs[i+1])
		out = append(out, model.Unit{
			ID:       pairs[i],
			Start:    offset,
			End:      offset + int64(len(data)),
			Data:     data,
			Encoding: encoding.ShiftJIS,
			MaxSize:  maxSize,
		})
		offset += int64(len(data))
	}
	return out
}

func run(t *testing.T, snap *model.Snapshot, set *model.PatchSet, opts ...Option) *Result {
	t.Helper()
	require.NoError(t, model.Validate(set), "patch set should be valid")
	plan, err := dispatch.Dispatch(testContext(), snap, set)
	require.NoError(t, err, "Dispatch should succeed")
	res, err := Apply(testContext(), snap, plan, opts...)
	require.NoError(t, err, "Apply should succeed")
	require.Len(t, res.Report.Outcomes, len(set.Operations), "every operation should have one outcome")
	return res
}

func data(res *Result) map[string]string {
	out := make(map[string]string, len(res.Units))
	for _, u := range res.Units {
		out[u.ID] = string(u.Data)
	}
	return out
}

func TestApplyScenarios(t *testing.T) {
	tests := []struct {
		name        string
		ops         []model.Operation
		wantData    map[string]string
		wantStatus  map[string]model.Status
		wantReasons map[string]model.Reason
	}{
		{
			name:        "replace_one_unit",
			ops:         []model.Operation{{Target: "u1", Kind: model.KindReplaceText, Text: ptr("XYZ")}},
			wantData:    map[string]string{"u1": "XYZ", "u2": "DEF"},
			wantStatus:  map[string]model.Status{"s#0": model.StatusApplied},
			wantReasons: map[string]model.Reason{},
		},
		{
			name: "conflict_leaves_unit_alone",
			ops: []model.Operation{
				{Target: "u1", Kind: model.KindReplaceText, Text: ptr("X")},
				{Target: "u1", Kind: model.KindReplaceText, Text: ptr("Y")},
			},
			wantData:    map[string]string{"u1": "ABC", "u2": "DEF"},
			wantStatus:  map[string]model.Status{"s#0": model.StatusSkipped, "s#1": model.StatusSkipped},
			wantReasons: map[string]model.Reason{"s#0": model.ReasonConflict, "s#1": model.ReasonConflict},
		},
		{
			name: "unknown_target_does_not_block_others",
			ops: []model.Operation{
				{Target: "u9", Kind: model.KindReplaceText, Text: ptr("nope")},
				{Target: "u2", Kind: model.KindReplaceText, Text: ptr("GHI")},
			},
			wantData:    map[string]string{"u1": "ABC", "u2": "GHI"},
			wantStatus:  map[string]model.Status{"s#0": model.StatusSkipped, "s#1": model.StatusApplied},
			wantReasons: map[string]model.Reason{"s#0": model.ReasonTargetNotFound},
		},
		{
			name: "precondition_drift",
			ops: []model.Operation{
				{Target: "u2", Kind: model.KindReplaceText, Text: ptr("NEW"), Expect: &model.Precondition{Text: ptr("OLD")}},
			},
			wantData:    map[string]string{"u1": "ABC", "u2": "DEF"},
			wantStatus:  map[string]model.Status{"s#0": model.StatusSkipped},
			wantReasons: map[string]model.Reason{"s#0": model.ReasonPreconditionFailed},
		},
		{
			name: "byte_operations",
			ops: []model.Operation{
				{Target: "u1", Kind: model.KindInsert, Bytes: []byte("!"), Range: &model.Range{Start: 1, End: 1}},
				{Target: "u2", Kind: model.KindDelete, Range: &model.Range{Start: 0, End: 2}},
			},
			wantData:    map[string]string{"u1": "A!BC", "u2": "F"},
			wantStatus:  map[string]model.Status{"s#0": model.StatusApplied, "s#1": model.StatusApplied},
			wantReasons: map[string]model.Reason{},
		},
		{
			name: "out_of_range_fails_alone",
			ops: []model.Operation{
				{Target: "u1", Kind: model.KindDelete, Range: &model.Range{Start: 2, End: 9}},
				{Target: "u2", Kind: model.KindReplaceBytes, Bytes: []byte("e"), Range: &model.Range{Start: 1, End: 2}},
			},
			wantData:    map[string]string{"u1": "ABC", "u2": "DeF"},
			wantStatus:  map[string]model.Status{"s#0": model.StatusFailed, "s#1": model.StatusApplied},
			wantReasons: map[string]model.Reason{"s#0": model.ReasonOutOfRange},
		},
		{
			name: "unencodable_text_fails",
			ops: []model.Operation{
				{Target: "u1", Kind: model.KindReplaceText, Text: ptr("smile 😀")},
			},
			wantData:    map[string]string{"u1": "ABC", "u2": "DEF"},
			wantStatus:  map[string]model.Status{"s#0": model.StatusFailed},
			wantReasons: map[string]model.Reason{"s#0": model.ReasonUnencodable},
		},
		{
			name: "size_exceeded_fails",
			ops: []model.Operation{
				{Target: "u1", Kind: model.KindReplaceText, Text: ptr("ABCDEFG")},
			},
			wantData:    map[string]string{"u1": "ABC", "u2": "DEF"},
			wantStatus:  map[string]model.Status{"s#0": model.StatusFailed},
			wantReasons: map[string]model.Reason{"s#0": model.ReasonSizeExceeded},
		},
		{
			name: "forbidden_byte_fails_alone",
			ops: []model.Operation{
				{Target: "u1", Kind: model.KindReplaceBytes, Bytes: []byte{0}, Range: &model.Range{Start: 1, End: 2}},
				{Target: "u2", Kind: model.KindReplaceText, Text: ptr("XYZ")},
			},
			wantData:    map[string]string{"u1": "ABC", "u2": "XYZ"},
			wantStatus:  map[string]model.Status{"s#0": model.StatusFailed, "s#1": model.StatusApplied},
			wantReasons: map[string]model.Reason{"s#0": model.ReasonForbiddenByte},
		},
		{
			name: "forbidden_byte_in_insert",
			ops: []model.Operation{
				{Target: "u2", Kind: model.KindInsert, Bytes: []byte("a\x00"), Range: &model.Range{Start: 0, End: 0}},
			},
			wantData:    map[string]string{"u1": "ABC", "u2": "DEF"},
			wantStatus:  map[string]model.Status{"s#0": model.StatusFailed},
			wantReasons: map[string]model.Reason{"s#0": model.ReasonForbiddenByte},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			us := units(6, "u1", "ABC", "u2", "DEF")
			for i := range us {
				us[i].Forbidden = []byte{0}
			}
			snap, err := model.NewSnapshot(us)
			require.NoError(t, err)

			res := run(t, snap, &model.PatchSet{ID: "s", Operations: tt.ops})

			assert.Equal(t, tt.wantData, data(res), "unit data should match")

			status := map[string]model.Status{}
			reasons := map[string]model.Reason{}
			for _, o := range res.Report.Outcomes {
				status[o.OpID] = o.Status
				if o.Reason != "" {
					reasons[o.OpID] = o.Reason
				}
			}
			assert.Equal(t, tt.wantStatus, status, "statuses should match")
			assert.Equal(t, tt.wantReasons, reasons, "reasons should match")

			// the input snapshot is never modified
			u1, _ := snap.Lookup("u1")
			assert.Equal(t, "ABC", string(u1.Data))
		})
	}
}

func TestApplyLossy(t *testing.T) {
	snap, err := model.NewSnapshot(units(0, "u1", "ABC"))
	require.NoError(t, err)

	set := &model.PatchSet{ID: "s", Operations: []model.Operation{
		{Target: "u1", Kind: model.KindReplaceText, Text: ptr("A😀")},
	}}
	res := run(t, snap, set, WithLossy())

	require.Equal(t, model.StatusApplied, res.Report.Outcomes[0].Status)
	assert.True(t, res.Changed[0])
	assert.NotEqual(t, "ABC", string(res.Units[0].Data))
	assert.Equal(t, byte('A'), res.Units[0].Data[0])

	preview := res.Report.Outcomes[0].Preview
	assert.NotContains(t, preview, "😀", "preview should show the substituted bytes")
	assert.Contains(t, preview, "[-BC-]")
}

func TestApplyClassifiesEncoderErrors(t *testing.T) {
	us := units(0, "u1", "ABC")
	us[0].Encoding = encoding.Name("klingon")
	snap, err := model.NewSnapshot(us)
	require.NoError(t, err)

	set := &model.PatchSet{ID: "s", Operations: []model.Operation{
		{Target: "u1", Kind: model.KindReplaceText, Text: ptr("XYZ")},
	}}
	res := run(t, snap, set)

	o := res.Report.Outcomes[0]
	assert.Equal(t, model.StatusFailed, o.Status)
	assert.Equal(t, model.ReasonUnencodable, o.Reason)
	assert.Equal(t, model.CategoryEncoding, o.Reason.Category())
	assert.Equal(t, "ABC", string(res.Units[0].Data))
}

func TestApplyShiftJIS(t *testing.T) {
	before, err := encoding.Encode("こんにちは", encoding.ShiftJIS)
	require.NoError(t, err)
	after, err := encoding.Encode("さようなら", encoding.ShiftJIS)
	require.NoError(t, err)

	snap, err := model.NewSnapshot([]model.Unit{
		{ID: "1", Start: 0, End: int64(len(before)), Data: before, Encoding: encoding.ShiftJIS},
	})
	require.NoError(t, err)

	set := &model.PatchSet{ID: "jp", Operations: []model.Operation{
		{Target: "1", Kind: model.KindReplaceText, Text: ptr("さようなら"), Expect: &model.Precondition{Text: ptr("こんにちは")}},
	}}
	res := run(t, snap, set)

	assert.Equal(t, after, res.Units[0].Data)
	assert.Equal(t, "[-こんにちは-]{+さようなら+}", res.Report.Outcomes[0].Preview)
}

func TestApplyIdempotent(t *testing.T) {
	snap, err := model.NewSnapshot(units(0, "u1", "ABC", "u2", "DEF", "u3", "GHI"))
	require.NoError(t, err)

	set := &model.PatchSet{ID: "s", Operations: []model.Operation{
		{Target: "u1", Kind: model.KindReplaceText, Text: ptr("XYZ"), Expect: &model.Precondition{Text: ptr("ABC")}},
		{Target: "u2", Kind: model.KindInsert, Bytes: []byte("+"), Range: &model.Range{Start: 3, End: 3}, Expect: &model.Precondition{Bytes: []byte("DEF")}},
		{Target: "u3", Kind: model.KindReplaceText, Text: ptr("JKL")},
	}}

	first := run(t, snap, set)
	assert.Equal(t, 3, first.ChangedCount())

	again, err := model.NewSnapshot(first.Units)
	require.NoError(t, err)
	second := run(t, again, set)

	assert.Equal(t, 0, second.ChangedCount(), "a second run should change nothing")
	assert.Equal(t, data(first), data(second))
	for _, o := range second.Report.Outcomes {
		assert.Equal(t, model.ReasonAlreadyApplied, o.Reason, "operation %s", o.OpID)
	}
	assert.True(t, second.Report.OK())
}

func TestApplyRejectsDoubleEntries(t *testing.T) {
	snap, err := model.NewSnapshot(units(0, "u1", "ABC"))
	require.NoError(t, err)

	op := model.Operation{Target: "u1", Kind: model.KindReplaceText, Text: ptr("X")}
	plan := &model.Plan{PatchSet: "s", Entries: []model.Entry{
		{Ordinal: 0, OpID: "a", Unit: "u1", Op: op},
		{Ordinal: 1, OpID: "b", Unit: "u1", Op: op},
	}}

	_, err = Apply(testContext(), snap, plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unit u1")
}

func TestApplyCancelled(t *testing.T) {
	snap, err := model.NewSnapshot(units(0, "u1", "ABC"))
	require.NoError(t, err)

	plan := &model.Plan{PatchSet: "s", Entries: []model.Entry{
		{Ordinal: 0, OpID: "s#0", Unit: "u1", Op: model.Operation{Target: "u1", Kind: model.KindReplaceText, Text: ptr("X")}},
	}}

	ctx, cancel := context.WithCancel(testContext())
	cancel()

	res, err := Apply(ctx, snap, plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res, "a cancelled run has no partial result")
}

func TestInlineDiff(t *testing.T) {
	tests := []struct {
		name   string
		before string
		after  string
		want   string
	}{
		{name: "unchanged", before: "same", after: "same", want: "same"},
		{name: "insert", before: "abc", after: "abXc", want: "ab{+X+}c"},
		{name: "delete", before: "abXc", after: "abc", want: "ab[-X-]c"},
		{name: "from_empty", before: "", after: "new", want: "{+new+}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InlineDiff(tt.before, tt.after))
		})
	}
}
