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

package output

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/arcpatch/pkg/model"
)

func newManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	logger := zerolog.Nop()
	return New(dir, &logger), dir
}

func TestWriteFileAtomic(t *testing.T) {
	mgr, dir := newManager(t)
	ctx := context.Background()

	status, err := mgr.WriteFileAtomic(ctx, "out/tblstr.arc", []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, StatusNew, status)

	status, err = mgr.WriteFileAtomic(ctx, "out/tblstr.arc", []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, StatusUnchanged, status)

	status, err = mgr.WriteFileAtomic(ctx, filepath.Join(dir, "out", "tblstr.arc"), []byte("two"))
	require.NoError(t, err)
	assert.Equal(t, StatusModified, status, "absolute paths should resolve to the same file")

	got, err := os.ReadFile(filepath.Join(dir, "out", "tblstr.arc"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	entries, err := os.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files should be left behind")
}

func TestBackupRestore(t *testing.T) {
	mgr, dir := newManager(t)
	ctx := context.Background()
	path := filepath.Join(dir, "data.bin")

	made, err := mgr.BackupFile(ctx, "data.bin")
	require.NoError(t, err, "backing up a missing file is a no-op")
	assert.False(t, made)
	_, err = os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, os.WriteFile(path, []byte("original"), 0644))
	made, err = mgr.BackupFile(ctx, "data.bin")
	require.NoError(t, err)
	assert.True(t, made)

	_, err = mgr.WriteFileAtomic(ctx, "data.bin", []byte("patched"))
	require.NoError(t, err)

	require.NoError(t, mgr.RestoreFile(ctx, "data.bin"))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	_, err = os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err), "backup should be removed after restore")

	err = mgr.RestoreFile(ctx, "data.bin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup file does not exist")
}

func TestBackupFailureLeavesNoBackup(t *testing.T) {
	mgr, dir := newManager(t)
	ctx := context.Background()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "b.arc"), 0755))

	made, err := mgr.BackupFile(ctx, "b.arc")
	require.Error(t, err, "a directory cannot be backed up")
	assert.False(t, made)
	assert.NoFileExists(t, filepath.Join(dir, "b.arc.bak"))
}

func TestRemoveFile(t *testing.T) {
	mgr, dir := newManager(t)
	ctx := context.Background()
	path := filepath.Join(dir, "a.arc")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(path+".bak", []byte("y"), 0644))

	require.NoError(t, mgr.DiscardBackup(ctx, "a.arc"))
	assert.NoFileExists(t, path+".bak")
	assert.FileExists(t, path)

	require.NoError(t, mgr.RemoveFile(ctx, "a.arc"))
	assert.NoFileExists(t, path)
	assert.NoError(t, mgr.RemoveFile(ctx, "a.arc"), "removing a missing file is a no-op")
}

func TestWriteReport(t *testing.T) {
	mgr, dir := newManager(t)

	report := model.NewReport("menu", []model.Outcome{
		{Ordinal: 1, OpID: "b", Target: "2", Kind: model.KindDelete, Status: model.StatusSkipped, Reason: model.ReasonConflict},
		{Ordinal: 0, OpID: "a", Target: "1", Kind: model.KindReplaceText, Status: model.StatusApplied},
	})
	records := []Record{{
		Input:    "tblstr.arc",
		Output:   "out/tblstr.arc",
		Checksum: Checksum([]byte("x")),
		Changed:  1,
		Summary:  report.Summary(),
		Report:   report,
	}}

	require.NoError(t, mgr.WriteReport(context.Background(), "report.json", records))

	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "tblstr.arc", got[0]["input"])
	assert.Equal(t, Checksum([]byte("x")), got[0]["sha256"])

	rep := got[0]["report"].(map[string]any)
	outcomes := rep["outcomes"].([]any)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "a", outcomes[0].(map[string]any)["op"], "outcomes should be in ordinal order")

	summary := got[0]["summary"].(map[string]any)
	assert.Equal(t, float64(1), summary["applied"])
	assert.Equal(t, float64(1), summary["skipped"])
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Checksum(nil))
	assert.NotEqual(t, Checksum([]byte("a")), Checksum([]byte("b")))
}

func TestFileStatusString(t *testing.T) {
	assert.Equal(t, "new", StatusNew.String())
	assert.Equal(t, "modified", StatusModified.String())
	assert.Equal(t, "unchanged", StatusUnchanged.String())
	assert.Equal(t, "unknown", FileStatus(99).String())
}
