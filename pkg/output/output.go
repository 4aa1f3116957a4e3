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

// Package output writes patched data and run reports to disk.
//
// Writes go to a temporary file in the destination directory and are renamed
// into place, so a reader never sees a partially written output.
package output

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/arcpatch/pkg/model"
	"gitlab.com/tozd/go/errors"
)

// 📊 FileStatus is what a write did to its destination
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusNew                  // File did not exist
	StatusModified             // File existed with other content
	StatusUnchanged            // File already had this content
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusModified:
		return "modified"
	case StatusUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// 🔧 Manager writes files below a base directory. Absolute paths are used
// as given.
type Manager struct {
	baseDir string
	logger  *zerolog.Logger
}

// 🏭 New creates a new output manager
func New(baseDir string, logger *zerolog.Logger) *Manager {
	return &Manager{
		baseDir: filepath.Clean(baseDir),
		logger:  logger,
	}
}

// 🔒 getAbsPath resolves path against the base directory
func (m *Manager) getAbsPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.baseDir, path)
}

// 🔍 Checksum returns the hex SHA-256 of content
func Checksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// WriteFileAtomic replaces path with content. An existing file with the same
// content is left alone.
func (m *Manager) WriteFileAtomic(ctx context.Context, path string, content []byte) (FileStatus, error) {
	absPath := m.getAbsPath(path)

	status := StatusNew
	existing, err := os.ReadFile(absPath)
	switch {
	case err == nil && bytes.Equal(existing, content):
		m.logger.Debug().Str("path", absPath).Msg("output unchanged")
		return StatusUnchanged, nil
	case err == nil:
		status = StatusModified
	case !os.IsNotExist(err):
		return StatusUnknown, errors.Errorf("reading existing file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return StatusUnknown, errors.Errorf("creating parent directories: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(absPath), "."+filepath.Base(absPath)+".*.tmp")
	if err != nil {
		return StatusUnknown, errors.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return StatusUnknown, errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return StatusUnknown, errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return StatusUnknown, errors.Errorf("setting permissions: %w", err)
	}

	// Rename temp file to target (atomic operation)
	if err := os.Rename(tempPath, absPath); err != nil {
		os.Remove(tempPath) // Clean up temp file
		return StatusUnknown, errors.Errorf("renaming temp file: %w", err)
	}

	m.logger.Debug().
		Str("path", absPath).
		Str("status", status.String()).
		Int("bytes", len(content)).
		Str("sha256", Checksum(content)).
		Msg("output written")

	return status, nil
}

// BackupFile copies path to path.bak and reports whether a backup was made.
// A missing file is not an error. A failed copy leaves no backup behind.
func (m *Manager) BackupFile(ctx context.Context, path string) (bool, error) {
	absPath := m.getAbsPath(path)
	backupPath := absPath + ".bak"

	// Only backup if file exists
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, errors.Errorf("checking file existence: %w", err)
	}

	if err := copyFile(absPath, backupPath); err != nil {
		os.Remove(backupPath)
		return false, errors.Errorf("creating backup: %w", err)
	}

	m.logger.Debug().Str("path", absPath).Str("backup", backupPath).Msg("backup created")
	return true, nil
}

// DiscardBackup removes path.bak if it exists.
func (m *Manager) DiscardBackup(ctx context.Context, path string) error {
	return m.RemoveFile(ctx, path+".bak")
}

// RemoveFile deletes path. A missing file is not an error.
func (m *Manager) RemoveFile(ctx context.Context, path string) error {
	absPath := m.getAbsPath(path)
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return errors.Errorf("removing file: %w", err)
	}
	m.logger.Debug().Str("path", absPath).Msg("file removed")
	return nil
}

// RestoreFile puts path.bak back in place and removes it.
func (m *Manager) RestoreFile(ctx context.Context, path string) error {
	absPath := m.getAbsPath(path)
	backupPath := absPath + ".bak"

	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return errors.Errorf("backup file does not exist")
	} else if err != nil {
		return errors.Errorf("checking backup existence: %w", err)
	}

	if err := copyFile(backupPath, absPath); err != nil {
		return errors.Errorf("restoring from backup: %w", err)
	}

	if err := os.Remove(backupPath); err != nil {
		return errors.Errorf("removing backup: %w", err)
	}

	return nil
}

// 📄 Record is the report entry for one patched input
type Record struct {
	Input    string        `json:"input"`
	Output   string        `json:"output,omitempty"`
	Checksum string        `json:"sha256,omitempty"`
	Changed  int           `json:"changed_units"`
	Summary  model.Summary `json:"summary"`
	Report   *model.Report `json:"report"`
}

// WriteReport writes records as indented JSON.
func (m *Manager) WriteReport(ctx context.Context, path string, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Errorf("encoding report: %w", err)
	}
	if _, err := m.WriteFileAtomic(ctx, path, append(data, '\n')); err != nil {
		return errors.Errorf("writing report: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return errors.Errorf("copying file: %w", err)
	}

	return nil
}
