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
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/arcpatch/pkg/config"
	"github.com/walteh/arcpatch/pkg/layout"
	"github.com/walteh/arcpatch/pkg/operation"
	"github.com/walteh/arcpatch/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// match is one input found by a pattern. Rel is the path below the static
// prefix of the pattern, used to mirror inputs into an output directory.
type match struct {
	Path string
	Rel  string
}

// 🔍 expandInputs resolves each pattern with doublestar. Literal paths are
// kept even when they do not exist so that reading them reports the error.
func expandInputs(patterns []string) ([]match, error) {
	seen := make(map[string]bool)
	var out []match

	for _, pattern := range patterns {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))

		paths, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Errorf("expanding %s: %w", pattern, err)
		}
		if len(paths) == 0 {
			if hasMeta(pattern) {
				return nil, errors.Errorf("pattern %s matched no files", pattern)
			}
			paths = []string{pattern}
		}
		sort.Strings(paths)

		for _, p := range paths {
			if seen[p] {
				continue
			}
			seen[p] = true

			rel, err := filepath.Rel(filepath.FromSlash(base), p)
			if err != nil || !hasMeta(pattern) {
				rel = filepath.Base(p)
			}
			out = append(out, match{Path: p, Rel: rel})
		}
	}

	if len(out) == 0 {
		return nil, errors.New("no inputs")
	}
	return out, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// 📍 targetFlags select where outputs go
type targetFlags struct {
	Output    string
	OutputDir string
	InPlace   bool
}

// 📍 targets pairs every input with its output path
func (f targetFlags) targets(inputs []match, dryRun bool) ([]operation.Target, error) {
	set := 0
	for _, b := range []bool{f.Output != "", f.OutputDir != "", f.InPlace} {
		if b {
			set++
		}
	}
	if set > 1 {
		return nil, errors.New("--output, --output-dir and --in-place are mutually exclusive")
	}
	if set == 0 && !dryRun {
		return nil, errors.New("one of --output, --output-dir or --in-place is required")
	}
	if f.Output != "" && len(inputs) > 1 {
		return nil, errors.Errorf("--output takes a single input, got %d; use --output-dir", len(inputs))
	}

	out := make([]operation.Target, len(inputs))
	for i, in := range inputs {
		t := operation.Target{Input: in.Path}
		switch {
		case f.Output != "":
			t.Output = f.Output
		case f.OutputDir != "":
			t.Output = filepath.Join(f.OutputDir, in.Rel)
		case f.InPlace:
			t.Output = in.Path
		}
		out[i] = t
	}
	return out, nil
}

// 📥 loadPatch fetches and parses the patch set a reference names
func loadPatch(ctx context.Context, ref string) (*config.PatchFile, error) {
	if ref == "" {
		return nil, errors.New("--patch is required")
	}
	name, data, err := remote.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	pf, err := config.Parse(ctx, name, data)
	if err != nil {
		return nil, err
	}
	pf.Source = ref
	return pf, nil
}

// 📐 loadLayout reads the layout at path, or returns nil when path is empty
func loadLayout(ctx context.Context, path string) (*layout.Layout, error) {
	if path == "" {
		return nil, nil
	}
	return layout.Load(ctx, path)
}
