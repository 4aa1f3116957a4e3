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

// Package remote resolves patch set references to bytes. A reference is
// either a local path or scheme://owner/repo/path[@ref] for a registered
// fetcher.
package remote

import (
	"context"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var registry = map[string]Fetcher{}

// RegisterFetcher makes a fetcher available for a scheme.
func RegisterFetcher(scheme string, f Fetcher) {
	registry[scheme] = f
}

// Fetcher downloads the file a reference points at.
type Fetcher interface {
	Fetch(ctx context.Context, ref Ref) ([]byte, error)
}

// Ref is a parsed reference. Scheme is empty for local paths.
type Ref struct {
	Scheme string
	Owner  string
	Repo   string
	Path   string
	// Ref is a branch, tag or commit; empty means the default branch
	Ref string
}

// Name is the base name of the referenced file, used to pick a parser.
func (r Ref) Name() string {
	return path.Base(r.Path)
}

func (r Ref) String() string {
	if r.Scheme == "" {
		return r.Path
	}
	s := r.Scheme + "://" + r.Owner + "/" + r.Repo + "/" + r.Path
	if r.Ref != "" {
		s += "@" + r.Ref
	}
	return s
}

// ParseRef parses a reference. Anything without "://" is a local path.
func ParseRef(s string) (Ref, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		if s == "" {
			return Ref{}, errors.New("empty reference")
		}
		return Ref{Path: s}, nil
	}

	ref := Ref{Scheme: scheme}
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		ref.Ref = rest[i+1:]
		rest = rest[:i]
		if ref.Ref == "" {
			return Ref{}, errors.Errorf("invalid reference %q: empty ref after @", s)
		}
	}

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || strings.Trim(parts[2], "/") == "" {
		return Ref{}, errors.Errorf("invalid reference %q: want %s://owner/repo/path[@ref]", s, scheme)
	}
	ref.Owner, ref.Repo, ref.Path = parts[0], parts[1], strings.Trim(parts[2], "/")
	return ref, nil
}

// Fetch resolves s and returns the file name and its contents.
func Fetch(ctx context.Context, s string) (string, []byte, error) {
	ref, err := ParseRef(s)
	if err != nil {
		return "", nil, err
	}

	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("ref", ref.String()).Msg("fetching patch set")

	if ref.Scheme == "" {
		data, err := os.ReadFile(ref.Path)
		if err != nil {
			return "", nil, errors.Errorf("reading %s: %w", ref.Path, err)
		}
		return ref.Path, data, nil
	}

	f, ok := registry[ref.Scheme]
	if !ok {
		options := []string{}
		for k := range registry {
			options = append(options, k)
		}
		sort.Strings(options)
		return "", nil, errors.Errorf("no fetcher for scheme %s, options: %s", ref.Scheme, strings.Join(options, ", "))
	}

	data, err := f.Fetch(ctx, ref)
	if err != nil {
		return "", nil, errors.Errorf("fetching %s: %w", ref, err)
	}
	logger.Debug().Str("ref", ref.String()).Int("bytes", len(data)).Msg("fetched patch set")
	return ref.Name(), data, nil
}
