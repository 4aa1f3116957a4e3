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

// Package github fetches patch sets from GitHub repositories for
// github://owner/repo/path[@ref] references.
package github

import (
	"context"
	"io"
	"os"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"github.com/walteh/arcpatch/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

func init() {
	remote.RegisterFetcher("github", NewFetcher())
}

// ContentsClient is the part of the GitHub API the fetcher uses.
type ContentsClient interface {
	GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error)
	DownloadContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (io.ReadCloser, *github.Response, error)
}

// Fetcher implements remote.Fetcher using the contents API.
type Fetcher struct {
	client ContentsClient
}

// NewFetcher creates a fetcher authenticated with GITHUB_TOKEN when it is set.
func NewFetcher() *Fetcher {
	client := github.NewClient(nil)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	}
	return NewFetcherWithClient(client.Repositories)
}

// NewFetcherWithClient creates a fetcher over an existing client.
func NewFetcherWithClient(client ContentsClient) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch returns the contents of the referenced file. Files the contents API
// does not inline (larger than 1MB) are downloaded instead.
func (f *Fetcher) Fetch(ctx context.Context, ref remote.Ref) ([]byte, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("owner", ref.Owner).Str("repo", ref.Repo).Str("path", ref.Path).Str("ref", ref.Ref).Msg("getting contents")

	opts := &github.RepositoryContentGetOptions{Ref: ref.Ref}

	file, dir, _, err := f.client.GetContents(ctx, ref.Owner, ref.Repo, ref.Path, opts)
	if err != nil {
		return nil, errors.Errorf("getting contents: %w", err)
	}
	if file == nil {
		return nil, errors.Errorf("%s is a directory with %d entries", ref.Path, len(dir))
	}

	if file.GetEncoding() == "none" || (file.Content == nil && file.GetSize() > 0) {
		logger.Debug().Int("size", file.GetSize()).Msg("contents not inlined, downloading")
		return f.download(ctx, ref, opts)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, errors.Errorf("decoding content: %w", err)
	}
	return []byte(content), nil
}

func (f *Fetcher) download(ctx context.Context, ref remote.Ref, opts *github.RepositoryContentGetOptions) ([]byte, error) {
	rc, _, err := f.client.DownloadContents(ctx, ref.Owner, ref.Repo, ref.Path, opts)
	if err != nil {
		return nil, errors.Errorf("downloading contents: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Errorf("reading contents: %w", err)
	}
	return data, nil
}
