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

package opts

import (
	"github.com/walteh/arcpatch/pkg/log"
	"github.com/walteh/arcpatch/pkg/operation"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Console *log.Logger
	Debug   bool
	// Workers bounds every worker pool; zero means GOMAXPROCS
	Workers int
	Lossy   bool
}

// Pipeline returns the pipeline options the flags select.
func (o *RootOpts) Pipeline() operation.Options {
	return operation.Options{Workers: o.Workers, Lossy: o.Lossy}
}
