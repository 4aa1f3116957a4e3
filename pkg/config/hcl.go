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

package config

import (
	"context"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/walteh/arcpatch/pkg/encoding"
	"github.com/walteh/arcpatch/pkg/model"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the patch file from HCL
func (p *HCLParser) Parse(ctx context.Context, filename string, data []byte) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	var f File
	diags = gohcl.DecodeBody(hclFile.Body, evalContext(), &f)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	return &f, nil
}

// evalContext exposes kind.<name> and enc.<name>, with dashes turned into
// underscores.
func evalContext() *hcl.EvalContext {
	kinds := map[string]cty.Value{}
	for _, k := range []model.Kind{model.KindReplaceText, model.KindReplaceBytes, model.KindInsert, model.KindDelete} {
		kinds[identifier(string(k))] = cty.StringVal(string(k))
	}

	encs := map[string]cty.Value{}
	for _, n := range encoding.Names() {
		encs[identifier(string(n))] = cty.StringVal(string(n))
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"kind": cty.ObjectVal(kinds),
			"enc":  cty.ObjectVal(encs),
		},
	}
}

func identifier(s string) string {
	return strings.ReplaceAll(s, "-", "_")
}
