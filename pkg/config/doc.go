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

/*
Package config loads patch sets from YAML, JSON and HCL files.

	            +-------------+
	            |  PatchFile  |
	            +------+------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	|  YAML   |   |  JSON   |   |   HCL   |
	| Parser  |   | Parser  |   | Parser  |
	+---------+   +---------+   +---------+

🎯 Purpose:
- Picks a parser by file name
- Decodes the file schema strictly, unknown fields are errors
- Converts hex payloads and kinds into a model.PatchSet
- Validates the result before anything is dispatched

🔄 Ordinals:
Top level operations come first, followed by the operations of each group in
file order. The position of an operation in that sequence is its ordinal.

📝 Example (YAML):

	id: menu-fixes
	encoding: shift_jis
	priority: [official, fan]
	groups:
	  - name: official
	    operations:
	      - target: "12"
	        kind: replace-text
	        text: "はじめる"
	        expect: { text: "スタート" }
	operations:
	  - target: "40"
	    kind: insert
	    hex: "81 40"
	    range: { start: 0 }

In HCL the kind and encoding names are also available as variables, so
kind = kind.replace_text and encoding = enc.shift_jis both work.
*/
package config
