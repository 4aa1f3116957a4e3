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
Package model holds the data types shared by the dispatch and patch stages.

	   +-----------+        +-----------+
	   | PatchSet  |        | Snapshot  |
	   | (ops)     |        | (units)   |
	   +-----+-----+        +-----+-----+
	         |                    |
	         +---------+----------+
	                   |
	             +-----+-----+
	             |   Plan    |  dispatch
	             +-----+-----+
	                   |
	             +-----+-----+
	             |  Report   |  patcher
	             +-----------+

🎯 Purpose:
- Units and the immutable Snapshot derived from one input
- Operations (a closed set of kinds) grouped into a PatchSet
- Validate, the gate every patch set passes before dispatch
- Mutate, the byte level semantics of each kind
- Plan and Report, the per run results

⚡ Invariants:
- unit ids are unique and unit ranges never overlap (NewSnapshot)
- a validated patch set is never modified afterwards
- reports list every operation exactly once, in ordinal order
*/
package model
