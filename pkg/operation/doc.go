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
Package operation wires the patch pipeline together.

	+--------+   +----------+   +---------+   +----------+   +--------+
	| Source |-->| Dispatch |-->| Patcher |-->| Assemble |-->| Output |
	+--------+   +----------+   +---------+   +----------+   +--------+
	                                 |
	                                 v
	                              Report --> log.Logger

🎯 Purpose:
- Opens inputs as arc string tables or layout-addressed blobs
- Runs the plan and apply stages for every input of a batch
- Writes outputs only after every input of the batch succeeded

⚡ Operations:
- ApplyOperation: dispatch, patch, assemble and write
- PlanOperation: dispatch only, nothing is written
- DumpOperation: print the items of an arc string table

🔍 Example:

	op := &operation.ApplyOperation{Targets: targets, Patch: pf, Output: mgr, Console: console}
	err := operation.NewRunner(logger, false).Run(ctx, op)
*/
package operation
