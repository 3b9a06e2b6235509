// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package pandoc

// Executable is a pandoc binary that answered a version query.
type Executable struct {
	Path    string
	Version Version
}

// Result holds the output of a conversion.
type Result struct {
	// Text is pandoc's stdout. It is empty when an output file was used.
	Text string
	// Diagnostics are the messages pandoc wrote to stderr.
	Diagnostics []Diagnostic
}

// request is one conversion, built by the public entry points.
type request struct {
	// text is sent on stdin when inputs is empty.
	text   string
	inputs []string
	from   string
	to     string
	cfg    convertConfig
}

func (r *request) stringInput() bool {
	return len(r.inputs) == 0
}
