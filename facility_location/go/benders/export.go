// Copyright 2010-2024 Google LLC
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

package benders

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/operations-research/benders-decomposition/linear_solver/go/linearsolver"
)

// exporter writes numbered LP files, one counter per model name. An exporter
// without a directory writes nothing.
type exporter struct {
	dir    string
	counts map[string]int
}

func newExporter(dir string) *exporter {
	return &exporter{dir: dir, counts: make(map[string]int)}
}

func (e *exporter) write(name string, ls *linearsolver.LinearSolver) error {
	if e.dir == "" {
		return nil
	}
	text, err := linearsolver.ExportModelAsLpFormat(ls, linearsolver.ExportOptions{})
	if err != nil {
		return fmt.Errorf("exporting %s: %w", name, err)
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("exporting %s: %w", name, err)
	}
	e.counts[name]++
	path := filepath.Join(e.dir, fmt.Sprintf("%s_%d.lp", name, e.counts[name]))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("exporting %s: %w", name, err)
	}
	return nil
}
