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
	"math"

	"github.com/operations-research/benders-decomposition/facility_location/go/modelutil"
	"github.com/operations-research/benders-decomposition/facility_location/go/problem"
	"github.com/operations-research/benders-decomposition/linear_solver/go/linearsolver"
)

// MasterProblem is the integer program choosing which facilities to open. Its
// auxiliary variable z estimates the transport cost of the chosen opening and
// is tightened by the cuts posted from the callback.
type MasterProblem struct {
	solver *linearsolver.LinearSolver
	open   map[string]*linearsolver.Variable
	z      *linearsolver.Variable
}

// BuildMasterProblem builds
//
//	min  Σ_f buildCost_f·open_f + z
//	s.t. open_f ∈ {0,1}, open_f = 1 if f exists, z >= 0.
//
// It returns a nil MasterProblem together with an error wrapping ErrBuild if
// any part of the model cannot be created.
func BuildMasterProblem(data *problem.Data) (*MasterProblem, error) {
	ls := linearsolver.New("facility_location_master_problem", linearsolver.MixedIntegerProgramming)
	open, err := modelutil.BuildFacilityColumns(data, ls)
	if err != nil {
		return nil, fmt.Errorf("%w: master problem: %w", ErrBuild, err)
	}
	z, err := ls.MakeNumVar(0, math.Inf(1), "z")
	if err != nil {
		return nil, fmt.Errorf("%w: master problem: %w", ErrBuild, err)
	}
	ls.Objective().SetCoefficient(z, 1)
	ls.Objective().SetMinimization()
	if err := ls.Err(); err != nil {
		return nil, fmt.Errorf("%w: master problem: %w", ErrBuild, err)
	}
	return &MasterProblem{solver: ls, open: open, z: z}, nil
}

// Solver returns the underlying model.
func (m *MasterProblem) Solver() *linearsolver.LinearSolver {
	return m.solver
}

// OpenVariable returns the open variable of the facility called `name`.
func (m *MasterProblem) OpenVariable(name string) (*linearsolver.Variable, error) {
	v, ok := m.open[name]
	if !ok {
		return nil, fmt.Errorf("open variable of %q: %w", name, problem.ErrUnknownFacility)
	}
	return v, nil
}

// Z returns the transport cost estimate variable.
func (m *MasterProblem) Z() *linearsolver.Variable {
	return m.z
}

// RegisterCallback sets the callback run on every new integer incumbent.
func (m *MasterProblem) RegisterCallback(cb linearsolver.MPCallback) {
	m.solver.SetCallback(cb)
}

// Solve runs branch and bound until optimality, a limit in `p`, or until
// `interrupt` is closed.
func (m *MasterProblem) Solve(p linearsolver.Parameters, interrupt <-chan struct{}) (linearsolver.ResultStatus, error) {
	return m.solver.SolveInterruptible(p, interrupt)
}
