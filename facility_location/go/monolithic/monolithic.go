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

// Package monolithic solves the capacitated facility location problem as a
// single mixed integer program. It is the reference the decomposition is
// checked against.
package monolithic

import (
	"errors"
	"fmt"

	"github.com/operations-research/benders-decomposition/facility_location/go/modelutil"
	"github.com/operations-research/benders-decomposition/facility_location/go/problem"
	"github.com/operations-research/benders-decomposition/linear_solver/go/linearsolver"
)

// ErrBuild is returned when the model cannot be built.
var ErrBuild = errors.New("model build failure")

// Model is the full formulation
//
//	min  Σ_f buildCost_f·open_f + Σ_{f,c} cost_{f,c}·x_{f,c}
//	s.t. Σ_c x_{f,c} - supply_f·open_f <= 0  for every candidate f
//	     Σ_c x_{f,c} <= supply_f             for every existing f
//	     Σ_f x_{f,c} >= demand_c             for every customer c
//	     open_f ∈ {0,1}, x >= 0.
type Model struct {
	data      *problem.Data
	solver    *linearsolver.LinearSolver
	open      map[string]*linearsolver.Variable
	transport map[modelutil.ArcKey]*linearsolver.Variable
}

// Build returns the model of `data`.
func Build(data *problem.Data) (*Model, error) {
	ls := linearsolver.New("facility_location", linearsolver.MixedIntegerProgramming)
	open, err := modelutil.BuildFacilityColumns(data, ls)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}
	transport, err := modelutil.BuildTransportColumns(data, ls)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}
	if _, err := modelutil.BuildSupplyConstraints(data, ls, transport, open); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}
	if _, err := modelutil.BuildDemandConstraints(data, ls, transport); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}
	if err := ls.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}
	return &Model{data: data, solver: ls, open: open, transport: transport}, nil
}

// Solver returns the underlying model.
func (m *Model) Solver() *linearsolver.LinearSolver {
	return m.solver
}

// Solve solves the model. An infeasible instance is reported through
// Solution.Status, not as an error.
func (m *Model) Solve(p linearsolver.Parameters, interrupt <-chan struct{}) (*modelutil.Solution, error) {
	status, err := m.solver.SolveInterruptible(p, interrupt)
	if err != nil {
		return nil, fmt.Errorf("solving %s: %w", m.solver.Name(), err)
	}
	sol := &modelutil.Solution{Status: status}
	if status != linearsolver.Optimal && status != linearsolver.Feasible {
		return sol, nil
	}
	value := (*linearsolver.Variable).SolutionValue
	sol.Objective = m.solver.Objective().Value()
	sol.Opened = modelutil.OpenedFacilities(m.data, m.open, value)
	sol.Flows = modelutil.CollectFlows(m.data, m.transport, value)
	return sol, nil
}
