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

	"google.golang.org/protobuf/proto"

	"github.com/operations-research/benders-decomposition/facility_location/go/modelutil"
	"github.com/operations-research/benders-decomposition/facility_location/go/problem"
	"github.com/operations-research/benders-decomposition/linear_solver/go/linearsolver"
)

// SubProblem is the transportation LP solved for a fixed opening:
//
//	min  Σ_{f,c} cost_{f,c}·x_{f,c}
//	s.t. Σ_c x_{f,c} <= rhs_f   for every facility f
//	     Σ_f x_{f,c} >= demand_c for every customer c
//	     x >= 0
//
// where rhs_f is set from the incumbent before each solve.
type SubProblem struct {
	solver     *linearsolver.LinearSolver
	transport  map[modelutil.ArcKey]*linearsolver.Variable
	supply     map[string]*linearsolver.Constraint
	demand     map[string]*linearsolver.Constraint
	facilities []problem.Facility
	customers  []string
	params     linearsolver.Parameters
}

// BuildSubProblem builds the transportation LP with every supply row at full
// capacity. Solves always keep the Farkas certificate of an infeasible LP.
func BuildSubProblem(data *problem.Data, p linearsolver.Parameters) (*SubProblem, error) {
	ls := linearsolver.New("facility_location_sub_problem", linearsolver.LinearProgramming)
	transport, err := modelutil.BuildTransportColumns(data, ls)
	if err != nil {
		return nil, fmt.Errorf("%w: subproblem: %w", ErrBuild, err)
	}
	supply, err := modelutil.BuildSupplyConstraints(data, ls, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: subproblem: %w", ErrBuild, err)
	}
	demand, err := modelutil.BuildDemandConstraints(data, ls, transport)
	if err != nil {
		return nil, fmt.Errorf("%w: subproblem: %w", ErrBuild, err)
	}
	if err := ls.Err(); err != nil {
		return nil, fmt.Errorf("%w: subproblem: %w", ErrBuild, err)
	}

	sp := &SubProblem{
		solver:    ls,
		transport: transport,
		supply:    supply,
		demand:    demand,
		params:    p,
	}
	sp.params.KeepFarkasCertificate = proto.Bool(true)
	for _, f := range data.Facilities() {
		f.TransportCost = nil
		sp.facilities = append(sp.facilities, f)
	}
	for _, c := range data.Customers() {
		sp.customers = append(sp.customers, c.Name)
	}
	return sp, nil
}

// Solver returns the underlying model.
func (sp *SubProblem) Solver() *linearsolver.LinearSolver {
	return sp.solver
}

// SupplyConstraint returns the supply row of the facility called `name`.
func (sp *SubProblem) SupplyConstraint(name string) (*linearsolver.Constraint, error) {
	c, ok := sp.supply[name]
	if !ok {
		return nil, fmt.Errorf("supply row of %q: %w", name, problem.ErrUnknownFacility)
	}
	return c, nil
}

// DemandConstraint returns the demand row of the customer called `name`.
func (sp *SubProblem) DemandConstraint(name string) (*linearsolver.Constraint, error) {
	c, ok := sp.demand[name]
	if !ok {
		return nil, fmt.Errorf("demand row of %q: %w", name, problem.ErrUnknownCustomer)
	}
	return c, nil
}

// Constraints returns the supply rows in facility order followed by the
// demand rows in customer order.
func (sp *SubProblem) Constraints() []*linearsolver.Constraint {
	rows := make([]*linearsolver.Constraint, 0, len(sp.facilities)+len(sp.customers))
	for _, f := range sp.facilities {
		rows = append(rows, sp.supply[f.Name])
	}
	for _, c := range sp.customers {
		rows = append(rows, sp.demand[c])
	}
	return rows
}

// SetSupplyRHS overwrites the right-hand side of the supply rows named in
// `rhs`. No row is changed if a name is unknown.
func (sp *SubProblem) SetSupplyRHS(rhs map[string]float64) error {
	for name := range rhs {
		if _, ok := sp.supply[name]; !ok {
			return fmt.Errorf("setting supply of %q: %w", name, problem.ErrUnknownFacility)
		}
	}
	for name, v := range rhs {
		sp.supply[name].SetUB(v)
	}
	return nil
}

// OpenFacilities sets the supply row of every facility for which `isOpen`
// holds to the facility's supply, and every other supply row to zero. It
// returns the names of the open facilities in input order.
func (sp *SubProblem) OpenFacilities(isOpen func(problem.Facility) bool) []string {
	var opened []string
	for _, f := range sp.facilities {
		if isOpen(f) {
			sp.supply[f.Name].SetUB(f.Supply)
			opened = append(opened, f.Name)
		} else {
			sp.supply[f.Name].SetUB(0)
		}
	}
	return opened
}

// openAt returns the predicate telling whether a facility is open when the
// master variables take the values given by `value`.
func openAt(open map[string]*linearsolver.Variable, value func(*linearsolver.Variable) float64) func(problem.Facility) bool {
	return func(f problem.Facility) bool {
		return modelutil.IsNonZero(modelutil.OpenCoefficient(f, open, value))
	}
}

// Solve solves the LP from scratch.
func (sp *SubProblem) Solve() (linearsolver.ResultStatus, error) {
	return sp.solver.SolveWithParameters(sp.params)
}

// Status returns the status of the last solve.
func (sp *SubProblem) Status() linearsolver.ResultStatus {
	return sp.solver.Status()
}

// ObjectiveValue returns the transport cost of the last optimal solve.
func (sp *SubProblem) ObjectiveValue() float64 {
	return sp.solver.Objective().Value()
}

// Flows returns the non-zero flows of the last optimal solve.
func (sp *SubProblem) Flows(data *problem.Data) []modelutil.Flow {
	return modelutil.CollectFlows(data, sp.transport, (*linearsolver.Variable).SolutionValue)
}
