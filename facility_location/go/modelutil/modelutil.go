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

// Package modelutil builds the variables and rows shared by the facility
// location models, and reads solutions back from them.
package modelutil

import (
	"fmt"
	"math"

	"github.com/operations-research/benders-decomposition/facility_location/go/problem"
	"github.com/operations-research/benders-decomposition/linear_solver/go/linearsolver"
)

// Tolerance under which a value is treated as zero, both to decide whether a
// facility is open and whether a cost estimate matches.
const Tolerance = 1e-4

// IsNonZero reports whether |v| > Tolerance.
func IsNonZero(v float64) bool {
	return math.Abs(v) > Tolerance
}

// ArcKey identifies the flow from a facility to a customer.
type ArcKey struct {
	Facility string
	Customer string
}

// Flow is the amount shipped on an arc in a solution.
type Flow struct {
	Facility string
	Customer string
	Amount   float64
}

// Solution is the outcome of a facility location solve.
type Solution struct {
	Status    linearsolver.ResultStatus
	Objective float64
	// Opened lists the open facilities, existing ones included, in input order.
	Opened []string
	// Flows lists the arcs carrying a non-zero flow.
	Flows []Flow
}

// BuildFacilityColumns adds one binary open variable per facility, named
// facility_<name>. Candidates cost their build cost; existing facilities are
// fixed open at no cost.
func BuildFacilityColumns(data *problem.Data, ls *linearsolver.LinearSolver) (map[string]*linearsolver.Variable, error) {
	columns := make(map[string]*linearsolver.Variable, data.NumFacilities())
	obj := ls.Objective()
	for _, f := range data.Facilities() {
		lb, cost := 0.0, f.BuildCost
		if f.Exists {
			lb, cost = 1, 0
		}
		v, err := ls.MakeVar(lb, 1, true, "facility_"+f.Name)
		if err != nil {
			return nil, fmt.Errorf("open variable of %q: %w", f.Name, err)
		}
		obj.SetCoefficient(v, cost)
		columns[f.Name] = v
	}
	return columns, nil
}

// BuildTransportColumns adds one non-negative flow variable x_<facility>_<customer>
// per arc, costed at the unit transport cost.
func BuildTransportColumns(data *problem.Data, ls *linearsolver.LinearSolver) (map[ArcKey]*linearsolver.Variable, error) {
	arcs := data.Arcs()
	columns := make(map[ArcKey]*linearsolver.Variable, len(arcs))
	obj := ls.Objective()
	for _, a := range arcs {
		v, err := ls.MakeNumVar(0, math.Inf(1), fmt.Sprintf("x_%s_%s", a.Facility, a.Customer))
		if err != nil {
			return nil, fmt.Errorf("flow variable of %s->%s: %w", a.Facility, a.Customer, err)
		}
		obj.SetCoefficient(v, a.Cost)
		columns[ArcKey{Facility: a.Facility, Customer: a.Customer}] = v
	}
	return columns, nil
}

// BuildSupplyConstraints adds the row supply_<name> for every facility:
//
//	Σ_c x_{f,c} - supply_f·open_f <= 0
//
// when `open` holds a variable for a candidate facility f, else
//
//	Σ_c x_{f,c} <= supply_f.
func BuildSupplyConstraints(data *problem.Data, ls *linearsolver.LinearSolver, transport map[ArcKey]*linearsolver.Variable, open map[string]*linearsolver.Variable) (map[string]*linearsolver.Constraint, error) {
	rows := make(map[string]*linearsolver.Constraint, data.NumFacilities())
	customers := data.Customers()
	for _, f := range data.Facilities() {
		lhs := linearsolver.NewLinearExpr()
		for _, c := range customers {
			if x, ok := transport[ArcKey{Facility: f.Name, Customer: c.Name}]; ok {
				lhs.Add(x)
			}
		}
		rhs := f.Supply
		if v, ok := open[f.Name]; ok && !f.Exists {
			lhs.AddTerm(v, -f.Supply)
			rhs = 0
		}
		row, err := ls.MakeRowConstraint(linearsolver.NewLessOrEqual(lhs, rhs), "supply_"+f.Name)
		if err != nil {
			return nil, fmt.Errorf("supply row of %q: %w", f.Name, err)
		}
		rows[f.Name] = row
	}
	return rows, nil
}

// BuildDemandConstraints adds the row demand_<name> for every customer:
//
//	Σ_f x_{f,c} >= demand_c.
func BuildDemandConstraints(data *problem.Data, ls *linearsolver.LinearSolver, transport map[ArcKey]*linearsolver.Variable) (map[string]*linearsolver.Constraint, error) {
	rows := make(map[string]*linearsolver.Constraint, data.NumCustomers())
	facilities := data.Facilities()
	for _, c := range data.Customers() {
		lhs := linearsolver.NewLinearExpr()
		for _, f := range facilities {
			if x, ok := transport[ArcKey{Facility: f.Name, Customer: c.Name}]; ok {
				lhs.Add(x)
			}
		}
		row, err := ls.MakeRowConstraint(linearsolver.NewGreaterOrEqual(lhs, c.Demand), "demand_"+c.Name)
		if err != nil {
			return nil, fmt.Errorf("demand row of %q: %w", c.Name, err)
		}
		rows[c.Name] = row
	}
	return rows, nil
}

// OpenCoefficient returns 1 for an existing facility and the value `value`
// gives to its open variable otherwise. A candidate without an open variable
// is treated as closed.
func OpenCoefficient(f problem.Facility, open map[string]*linearsolver.Variable, value func(*linearsolver.Variable) float64) float64 {
	if f.Exists {
		return 1
	}
	v, ok := open[f.Name]
	if !ok {
		return 0
	}
	return value(v)
}

// OpenedFacilities returns, in input order, the facilities whose open
// coefficient is non-zero.
func OpenedFacilities(data *problem.Data, open map[string]*linearsolver.Variable, value func(*linearsolver.Variable) float64) []string {
	var opened []string
	for _, f := range data.Facilities() {
		if IsNonZero(OpenCoefficient(f, open, value)) {
			opened = append(opened, f.Name)
		}
	}
	return opened
}

// CollectFlows returns the arcs whose flow variable is non-zero under `value`,
// in the order of problem.Data.Arcs.
func CollectFlows(data *problem.Data, transport map[ArcKey]*linearsolver.Variable, value func(*linearsolver.Variable) float64) []Flow {
	var flows []Flow
	for _, a := range data.Arcs() {
		x, ok := transport[ArcKey{Facility: a.Facility, Customer: a.Customer}]
		if !ok {
			continue
		}
		if amount := value(x); IsNonZero(amount) {
			flows = append(flows, Flow{Facility: a.Facility, Customer: a.Customer, Amount: amount})
		}
	}
	return flows
}
