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

	"github.com/operations-research/benders-decomposition/facility_location/go/problem"
	"github.com/operations-research/benders-decomposition/linear_solver/go/linearsolver"
)

// CutCoefficientMap gives, for every subproblem row, the right-hand side of
// that row as a linear expression over master variables:
//
//	supply row of a candidate f:  supply_f·open_f
//	supply row of an existing f:  supply_f
//	demand row of c:              demand_c
//
// Rows are keyed by their ConstrIndex in the subproblem.
type CutCoefficientMap struct {
	exprs map[linearsolver.ConstrIndex]*linearsolver.LinearExpr
}

// NewCutCoefficientMap builds the map for the rows of `sub`.
func NewCutCoefficientMap(data *problem.Data, master *MasterProblem, sub *SubProblem) (*CutCoefficientMap, error) {
	m := &CutCoefficientMap{exprs: make(map[linearsolver.ConstrIndex]*linearsolver.LinearExpr)}
	for _, f := range data.Facilities() {
		row, err := sub.SupplyConstraint(f.Name)
		if err != nil {
			return nil, err
		}
		expr := linearsolver.NewLinearExpr()
		if f.Exists {
			expr.AddConstant(f.Supply)
		} else {
			open, err := master.OpenVariable(f.Name)
			if err != nil {
				return nil, err
			}
			expr.AddTerm(open, f.Supply)
		}
		m.exprs[row.Index()] = expr
	}
	for _, c := range data.Customers() {
		row, err := sub.DemandConstraint(c.Name)
		if err != nil {
			return nil, err
		}
		m.exprs[row.Index()] = linearsolver.NewConstant(c.Demand)
	}
	return m, nil
}

// Len returns the number of rows in the map.
func (m *CutCoefficientMap) Len() int {
	return len(m.exprs)
}

// Coefficient returns the expression of row `c`.
func (m *CutCoefficientMap) Coefficient(c *linearsolver.Constraint) (*linearsolver.LinearExpr, error) {
	expr, ok := m.exprs[c.Index()]
	if !ok {
		return nil, fmt.Errorf("row %s (index %d): %w", c.Name(), c.Index(), ErrUnknownConstraint)
	}
	return expr, nil
}

// Combine returns Σ_i weight(row_i)·coefficient(row_i) over `rows`. It stops
// at the first error returned by `weight` or by a lookup.
func (m *CutCoefficientMap) Combine(rows []*linearsolver.Constraint, weight func(*linearsolver.Constraint) (float64, error)) (*linearsolver.LinearExpr, error) {
	cut := linearsolver.NewLinearExpr()
	for _, row := range rows {
		expr, err := m.Coefficient(row)
		if err != nil {
			return nil, err
		}
		w, err := weight(row)
		if err != nil {
			return nil, err
		}
		if w != 0 {
			cut.AddTerm(expr, w)
		}
	}
	return cut, nil
}
