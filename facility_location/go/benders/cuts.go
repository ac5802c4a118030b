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

	"github.com/operations-research/benders-decomposition/facility_location/go/modelutil"
	"github.com/operations-research/benders-decomposition/linear_solver/go/linearsolver"
)

// CutKind tells which kind of Benders cut was derived from a subproblem solve.
type CutKind int

const (
	// NoCut means the incumbent was accepted as it is.
	NoCut CutKind = iota
	// FeasibilityCut excludes an opening whose capacity cannot serve the demand.
	FeasibilityCut
	// OptimalityCut bounds z from below by the transport cost.
	OptimalityCut
)

func (k CutKind) String() string {
	switch k {
	case NoCut:
		return "NO_CUT"
	case FeasibilityCut:
		return "FEASIBILITY_CUT"
	case OptimalityCut:
		return "OPTIMALITY_CUT"
	default:
		return fmt.Sprintf("CutKind(%d)", int(k))
	}
}

// Incumbent is the view of a candidate master solution used to generate cuts.
// linearsolver.MPCallbackContext implements it.
type Incumbent interface {
	VariableValue(v *linearsolver.Variable) float64
	AddLazyConstraint(r linearsolver.LinearRange) error
}

// Stats counts what the generator did over a solve.
type Stats struct {
	Incumbents      int
	FeasibilityCuts int
	OptimalityCuts  int
}

// CutGenerator derives Benders cuts for the master problem from the
// subproblem. It is run as the master callback on every new incumbent, on the
// solver goroutine, and owns the subproblem for the duration of the solve.
type CutGenerator struct {
	master      *MasterProblem
	sub         *SubProblem
	coeffs      *CutCoefficientMap
	diagnostics Diagnostics
	stats       Stats
}

// NewCutGenerator returns a generator reporting one Event per incumbent to
// `diagnostics`, which may be nil.
func NewCutGenerator(master *MasterProblem, sub *SubProblem, coeffs *CutCoefficientMap, diagnostics Diagnostics) *CutGenerator {
	if diagnostics == nil {
		diagnostics = Discard
	}
	return &CutGenerator{
		master:      master,
		sub:         sub,
		coeffs:      coeffs,
		diagnostics: diagnostics,
	}
}

// Stats returns the counters accumulated so far.
func (g *CutGenerator) Stats() Stats {
	return g.stats
}

// RunCallback implements linearsolver.MPCallback.
func (g *CutGenerator) RunCallback(ctx *linearsolver.MPCallbackContext) error {
	if ctx.Event() != linearsolver.MIPSolution {
		return nil
	}
	_, _, err := g.Generate(ctx)
	return err
}

// Generate sets the subproblem capacities from the incumbent, solves the
// subproblem and posts at most one cut:
//
//   - infeasible subproblem: Σ_i μ_i·coeff_i >= 0 with μ the Farkas duals;
//   - optimal with |cost - z| > modelutil.Tolerance: Σ_i π_i·coeff_i - z <= 0
//     with π the duals.
//
// It returns the kind of cut posted and the cut itself. Any other subproblem
// status, or any failure while reading duals or posting the cut, is returned
// as an error and nothing is posted.
func (g *CutGenerator) Generate(inc Incumbent) (CutKind, *linearsolver.LinearRange, error) {
	g.stats.Incumbents++
	ev := Event{Incumbent: g.stats.Incumbents, Z: inc.VariableValue(g.master.z)}

	ev.Opened = g.sub.OpenFacilities(openAt(g.master.open, inc.VariableValue))

	status, err := g.sub.Solve()
	if err != nil {
		return NoCut, nil, fmt.Errorf("incumbent %d: subproblem status %v: %w: %w", ev.Incumbent, status, ErrUnexpectedSubproblemStatus, err)
	}
	ev.SubproblemStatus = status
	rows := g.sub.Constraints()

	var (
		kind CutKind
		cut  linearsolver.LinearRange
	)
	switch status {
	case linearsolver.Infeasible:
		expr, err := g.coeffs.Combine(rows, (*linearsolver.Constraint).FarkasDualValue)
		if err != nil {
			return NoCut, nil, fmt.Errorf("feasibility cut for incumbent %d: %w", ev.Incumbent, err)
		}
		kind, cut = FeasibilityCut, linearsolver.NewGreaterOrEqual(expr, 0)
	case linearsolver.Optimal:
		ev.SubproblemObjective = g.sub.ObjectiveValue()
		if !modelutil.IsNonZero(ev.SubproblemObjective - ev.Z) {
			ev.Cut = NoCut
			g.diagnostics.Report(ev)
			return NoCut, nil, nil
		}
		expr, err := g.coeffs.Combine(rows, (*linearsolver.Constraint).DualValue)
		if err != nil {
			return NoCut, nil, fmt.Errorf("optimality cut for incumbent %d: %w", ev.Incumbent, err)
		}
		expr.AddTerm(g.master.z, -1)
		kind, cut = OptimalityCut, linearsolver.NewLessOrEqual(expr, 0)
	default:
		return NoCut, nil, fmt.Errorf("incumbent %d: subproblem status %v: %w", ev.Incumbent, status, ErrUnexpectedSubproblemStatus)
	}

	if err := inc.AddLazyConstraint(cut); err != nil {
		return NoCut, nil, fmt.Errorf("posting %v for incumbent %d: %w", kind, ev.Incumbent, err)
	}
	if kind == FeasibilityCut {
		g.stats.FeasibilityCuts++
	} else {
		g.stats.OptimalityCuts++
	}
	ev.Cut = kind
	ev.Violation = cut.Violation(inc.VariableValue)
	ev.Constraint = cut.String()
	g.diagnostics.Report(ev)
	return kind, &cut, nil
}
