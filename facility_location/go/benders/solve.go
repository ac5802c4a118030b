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

// Package benders solves the capacitated facility location problem with
// Benders decomposition: a master integer program opens facilities and a
// transportation LP, solved inside the master callback, returns feasibility
// and optimality cuts until the master optimum is consistent with the true
// transport cost.
package benders

import (
	"errors"
	"fmt"

	log "github.com/golang/glog"

	"github.com/operations-research/benders-decomposition/facility_location/go/modelutil"
	"github.com/operations-research/benders-decomposition/facility_location/go/problem"
	"github.com/operations-research/benders-decomposition/linear_solver/go/linearsolver"
)

var (
	// ErrBuild is returned when the master problem or the subproblem cannot be built.
	ErrBuild = errors.New("model build failure")
	// ErrUnexpectedSubproblemStatus is returned when the subproblem is neither
	// optimal nor infeasible.
	ErrUnexpectedSubproblemStatus = errors.New("unexpected subproblem status")
	// ErrUnknownConstraint is returned when a subproblem row has no cut coefficient.
	ErrUnknownConstraint = errors.New("unknown subproblem constraint")
)

// Options configures Solve. The zero value solves to optimality with default
// parameters and logs events through glog.
type Options struct {
	// Parameters of the master branch and bound.
	Parameters linearsolver.Parameters
	// SubproblemParameters of every subproblem solve. The Farkas certificate is
	// always kept.
	SubproblemParameters linearsolver.Parameters
	// Diagnostics receives one event per incumbent. Defaults to LogDiagnostics.
	Diagnostics Diagnostics
	// Interrupt stops the master search when closed.
	Interrupt <-chan struct{}
	// ExportDir, if set, receives master_<n>.lp and subproblem_<n>.lp before
	// and after the solve.
	ExportDir string
}

// Result is the outcome of Solve.
type Result struct {
	modelutil.Solution
	// BestBound is the best proven lower bound of the master problem.
	BestBound float64
	// TransportCost is the cost of the reported flows.
	TransportCost float64
	Nodes         int64
	Stats
}

// Solve builds the master problem and the subproblem for `data`, registers the
// cut generator and solves. An infeasible instance is reported through
// Result.Status, not as an error.
func Solve(data *problem.Data, opts Options) (*Result, error) {
	master, err := BuildMasterProblem(data)
	if err != nil {
		return nil, err
	}
	sub, err := BuildSubProblem(data, opts.SubproblemParameters)
	if err != nil {
		return nil, err
	}
	exp := newExporter(opts.ExportDir)
	if err := exp.write("master", master.Solver()); err != nil {
		return nil, err
	}
	if err := exp.write("subproblem", sub.Solver()); err != nil {
		return nil, err
	}

	coeffs, err := NewCutCoefficientMap(data, master, sub)
	if err != nil {
		return nil, fmt.Errorf("%w: cut coefficients: %w", ErrBuild, err)
	}
	diagnostics := opts.Diagnostics
	if diagnostics == nil {
		diagnostics = LogDiagnostics{}
	}
	gen := NewCutGenerator(master, sub, coeffs, diagnostics)
	master.RegisterCallback(gen)

	status, err := master.Solve(opts.Parameters, opts.Interrupt)
	if err != nil {
		return nil, fmt.Errorf("solving master problem: %w", err)
	}
	if err := exp.write("master", master.Solver()); err != nil {
		return nil, err
	}
	log.V(1).Infof("master problem %v after %d nodes, %d cuts", status, master.Solver().NumNodes(), master.Solver().NumLazyConstraints())

	res := &Result{
		Solution: modelutil.Solution{Status: status},
		Nodes:    master.Solver().NumNodes(),
		Stats:    gen.Stats(),
	}
	if status != linearsolver.Optimal && status != linearsolver.Feasible {
		return res, nil
	}
	obj := master.Solver().Objective()
	res.Objective = obj.Value()
	res.BestBound = obj.BestBound()

	// Solve the subproblem once more at the final opening to report flows.
	res.Opened = sub.OpenFacilities(openAt(master.open, (*linearsolver.Variable).SolutionValue))
	subStatus, err := sub.Solve()
	if err != nil {
		return nil, fmt.Errorf("solving subproblem at the final opening: %w", err)
	}
	if subStatus != linearsolver.Optimal {
		return nil, fmt.Errorf("subproblem at the final opening is %v: %w", subStatus, ErrUnexpectedSubproblemStatus)
	}
	res.TransportCost = sub.ObjectiveValue()
	res.Flows = sub.Flows(data)
	return res, nil
}
