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

package linearsolver

import (
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/golang/glog"
)

// maxNodeResolves bounds how many times a single node is re-solved after
// callbacks cut off its solution.
const maxNodeResolves = 10000

// MPCallbackEvent tells at which point of the search a callback runs.
type MPCallbackEvent int

const (
	// MIPSolution is raised when branch and bound found an integer solution
	// improving on the incumbent, before accepting it.
	MIPSolution MPCallbackEvent = iota
)

func (e MPCallbackEvent) String() string {
	if e == MIPSolution {
		return "MIP_SOLUTION"
	}
	return fmt.Sprintf("MPCallbackEvent(%d)", int(e))
}

// MPCallback is run synchronously by branch and bound. Returning an error
// aborts the solve with status Abnormal.
type MPCallback interface {
	RunCallback(ctx *MPCallbackContext) error
}

// MPCallbackFunc adapts a function to the MPCallback interface.
type MPCallbackFunc func(ctx *MPCallbackContext) error

// RunCallback calls f(ctx).
func (f MPCallbackFunc) RunCallback(ctx *MPCallbackContext) error {
	return f(ctx)
}

// MPCallbackContext gives a callback read access to the candidate solution
// and lets it add lazy constraints.
type MPCallbackContext struct {
	solver    *LinearSolver
	event     MPCallbackEvent
	values    []float64
	objective float64
	nodes     int64
	lazy      []LinearRange
}

// Event returns the event that triggered the callback.
func (ctx *MPCallbackContext) Event() MPCallbackEvent {
	return ctx.event
}

// VariableValue returns the value of `v` in the candidate solution.
func (ctx *MPCallbackContext) VariableValue(v *Variable) float64 {
	if v.solver != ctx.solver {
		log.Fatalf("variable %v read from a callback of another solver: %v", v.Name(), ErrMixedModels)
	}
	return ctx.values[v.index]
}

// ObjectiveValue returns the objective value of the candidate solution.
func (ctx *MPCallbackContext) ObjectiveValue() float64 {
	return ctx.objective
}

// NumExploredNodes returns the number of nodes explored so far.
func (ctx *MPCallbackContext) NumExploredNodes() int64 {
	return ctx.nodes
}

// AddLazyConstraint adds `r` to the model. The constraint is valid for the
// whole search from now on. If it cuts off the candidate solution, the
// candidate is rejected and its node solved again.
func (ctx *MPCallbackContext) AddLazyConstraint(r LinearRange) error {
	if err := ctx.solver.checkRange(r); err != nil {
		return err
	}
	ctx.lazy = append(ctx.lazy, r)
	return nil
}

type bbNode struct {
	bounds []ClosedInterval
	depth  int
}

type incumbent struct {
	x         []float64
	objective float64
}

// branchAndBound explores nodes depth first. Objective values are handled in
// the minimization sense.
func (ls *LinearSolver) branchAndBound(p Parameters, interrupt <-chan struct{}) (ResultStatus, error) {
	opts := newSimplexOptions(p, false)
	var deadline time.Time
	if limit := p.GetMaxTimeInSeconds(); limit > 0 {
		deadline = time.Now().Add(time.Duration(limit * float64(time.Second)))
	}

	var best *incumbent
	stack := []bbNode{{bounds: ls.variableBounds()}}
	limitReached := false
	for len(stack) > 0 {
		if ls.stopRequested(p, deadline, interrupt) {
			limitReached = true
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ls.nodes++

		children, err := ls.processNode(nd, opts, p, &best)
		if err != nil {
			if errors.Is(err, errUnboundedRelaxation) {
				return Unbounded, nil
			}
			return Abnormal, err
		}
		stack = append(stack, children...)
	}

	sign := ls.objective.sign()
	if best == nil {
		if limitReached {
			return NotSolved, nil
		}
		return Infeasible, nil
	}
	ls.storeSolution(best.x)
	if limitReached {
		bound := math.Min(best.objective, ls.openBound(stack, opts))
		ls.bestBound = sign*bound + ls.objective.offset
		return Feasible, nil
	}
	ls.bestBound = ls.objectiveValue
	return Optimal, nil
}

var errUnboundedRelaxation = errors.New("unbounded relaxation")

func (ls *LinearSolver) stopRequested(p Parameters, deadline time.Time, interrupt <-chan struct{}) bool {
	if limit := p.GetMaxNodes(); limit > 0 && ls.nodes >= limit {
		return true
	}
	if !deadline.IsZero() && time.Now().After(deadline) {
		return true
	}
	select {
	case <-interrupt:
		return true
	default:
	}
	return false
}

// processNode solves the relaxation of `nd`, runs the callback on improving
// integer solutions and returns the children to explore.
func (ls *LinearSolver) processNode(nd bbNode, opts simplexOptions, p Parameters, best **incumbent) ([]bbNode, error) {
	intTol := p.GetIntegralityTolerance()
	for resolves := 0; ; resolves++ {
		if resolves > maxNodeResolves {
			return nil, fmt.Errorf("node at depth %d re-solved %d times after lazy constraints", nd.depth, resolves)
		}
		res := solveLP(ls.relaxation(nd.bounds), opts)
		ls.iterations += res.iterations
		switch res.status {
		case Optimal:
		case Infeasible:
			return nil, nil
		case Unbounded:
			return nil, errUnboundedRelaxation
		default:
			return nil, fmt.Errorf("node at depth %d: %w", nd.depth, res.err)
		}
		if *best != nil && res.objective >= (*best).objective-objectiveTolerance((*best).objective) {
			return nil, nil
		}

		if j := ls.mostFractional(res.x, intTol); j >= 0 {
			return branch(nd, j, res.x[j]), nil
		}
		x := ls.roundIntegers(res.x)

		if ls.callback != nil {
			ctx := &MPCallbackContext{
				solver:    ls,
				event:     MIPSolution,
				values:    x,
				objective: ls.objective.sign()*res.objective + ls.objective.offset,
				nodes:     ls.nodes,
			}
			if err := ls.callback.RunCallback(ctx); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrCallback, err)
			}
			cutOff := false
			for _, r := range ctx.lazy {
				if _, err := ls.addLazyConstraint(r); err != nil {
					return nil, err
				}
				if r.Violation(func(v *Variable) float64 { return x[v.index] }) > opts.primalTol {
					cutOff = true
				}
			}
			if cutOff {
				continue
			}
		}
		*best = &incumbent{x: x, objective: res.objective}
		return nil, nil
	}
}

func objectiveTolerance(obj float64) float64 {
	return 1e-9 * math.Max(1, math.Abs(obj))
}

// mostFractional returns the integer variable whose value is farthest from an
// integer, or -1 if all integer variables are integral.
func (ls *LinearSolver) mostFractional(x []float64, tol float64) int {
	best, bestDist := -1, tol
	for _, v := range ls.vars {
		if !v.integer {
			continue
		}
		val := x[v.index]
		if dist := math.Abs(val - math.Round(val)); dist > bestDist {
			best, bestDist = int(v.index), dist
		}
	}
	return best
}

func (ls *LinearSolver) roundIntegers(x []float64) []float64 {
	out := append([]float64(nil), x...)
	for _, v := range ls.vars {
		if v.integer {
			out[v.index] = math.Round(out[v.index])
		}
	}
	return out
}

// branch splits `nd` on variable j. The child on the side nearest to `val`
// is returned last so it is explored first.
func branch(nd bbNode, j int, val float64) []bbNode {
	down, up := nd.bounds[j].Split(val)
	downNode := bbNode{bounds: append([]ClosedInterval(nil), nd.bounds...), depth: nd.depth + 1}
	downNode.bounds[j] = down
	upNode := bbNode{bounds: append([]ClosedInterval(nil), nd.bounds...), depth: nd.depth + 1}
	upNode.bounds[j] = up
	if val-math.Floor(val) > 0.5 {
		return []bbNode{downNode, upNode}
	}
	return []bbNode{upNode, downNode}
}

// openBound returns the smallest relaxation value over the unexplored nodes.
func (ls *LinearSolver) openBound(stack []bbNode, opts simplexOptions) float64 {
	bound := math.Inf(1)
	for _, nd := range stack {
		res := solveLP(ls.relaxation(nd.bounds), opts)
		if res.status == Optimal {
			bound = math.Min(bound, res.objective)
		}
	}
	return bound
}

// addLazyConstraint appends `r` to the model as a lazy constraint.
func (ls *LinearSolver) addLazyConstraint(r LinearRange) (*Constraint, error) {
	c, err := ls.MakeRowConstraint(r, fmt.Sprintf("lazy_%d", ls.numLazy))
	if err != nil {
		return nil, err
	}
	c.lazy = true
	ls.numLazy++
	return c, nil
}
