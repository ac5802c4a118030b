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

// Package linearsolver offers an MPSolver-like API to build and solve linear
// and mixed-integer programs in pure Go.
//
// Models are made of variables with bounds, ranged linear constraints
// `lb <= a·x <= ub` and a linear objective. Linear programs are solved with a
// two-phase dense simplex that reports constraint dual values on optimal solves
// and Farkas certificates on infeasible ones. Mixed-integer programs are solved
// with branch and bound; an MPCallback registered with SetCallback runs at
// every improving integer solution and may add lazy constraints.
//
// Use it like this:
//
//	solver := linearsolver.New("lp", linearsolver.LinearProgramming)
//	x, _ := solver.MakeNumVar(0, math.Inf(1), "x")
//	ct, _ := solver.MakeRowConstraint(linearsolver.NewGreaterOrEqual(x, 2), "ct")
//	obj := solver.Objective()
//	obj.SetCoefficient(x, 1)
//	status, err := solver.Solve()
package linearsolver

import (
	"errors"
	"fmt"
	"math"

	log "github.com/golang/glog"
)

var (
	// ErrMixedModels holds the error when elements added to a model are different.
	ErrMixedModels = errors.New("elements are not part of the same model")
	// ErrDuplicateName is returned when a variable or constraint name is already used.
	ErrDuplicateName = errors.New("name already exists")
	// ErrNoDualValues is returned when dual values are read without an optimal LP solve.
	ErrNoDualValues = errors.New("dual values are only available after an optimal LP solve")
	// ErrNoFarkasCertificate is returned when a Farkas dual is read without an infeasible LP
	// solve run with KeepFarkasCertificate.
	ErrNoFarkasCertificate = errors.New("no Farkas certificate available")
	// ErrCallback wraps errors returned by an MPCallback.
	ErrCallback = errors.New("callback failed")
)

type (
	// VarIndex is the index of a variable in its solver, assigned at creation.
	VarIndex int32
	// ConstrIndex is the index of a constraint in its solver, assigned at creation.
	ConstrIndex int32
)

// ProblemType selects the kind of problem a LinearSolver solves.
type ProblemType int

const (
	// LinearProgramming ignores integrality and solves the continuous relaxation.
	LinearProgramming ProblemType = iota
	// MixedIntegerProgramming enforces integrality with branch and bound.
	MixedIntegerProgramming
)

func (t ProblemType) String() string {
	switch t {
	case LinearProgramming:
		return "LINEAR_PROGRAMMING"
	case MixedIntegerProgramming:
		return "MIXED_INTEGER_PROGRAMMING"
	}
	return fmt.Sprintf("ProblemType(%d)", int(t))
}

// ResultStatus is the outcome of a solve.
type ResultStatus int

const (
	// NotSolved means Solve was not called, or stopped before finding any solution.
	NotSolved ResultStatus = iota
	// Optimal means the solution is proven optimal.
	Optimal
	// Feasible means a solution was found but the search stopped on a limit.
	Feasible
	// Infeasible means the model is proven infeasible.
	Infeasible
	// Unbounded means the objective is proven unbounded.
	Unbounded
	// Abnormal means a numerical or callback failure stopped the solve.
	Abnormal
	// ModelInvalid means the model could not be built.
	ModelInvalid
)

func (s ResultStatus) String() string {
	switch s {
	case NotSolved:
		return "NOT_SOLVED"
	case Optimal:
		return "OPTIMAL"
	case Feasible:
		return "FEASIBLE"
	case Infeasible:
		return "INFEASIBLE"
	case Unbounded:
		return "UNBOUNDED"
	case Abnormal:
		return "ABNORMAL"
	case ModelInvalid:
		return "MODEL_INVALID"
	}
	return fmt.Sprintf("ResultStatus(%d)", int(s))
}

const (
	defaultPrimalTolerance      = 1e-7
	defaultDualTolerance        = 1e-9
	defaultIntegralityTolerance = 1e-6
	defaultMaxSimplexIterations = 100000
)

// Parameters holds the optional solve parameters. Unset fields take their
// default value; set them with the proto helpers:
//
//	params := linearsolver.Parameters{
//		MaxTimeInSeconds:      proto.Float64(10.0),
//		KeepFarkasCertificate: proto.Bool(true),
//	}
type Parameters struct {
	// PrimalTolerance bounds the accepted constraint violation (default 1e-7).
	PrimalTolerance *float64
	// DualTolerance bounds the accepted negative reduced cost (default 1e-9).
	DualTolerance *float64
	// IntegralityTolerance is the distance to an integer under which an
	// integer variable is considered integral (default 1e-6).
	IntegralityTolerance *float64
	// MaxTimeInSeconds stops branch and bound after that wall-clock time, if positive.
	MaxTimeInSeconds *float64
	// MaxNodes stops branch and bound after exploring that many nodes, if positive.
	MaxNodes *int64
	// MaxSimplexIterations bounds the pivots of a single LP solve (default 100000).
	MaxSimplexIterations *int64
	// KeepFarkasCertificate makes infeasible LP solves compute Farkas duals.
	KeepFarkasCertificate *bool
}

// GetPrimalTolerance returns the primal tolerance or its default.
func (p *Parameters) GetPrimalTolerance() float64 {
	if p == nil || p.PrimalTolerance == nil {
		return defaultPrimalTolerance
	}
	return *p.PrimalTolerance
}

// GetDualTolerance returns the dual tolerance or its default.
func (p *Parameters) GetDualTolerance() float64 {
	if p == nil || p.DualTolerance == nil {
		return defaultDualTolerance
	}
	return *p.DualTolerance
}

// GetIntegralityTolerance returns the integrality tolerance or its default.
func (p *Parameters) GetIntegralityTolerance() float64 {
	if p == nil || p.IntegralityTolerance == nil {
		return defaultIntegralityTolerance
	}
	return *p.IntegralityTolerance
}

// GetMaxTimeInSeconds returns the time limit, zero meaning none.
func (p *Parameters) GetMaxTimeInSeconds() float64 {
	if p == nil || p.MaxTimeInSeconds == nil {
		return 0
	}
	return *p.MaxTimeInSeconds
}

// GetMaxNodes returns the node limit, zero meaning none.
func (p *Parameters) GetMaxNodes() int64 {
	if p == nil || p.MaxNodes == nil {
		return 0
	}
	return *p.MaxNodes
}

// GetMaxSimplexIterations returns the per-LP pivot limit or its default.
func (p *Parameters) GetMaxSimplexIterations() int64 {
	if p == nil || p.MaxSimplexIterations == nil {
		return defaultMaxSimplexIterations
	}
	return *p.MaxSimplexIterations
}

// GetKeepFarkasCertificate reports whether Farkas duals are computed.
func (p *Parameters) GetKeepFarkasCertificate() bool {
	return p != nil && p.KeepFarkasCertificate != nil && *p.KeepFarkasCertificate
}

// LinearSolver holds a model and the result of its last solve.
//
// A LinearSolver is not safe for concurrent use. Callbacks run synchronously
// on the goroutine that called Solve.
type LinearSolver struct {
	name        string
	problemType ProblemType

	vars            []*Variable
	constraints     []*Constraint
	varNames        map[string]*Variable
	constraintNames map[string]*Constraint
	objective       *Objective
	callback        MPCallback

	// The first and only the first error is reported in Solve.
	err error

	status         ResultStatus
	objectiveValue float64
	bestBound      float64
	hasDuals       bool
	hasFarkas      bool
	nodes          int64
	iterations     int64
	numLazy        int
}

// New creates a new solver, given a name and a problem type.
func New(name string, t ProblemType) *LinearSolver {
	ls := &LinearSolver{
		name:            name,
		problemType:     t,
		varNames:        make(map[string]*Variable),
		constraintNames: make(map[string]*Constraint),
	}
	ls.objective = &Objective{solver: ls, coeffs: make(map[*Variable]float64)}
	return ls
}

// Name returns the name given at creation.
func (ls *LinearSolver) Name() string {
	return ls.name
}

// ProblemType returns the problem type selected at creation.
func (ls *LinearSolver) ProblemType() ProblemType {
	return ls.problemType
}

// Err returns the first error recorded while building the model, if any.
func (ls *LinearSolver) Err() error {
	return ls.err
}

// setErrorf records an error on the solver if none is recorded yet.
func (ls *LinearSolver) setErrorf(format string, a ...any) {
	err := fmt.Errorf(format, a...)
	log.Errorf("%v; use `-log_backtrace_at` flag to get the error stack", err)
	if ls.err == nil {
		ls.err = err
	}
}

// NumVariables returns the number of variables of the model.
func (ls *LinearSolver) NumVariables() int {
	return len(ls.vars)
}

// NumConstraints returns the number of constraints of the model, lazy ones included.
func (ls *LinearSolver) NumConstraints() int {
	return len(ls.constraints)
}

// NumLazyConstraints returns the number of constraints added by callbacks.
func (ls *LinearSolver) NumLazyConstraints() int {
	return ls.numLazy
}

// Variables returns the variables of the model in creation order.
func (ls *LinearSolver) Variables() []*Variable {
	return append([]*Variable(nil), ls.vars...)
}

// Constraints returns the constraints of the model in creation order.
func (ls *LinearSolver) Constraints() []*Constraint {
	return append([]*Constraint(nil), ls.constraints...)
}

// MakeVar creates and returns a new variable.
//
// Make `name` an empty string if you would like a unique variable name to be
// generated. Otherwise an error is returned if the provided `name` already
// exists as a variable name.
func (ls *LinearSolver) MakeVar(lb, ub float64, integer bool, name string) (*Variable, error) {
	if math.IsNaN(lb) || math.IsNaN(ub) {
		return nil, fmt.Errorf("variable %q has NaN bounds [%v,%v]", name, lb, ub)
	}
	if name == "" {
		name = fmt.Sprintf("v%d", len(ls.vars))
	}
	if ls.LookupVar(name) != nil {
		return nil, fmt.Errorf("variable with name %s: %w", name, ErrDuplicateName)
	}
	v := &Variable{
		solver:  ls,
		index:   VarIndex(len(ls.vars)),
		name:    name,
		lb:      lb,
		ub:      ub,
		integer: integer,
	}
	ls.vars = append(ls.vars, v)
	ls.varNames[name] = v
	return v, nil
}

// MakeNumVar creates a continuous variable.
func (ls *LinearSolver) MakeNumVar(lb, ub float64, name string) (*Variable, error) {
	return ls.MakeVar(lb, ub, false, name)
}

// MakeIntVar creates an integer variable.
func (ls *LinearSolver) MakeIntVar(lb, ub float64, name string) (*Variable, error) {
	return ls.MakeVar(lb, ub, true, name)
}

// MakeBoolVar creates a binary variable.
func (ls *LinearSolver) MakeBoolVar(name string) (*Variable, error) {
	return ls.MakeVar(0, 1, true, name)
}

// LookupVar returns the variable with the given name, or nil if not found.
func (ls *LinearSolver) LookupVar(name string) *Variable {
	return ls.varNames[name]
}

// MakeConstraint creates and returns a new empty constraint `lb <= 0 <= ub`.
//
// Make `name` an empty string if you would like a unique constraint name to be
// generated. Otherwise an error is returned if the provided `name` already
// exists as a constraint name.
func (ls *LinearSolver) MakeConstraint(lb, ub float64, name string) (*Constraint, error) {
	if math.IsNaN(lb) || math.IsNaN(ub) {
		return nil, fmt.Errorf("constraint %q has NaN bounds [%v,%v]", name, lb, ub)
	}
	if name == "" {
		name = fmt.Sprintf("c%d", len(ls.constraints))
	}
	if ls.LookupConstraint(name) != nil {
		return nil, fmt.Errorf("constraint with name %s: %w", name, ErrDuplicateName)
	}
	c := &Constraint{
		solver: ls,
		index:  ConstrIndex(len(ls.constraints)),
		name:   name,
		lb:     lb,
		ub:     ub,
		coeffs: make(map[*Variable]float64),
	}
	ls.constraints = append(ls.constraints, c)
	ls.constraintNames[name] = c
	return c, nil
}

// MakeRowConstraint creates the constraint `r.LB <= r.Expr <= r.UB`.
func (ls *LinearSolver) MakeRowConstraint(r LinearRange, name string) (*Constraint, error) {
	if err := ls.checkRange(r); err != nil {
		return nil, err
	}
	c, err := ls.MakeConstraint(r.LB-r.Expr.offset, r.UB-r.Expr.offset, name)
	if err != nil {
		return nil, err
	}
	for _, vc := range r.Expr.merged() {
		c.coeffs[vc.v] = vc.coeff
		c.order = append(c.order, vc.v)
	}
	return c, nil
}

func (ls *LinearSolver) checkRange(r LinearRange) error {
	if r.Expr == nil {
		return errors.New("linear range has no expression")
	}
	for _, vc := range r.Expr.varCoeffs {
		if vc.v.solver != ls {
			return fmt.Errorf("variable %s in range %v: %w", vc.v.Name(), r, ErrMixedModels)
		}
	}
	return nil
}

// LookupConstraint returns the constraint with the given name, or nil if not
// found.
func (ls *LinearSolver) LookupConstraint(name string) *Constraint {
	return ls.constraintNames[name]
}

// Objective returns the model's objective.
func (ls *LinearSolver) Objective() *Objective {
	return ls.objective
}

// SetCallback registers the callback run during branch and bound. A nil
// callback removes the registered one.
func (ls *LinearSolver) SetCallback(cb MPCallback) {
	ls.callback = cb
}

// Status returns the status of the last solve.
func (ls *LinearSolver) Status() ResultStatus {
	return ls.status
}

// NumNodes returns the number of branch-and-bound nodes explored by the last solve.
func (ls *LinearSolver) NumNodes() int64 {
	return ls.nodes
}

// NumIterations returns the number of simplex pivots of the last solve.
func (ls *LinearSolver) NumIterations() int64 {
	return ls.iterations
}

// Solve solves the model with default parameters and returns its status.
func (ls *LinearSolver) Solve() (ResultStatus, error) {
	return ls.SolveWithParameters(Parameters{})
}

// SolveWithParameters is the same as Solve() except it takes Parameters.
func (ls *LinearSolver) SolveWithParameters(p Parameters) (ResultStatus, error) {
	return ls.SolveInterruptible(p, nil)
}

// SolveInterruptible solves the model with the given parameters. Branch and
// bound stops at the next node once `interrupt` is closed; a nil channel never
// interrupts.
//
// A non-nil error is returned with ModelInvalid when the model was not built
// correctly, and with Abnormal when the simplex or a callback failed.
func (ls *LinearSolver) SolveInterruptible(p Parameters, interrupt <-chan struct{}) (ResultStatus, error) {
	ls.resetSolution()
	if ls.err != nil {
		ls.status = ModelInvalid
		return ls.status, ls.err
	}
	var err error
	if ls.problemType == LinearProgramming {
		ls.status, err = ls.solveLinearProgram(p)
	} else {
		ls.status, err = ls.branchAndBound(p, interrupt)
	}
	return ls.status, err
}

func (ls *LinearSolver) resetSolution() {
	ls.status = NotSolved
	ls.objectiveValue = 0
	ls.bestBound = 0
	ls.hasDuals = false
	ls.hasFarkas = false
	ls.nodes = 0
	ls.iterations = 0
	for _, v := range ls.vars {
		v.solutionValue = 0
	}
	for _, c := range ls.constraints {
		c.dual = 0
		c.farkas = 0
	}
}

func (ls *LinearSolver) solveLinearProgram(p Parameters) (ResultStatus, error) {
	res := solveLP(ls.relaxation(ls.variableBounds()), newSimplexOptions(p, p.GetKeepFarkasCertificate()))
	ls.iterations = res.iterations
	switch res.status {
	case Optimal:
		ls.storeSolution(res.x)
		ls.bestBound = ls.objectiveValue
		sign := ls.objective.sign()
		for i, c := range ls.constraints {
			c.dual = sign * res.duals[i]
		}
		ls.hasDuals = true
	case Infeasible:
		if res.farkas != nil {
			for i, c := range ls.constraints {
				c.farkas = res.farkas[i]
			}
			ls.hasFarkas = true
		}
	case Abnormal:
		return Abnormal, res.err
	}
	return res.status, nil
}

// storeSolution copies `x` into the variables and evaluates the objective.
func (ls *LinearSolver) storeSolution(x []float64) {
	for i, v := range ls.vars {
		v.solutionValue = x[i]
	}
	ls.objectiveValue = ls.objective.offset
	for v, c := range ls.objective.coeffs {
		ls.objectiveValue += c * x[v.index]
	}
}

func (ls *LinearSolver) variableBounds() []ClosedInterval {
	bounds := make([]ClosedInterval, len(ls.vars))
	for i, v := range ls.vars {
		bounds[i] = v.Bounds()
	}
	return bounds
}

// relaxation returns the minimization LP of the model under `bounds`.
func (ls *LinearSolver) relaxation(bounds []ClosedInterval) *lpProblem {
	p := &lpProblem{
		obj:    make([]float64, len(ls.vars)),
		bounds: bounds,
		rows:   make([]lpRow, len(ls.constraints)),
	}
	sign := ls.objective.sign()
	for v, c := range ls.objective.coeffs {
		p.obj[v.index] = sign * c
	}
	for i, c := range ls.constraints {
		row := lpRow{lb: c.lb, ub: c.ub}
		for _, v := range c.order {
			if coeff := c.coeffs[v]; coeff != 0 {
				row.cols = append(row.cols, int(v.index))
				row.coeffs = append(row.coeffs, coeff)
			}
		}
		p.rows[i] = row
	}
	return p
}

// Objective is the linear objective of the model.
type Objective struct {
	solver   *LinearSolver
	coeffs   map[*Variable]float64
	offset   float64
	maximize bool
}

// SetCoefficient sets the coefficient on a variable in the objective.
func (o *Objective) SetCoefficient(v *Variable, coef float64) {
	if v.solver != o.solver {
		o.solver.setErrorf("invalid variable %v in objective: %w", v.Name(), ErrMixedModels)
		return
	}
	o.coeffs[v] = coef
}

// Coefficient gets the coefficient on a variable in the objective.
func (o *Objective) Coefficient(v *Variable) float64 {
	return o.coeffs[v]
}

// SetOffset sets the constant term of the objective.
func (o *Objective) SetOffset(offset float64) {
	o.offset = offset
}

// Offset returns the constant term of the objective.
func (o *Objective) Offset() float64 {
	return o.offset
}

// SetMinimization sets the optimization direction to minimize.
func (o *Objective) SetMinimization() {
	o.maximize = false
}

// SetMaximization sets the optimization direction to maximize.
func (o *Objective) SetMaximization() {
	o.maximize = true
}

// Minimization returns true if the objective is minimized.
func (o *Objective) Minimization() bool {
	return !o.maximize
}

// Maximization returns true if the objective is maximized.
func (o *Objective) Maximization() bool {
	return o.maximize
}

// Clear removes all terms and the offset, and resets the direction to minimize.
func (o *Objective) Clear() {
	o.coeffs = make(map[*Variable]float64)
	o.offset = 0
	o.maximize = false
}

// Value returns the objective value of the last solution.
func (o *Objective) Value() float64 {
	return o.solver.objectiveValue
}

// BestBound returns the best proven bound on the objective of the last solve.
func (o *Objective) BestBound() float64 {
	return o.solver.bestBound
}

func (o *Objective) sign() float64 {
	if o.maximize {
		return -1
	}
	return 1
}

// Variable is a decision variable of a LinearSolver.
type Variable struct {
	solver        *LinearSolver
	index         VarIndex
	name          string
	lb, ub        float64
	integer       bool
	solutionValue float64
}

// Name returns the name of the variable.
func (v *Variable) Name() string {
	return v.name
}

// Index returns the index of the variable.
func (v *Variable) Index() VarIndex {
	return v.index
}

// LB returns the lower bound of the variable.
func (v *Variable) LB() float64 {
	return v.lb
}

// UB returns the upper bound of the variable.
func (v *Variable) UB() float64 {
	return v.ub
}

// Bounds returns the interval of values the variable may take.
func (v *Variable) Bounds() ClosedInterval {
	return ClosedInterval{Start: v.lb, End: v.ub}
}

// SetBounds sets both bounds of the variable.
func (v *Variable) SetBounds(lb, ub float64) {
	v.lb, v.ub = lb, ub
}

// SetLB sets the lower bound of the variable.
func (v *Variable) SetLB(lb float64) {
	v.lb = lb
}

// SetUB sets the upper bound of the variable.
func (v *Variable) SetUB(ub float64) {
	v.ub = ub
}

// Integer returns true if the variable must take an integral value.
func (v *Variable) Integer() bool {
	return v.integer
}

// SolutionValue returns the value of the variable in the last solution.
func (v *Variable) SolutionValue() float64 {
	return v.solutionValue
}

func (v *Variable) addToLinearExpr(e *LinearExpr, c float64) {
	e.varCoeffs = append(e.varCoeffs, varCoeff{v: v, coeff: c})
}

// Constraint is a ranged linear constraint `lb <= a·x <= ub`.
type Constraint struct {
	solver *LinearSolver
	index  ConstrIndex
	name   string
	lb, ub float64
	coeffs map[*Variable]float64
	// order keeps variables in insertion order so solves are deterministic.
	order  []*Variable
	lazy   bool
	dual   float64
	farkas float64
}

// Name returns the name of the constraint.
func (c *Constraint) Name() string {
	return c.name
}

// Index returns the index of the constraint. Indices are never reused, so
// they can key maps across solves.
func (c *Constraint) Index() ConstrIndex {
	return c.index
}

// LB returns the lower bound of the constraint.
func (c *Constraint) LB() float64 {
	return c.lb
}

// UB returns the upper bound of the constraint.
func (c *Constraint) UB() float64 {
	return c.ub
}

// SetBounds sets both bounds of the constraint.
func (c *Constraint) SetBounds(lb, ub float64) {
	c.lb, c.ub = lb, ub
}

// SetLB sets the lower bound of the constraint.
func (c *Constraint) SetLB(lb float64) {
	c.lb = lb
}

// SetUB sets the upper bound of the constraint.
func (c *Constraint) SetUB(ub float64) {
	c.ub = ub
}

// IsLazy returns true if the constraint was added by a callback.
func (c *Constraint) IsLazy() bool {
	return c.lazy
}

// SetCoefficient sets the coefficient on a variable in a constraint.
func (c *Constraint) SetCoefficient(v *Variable, coef float64) {
	if v.solver != c.solver {
		c.solver.setErrorf("invalid variable %v in constraint %v: %w", v.Name(), c.name, ErrMixedModels)
		return
	}
	if _, ok := c.coeffs[v]; !ok {
		c.order = append(c.order, v)
	}
	c.coeffs[v] = coef
}

// Coefficient gets the coefficient on a variable in a constraint.
func (c *Constraint) Coefficient(v *Variable) float64 {
	return c.coeffs[v]
}

// Expr returns the left-hand side of the constraint.
func (c *Constraint) Expr() *LinearExpr {
	e := NewLinearExpr()
	for _, v := range c.order {
		e.AddTerm(v, c.coeffs[v])
	}
	return e
}

// Range returns the constraint as a LinearRange.
func (c *Constraint) Range() LinearRange {
	return LinearRange{LB: c.lb, UB: c.ub, Expr: c.Expr()}
}

// Activity returns the value of the left-hand side at the last solution.
func (c *Constraint) Activity() float64 {
	return c.Expr().SolutionValue()
}

// DualValue returns the dual value of the constraint after an optimal LP
// solve: the rate of change of the optimal objective per unit increase of the
// active bound.
func (c *Constraint) DualValue() (float64, error) {
	if !c.solver.hasDuals {
		return 0, fmt.Errorf("constraint %s: %w", c.name, ErrNoDualValues)
	}
	return c.dual, nil
}

// FarkasDualValue returns the Farkas multiplier μ of the constraint after an
// infeasible LP solve with KeepFarkasCertificate set. Over all constraints,
// μ·A is non-negative on every variable with a zero lower bound and no upper
// bound, while μ·b < 0 where b takes the bound of each row its multiplier
// points to: μ >= 0 on upper bounds and μ <= 0 on lower bounds.
func (c *Constraint) FarkasDualValue() (float64, error) {
	if !c.solver.hasFarkas {
		return 0, fmt.Errorf("constraint %s: %w", c.name, ErrNoFarkasCertificate)
	}
	return c.farkas, nil
}
