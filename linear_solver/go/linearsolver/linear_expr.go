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
	"fmt"
	"math"
	"sort"
	"strings"

	log "github.com/golang/glog"
)

// LinearArgument provides an interface for Variable and LinearExpr.
type LinearArgument interface {
	addToLinearExpr(e *LinearExpr, c float64)
}

// LinearExpr is a container for a linear expression over the variables of a
// single LinearSolver. The same variable may appear several times; terms are
// merged when the expression is turned into a row.
type LinearExpr struct {
	varCoeffs []varCoeff
	offset    float64
}

type varCoeff struct {
	v     *Variable
	coeff float64
}

// NewLinearExpr creates a new empty LinearExpr.
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// NewConstant creates and returns a LinearExpr containing the constant `c`.
func NewConstant(c float64) *LinearExpr {
	return &LinearExpr{offset: c}
}

// Add adds the linear argument term to the LinearExpr and returns itself.
func (l *LinearExpr) Add(la LinearArgument) *LinearExpr {
	l.AddTerm(la, 1)
	return l
}

// AddConstant adds the constant to the LinearExpr and returns itself.
func (l *LinearExpr) AddConstant(c float64) *LinearExpr {
	l.offset += c
	return l
}

// AddTerm adds the linear argument term with the given coefficient to the LinearExpr and returns itself.
func (l *LinearExpr) AddTerm(la LinearArgument, coeff float64) *LinearExpr {
	la.addToLinearExpr(l, coeff)
	return l
}

// AddSum adds the sum of the linear arguments to the LinearExpr and returns itself.
func (l *LinearExpr) AddSum(las ...LinearArgument) *LinearExpr {
	for _, la := range las {
		l.Add(la)
	}
	return l
}

// AddWeightedSum adds the linear arguments with the corresponding coefficients to the LinearExpr
// and returns itself.
func (l *LinearExpr) AddWeightedSum(las []LinearArgument, coeffs []float64) *LinearExpr {
	if len(coeffs) != len(las) {
		log.Fatalf("las and coeffs must be the same length: %v != %v", len(las), len(coeffs))
	}
	for i, la := range las {
		l.AddTerm(la, coeffs[i])
	}
	return l
}

// Offset returns the constant part of the expression.
func (l *LinearExpr) Offset() float64 {
	return l.offset
}

// Coefficient returns the merged coefficient of `v` in the expression.
func (l *LinearExpr) Coefficient(v *Variable) float64 {
	var c float64
	for _, vc := range l.varCoeffs {
		if vc.v == v {
			c += vc.coeff
		}
	}
	return c
}

// Variables returns the distinct variables of the expression, in order of
// first appearance.
func (l *LinearExpr) Variables() []*Variable {
	seen := make(map[*Variable]bool, len(l.varCoeffs))
	var vars []*Variable
	for _, vc := range l.varCoeffs {
		if !seen[vc.v] {
			seen[vc.v] = true
			vars = append(vars, vc.v)
		}
	}
	return vars
}

// Evaluate returns the value of the expression when every variable takes the
// value given by `value`.
func (l *LinearExpr) Evaluate(value func(*Variable) float64) float64 {
	result := l.offset
	for _, vc := range l.varCoeffs {
		result += vc.coeff * value(vc.v)
	}
	return result
}

// SolutionValue evaluates the expression at the last solution of the solver
// owning its variables.
func (l *LinearExpr) SolutionValue() float64 {
	return l.Evaluate((*Variable).SolutionValue)
}

func (l *LinearExpr) addToLinearExpr(e *LinearExpr, c float64) {
	for _, vc := range l.varCoeffs {
		e.varCoeffs = append(e.varCoeffs, varCoeff{v: vc.v, coeff: vc.coeff * c})
	}
	e.offset += l.offset * c
}

// merged returns the terms of the expression with duplicate variables summed
// and zero coefficients dropped, sorted by variable index.
func (l *LinearExpr) merged() []varCoeff {
	acc := make(map[*Variable]float64, len(l.varCoeffs))
	for _, vc := range l.varCoeffs {
		acc[vc.v] += vc.coeff
	}
	result := make([]varCoeff, 0, len(acc))
	for v, c := range acc {
		if c != 0 {
			result = append(result, varCoeff{v: v, coeff: c})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].v.index < result[j].v.index })
	return result
}

// String renders the expression using variable names, e.g. "2 x + 3 y - 1".
func (l *LinearExpr) String() string {
	var sb strings.Builder
	for i, vc := range l.merged() {
		writeTerm(&sb, i == 0, vc.coeff, vc.v.Name())
	}
	if l.offset != 0 || sb.Len() == 0 {
		writeTerm(&sb, sb.Len() == 0, l.offset, "")
	}
	return sb.String()
}

func writeTerm(sb *strings.Builder, first bool, coeff float64, name string) {
	switch {
	case first && coeff < 0:
		sb.WriteString("-")
	case !first && coeff < 0:
		sb.WriteString(" - ")
	case !first:
		sb.WriteString(" + ")
	}
	abs := math.Abs(coeff)
	if name == "" {
		fmt.Fprintf(sb, "%g", abs)
		return
	}
	if abs != 1 {
		fmt.Fprintf(sb, "%g ", abs)
	}
	sb.WriteString(name)
}

// LinearRange represents `LB <= Expr <= UB`. Infinite bounds are expressed
// with math.Inf.
type LinearRange struct {
	LB, UB float64
	Expr   *LinearExpr
}

// NewLessOrEqual returns the range `lhs <= rhs`.
func NewLessOrEqual(lhs LinearArgument, rhs float64) LinearRange {
	e := NewLinearExpr().Add(lhs)
	ub := rhs - e.offset
	return LinearRange{LB: math.Inf(-1), UB: ub, Expr: withoutOffset(e)}
}

// NewGreaterOrEqual returns the range `lhs >= rhs`.
func NewGreaterOrEqual(lhs LinearArgument, rhs float64) LinearRange {
	e := NewLinearExpr().Add(lhs)
	lb := rhs - e.offset
	return LinearRange{LB: lb, UB: math.Inf(1), Expr: withoutOffset(e)}
}

// NewEquality returns the range `lhs == rhs`.
func NewEquality(lhs LinearArgument, rhs float64) LinearRange {
	e := NewLinearExpr().Add(lhs)
	b := rhs - e.offset
	return LinearRange{LB: b, UB: b, Expr: withoutOffset(e)}
}

// withoutOffset clears the constant of `e` in place. Callers must read the
// constant into the bounds before calling it.
func withoutOffset(e *LinearExpr) *LinearExpr {
	e.offset = 0
	return e
}

// Violation returns by how much the range is violated when its variables take
// the values given by `value`; zero if it is satisfied.
func (r LinearRange) Violation(value func(*Variable) float64) float64 {
	activity := r.Expr.Evaluate(value)
	switch {
	case activity < r.LB:
		return r.LB - activity
	case activity > r.UB:
		return activity - r.UB
	}
	return 0
}

func (r LinearRange) String() string {
	switch {
	case r.LB == r.UB:
		return fmt.Sprintf("%v = %g", r.Expr, r.UB)
	case math.IsInf(r.LB, -1):
		return fmt.Sprintf("%v <= %g", r.Expr, r.UB)
	case math.IsInf(r.UB, 1):
		return fmt.Sprintf("%v >= %g", r.Expr, r.LB)
	}
	return fmt.Sprintf("%g <= %v <= %g", r.LB, r.Expr, r.UB)
}
