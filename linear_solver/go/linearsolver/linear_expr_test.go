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
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLinearExpr(t *testing.T) {
	solver := New("expr", LinearProgramming)
	x, _ := solver.MakeNumVar(0, 1, "x")
	y, _ := solver.MakeNumVar(0, 1, "y")

	testCases := []struct {
		name string
		expr *LinearExpr
		want string
	}{
		{
			name: "empty",
			expr: NewLinearExpr(),
			want: "0",
		},
		{
			name: "constant",
			expr: NewConstant(-2.5),
			want: "-2.5",
		},
		{
			name: "mergedTerms",
			expr: NewLinearExpr().AddTerm(y, 2).AddTerm(x, -1).AddTerm(y, 1),
			want: "-x + 3 y",
		},
		{
			name: "cancelledTerm",
			expr: NewLinearExpr().AddTerm(x, 1).AddTerm(x, -1).Add(y).AddConstant(4),
			want: "y + 4",
		},
		{
			name: "weightedSum",
			expr: NewLinearExpr().AddWeightedSum([]LinearArgument{x, y}, []float64{2, -0.5}),
			want: "2 x - 0.5 y",
		},
		{
			name: "nestedExpr",
			expr: NewLinearExpr().AddTerm(NewLinearExpr().AddSum(x, y).AddConstant(1), 3),
			want: "3 x + 3 y + 3",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if got := test.expr.String(); got != test.want {
				t.Errorf("String() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestLinearExprEvaluate(t *testing.T) {
	solver := New("expr", LinearProgramming)
	x, _ := solver.MakeNumVar(0, 1, "x")
	y, _ := solver.MakeNumVar(0, 1, "y")
	expr := NewLinearExpr().AddTerm(x, 2).AddTerm(y, -1).AddConstant(1)

	values := map[*Variable]float64{x: 3, y: 4}
	if got := expr.Evaluate(func(v *Variable) float64 { return values[v] }); got != 3 {
		t.Errorf("Evaluate() = %v, want 3", got)
	}
	if got := expr.Coefficient(x); got != 2 {
		t.Errorf("Coefficient(x) = %v, want 2", got)
	}
	var names []string
	for _, v := range expr.Variables() {
		names = append(names, v.Name())
	}
	if diff := cmp.Diff([]string{"x", "y"}, names); diff != "" {
		t.Errorf("Variables() mismatch (-want +got):\n%s", diff)
	}
}

func TestLinearRange(t *testing.T) {
	solver := New("range", LinearProgramming)
	x, _ := solver.MakeNumVar(0, 10, "x")
	value := func(val float64) func(*Variable) float64 {
		return func(*Variable) float64 { return val }
	}

	testCases := []struct {
		name          string
		r             LinearRange
		wantLB        float64
		wantUB        float64
		wantString    string
		wantViolation float64
	}{
		{
			name:          "lessOrEqual",
			r:             NewLessOrEqual(NewLinearExpr().Add(x).AddConstant(2), 5),
			wantLB:        math.Inf(-1),
			wantUB:        3,
			wantString:    "x <= 3",
			wantViolation: 1,
		},
		{
			name:          "greaterOrEqual",
			r:             NewGreaterOrEqual(NewLinearExpr().AddTerm(x, 2), 10),
			wantLB:        10,
			wantUB:        math.Inf(1),
			wantString:    "2 x >= 10",
			wantViolation: 2,
		},
		{
			name:          "greaterOrEqualWithConstant",
			r:             NewGreaterOrEqual(NewLinearExpr().AddTerm(x, 10).AddConstant(-6), 0),
			wantLB:        6,
			wantUB:        math.Inf(1),
			wantString:    "10 x >= 6",
			wantViolation: 0,
		},
		{
			name:          "equalityWithConstant",
			r:             NewEquality(NewLinearExpr().Add(x).AddConstant(1), 4),
			wantLB:        3,
			wantUB:        3,
			wantString:    "x = 3",
			wantViolation: 1,
		},
		{
			name:          "equality",
			r:             NewEquality(x, 4),
			wantLB:        4,
			wantUB:        4,
			wantString:    "x = 4",
			wantViolation: 0,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if test.r.LB != test.wantLB || test.r.UB != test.wantUB {
				t.Errorf("bounds = [%v, %v], want [%v, %v]", test.r.LB, test.r.UB, test.wantLB, test.wantUB)
			}
			if got := test.r.String(); got != test.wantString {
				t.Errorf("String() = %q, want %q", got, test.wantString)
			}
			if got := test.r.Violation(value(4)); got != test.wantViolation {
				t.Errorf("Violation(x=4) = %v, want %v", got, test.wantViolation)
			}
		})
	}
}
