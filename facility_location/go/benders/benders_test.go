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
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/operations-research/benders-decomposition/facility_location/go/problem"
	"github.com/operations-research/benders-decomposition/linear_solver/go/linearsolver"
)

// fakeIncumbent serves fixed variable values and records posted cuts.
type fakeIncumbent struct {
	values map[*linearsolver.Variable]float64
	cuts   []linearsolver.LinearRange
	err    error
}

func (f *fakeIncumbent) VariableValue(v *linearsolver.Variable) float64 {
	return f.values[v]
}

func (f *fakeIncumbent) AddLazyConstraint(r linearsolver.LinearRange) error {
	if f.err != nil {
		return f.err
	}
	f.cuts = append(f.cuts, r)
	return nil
}

func twoFacilities(t *testing.T) *problem.Data {
	t.Helper()
	d, err := problem.New(
		[]problem.Facility{
			{Name: "A", BuildCost: 5, Supply: 10, TransportCost: map[string]float64{"C1": 1, "C2": 1}},
			{Name: "B", Exists: true, Supply: 10, TransportCost: map[string]float64{"C1": 1, "C2": 1}},
		},
		[]problem.Customer{{Name: "C1", Demand: 6}, {Name: "C2", Demand: 6}},
	)
	if err != nil {
		t.Fatalf("problem.New() err = %v, want nil", err)
	}
	return d
}

func insufficientSupply(t *testing.T) *problem.Data {
	t.Helper()
	d, err := problem.New(
		[]problem.Facility{{Name: "F", BuildCost: 3, Supply: 5, TransportCost: map[string]float64{"C": 2}}},
		[]problem.Customer{{Name: "C", Demand: 10}},
	)
	if err != nil {
		t.Fatalf("problem.New() err = %v, want nil", err)
	}
	return d
}

type fixture struct {
	data   *problem.Data
	master *MasterProblem
	sub    *SubProblem
	coeffs *CutCoefficientMap
	rec    *Recorder
	gen    *CutGenerator
}

func newFixture(t *testing.T, data *problem.Data, subParams linearsolver.Parameters) *fixture {
	t.Helper()
	master, err := BuildMasterProblem(data)
	if err != nil {
		t.Fatalf("BuildMasterProblem() err = %v, want nil", err)
	}
	sub, err := BuildSubProblem(data, subParams)
	if err != nil {
		t.Fatalf("BuildSubProblem() err = %v, want nil", err)
	}
	coeffs, err := NewCutCoefficientMap(data, master, sub)
	if err != nil {
		t.Fatalf("NewCutCoefficientMap() err = %v, want nil", err)
	}
	rec := &Recorder{}
	return &fixture{
		data:   data,
		master: master,
		sub:    sub,
		coeffs: coeffs,
		rec:    rec,
		gen:    NewCutGenerator(master, sub, coeffs, rec),
	}
}

// incumbent returns a fake incumbent opening the named candidates, existing
// facilities being fixed open, with the given value of z.
func (fx *fixture) incumbent(t *testing.T, z float64, open ...string) *fakeIncumbent {
	t.Helper()
	values := map[*linearsolver.Variable]float64{fx.master.Z(): z}
	for _, f := range fx.data.Facilities() {
		v, err := fx.master.OpenVariable(f.Name)
		if err != nil {
			t.Fatalf("OpenVariable(%s) err = %v, want nil", f.Name, err)
		}
		if f.Exists {
			values[v] = 1
		}
	}
	for _, name := range open {
		v, err := fx.master.OpenVariable(name)
		if err != nil {
			t.Fatalf("OpenVariable(%s) err = %v, want nil", name, err)
		}
		values[v] = 1
	}
	return &fakeIncumbent{values: values}
}

// valuesWith returns a copy of inc's values with v set to val.
func valuesWith(inc *fakeIncumbent, v *linearsolver.Variable, val float64) func(*linearsolver.Variable) float64 {
	values := make(map[*linearsolver.Variable]float64, len(inc.values))
	for k, x := range inc.values {
		values[k] = x
	}
	values[v] = val
	return func(v *linearsolver.Variable) float64 { return values[v] }
}

func TestBuildMasterProblem(t *testing.T) {
	data := twoFacilities(t)
	master, err := BuildMasterProblem(data)
	if err != nil {
		t.Fatalf("BuildMasterProblem() err = %v, want nil", err)
	}
	ls := master.Solver()
	if ls.ProblemType() != linearsolver.MixedIntegerProgramming {
		t.Errorf("ProblemType() = %v, want %v", ls.ProblemType(), linearsolver.MixedIntegerProgramming)
	}
	if ls.NumVariables() != 3 || ls.NumConstraints() != 0 {
		t.Errorf("master size = (%d vars, %d rows), want (3, 0)", ls.NumVariables(), ls.NumConstraints())
	}
	a, _ := master.OpenVariable("A")
	b, _ := master.OpenVariable("B")
	z := master.Z()
	obj := ls.Objective()
	if !obj.Minimization() || obj.Coefficient(a) != 5 || obj.Coefficient(b) != 0 || obj.Coefficient(z) != 1 {
		t.Errorf("objective = (%v, %v, %v, min %v), want (5, 0, 1, min true)", obj.Coefficient(a), obj.Coefficient(b), obj.Coefficient(z), obj.Minimization())
	}
	if b.LB() != 1 || b.UB() != 1 {
		t.Errorf("existing facility bounds = [%v, %v], want [1, 1]", b.LB(), b.UB())
	}
	if !a.Integer() || z.Integer() || z.LB() != 0 || !math.IsInf(z.UB(), 1) {
		t.Errorf("variable types = (A int %v, z int %v, z in [%v, %v]), want (true, false, [0, +Inf])", a.Integer(), z.Integer(), z.LB(), z.UB())
	}
	if _, err := master.OpenVariable("Z"); !errors.Is(err, problem.ErrUnknownFacility) {
		t.Errorf("OpenVariable(Z) err = %v, want %v", err, problem.ErrUnknownFacility)
	}
}

func TestBuildSubProblem(t *testing.T) {
	data := twoFacilities(t)
	sub, err := BuildSubProblem(data, linearsolver.Parameters{})
	if err != nil {
		t.Fatalf("BuildSubProblem() err = %v, want nil", err)
	}
	var names []string
	for _, c := range sub.Constraints() {
		names = append(names, c.Name())
	}
	want := []string{"supply_A", "supply_B", "demand_C1", "demand_C2"}
	if len(names) != len(want) {
		t.Fatalf("Constraints() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Constraints()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
	if sub.Solver().NumVariables() != 4 {
		t.Errorf("NumVariables() = %d, want 4", sub.Solver().NumVariables())
	}

	if err := sub.SetSupplyRHS(map[string]float64{"A": 0, "Z": 3}); !errors.Is(err, problem.ErrUnknownFacility) {
		t.Errorf("SetSupplyRHS(Z) err = %v, want %v", err, problem.ErrUnknownFacility)
	}
	a, _ := sub.SupplyConstraint("A")
	if a.UB() != 10 {
		t.Errorf("supply_A UB after failed update = %v, want 10", a.UB())
	}
	if _, err := sub.SupplyConstraint("Z"); !errors.Is(err, problem.ErrUnknownFacility) {
		t.Errorf("SupplyConstraint(Z) err = %v, want %v", err, problem.ErrUnknownFacility)
	}
	if _, err := sub.DemandConstraint("Z"); !errors.Is(err, problem.ErrUnknownCustomer) {
		t.Errorf("DemandConstraint(Z) err = %v, want %v", err, problem.ErrUnknownCustomer)
	}

	status, err := sub.Solve()
	if err != nil || status != linearsolver.Optimal {
		t.Fatalf("Solve() = %v, %v, want OPTIMAL, nil", status, err)
	}
	if got := sub.ObjectiveValue(); math.Abs(got-12) > 1e-9 {
		t.Errorf("ObjectiveValue() = %v, want 12", got)
	}
}

func TestOpenFacilities(t *testing.T) {
	fx := newFixture(t, twoFacilities(t), linearsolver.Parameters{})
	supplyUB := func(name string) float64 {
		c, err := fx.sub.SupplyConstraint(name)
		if err != nil {
			t.Fatalf("SupplyConstraint(%s) err = %v, want nil", name, err)
		}
		return c.UB()
	}

	testCases := []struct {
		name       string
		open       []string
		wantOpened []string
		wantUB     map[string]float64
	}{
		{name: "existingOnly", wantOpened: []string{"B"}, wantUB: map[string]float64{"A": 0, "B": 10}},
		{name: "candidateOpened", open: []string{"A"}, wantOpened: []string{"A", "B"}, wantUB: map[string]float64{"A": 10, "B": 10}},
		{name: "closedAgain", wantOpened: []string{"B"}, wantUB: map[string]float64{"A": 0, "B": 10}},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			inc := fx.incumbent(t, 0, test.open...)
			got := fx.sub.OpenFacilities(openAt(fx.master.open, inc.VariableValue))
			if diff := cmp.Diff(test.wantOpened, got); diff != "" {
				t.Errorf("OpenFacilities() mismatch (-want +got):\n%s", diff)
			}
			for name, want := range test.wantUB {
				if got := supplyUB(name); got != want {
					t.Errorf("supply_%s UB = %v, want %v", name, got, want)
				}
			}
		})
	}
}

func TestCutCoefficientMap(t *testing.T) {
	fx := newFixture(t, twoFacilities(t), linearsolver.Parameters{})
	if fx.coeffs.Len() != 4 {
		t.Errorf("Len() = %d, want 4", fx.coeffs.Len())
	}
	want := map[string]string{
		"supply_A":  "10 facility_A",
		"supply_B":  "10",
		"demand_C1": "6",
		"demand_C2": "6",
	}
	for _, row := range fx.sub.Constraints() {
		expr, err := fx.coeffs.Coefficient(row)
		if err != nil {
			t.Fatalf("Coefficient(%s) err = %v, want nil", row.Name(), err)
		}
		if got := expr.String(); got != want[row.Name()] {
			t.Errorf("Coefficient(%s) = %q, want %q", row.Name(), got, want[row.Name()])
		}
	}

	extra, err := fx.sub.Solver().MakeConstraint(0, 1, "extra")
	if err != nil {
		t.Fatalf("MakeConstraint() err = %v, want nil", err)
	}
	if _, err := fx.coeffs.Coefficient(extra); !errors.Is(err, ErrUnknownConstraint) {
		t.Errorf("Coefficient(extra) err = %v, want %v", err, ErrUnknownConstraint)
	}

	weights := map[string]float64{"supply_A": -1, "supply_B": -2, "demand_C1": 1, "demand_C2": 3}
	cut, err := fx.coeffs.Combine(fx.sub.Constraints(), func(c *linearsolver.Constraint) (float64, error) {
		return weights[c.Name()], nil
	})
	if err != nil {
		t.Fatalf("Combine() err = %v, want nil", err)
	}
	if got, want := cut.String(), "-10 facility_A + 4"; got != want {
		t.Errorf("Combine() = %q, want %q", got, want)
	}

	errBoom := errors.New("boom")
	if _, err := fx.coeffs.Combine(fx.sub.Constraints(), func(*linearsolver.Constraint) (float64, error) {
		return 0, errBoom
	}); !errors.Is(err, errBoom) {
		t.Errorf("Combine() err = %v, want %v", err, errBoom)
	}
}
