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

package modelutil

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/operations-research/benders-decomposition/facility_location/go/problem"
	"github.com/operations-research/benders-decomposition/linear_solver/go/linearsolver"
)

func testData(t *testing.T) *problem.Data {
	t.Helper()
	d, err := problem.New(
		[]problem.Facility{
			{Name: "A", BuildCost: 5, Supply: 10, TransportCost: map[string]float64{"C1": 1, "C2": 3}},
			{Name: "B", Exists: true, Supply: 8, TransportCost: map[string]float64{"C2": 2}},
		},
		[]problem.Customer{{Name: "C1", Demand: 6}, {Name: "C2", Demand: 4}},
	)
	if err != nil {
		t.Fatalf("problem.New() err = %v, want nil", err)
	}
	return d
}

func TestIsNonZero(t *testing.T) {
	testCases := []struct {
		v    float64
		want bool
	}{
		{v: 0, want: false},
		{v: 1e-4, want: false},
		{v: -1e-4, want: false},
		{v: 5e-5, want: false},
		{v: 1.5e-4, want: true},
		{v: -0.3, want: true},
		{v: 1, want: true},
	}
	for _, test := range testCases {
		if got := IsNonZero(test.v); got != test.want {
			t.Errorf("IsNonZero(%v) = %v, want %v", test.v, got, test.want)
		}
	}
}

func TestBuildFacilityColumns(t *testing.T) {
	d := testData(t)
	ls := linearsolver.New("master", linearsolver.MixedIntegerProgramming)
	open, err := BuildFacilityColumns(d, ls)
	if err != nil {
		t.Fatalf("BuildFacilityColumns() err = %v, want nil", err)
	}

	type column struct {
		Name    string
		LB, UB  float64
		Integer bool
		Cost    float64
	}
	var got []column
	for _, name := range []string{"A", "B"} {
		v := open[name]
		got = append(got, column{v.Name(), v.LB(), v.UB(), v.Integer(), ls.Objective().Coefficient(v)})
	}
	want := []column{
		{Name: "facility_A", LB: 0, UB: 1, Integer: true, Cost: 5},
		{Name: "facility_B", LB: 1, UB: 1, Integer: true, Cost: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildFacilityColumns() mismatch (-want +got):\n%s", diff)
	}

	if _, err := BuildFacilityColumns(d, ls); err == nil {
		t.Error("BuildFacilityColumns() twice err = nil, want duplicate name error")
	}
}

func TestBuildRows(t *testing.T) {
	d := testData(t)
	ls := linearsolver.New("single", linearsolver.MixedIntegerProgramming)
	open, err := BuildFacilityColumns(d, ls)
	if err != nil {
		t.Fatalf("BuildFacilityColumns() err = %v, want nil", err)
	}
	transport, err := BuildTransportColumns(d, ls)
	if err != nil {
		t.Fatalf("BuildTransportColumns() err = %v, want nil", err)
	}
	if len(transport) != 3 {
		t.Errorf("BuildTransportColumns() built %d columns, want 3", len(transport))
	}
	if _, ok := transport[ArcKey{Facility: "B", Customer: "C1"}]; ok {
		t.Error("BuildTransportColumns() built x_B_C1, want no column for an arc without cost")
	}
	if c := ls.Objective().Coefficient(transport[ArcKey{Facility: "A", Customer: "C2"}]); c != 3 {
		t.Errorf("cost of x_A_C2 = %v, want 3", c)
	}

	supply, err := BuildSupplyConstraints(d, ls, transport, open)
	if err != nil {
		t.Fatalf("BuildSupplyConstraints() err = %v, want nil", err)
	}
	demand, err := BuildDemandConstraints(d, ls, transport)
	if err != nil {
		t.Fatalf("BuildDemandConstraints() err = %v, want nil", err)
	}

	testCases := []struct {
		row    *linearsolver.Constraint
		want   string
		wantLB float64
		wantUB float64
	}{
		{row: supply["A"], want: "-10 facility_A + x_A_C1 + x_A_C2", wantLB: math.Inf(-1), wantUB: 0},
		{row: supply["B"], want: "x_B_C2", wantLB: math.Inf(-1), wantUB: 8},
		{row: demand["C1"], want: "x_A_C1", wantLB: 6, wantUB: math.Inf(1)},
		{row: demand["C2"], want: "x_A_C2 + x_B_C2", wantLB: 4, wantUB: math.Inf(1)},
	}
	for _, test := range testCases {
		if got := test.row.Expr().String(); got != test.want {
			t.Errorf("%s lhs = %q, want %q", test.row.Name(), got, test.want)
		}
		if test.row.LB() != test.wantLB || test.row.UB() != test.wantUB {
			t.Errorf("%s bounds = [%v, %v], want [%v, %v]", test.row.Name(), test.row.LB(), test.row.UB(), test.wantLB, test.wantUB)
		}
	}
}

func TestSupplyConstraintsWithoutOpenColumns(t *testing.T) {
	d := testData(t)
	ls := linearsolver.New("sub", linearsolver.LinearProgramming)
	transport, err := BuildTransportColumns(d, ls)
	if err != nil {
		t.Fatalf("BuildTransportColumns() err = %v, want nil", err)
	}
	supply, err := BuildSupplyConstraints(d, ls, transport, nil)
	if err != nil {
		t.Fatalf("BuildSupplyConstraints() err = %v, want nil", err)
	}
	if got := supply["A"].UB(); got != 10 {
		t.Errorf("supply_A UB = %v, want 10", got)
	}
	if got := supply["A"].Expr().String(); got != "x_A_C1 + x_A_C2" {
		t.Errorf("supply_A lhs = %q, want %q", got, "x_A_C1 + x_A_C2")
	}
}

func TestOpenCoefficientAndReadBack(t *testing.T) {
	d := testData(t)
	ls := linearsolver.New("master", linearsolver.MixedIntegerProgramming)
	open, err := BuildFacilityColumns(d, ls)
	if err != nil {
		t.Fatalf("BuildFacilityColumns() err = %v, want nil", err)
	}
	transport, err := BuildTransportColumns(d, ls)
	if err != nil {
		t.Fatalf("BuildTransportColumns() err = %v, want nil", err)
	}

	values := map[*linearsolver.Variable]float64{
		open["A"]: 5e-5,
		open["B"]: 0,
		transport[ArcKey{Facility: "A", Customer: "C1"}]: 6,
		transport[ArcKey{Facility: "B", Customer: "C2"}]: 4,
		transport[ArcKey{Facility: "A", Customer: "C2"}]: 1e-6,
	}
	value := func(v *linearsolver.Variable) float64 { return values[v] }

	a, _ := d.Facility("A")
	b, _ := d.Facility("B")
	if got := OpenCoefficient(a, open, value); got != 5e-5 {
		t.Errorf("OpenCoefficient(A) = %v, want 5e-5", got)
	}
	if got := OpenCoefficient(b, open, value); got != 1 {
		t.Errorf("OpenCoefficient(B) = %v, want 1", got)
	}
	if got := OpenCoefficient(a, nil, value); got != 0 {
		t.Errorf("OpenCoefficient(A, no columns) = %v, want 0", got)
	}

	if diff := cmp.Diff([]string{"B"}, OpenedFacilities(d, open, value)); diff != "" {
		t.Errorf("OpenedFacilities() mismatch (-want +got):\n%s", diff)
	}
	wantFlows := []Flow{
		{Facility: "A", Customer: "C1", Amount: 6},
		{Facility: "B", Customer: "C2", Amount: 4},
	}
	if diff := cmp.Diff(wantFlows, CollectFlows(d, transport, value)); diff != "" {
		t.Errorf("CollectFlows() mismatch (-want +got):\n%s", diff)
	}
}
