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

package problem

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadFile(t *testing.T) {
	d, err := ReadFile("testdata/two_facilities.json")
	if err != nil {
		t.Fatalf("ReadFile() err = %v, want nil", err)
	}
	want := []Facility{
		{Name: "A", BuildCost: 5, Supply: 10, TransportCost: map[string]float64{"C1": 1, "C2": 1}},
		{Name: "B", Exists: true, Supply: 10, TransportCost: map[string]float64{"C1": 1, "C2": 1}},
	}
	if diff := cmp.Diff(want, d.Facilities()); diff != "" {
		t.Errorf("Facilities() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Customer{{Name: "C1", Demand: 6}, {Name: "C2", Demand: 6}}, d.Customers()); diff != "" {
		t.Errorf("Customers() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile("testdata/does_not_exist.json"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile(missing) err = %v, want %v", err, os.ErrNotExist)
	}
}

func TestReadJSONInvalid(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "duplicateCost",
			input:   `{"facilities":[{"name":"A","supply":1,"transportCost":[{"customer":"C","cost":1},{"customer":"C","cost":2}]}],"customers":[{"name":"C","demand":1}]}`,
			wantErr: ErrInvalidData,
		},
		{
			name:    "unknownCustomer",
			input:   `{"facilities":[{"name":"A","supply":1,"transportCost":[{"customer":"X","cost":1}]}],"customers":[{"name":"C","demand":1}]}`,
			wantErr: ErrUnknownCustomer,
		},
		{
			name:    "missingSupply",
			input:   `{"facilities":[{"name":"A"}],"customers":[]}`,
			wantErr: ErrInvalidData,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if _, err := ReadJSON(strings.NewReader(test.input)); !errors.Is(err, test.wantErr) {
				t.Errorf("ReadJSON() err = %v, want %v", err, test.wantErr)
			}
		})
	}
}

func TestReadJSONMalformed(t *testing.T) {
	if _, err := ReadJSON(strings.NewReader(`{"facilities": [`)); err == nil {
		t.Error("ReadJSON(truncated) err = nil, want error")
	}
}
