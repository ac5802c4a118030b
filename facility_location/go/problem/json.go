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
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

type jsonTransportCost struct {
	Customer string  `json:"customer"`
	Cost     float64 `json:"cost"`
}

type jsonFacility struct {
	Name          string              `json:"name"`
	Exists        bool                `json:"exists"`
	BuildCost     float64             `json:"buildCost"`
	Supply        float64             `json:"supply"`
	TransportCost []jsonTransportCost `json:"transportCost"`
}

type jsonCustomer struct {
	Name   string  `json:"name"`
	Demand float64 `json:"demand"`
}

type jsonData struct {
	Facilities []jsonFacility `json:"facilities"`
	Customers  []jsonCustomer `json:"customers"`
}

// ReadJSON decodes a problem instance of the form
//
//	{
//	  "facilities": [{"name": "A", "exists": false, "buildCost": 5, "supply": 10,
//	                  "transportCost": [{"customer": "C1", "cost": 1}]}],
//	  "customers": [{"name": "C1", "demand": 6}]
//	}
//
// and validates it with New. A missing "exists" means the facility is a
// candidate.
func ReadJSON(r io.Reader) (*Data, error) {
	var in jsonData
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, errors.Wrap(err, "decoding problem data")
	}
	facilities := make([]Facility, 0, len(in.Facilities))
	for _, jf := range in.Facilities {
		f := Facility{
			Name:          jf.Name,
			Exists:        jf.Exists,
			BuildCost:     jf.BuildCost,
			Supply:        jf.Supply,
			TransportCost: make(map[string]float64, len(jf.TransportCost)),
		}
		for _, tc := range jf.TransportCost {
			if _, ok := f.TransportCost[tc.Customer]; ok {
				return nil, errors.Wrapf(ErrInvalidData, "facility %q lists customer %q twice", jf.Name, tc.Customer)
			}
			f.TransportCost[tc.Customer] = tc.Cost
		}
		facilities = append(facilities, f)
	}
	customers := make([]Customer, 0, len(in.Customers))
	for _, jc := range in.Customers {
		customers = append(customers, Customer{Name: jc.Name, Demand: jc.Demand})
	}
	d, err := New(facilities, customers)
	return d, errors.WithStack(err)
}

// ReadFile reads a JSON problem instance from `path`.
func ReadFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening problem data")
	}
	defer f.Close()
	d, err := ReadJSON(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return d, nil
}
