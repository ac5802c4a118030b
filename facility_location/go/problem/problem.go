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

// Package problem holds the input of a capacitated facility location problem:
// candidate and existing facilities with their capacity, customers with their
// demand, and the unit cost of shipping from a facility to a customer.
package problem

import (
	"errors"
	"fmt"
	"maps"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrUnknownFacility is returned when a facility name is not part of the data.
	ErrUnknownFacility = errors.New("unknown facility")
	// ErrUnknownCustomer is returned when a customer name is not part of the data.
	ErrUnknownCustomer = errors.New("unknown customer")
	// ErrInvalidData is returned by New when facilities or customers are malformed.
	ErrInvalidData = errors.New("invalid problem data")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Facility is a warehouse that may already exist or be built at BuildCost.
// TransportCost maps a customer name to the unit cost of shipping to it; a
// missing entry means the facility cannot serve that customer.
type Facility struct {
	Name          string             `validate:"required"`
	Exists        bool
	BuildCost     float64            `validate:"gte=0"`
	Supply        float64            `validate:"gt=0"`
	TransportCost map[string]float64 `validate:"dive,keys,required,endkeys,gte=0"`
}

// Customer is a demand point that must be fully served.
type Customer struct {
	Name   string  `validate:"required"`
	Demand float64 `validate:"gt=0"`
}

// Arc is a facility-customer pair with a defined unit transport cost.
type Arc struct {
	Facility string
	Customer string
	Cost     float64
}

// Data is an immutable, validated problem instance. Facilities and customers
// keep the order they were given in.
type Data struct {
	facilities     []Facility
	customers      []Customer
	facilityByName map[string]int
	customerByName map[string]int
}

// New validates the facilities and customers and returns the indexed data.
// The inputs are copied, so later changes to them do not affect the result.
func New(facilities []Facility, customers []Customer) (*Data, error) {
	d := &Data{
		facilities:     make([]Facility, 0, len(facilities)),
		customers:      make([]Customer, 0, len(customers)),
		facilityByName: make(map[string]int, len(facilities)),
		customerByName: make(map[string]int, len(customers)),
	}
	for _, c := range customers {
		if err := validate.Struct(c); err != nil {
			return nil, fmt.Errorf("customer %q: %w: %w", c.Name, ErrInvalidData, err)
		}
		if _, ok := d.customerByName[c.Name]; ok {
			return nil, fmt.Errorf("customer %q appears twice: %w", c.Name, ErrInvalidData)
		}
		d.customerByName[c.Name] = len(d.customers)
		d.customers = append(d.customers, c)
	}
	for _, f := range facilities {
		if err := validate.Struct(f); err != nil {
			return nil, fmt.Errorf("facility %q: %w: %w", f.Name, ErrInvalidData, err)
		}
		if _, ok := d.facilityByName[f.Name]; ok {
			return nil, fmt.Errorf("facility %q appears twice: %w", f.Name, ErrInvalidData)
		}
		for c := range f.TransportCost {
			if _, ok := d.customerByName[c]; !ok {
				return nil, fmt.Errorf("facility %q ships to %q: %w: %w", f.Name, c, ErrInvalidData, ErrUnknownCustomer)
			}
		}
		f.TransportCost = maps.Clone(f.TransportCost)
		d.facilityByName[f.Name] = len(d.facilities)
		d.facilities = append(d.facilities, f)
	}
	return d, nil
}

// NumFacilities returns the number of facilities.
func (d *Data) NumFacilities() int {
	return len(d.facilities)
}

// NumCustomers returns the number of customers.
func (d *Data) NumCustomers() int {
	return len(d.customers)
}

// Facilities returns the facilities in input order.
func (d *Data) Facilities() []Facility {
	out := make([]Facility, len(d.facilities))
	for i, f := range d.facilities {
		f.TransportCost = maps.Clone(f.TransportCost)
		out[i] = f
	}
	return out
}

// Customers returns the customers in input order.
func (d *Data) Customers() []Customer {
	return append([]Customer(nil), d.customers...)
}

// Facility returns the facility called `name`.
func (d *Data) Facility(name string) (Facility, error) {
	i, ok := d.facilityByName[name]
	if !ok {
		return Facility{}, fmt.Errorf("facility %q: %w", name, ErrUnknownFacility)
	}
	f := d.facilities[i]
	f.TransportCost = maps.Clone(f.TransportCost)
	return f, nil
}

// Customer returns the customer called `name`.
func (d *Data) Customer(name string) (Customer, error) {
	i, ok := d.customerByName[name]
	if !ok {
		return Customer{}, fmt.Errorf("customer %q: %w", name, ErrUnknownCustomer)
	}
	return d.customers[i], nil
}

// Supply returns the capacity of the facility called `name`.
func (d *Data) Supply(name string) (float64, error) {
	i, ok := d.facilityByName[name]
	if !ok {
		return 0, fmt.Errorf("supply of %q: %w", name, ErrUnknownFacility)
	}
	return d.facilities[i].Supply, nil
}

// TransportCost returns the unit cost of shipping from `facility` to
// `customer`. The boolean is false if the facility cannot serve the customer.
func (d *Data) TransportCost(facility, customer string) (float64, bool, error) {
	i, ok := d.facilityByName[facility]
	if !ok {
		return 0, false, fmt.Errorf("transport cost from %q: %w", facility, ErrUnknownFacility)
	}
	if _, ok := d.customerByName[customer]; !ok {
		return 0, false, fmt.Errorf("transport cost to %q: %w", customer, ErrUnknownCustomer)
	}
	cost, ok := d.facilities[i].TransportCost[customer]
	return cost, ok, nil
}

// Arcs returns every facility-customer pair with a transport cost, grouped by
// facility in input order and, within a facility, in customer input order.
func (d *Data) Arcs() []Arc {
	var arcs []Arc
	for _, f := range d.facilities {
		for _, c := range d.customers {
			if cost, ok := f.TransportCost[c.Name]; ok {
				arcs = append(arcs, Arc{Facility: f.Name, Customer: c.Name, Cost: cost})
			}
		}
	}
	return arcs
}

// TotalDemand returns the sum of all customer demands.
func (d *Data) TotalDemand() float64 {
	var total float64
	for _, c := range d.customers {
		total += c.Demand
	}
	return total
}

// TotalSupply returns the sum of all facility capacities, built or not.
func (d *Data) TotalSupply() float64 {
	var total float64
	for _, f := range d.facilities {
		total += f.Supply
	}
	return total
}
