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
	"strings"

	log "github.com/golang/glog"

	"github.com/operations-research/benders-decomposition/linear_solver/go/linearsolver"
)

// Event describes what the cut generator did for one incumbent.
type Event struct {
	// Incumbent numbers the incumbents seen by the generator, from 1.
	Incumbent int
	// Opened lists the facilities open in the incumbent, in input order.
	Opened []string
	// Z is the incumbent value of the transport cost estimate.
	Z                   float64
	SubproblemStatus    linearsolver.ResultStatus
	SubproblemObjective float64
	Cut                 CutKind
	// Violation is how much the posted cut is violated by the incumbent.
	Violation float64
	// Constraint is the posted cut, empty for NoCut.
	Constraint string
}

// Diagnostics receives the events of a cut generator. Report is called
// synchronously from the solver callback.
type Diagnostics interface {
	Report(ev Event)
}

// DiagnosticsFunc adapts a function to the Diagnostics interface.
type DiagnosticsFunc func(ev Event)

// Report calls f(ev).
func (f DiagnosticsFunc) Report(ev Event) {
	f(ev)
}

// Discard drops every event.
var Discard Diagnostics = DiagnosticsFunc(func(Event) {})

// LogDiagnostics writes events to glog at verbosity 1.
type LogDiagnostics struct{}

// Report implements Diagnostics.
func (LogDiagnostics) Report(ev Event) {
	if !log.V(1) {
		return
	}
	switch ev.Cut {
	case NoCut:
		log.Infof("incumbent %d: open [%s], z = %g, subproblem %v with cost %g; accepted",
			ev.Incumbent, strings.Join(ev.Opened, " "), ev.Z, ev.SubproblemStatus, ev.SubproblemObjective)
	default:
		log.Infof("incumbent %d: open [%s], z = %g, subproblem %v; adding %v %s (violation %g)",
			ev.Incumbent, strings.Join(ev.Opened, " "), ev.Z, ev.SubproblemStatus, ev.Cut, ev.Constraint, ev.Violation)
	}
}

// Recorder keeps every event in memory.
type Recorder struct {
	Events []Event
}

// Report implements Diagnostics.
func (r *Recorder) Report(ev Event) {
	r.Events = append(r.Events, ev)
}
