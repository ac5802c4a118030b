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

// [START program]
// The benders_facility_location command solves a capacitated facility
// location instance with Benders decomposition and with the monolithic model,
// and checks that both reach the same objective.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"

	log "github.com/golang/glog"

	"github.com/operations-research/benders-decomposition/facility_location/go/benders"
	"github.com/operations-research/benders-decomposition/facility_location/go/modelutil"
	"github.com/operations-research/benders-decomposition/facility_location/go/monolithic"
	"github.com/operations-research/benders-decomposition/facility_location/go/problem"
	"github.com/operations-research/benders-decomposition/facility_location/go/runconfig"
)

var (
	configPath = flag.String("config", "", "Path of a YAML, JSON or TOML run configuration.")
	inputPath  = flag.String("input", "", "Path of the JSON problem instance; overrides the configuration.")
)

func printSolution(name string, sol *modelutil.Solution) {
	fmt.Printf("%s: %v\n", name, sol.Status)
	if len(sol.Opened) == 0 {
		return
	}
	fmt.Printf("  objective: %g\n", sol.Objective)
	fmt.Printf("  opened: %s\n", strings.Join(sol.Opened, ", "))
	for _, f := range sol.Flows {
		fmt.Printf("  %s -> %s: %g\n", f.Facility, f.Customer, f.Amount)
	}
}

func bendersFacilityLocation(interrupt <-chan struct{}) error {
	overrides := map[string]any{}
	if *inputPath != "" {
		overrides["input"] = *inputPath
	}
	cfg, err := runconfig.Load(*configPath, overrides)
	if err != nil {
		return err
	}
	data, err := problem.ReadFile(cfg.Input)
	if err != nil {
		return err
	}
	log.Infof("%d facilities with %g total supply, %d customers with %g total demand",
		data.NumFacilities(), data.TotalSupply(), data.NumCustomers(), data.TotalDemand())

	var single *modelutil.Solution
	if cfg.RunMonolithic() {
		m, err := monolithic.Build(data)
		if err != nil {
			return err
		}
		single, err = m.Solve(cfg.Parameters(), interrupt)
		if err != nil {
			return err
		}
		printSolution("monolithic", single)
	}

	if cfg.RunBenders() {
		res, err := benders.Solve(data, benders.Options{
			Parameters: cfg.Parameters(),
			Interrupt:  interrupt,
			ExportDir:  cfg.ExportDir,
		})
		if err != nil {
			return err
		}
		printSolution("benders", &res.Solution)
		fmt.Printf("  incumbents: %d, feasibility cuts: %d, optimality cuts: %d, nodes: %d\n",
			res.Incumbents, res.FeasibilityCuts, res.OptimalityCuts, res.Nodes)

		if single != nil && single.Status == res.Status && math.Abs(single.Objective-res.Objective) > cfg.ObjectiveTolerance {
			log.Warningf("objectives differ: monolithic %g, benders %g", single.Objective, res.Objective)
		}
		if single != nil && single.Status != res.Status {
			log.Warningf("statuses differ: monolithic %v, benders %v", single.Status, res.Status)
		}
	}
	return nil
}

func main() {
	flag.Parse()
	defer log.Flush()

	interrupt := make(chan struct{})
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)
	go func() {
		<-signals
		close(interrupt)
	}()

	if err := bendersFacilityLocation(interrupt); err != nil {
		log.Exitf("bendersFacilityLocation returned with error: %v", err)
	}
}

// [END program]
