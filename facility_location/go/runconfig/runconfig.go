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

// Package runconfig loads the configuration of a facility location run from a
// file, BENDERS_* environment variables and explicit overrides.
package runconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"google.golang.org/protobuf/proto"

	"github.com/operations-research/benders-decomposition/linear_solver/go/linearsolver"
)

// ErrInvalidConfig is returned when the loaded configuration does not validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Solver modes.
const (
	ModeBenders    = "benders"
	ModeMonolithic = "monolithic"
	ModeBoth       = "both"
)

// Config is the configuration of a run.
type Config struct {
	// Input is the path of the JSON problem instance.
	Input string `mapstructure:"input" validate:"required"`
	// Mode selects which solvers run.
	Mode string `mapstructure:"mode" validate:"oneof=benders monolithic both"`
	// ObjectiveTolerance is the largest difference between the objectives of
	// both solvers that is not reported as a mismatch.
	ObjectiveTolerance float64 `mapstructure:"objective_tolerance" validate:"gt=0"`
	// TimeLimit of each branch and bound, zero for none.
	TimeLimit time.Duration `mapstructure:"time_limit" validate:"gte=0"`
	// NodeLimit of each branch and bound, zero for none.
	NodeLimit int64 `mapstructure:"node_limit" validate:"gte=0"`
	// ExportDir receives the LP files of the models when set.
	ExportDir string `mapstructure:"export_dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input", "")
	v.SetDefault("mode", ModeBoth)
	v.SetDefault("objective_tolerance", 1e-4)
	v.SetDefault("time_limit", time.Duration(0))
	v.SetDefault("node_limit", 0)
	v.SetDefault("export_dir", "")
}

// Load reads the configuration file at `path` (YAML, JSON or TOML, by
// extension), applies BENDERS_<KEY> environment variables and then
// `overrides`, and validates the result. An empty path reads no file.
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("BENDERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	for key, val := range overrides {
		v.Set(key, val)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := validator.New().Struct(&c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &c, nil
}

// RunBenders reports whether the decomposition runs.
func (c *Config) RunBenders() bool {
	return c.Mode == ModeBenders || c.Mode == ModeBoth
}

// RunMonolithic reports whether the monolithic model runs.
func (c *Config) RunMonolithic() bool {
	return c.Mode == ModeMonolithic || c.Mode == ModeBoth
}

// Parameters returns the branch and bound parameters of the configuration.
func (c *Config) Parameters() linearsolver.Parameters {
	var p linearsolver.Parameters
	if c.TimeLimit > 0 {
		p.MaxTimeInSeconds = proto.Float64(c.TimeLimit.Seconds())
	}
	if c.NodeLimit > 0 {
		p.MaxNodes = proto.Int64(c.NodeLimit)
	}
	return p
}
