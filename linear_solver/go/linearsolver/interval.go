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
)

// ClosedInterval stores the closed interval `[Start,End]` of values a variable
// may take. If `Start` is greater than `End`, the interval is considered empty.
// Unbounded sides are represented with math.Inf.
type ClosedInterval struct {
	Start float64
	End   float64
}

// NewInterval creates the interval `[start,end]`.
func NewInterval(start, end float64) ClosedInterval {
	return ClosedInterval{Start: start, End: end}
}

// IsEmpty returns true if the interval contains no value.
func (c ClosedInterval) IsEmpty() bool {
	return c.Start > c.End
}

// IsFixed returns true if the interval contains exactly one value.
func (c ClosedInterval) IsFixed() bool {
	return c.Start == c.End
}

// Contains returns true if `v` lies in the interval.
func (c ClosedInterval) Contains(v float64) bool {
	return c.Start <= v && v <= c.End
}

// Intersect returns the intersection of `c` and `o`, which may be empty.
func (c ClosedInterval) Intersect(o ClosedInterval) ClosedInterval {
	return ClosedInterval{Start: math.Max(c.Start, o.Start), End: math.Min(c.End, o.End)}
}

// Split divides the interval around the fractional value `v` into
// `[Start,floor(v)]` and `[ceil(v),End]`. Either side may be empty.
func (c ClosedInterval) Split(v float64) (down, up ClosedInterval) {
	down = ClosedInterval{Start: c.Start, End: math.Min(c.End, math.Floor(v))}
	up = ClosedInterval{Start: math.Max(c.Start, math.Ceil(v)), End: c.End}
	return down, up
}

func (c ClosedInterval) String() string {
	return fmt.Sprintf("[%g,%g]", c.Start, c.End)
}
