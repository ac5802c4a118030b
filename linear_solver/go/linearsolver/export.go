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
	"errors"
	"fmt"
	"math"
	"strings"
)

// ExportOptions groups all options for exporting models to text formats.
type ExportOptions struct {
	// Obfuscate replaces variable and constraint names with V<index> and C<index>.
	Obfuscate bool
	// SkipLazyConstraints leaves out the constraints added by callbacks.
	SkipLazyConstraints bool
}

// ExportModelAsLpFormat outputs the model as a string in CPLEX LP format.
// Ranged constraints are written as two rows suffixed with _lb and _ub.
//
// Usage:
//
//	modelStr, err := ExportModelAsLpFormat(solver, ExportOptions{Obfuscate: true})
func ExportModelAsLpFormat(ls *LinearSolver, options ExportOptions) (string, error) {
	if ls == nil {
		return "", errors.New("cannot export a nil model as LP format")
	}
	if ls.err != nil {
		return "", fmt.Errorf("cannot export an invalid model as LP format: %w", ls.err)
	}
	varName := func(v *Variable) string {
		if options.Obfuscate {
			return fmt.Sprintf("V%d", v.index)
		}
		return v.name
	}
	rowName := func(c *Constraint) string {
		if options.Obfuscate {
			return fmt.Sprintf("C%d", c.index)
		}
		return c.name
	}
	writeExpr := func(sb *strings.Builder, terms []varCoeff) {
		if len(terms) == 0 {
			sb.WriteString("0 ")
			sb.WriteString(varName(ls.vars[0]))
			return
		}
		for i, vc := range terms {
			switch {
			case i == 0 && vc.coeff < 0:
				sb.WriteString("-")
			case vc.coeff < 0:
				sb.WriteString(" - ")
			case i > 0:
				sb.WriteString(" + ")
			}
			fmt.Fprintf(sb, "%g %s", math.Abs(vc.coeff), varName(vc.v))
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\\ Model %s\n", ls.name)
	if ls.objective.maximize {
		sb.WriteString("Maximize\n")
	} else {
		sb.WriteString("Minimize\n")
	}
	obj := NewLinearExpr()
	for _, v := range ls.vars {
		if c := ls.objective.coeffs[v]; c != 0 {
			obj.AddTerm(v, c)
		}
	}
	sb.WriteString(" obj: ")
	if objTerms := obj.merged(); len(objTerms) > 0 || len(ls.vars) > 0 {
		writeExpr(&sb, objTerms)
	}
	if off := ls.objective.offset; off != 0 {
		fmt.Fprintf(&sb, " + %g Constant", off)
	}
	sb.WriteString("\nSubject To\n")
	for _, c := range ls.constraints {
		if c.lazy && options.SkipLazyConstraints {
			continue
		}
		terms := c.Expr().merged()
		if len(terms) == 0 && len(ls.vars) == 0 {
			continue
		}
		lbFinite, ubFinite := !math.IsInf(c.lb, -1), !math.IsInf(c.ub, 1)
		row := func(suffix, op string, rhs float64) {
			fmt.Fprintf(&sb, " %s%s: ", rowName(c), suffix)
			writeExpr(&sb, terms)
			fmt.Fprintf(&sb, " %s %g\n", op, rhs)
		}
		switch {
		case lbFinite && ubFinite && c.lb == c.ub:
			row("", "=", c.lb)
		case lbFinite && ubFinite:
			row("_lb", ">=", c.lb)
			row("_ub", "<=", c.ub)
		case lbFinite:
			row("", ">=", c.lb)
		case ubFinite:
			row("", "<=", c.ub)
		}
	}
	sb.WriteString("Bounds\n")
	var generals, binaries []string
	for _, v := range ls.vars {
		name := varName(v)
		lbInf, ubInf := math.IsInf(v.lb, -1), math.IsInf(v.ub, 1)
		switch {
		case v.integer && v.lb == 0 && v.ub == 1:
			binaries = append(binaries, name)
			continue
		case lbInf && ubInf:
			fmt.Fprintf(&sb, " %s free\n", name)
		case v.lb == v.ub:
			fmt.Fprintf(&sb, " %s = %g\n", name, v.lb)
		case lbInf:
			fmt.Fprintf(&sb, " -inf <= %s <= %g\n", name, v.ub)
		case ubInf && v.lb != 0:
			fmt.Fprintf(&sb, " %s >= %g\n", name, v.lb)
		case !ubInf:
			fmt.Fprintf(&sb, " %g <= %s <= %g\n", v.lb, name, v.ub)
		}
		if v.integer {
			generals = append(generals, name)
		}
	}
	if len(generals) > 0 {
		fmt.Fprintf(&sb, "Generals\n %s\n", strings.Join(generals, " "))
	}
	if len(binaries) > 0 {
		fmt.Fprintf(&sb, "Binaries\n %s\n", strings.Join(binaries, " "))
	}
	sb.WriteString("End\n")
	return sb.String(), nil
}
