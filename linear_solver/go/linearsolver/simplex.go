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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const pivotTolerance = 1e-9

var errIterationLimit = errors.New("simplex iteration limit reached")

// lpRow is the ranged row `lb <= Σ coeffs[k]·x[cols[k]] <= ub`.
type lpRow struct {
	cols   []int
	coeffs []float64
	lb, ub float64
}

// lpProblem is `min obj·x` subject to rows and variable bounds.
type lpProblem struct {
	obj    []float64
	bounds []ClosedInterval
	rows   []lpRow
}

type lpSolution struct {
	status    ResultStatus
	x         []float64
	objective float64
	// duals and farkas are indexed like lpProblem.rows.
	duals      []float64
	farkas     []float64
	iterations int64
	err        error
}

type simplexOptions struct {
	primalTol     float64
	dualTol       float64
	maxIterations int64
	farkas        bool
}

func newSimplexOptions(p Parameters, farkas bool) simplexOptions {
	return simplexOptions{
		primalTol:     p.GetPrimalTolerance(),
		dualTol:       p.GetDualTolerance(),
		maxIterations: p.GetMaxSimplexIterations(),
		farkas:        farkas,
	}
}

type rowSense int

const (
	senseLE rowSense = iota
	senseGE
	senseEQ
)

// columnMap expresses a model variable through nonnegative tableau columns:
// x = shift + sign·x[pos] - x[neg], where neg is -1 for bounded variables.
type columnMap struct {
	shift float64
	sign  float64
	pos   int
	neg   int
}

// stdRow is a row over tableau columns with a nonnegative right-hand side.
type stdRow struct {
	coeffs []float64 // dense over structural columns
	sense  rowSense
	rhs    float64
	// flip is -1 if the row was negated to make rhs nonnegative.
	flip float64
	// owner is the lpProblem row this row comes from, -1 for bound rows.
	owner int
}

// tableau is a dense simplex tableau. Row i of a holds B⁻¹A and, in its last
// column, the value of the basic variable basis[i]. d holds the reduced costs
// and, in its last entry, minus the objective value.
type tableau struct {
	a     *mat.Dense
	d     []float64
	basis []int
	m, n  int
}

func (t *tableau) rhs(i int) float64 {
	return t.a.At(i, t.n)
}

// pivot makes column c basic in row r.
func (t *tableau) pivot(r, c int) {
	row := t.a.RawRowView(r)
	floats.Scale(1/row[c], row)
	row[c] = 1
	for i := 0; i < t.m; i++ {
		if i == r {
			continue
		}
		other := t.a.RawRowView(i)
		if f := other[c]; f != 0 {
			floats.AddScaled(other, -f, row)
			other[c] = 0
			if v := other[t.n]; v < 0 && v > -pivotTolerance {
				other[t.n] = 0
			}
		}
	}
	if f := t.d[c]; f != 0 {
		floats.AddScaled(t.d, -f, row)
		t.d[c] = 0
	}
	t.basis[r] = c
}

// price sets d to the reduced costs of `cost` for the current basis.
func (t *tableau) price(cost []float64) {
	copy(t.d, cost)
	t.d[t.n] = 0
	for i, b := range t.basis {
		if cb := cost[b]; cb != 0 {
			floats.AddScaled(t.d, -cb, t.a.RawRowView(i))
		}
	}
}

// iterate pivots until no allowed column has a negative reduced cost. It
// uses Bland's rule for both the entering and the leaving column, so it never
// cycles. It returns true if an entering column has no leaving row.
func (t *tableau) iterate(allowed func(int) bool, opts simplexOptions, iterations *int64) (bool, error) {
	for {
		enter := -1
		for j := 0; j < t.n; j++ {
			if allowed(j) && t.d[j] < -opts.dualTol {
				enter = j
				break
			}
		}
		if enter < 0 {
			return false, nil
		}
		if *iterations >= opts.maxIterations {
			return false, fmt.Errorf("%w after %d pivots", errIterationLimit, *iterations)
		}
		leave := -1
		best := math.Inf(1)
		for i := 0; i < t.m; i++ {
			a := t.a.At(i, enter)
			if a <= pivotTolerance {
				continue
			}
			ratio := t.rhs(i) / a
			switch {
			case leave < 0 || ratio < best-pivotTolerance:
				leave, best = i, ratio
			case ratio <= best+pivotTolerance && t.basis[i] < t.basis[leave]:
				leave = i
			}
		}
		if leave < 0 {
			return true, nil
		}
		t.pivot(leave, enter)
		*iterations++
	}
}

// solveLP solves `p` with the two-phase simplex method.
func solveLP(p *lpProblem, opts simplexOptions) lpSolution {
	nv := len(p.obj)
	for j, b := range p.bounds {
		if b.Start > b.End+opts.primalTol || math.IsInf(b.Start, 1) || math.IsInf(b.End, -1) {
			// Empty bounds: no row certificate exists.
			return lpSolution{status: Infeasible, err: fmt.Errorf("variable %d has empty bounds %v", j, b)}
		}
	}

	// Map variables to nonnegative structural columns.
	cols := make([]columnMap, nv)
	ns := 0
	for j, b := range p.bounds {
		switch {
		case !math.IsInf(b.Start, -1):
			cols[j] = columnMap{shift: b.Start, sign: 1, pos: ns, neg: -1}
			ns++
		case !math.IsInf(b.End, 1):
			cols[j] = columnMap{shift: b.End, sign: -1, pos: ns, neg: -1}
			ns++
		default:
			cols[j] = columnMap{sign: 1, pos: ns, neg: ns + 1}
			ns += 2
		}
	}

	// Build rows over structural columns.
	var rows []stdRow
	addRow := func(dense []float64, sense rowSense, rhs float64, owner int) {
		r := stdRow{coeffs: dense, sense: sense, rhs: rhs, flip: 1, owner: owner}
		if r.rhs < 0 {
			floats.Scale(-1, r.coeffs)
			r.rhs = -r.rhs
			r.flip = -1
			switch r.sense {
			case senseLE:
				r.sense = senseGE
			case senseGE:
				r.sense = senseLE
			}
		}
		rows = append(rows, r)
	}
	for i, row := range p.rows {
		dense := make([]float64, ns)
		var shift float64
		for k, j := range row.cols {
			a := row.coeffs[k]
			cm := cols[j]
			shift += a * cm.shift
			dense[cm.pos] += a * cm.sign
			if cm.neg >= 0 {
				dense[cm.neg] -= a
			}
		}
		lbFinite, ubFinite := !math.IsInf(row.lb, -1), !math.IsInf(row.ub, 1)
		switch {
		case lbFinite && ubFinite && row.lb == row.ub:
			addRow(dense, senseEQ, row.lb-shift, i)
		case lbFinite && ubFinite:
			addRow(dense, senseGE, row.lb-shift, i)
			addRow(append([]float64(nil), dense...), senseLE, row.ub-shift, i)
		case lbFinite:
			addRow(dense, senseGE, row.lb-shift, i)
		case ubFinite:
			addRow(dense, senseLE, row.ub-shift, i)
		}
	}
	for j, b := range p.bounds {
		if cols[j].neg < 0 && !math.IsInf(b.Start, -1) && !math.IsInf(b.End, 1) {
			dense := make([]float64, ns)
			dense[cols[j].pos] = 1
			addRow(dense, senseLE, math.Max(b.End-b.Start, 0), -1)
		}
	}

	cost := make([]float64, ns)
	for j, c := range p.obj {
		cm := cols[j]
		cost[cm.pos] += c * cm.sign
		if cm.neg >= 0 {
			cost[cm.neg] -= c
		}
	}

	m := len(rows)
	if m == 0 {
		return solveUnconstrained(p, cols, cost, opts)
	}

	// Lay out slack and artificial columns. idCol[i] is the column that forms
	// the initial identity in row i.
	nSlack, nArt := 0, 0
	for _, r := range rows {
		if r.sense != senseEQ {
			nSlack++
		}
		if r.sense != senseLE {
			nArt++
		}
	}
	n := ns + nSlack + nArt
	firstArt := ns + nSlack
	t := &tableau{
		a:     mat.NewDense(m, n+1, nil),
		d:     make([]float64, n+1),
		basis: make([]int, m),
		m:     m,
		n:     n,
	}
	idCol := make([]int, m)
	slack, art := ns, firstArt
	for i, r := range rows {
		raw := t.a.RawRowView(i)
		copy(raw, r.coeffs)
		raw[n] = r.rhs
		switch r.sense {
		case senseLE:
			raw[slack] = 1
			idCol[i] = slack
			slack++
		case senseGE:
			raw[slack] = -1
			slack++
			raw[art] = 1
			idCol[i] = art
			art++
		case senseEQ:
			raw[art] = 1
			idCol[i] = art
			art++
		}
		t.basis[i] = idCol[i]
	}

	res := lpSolution{}
	if nArt > 0 {
		phase1 := make([]float64, n+1)
		for j := firstArt; j < n; j++ {
			phase1[j] = 1
		}
		t.price(phase1)
		if _, err := t.iterate(func(int) bool { return true }, opts, &res.iterations); err != nil {
			return lpSolution{status: Abnormal, iterations: res.iterations, err: err}
		}
		if infeasibility := -t.d[n]; infeasibility > opts.primalTol {
			res.status = Infeasible
			if opts.farkas {
				// The phase 1 duals y satisfy y·A <= 0 and y·b > 0; the
				// certificate is reported with the opposite sign.
				res.farkas = make([]float64, len(p.rows))
				for i, r := range rows {
					if r.owner < 0 {
						continue
					}
					y := phase1[idCol[i]] - t.d[idCol[i]]
					res.farkas[r.owner] -= r.flip * y
				}
			}
			return res
		}
		// Drive artificial columns out of the basis. A row where this is not
		// possible is redundant and keeps its artificial at zero.
		for i := 0; i < m; i++ {
			if t.basis[i] < firstArt {
				continue
			}
			raw := t.a.RawRowView(i)
			for j := 0; j < firstArt; j++ {
				if math.Abs(raw[j]) > pivotTolerance {
					t.pivot(i, j)
					break
				}
			}
		}
	}

	phase2 := make([]float64, n+1)
	copy(phase2, cost)
	t.price(phase2)
	unbounded, err := t.iterate(func(j int) bool { return j < firstArt }, opts, &res.iterations)
	if err != nil {
		return lpSolution{status: Abnormal, iterations: res.iterations, err: err}
	}
	if unbounded {
		res.status = Unbounded
		return res
	}

	xs := make([]float64, n)
	for i, b := range t.basis {
		xs[b] = t.rhs(i)
	}
	res.status = Optimal
	res.x = make([]float64, nv)
	for j, cm := range cols {
		v := cm.shift + cm.sign*xs[cm.pos]
		if cm.neg >= 0 {
			v -= xs[cm.neg]
		}
		res.x[j] = v
	}
	res.objective = floats.Dot(p.obj, res.x)
	res.duals = make([]float64, len(p.rows))
	for i, r := range rows {
		if r.owner < 0 {
			continue
		}
		// The identity columns have zero phase 2 cost, so y = -d.
		res.duals[r.owner] += r.flip * -t.d[idCol[i]]
	}
	return res
}

// solveUnconstrained handles problems without any row: every column sits at
// zero unless its cost is negative, in which case the problem is unbounded.
func solveUnconstrained(p *lpProblem, cols []columnMap, cost []float64, opts simplexOptions) lpSolution {
	for _, c := range cost {
		if c < -opts.dualTol {
			return lpSolution{status: Unbounded}
		}
	}
	x := make([]float64, len(p.obj))
	for j, cm := range cols {
		x[j] = cm.shift
	}
	return lpSolution{
		status:    Optimal,
		x:         x,
		objective: floats.Dot(p.obj, x),
		duals:     make([]float64, len(p.rows)),
	}
}
