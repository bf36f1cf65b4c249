/*
 * table.go, part of stmd.
 *
 * Copyright 2026 The stmd Authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 */

package stmd

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// floorTol is the tolerance used wherever the original fix_stmd.cpp source
// relied on exact floating point equality against T1.
const floorTol = 1e-12

// Row is one line of the observable array exposed to the host (the
// original's compute_array columns).
type Row struct {
	EnergyAtBin float64
	Yhat        float64
	Hist        int64
	Proh        int64
}

// Table is the energy-bin temperature table (ETT): it discretizes the
// potential-energy window into N bins of width Delta and carries the
// per-bin statistical-temperature estimate Yhat along with the window,
// cumulative and production histograms.
type Table struct {
	delta         float64
	eMin, eMax    float64
	binMinIdx     int
	binMaxIdx     int
	n             int
	y             []float64
	hist          []int64
	htot          []int64
	proh          []int64
	prob          []float64
	t1, t2        float64
	curBin        int
	swf, swfold   int
	countH        int
	countPH       int
	floorReached  bool
}

// NewTable allocates a fresh ETT over [eMin, eMax] with bin width delta,
// with every Yhat initialized to t2 per the lifecycle rule in the data
// model, and all histograms zeroed.
func NewTable(eMin, eMax, delta, t1, t2 float64) (*Table, error) {
	if delta <= 0 {
		return nil, newConfigError("delta", "bin width must be positive")
	}
	if eMax < eMin {
		return nil, newConfigError("E_max", "must be >= E_min")
	}
	binMin := int(math.Round(eMin / delta))
	binMax := int(math.Round(eMax / delta))
	n := binMax - binMin + 1
	if n < 3 {
		return nil, newConfigError("bin", "energy window too narrow for the required interior bins")
	}
	t := &Table{
		delta:     delta,
		eMin:      eMin,
		eMax:      eMax,
		binMinIdx: binMin,
		binMaxIdx: binMax,
		n:         n,
		y:         make([]float64, n),
		hist:      make([]int64, n),
		htot:      make([]int64, n),
		proh:      make([]int64, n),
		prob:      make([]float64, n),
		t1:        t1,
		t2:        t2,
	}
	for i := range t.y {
		t.y[i] = t2
	}
	return t, nil
}

// N returns the number of bins.
func (t *Table) N() int { return t.n }

// Delta returns the bin width.
func (t *Table) Delta() float64 { return t.delta }

// BinMinIdx and BinMaxIdx return the rounded Emin/delta and Emax/delta
// indices used to offset BinOf.
func (t *Table) BinMinIdx() int { return t.binMinIdx }
func (t *Table) BinMaxIdx() int { return t.binMaxIdx }

// CurBin returns the most recently sampled bin index.
func (t *Table) CurBin() int { return t.curBin }

// Y returns the statistical-temperature estimate at bin i, in units of T0.
func (t *Table) Y(i int) float64 { return t.y[i] }

// EnergyAtBin returns Emin + i*Delta, the center of bin i when Emin is a
// multiple of Delta.
func (t *Table) EnergyAtBin(i int) float64 { return float64(i)*t.delta + t.eMin }

// Row returns the observable row (E, Yhat, Hist, PROH) for bin j.
func (t *Table) Row(j int) Row {
	return Row{EnergyAtBin: t.EnergyAtBin(j), Yhat: t.y[j], Hist: t.hist[j], Proh: t.proh[j]}
}

// FloorReached reports whether bin 0 has ever been clamped to, or dug
// down to, T1 (within floorTol) -- the sentinel the design notes recommend in
// place of the original's bit-exact "Y2[0] == T1" comparison.
func (t *Table) FloorReached() bool {
	return t.floorReached || math.Abs(t.y[0]-t.t1) <= floorTol
}

// BinOf returns the interior bin index containing U, failing if the bin
// would be 0, N-1, or outside [0, N) entirely -- the strict-interior rule
// update() and gamma() depend on touching i-1 and i+1 safely.
func (t *Table) BinOf(u float64) (int, error) {
	i := int(math.Round(u/t.delta)) - t.binMinIdx
	if i < 1 || i > t.n-2 {
		return 0, newDomainError(u, t.delta, i)
	}
	return i, nil
}

// Update applies the STMD multiplicative rule to the neighbors of bin i,
// leaving Yhat[i] untouched, using the current learning-rate derivative
// df. Neighbors are clamped back into [T1, T2].
func (t *Table) Update(i int, df float64) {
	t.y[i+1] = t.y[i+1] / (1.0 - df*t.y[i+1])
	t.y[i-1] = t.y[i-1] / (1.0 + df*t.y[i-1])
	if t.y[i-1] < t.t1 {
		t.y[i-1] = t.t1
	}
	if t.y[i+1] > t.t2 {
		t.y[i+1] = t.t2
	}
	if i-1 == 0 && math.Abs(t.y[0]-t.t1) <= floorTol {
		t.floorReached = true
	}
}

// Gamma computes the force-scaling factor at U given it falls in bin i,
// as the reciprocal of the linearly interpolated T(U) from Temperature.
func (t *Table) Gamma(u float64, i int) float64 {
	return 1.0 / t.Temperature(u, i)
}

// Temperature is the local statistical temperature estimate T(U) used
// both to derive Gamma and, by RESTMD, the Metropolis acceptance factor.
func (t *Table) Temperature(u float64, i int) float64 {
	e := u - math.Round(u/t.delta)*t.delta
	switch {
	case e > 0:
		lam := (t.y[i+1] - t.y[i]) / t.delta
		return t.y[i] + lam*e
	case e < 0:
		lam := (t.y[i] - t.y[i-1]) / t.delta
		return t.y[i] + lam*e
	default:
		return t.y[i]
	}
}

// Record registers a visit to bin i: Hist and Htot always advance; PROH
// and the production counter also advance once stg >= 3.
func (t *Table) Record(i int, stg Stage) {
	t.hist[i]++
	t.htot[i]++
	t.curBin = i
	t.countH++
	if stg >= StageConverge {
		t.proh[i]++
		t.countPH++
	}
}

// CountH and CountPH expose the steps-since-window-reset and
// production-phase step counters Record advances.
func (t *Table) CountH() int  { return t.countH }
func (t *Table) CountPH() int { return t.countPH }

// SWf and SWfold expose the flatness counters Hchk advances.
func (t *Table) SWf() int    { return t.swf }
func (t *Table) SWfold() int { return t.swfold }

// Restore overwrites Yhat, Htot, PROH and the flatness/step counters from
// a previously persisted state, as produced by a restart blob. Hist is
// not touched by Restore -- by contract it always reloads as zero.
func (t *Table) Restore(y []float64, htot, proh []int64, swf, swfold, countH, countPH int) error {
	if len(y) != t.n || len(htot) != t.n || len(proh) != t.n {
		return newRestartError("<in-memory>", "bin count of restored arrays does not match table size")
	}
	copy(t.y, y)
	copy(t.htot, htot)
	copy(t.proh, proh)
	t.swf = swf
	t.swfold = swfold
	t.countH = countH
	t.countPH = countPH
	t.floorReached = math.Abs(t.y[0]-t.t1) <= floorTol
	return nil
}

// CopyHtot and CopyProh expose the cumulative and production histograms,
// e.g. for serializing a restart blob.
func (t *Table) CopyHtot(dst []int64) []int64 {
	if len(dst) < t.n {
		dst = make([]int64, t.n)
	}
	copy(dst[:t.n], t.htot)
	return dst[:t.n]
}

func (t *Table) CopyProh(dst []int64) []int64 {
	if len(dst) < t.n {
		dst = make([]int64, t.n)
	}
	copy(dst[:t.n], t.proh)
	return dst[:t.n]
}

// ResetWindow zeroes the window histogram and its step counter, leaving
// Htot and PROH untouched.
func (t *Table) ResetWindow() {
	for i := range t.hist {
		t.hist[i] = 0
	}
	t.countH = 0
}

// ResetProduction zeroes CountPH, used when stage 2 promotes to 3.
func (t *Table) ResetProduction() {
	t.countPH = 0
}

// Dig finds the coldest bin (ties keep the smallest index) and lowers
// every bin to its left down to that value, digging the cold end of the
// ladder toward its observed minimum. Calling Dig twice in a row is a
// no-op the second time, since the prefix is already flat at the new
// minimum.
func (t *Table) Dig() {
	keepIdx := 0
	keepMin := t.y[0]
	for i, v := range t.y {
		if v < keepMin {
			keepMin = v
			keepIdx = i
		}
	}
	for i := 0; i < keepIdx; i++ {
		t.y[i] = keepMin
	}
	if math.Abs(t.y[0]-t.t1) <= floorTol {
		t.floorReached = true
	}
}

// Hchk checks the window histogram for flatness among bins whose Yhat
// lies strictly between ctMin and ctMax. If no bin qualifies it reports
// no change. Otherwise it compares every qualifying bin's count against
// the qualifying mean; if all are within tol of the mean it advances the
// internal flatness counter and reports whether that counter changed
// since the last check.
func (t *Table) Hchk(ctMin, ctMax, tol float64) bool {
	t.swfold = t.swf

	var sum float64
	var n int
	for i, yi := range t.y {
		if yi > ctMin && yi < ctMax {
			sum += float64(t.hist[i])
			n++
		}
	}
	if n == 0 {
		return false
	}
	mean := sum / float64(n)

	violations := 0
	for i, yi := range t.y {
		if yi > ctMin && yi < ctMax {
			eval := math.Abs(float64(t.hist[i])-mean) / mean
			if eval > tol {
				violations++
			}
		}
	}
	if violations == 0 {
		t.swf++
	}
	return t.swf != t.swfold
}

// CopyY copies the Yhat ladder into dst, allocating if dst is nil or too
// short, and returns the first N elements of dst (filled via
// gonum/floats.ScaleTo with a factor of 1).
func (t *Table) CopyY(dst []float64) []float64 {
	if len(dst) < t.n {
		dst = make([]float64, t.n)
	}
	return floats.ScaleTo(dst[:t.n], 1, t.y)
}
