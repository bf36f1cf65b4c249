/*
 * autocorr.go, part of stmd.
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

// Package diagstat computes post-hoc statistics over an Engine's
// production-stage energy samples, the way legacy STMD/RESTMD workflows
// process the WHP stream out of band, expressed natively instead of by
// shelling out to a script.
package diagstat

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

func cmplxMulConj(dst, b []complex128) {
	for i, v := range b {
		dst[i] *= cmplx.Conj(v)
	}
}

// EnergyAutocorrelation computes the normalized autocorrelation function
// of a stage-4 energy time series via a zero-padded FFT, capped to the
// first maxLag+1 lags (lag 0 included, always 1.0). samples with fewer
// than two points return nil.
func EnergyAutocorrelation(samples []float64, maxLag int) []float64 {
	n := len(samples)
	if n < 2 {
		return nil
	}
	if maxLag >= n {
		maxLag = n - 1
	}

	mean := stat.Mean(samples, nil)
	std := stat.StdDev(samples, nil)
	if std == 0 {
		out := make([]float64, maxLag+1)
		out[0] = 1
		return out
	}

	padded := make([]complex128, 2*n)
	for i, v := range samples {
		padded[i] = complex(v-mean, 0)
	}

	f := fourier.NewCmplxFFT(len(padded))
	f.Coefficients(padded, padded)
	cmplxMulConj(padded, padded)
	f.Sequence(padded, padded)

	norm := 1.0 / float64(len(padded))
	c0 := real(padded[0]) * norm

	out := make([]float64, maxLag+1)
	for lag := 0; lag <= maxLag; lag++ {
		out[lag] = real(padded[lag]) * norm / c0
	}
	return out
}
