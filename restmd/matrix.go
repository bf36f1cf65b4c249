/*
 * matrix.go, part of stmd.
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

package restmd

import "gonum.org/v1/gonum/mat"

// RosterMatrix lays a gathered roster out as a w-by-4 matrix, one row per
// walker index, columns (T, U, EMin, EMax) -- the same shape a host would
// log or feed to a plotting routine to watch an exchange partition's
// windows drift over the run, the way gochem's solv/traj packages carry
// per-atom/per-frame tables as a mat.Dense rather than a slice of structs.
func RosterMatrix(roster []WalkerSummary) *mat.Dense {
	m := mat.NewDense(len(roster), 4, nil)
	for i, w := range roster {
		m.SetRow(i, []float64{w.T, w.U, w.EMin, w.EMax})
	}
	return m
}

// WindowOverlap reports whether walker a's U lies inside walker b's
// energy window and walker b's U inside walker a's, all read back out of
// m -- the window half of the admissibility check Coordinator.decide
// applies (m carries no stage, so the stage gate is not checked), exposed
// here for a host that only has the matrix form (e.g. after loading a
// logged roster back in for analysis).
func WindowOverlap(m *mat.Dense, a, b int) bool {
	aEMin, aEMax := m.At(a, 2), m.At(a, 3)
	bEMin, bEMax := m.At(b, 2), m.At(b, 3)
	aU, bU := m.At(a, 1), m.At(b, 1)
	if aU < bEMin || aU > bEMax {
		return false
	}
	if bU < aEMin || bU > aEMax {
		return false
	}
	return true
}
