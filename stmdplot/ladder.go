/*
 * ladder.go, part of stmd.
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

// Package stmdplot renders a Table's temperature ladder for a human
// operator to glance at between restarts; it supplements the WT/WH/WHP
// text streams, which remain the authoritative diagnostic record.
package stmdplot

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Ladder is the minimal view of a temperature table this package needs,
// satisfied by *stmd.Table without importing the stmd package.
type Ladder interface {
	N() int
	EnergyAtBin(i int) float64
	Y(i int) float64
}

// RenderLadder draws Ŷ(U)·T0 against bin energy as a PNG line plot at
// path.
func RenderLadder(t Ladder, t0 float64, path string) error {
	n := t.N()
	if n == 0 {
		return fmt.Errorf("stmdplot: empty table")
	}
	pts := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		pts[i].X = t.EnergyAtBin(i)
		pts[i].Y = t.Y(i) * t0
	}

	p := plot.New()
	p.Title.Text = "STMD temperature ladder"
	p.X.Label.Text = "Potential energy"
	p.Y.Label.Text = "Statistical temperature"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
