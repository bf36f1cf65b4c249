/*
 * ladder_test.go, part of stmd.
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

package stmdplot

import (
	"os"
	"path/filepath"
	"testing"
)

// fakeLadder stands in for *stmd.Table without this package importing
// stmd, the same decoupling the Ladder interface is for.
type fakeLadder struct {
	y []float64
}

func (f fakeLadder) N() int                    { return len(f.y) }
func (f fakeLadder) EnergyAtBin(i int) float64 { return float64(i) }
func (f fakeLadder) Y(i int) float64           { return f.y[i] }

func TestRenderLadderWritesAFile(t *testing.T) {
	l := fakeLadder{y: []float64{0.5, 0.6, 0.8, 1.2, 2.0}}
	path := filepath.Join(t.TempDir(), "ladder.png")

	if err := RenderLadder(l, 300.0, path); err != nil {
		t.Fatalf("RenderLadder: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("RenderLadder wrote an empty file")
	}
}

func TestRenderLadderRejectsEmptyTable(t *testing.T) {
	l := fakeLadder{y: nil}
	path := filepath.Join(t.TempDir(), "ladder.png")
	if err := RenderLadder(l, 300.0, path); err == nil {
		t.Fatal("RenderLadder accepted an empty table")
	}
}
