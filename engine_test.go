/*
 * engine_test.go, part of stmd.
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
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

func baseConfig() Config {
	cfg := DefaultConfig()
	cfg.RSTFRQ = 1000000 // keep tests from touching the filesystem
	cfg.FStyle = FSqrt
	cfg.InitF = 0.01
	cfg.FinalF = 0.005
	cfg.TLo = 200
	cfg.THi = 400
	cfg.EMin = 0
	cfg.EMax = 20
	cfg.Delta = 1
	cfg.TSC1 = 5
	cfg.TSC2 = 5
	cfg.ST = 300
	return cfg
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.Delta = -1
	if _, err := NewEngine(cfg, nil); err == nil {
		t.Fatal("NewEngine accepted a negative bin width")
	}
}

func TestOnStepMonotoneStageAndF(t *testing.T) {
	cfg := baseConfig()
	e, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	lastStage := e.Stage()
	lastF := e.F()
	for step := 1; step <= 200; step++ {
		u := 10.0
		if _, err := e.OnStep(step, u); err != nil {
			if se, ok := err.(*ScheduleError); ok {
				t.Logf("schedule terminated at step %d: %v", step, se)
				break
			}
			t.Fatalf("OnStep(%d): %v", step, err)
		}
		if e.Stage() < lastStage {
			t.Fatalf("stage decreased at step %d: %v -> %v", step, lastStage, e.Stage())
		}
		if e.F() > lastF+1e-12 {
			t.Fatalf("f increased at step %d: %v -> %v", step, lastF, e.F())
		}
		lastStage = e.Stage()
		lastF = e.F()

		if math.Abs(e.DF()-math.Log(e.F())*0.5/cfg.Delta) > 1e-9 {
			t.Fatalf("df inconsistent with f at step %d", step)
		}

		for i := 0; i < e.Table().N(); i++ {
			y := e.Table().Y(i)
			if y < cfg.TLo/cfg.ST-1e-9 || y > cfg.THi/cfg.ST+1e-9 {
				t.Fatalf("Y(%d) = %v out of [T1,T2] at step %d", i, y, step)
			}
		}
	}
}

func TestOnStepRejectsOutOfRangeEnergy(t *testing.T) {
	cfg := baseConfig()
	e, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	_, err = e.OnStep(1, 1000)
	if err == nil {
		t.Fatal("OnStep accepted an out-of-range U")
	}
	if _, ok := err.(*DomainError); !ok {
		t.Fatalf("expected *DomainError, got %T", err)
	}
}

func TestHchkLearnSchedule(t *testing.T) {
	cfg := baseConfig()
	cfg.FStyle = FHChk
	cfg.TSC2 = 1
	e, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	e.stg = StageLearn

	initialF := e.F()
	ctMin, ctMax := cfg.QualifyingRange()
	mid := (ctMin + ctMax) / 2
	for i := 0; i < e.table.N(); i++ {
		e.table.y[i] = mid
		e.table.hist[i] = 50
	}
	if err := e.maintainLearn(cfg.TSC2); err != nil {
		t.Fatalf("maintainLearn: %v", err)
	}
	if e.F() >= initialF {
		t.Errorf("f did not reduce on a flat window: %v -> %v", initialF, e.F())
	}
}

func TestSaveAndLoadRestartRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	e, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	for step := 1; step <= 20; step++ {
		if _, err := e.OnStep(step, 10.0); err != nil {
			t.Fatalf("OnStep: %v", err)
		}
	}

	path := dir + "/oREST.0.d"
	if err := e.SaveRestart(path, false); err != nil {
		t.Fatalf("SaveRestart: %v", err)
	}

	reloaded, err := LoadRestart(path, cfg)
	if err != nil {
		t.Fatalf("LoadRestart: %v", err)
	}

	if reloaded.Stage() != e.Stage() {
		t.Errorf("Stage mismatch: %v vs %v", reloaded.Stage(), e.Stage())
	}
	if !scalar.EqualWithinAbs(reloaded.F(), e.F(), 1e-12) {
		t.Errorf("F mismatch: %v vs %v", reloaded.F(), e.F())
	}
	if reloaded.totCi != e.totCi {
		t.Errorf("totCi mismatch: %v vs %v", reloaded.totCi, e.totCi)
	}
	if !floats.EqualApprox(reloaded.table.CopyY(nil), e.table.CopyY(nil), 1e-12) {
		t.Errorf("Y ladder mismatch after reload")
	}
	for i := 0; i < reloaded.table.N(); i++ {
		if reloaded.table.hist[i] != 0 {
			t.Errorf("Hist(%d) = %d after reload, want 0", i, reloaded.table.hist[i])
		}
	}
}

func TestSaveAndLoadRestartBinaryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	e, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	for step := 1; step <= 20; step++ {
		if _, err := e.OnStep(step, 10.0); err != nil {
			t.Fatalf("OnStep: %v", err)
		}
	}

	path := dir + "/oREST.0.bin"
	if err := e.SaveRestart(path, true); err != nil {
		t.Fatalf("SaveRestart: %v", err)
	}
	reloaded, err := LoadRestart(path, cfg)
	if err != nil {
		t.Fatalf("LoadRestart: %v", err)
	}
	if !floats.EqualApprox(reloaded.table.CopyY(nil), e.table.CopyY(nil), 1e-12) {
		t.Errorf("Y ladder mismatch after binary reload")
	}
}
