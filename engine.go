/*
 * engine.go, part of stmd.
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

	"github.com/rmera/stmd/diag"
	"github.com/rmera/stmd/restart"
)

// maxEnergyBuffer caps how many stage-4 energy samples Engine buffers for
// the diagstat mixing diagnostic (§4.5 of SPEC_FULL.md).
const maxEnergyBuffer = 1 << 16

// Engine drives the four-stage STMD state machine described in
// SPEC_FULL.md §4.2 over one walker's Table (ETT).
type Engine struct {
	cfg   Config
	table *Table

	stg   Stage
	f     float64
	df    float64
	swchk int
	count int
	totCi int
	gamma float64
	lastU float64

	pfinFval float64
	finFval  float64

	broadcaster Broadcaster

	streams          *diag.Streams
	restartPath      string
	useBinaryRestart bool
	walker           int

	energyBuf    []float64
	energyBufPos int
}

// NewEngine validates cfg, allocates a fresh Table (Yhat[i] = T2
// everywhere, all histograms zero), and derives the initial f/df and
// stage-3/4 thresholds, exactly as FixStmd::init() does for a fresh run.
// Pass a Broadcaster appropriate for the walker's communicator; nil is
// equivalent to LocalBroadcaster (single rank, no-op).
func NewEngine(cfg Config, broadcaster Broadcaster) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t1 := cfg.TLo / cfg.ST
	t2 := cfg.THi / cfg.ST
	table, err := NewTable(cfg.EMin, cfg.EMax, cfg.Delta, t1, t2)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:         cfg,
		table:       table,
		stg:         StageDig,
		swchk:       1,
		broadcaster: broadcaster,
	}
	if e.broadcaster == nil {
		e.broadcaster = LocalBroadcaster{}
	}

	e.f = math.Exp(cfg.InitF * 2 * cfg.Delta)
	e.df = math.Log(e.f) * 0.5 / cfg.Delta
	e.pfinFval = math.Exp(cfg.FinalF * 2 * cfg.Delta)
	e.finFval = math.Exp((cfg.FinalF / 10) * 2 * cfg.Delta)
	return e, nil
}

// Table exposes the underlying ETT, e.g. for RESTMD summaries or
// diagnostic plotting.
func (e *Engine) Table() *Table { return e.table }

// Window returns the configured [Emin, Emax] energy window, the bounds
// restmd.Coordinator checks a partner's U against before admitting an
// exchange.
func (e *Engine) Window() (float64, float64) { return e.cfg.EMin, e.cfg.EMax }

// Stage, F, DF and Gamma expose the current schedule state.
func (e *Engine) Stage() Stage   { return e.stg }
func (e *Engine) F() float64     { return e.f }
func (e *Engine) DF() float64    { return e.df }
func (e *Engine) Gamma() float64 { return e.gamma }
func (e *Engine) TotCi() int     { return e.totCi }
func (e *Engine) Count() int     { return e.count }

// Temperature returns T0 * T_local(U), the original's compute_scalar,
// for any valid U -- not necessarily the most recently sampled one.
func (e *Engine) Temperature(u float64) (float64, error) {
	i, err := e.table.BinOf(u)
	if err != nil {
		return 0, err
	}
	return e.table.Temperature(u, i) * e.cfg.ST, nil
}

// LastU returns the potential energy passed to the most recent OnStep
// call, the U_me a replica-exchange attempt reports for this walker.
func (e *Engine) LastU() float64 { return e.lastU }

// CurrentTemperature is Temperature(LastU()), the T_me reported to
// restmd.Coordinator.
func (e *Engine) CurrentTemperature() (float64, error) {
	return e.Temperature(e.lastU)
}

// Observables returns the 8-entry observable vector.
func (e *Engine) Observables() Vector {
	return Vector{
		Stage:     e.stg,
		Bins:      e.table.N(),
		BinMinIdx: e.table.BinMinIdx(),
		BinMaxIdx: e.table.BinMaxIdx(),
		CurBin:    e.table.CurBin(),
		Delta:     e.cfg.Delta,
		DF:        e.df,
		Gamma:     e.gamma,
	}
}

// SetDiagnostics wires up the append-only WT/WH/WHP streams and the
// restart blob path that OnStep checkpoints to every RSTFRQ steps.
// walker identifies this Engine among its RESTMD siblings for filenames.
func (e *Engine) SetDiagnostics(streams *diag.Streams, restartPath string, binaryFormat bool, walker int) {
	e.streams = streams
	e.restartPath = restartPath
	e.useBinaryRestart = binaryFormat
	e.walker = walker
}

// OnStep is the per-MD-step hook the host must call, in order, after
// computing U and before scaling forces by the returned Gamma:
// SPEC_FULL.md §6 / spec.md §6.
func (e *Engine) OnStep(step int, u float64) (float64, error) {
	i, err := e.table.BinOf(u)
	if err != nil {
		return 0, err
	}
	e.lastU = u

	e.table.Update(i, e.df)
	e.gamma = e.table.Gamma(u, i)
	if err := e.broadcaster.Broadcast(e.gamma); err != nil {
		return 0, err
	}
	e.table.Record(i, e.stg)

	e.count = step
	e.totCi++
	if e.stg >= StageProduction {
		e.bufferEnergy(u)
	}

	if err := e.runStageMaintenance(step); err != nil {
		return 0, err
	}

	if step%e.cfg.RSTFRQ == 0 {
		e.checkpoint(step)
	}

	return e.gamma, nil
}

func (e *Engine) bufferEnergy(u float64) {
	if e.energyBuf == nil {
		e.energyBuf = make([]float64, 0, maxEnergyBuffer)
	}
	if len(e.energyBuf) < maxEnergyBuffer {
		e.energyBuf = append(e.energyBuf, u)
		return
	}
	e.energyBuf[e.energyBufPos] = u
	e.energyBufPos = (e.energyBufPos + 1) % maxEnergyBuffer
}

// EnergyBuffer returns the ring-buffered stage-4 energy samples, in
// sampling order, for diagstat.EnergyAutocorrelation.
func (e *Engine) EnergyBuffer() []float64 {
	if len(e.energyBuf) < maxEnergyBuffer {
		return e.energyBuf
	}
	out := make([]float64, maxEnergyBuffer)
	copy(out, e.energyBuf[e.energyBufPos:])
	copy(out[maxEnergyBuffer-e.energyBufPos:], e.energyBuf[:e.energyBufPos])
	return out
}

func (e *Engine) runStageMaintenance(step int) error {
	switch e.stg {
	case StageDig:
		return e.maintainDig(step)
	case StageLearn:
		return e.maintainLearn(step)
	case StageConverge:
		return e.maintainConverge(step)
	case StageProduction:
		// f and df are frozen; Yhat keeps updating via Table.Update above.
		return nil
	}
	return nil
}

// maintainDig is stage 1: dig every TSC1 steps, then promote once bin 0
// has reached the floor T1.
func (e *Engine) maintainDig(step int) error {
	if step == 0 || step%e.cfg.TSC1 != 0 {
		return nil
	}
	e.table.Dig()
	if e.table.FloorReached() {
		e.stg = StageLearn
		e.table.ResetWindow()
	}
	return nil
}

// maintainLearn is stage 2: apply the configured f-reduction scheme
// every TSC2 steps, then promote to stage 3 once f has fallen to
// pfinFval.
func (e *Engine) maintainLearn(step int) error {
	if step == 0 || step%e.cfg.TSC2 != 0 {
		return nil
	}

	switch e.cfg.FStyle {
	case FNone:
		e.table.ResetWindow()
	case FHChk:
		ctMin, ctMax := e.cfg.QualifyingRange()
		if e.table.Hchk(ctMin, ctMax, e.cfg.HCKtol) {
			if err := e.reduceF(math.Sqrt(e.f)); err != nil {
				return err
			}
			e.swchk = 1
			e.table.ResetWindow()
		} else {
			e.swchk++
		}
	default:
		if err := e.reduceUnconditional(step); err != nil {
			return err
		}
		e.table.ResetWindow()
	}

	if e.f <= 1.0 {
		return newScheduleError(e.f)
	}
	if e.f <= e.pfinFval {
		e.stg = StageConverge
		e.table.ResetProduction()
		e.swchk = 1
		e.table.ResetWindow()
	}
	return nil
}

// maintainConverge is stage 3: same f-reduction cadence as stage 2, with
// the stage-3/4 asymmetry from the Open Question made explicit via
// stageReduceGuard, then promotes to stage 4 once f has fallen to
// finFval.
func (e *Engine) maintainConverge(step int) error {
	if step == 0 || step%e.cfg.TSC2 != 0 {
		return nil
	}

	switch e.cfg.FStyle {
	case FHChk:
		ctMin, ctMax := e.cfg.QualifyingRange()
		if e.table.Hchk(ctMin, ctMax, e.cfg.HCKtol) {
			if stageReduceGuard(e.stg) {
				if err := e.reduceF(math.Sqrt(e.f)); err != nil {
					return err
				}
			}
			e.swchk = 1
			e.table.ResetWindow()
		} else {
			e.swchk++
		}
	case FNone:
		e.table.ResetWindow()
	default:
		if stageReduceGuard(e.stg) {
			if err := e.reduceUnconditional(step); err != nil {
				return err
			}
		}
		e.table.ResetWindow()
	}

	if e.f <= 1.0 {
		return newScheduleError(e.f)
	}
	if e.f <= e.finFval {
		e.stg = StageProduction
	}
	return nil
}

// reduceUnconditional applies the sqrt/constant_f/constant_df schemes,
// none of which consult Hchk.
func (e *Engine) reduceUnconditional(step int) error {
	switch e.cfg.FStyle {
	case FSqrt:
		if step != 0 {
			return e.reduceF(math.Sqrt(e.f))
		}
	case FConstantF:
		const r = 0.1
		if step != 0 {
			if e.f > 1+2*r {
				return e.reduceF(e.f - r*e.f)
			}
			return e.reduceF(math.Sqrt(e.f))
		}
	case FConstantDF:
		const r = 0.01
		if step != 0 {
			newDF := e.df - e.df*r
			newF := math.Exp(2 * e.cfg.Delta * newDF)
			e.df = newDF
			e.f = newF
		}
	}
	return nil
}

// reduceF sets f to newF and recomputes df, maintaining invariant 2
// (df = ln(f)/(2*Delta) after any change to f).
func (e *Engine) reduceF(newF float64) error {
	e.f = newF
	e.df = math.Log(e.f) * 0.5 / e.cfg.Delta
	return nil
}

func (e *Engine) checkpoint(step int) {
	if e.streams != nil {
		rows := make([]diag.Row, e.table.N())
		for i := range rows {
			r := e.table.Row(i)
			rows[i] = diag.Row{EnergyAtBin: r.EnergyAtBin, Yhat: r.Yhat, Hist: r.Hist, Proh: r.Proh}
		}
		e.streams.WriteWT(rows, e.cfg.ST, e.totCi)
		e.streams.WriteWH(rows, e.table.CopyHtot(nil), e.table.CountH(), e.totCi, e.f)
		if e.stg >= StageConverge {
			e.streams.WriteWHP(rows, e.table.CopyHtot(nil), e.table.CountH(), e.table.CountPH(), e.f)
		}
	}
	if e.restartPath != "" {
		if err := restart.SaveAtomic(e.restartPath, e.toBlob(), e.useBinaryRestart); err != nil && e.streams != nil {
			e.streams.Logger.Printf("checkpoint: failed to write restart blob: %v", err)
		}
	}
}

func (e *Engine) toBlob() *restart.Blob {
	ctMin, ctMax := e.cfg.QualifyingRange()
	return &restart.Blob{
		Stage:   int(e.stg),
		F:       e.f,
		CountH:  e.table.CountH(),
		SWf:     e.table.SWf(),
		SWfold:  e.table.SWfold(),
		SWchk:   e.swchk,
		Count:   e.count,
		TotCi:   e.totCi,
		CountPH: e.table.CountPH(),
		T1:      e.table.t1,
		T2:      e.table.t2,
		CTmin:   ctMin,
		CTmax:   ctMax,
		Y:       e.table.CopyY(nil),
		Htot:    e.table.CopyHtot(nil),
		Proh:    e.table.CopyProh(nil),
	}
}

// SaveRestart writes the current state to path, using the binary codec
// if binaryFormat is true, ASCII otherwise, regardless of the streaming
// checkpoint cadence SetDiagnostics configures.
func (e *Engine) SaveRestart(path string, binaryFormat bool) error {
	return restart.SaveAtomic(path, e.toBlob(), binaryFormat)
}

// LoadRestart restores Stage, f, df, Yhat, Htot, PROH and all counters
// (CountH included) from the blob at path -- Hist always reloads as
// zero, per the restart round-trip contract in spec.md §8.
func LoadRestart(path string, cfg Config) (*Engine, error) {
	t1 := cfg.TLo / cfg.ST
	t2 := cfg.THi / cfg.ST
	table, err := NewTable(cfg.EMin, cfg.EMax, cfg.Delta, t1, t2)
	if err != nil {
		return nil, err
	}

	blob, err := restart.Load(path, table.N())
	if err != nil {
		return nil, newRestartError(path, err.Error())
	}
	if blob.N() != table.N() {
		return nil, newRestartError(path, "bin count mismatch between config and restart blob")
	}

	if err := table.Restore(blob.Y, blob.Htot, blob.Proh, blob.SWf, blob.SWfold, blob.CountH, blob.CountPH); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:         cfg,
		table:       table,
		stg:         Stage(blob.Stage),
		f:           blob.F,
		swchk:       blob.SWchk,
		count:       blob.Count,
		totCi:       blob.TotCi,
		broadcaster: LocalBroadcaster{},
	}
	e.df = math.Log(e.f) * 0.5 / cfg.Delta
	e.pfinFval = math.Exp(cfg.FinalF * 2 * cfg.Delta)
	e.finFval = math.Exp((cfg.FinalF / 10) * 2 * cfg.Delta)
	return e, nil
}

