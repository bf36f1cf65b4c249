/*
 * coordinator.go, part of stmd.
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

// Package restmd implements the replica-exchange coordinator (RXC): every
// nevery MD steps it pairs neighboring STMD walkers, evaluates a
// stage-gated Metropolis acceptance rule over their gathered summaries,
// and tells a HostSwapper to migrate configurations between accepted
// pairs. The STMD state (ETT, f, STG, counters) stays bound to the
// walker slot; only host configurations move, per the walker-vs-replica
// distinction in the data model.
package restmd

import (
	"fmt"
	"math"
	"sync"

	"github.com/rmera/stmd"
)

// WalkerSummary is the per-walker tuple gathered at every exchange
// collective: (T_me, U_me, STG_me, Emin_me, Emax_me).
type WalkerSummary struct {
	Index      int
	T          float64
	U          float64
	Stage      stmd.Stage
	EMin, EMax float64
}

// RootsComm is the roots-only allgather + per-pair broadcast collective
// of spec.md §4.3/§5. A real deployment backs this with MPI; this module
// only ships an in-process reference implementation.
type RootsComm interface {
	// AllGather blocks until all W walker roots have submitted their
	// local summary for this attempt, then returns the full roster
	// indexed by WalkerSummary.Index.
	AllGather(local WalkerSummary) ([]WalkerSummary, error)
	// BroadcastDecision records the accept/reject outcome for pair
	// (a, b) so both partners (and test harnesses) can observe it.
	BroadcastDecision(a, b int, accept bool) error
}

// LocalRootsComm is an in-process RootsComm for exactly w walker roots,
// implemented as a generation-counted rendezvous barrier over a
// mutex-guarded roster -- sufficient to exercise and test the exchange
// protocol deterministically without MPI.
type LocalRootsComm struct {
	w int

	mu        sync.Mutex
	cond      *sync.Cond
	gen       int
	arrived   int
	summaries []WalkerSummary

	decisions map[[2]int]bool
}

// NewLocalRootsComm allocates a LocalRootsComm for w walkers.
func NewLocalRootsComm(w int) *LocalRootsComm {
	c := &LocalRootsComm{
		w:         w,
		summaries: make([]WalkerSummary, w),
		decisions: make(map[[2]int]bool),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// AllGather implements RootsComm. Every one of the w walkers must call it
// once per attempt for any of them to proceed; a caller that never shows
// up deadlocks the rest, exactly like a real MPI allgather would.
func (c *LocalRootsComm) AllGather(local WalkerSummary) ([]WalkerSummary, error) {
	if local.Index < 0 || local.Index >= c.w {
		return nil, fmt.Errorf("restmd: walker index %d out of range [0,%d)", local.Index, c.w)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	myGen := c.gen
	c.summaries[local.Index] = local
	c.arrived++
	if c.arrived == c.w {
		c.arrived = 0
		c.gen++
		c.cond.Broadcast()
	} else {
		for c.gen == myGen {
			c.cond.Wait()
		}
	}
	out := make([]WalkerSummary, c.w)
	copy(out, c.summaries)
	return out, nil
}

// BroadcastDecision implements RootsComm.
func (c *LocalRootsComm) BroadcastDecision(a, b int, accept bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decisions[[2]int{a, b}] = accept
	return nil
}

// Decision returns a previously broadcast decision for pair (a, b), for
// test assertions.
func (c *LocalRootsComm) Decision(a, b int) (accept, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	accept, ok = c.decisions[[2]int{a, b}]
	return
}

// HostSwapper performs the host-side half of an accepted exchange: the
// configuration migration and velocity rescale of spec.md §4.3 steps 5-6.
// STMD state (ETT, f, STG, histograms, counters) is never touched here --
// it stays with the walker index, which is exactly why this interface
// only talks about configurations and velocities.
type HostSwapper interface {
	SwapConfigurations(a, b int) error
	RescaleVelocities(walker int, tOld, tNew float64) error
}

// ExchangeResult reports what happened to one walker's Attempt call.
type ExchangeResult struct {
	Participated bool
	Pair         [2]int
	Accepted     bool
}

// Coordinator drives the replica-exchange protocol for one walker's root
// rank. Every partition root constructs its own Coordinator sharing the
// same RootsComm and HostSwapper, the way every MPI rank in the source
// runs the same temper_stmd code.
type Coordinator struct {
	comm RootsComm
	swap HostSwapper

	nevery    int
	stageGate stmd.Stage
	swapSeed  int64
	boltzSeed int64
	kB        float64
}

// NewCoordinator builds a Coordinator for a w-walker partition. kB
// defaults to 1 (reduced units, matching the host's own energy units) if
// passed as zero.
func NewCoordinator(comm RootsComm, swap HostSwapper, nevery int, stageGate stmd.Stage, swapSeed, boltzSeed int64, kB float64) *Coordinator {
	if kB == 0 {
		kB = 1.0
	}
	return &Coordinator{
		comm:      comm,
		swap:      swap,
		nevery:    nevery,
		stageGate: stageGate,
		swapSeed:  swapSeed,
		boltzSeed: boltzSeed,
		kB:        kB,
	}
}

// Due reports whether step is an exchange-attempt step.
func (c *Coordinator) Due(step int) bool {
	return step > 0 && step%c.nevery == 0
}

// Attempt runs one exchange collective for the walker described by
// local. It blocks in comm.AllGather until every walker's root has
// called Attempt for this step, so it must be called by all w walkers
// each time Due(step) is true, matching the global-barrier semantics of
// §5.
func (c *Coordinator) Attempt(step int, local WalkerSummary) (*ExchangeResult, error) {
	roster, err := c.comm.AllGather(local)
	if err != nil {
		return nil, err
	}

	attemptIdx := step / c.nevery
	pairs := pairsForAttempt(attemptIdx, len(roster), c.swapSeed)

	var mine [2]int
	participates := false
	for _, p := range pairs {
		if p[0] == local.Index || p[1] == local.Index {
			mine = p
			participates = true
			break
		}
	}
	if !participates {
		return &ExchangeResult{Participated: false}, nil
	}

	a, b := mine[0], mine[1]
	accept := c.decide(attemptIdx, a, b, roster)
	if err := c.comm.BroadcastDecision(a, b, accept); err != nil {
		return nil, err
	}

	if accept && local.Index == a {
		if err := c.swap.SwapConfigurations(a, b); err != nil {
			return nil, err
		}
		if err := c.swap.RescaleVelocities(a, roster[a].T, roster[b].T); err != nil {
			return nil, err
		}
		if err := c.swap.RescaleVelocities(b, roster[b].T, roster[a].T); err != nil {
			return nil, err
		}
	}

	return &ExchangeResult{Participated: true, Pair: mine, Accepted: accept}, nil
}

// decide evaluates the acceptance rule of spec.md §4.3 step 4 for pair
// (a, b) given the full gathered roster.
func (c *Coordinator) decide(attemptIdx, a, b int, roster []WalkerSummary) bool {
	wa, wb := roster[a], roster[b]

	if wa.U < wb.EMin || wa.U > wb.EMax {
		return false
	}
	if wb.U < wa.EMin || wb.U > wa.EMax {
		return false
	}
	if wa.Stage < c.stageGate || wb.Stage < c.stageGate {
		return false
	}

	delta := (1/wa.T - 1/wb.T) * (wa.U - wb.U) / c.kB
	if delta >= 0 {
		return true
	}
	draw := uniformDraw(seedFor(c.boltzSeed, attemptIdx, a, b))
	return draw < math.Exp(delta)
}

// pairsForAttempt partitions [0, w) into adjacent pairs. Parity
// alternates even/odd-start by attempt index unless swapSeed is
// nonzero, in which case it is drawn from a reproducible source keyed by
// the attempt index.
func pairsForAttempt(attemptIdx, w int, swapSeed int64) [][2]int {
	oddStart := attemptIdx%2 == 1
	if swapSeed != 0 {
		oddStart = uniformDraw(seedFor(swapSeed, attemptIdx)) < 0.5
	}
	start := 0
	if oddStart {
		start = 1
	}
	var pairs [][2]int
	for x := start; x+1 < w; x += 2 {
		pairs = append(pairs, [2]int{x, x + 1})
	}
	return pairs
}
