/*
 * doc.go, part of stmd.
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

/*
Package stmd implements the Statistical Temperature Molecular Dynamics
(STMD) force-modifier: an energy-bin temperature table, a four-stage
learning-rate schedule, and the restart/diagnostic bookkeeping a host MD
integrator needs to drive it one step at a time.

The package does not integrate equations of motion, evaluate a
potential, or move atoms. Given a sampled potential energy U for the
current step, Engine.OnStep returns the scalar Gamma the host should
multiply every force component by, and updates the statistical
temperature ladder in the process.

Replica-exchange tempering across several Engines lives in the sibling
package restmd. Restart and diagnostic-stream I/O live in restart and
diag.
*/
package stmd
