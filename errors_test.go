/*
 * errors_test.go, part of stmd.
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

import "testing"

func TestConcreteErrorsSatisfyFatalError(t *testing.T) {
	errs := []error{
		newConfigError("field", "bad"),
		newRestartError("/tmp/x", "bad"),
		newDomainError(1, 2, 3),
		newScheduleError(0.5),
		newHostContractError("bad integrator"),
	}
	for _, err := range errs {
		if _, ok := err.(FatalError); !ok {
			t.Errorf("%T does not satisfy FatalError", err)
		}
	}
}

func TestNewEngineRejectsNonVerletIntegrator(t *testing.T) {
	cfg := baseConfig()
	cfg.Integrator = "leapfrog"
	_, err := NewEngine(cfg, nil)
	if err == nil {
		t.Fatal("NewEngine accepted a non-verlet integrator")
	}
	hce, ok := err.(*HostContractError)
	if !ok {
		t.Fatalf("expected *HostContractError, got %T", err)
	}
	if _, ok := error(hce).(FatalError); !ok {
		t.Error("*HostContractError does not satisfy FatalError")
	}
}

func TestDefaultConfigIntegratorDefaultsToVerlet(t *testing.T) {
	cfg := baseConfig()
	if cfg.Integrator != "verlet" {
		t.Fatalf("Integrator = %q, want %q", cfg.Integrator, "verlet")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
