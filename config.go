/*
 * config.go, part of stmd.
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
	"fmt"
	"strconv"
)

// Config is the set of construction-time options for an Engine, the
// Go-native equivalent of the "fix fxstmd all stmd ..." argument list the
// original LAMMPS fix parsed. Names match spec.md's configuration table.
type Config struct {
	RSTFRQ int
	FStyle FStyle

	InitF  float64 // init_f: initial value of 2*Delta*ln(f), must be <= 1
	FinalF float64 // final_f (dFval3), must be >= 1e-5

	TLo, THi float64 // unscaled ladder endpoints
	EMin     float64
	EMax     float64
	Delta    float64

	TSC1 int
	TSC2 int

	ST float64 // reference kinetic temperature T0

	Restart bool
	OutDir  string

	// CutTmin/CutTmax/HCKtol were hardcoded constants (50 K, 50 K, 0.2)
	// in the original source; the design notes call for making them
	// explicit configuration. Zero values fall back to those defaults
	// in Validate.
	CutTmin float64
	CutTmax float64
	HCKtol  float64

	// Integrator names the host's integration scheme. The ETT update
	// rule assumes velocity Verlet, the same assumption FixStmd::setup
	// enforces; an empty value defaults to "verlet" in Validate.
	Integrator string
}

// DefaultConfig returns a Config with the original source's hardcoded
// constants as defaults and an empty f-reduction/window, which the
// caller must still fill in.
func DefaultConfig() Config {
	return Config{
		OutDir:     "./",
		CutTmin:    50.0,
		CutTmax:    50.0,
		HCKtol:     0.2,
		Integrator: "verlet",
	}
}

// Validate checks the config, filling in zero-valued optional fields
// with their documented defaults, and returns a *ConfigError naming the
// offending field on failure.
func (c *Config) Validate() error {
	if c.RSTFRQ <= 0 {
		return newConfigError("RSTFRQ", "must be positive")
	}
	if c.InitF > 1.0 {
		return newConfigError("init_f", "initial deltaF value too large")
	}
	if c.FinalF < 1e-5 {
		return newConfigError("final_f", "final deltaF value too small")
	}
	if c.Delta <= 0 {
		return newConfigError("bin", "must be positive")
	}
	if c.EMax < c.EMin {
		return newConfigError("E_max", "must be >= E_min")
	}
	if c.TSC1 <= 0 {
		return newConfigError("TSC1", "must be positive")
	}
	if c.TSC2 <= 0 {
		return newConfigError("TSC2", "must be positive")
	}
	if c.ST <= 0 {
		return newConfigError("ST", "reference kinetic temperature must be positive")
	}
	if c.THi < c.TLo {
		return newConfigError("T_hi", "must be >= T_lo")
	}
	if c.OutDir == "" {
		c.OutDir = "./"
	}
	if c.CutTmin == 0 {
		c.CutTmin = 50.0
	}
	if c.CutTmax == 0 {
		c.CutTmax = 50.0
	}
	if c.HCKtol == 0 {
		c.HCKtol = 0.2
	}
	if c.Integrator == "" {
		c.Integrator = "verlet"
	}
	if c.Integrator != "verlet" {
		return newHostContractError(fmt.Sprintf("unsupported integrator %q, expected verlet", c.Integrator))
	}
	return nil
}

// QualifyingRange derives the (CTmin, CTmax) bounds Hchk uses to decide
// which bins count toward the flatness check: the configured Kelvin
// margins CutTmin/CutTmax are applied to the ladder endpoints and then
// expressed in T0-scaled units, exactly as CTmin = (T_lo + CutTmin)/ST
// and CTmax = (T_hi - CutTmax)/ST in the original source.
func (c Config) QualifyingRange() (ctMin, ctMax float64) {
	return (c.TLo + c.CutTmin) / c.ST, (c.THi - c.CutTmax) / c.ST
}

// ParseArgs parses the trailing argument list of the original fix_stmd
// invocation:
//
//	RSTFRQ f_style init_f final_f Tlo Thi Elo Ehi binsize TSC1 TSC2 ST restart [out_dir]
//
// so an existing LAMMPS-style input deck line can be fed straight into
// this package, the way the spec's External Interfaces section requires
// argument parsing to be available "beyond what is needed to specify
// inputs".
func ParseArgs(args []string) (Config, error) {
	cfg := DefaultConfig()
	if len(args) < 13 || len(args) > 14 {
		return cfg, newConfigError("args", "expected 13 or 14 arguments")
	}

	var err error
	if cfg.RSTFRQ, err = strconv.Atoi(args[0]); err != nil {
		return cfg, newConfigError("RSTFRQ", err.Error())
	}
	if cfg.FStyle, err = ParseFStyle(args[1]); err != nil {
		return cfg, err
	}
	if cfg.InitF, err = strconv.ParseFloat(args[2], 64); err != nil {
		return cfg, newConfigError("init_f", err.Error())
	}
	if cfg.FinalF, err = strconv.ParseFloat(args[3], 64); err != nil {
		return cfg, newConfigError("final_f", err.Error())
	}
	if cfg.TLo, err = strconv.ParseFloat(args[4], 64); err != nil {
		return cfg, newConfigError("T_lo", err.Error())
	}
	if cfg.THi, err = strconv.ParseFloat(args[5], 64); err != nil {
		return cfg, newConfigError("T_hi", err.Error())
	}
	if cfg.EMin, err = strconv.ParseFloat(args[6], 64); err != nil {
		return cfg, newConfigError("E_min", err.Error())
	}
	if cfg.EMax, err = strconv.ParseFloat(args[7], 64); err != nil {
		return cfg, newConfigError("E_max", err.Error())
	}
	if cfg.Delta, err = strconv.ParseFloat(args[8], 64); err != nil {
		return cfg, newConfigError("bin", err.Error())
	}
	if cfg.TSC1, err = strconv.Atoi(args[9]); err != nil {
		return cfg, newConfigError("TSC1", err.Error())
	}
	if cfg.TSC2, err = strconv.Atoi(args[10]); err != nil {
		return cfg, newConfigError("TSC2", err.Error())
	}
	if cfg.ST, err = strconv.ParseFloat(args[11], 64); err != nil {
		return cfg, newConfigError("ST", err.Error())
	}
	switch args[12] {
	case "yes":
		cfg.Restart = true
	case "no":
		cfg.Restart = false
	default:
		return cfg, newConfigError("restart", "invalid restart option, expected yes|no")
	}
	if len(args) == 14 {
		cfg.OutDir = args[13]
	}
	return cfg, nil
}
