/*
 * stage.go, part of stmd.
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

import "fmt"

// Stage is one of the four states of the STMD schedule. Stage only ever
// increases over the life of an Engine.
type Stage int

const (
	StageDig        Stage = 1
	StageLearn      Stage = 2
	StageConverge   Stage = 3
	StageProduction Stage = 4
)

func (s Stage) String() string {
	switch s {
	case StageDig:
		return "dig"
	case StageLearn:
		return "learn"
	case StageConverge:
		return "converge"
	case StageProduction:
		return "production"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// FStyle selects the stage-2/3 learning-rate reduction scheme.
type FStyle int

const (
	FNone FStyle = iota
	FHChk
	FSqrt
	FConstantF
	FConstantDF
)

func (f FStyle) String() string {
	switch f {
	case FNone:
		return "none"
	case FHChk:
		return "hchk"
	case FSqrt:
		return "sqrt"
	case FConstantF:
		return "constant_f"
	case FConstantDF:
		return "constant_df"
	default:
		return fmt.Sprintf("fstyle(%d)", int(f))
	}
}

// ParseFStyle parses the original fix_stmd spellings of the f-reduction
// scheme, so existing input decks keep working.
func ParseFStyle(s string) (FStyle, error) {
	switch s {
	case "none":
		return FNone, nil
	case "hchk":
		return FHChk, nil
	case "sqrt":
		return FSqrt, nil
	case "constant_f":
		return FConstantF, nil
	case "constant_df":
		return FConstantDF, nil
	default:
		return 0, newConfigError("f_style", fmt.Sprintf("invalid f-reduction scheme %q", s))
	}
}

// stageReduceGuard reports whether the stage-3/4 f-reduction schemes are
// still allowed to reduce f at the given stage. Stage 4 (production)
// freezes f even if an hchk flatness check would otherwise trigger a
// reduction -- see the Open Question in the design notes.
func stageReduceGuard(stg Stage) bool {
	return stg == StageConverge
}
