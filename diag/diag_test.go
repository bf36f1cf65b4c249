/*
 * diag_test.go, part of stmd.
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

package diag

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenCreatesAllThreeStreams(t *testing.T) {
	dir := t.TempDir()
	var screen bytes.Buffer
	s, err := Open(dir, 2, &screen)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	for _, name := range []string{"WT.2.d", "WH.2.d", "WHP.2.d", "STMD.2.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}

func TestWriteWTFormat(t *testing.T) {
	dir := t.TempDir()
	var screen bytes.Buffer
	s, err := Open(dir, 0, &screen)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	rows := []Row{
		{EnergyAtBin: 1.0, Yhat: 1.5, Hist: 3, Proh: 0},
		{EnergyAtBin: 2.0, Yhat: 1.6, Hist: 4, Proh: 0},
	}
	s.WriteWT(rows, 300.0, 1234)

	data, err := os.ReadFile(filepath.Join(dir, "WT.0.d"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected at least 2 data lines, got %d: %q", len(lines), string(data))
	}
	fields := strings.Fields(lines[0])
	if len(fields) != 5 {
		t.Fatalf("WT line has %d fields, want 5: %q", len(fields), lines[0])
	}
}

func TestLoggerDuplicatesToScreenAndFile(t *testing.T) {
	dir := t.TempDir()
	var screen bytes.Buffer
	s, err := Open(dir, 1, &screen)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	s.Logger.Print("hello from the engine")

	if !strings.Contains(screen.String(), "hello from the engine") {
		t.Error("message did not reach the screen writer")
	}
	logData, err := os.ReadFile(filepath.Join(dir, "STMD.1.log"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(logData), "hello from the engine") {
		t.Error("message did not reach the logfile")
	}
}
