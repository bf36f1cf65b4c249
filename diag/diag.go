/*
 * diag.go, part of stmd.
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

// Package diag writes the three append-only per-walker diagnostic
// streams (WT, WH, WHP) and duplicates fatal/debug messages to a screen
// writer and a logfile writer at once, the way fix_stmd.cpp's
// stmd_logfile duplication does. Writes are best-effort: a flush failure
// is logged, never returned as an error to the Engine.
package diag

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Row mirrors stmd.Row without importing the stmd package, to keep diag
// free of a dependency on the engine it serves.
type Row struct {
	EnergyAtBin float64
	Yhat        float64
	Hist        int64
	Proh        int64
}

// Writer is a single append-only diagnostic stream.
type Writer struct {
	f   *os.File
	buf *bufio.Writer
	log *log.Logger
}

func newWriter(path string, logger *log.Logger) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Writer{f: f, buf: bufio.NewWriter(f), log: logger}, nil
}

// Flush is best-effort: a failure is logged and swallowed, matching
// spec.md §7's "failure to flush is not fatal".
func (w *Writer) Flush() {
	if err := w.buf.Flush(); err != nil && w.log != nil {
		w.log.Printf("diag: flush failed for %s: %v", w.f.Name(), err)
	}
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.Flush()
	return w.f.Close()
}

// Streams owns the WT/WH/WHP writers for one walker, plus the
// screen+logfile duplicated logger used for diagnostic messages.
type Streams struct {
	WT, WH, WHP *Writer
	Logger      *log.Logger
}

// Open creates (or appends to) WT.<walker>.d, WH.<walker>.d and
// WHP.<walker>.d under outDir, and builds a logger that duplicates every
// message to screen and to a STMD.<walker>.log logfile, mirroring the
// original's fprintf(screen,...); fprintf(logfile,...) pairs.
func Open(outDir string, walker int, screen io.Writer) (*Streams, error) {
	logPath := filepath.Join(outDir, fmt.Sprintf("STMD.%d.log", walker))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	logger := log.New(io.MultiWriter(screen, logFile), fmt.Sprintf("[stmd walker=%d] ", walker), log.LstdFlags)

	wt, err := newWriter(filepath.Join(outDir, fmt.Sprintf("WT.%d.d", walker)), logger)
	if err != nil {
		return nil, err
	}
	wh, err := newWriter(filepath.Join(outDir, fmt.Sprintf("WH.%d.d", walker)), logger)
	if err != nil {
		return nil, err
	}
	whp, err := newWriter(filepath.Join(outDir, fmt.Sprintf("WHP.%d.d", walker)), logger)
	if err != nil {
		return nil, err
	}
	return &Streams{WT: wt, WH: wh, WHP: whp, Logger: logger}, nil
}

// WriteWT appends one emission of the WT stream: "i E Yhat*ST Yhat totCi"
// per bin, then a blank line pair.
func (s *Streams) WriteWT(rows []Row, st float64, totCi int) {
	for i, r := range rows {
		fmt.Fprintf(s.WT.buf, "%d %f %f %f %d\n", i, r.EnergyAtBin, r.Yhat*st, r.Yhat, totCi)
	}
	fmt.Fprint(s.WT.buf, "\n\n")
	s.WT.Flush()
}

// WriteWH appends one emission of the WH stream: "i E Hist Htot Yhat
// CountH totCi f" per bin, then a blank line pair. Htot is not part of
// Row in this package (PROH/Hist are); callers pass it alongside.
func (s *Streams) WriteWH(rows []Row, htot []int64, countH, totCi int, f float64) {
	for i, r := range rows {
		fmt.Fprintf(s.WH.buf, "%d %f %d %d %f %d %d %f\n", i, r.EnergyAtBin, r.Hist, htot[i], r.Yhat, countH, totCi, f)
	}
	fmt.Fprint(s.WH.buf, "\n\n")
	s.WH.Flush()
}

// WriteWHP appends one emission of the WHP stream (stages >= 3 only):
// "i E Hist PROH Htot Yhat CountH CountPH f" per bin, then a blank line
// pair.
func (s *Streams) WriteWHP(rows []Row, htot []int64, countH, countPH int, f float64) {
	for i, r := range rows {
		fmt.Fprintf(s.WHP.buf, "%d %f %d %d %d %f %d %d %f\n", i, r.EnergyAtBin, r.Hist, r.Proh, htot[i], r.Yhat, countH, countPH, f)
	}
	fmt.Fprint(s.WHP.buf, "\n\n")
	s.WHP.Flush()
}

// Close closes all three streams.
func (s *Streams) Close() error {
	var first error
	for _, w := range []*Writer{s.WT, s.WH, s.WHP} {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
