// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bwtmerge

// Run is a maximal constant-symbol substring of a BWT: Symbol repeated
// Length times. Length is always >= 1 for a run that has actually been
// emitted; a zero Run is the "nothing here" value RunBuffer returns when
// no run is ready.
type Run struct {
	Symbol byte
	Length uint64
}

// RunBuffer coalesces adjacent equal-symbol runs as they are produced,
// which is what guarantees that no two logically adjacent runs in an
// emitted stream ever share a symbol. Every producer of a BWT run stream
// (format readers, the Merger's consumer loop) pushes its runs through one
// of these before writing anything out.
type RunBuffer struct {
	run      Run
	buffered bool
}

// Add folds in (symbol, length). If the newly added run is adjacent to,
// and shares a symbol with, the currently buffered run, it is merged in
// place and Add returns (Run{}, false). Otherwise the previously buffered
// run is returned ready for emission and (symbol, length) becomes the new
// buffered run.
func (rb *RunBuffer) Add(symbol byte, length uint64) (Run, bool) {
	if length == 0 {
		return Run{}, false
	}
	if !rb.buffered {
		rb.run = Run{Symbol: symbol, Length: length}
		rb.buffered = true
		return Run{}, false
	}
	if rb.run.Symbol == symbol {
		rb.run.Length += length
		return Run{}, false
	}
	out := rb.run
	rb.run = Run{Symbol: symbol, Length: length}
	return out, true
}

// AddRun is a convenience wrapper around Add for callers already holding a
// Run value.
func (rb *RunBuffer) AddRun(r Run) (Run, bool) {
	return rb.Add(r.Symbol, r.Length)
}

// Flush returns whatever run is currently buffered (if any), clearing the
// buffer. It must be called exactly once, after the last Add, to emit the
// final open run of a stream.
func (rb *RunBuffer) Flush() (Run, bool) {
	if !rb.buffered || rb.run.Length == 0 {
		return Run{}, false
	}
	out := rb.run
	rb.run = Run{}
	rb.buffered = false
	return out, true
}
