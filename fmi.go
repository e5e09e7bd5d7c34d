// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bwtmerge

import "runtime"

// ShortRange is the SA-range width below which LFRange computes its answer
// with a single linear scan of the BWT (BWT.RankRanges) instead of two
// independent rank seeks, since for a narrow range the two seeks usually
// land in the same or adjacent blocks anyway.
const ShortRange = 256

// Range is a half-open-free, inclusive [Start, End] interval over SA
// positions. A Range with Start > End is the canonical empty range,
// returned whenever a backward search step finds no matches.
type Range struct {
	Start uint64
	End   uint64
}

// Empty reports whether r contains no positions.
func (r Range) Empty() bool { return r.Start > r.End }

// emptyRange is the canonical empty Range value.
var emptyRange = Range{Start: 1, End: 0}

// LFStep is the result of stepping LF at a single position: the row LF
// maps to, and the symbol that was read to get there.
type LFStep struct {
	Pos    uint64
	Symbol byte
}

// FMI is an FM-index: a BWT paired with the Alphabet it was built over,
// supporting LF-mapping and backward search.
type FMI struct {
	BWT   *BWT
	Alpha *Alphabet
}

// NewFMI pairs a built BWT with its Alphabet.
func NewFMI(bwt *BWT, alpha *Alphabet) *FMI {
	return &FMI{BWT: bwt, Alpha: alpha}
}

// Size returns the length of the indexed text.
func (f *FMI) Size() uint64 { return f.BWT.Size() }

// Sequences returns the number of sequences (reads) indexed.
func (f *FMI) Sequences() uint64 { return f.BWT.Sequences() }

// CharRange returns the SA range [C[comp], C[comp+1]) of rows whose first
// character is comp, as an inclusive Range.
func (f *FMI) CharRange(comp byte) Range {
	lo, hi := f.Alpha.CharRange(comp)
	if hi <= lo {
		return emptyRange
	}
	return Range{Start: lo, End: hi - 1}
}

// LFStep returns (LF(i), BWT[i]): the predecessor row of i and the symbol
// read to get there.
func (f *FMI) LFStep(i uint64) LFStep {
	symbol := f.BWT.At(i)
	return LFStep{Pos: f.LF(i, symbol), Symbol: symbol}
}

// LF returns LF(i) for a known symbol comp = BWT[i] (or any comp, for
// backward search): C[comp] + rank(i, comp).
func (f *FMI) LF(i uint64, comp byte) uint64 {
	return f.Alpha.C(int(comp)) + f.BWT.Rank(i, comp)
}

// LFAll returns LF(i, comp) for every comp in [1, Sigma).
func (f *FMI) LFAll(i uint64) []uint64 {
	results := f.BWT.Ranks(i)
	for c := 1; c < f.Alpha.Sigma(); c++ {
		results[c] += f.Alpha.C(c)
	}
	return results
}

// LFRange extends the SA range r backward by comp: the one-character
// backward-search step used by Find.
func (f *FMI) LFRange(r Range, comp byte) Range {
	if r.Empty() {
		return emptyRange
	}
	width := r.End - r.Start + 1

	var sp, ep uint64
	if comp != 0 && width <= ShortRange {
		ranges := f.BWT.RankRanges(r.Start, r.End)
		sp = f.Alpha.C(int(comp)) + ranges[comp].Start
		ep = f.Alpha.C(int(comp)) + ranges[comp].End - 1
	} else {
		sp = f.LF(r.Start, comp)
		ep = f.LF(r.End+1, comp) - 1
	}
	if ep < sp {
		return emptyRange
	}
	return Range{Start: sp, End: ep}
}

// LFRangeAll returns (sp, ep) such that for every comp in [1, Sigma),
// [sp[comp], ep[comp]] is the backward-extended range by comp.
func (f *FMI) LFRangeAll(r Range) (sp, ep []uint64) {
	sp = f.BWT.Ranks(r.Start)
	ep = f.BWT.Ranks(r.End + 1)
	for c := 1; c < f.Alpha.Sigma(); c++ {
		sp[c] += f.Alpha.C(c)
		ep[c] += f.Alpha.C(c) - 1
	}
	return sp, ep
}

// Find performs standard FM-index backward search for pattern, returning
// the SA range of rows prefixed by it (the empty Range if no match).
func (f *FMI) Find(pattern []byte) Range {
	if len(pattern) == 0 {
		return Range{Start: 0, End: f.Size() - 1}
	}

	end := len(pattern) - 1
	r := f.CharRange(f.Alpha.Comp(pattern[end]))
	for !r.Empty() && end > 0 {
		end--
		r = f.LFRange(r, f.Alpha.Comp(pattern[end]))
	}
	return r
}

//------------------------------------------------------------------------------

// Default merge parameter constants, matching the original implementation's
// MergeParameters defaults exactly (in runs/bytes rather than megabytes).
const (
	DefaultRunBufferSize    = 8 * (1 << 20)   // Runs.
	DefaultThreadBufferSize = 256 * (1 << 20) // Bytes.
	DefaultMergeBuffers     = 6
	DefaultBlocksPerThread  = 4
)

// MergeParameters configures a Merger: buffer sizes and parallelism for
// merging two BWTs through an external rank array.
type MergeParameters struct {
	RunBufferSize    uint64 // Size, in runs, of the producer/consumer handoff buffer.
	ThreadBufferSize uint64 // Size, in bytes, of per-thread streaming buffers.
	MergeBuffers     int    // Number of temporary RLArray buffers used while sorting the rank array.
	Threads          int    // Worker parallelism for the rank-array construction phase.
	SequenceBlocks   int    // Number of blocks each thread processes sequences in.
	TempDir          string // Directory for temporary merge files.
}

// NewMergeParameters returns the default MergeParameters, with Threads set
// to the number of available CPUs.
func NewMergeParameters() MergeParameters {
	return MergeParameters{
		RunBufferSize:    DefaultRunBufferSize,
		ThreadBufferSize: DefaultThreadBufferSize,
		MergeBuffers:     DefaultMergeBuffers,
		Threads:          runtime.GOMAXPROCS(0),
		SequenceBlocks:   DefaultBlocksPerThread,
		TempDir:          ".",
	}
}
