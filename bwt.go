// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bwtmerge

import (
	"fmt"
	"hash/fnv"

	"github.com/Colelyman/bwt-merge/internal/rle"
	"github.com/Colelyman/bwt-merge/internal/succinct"
)

// SampleRate is the block granularity, in RLE bytes, at which rank/select
// support is sampled. Every query seeks to the nearest preceding block via
// the succinct indexes below, then linear-scans the run stream inside
// that block, so SampleRate trades index size against scan length.
const SampleRate = 1024

// RankedSymbol pairs a symbol with its rank (the count of that symbol
// strictly before some position) — the result of InverseSelect.
type RankedSymbol struct {
	Rank   uint64
	Symbol byte
}

// RankRange gives, for one symbol, the count of that symbol before the
// start and before one-past-the-end of some text range — the result of
// the range-batched Ranks query.
type RankRange struct {
	Start uint64
	End   uint64
}

// BWT is a single Burrows-Wheeler transform stored as a run-length
// encoded byte stream with succinct rank/select support sampled every
// SampleRate bytes of that stream. The whole run stream is held in memory;
// a query decodes runs from at most the one sample block it seeks to (a
// range query from the blocks its range spans). AppendRun only appends and
// never trims the stream.
type BWT struct {
	data  *rle.ByteBlocks
	codec *rle.RunCodec
	sigma int

	samples      []*succinct.CumulativeArray // one per symbol, over blocks
	boundaries   *succinct.BlockBoundaries   // text-position block ends
	blockOffsets []uint64                    // RLE byte offset at the start of each block

	sequences uint64
	bases     uint64
	order     AlphabeticOrder
}

// NewBWT returns an empty BWT over an alphabet of the given size, ready to
// receive runs via AppendRun and then Build.
func NewBWT(sigma int) *BWT {
	return &BWT{
		data:  rle.NewByteBlocks(),
		codec: rle.NewRunCodec(sigma),
		sigma: sigma,
	}
}

// Sigma returns the alphabet size this BWT was built over.
func (b *BWT) Sigma() int { return b.sigma }

// Sequences returns the number of sequences (reads) the BWT represents —
// the number of endmarker occurrences.
func (b *BWT) Sequences() uint64 { return b.sequences }

// SetSequences sets the sequence count recorded in the BWT's header.
func (b *BWT) SetSequences(n uint64) { b.sequences = n }

// Size returns n, the total length of the represented text (bases).
func (b *BWT) Size() uint64 { return b.bases }

// Order returns the alphabetic order this BWT's on-disk header claims.
func (b *BWT) Order() AlphabeticOrder { return b.order }

// SetOrder sets the alphabetic order recorded in the BWT's header.
func (b *BWT) SetOrder(order AlphabeticOrder) { b.order = order }

// Bytes returns the length of the underlying RLE byte stream.
func (b *BWT) Bytes() uint64 { return b.data.Len() }

// Data exposes the underlying run-length encoded byte stream, e.g. for a
// format writer or the merge pipeline's input side.
func (b *BWT) Data() *rle.ByteBlocks { return b.data }

// Codec exposes the run codec this BWT encodes/decodes with.
func (b *BWT) Codec() *rle.RunCodec { return b.codec }

// AppendRun appends one already-coalesced run to the RLE stream. Callers
// are responsible for coalescing adjacent same-symbol runs first (see
// RunBuffer); AppendRun does not check for this.
func (b *BWT) AppendRun(symbol byte, length uint64) {
	b.codec.Encode(b.data, symbol, length)
}

// Count returns the total number of occurrences of comp value c in the
// text, i.e. the BWT's own character count for c.
func (b *BWT) Count(c byte) uint64 {
	if int(c) >= b.sigma || b.samples == nil {
		return 0
	}
	return b.samples[c].Total()
}

func (b *BWT) blockStart(block int) (rlePos, seqPos uint64) {
	if block >= len(b.blockOffsets) {
		// Position Size() lies past the last block: the end of the stream.
		return b.data.Len(), b.bases
	}
	rlePos = b.blockOffsets[block]
	if block > 0 {
		seqPos = b.boundaries.Select(block) + 1
	}
	return
}

// Rank returns the number of occurrences of comp value c in data[0, i).
func (b *BWT) Rank(i uint64, c byte) uint64 {
	if int(c) >= b.sigma {
		return 0
	}
	if i > b.bases {
		i = b.bases
	}
	block := b.boundaries.Rank(i)
	res := b.samples[c].Sum(block)
	rlePos, seqPos := b.blockStart(block)

	for seqPos < i {
		symbol, length, err := b.codec.Decode(b.data, &rlePos)
		if err != nil {
			panic(err)
		}
		seqPos += length
		if symbol == c {
			res += length
			if seqPos > i {
				res -= seqPos - i
			}
		}
	}
	return res
}

// Ranks returns, for every comp value c in [1, Sigma), the number of
// occurrences of c in data[0, i). Index 0 (the endmarker) is not a rank:
// it holds at most a partial count from the scanned block, matching the
// FMI's convention of handling the endmarker separately from the rest of
// the alphabet.
func (b *BWT) Ranks(i uint64) []uint64 {
	if i > b.bases {
		i = b.bases
	}
	results := make([]uint64, b.sigma)
	block := b.boundaries.Rank(i)
	for c := 1; c < b.sigma; c++ {
		results[c] = b.samples[c].Sum(block)
	}
	rlePos, seqPos := b.blockStart(block)

	var prev byte
	for seqPos < i {
		symbol, length, err := b.codec.Decode(b.data, &rlePos)
		if err != nil {
			panic(err)
		}
		seqPos += length
		results[symbol] += length
		prev = symbol
	}
	results[prev] -= seqPos - i
	return results
}

// RankRanges returns, for every comp value c in [1, Sigma), the pair
// (rank before rng.Start, rank before rng.End+1) — the count of c both up
// to and through the half-open-adjusted range [rng.Start, rng.End]. The
// prefix count of the blocks before the range's first block is added only
// for symbols that occur in the range; for any other symbol Start equals
// End and neither includes that prefix.
func (b *BWT) RankRanges(rngStart, rngEnd uint64) []RankRange {
	if rngStart > b.bases-1 {
		rngStart = b.bases - 1
	}
	if rngEnd > b.bases-1 {
		rngEnd = b.bases - 1
	}
	results := make([]RankRange, b.sigma)

	block := b.boundaries.Rank(rngStart)
	rlePos, seqPos := b.blockStart(block)

	var run Run
	for seqPos < rngStart {
		symbol, length, err := b.codec.Decode(b.data, &rlePos)
		if err != nil {
			panic(err)
		}
		run = Run{Symbol: symbol, Length: length}
		seqPos += length
		results[symbol].Start += length
		results[symbol].End += length
	}
	results[run.Symbol].Start -= seqPos - rngStart

	for seqPos <= rngEnd {
		symbol, length, err := b.codec.Decode(b.data, &rlePos)
		if err != nil {
			panic(err)
		}
		run = Run{Symbol: symbol, Length: length}
		seqPos += length
		results[symbol].End += length
	}
	results[run.Symbol].End -= (seqPos - 1) - rngEnd

	for c := 1; c < b.sigma; c++ {
		if results[c].End > results[c].Start {
			base := b.samples[c].Sum(block)
			results[c].Start += base
			results[c].End += base
		}
	}
	return results
}

// Select returns the text position of the i-th (1-indexed) occurrence of
// comp value c, or Size() if there is no such occurrence.
func (b *BWT) Select(i uint64, c byte) uint64 {
	if int(c) >= b.sigma {
		return 0
	}
	if i == 0 {
		return 0
	}
	if i > b.Count(c) {
		return b.bases
	}

	block := b.samples[c].Inverse(i - 1)
	count := b.samples[c].Sum(block)
	rlePos, seqPos := b.blockStart(block)

	for {
		symbol, length, err := b.codec.Decode(b.data, &rlePos)
		if err != nil {
			panic(err)
		}
		seqPos += length - 1
		if symbol == c {
			count += length
			if count >= i {
				return seqPos + i - count
			}
		}
		seqPos++
	}
}

// At returns the comp value at text position i, the BWT's "operator[]".
func (b *BWT) At(i uint64) byte {
	if i >= b.bases {
		return 0
	}
	block := b.boundaries.Rank(i)
	rlePos, seqPos := b.blockStart(block)
	for {
		symbol, length, err := b.codec.Decode(b.data, &rlePos)
		if err != nil {
			panic(err)
		}
		seqPos += length
		if seqPos > i {
			return symbol
		}
	}
}

// InverseSelect returns, for text position i, the pair (rank of the
// symbol at i within data[0, i), symbol at i) in one combined scan —
// cheaper than calling Rank then At separately. Past the end of the text
// it returns the zero RankedSymbol{0, 0}.
func (b *BWT) InverseSelect(i uint64) RankedSymbol {
	if i >= b.bases {
		return RankedSymbol{}
	}
	block := b.boundaries.Rank(i)
	rlePos, seqPos := b.blockStart(block)

	ranks := make([]uint64, b.sigma)
	var run Run
	for seqPos <= i {
		symbol, length, err := b.codec.Decode(b.data, &rlePos)
		if err != nil {
			panic(err)
		}
		run = Run{Symbol: symbol, Length: length}
		seqPos += length
		ranks[symbol] += length
	}
	return RankedSymbol{
		Rank:   b.samples[run.Symbol].Sum(block) + ranks[run.Symbol] - (seqPos - i),
		Symbol: run.Symbol,
	}
}

// Build scans the already-written RLE stream once and constructs its
// block boundaries and per-symbol samples, after which Rank/Ranks/Select/
// At/InverseSelect become usable. counts holds the total occurrence count
// of each comp value across the whole stream, used only to set the
// header's base count. That count bounds every query (positions at or past
// it are treated as out of range), so counts must sum to the stream's
// real length.
//
// Unlike the fixed-width original this scans a variable-length run
// encoding, so a block boundary is taken at the end of the first run that
// brings the RLE cursor SampleRate or more bytes past the start of the
// current block — blocks are therefore approximately, not exactly,
// SampleRate bytes.
func (b *BWT) Build(counts []uint64) {
	b.bases = 0
	for _, c := range counts {
		b.bases += c
	}

	total := b.data.Len()
	var blockEnds []uint64
	var blockOffsets []uint64
	perBlockCounts := make([][]uint64, b.sigma)

	accum := make([]uint64, b.sigma)
	var rlePos, seqPos uint64
	nextBoundary := uint64(SampleRate)
	blockOffsets = append(blockOffsets, 0)

	for rlePos < total {
		symbol, length, err := b.codec.Decode(b.data, &rlePos)
		if err != nil {
			panic(err)
		}
		seqPos += length
		accum[symbol] += length

		if rlePos >= total || rlePos >= nextBoundary {
			blockEnds = append(blockEnds, seqPos-1)
			for c := 0; c < b.sigma; c++ {
				perBlockCounts[c] = append(perBlockCounts[c], accum[c])
				accum[c] = 0
			}
			nextBoundary = rlePos + SampleRate
			if rlePos < total {
				blockOffsets = append(blockOffsets, rlePos)
			}
		}
	}

	b.boundaries = succinct.NewBlockBoundaries(blockEnds)
	b.blockOffsets = blockOffsets
	b.samples = make([]*succinct.CumulativeArray, b.sigma)
	for c := 0; c < b.sigma; c++ {
		b.samples[c] = succinct.NewCumulativeArray(perBlockCounts[c])
	}
}

// Hash returns a stable FNV-1a content hash of the expanded symbol
// sequence, independent of how it happens to be chunked into runs — used
// to confirm that two differently-produced encodings of the same BWT
// agree.
func (b *BWT) Hash() uint64 {
	h := fnv.New64a()
	var rlePos uint64
	total := b.data.Len()
	buf := make([]byte, 4096)
	for rlePos < total {
		symbol, length, err := b.codec.Decode(b.data, &rlePos)
		if err != nil {
			panic(err)
		}
		for length > 0 {
			n := length
			if n > uint64(len(buf)) {
				n = uint64(len(buf))
			}
			for i := uint64(0); i < n; i++ {
				buf[i] = symbol
			}
			h.Write(buf[:n])
			length -= n
		}
	}
	return h.Sum64()
}

// String renders summary statistics for diagnostic output.
func (b *BWT) String() string {
	blocks := 0
	if b.boundaries != nil {
		blocks = b.boundaries.Blocks()
	}
	return fmt.Sprintf("BWT{sigma=%d, sequences=%d, bases=%d, bytes=%d, blocks=%d}",
		b.sigma, b.sequences, b.bases, b.data.Len(), blocks)
}
