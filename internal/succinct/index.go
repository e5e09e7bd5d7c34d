// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package succinct implements the two sparse, rank/select-queryable
// indexes a BWT's block structure is built from: CumulativeArray (one per
// symbol, giving a prefix count of that symbol up to any block) and
// BlockBoundaries (the set of text positions where a block ends). Both are
// monotone integer sequences queried by sum/inverse or rank/select, which
// is why they share the same binary-search core rather than each
// reimplementing it — no succinct/sparse-bitvector library is available
// anywhere in the retrieved corpus (see DESIGN.md), so both are plain
// sorted-slice indexes offering the same sublinear-in-block-count query
// cost a real succinct rank/select structure would.
package succinct

import (
	"encoding/binary"
	"io"
	"sort"
)

// CumulativeArray represents a non-decreasing integer sequence C[0..k]
// with C[0] = 0 and total C[k] = T, as the position list pos[i] = C[i+1] +
// i for i in [0, k) — the same "k 1-bits at positions C[i]+i" sparse
// encoding the design calls for, stored directly as the sorted positions
// rather than as an actual bit vector.
type CumulativeArray struct {
	pos   []uint64
	total uint64
}

// NewCumulativeArray builds a CumulativeArray from the per-segment counts
// (e.g. the number of occurrences of one symbol within each block).
func NewCumulativeArray(counts []uint64) *CumulativeArray {
	pos := make([]uint64, len(counts))
	var cum uint64
	for i, c := range counts {
		cum += c
		pos[i] = cum + uint64(i)
	}
	return &CumulativeArray{pos: pos, total: cum}
}

// Sum returns C[i], the prefix total over the first i segments. Sum(0) is
// always 0; i is clamped to [0, Size()].
func (ca *CumulativeArray) Sum(i int) uint64 {
	if i <= 0 {
		return 0
	}
	if i > len(ca.pos) {
		i = len(ca.pos)
	}
	return ca.pos[i-1] - uint64(i-1)
}

// Inverse returns the unique i such that Sum(i) <= v < Sum(i+1).
func (ca *CumulativeArray) Inverse(v uint64) int {
	return sort.Search(len(ca.pos), func(i int) bool {
		return ca.pos[i] > v+uint64(i)
	})
}

// Total returns T, the total of all segment counts.
func (ca *CumulativeArray) Total() uint64 {
	return ca.total
}

// Size returns k, the number of segments.
func (ca *CumulativeArray) Size() int {
	return len(ca.pos)
}

// Serialize writes ca as a segment count followed by that many cumulative
// positions; total is not written separately since it is recoverable from
// the last position (pos[k-1] - (k-1)).
func (ca *CumulativeArray) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(ca.pos))); err != nil {
		return err
	}
	for _, p := range ca.pos {
		if err := binary.Write(w, binary.LittleEndian, p); err != nil {
			return err
		}
	}
	return nil
}

// LoadCumulativeArray reads a CumulativeArray previously written by
// Serialize.
func LoadCumulativeArray(r io.Reader) (*CumulativeArray, error) {
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	pos := make([]uint64, count)
	for i := range pos {
		if err := binary.Read(r, binary.LittleEndian, &pos[i]); err != nil {
			return nil, err
		}
	}
	var total uint64
	if count > 0 {
		total = pos[count-1] - (count - 1)
	}
	return &CumulativeArray{pos: pos, total: total}, nil
}

// BlockBoundaries records, for a BWT of length n, the set of text
// positions at which a block ends, supporting rank (which block contains
// a given position) and select (the end position of a given block).
type BlockBoundaries struct {
	ends []uint64
}

// NewBlockBoundaries builds a BlockBoundaries from the strictly increasing
// list of block-end positions.
func NewBlockBoundaries(ends []uint64) *BlockBoundaries {
	return &BlockBoundaries{ends: ends}
}

// Rank returns the number of block ends strictly before position i — i.e.
// the index of the block containing position i.
func (bb *BlockBoundaries) Rank(i uint64) int {
	return sort.Search(len(bb.ends), func(k int) bool {
		return bb.ends[k] >= i
	})
}

// Select returns the end position of the b-th block, b in [1, Blocks()].
func (bb *BlockBoundaries) Select(b int) uint64 {
	return bb.ends[b-1]
}

// Blocks returns the number of blocks recorded.
func (bb *BlockBoundaries) Blocks() int {
	return len(bb.ends)
}

// Ends exposes the raw end-position list, e.g. for serialization.
func (bb *BlockBoundaries) Ends() []uint64 {
	return bb.ends
}

// Serialize writes bb as a block count followed by that many end
// positions.
func (bb *BlockBoundaries) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(bb.ends))); err != nil {
		return err
	}
	for _, e := range bb.ends {
		if err := binary.Write(w, binary.LittleEndian, e); err != nil {
			return err
		}
	}
	return nil
}

// LoadBlockBoundaries reads a BlockBoundaries previously written by
// Serialize.
func LoadBlockBoundaries(r io.Reader) (*BlockBoundaries, error) {
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	ends := make([]uint64, count)
	for i := range ends {
		if err := binary.Read(r, binary.LittleEndian, &ends[i]); err != nil {
			return nil, err
		}
	}
	return &BlockBoundaries{ends: ends}, nil
}
