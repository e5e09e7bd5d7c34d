// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bwtmerge

import (
	"encoding/binary"
	"io"
)

// RLArrayEntry is one (position, length) run of an RLArray: Length
// consecutive values starting at Position. When used as a merge
// interleaving directive, it reads as "once the primary input has been
// copied up to its position Position, splice in Length symbols from the
// secondary input".
type RLArrayEntry struct {
	Position uint64
	Length   uint64
}

// RLArray is an immutable, serializable sequence of RLArrayEntry with
// strictly increasing positions — the rank array a Merger consumes to
// interleave two BWTs. It is held wholly in memory: LoadRLArray reads every
// entry up front, and entries are not streamed from disk. Unlike RunCodec's packed byte encoding (suited to
// a handful of small-alphabet symbols), entries here hold full 64-bit
// positions and lengths, so they are kept and serialized as plain fixed-
// width records.
type RLArray struct {
	entries []RLArrayEntry
}

// NewRLArray wraps an already position-sorted entry slice. The caller
// owns the invariant that Position is strictly increasing across entries.
func NewRLArray(entries []RLArrayEntry) *RLArray {
	return &RLArray{entries: entries}
}

// Len returns the number of runs.
func (r *RLArray) Len() int { return len(r.entries) }

// At returns the i-th run.
func (r *RLArray) At(i int) RLArrayEntry { return r.entries[i] }

// RLArrayIterator walks an RLArray's entries in order.
type RLArrayIterator struct {
	array *RLArray
	pos   int
}

// Iterator returns a fresh iterator positioned before the first entry.
func (r *RLArray) Iterator() *RLArrayIterator {
	return &RLArrayIterator{array: r}
}

// Next returns the next entry and true, or a zero value and false once
// the array is exhausted.
func (it *RLArrayIterator) Next() (RLArrayEntry, bool) {
	if it.pos >= len(it.array.entries) {
		return RLArrayEntry{}, false
	}
	e := it.array.entries[it.pos]
	it.pos++
	return e, true
}

// MergeRLArrays returns the ordered union of a and b: entries from both,
// sorted by Position, with entries sharing the same Position coalesced by
// summing their Length — the same RunBuffer-style coalescing the BWT's
// own run stream uses, generalized from symbols to arbitrary position
// values.
func MergeRLArrays(a, b *RLArray) *RLArray {
	if a.Len() == 0 {
		return b
	}
	if b.Len() == 0 {
		return a
	}

	out := make([]RLArrayEntry, 0, a.Len()+b.Len())
	var buffered RLArrayEntry
	bufferedSet := false

	push := func(e RLArrayEntry) {
		if bufferedSet && buffered.Position == e.Position {
			buffered.Length += e.Length
			return
		}
		if bufferedSet {
			out = append(out, buffered)
		}
		buffered = e
		bufferedSet = true
	}

	ai, bi := 0, 0
	for ai < a.Len() || bi < b.Len() {
		var next RLArrayEntry
		switch {
		case bi >= b.Len():
			next = a.entries[ai]
			ai++
		case ai >= a.Len():
			next = b.entries[bi]
			bi++
		case a.entries[ai].Position <= b.entries[bi].Position:
			next = a.entries[ai]
			ai++
		default:
			next = b.entries[bi]
			bi++
		}
		push(next)
	}
	if bufferedSet {
		out = append(out, buffered)
	}
	return &RLArray{entries: out}
}

// Serialize writes r as a run count followed by that many (position,
// length) pairs.
func (r *RLArray) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(r.entries))); err != nil {
		return err
	}
	for _, e := range r.entries {
		if err := binary.Write(w, binary.LittleEndian, e); err != nil {
			return err
		}
	}
	return nil
}

// LoadRLArray reads an RLArray previously written by Serialize.
func LoadRLArray(r io.Reader) (*RLArray, error) {
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	entries := make([]RLArrayEntry, count)
	for i := range entries {
		if err := binary.Read(r, binary.LittleEndian, &entries[i]); err != nil {
			return nil, err
		}
	}
	return &RLArray{entries: entries}, nil
}
