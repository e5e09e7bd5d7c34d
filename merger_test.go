// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bwtmerge_test

import (
	"testing"

	"github.com/Colelyman/bwt-merge"
)

func TestRABufferPutTake(t *testing.T) {
	buf := bwtmerge.NewRABuffer()
	go buf.Put([]bwtmerge.RLArrayEntry{{Position: 1, Length: 2}}, true)

	runs, last := buf.Take()
	if !last {
		t.Fatalf("Take() last = false, want true")
	}
	if len(runs) != 1 || runs[0] != (bwtmerge.RLArrayEntry{Position: 1, Length: 2}) {
		t.Fatalf("Take() runs = %+v, want one entry {1,2}", runs)
	}
}

// mergeFixture builds two small BWTs ("AAAACCCC" and "GGTT", as compact
// symbols over the default alphabet) plus a rank array directing the
// merge to splice B's "GG" after A's "AAAA" and B's "TT" after A's
// "CCCC" — producing "AAAAGGCCCCTT".
func mergeFixture(t *testing.T) (a, b *bwtmerge.BWT, ra *bwtmerge.RLArray, alpha *bwtmerge.Alphabet) {
	t.Helper()
	alpha = bwtmerge.NewDefaultAlphabet()
	a = buildBWT(t, alpha.Sigma(), []byte{1, 1, 1, 1, 2, 2, 2, 2}) // A A A A C C C C
	b = buildBWT(t, alpha.Sigma(), []byte{3, 3, 4, 4})             // G G T T
	ra = bwtmerge.NewRLArray([]bwtmerge.RLArrayEntry{
		{Position: 4, Length: 2},
		{Position: 8, Length: 2},
	})
	return a, b, ra, alpha
}

func TestMergeBWTsInterleavesAccordingToRankArray(t *testing.T) {
	a, b, ra, alpha := mergeFixture(t)
	aSeqs, bSeqs := a.Sequences(), b.Sequences()

	params := bwtmerge.MergeParameters{RunBufferSize: 2}
	result := bwtmerge.MergeBWTs(a, b, alpha, ra, params, nil)

	want := []byte{1, 1, 1, 1, 3, 3, 2, 2, 2, 2, 4, 4} // A A A A G G C C C C T T
	if got := result.Size(); got != uint64(len(want)) {
		t.Fatalf("Size() = %d, want %d", got, len(want))
	}
	for i, w := range want {
		if got := result.At(uint64(i)); got != w {
			t.Fatalf("At(%d) = %d, want %d", i, got, w)
		}
	}

	wantCounts := map[byte]uint64{1: 4, 2: 4, 3: 2, 4: 2}
	for c, want := range wantCounts {
		if got := result.Count(c); got != want {
			t.Fatalf("Count(%d) = %d, want %d", c, got, want)
		}
	}

	if got, want := result.Sequences(), aSeqs+bSeqs; got != want {
		t.Fatalf("Sequences() = %d, want %d", got, want)
	}
	if got, want := result.Order(), a.Order(); got != want {
		t.Fatalf("Order() = %v, want %v", got, want)
	}
}

// TestMergeBWTsCoalescesDuplicateRankArrayPositions checks that two RA
// entries sharing a Position (which a rank-array producer might emit
// adjacently rather than pre-coalesced) are folded into one directive
// before the consumer sees them, rather than producing two empty-A splices
// of B in the wrong order.
func TestMergeBWTsCoalescesDuplicateRankArrayPositions(t *testing.T) {
	alpha := bwtmerge.NewDefaultAlphabet()
	a := buildBWT(t, alpha.Sigma(), []byte{1, 1}) // A A
	b := buildBWT(t, alpha.Sigma(), []byte{3, 3, 4}) // G G T

	ra := bwtmerge.NewRLArray([]bwtmerge.RLArrayEntry{
		{Position: 2, Length: 2},
		{Position: 2, Length: 1}, // shares Position 2 with the entry above
	})

	result := bwtmerge.MergeBWTs(a, b, alpha, ra, bwtmerge.MergeParameters{RunBufferSize: 4}, nil)

	want := []byte{1, 1, 3, 3, 4} // A A G G T
	if got := result.Size(); got != uint64(len(want)) {
		t.Fatalf("Size() = %d, want %d", got, len(want))
	}
	for i, w := range want {
		if got := result.At(uint64(i)); got != w {
			t.Fatalf("At(%d) = %d, want %d", i, got, w)
		}
	}
}

// TestMergeBWTsReportsProgress checks that a non-nil progress channel
// receives one update per batch drained from the RABuffer, ending with
// the last batch's totals.
func TestMergeBWTsReportsProgress(t *testing.T) {
	a, b, ra, alpha := mergeFixture(t)

	progress := make(chan bwtmerge.Progress, 8)
	result := bwtmerge.MergeBWTs(a, b, alpha, ra, bwtmerge.MergeParameters{RunBufferSize: 1}, progress)
	close(progress)

	var last bwtmerge.Progress
	count := 0
	prevRLEBytes := uint64(0)
	for p := range progress {
		count++
		if p.RLEBytes < prevRLEBytes {
			t.Fatalf("Progress.RLEBytes went backwards: %d then %d", prevRLEBytes, p.RLEBytes)
		}
		prevRLEBytes = p.RLEBytes
		last = p
	}
	if count == 0 {
		t.Fatalf("no Progress values were sent")
	}
	if last.Batch != count {
		t.Fatalf("final Progress.Batch = %d, want %d (one update per batch)", last.Batch, count)
	}
	if last.Positions != a.Size() {
		t.Fatalf("final Progress.Positions = %d, want %d (all of A consumed)", last.Positions, a.Size())
	}
	// The trailing buffered run is only flushed into the result after the
	// final batch's progress update is sent, so the last reported RLEBytes
	// can legitimately lag result.Bytes() by one run's worth of encoding.
	if last.RLEBytes > result.Bytes() {
		t.Fatalf("final Progress.RLEBytes = %d, exceeds result.Bytes() = %d", last.RLEBytes, result.Bytes())
	}
}

// TestMergeBWTsWithEmptySecondInput checks the degenerate case where B
// contributes nothing: the rank array is empty and the whole output is A.
func TestMergeBWTsWithEmptySecondInput(t *testing.T) {
	alpha := bwtmerge.NewDefaultAlphabet()
	a := buildBWT(t, alpha.Sigma(), []byte{1, 2, 1, 2})
	b := buildBWT(t, alpha.Sigma(), nil)
	ra := bwtmerge.NewRLArray(nil)

	result := bwtmerge.MergeBWTs(a, b, alpha, ra, bwtmerge.MergeParameters{RunBufferSize: 4}, nil)

	want := []byte{1, 2, 1, 2}
	if got := result.Size(); got != uint64(len(want)) {
		t.Fatalf("Size() = %d, want %d", got, len(want))
	}
	for i, w := range want {
		if got := result.At(uint64(i)); got != w {
			t.Fatalf("At(%d) = %d, want %d", i, got, w)
		}
	}
}
