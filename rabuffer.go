// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bwtmerge

// RABuffer is the single-slot bounded handoff between a Merger's producer
// (iterating the rank array) and its consumer (interleaving the two
// input BWTs). It is the only mutable object the two goroutines share.
// The original implementation guards one slot with a mutex and two
// condition variables (full/empty); a buffered channel of capacity one
// gives the identical full/empty blocking behavior without hand-rolled
// locking, the same translation the teacher's own decompression pipeline
// makes from condition-variable handoffs to channels (parallel.go's
// workCh/doneCh).
type RABuffer struct {
	ch chan raBatch
}

type raBatch struct {
	runs []RLArrayEntry
	last bool
}

// NewRABuffer returns an empty, ready-to-use RABuffer.
func NewRABuffer() *RABuffer {
	return &RABuffer{ch: make(chan raBatch, 1)}
}

// Put hands a batch of coalesced runs to the consumer, blocking until the
// previous batch (if any) has been taken. last marks the final batch of
// the rank array.
func (b *RABuffer) Put(runs []RLArrayEntry, last bool) {
	b.ch <- raBatch{runs: runs, last: last}
}

// Take blocks until a batch is available, returning it along with
// whether it was the final batch.
func (b *RABuffer) Take() (runs []RLArrayEntry, last bool) {
	batch := <-b.ch
	return batch.runs, batch.last
}
