// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bwtmerge

import "sync"

// Progress reports how far a Merger has gotten, sent after each batch the
// consumer drains from the RABuffer — the same shape as the teacher's own
// per-block Progress struct (parallel.go), adapted from "one bzip2 block
// decompressed" to "one rank-array batch interleaved".
type Progress struct {
	Batch     int    // sequence number of the batch just consumed.
	Positions uint64 // cumulative text positions of the first input (a) consumed so far.
	RLEBytes  uint64 // cumulative RLE bytes written to the result so far.
}

// rlCoalescer coalesces adjacent RLArrayEntry values that share a
// Position, the position-keyed analogue of RunBuffer (which coalesces by
// symbol). The producer side of a merge uses it to fold duplicate
// directives for the same Position into one before batching them.
type rlCoalescer struct {
	entry RLArrayEntry
	has   bool
}

func (c *rlCoalescer) Add(e RLArrayEntry) (RLArrayEntry, bool) {
	if e.Length == 0 {
		return RLArrayEntry{}, false
	}
	if !c.has {
		c.entry = e
		c.has = true
		return RLArrayEntry{}, false
	}
	if c.entry.Position == e.Position {
		c.entry.Length += e.Length
		return RLArrayEntry{}, false
	}
	out := c.entry
	c.entry = e
	return out, true
}

func (c *rlCoalescer) Flush() (RLArrayEntry, bool) {
	if !c.has {
		return RLArrayEntry{}, false
	}
	out := c.entry
	c.entry = RLArrayEntry{}
	c.has = false
	return out, true
}

// mergeRAProducer iterates ra, coalescing adjacent same-position entries,
// and hands batches of up to bufferSize runs to buf. It is always the
// sole producer goroutine of a merge.
func mergeRAProducer(ra *RLArray, buf *RABuffer, bufferSize int) {
	if bufferSize < 1 {
		bufferSize = 1
	}
	it := ra.Iterator()
	var coalescer rlCoalescer
	out := make([]RLArrayEntry, 0, bufferSize)

	for {
		e, ok := it.Next()
		if !ok {
			break
		}
		if merged, flushed := coalescer.Add(e); flushed {
			out = append(out, merged)
			if len(out) >= bufferSize {
				buf.Put(out, false)
				out = make([]RLArrayEntry, 0, bufferSize)
			}
		}
	}
	if merged, flushed := coalescer.Flush(); flushed {
		out = append(out, merged)
	}
	buf.Put(out, true)
}

// mergeCursor tracks the decode position within one input BWT's RLE
// stream during a merge: the current run (symbol, remaining length) and
// the byte cursor into its data. Advancing trims the input's ByteBlocks
// up to the new cursor, bounding the merge's input memory residency.
type mergeCursor struct {
	bwt       *BWT
	rlePos    uint64
	symbol    byte
	remaining uint64
}

func (c *mergeCursor) advance() bool {
	if c.rlePos >= c.bwt.Bytes() {
		return false
	}
	symbol, length, err := c.bwt.Codec().Decode(c.bwt.Data(), &c.rlePos)
	if err != nil {
		panic(err)
	}
	c.symbol = symbol
	c.remaining = length
	c.bwt.Data().TrimToPosition(c.rlePos)
	return true
}

// mergeBWTConsumer interleaves a and b according to the batches it reads
// from buf, emitting the result into a freshly built BWT. It is always
// the sole consumer goroutine of a merge, and it destructively consumes
// both a and b (their RLE streams are trimmed as they are read).
func mergeBWTConsumer(a, b *BWT, alpha *Alphabet, buf *RABuffer, progress chan<- Progress) (*BWT, []uint64) {
	sigma := alpha.Sigma()
	result := NewBWT(sigma)
	counts := make([]uint64, sigma)
	var outBuf RunBuffer

	emit := func(symbol byte, length uint64) {
		if length == 0 {
			return
		}
		if run, ok := outBuf.Add(symbol, length); ok {
			result.AppendRun(run.Symbol, run.Length)
			counts[run.Symbol] += run.Length
		}
	}

	aCur := &mergeCursor{bwt: a}
	bCur := &mergeCursor{bwt: b}
	aCur.advance()
	bCur.advance()

	var aSeqPos uint64
	batch := 0
	for {
		runs, last := buf.Take()
		for _, e := range runs {
			for aSeqPos < e.Position {
				length := e.Position - aSeqPos
				if aCur.remaining < length {
					length = aCur.remaining
				}
				emit(aCur.symbol, length)
				aCur.remaining -= length
				aSeqPos += length
				if aCur.remaining == 0 {
					aCur.advance()
				}
			}

			remainingB := e.Length
			for remainingB > 0 {
				length := remainingB
				if bCur.remaining < length {
					length = bCur.remaining
				}
				emit(bCur.symbol, length)
				bCur.remaining -= length
				remainingB -= length
				if bCur.remaining == 0 {
					bCur.advance()
				}
			}
		}

		batch++
		if progress != nil {
			progress <- Progress{Batch: batch, Positions: aSeqPos, RLEBytes: result.Bytes()}
		}
		if last {
			break
		}
	}

	// Append whatever remains of a; if the rank array was well-formed, b
	// is already fully exhausted.
	for {
		if aCur.remaining == 0 {
			if !aCur.advance() {
				break
			}
		}
		emit(aCur.symbol, aCur.remaining)
		aCur.remaining = 0
	}

	if run, ok := outBuf.Flush(); ok {
		result.AppendRun(run.Symbol, run.Length)
		counts[run.Symbol] += run.Length
	}

	return result, counts
}

// MergeBWTs merges a and b according to the interleaving described by ra,
// consuming both inputs destructively, and returns a new, fully built
// BWT. Exactly two goroutines run for the duration of the merge: one
// producer walking ra, one consumer interleaving a and b — the same
// shape as the teacher's decompression pipeline (one worker goroutine
// producing decompressed blocks, one assembler goroutine consuming them,
// joined by a WaitGroup).
//
// If progress is non-nil, a Progress value is sent on it after every
// batch the consumer drains; the caller owns the channel and may close it
// once MergeBWTs returns.
func MergeBWTs(a, b *BWT, alpha *Alphabet, ra *RLArray, params MergeParameters, progress chan<- Progress) *BWT {
	buf := NewRABuffer()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		mergeRAProducer(ra, buf, int(params.RunBufferSize))
	}()

	result, counts := mergeBWTConsumer(a, b, alpha, buf, progress)
	wg.Wait()

	result.SetSequences(a.Sequences() + b.Sequences())
	result.SetOrder(a.Order())
	result.Build(counts)

	return result
}
