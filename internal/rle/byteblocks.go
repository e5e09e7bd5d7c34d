// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package rle implements the append-only chunked byte container and the
// variable-length run codec that bwt-merge's BWT representation is built
// from.
package rle

import (
	"encoding/binary"
	"fmt"
	"io"
)

// BlockSize is the fixed, power-of-two size of each block owned by a
// ByteBlocks. It is chosen so that trimming releases whole blocks without
// ever needing to shift bytes within a block.
const BlockSize = 1 << 20

// ByteBlocks is an append-only, logically-contiguous byte array addressed
// by a 64-bit position but physically backed by a list of fixed-size
// blocks. TrimToPosition releases blocks that are no longer needed without
// disturbing the addressing of the bytes that remain, which is what lets a
// Merger consume an input BWT's run stream under a bounded memory budget.
type ByteBlocks struct {
	blocks []*[BlockSize]byte
	// trimmed counts how many leading blocks have been released; blocks[0]
	// therefore holds the bytes for the block at index `trimmed`.
	trimmed int
	size    uint64
}

// NewByteBlocks returns an empty ByteBlocks.
func NewByteBlocks() *ByteBlocks {
	return &ByteBlocks{}
}

// Len returns the total number of bytes ever appended, including any that
// have since been trimmed.
func (b *ByteBlocks) Len() uint64 {
	return b.size
}

func (b *ByteBlocks) blockFor(pos uint64) *[BlockSize]byte {
	idx := int(pos/BlockSize) - b.trimmed
	if idx < 0 || idx >= len(b.blocks) {
		panic(fmt.Sprintf("rle: ByteBlocks access at trimmed or out of range position %d", pos))
	}
	return b.blocks[idx]
}

// AppendByte appends a single byte, growing the block list as needed.
func (b *ByteBlocks) AppendByte(v byte) {
	if b.size%BlockSize == 0 {
		b.blocks = append(b.blocks, new([BlockSize]byte))
	}
	blk := b.blockFor(b.size)
	blk[b.size%BlockSize] = v
	b.size++
}

// Append appends an entire byte slice.
func (b *ByteBlocks) Append(data []byte) {
	for _, v := range data {
		b.AppendByte(v)
	}
}

// ReadByte returns the byte at the given absolute position. Reading a
// position that has already been trimmed, or is beyond Len, is undefined
// (it panics) — callers are expected to track their own read cursor in
// lock-step with TrimToPosition, as the Merger and BWT query paths do.
func (b *ByteBlocks) ReadByte(pos uint64) byte {
	return b.blockFor(pos)[pos%BlockSize]
}

// TrimToPosition releases every block that lies entirely before pos. Bytes
// at or after pos remain readable; bytes before pos become undefined.
func (b *ByteBlocks) TrimToPosition(pos uint64) {
	fullBlocks := int(pos / BlockSize)
	for fullBlocks > b.trimmed && len(b.blocks) > 0 {
		b.blocks = b.blocks[1:]
		b.trimmed++
	}
}

// Serialize writes the full, untrimmed contents of the ByteBlocks. It must
// not be called after any call to TrimToPosition removed data still
// pending output — the Merger never trims its output stream, only its
// inputs, so this is always safe for a BWT about to be persisted.
func (b *ByteBlocks) Serialize(w io.Writer) (int, error) {
	if b.trimmed != 0 {
		return 0, fmt.Errorf("rle: cannot serialize a ByteBlocks that has been trimmed")
	}
	if err := binary.Write(w, binary.LittleEndian, b.size); err != nil {
		return 0, err
	}
	written := 8
	remaining := b.size
	for _, blk := range b.blocks {
		n := remaining
		if n > BlockSize {
			n = BlockSize
		}
		nn, err := w.Write(blk[:n])
		written += nn
		if err != nil {
			return written, err
		}
		remaining -= n
	}
	return written, nil
}

// Load replaces the contents of b with a stream previously written by
// Serialize.
func (b *ByteBlocks) Load(r io.Reader) error {
	var size uint64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return err
	}
	blocks := int((size + BlockSize - 1) / BlockSize)
	b.blocks = make([]*[BlockSize]byte, blocks)
	b.trimmed = 0
	b.size = size
	remaining := size
	for i := 0; i < blocks; i++ {
		blk := new([BlockSize]byte)
		n := remaining
		if n > BlockSize {
			n = BlockSize
		}
		if _, err := io.ReadFull(r, blk[:n]); err != nil {
			return err
		}
		b.blocks[i] = blk
		remaining -= n
	}
	return nil
}
