// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rle

import "fmt"

// RunCodec packs (symbol, length) runs into a ByteBlocks stream. The first
// byte of every run packs the symbol into the high bits and the run length
// into the low bits; a run whose length reaches the largest value the low
// bits hold is followed by a base-128 continuation tail carrying the rest
// of the length (possibly zero), high bit set meaning "more bytes follow" — the same
// shape as the SGA on-disk format's single-byte run (symbol in the top 3
// bits, length in the bottom 5), generalized with an overflow tail so a
// run of any length can be represented.
type RunCodec struct {
	symbolBits uint
	runBits    uint
	maxRun     uint64
	sigma      int
}

// NewRunCodec returns a RunCodec for an alphabet of the given size. sigma
// must be in [1, 256].
func NewRunCodec(sigma int) *RunCodec {
	if sigma < 1 || sigma > 256 {
		panic(fmt.Sprintf("rle: invalid alphabet size %d", sigma))
	}
	bits := uint(0)
	for (1 << bits) < sigma {
		bits++
	}
	if bits == 0 {
		bits = 1
	}
	runBits := 8 - bits
	if runBits < 1 {
		runBits = 1
	}
	return &RunCodec{
		symbolBits: bits,
		runBits:    runBits,
		maxRun:     (uint64(1) << runBits) - 1,
		sigma:      sigma,
	}
}

// Encode appends the run (symbol, length) to data. length must be >= 1.
func (c *RunCodec) Encode(data *ByteBlocks, symbol byte, length uint64) {
	if length == 0 {
		panic("rle: cannot encode a zero-length run")
	}
	head := length
	if head > c.maxRun {
		head = c.maxRun
	}
	data.AppendByte(symbol<<c.runBits | byte(head))
	if length >= c.maxRun {
		overflow := length - c.maxRun
		for {
			b := byte(overflow & 0x7f)
			overflow >>= 7
			if overflow > 0 {
				data.AppendByte(b | 0x80)
			} else {
				data.AppendByte(b)
				break
			}
		}
	}
}

// Decode reads one run starting at *cursor, advancing the cursor past it.
// It returns an error if the decoded symbol is out of range for the
// alphabet this codec was built for, or the run length decodes to zero —
// both are the "malformed run" fatal condition of the error design.
func (c *RunCodec) Decode(data *ByteBlocks, cursor *uint64) (symbol byte, length uint64, err error) {
	head := data.ReadByte(*cursor)
	*cursor++
	symbol = head >> c.runBits
	length = uint64(head & byte(c.maxRun))
	if length == c.maxRun {
		shift := uint(0)
		for {
			b := data.ReadByte(*cursor)
			*cursor++
			length += uint64(b&0x7f) << shift
			shift += 7
			if b&0x80 == 0 {
				break
			}
		}
	}
	if int(symbol) >= c.sigma {
		return 0, 0, fmt.Errorf("rle: malformed run: symbol %d out of range for alphabet of size %d", symbol, c.sigma)
	}
	if length == 0 {
		return 0, 0, fmt.Errorf("rle: malformed run: zero length")
	}
	return symbol, length, nil
}
