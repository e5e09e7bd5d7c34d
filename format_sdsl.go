// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bwtmerge

import (
	"encoding/binary"
	"io"
)

// sdslBlockSize is the block granularity SDSL-style int_vector<8> storage
// pads to: eight one-byte values per 64-bit block, matching the
// original's VALUE_SIZE/BLOCK_SIZE=8 constants.
const sdslBlockSize = 8

func sdslBlocks(values uint64) uint64 {
	return (values + sdslBlockSize - 1) / sdslBlockSize
}

// readSDSLStream decodes a bit-length-prefixed, block-padded one-byte-
// per-symbol stream into dst, mapping each raw byte through alpha before
// coalescing it into a run. It is shared by sdslFormat (characters) and
// rfmFormat (already-compact comp codes, via an identity alpha).
func readSDSLStream(r io.Reader, dst *BWT, alpha *Alphabet) ([]uint64, error) {
	var bits uint64
	if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
		return nil, err
	}
	values := bits / 8

	counts := make([]uint64, dst.Sigma())
	var rb RunBuffer
	emit := func(raw byte) {
		if run, ok := rb.Add(alpha.Comp(raw), 1); ok {
			dst.AppendRun(run.Symbol, run.Length)
			counts[run.Symbol] += run.Length
		}
	}

	buf := make([]byte, plainBufferSize)
	for offset := uint64(0); offset < values; offset += uint64(len(buf)) {
		chunk := uint64(len(buf))
		if remaining := values - offset; remaining < chunk {
			chunk = remaining
		}
		readBytes := sdslBlocks(chunk) * sdslBlockSize
		if _, err := io.ReadFull(r, buf[:readBytes]); err != nil {
			return nil, err
		}
		for i := uint64(0); i < chunk; i++ {
			emit(buf[i])
		}
	}
	if run, ok := rb.Flush(); ok {
		dst.AppendRun(run.Symbol, run.Length)
		counts[run.Symbol] += run.Length
	}
	return counts, nil
}

// writeSDSLStream encodes bwt's expanded run stream the same way,
// mapping each compact symbol back to a raw byte through alpha.
func writeSDSLStream(w io.Writer, bwt *BWT, alpha *Alphabet) error {
	bits := bwt.Size() * 8
	if err := binary.Write(w, binary.LittleEndian, bits); err != nil {
		return err
	}

	buf := make([]byte, 0, plainBufferSize)
	flush := func(final bool) error {
		n := len(buf)
		if final {
			n = int(sdslBlocks(uint64(len(buf))) * sdslBlockSize)
			for len(buf) < n {
				buf = append(buf, 0)
			}
		}
		if n == 0 {
			return nil
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return err
		}
		buf = buf[:0]
		return nil
	}

	var rlePos uint64
	for rlePos < bwt.Bytes() {
		symbol, length, err := bwt.Codec().Decode(bwt.Data(), &rlePos)
		if err != nil {
			return err
		}
		raw := alpha.Char(symbol)
		for length > 0 {
			if len(buf) == cap(buf) {
				if err := flush(false); err != nil {
					return err
				}
			}
			buf = append(buf, raw)
			length--
		}
	}
	return flush(true)
}

// sdslFormat stores one raw DNA character per byte, block-padded, under a
// sorted alphabet order — the convention the reference sdsl-lite
// int_vector-backed BWT implementation uses.
type sdslFormat struct{}

func (sdslFormat) Tag() string            { return "sdsl" }
func (sdslFormat) Name() string           { return "SDSL format" }
func (sdslFormat) Order() AlphabeticOrder { return AOSorted }
func (sdslFormat) Sigma() int             { return 6 }

func (f sdslFormat) Read(r io.Reader, dst *BWT) (*Alphabet, uint64, error) {
	temp := CreateAlphabet(AOSorted)
	counts, err := readSDSLStream(r, dst, temp)
	if err != nil {
		return nil, 0, err
	}
	alpha := NewAlphabetFromCounts(counts, temp.char2comp, temp.comp2char)
	return alpha, counts[0], nil
}

func (sdslFormat) Write(w io.Writer, bwt *BWT, alpha *Alphabet) error {
	return writeSDSLStream(w, bwt, alpha)
}

// rfmFormat is the same block-padded one-byte-per-symbol layout as
// sdslFormat, but over an identity alphabet: the bytes it reads and
// writes are already compact comp codes, not characters.
type rfmFormat struct{}

func (rfmFormat) Tag() string            { return "rfm" }
func (rfmFormat) Name() string           { return "RFM format" }
func (rfmFormat) Order() AlphabeticOrder { return AOAny }
func (rfmFormat) Sigma() int             { return 6 }

func (f rfmFormat) Read(r io.Reader, dst *BWT) (*Alphabet, uint64, error) {
	identity := NewIdentityAlphabet(f.Sigma())
	counts, err := readSDSLStream(r, dst, identity)
	if err != nil {
		return nil, 0, err
	}
	identity.AddCounts(counts)
	return identity, counts[0], nil
}

func (rfmFormat) Write(w io.Writer, bwt *BWT, _ *Alphabet) error {
	return writeSDSLStream(w, bwt, NewIdentityAlphabet(bwt.Sigma()))
}

func init() {
	RegisterFormat(sdslFormat{})
	RegisterFormat(rfmFormat{})
}
