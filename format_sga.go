// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bwtmerge

import (
	"encoding/binary"
	"io"
)

const (
	sgaTag  uint64 = 0x5347412d4d524731 // "SGA-MRG1" in ASCII bytes.
	sgaFlag uint64 = 1
)

// sgaRunBits/sgaRunMask/sgaMaxRun describe the SGA byte encoding: the top
// 3 bits of each byte hold the compact symbol, the low 5 bits hold a run
// length capped at 31 — longer runs are split across several bytes.
const (
	sgaRunBits = 5
	sgaRunMask = 0x1F
	sgaMaxRun  = 31
)

func sgaEncode(comp byte, length uint64) byte {
	return (comp << sgaRunBits) | byte(length)
}

func sgaDecode(code byte) (comp byte, length uint64) {
	return code >> sgaRunBits, uint64(code & sgaRunMask)
}

// SGAHeader is the fixed-size header an SGA-format file opens with.
type SGAHeader struct {
	Tag       uint64
	Sequences uint64
	Bases     uint64
	Runs      uint64
	Flag      uint64
}

// Check reports whether tag and flag both match the constants this
// package writes — the §7 "invalid header" check, a fatal condition on
// failure (both fields, not just the tag, must match).
func (h SGAHeader) Check() bool {
	return h.Tag == sgaTag && h.Flag == sgaFlag
}

func readSGAHeader(r io.Reader) (SGAHeader, error) {
	var h SGAHeader
	for _, field := range []interface{}{&h.Tag, &h.Sequences, &h.Bases, &h.Runs, &h.Flag} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return SGAHeader{}, err
		}
	}
	return h, nil
}

func writeSGAHeader(w io.Writer, h SGAHeader) error {
	for _, field := range []interface{}{h.Tag, h.Sequences, h.Bases, h.Runs, h.Flag} {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return err
		}
	}
	return nil
}

// sgaFormat packs runs into single bytes (3-bit symbol, 5-bit length),
// splitting any run longer than sgaMaxRun across multiple bytes. It
// assumes the default DNA alphabet order; the symbols it reads and
// writes are already the compact comp codes, not raw characters.
type sgaFormat struct{}

func (sgaFormat) Tag() string            { return "sga" }
func (sgaFormat) Name() string           { return "SGA format" }
func (sgaFormat) Order() AlphabeticOrder { return AODefault }
func (sgaFormat) Sigma() int             { return 6 }

func (f sgaFormat) Read(r io.Reader, dst *BWT) (*Alphabet, uint64, error) {
	header, err := readSGAHeader(r)
	if err != nil {
		return nil, 0, err
	}
	if !header.Check() {
		return nil, 0, &HeaderError{Format: f.Tag(), Reason: "unrecognized magic tag or flag"}
	}

	counts := make([]uint64, dst.Sigma())
	var rb RunBuffer
	emit := func(comp byte, length uint64) {
		if run, ok := rb.Add(comp, length); ok {
			dst.AppendRun(run.Symbol, run.Length)
			counts[run.Symbol] += run.Length
		}
	}

	buf := make([]byte, plainBufferSize)
	remaining := header.Runs
	for remaining > 0 {
		want := remaining
		if want > uint64(len(buf)) {
			want = uint64(len(buf))
		}
		n, err := io.ReadFull(r, buf[:want])
		if err != nil {
			return nil, 0, err
		}
		for i := 0; i < n; i++ {
			comp, length := sgaDecode(buf[i])
			if comp >= byte(dst.Sigma()) {
				return nil, 0, &HeaderError{Format: f.Tag(), Reason: "malformed run: symbol out of range"}
			}
			emit(comp, length)
		}
		remaining -= uint64(n)
	}
	if run, ok := rb.Flush(); ok {
		dst.AppendRun(run.Symbol, run.Length)
		counts[run.Symbol] += run.Length
	}

	temp := CreateAlphabet(AODefault)
	alpha := NewAlphabetFromCounts(counts, temp.char2comp, temp.comp2char)
	return alpha, header.Sequences, nil
}

func (sgaFormat) Write(w io.Writer, bwt *BWT, _ *Alphabet) error {
	header := SGAHeader{Tag: sgaTag, Flag: sgaFlag}
	var rlePos uint64
	for rlePos < bwt.Bytes() {
		symbol, length, err := bwt.Codec().Decode(bwt.Data(), &rlePos)
		if err != nil {
			return err
		}
		if symbol == 0 {
			header.Sequences += length
		}
		header.Bases += length
		header.Runs += (length + sgaMaxRun - 1) / sgaMaxRun
	}
	if err := writeSGAHeader(w, header); err != nil {
		return err
	}

	buf := make([]byte, 0, plainBufferSize)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		_, err := w.Write(buf)
		buf = buf[:0]
		return err
	}

	rlePos = 0
	for rlePos < bwt.Bytes() {
		symbol, length, err := bwt.Codec().Decode(bwt.Data(), &rlePos)
		if err != nil {
			return err
		}
		for length > sgaMaxRun {
			buf = append(buf, sgaEncode(symbol, sgaMaxRun))
			length -= sgaMaxRun
			if len(buf) == cap(buf) {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		buf = append(buf, sgaEncode(symbol, length))
		if len(buf) == cap(buf) {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func init() { RegisterFormat(sgaFormat{}) }
