// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bwtmerge

import "io"

const plainBufferSize = 1 << 20 // one megabyte, matching the teacher's buffered-read chunk sizes.

// plainFormat is one byte per symbol, no run-length framing at all — the
// simplest on-disk shape, useful for interop with tools that don't know
// about runs. order fixes which DNA alphabet the raw bytes are read
// against ("plain_default" or "plain_sorted").
type plainFormat struct {
	tag   string
	order AlphabeticOrder
}

func (f plainFormat) Tag() string            { return f.tag }
func (f plainFormat) Name() string           { return "Plain format (" + AlphabeticOrderName(f.order) + ")" }
func (f plainFormat) Order() AlphabeticOrder { return f.order }
func (plainFormat) Sigma() int               { return 6 }

func (f plainFormat) Read(r io.Reader, dst *BWT) (*Alphabet, uint64, error) {
	alpha := CreateAlphabet(f.order)
	counts := make([]uint64, dst.Sigma())

	var rb RunBuffer
	emit := func(comp byte, length uint64) {
		if run, ok := rb.Add(comp, length); ok {
			dst.AppendRun(run.Symbol, run.Length)
			counts[run.Symbol] += run.Length
		}
	}

	buf := make([]byte, plainBufferSize)
	for {
		n, err := r.Read(buf)
		for i := 0; i < n; i++ {
			emit(alpha.Comp(buf[i]), 1)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		if n == 0 {
			break
		}
	}
	if run, ok := rb.Flush(); ok {
		dst.AppendRun(run.Symbol, run.Length)
		counts[run.Symbol] += run.Length
	}

	resolved := NewAlphabetFromCounts(counts, alpha.char2comp, alpha.comp2char)
	var sequences uint64
	if resolved.Sigma() > 0 {
		sequences = counts[0] // comp 0 is always the endmarker.
	}
	return resolved, sequences, nil
}

func (f plainFormat) Write(w io.Writer, bwt *BWT, alpha *Alphabet) error {
	buf := make([]byte, 0, plainBufferSize)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		_, err := w.Write(buf)
		buf = buf[:0]
		return err
	}

	var rlePos uint64
	for rlePos < bwt.Bytes() {
		symbol, length, err := bwt.Codec().Decode(bwt.Data(), &rlePos)
		if err != nil {
			return err
		}
		ch := alpha.Char(symbol)
		for length > 0 {
			if len(buf) == cap(buf) {
				if err := flush(); err != nil {
					return err
				}
			}
			buf = append(buf, ch)
			length--
		}
	}
	return flush()
}

func init() {
	RegisterFormat(plainFormat{tag: "plain_default", order: AODefault})
	RegisterFormat(plainFormat{tag: "plain_sorted", order: AOSorted})
}
