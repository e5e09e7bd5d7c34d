// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bwtmerge

import (
	"encoding/binary"
	"io"

	"github.com/Colelyman/bwt-merge/internal/succinct"
)

// nativeTag is the fixed 64-bit magic every native-format file starts
// with; loading fails if it doesn't match.
const nativeTag uint64 = 0x4257542d4d524731 // "BWT-MRG1" in ASCII bytes

// alphabetMask isolates the low bits of a native header's flags field
// that carry the AlphabeticOrder the data was written in.
const alphabetMask uint32 = 0x3

// NativeHeader is the fixed-size header every native-format file opens
// with: a magic tag, order-carrying flags, and the sequence/base counts.
type NativeHeader struct {
	Tag       uint64
	Flags     uint32
	Sequences uint64
	Bases     uint64
}

// Order extracts the AlphabeticOrder carried in Flags.
func (h NativeHeader) Order() AlphabeticOrder {
	return AlphabeticOrder(h.Flags & alphabetMask)
}

// SetOrder folds order into Flags, replacing whatever order was there.
func (h *NativeHeader) SetOrder(order AlphabeticOrder) {
	h.Flags = (h.Flags &^ alphabetMask) | (uint32(order) & alphabetMask)
}

// Check reports whether the header's magic tag is the one nativeFormat
// writes — the §7 "invalid header" check, a fatal condition on failure.
func (h NativeHeader) Check() bool {
	return h.Tag == nativeTag
}

func readNativeHeader(r io.Reader) (NativeHeader, error) {
	var h NativeHeader
	for _, field := range []interface{}{&h.Tag, &h.Flags, &h.Sequences, &h.Bases} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return NativeHeader{}, err
		}
	}
	return h, nil
}

func writeNativeHeader(w io.Writer, h NativeHeader) error {
	for _, field := range []interface{}{h.Tag, h.Flags, h.Sequences, h.Bases} {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return err
		}
	}
	return nil
}

// nativeFormat is the identity encoding: the BWT's own RunCodec stream
// plus its rank/select index (per-symbol CumulativeArrays, block
// boundaries, and block RLE offsets), dumped and reloaded verbatim. It is
// the only format whose alphabet order is carried per-file (in the
// header) rather than fixed by the tag, and the only format that persists
// the built index rather than recomputing it with Build on load — the
// whole point of a "native" tag is to skip the rescan every other format
// pays on load.
type nativeFormat struct{}

func (nativeFormat) Tag() string            { return "native" }
func (nativeFormat) Name() string           { return "Native format" }
func (nativeFormat) Order() AlphabeticOrder { return AOAny }
func (nativeFormat) Sigma() int             { return 6 }

// prebuilt marks nativeFormat as reconstructing dst's index directly in
// Read, so LoadFormat must not also rescan-and-rebuild it.
func (nativeFormat) prebuilt() {}

func (f nativeFormat) Read(r io.Reader, dst *BWT) (*Alphabet, uint64, error) {
	header, err := readNativeHeader(r)
	if err != nil {
		return nil, 0, err
	}
	if !header.Check() {
		return nil, 0, &HeaderError{Format: f.Tag(), Reason: "unrecognized magic tag"}
	}

	if err := dst.Data().Load(r); err != nil {
		return nil, 0, err
	}

	var sampleCount uint64
	if err := binary.Read(r, binary.LittleEndian, &sampleCount); err != nil {
		return nil, 0, err
	}
	if int(sampleCount) != dst.Sigma() {
		return nil, 0, &HeaderError{Format: f.Tag(), Reason: "sample count does not match alphabet size"}
	}
	samples := make([]*succinct.CumulativeArray, sampleCount)
	for i := range samples {
		ca, err := succinct.LoadCumulativeArray(r)
		if err != nil {
			return nil, 0, err
		}
		samples[i] = ca
	}

	boundaries, err := succinct.LoadBlockBoundaries(r)
	if err != nil {
		return nil, 0, err
	}

	var offsetCount uint64
	if err := binary.Read(r, binary.LittleEndian, &offsetCount); err != nil {
		return nil, 0, err
	}
	blockOffsets := make([]uint64, offsetCount)
	for i := range blockOffsets {
		if err := binary.Read(r, binary.LittleEndian, &blockOffsets[i]); err != nil {
			return nil, 0, err
		}
	}

	counts := make([]uint64, dst.Sigma())
	var total uint64
	for i, s := range samples {
		counts[i] = s.Total()
		total += counts[i]
	}

	order := header.Order()
	if order != AODefault && order != AOSorted {
		return nil, 0, &HeaderError{Format: f.Tag(), Reason: "flags carry an unrecognized alphabet order"}
	}
	temp := CreateAlphabet(order)
	alpha := NewAlphabetFromCounts(counts, temp.char2comp, temp.comp2char)

	if header.Bases != 0 && total != header.Bases {
		return nil, 0, &HeaderError{Format: f.Tag(), Reason: "base count does not match header"}
	}

	dst.samples = samples
	dst.boundaries = boundaries
	dst.blockOffsets = blockOffsets
	dst.bases = total

	return alpha, header.Sequences, nil
}

func (nativeFormat) Write(w io.Writer, bwt *BWT, alpha *Alphabet) error {
	header := NativeHeader{Tag: nativeTag, Sequences: bwt.Sequences(), Bases: bwt.Size()}
	header.SetOrder(IdentifyOrder(alpha))
	if err := writeNativeHeader(w, header); err != nil {
		return err
	}
	if _, err := bwt.Data().Serialize(w); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(bwt.samples))); err != nil {
		return err
	}
	for _, ca := range bwt.samples {
		if err := ca.Serialize(w); err != nil {
			return err
		}
	}
	if err := bwt.boundaries.Serialize(w); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(bwt.blockOffsets))); err != nil {
		return err
	}
	for _, off := range bwt.blockOffsets {
		if err := binary.Write(w, binary.LittleEndian, off); err != nil {
			return err
		}
	}
	return nil
}

func init() { RegisterFormat(nativeFormat{}) }
