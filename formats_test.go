// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bwtmerge_test

import (
	"bytes"
	"testing"

	"github.com/Colelyman/bwt-merge"
)

// roundTrip saves bwt under tag, reloads it, and returns the reloaded BWT
// and Alphabet.
func roundTrip(t *testing.T, tag string, bwt *bwtmerge.BWT, alpha *bwtmerge.Alphabet) (*bwtmerge.BWT, *bwtmerge.Alphabet) {
	t.Helper()
	var buf bytes.Buffer
	if err := bwtmerge.SaveFormat(tag, &buf, bwt, alpha); err != nil {
		t.Fatalf("SaveFormat(%s): %v", tag, err)
	}
	loaded, loadedAlpha, err := bwtmerge.LoadFormat(tag, &buf)
	if err != nil {
		t.Fatalf("LoadFormat(%s): %v", tag, err)
	}
	return loaded, loadedAlpha
}

// TestFormatRoundTripNative mirrors scenario S1: the symbol stream
// A A A C C $ round-tripped through the native format.
func TestFormatRoundTripNative(t *testing.T) {
	alpha := bwtmerge.NewDefaultAlphabet()
	symbols := []byte{1, 1, 1, 2, 2, 0} // A A A C C $
	bwt := buildBWT(t, alpha.Sigma(), symbols)
	bwt.SetSequences(1)

	loaded, _ := roundTrip(t, "native", bwt, alpha)

	if got, want := loaded.Size(), uint64(len(symbols)); got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}
	if got, want := loaded.Rank(3, 1), uint64(3); got != want { // rank(3, A) = 3
		t.Fatalf("Rank(3, A) = %d, want %d", got, want)
	}
	if got, want := loaded.Rank(3, 2), uint64(0); got != want { // rank(3, C) = 0
		t.Fatalf("Rank(3, C) = %d, want %d", got, want)
	}
	if got, want := loaded.Rank(5, 2), uint64(2); got != want { // rank(5, C) = 2
		t.Fatalf("Rank(5, C) = %d, want %d", got, want)
	}
	if got, want := loaded.Select(1, 0), uint64(5); got != want { // select(1, $) = 5
		t.Fatalf("Select(1, $) = %d, want %d", got, want)
	}
	if got, want := loaded.Hash(), bwt.Hash(); got != want {
		t.Fatalf("Hash() = %d, want %d (unchanged by round trip)", got, want)
	}
}

func TestFormatRoundTripPlain(t *testing.T) {
	for _, tag := range []string{"plain_default", "plain_sorted"} {
		t.Run(tag, func(t *testing.T) {
			var order bwtmerge.AlphabeticOrder
			if tag == "plain_sorted" {
				order = bwtmerge.AOSorted
			}
			alpha := bwtmerge.CreateAlphabet(order)
			symbols := randomSymbols(2000, 6, 42)
			bwt := buildBWT(t, 6, symbols)

			loaded, _ := roundTrip(t, tag, bwt, alpha)
			if got, want := loaded.Hash(), bwt.Hash(); got != want {
				t.Fatalf("Hash() = %d, want %d", got, want)
			}
			if got, want := loaded.Size(), bwt.Size(); got != want {
				t.Fatalf("Size() = %d, want %d", got, want)
			}
		})
	}
}

// TestFormatRoundTripSGASplitsLongRuns checks that a run longer than the
// SGA format's 31-symbol cap survives a round trip by being split and
// recoalesced transparently.
func TestFormatRoundTripSGASplitsLongRuns(t *testing.T) {
	alpha := bwtmerge.NewDefaultAlphabet()
	symbols := append([]byte{0}, repeat(1, 70)...) // $ followed by 70 As
	symbols = append(symbols, 2, 2)
	bwt := buildBWT(t, 6, symbols)

	loaded, _ := roundTrip(t, "sga", bwt, alpha)
	if got, want := loaded.Hash(), bwt.Hash(); got != want {
		t.Fatalf("Hash() = %d, want %d", got, want)
	}
	if got, want := loaded.Count(1), uint64(70); got != want {
		t.Fatalf("Count(A) = %d, want %d", got, want)
	}
}

func TestFormatRoundTripSDSLAndRFM(t *testing.T) {
	for _, tag := range []string{"sdsl", "rfm"} {
		t.Run(tag, func(t *testing.T) {
			var alpha *bwtmerge.Alphabet
			if tag == "sdsl" {
				alpha = bwtmerge.CreateAlphabet(bwtmerge.AOSorted)
			} else {
				alpha = bwtmerge.NewIdentityAlphabet(6)
			}
			symbols := randomSymbols(500, 6, 7)
			bwt := buildBWT(t, 6, symbols)

			loaded, _ := roundTrip(t, tag, bwt, alpha)
			if got, want := loaded.Hash(), bwt.Hash(); got != want {
				t.Fatalf("Hash() = %d, want %d", got, want)
			}
		})
	}
}

// TestFormatRoundTripSGAThenNativePreservesHash mirrors scenario S5: load
// an SGA-encoded BWT, re-emit it in native format, reload, and check that
// the content hash and total size are unchanged.
func TestFormatRoundTripSGAThenNativePreservesHash(t *testing.T) {
	alpha := bwtmerge.NewDefaultAlphabet()
	symbols := randomSymbols(3000, 6, 99)
	original := buildBWT(t, 6, symbols)

	var sgaBuf bytes.Buffer
	if err := bwtmerge.SaveFormat("sga", &sgaBuf, original, alpha); err != nil {
		t.Fatalf("SaveFormat(sga): %v", err)
	}
	fromSGA, sgaAlpha, err := bwtmerge.LoadFormat("sga", &sgaBuf)
	if err != nil {
		t.Fatalf("LoadFormat(sga): %v", err)
	}

	var nativeBuf bytes.Buffer
	if err := bwtmerge.SaveFormat("native", &nativeBuf, fromSGA, sgaAlpha); err != nil {
		t.Fatalf("SaveFormat(native): %v", err)
	}
	fromNative, _, err := bwtmerge.LoadFormat("native", &nativeBuf)
	if err != nil {
		t.Fatalf("LoadFormat(native): %v", err)
	}

	if got, want := fromNative.Hash(), original.Hash(); got != want {
		t.Fatalf("Hash() after sga->native round trip = %d, want %d", got, want)
	}
	if got, want := fromNative.Size(), original.Size(); got != want {
		t.Fatalf("Size() after sga->native round trip = %d, want %d", got, want)
	}
}

func TestLoadFormatUnknownTagFails(t *testing.T) {
	_, _, err := bwtmerge.LoadFormat("not-a-format", bytes.NewReader(nil))
	var fmtErr *bwtmerge.FormatError
	if err == nil {
		t.Fatalf("LoadFormat(unknown tag) = nil error, want *FormatError")
	}
	if !asFormatError(err, &fmtErr) {
		t.Fatalf("LoadFormat(unknown tag) error = %v (%T), want *FormatError", err, err)
	}
}

func TestLoadFormatRejectsBadMagic(t *testing.T) {
	_, _, err := bwtmerge.LoadFormat("native", bytes.NewReader(make([]byte, 28)))
	var headerErr *bwtmerge.HeaderError
	if err == nil {
		t.Fatalf("LoadFormat(garbage) = nil error, want *HeaderError")
	}
	if !asHeaderError(err, &headerErr) {
		t.Fatalf("LoadFormat(garbage) error = %v (%T), want *HeaderError", err, err)
	}
}

// TestSaveFormatIncompatibleAlphabetWarnsButProceeds checks that writing
// SGA (which declares AODefault) with a sorted alphabet still succeeds —
// §7 classifies this as a warning, not a fatal error.
func TestSaveFormatIncompatibleAlphabetWarnsButProceeds(t *testing.T) {
	alpha := bwtmerge.CreateAlphabet(bwtmerge.AOSorted)
	bwt := buildBWT(t, 6, randomSymbols(200, 6, 11))

	var buf bytes.Buffer
	if err := bwtmerge.SaveFormat("sga", &buf, bwt, alpha); err != nil {
		t.Fatalf("SaveFormat with incompatible alphabet should warn, not fail: %v", err)
	}
}

func repeat(symbol byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = symbol
	}
	return out
}

func asFormatError(err error, target **bwtmerge.FormatError) bool {
	fe, ok := err.(*bwtmerge.FormatError)
	if ok {
		*target = fe
	}
	return ok
}

func asHeaderError(err error, target **bwtmerge.HeaderError) bool {
	he, ok := err.(*bwtmerge.HeaderError)
	if ok {
		*target = he
	}
	return ok
}
