// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package testdata

import "testing"

func TestGenPredictableSymbolsIsDeterministic(t *testing.T) {
	a := GenPredictableSymbols(500, 6)
	b := GenPredictableSymbols(500, 6)
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("GenPredictableSymbols not deterministic at index %d: %d vs %d", i, a[i], b[i])
		}
		if a[i] == 0 || int(a[i]) >= 6 {
			t.Fatalf("symbol %d out of range [1,6): %d", i, a[i])
		}
	}
}

func TestBuildReferenceBWTMatchesSize(t *testing.T) {
	symbols := GenPredictableSymbols(200, 6)
	bwt := BuildReferenceBWT(6, symbols)
	if got, want := bwt.Size(), uint64(len(symbols)); got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}
	for i, want := range symbols {
		if got := bwt.At(uint64(i)); got != want {
			t.Fatalf("At(%d) = %d, want %d", i, got, want)
		}
	}
}
