// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bwtmerge

import "fmt"

// AlphabeticOrder names a well-known compression-alphabet ordering, used to
// select and to identify which comp2char/char2comp mapping a BWT was built
// against when reading and writing on-disk formats.
type AlphabeticOrder int

const (
	// AODefault is the default ordering: $ A C G T N, compacted to comp
	// values 0..5 in that order.
	AODefault AlphabeticOrder = iota
	// AOSorted matches the byte-sorted order of the characters themselves:
	// $ A C G N T (N and T swap places relative to AODefault).
	AOSorted
	// AOAny accepts any alphabet, performing no compatibility check.
	AOAny
	// AOUnknown is returned by IdentifyOrder when an Alphabet matches
	// neither AODefault nor AOSorted.
	AOUnknown
)

// AlphabeticOrderName returns the human-readable name of order, as used in
// inspection output and format headers.
func AlphabeticOrderName(order AlphabeticOrder) string {
	switch order {
	case AODefault:
		return "default"
	case AOSorted:
		return "sorted"
	case AOAny:
		return "any"
	default:
		return "unknown"
	}
}

// MaxSigma is the largest alphabet size an Alphabet's char2comp table can
// address: one entry per possible byte value.
const MaxSigma = 256

// Alphabet maps between raw input bytes and a compact range of "comp"
// values [0, Sigma), and tracks the cumulative count of each comp value
// across a BWT (the C array used throughout LF-mapping and backward
// search). It is interpreted the way the default bwt-merge alphabet is:
// two endmarkers ('\0' and '$') both map to comp 0, upper- and lower-case
// ACGT map to comps 1-4, and everything else maps to comp 5 ("N").
type Alphabet struct {
	char2comp [MaxSigma]byte
	comp2char []byte
	c         []uint64 // length Sigma()+1; c[i] is the cumulative count through comp i-1.
}

// defaultComp2Char is the $,A,C,G,T,N ordering every DNA-alphabet BWT in
// this package starts from.
var defaultComp2Char = []byte{'$', 'A', 'C', 'G', 'T', 'N'}

func defaultChar2Comp() [MaxSigma]byte {
	var t [MaxSigma]byte
	for i := range t {
		t[i] = 5
	}
	t[0] = 0
	t['$'] = 0
	t['A'], t['a'] = 1, 1
	t['C'], t['c'] = 2, 2
	t['G'], t['g'] = 3, 3
	t['T'], t['t'] = 4, 4
	return t
}

// NewDefaultAlphabet returns the default $,A,C,G,T,N DNA alphabet, with an
// all-zero C array (no sequence has been counted into it yet).
func NewDefaultAlphabet() *Alphabet {
	return &Alphabet{
		char2comp: defaultChar2Comp(),
		comp2char: append([]byte(nil), defaultComp2Char...),
		c:         make([]uint64, len(defaultComp2Char)+1),
	}
}

// NewSortedAlphabet returns the byte-sorted variant of the DNA alphabet:
// identical to NewDefaultAlphabet except that comp values 4 and 5 (T and
// N) are swapped, so that comp2char is in ascending byte order.
func NewSortedAlphabet() *Alphabet {
	a := NewDefaultAlphabet()
	a.comp2char[4], a.comp2char[5] = a.comp2char[5], a.comp2char[4]
	a.char2comp['N'], a.char2comp['T'] = a.char2comp['T'], a.char2comp['N']
	a.char2comp['n'], a.char2comp['t'] = a.char2comp['t'], a.char2comp['n']
	return a
}

// CreateAlphabet returns the canonical Alphabet for the given order. It
// panics if order is AOAny or AOUnknown, neither of which names a single
// concrete mapping.
func CreateAlphabet(order AlphabeticOrder) *Alphabet {
	switch order {
	case AODefault:
		return NewDefaultAlphabet()
	case AOSorted:
		return NewSortedAlphabet()
	default:
		panic(fmt.Sprintf("bwtmerge: %s is not a concrete alphabet ordering", AlphabeticOrderName(order)))
	}
}

// NewIdentityAlphabet returns an Alphabet over an arbitrary sigma-symbol
// byte alphabet in which comp value i maps to byte value i and vice
// versa — used for merging or inspecting BWTs that were not built over the
// DNA alphabet (e.g. arbitrary byte streams converted with bwt_convert).
func NewIdentityAlphabet(sigma int) *Alphabet {
	if sigma <= 0 || sigma > MaxSigma {
		panic(fmt.Sprintf("bwtmerge: invalid alphabet size %d", sigma))
	}
	a := &Alphabet{
		comp2char: make([]byte, sigma),
		c:         make([]uint64, sigma+1),
	}
	for c := 0; c < sigma; c++ {
		a.char2comp[c] = byte(c)
		a.comp2char[c] = byte(c)
	}
	return a
}

// NewAlphabetFromCounts builds an Alphabet using the given char2comp/
// comp2char tables and initializes its C array from per-comp occurrence
// counts — the shape a format reader uses once it has scanned a BWT's
// symbol counts off disk.
func NewAlphabetFromCounts(counts []uint64, char2comp [MaxSigma]byte, comp2char []byte) *Alphabet {
	a := &Alphabet{
		char2comp: char2comp,
		comp2char: append([]byte(nil), comp2char...),
		c:         make([]uint64, len(comp2char)+1),
	}
	for i, n := range counts {
		a.c[i+1] = a.c[i] + n
	}
	return a
}

// Sigma returns the size of the compact alphabet.
func (a *Alphabet) Sigma() int {
	return len(a.comp2char)
}

// Comp returns the comp value of a raw byte.
func (a *Alphabet) Comp(ch byte) byte {
	return a.char2comp[ch]
}

// Char returns the raw byte a comp value decompresses to.
func (a *Alphabet) Char(comp byte) byte {
	return a.comp2char[comp]
}

// C returns C[i], the number of symbols with comp value < i across the
// sequence this alphabet was counted over.
func (a *Alphabet) C(i int) uint64 {
	return a.c[i]
}

// CharRange returns [C(comp), C(comp+1)), the half-open range of overall
// rank-space positions occupied by comp, e.g. the range of SA positions
// whose first character is comp in a BWT's F column.
func (a *Alphabet) CharRange(comp byte) (uint64, uint64) {
	return a.c[comp], a.c[comp+1]
}

// AddCounts folds additional per-comp occurrence counts into the C array,
// as happens when an Alphabet is built incrementally while scanning a run
// stream block by block.
func (a *Alphabet) AddCounts(counts []uint64) {
	for i, n := range counts {
		for j := i + 1; j < len(a.c); j++ {
			a.c[j] += n
		}
	}
}

// Counts recovers the per-comp occurrence counts folded into this
// Alphabet's C array — the inverse of the accumulation NewAlphabetFromCounts
// and AddCounts perform, used by format readers to hand BWT.Build the
// counts it needs after assembling an Alphabet from a decoded stream.
func (a *Alphabet) Counts() []uint64 {
	counts := make([]uint64, a.Sigma())
	for i := range counts {
		counts[i] = a.c[i+1] - a.c[i]
	}
	return counts
}

// Sorted reports whether this Alphabet's comp2char table is in ascending
// byte order — the defining property of AOSorted, used by Compatible
// when a format requires AOSorted.
func (a *Alphabet) Sorted() bool {
	for i := 1; i < len(a.comp2char); i++ {
		if a.comp2char[i-1] >= a.comp2char[i] {
			return false
		}
	}
	return true
}

// Equal reports whether two Alphabets share the same char2comp/comp2char
// mapping (C array counts are not compared — two Alphabets with identical
// mappings but different sequence counts are still the same alphabet).
func (a *Alphabet) Equal(other *Alphabet) bool {
	if a.Sigma() != other.Sigma() {
		return false
	}
	for i := range a.comp2char {
		if a.comp2char[i] != other.comp2char[i] {
			return false
		}
	}
	return a.char2comp == other.char2comp
}

// IdentifyOrder reports which well-known AlphabeticOrder a matches, or
// AOUnknown if it matches neither. This checks against the two concrete
// DNA alphabets by exact mapping, not against the generic Sorted()
// predicate: an identity alphabet (NewIdentityAlphabet) also has an
// ascending comp2char table, but it is not the sorted DNA alphabet, and
// misreporting it as AOSorted would make a native-format reload rebuild
// the wrong char2comp/comp2char tables from CreateAlphabet(AOSorted).
func IdentifyOrder(a *Alphabet) AlphabeticOrder {
	if a.Equal(NewDefaultAlphabet()) {
		return AODefault
	}
	if a.Equal(NewSortedAlphabet()) {
		return AOSorted
	}
	return AOUnknown
}

// Compatible reports whether a is compatible with the given required
// order: exact-match for AODefault, sortedness for AOSorted, always true
// for AOAny.
func Compatible(a *Alphabet, order AlphabeticOrder) bool {
	switch order {
	case AODefault:
		return a.Equal(NewDefaultAlphabet())
	case AOSorted:
		return a.Sorted()
	case AOAny:
		return true
	default:
		return false
	}
}

// String renders the alphabet as "sigma = N, comp->char: ..." for
// diagnostic and inspection output.
func (a *Alphabet) String() string {
	s := fmt.Sprintf("sigma = %d", a.Sigma())
	for i := 0; i < a.Sigma(); i++ {
		lo, hi := a.CharRange(byte(i))
		s += fmt.Sprintf(", %q -> [%d, %d)", a.comp2char[i], lo, hi)
	}
	return s
}
