// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bwtmerge

import (
	"io"
	"log"
)

// Format is one on-disk representation of a BWT: native, plain, SGA, SDSL
// or RFM (§4.6). Every format decodes into the same internal run-length
// encoding by feeding (symbol, length) pairs into a freshly built BWT, and
// encodes by walking that same run stream back out through its own
// on-disk shape.
type Format interface {
	// Tag is the short string other tools route by (e.g. "sga").
	Tag() string
	// Name is a human-readable description, used only in logging.
	Name() string
	// Order is the alphabet order this format expects its data to be in.
	Order() AlphabeticOrder
	// Sigma is the alphabet size this format's on-disk encoding assumes.
	Sigma() int

	// Read decodes r into dst (a freshly constructed, empty *BWT with
	// matching Sigma), returning the Alphabet recovered from the stream
	// (counts included) and the sequence count. dst.Build is not called
	// here; the caller finishes construction once the format is known to
	// have loaded cleanly.
	Read(r io.Reader, dst *BWT) (alpha *Alphabet, sequences uint64, err error)

	// Write encodes bwt's expanded run stream into w using alpha to map
	// compact symbols back to characters where the format requires it.
	Write(w io.Writer, bwt *BWT, alpha *Alphabet) error
}

var formatRegistry = map[string]Format{}

// prebuiltIndex is implemented by formats whose Read reconstructs dst's
// rank/select index directly from the stream (e.g. nativeFormat), rather
// than leaving it for LoadFormat to rebuild with Build. Formats that
// don't implement it get the default rescan-and-rebuild treatment.
type prebuiltIndex interface {
	prebuilt()
}

// RegisterFormat adds f to the tag registry that LoadFormat/SaveFormat
// dispatch through. Called from each format file's init().
func RegisterFormat(f Format) {
	formatRegistry[f.Tag()] = f
}

// formatOpts carries settings threaded through LoadFormat/SaveFormat via
// functional options, the same convention the rest of the package uses
// for long-running components.
type formatOpts struct {
	verbose bool
}

// FormatOption configures LoadFormat/SaveFormat.
type FormatOption func(*formatOpts)

// Verbose enables log.Printf diagnostics (alphabet-compatibility
// warnings, format names) during Load/SaveFormat.
func Verbose(v bool) FormatOption {
	return func(o *formatOpts) { o.verbose = v }
}

func resolveFormatOpts(opts []FormatOption) formatOpts {
	var o formatOpts
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

// LoadFormat decodes r using the format registered under tag, fully
// builds the resulting BWT (rank/select indexes included), and derives an
// Alphabet from the format's declared order and the counts recovered from
// the stream.
func LoadFormat(tag string, r io.Reader, opts ...FormatOption) (*BWT, *Alphabet, error) {
	o := resolveFormatOpts(opts)
	f, ok := formatRegistry[tag]
	if !ok {
		return nil, nil, &FormatError{Tag: tag}
	}
	if o.verbose {
		log.Printf("bwtmerge: loading %s", f.Name())
	}

	dst := NewBWT(f.Sigma())
	alpha, sequences, err := f.Read(r, dst)
	if err != nil {
		return nil, nil, err
	}

	dst.SetSequences(sequences)
	dst.SetOrder(IdentifyOrder(alpha))
	if _, ok := f.(prebuiltIndex); !ok {
		dst.Build(alpha.Counts())
	}
	return dst, alpha, nil
}

// SaveFormat encodes bwt using the format registered under tag. If alpha
// is not compatible with the format's required order, a warning is
// logged (not fatal) per §7's "incompatible alphabet" error kind.
func SaveFormat(tag string, w io.Writer, bwt *BWT, alpha *Alphabet, opts ...FormatOption) error {
	o := resolveFormatOpts(opts)
	f, ok := formatRegistry[tag]
	if !ok {
		return &FormatError{Tag: tag}
	}
	if !Compatible(alpha, f.Order()) {
		log.Printf("bwtmerge: warning: alphabet is not compatible with %s (order %s); proceeding",
			f.Name(), AlphabeticOrderName(f.Order()))
	} else if o.verbose {
		log.Printf("bwtmerge: writing %s", f.Name())
	}
	return f.Write(w, bwt, alpha)
}
