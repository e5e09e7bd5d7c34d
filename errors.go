// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bwtmerge

import "fmt"

// HeaderError reports a fatal problem with a serialized header: an
// unrecognized magic/tag, a flag combination the reader doesn't know how
// to interpret, or a size that contradicts the rest of the file. Loading
// never recovers from one of these; the caller is expected to abandon the
// file.
type HeaderError struct {
	Format string // "native" or "sga".
	Reason string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("bwtmerge: invalid %s header: %s", e.Format, e.Reason)
}

// FormatError reports a format tag that isn't registered, or (on write)
// that the encoder recognizes but cannot serve for the data at hand.
type FormatError struct {
	Tag    string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("bwtmerge: unknown format tag %q", e.Tag)
	}
	return fmt.Sprintf("bwtmerge: format %q: %s", e.Tag, e.Reason)
}
