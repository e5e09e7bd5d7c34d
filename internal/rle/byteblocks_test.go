// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package rle_test

import (
	"bytes"
	"testing"

	"github.com/Colelyman/bwt-merge/internal/rle"
)

func TestByteBlocksAppendAndRead(t *testing.T) {
	b := rle.NewByteBlocks()
	data := make([]byte, rle.BlockSize*3+17)
	for i := range data {
		data[i] = byte(i)
	}
	b.Append(data)
	if got, want := b.Len(), uint64(len(data)); got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
	for i, want := range data {
		if got := b.ReadByte(uint64(i)); got != want {
			t.Fatalf("ReadByte(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestByteBlocksTrimToPosition(t *testing.T) {
	b := rle.NewByteBlocks()
	data := make([]byte, rle.BlockSize*4)
	for i := range data {
		data[i] = byte(i % 251)
	}
	b.Append(data)
	b.TrimToPosition(rle.BlockSize * 2)

	for i := rle.BlockSize * 2; i < len(data); i++ {
		if got, want := b.ReadByte(uint64(i)), data[i]; got != want {
			t.Fatalf("ReadByte(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestByteBlocksTrimPanicsOnTrimmedRead(t *testing.T) {
	b := rle.NewByteBlocks()
	b.Append(make([]byte, rle.BlockSize*2))
	b.TrimToPosition(rle.BlockSize)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic reading a trimmed position")
		}
	}()
	b.ReadByte(0)
}

func TestByteBlocksSerializeLoadRoundTrip(t *testing.T) {
	b := rle.NewByteBlocks()
	data := make([]byte, rle.BlockSize+100)
	for i := range data {
		data[i] = byte(7 * i)
	}
	b.Append(data)

	var buf bytes.Buffer
	if _, err := b.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	loaded := rle.NewByteBlocks()
	if err := loaded.Load(&buf); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := loaded.Len(), b.Len(); got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
	for i, want := range data {
		if got := loaded.ReadByte(uint64(i)); got != want {
			t.Fatalf("ReadByte(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestByteBlocksSerializeAfterTrimFails(t *testing.T) {
	b := rle.NewByteBlocks()
	b.Append(make([]byte, rle.BlockSize*2))
	b.TrimToPosition(rle.BlockSize)

	var buf bytes.Buffer
	if _, err := b.Serialize(&buf); err == nil {
		t.Fatalf("expected error serializing a trimmed ByteBlocks")
	}
}
