// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"bytes"
	"testing"
)

func TestStringHeapGet(t *testing.T) {
	heap := StringHeap("\x00Hello\x00World\x00")

	if got, err := heap.Get(0); err != nil || got != "" {
		t.Errorf("Get(0) = (%q, %v), want (\"\", nil)", got, err)
	}
	if got, err := heap.Get(1); err != nil || got != "Hello" {
		t.Errorf("Get(1) = (%q, %v), want (\"Hello\", nil)", got, err)
	}
	if got, err := heap.Get(7); err != nil || got != "World" {
		t.Errorf("Get(7) = (%q, %v), want (\"World\", nil)", got, err)
	}
}

func TestStringHeapGetOutOfRange(t *testing.T) {
	heap := StringHeap("\x00abc\x00")
	if got, err := heap.Get(100); err != nil || got != "" {
		t.Errorf("Get(100) = (%q, %v), want (\"\", nil)", got, err)
	}
}

func TestStringHeapGetInvalidUTF8(t *testing.T) {
	heap := StringHeap([]byte{0x00, 0xFF, 0xFE, 0x00})
	if _, err := heap.Get(1); err != ErrInvalidUTF8String {
		t.Errorf("Get(1) err = %v, want ErrInvalidUTF8String", err)
	}
}

func TestBlobHeapGet(t *testing.T) {
	// index 1: length-prefixed 3-byte blob {0xAA, 0xBB, 0xCC}.
	heap := BlobHeap([]byte{0x00, 0x03, 0xAA, 0xBB, 0xCC})
	got, err := heap.Get(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, []byte{0xAA, 0xBB, 0xCC}) {
		t.Errorf("Get(1) = %v, want [0xAA 0xBB 0xCC]", got)
	}
}

func TestBlobHeapGetZeroIndex(t *testing.T) {
	heap := BlobHeap([]byte{0x00, 0x01, 0xAA})
	got, err := heap.Get(0)
	if err != nil || got != nil {
		t.Errorf("Get(0) = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestBlobHeapGetTruncated(t *testing.T) {
	heap := BlobHeap([]byte{0x00, 0x05, 0xAA})
	if _, err := heap.Get(1); err != ErrOutsideBoundary {
		t.Errorf("Get(1) err = %v, want ErrOutsideBoundary", err)
	}
}

func TestGUIDHeapGet(t *testing.T) {
	guid1 := bytes.Repeat([]byte{0x11}, 16)
	guid2 := bytes.Repeat([]byte{0x22}, 16)
	heap := GUIDHeap(append(append([]byte{}, guid1...), guid2...))

	got, err := heap.Get(1)
	if err != nil || !bytes.Equal(got, guid1) {
		t.Errorf("Get(1) = (%v, %v), want (%v, nil)", got, err, guid1)
	}
	got, err = heap.Get(2)
	if err != nil || !bytes.Equal(got, guid2) {
		t.Errorf("Get(2) = (%v, %v), want (%v, nil)", got, err, guid2)
	}
}

func TestGUIDHeapGetOutOfRange(t *testing.T) {
	heap := GUIDHeap(bytes.Repeat([]byte{0x00}, 16))
	if _, err := heap.Get(2); err != ErrOutsideBoundary {
		t.Errorf("Get(2) err = %v, want ErrOutsideBoundary", err)
	}
}

func TestUserStringHeapGet(t *testing.T) {
	// "hi" in UTF-16LE, length-prefixed (4 bytes payload + trailing flag
	// byte), preceded by a reserved zero entry at index 0.
	payload := []byte{0x68, 0x00, 0x69, 0x00, 0x00}
	data := append([]byte{0x00}, append([]byte{byte(len(payload))}, payload...)...)
	heap := UserStringHeap(data)

	got, err := heap.Get(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hi" {
		t.Errorf("Get(1) = %q, want %q", got, "hi")
	}
}
