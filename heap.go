// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "unicode/utf8"

// StringHeap is the NUL-terminated UTF-8 "#Strings" blob. Index 0 always
// denotes the empty string.
type StringHeap []byte

// Get returns the string starting at byte i, extending until the first NUL
// byte. It is total over [0, len(heap)) and never panics.
func (h StringHeap) Get(i uint32) (string, error) {
	if i == 0 || int(i) >= len(h) {
		return "", nil
	}
	end := int(i)
	for end < len(h) && h[end] != 0 {
		end++
	}
	s := h[i:end]
	if !utf8.Valid(s) {
		return "", ErrInvalidUTF8String
	}
	return string(s), nil
}

// BlobHeap is the "#Blob" heap: a sequence of compressed-length-prefixed
// opaque byte runs.
type BlobHeap []byte

// Get reads a compressed length at i and returns the following length bytes
// as a view into the heap.
func (h BlobHeap) Get(i uint32) ([]byte, error) {
	if i == 0 || int(i) >= len(h) {
		return nil, nil
	}
	length, n, err := readCompressedUint(h, int(i))
	if err != nil {
		return nil, err
	}
	start := int(i) + n
	end := start + int(length)
	if end > len(h) {
		return nil, ErrOutsideBoundary
	}
	return h[start:end], nil
}

// GUIDHeap is the "#GUID" heap: fixed 16-byte records, addressed by a
// 1-based index.
type GUIDHeap []byte

// Get returns the 16-byte record at the 1-based index n.
func (h GUIDHeap) Get(n uint32) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	start := 16 * (int(n) - 1)
	end := start + 16
	if end > len(h) {
		return nil, ErrOutsideBoundary
	}
	return h[start:end], nil
}

// UserStringHeap is the "#US" heap: compressed-length-prefixed, little
// endian UTF-16 strings referenced by UserString tokens.
type UserStringHeap []byte

// Get decodes the length-prefixed UTF-16LE string located at the token's
// row index, excluding the single trailing flag byte the CLR appends to
// every entry.
func (h UserStringHeap) Get(index uint32) (string, error) {
	if index == 0 || int(index) >= len(h) {
		return "", nil
	}
	length, n, err := readCompressedUint(h, int(index))
	if err != nil {
		return "", err
	}
	start := int(index) + n
	end := start + int(length)
	if end > len(h) {
		return "", ErrOutsideBoundary
	}
	raw := h[start:end]
	// The trailing byte is a "has special characters" flag, not part of
	// the UTF-16 payload; only whole 16-bit code units precede it.
	usable := len(raw)
	if usable%2 == 1 {
		usable--
	}
	return DecodeUTF16String(raw[:usable])
}

// CLRHeaps holds the four immutable heaps materialized from the metadata
// stream directory. Once constructed they are never modified; every view
// returned from a Get call logically borrows from the underlying image
// bytes.
type CLRHeaps struct {
	Strings     StringHeap
	UserStrings UserStringHeap
	Blobs       BlobHeap
	GUIDs       GUIDHeap
}

// loadHeaps slices the four named streams saved during parseCLRHeaderDirectory
// into their typed heap views. Each of "#Strings", "#US", "#Blob" and "#GUID"
// must appear in the stream directory (a zero-length stream is accepted);
// a missing one returns ErrMissingStream, as a missing "#~"/"#-" already did
// earlier in the load.
func (pe *File) loadHeaps() error {
	for _, name := range []string{"#Strings", "#US", "#Blob", "#GUID"} {
		if _, ok := pe.CLR.MetadataStreams[name]; !ok {
			return ErrMissingStream
		}
	}
	pe.CLR.Heaps = CLRHeaps{
		Strings:     StringHeap(pe.CLR.MetadataStreams["#Strings"]),
		UserStrings: UserStringHeap(pe.CLR.MetadataStreams["#US"]),
		Blobs:       BlobHeap(pe.CLR.MetadataStreams["#Blob"]),
		GUIDs:       GUIDHeap(pe.CLR.MetadataStreams["#GUID"]),
	}
	return nil
}
