// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func TestReadCompressedUintForms(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantVal  uint32
		wantSize int
	}{
		{"one byte zero", []byte{0x00}, 0, 1},
		{"one byte max", []byte{0x7F}, 0x7F, 1},
		{"two byte min", []byte{0x80, 0x80}, 0x80, 2},
		{"two byte max", []byte{0xBF, 0xFF}, 0x3FFF, 2},
		{"four byte min", []byte{0xC0, 0x00, 0x40, 0x00}, 0x4000, 4},
		{"four byte max", []byte{0xDF, 0xFF, 0xFF, 0xFF}, 0x1FFFFFFF, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, size, err := readCompressedUint(tt.data, 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if val != tt.wantVal || size != tt.wantSize {
				t.Errorf("readCompressedUint(%v) = (%#x, %d), want (%#x, %d)",
					tt.data, val, size, tt.wantVal, tt.wantSize)
			}
		})
	}
}

func TestReadCompressedUintTruncated(t *testing.T) {
	// A two-byte form with only one byte available must fail, not panic
	// or silently read past the end.
	if _, _, err := readCompressedUint([]byte{0x80}, 0); err != ErrOutsideBoundary {
		t.Errorf("got err = %v, want ErrOutsideBoundary", err)
	}
	if _, _, err := readCompressedUint([]byte{}, 0); err != ErrOutsideBoundary {
		t.Errorf("got err = %v, want ErrOutsideBoundary", err)
	}
}

func TestReadCompressedUintMalformed(t *testing.T) {
	if _, _, err := readCompressedUint([]byte{0xFF}, 0); err != ErrMalformedVarint {
		t.Errorf("got err = %v, want ErrMalformedVarint", err)
	}
}

func TestReadCompressedUintOffset(t *testing.T) {
	data := []byte{0xAA, 0xAA, 0x05}
	val, size, err := readCompressedUint(data, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 5 || size != 1 {
		t.Errorf("readCompressedUint at offset 2 = (%d, %d), want (5, 1)", val, size)
	}
}
