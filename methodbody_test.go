// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func TestParseMethodHeaderTiny(t *testing.T) {
	// Tiny header: code_size 3 in the top 6 bits, format bits 10 in the low 2.
	body := []byte{0x2 | (3 << 2), 0x00, 0x01, 0x02}
	hdr, size, err := parseMethodHeader(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hdr.Fat {
		t.Error("Fat = true, want false")
	}
	if hdr.MaxStack != 8 {
		t.Errorf("MaxStack = %d, want 8", hdr.MaxStack)
	}
	if hdr.CodeSize != 3 {
		t.Errorf("CodeSize = %d, want 3", hdr.CodeSize)
	}
	if size != 1 {
		t.Errorf("header size = %d, want 1", size)
	}
}

func TestParseMethodHeaderFat(t *testing.T) {
	body := []byte{
		0x03, 0x30, // flags (format=3=fat) | header size (3 dwords = 12 bytes) << 12
		0x08, 0x00, // max stack = 8
		0x05, 0x00, 0x00, 0x00, // code size = 5
		0x01, 0x00, 0x00, 0x11, // local var sig token = 0x11000001
	}
	hdr, size, err := parseMethodHeader(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hdr.Fat {
		t.Error("Fat = false, want true")
	}
	if hdr.MaxStack != 8 {
		t.Errorf("MaxStack = %d, want 8", hdr.MaxStack)
	}
	if hdr.CodeSize != 5 {
		t.Errorf("CodeSize = %d, want 5", hdr.CodeSize)
	}
	if size != 12 {
		t.Errorf("header size = %d, want 12", size)
	}
	if hdr.LocalVarSigToken.Kind() != TokenStandAloneSig || hdr.LocalVarSigToken.Index() != 1 {
		t.Errorf("LocalVarSigToken = %#x, want StandAloneSig row 1", uint32(hdr.LocalVarSigToken))
	}
}

func TestParseMethodHeaderFatMoreSects(t *testing.T) {
	body := []byte{
		0x0B, 0x30, // format=3 | MoreSects (0x8) | header size 3 dwords
		0x08, 0x00,
		0x01, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	hdr, _, err := parseMethodHeader(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hdr.MoreSects {
		t.Error("MoreSects = false, want true")
	}
}

func TestParseMethodHeaderTruncated(t *testing.T) {
	if _, _, err := parseMethodHeader(nil); err != ErrMalformedMethodHeader {
		t.Errorf("err = %v, want ErrMalformedMethodHeader", err)
	}
	// Fat discriminator but fewer than 12 bytes available.
	if _, _, err := parseMethodHeader([]byte{0x03, 0x30, 0x00}); err != ErrMalformedMethodHeader {
		t.Errorf("err = %v, want ErrMalformedMethodHeader", err)
	}
}
