// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func TestTokenKindAndIndex(t *testing.T) {
	tests := []struct {
		kind  TokenKind
		index uint32
	}{
		{TokenMethodDef, 1},
		{TokenTypeRef, 0x123456},
		{TokenMemberRef, 0xFFFFFF},
		{TokenUserString, 0},
		{TokenModule, 1},
	}

	for _, tt := range tests {
		tok := NewToken(tt.kind, tt.index)
		if got := tok.Kind(); got != tt.kind {
			t.Errorf("NewToken(%#x, %#x).Kind() = %#x, want %#x", tt.kind, tt.index, got, tt.kind)
		}
		if got := tok.Index(); got != tt.index {
			t.Errorf("NewToken(%#x, %#x).Index() = %#x, want %#x", tt.kind, tt.index, got, tt.index)
		}
	}
}

func TestTokenIndexMasksOutKind(t *testing.T) {
	// A row index wider than 24 bits must be truncated, never bleed into
	// the kind byte.
	tok := NewToken(TokenMethodDef, 0xFF000001)
	if tok.Kind() != TokenMethodDef {
		t.Errorf("Kind() = %#x, want TokenMethodDef", tok.Kind())
	}
	if tok.Index() != 0x000001 {
		t.Errorf("Index() = %#x, want 0x000001", tok.Index())
	}
}
