// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func TestLowerOpcodeArithmeticOverflow(t *testing.T) {
	tests := []struct {
		name         string
		wantKind     OpcodeKind
		wantOverflow OverflowCheck
	}{
		{"add", OpAdd, OverflowOff},
		{"add.ovf", OpAdd, OverflowSigned},
		{"add.ovf.un", OpAdd, OverflowUnsigned},
		{"sub.ovf", OpSubtract, OverflowSigned},
		{"mul.ovf.un", OpMultiply, OverflowUnsigned},
	}
	for _, tt := range tests {
		op := lowerOpcode(RawOpcode{Name: tt.name})
		if op.Kind != tt.wantKind || op.Overflow != tt.wantOverflow {
			t.Errorf("lowerOpcode(%q) = {Kind: %v, Overflow: %v}, want {%v, %v}",
				tt.name, op.Kind, op.Overflow, tt.wantKind, tt.wantOverflow)
		}
	}
}

func TestLowerOpcodeFoldsIndexedVariants(t *testing.T) {
	tests := []struct {
		name      string
		wantIndex uint16
	}{
		{"ldarg.0", 0}, {"ldarg.1", 1}, {"ldarg.2", 2}, {"ldarg.3", 3},
	}
	for _, tt := range tests {
		op := lowerOpcode(RawOpcode{Name: tt.name})
		if op.Kind != OpLoadArg || op.Index != tt.wantIndex {
			t.Errorf("lowerOpcode(%q) = {Kind: %v, Index: %d}, want {OpLoadArg, %d}",
				tt.name, op.Kind, op.Index, tt.wantIndex)
		}
	}

	op := lowerOpcode(RawOpcode{Name: "ldarg.s", UInt8: 7})
	if op.Kind != OpLoadArg || op.Index != 7 {
		t.Errorf("lowerOpcode(ldarg.s) = {Kind: %v, Index: %d}, want {OpLoadArg, 7}", op.Kind, op.Index)
	}
}

func TestLowerOpcodeComparisonUnsignedFlag(t *testing.T) {
	op := lowerOpcode(RawOpcode{Name: "cgt.un"})
	if op.Kind != OpCompare || op.Comparison != CompareGreater || !op.Unsigned {
		t.Errorf("lowerOpcode(cgt.un) = %+v, want Compare/Greater/unsigned", op)
	}
}

func TestLowerOpcodeBranchDelta(t *testing.T) {
	op := lowerOpcode(RawOpcode{Name: "br.s", Int8: -5, Offset: 10, Size: 2})
	if op.Kind != OpBranch || op.BranchDelta != -5 {
		t.Errorf("lowerOpcode(br.s) = %+v, want Branch/-5", op)
	}

	op = lowerOpcode(RawOpcode{Name: "brtrue", Int32: 100})
	if op.Kind != OpBranchConditional || op.Comparison != CompareOne || op.BranchDelta != 100 {
		t.Errorf("lowerOpcode(brtrue) = %+v, want BranchConditional/One/100", op)
	}
}

func TestLowerOpcodeUnimplementedFallthrough(t *testing.T) {
	op := lowerOpcode(RawOpcode{Name: "box"})
	if op.Kind != OpUnimplemented || op.RawName != "box" {
		t.Errorf("lowerOpcode(box) = %+v, want Unimplemented/box", op)
	}
}

func TestComparisonOperator(t *testing.T) {
	tests := []struct {
		c    Comparison
		want string
	}{
		{CompareEqual, "=="},
		{CompareNotEqual, "!="},
		{CompareOne, "== true"},
		{CompareZero, "== false"},
	}
	for _, tt := range tests {
		if got := tt.c.Operator(); got != tt.want {
			t.Errorf("Comparison(%d).Operator() = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func TestComparisonIsTrueFalse(t *testing.T) {
	if !CompareOne.IsTrueFalse() || !CompareZero.IsTrueFalse() {
		t.Error("CompareOne/CompareZero should be true/false forms")
	}
	if CompareEqual.IsTrueFalse() {
		t.Error("CompareEqual should not be a true/false form")
	}
}
