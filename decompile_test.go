// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"strings"
	"testing"
)

// newDecompileTestImage wires up just enough of a MemberRef table for a
// call to System::Console::WriteLine(string) to resolve.
func newDecompileTestImage() *File {
	strs := StringHeap("\x00System\x00Console\x00WriteLine\x00")
	// HASTHIS, 1 param, void return, param 0 is a string.
	blobs := BlobHeap([]byte{0x00, 0x04, 0x20, 0x01, elemVoid, elemString})
	pe := &File{}
	pe.CLR.Heaps = CLRHeaps{Strings: strs, Blobs: blobs}
	pe.CLR.MetadataTables = map[int]*MetadataTable{
		TypeRef: {Content: []TypeRefTableRow{
			{TypeNamespace: 1, TypeName: 8},
		}},
		MemberRef: {Content: []MemberRefTableRow{
			{Class: (1 << 3) | 1, Name: 16, Signature: 1},
		}},
	}
	return pe
}

func TestDecompileArithmeticAndReturn(t *testing.T) {
	pe := &File{}
	m := DecodedMethod{
		Name: "Add",
		Signature: &StandaloneMethodSignature{
			RetType: Element{Kind: ElemI4},
		},
		Lowered: []Opcode{
			{Kind: OpLoadArg, Index: 0},
			{Kind: OpLoadArg, Index: 1},
			{Kind: OpAdd},
			{Kind: OpReturn},
		},
	}

	out, err := pe.Decompile(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "return (arg0 + arg1);") {
		t.Errorf("output = %q, want a return of (arg0 + arg1)", out)
	}
}

func TestDecompileVoidReturn(t *testing.T) {
	pe := &File{}
	m := DecodedMethod{
		Name:  "DoNothing",
		Flags: MethodAttrStatic,
		Lowered: []Opcode{
			{Kind: OpReturn},
		},
	}

	out, err := pe.Decompile(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "static void DoNothing() {\n") {
		t.Errorf("output = %q, want a static void signature", out)
	}
	if !strings.Contains(out, "    return;\n") {
		t.Errorf("output = %q, want a bare return statement", out)
	}
}

func TestDecompileStoreLocal(t *testing.T) {
	pe := &File{}
	m := DecodedMethod{
		Name:   "Store",
		Locals: []Element{{Kind: ElemI4}},
		Lowered: []Opcode{
			{Kind: OpLoadConstantI4, I4: 42},
			{Kind: OpStoreLocal, Index: 0},
			{Kind: OpReturn},
		},
	}

	out, err := pe.Decompile(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "var0 = 42;") {
		t.Errorf("output = %q, want var0 = 42;", out)
	}
	if !strings.Contains(out, "int32 var0{};") {
		t.Errorf("output = %q, want a declared local var0", out)
	}
}

func TestDecompileBranchEmitsLabel(t *testing.T) {
	pe := &File{}
	m := DecodedMethod{
		Name: "Loop",
		Lowered: []Opcode{
			{Kind: OpBranch, Offset: 0, Size: 2, BranchDelta: 0},
			{Kind: OpNop, Offset: 2, Size: 1},
			{Kind: OpReturn, Offset: 3, Size: 1},
		},
	}

	out, err := pe.Decompile(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "goto IL_0002;") {
		t.Errorf("output = %q, want a goto to IL_0002", out)
	}
	if !strings.Contains(out, "IL_0002:\n") {
		t.Errorf("output = %q, want a label at IL_0002", out)
	}
}

func TestDecompileBranchConditionalTrueFalseForm(t *testing.T) {
	pe := &File{}
	m := DecodedMethod{
		Name: "Check",
		Lowered: []Opcode{
			{Kind: OpLoadArg, Index: 0, Offset: 0, Size: 1},
			{Kind: OpBranchConditional, Comparison: CompareOne, Offset: 1, Size: 2, BranchDelta: 1},
			{Kind: OpReturn, Offset: 3, Size: 1},
		},
	}

	out, err := pe.Decompile(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "if (arg0 == true) goto IL_0004;") {
		t.Errorf("output = %q, want a true-form conditional goto", out)
	}
}

func TestDecompileCallVoidInstanceReordersThis(t *testing.T) {
	pe := newDecompileTestImage()
	tok := NewToken(TokenMemberRef, 1)
	m := DecodedMethod{
		Name: "Greet",
		Lowered: []Opcode{
			{Kind: OpLoadArg, Index: 0},                // this
			{Kind: OpLoadString, Token: NewToken(TokenUserString, 0)},
			{Kind: OpCall, Token: tok},
			{Kind: OpReturn},
		},
	}

	out, err := pe.Decompile(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Console::WriteLine(arg0,") {
		t.Errorf("output = %q, want a Console::WriteLine call with this as first arg", out)
	}
}

func TestDecompileCallUnresolvedTokenPropagatesError(t *testing.T) {
	pe := newDecompileTestImage()
	m := DecodedMethod{
		Name: "Bad",
		Lowered: []Opcode{
			{Kind: OpCall, Token: NewToken(TokenMemberRef, 99)},
		},
	}

	if _, err := pe.Decompile(m); err != ErrUnresolvedToken {
		t.Errorf("err = %v, want ErrUnresolvedToken", err)
	}
}

func TestDecompileStackUnderflowPropagatesError(t *testing.T) {
	pe := &File{}
	m := DecodedMethod{
		Name: "Underflow",
		Lowered: []Opcode{
			{Kind: OpAdd},
		},
	}

	if _, err := pe.Decompile(m); err != ErrStackUnderflow {
		t.Errorf("err = %v, want ErrStackUnderflow", err)
	}
}

func TestTranslateMethodPathStripsThisPrefix(t *testing.T) {
	target := QualifiedTypeName{Name: "this"}
	if got := translateMethodPath(target, "Helper"); got != "Helper" {
		t.Errorf("translateMethodPath = %q, want Helper", got)
	}
}
