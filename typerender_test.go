// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func TestDebugPrintPrimitives(t *testing.T) {
	pe := &File{}
	tests := []struct {
		elem Element
		want string
	}{
		{Element{Kind: ElemVoid}, "void"},
		{Element{Kind: ElemBoolean}, "bool"},
		{Element{Kind: ElemI4}, "int32"},
		{Element{Kind: ElemU8}, "uint64"},
		{Element{Kind: ElemR8}, "double"},
		{Element{Kind: ElemString}, "string"},
		{Element{Kind: ElemObject}, "object"},
	}
	for _, tt := range tests {
		if got := pe.DebugPrint(tt.elem); got != tt.want {
			t.Errorf("DebugPrint(%v) = %q, want %q", tt.elem.Kind, got, tt.want)
		}
	}
}

func TestDebugPrintPointerByRefArray(t *testing.T) {
	pe := &File{}
	i4 := Element{Kind: ElemI4}

	if got := pe.DebugPrint(Element{Kind: ElemPtr, Inner: &i4}); got != "int32*" {
		t.Errorf("Ptr = %q, want int32*", got)
	}
	if got := pe.DebugPrint(Element{Kind: ElemByRef, Inner: &i4}); got != "int32&" {
		t.Errorf("ByRef = %q, want int32&", got)
	}
	if got := pe.DebugPrint(Element{Kind: ElemSzArray, Inner: &i4}); got != "int32[]" {
		t.Errorf("SzArray = %q, want int32[]", got)
	}
	if got := pe.DebugPrint(Element{Kind: ElemPinned, Inner: &i4}); got != "pinned int32" {
		t.Errorf("Pinned = %q, want pinned int32", got)
	}
}

func TestDebugPrintValueTypeResolved(t *testing.T) {
	strs := StringHeap("\x00System\x00Int32\x00")
	pe := &File{}
	pe.CLR.Heaps = CLRHeaps{Strings: strs}
	pe.CLR.MetadataTables = map[int]*MetadataTable{
		TypeRef: {Content: []TypeRefTableRow{
			{TypeNamespace: 1, TypeName: 8},
		}},
	}

	elem := Element{Kind: ElemValueType, TypeToken: NewToken(TokenTypeRef, 1)}
	if got := pe.DebugPrint(elem); got != "System::Int32" {
		t.Errorf("DebugPrint(ValueType) = %q, want System::Int32", got)
	}
}

func TestDebugPrintValueTypeUnresolvedFallsBackToToken(t *testing.T) {
	pe := &File{}
	elem := Element{Kind: ElemValueType, TypeToken: NewToken(TokenTypeSpec, 3)}
	got := pe.DebugPrint(elem)
	if got != "<1b000003>" {
		t.Errorf("DebugPrint(unresolved ValueType) = %q, want bracketed token", got)
	}
}

func TestDebugPrintGenericInst(t *testing.T) {
	strs := StringHeap("\x00System.Collections.Generic\x00List`1\x00")
	pe := &File{}
	pe.CLR.Heaps = CLRHeaps{Strings: strs}
	pe.CLR.MetadataTables = map[int]*MetadataTable{
		TypeRef: {Content: []TypeRefTableRow{
			{TypeNamespace: 1, TypeName: 28},
		}},
	}

	head := Element{Kind: ElemClass, TypeToken: NewToken(TokenTypeRef, 1)}
	elem := Element{
		Kind:        ElemGenericInst,
		GenericHead: &head,
		GenericArgs: []Element{{Kind: ElemI4}},
	}
	want := "System::Collections::Generic::List`1<int32>"
	if got := pe.DebugPrint(elem); got != want {
		t.Errorf("DebugPrint(GenericInst) = %q, want %q", got, want)
	}
}

func TestDebugPrintVarAndMVar(t *testing.T) {
	pe := &File{}
	if got := pe.DebugPrint(Element{Kind: ElemVar, Index: 0}); got != "T0" {
		t.Errorf("Var = %q, want T0", got)
	}
	if got := pe.DebugPrint(Element{Kind: ElemMVar, Index: 1}); got != "M1" {
		t.Errorf("MVar = %q, want M1", got)
	}
}
