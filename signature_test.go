// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

// int32 Foo(int32, string): DEFAULT calling convention, 2 params.
func TestDecodeMethodSignature(t *testing.T) {
	blob := []byte{
		0x00,       // flags: DEFAULT, no HASTHIS
		0x02,       // param count
		elemI4,     // return type: int32
		elemI4,     // param 1: int32
		elemString, // param 2: string
	}

	sig, n, err := decodeSignatureBlob(blob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(blob) {
		t.Errorf("consumed %d bytes, want %d", n, len(blob))
	}
	if sig.Kind != SignatureStandaloneMethod {
		t.Errorf("Kind = %v, want SignatureStandaloneMethod", sig.Kind)
	}
	if sig.Header.HasThis {
		t.Error("HasThis = true, want false")
	}
	if sig.RetType.Kind != ElemI4 {
		t.Errorf("RetType.Kind = %v, want ElemI4", sig.RetType.Kind)
	}
	if len(sig.Params) != 2 {
		t.Fatalf("len(Params) = %d, want 2", len(sig.Params))
	}
	if sig.Params[0].Kind != ElemI4 || sig.Params[1].Kind != ElemString {
		t.Errorf("Params = %+v, want [ElemI4 ElemString]", sig.Params)
	}
}

func TestDecodeMethodSignatureHasThis(t *testing.T) {
	blob := []byte{0x20, 0x00, elemVoid}
	sig, _, err := decodeSignatureBlob(blob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sig.Header.HasThis {
		t.Error("HasThis = false, want true")
	}
	if sig.RetType.Kind != ElemVoid {
		t.Errorf("RetType.Kind = %v, want ElemVoid", sig.RetType.Kind)
	}
}

func TestDecodeLocalVarSignature(t *testing.T) {
	blob := []byte{0x07, 0x02, elemI4, elemObject}
	sig, _, err := decodeSignatureBlob(blob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Kind != SignatureLocalVar {
		t.Errorf("Kind = %v, want SignatureLocalVar", sig.Kind)
	}
	if len(sig.Locals) != 2 {
		t.Fatalf("len(Locals) = %d, want 2", len(sig.Locals))
	}
	if sig.Locals[0].Kind != ElemI4 || sig.Locals[1].Kind != ElemObject {
		t.Errorf("Locals = %+v, want [ElemI4 ElemObject]", sig.Locals)
	}
}

func TestDecodeElementSzArray(t *testing.T) {
	elem, n, err := decodeElement([]byte{elemSzArray, elemI4}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("consumed %d bytes, want 2", n)
	}
	if elem.Kind != ElemSzArray || elem.Inner == nil || elem.Inner.Kind != ElemI4 {
		t.Errorf("elem = %+v, want SzArray(I4)", elem)
	}
}

func TestDecodeElementValueType(t *testing.T) {
	// TypeDefOrRef coded index: row 5, tag 1 (TypeRef) -> (5<<2)|1 = 0x15.
	elem, n, err := decodeElement([]byte{elemValueType, 0x15}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("consumed %d bytes, want 2", n)
	}
	if elem.Kind != ElemValueType {
		t.Errorf("Kind = %v, want ElemValueType", elem.Kind)
	}
	if elem.TypeToken.Kind() != TokenTypeRef || elem.TypeToken.Index() != 5 {
		t.Errorf("TypeToken = %#x, want TypeRef row 5", uint32(elem.TypeToken))
	}
}

func TestDecodeElementGenericInst(t *testing.T) {
	// List<int32>: GENERICINST CLASS <typeref row 1> 01 I4
	blob := []byte{elemGenericInst, elemClass, 0x05, 0x01, elemI4}
	elem, n, err := decodeElement(blob, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(blob) {
		t.Errorf("consumed %d bytes, want %d", n, len(blob))
	}
	if elem.Kind != ElemGenericInst {
		t.Fatalf("Kind = %v, want ElemGenericInst", elem.Kind)
	}
	if elem.GenericHead.Kind != ElemClass {
		t.Errorf("GenericHead.Kind = %v, want ElemClass", elem.GenericHead.Kind)
	}
	if len(elem.GenericArgs) != 1 || elem.GenericArgs[0].Kind != ElemI4 {
		t.Errorf("GenericArgs = %+v, want [ElemI4]", elem.GenericArgs)
	}
}

func TestDecodeElementTruncated(t *testing.T) {
	if _, _, err := decodeElement([]byte{}, 0); err != ErrTruncatedSignature {
		t.Errorf("err = %v, want ErrTruncatedSignature", err)
	}
	if _, _, err := decodeElement([]byte{elemSzArray}, 0); err != ErrTruncatedSignature {
		t.Errorf("err = %v, want ErrTruncatedSignature", err)
	}
}

func TestDecodeElementUnknownTag(t *testing.T) {
	if _, _, err := decodeElement([]byte{0x7F}, 0); err != ErrUnknownElementTag {
		t.Errorf("err = %v, want ErrUnknownElementTag", err)
	}
}
