// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

// newTestImage builds a minimal in-memory File with just enough metadata
// tables and heaps wired up to exercise token resolution, without going
// through the PE/CLI container parse at all.
func newTestImage() *File {
	strings := StringHeap("\x00System\x00Console\x00WriteLine\x00Foo\x00")
	pe := &File{}
	pe.CLR.Heaps = CLRHeaps{Strings: strings}
	pe.CLR.MetadataTables = map[int]*MetadataTable{
		TypeRef: {Content: []TypeRefTableRow{
			{TypeNamespace: 1, TypeName: 8}, // System.Console
		}},
		MemberRef: {Content: []MemberRefTableRow{
			// MemberRefParent coded index: 3 tag bits, tag 1 = TypeRef, row 1.
			{Class: (1 << 3) | 1, Name: 16}, // Name = WriteLine
		}},
		MethodDef: {Content: []MethodDefTableRow{
			{Name: 26, Flags: 0}, // Foo
		}},
	}
	return pe
}

func TestResolveTypeDefOrRef(t *testing.T) {
	pe := newTestImage()
	// TypeDefOrRef coded index: tag bits = 2, tag 1 (TypeRef), row 1 -> (1<<2)|1 = 5.
	name, err := pe.resolveTypeDefOrRef(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name.Namespace != "System" || name.Name != "Console" {
		t.Errorf("resolveTypeDefOrRef(5) = %+v, want System.Console", name)
	}
	if name.PathCxx() != "System::Console" {
		t.Errorf("PathCxx() = %q, want System::Console", name.PathCxx())
	}
}

func TestResolveMethodMemberRef(t *testing.T) {
	pe := newTestImage()
	tok := NewToken(TokenMemberRef, 1)
	resolved, err := pe.resolveMethod(tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Name != "WriteLine" {
		t.Errorf("Name = %q, want WriteLine", resolved.Name)
	}
	if resolved.DeclaringType.Namespace != "System" || resolved.DeclaringType.Name != "Console" {
		t.Errorf("DeclaringType = %+v, want System.Console", resolved.DeclaringType)
	}
}

func TestResolveMethodMethodDefUsesThisPlaceholder(t *testing.T) {
	pe := newTestImage()
	tok := NewToken(TokenMethodDef, 1)
	resolved, err := pe.resolveMethod(tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Name != "Foo" {
		t.Errorf("Name = %q, want Foo", resolved.Name)
	}
	if resolved.DeclaringType.Name != "this" {
		t.Errorf("DeclaringType.Name = %q, want \"this\"", resolved.DeclaringType.Name)
	}
	if got := translateMethodPath(resolved.DeclaringType, resolved.Name); got != "Foo" {
		t.Errorf("translateMethodPath = %q, want Foo (this:: stripped)", got)
	}
}

func TestResolveMethodUnknownToken(t *testing.T) {
	pe := newTestImage()
	tok := NewToken(TokenMethodDef, 99)
	if _, err := pe.resolveMethod(tok); err != ErrUnresolvedToken {
		t.Errorf("err = %v, want ErrUnresolvedToken", err)
	}
}

func TestTranslateMethodPathConstructor(t *testing.T) {
	target := QualifiedTypeName{Namespace: "System", Name: "Object"}
	if got := translateMethodPath(target, ".ctor"); got != "System::Object::new" {
		t.Errorf("translateMethodPath(.ctor) = %q, want System::Object::new", got)
	}
}
