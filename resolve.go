// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "strings"

// QualifiedTypeName is a type's namespace-qualified name as it appears in
// metadata, e.g. namespace "System.Collections" + name "List`1".
type QualifiedTypeName struct {
	Namespace string
	Name      string
}

// String renders the name the way the CLR displays it: "Namespace.Name", or
// bare "Name" when there is no namespace.
func (t QualifiedTypeName) String() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// PathCxx renders the qualified name with "::" namespace separators, the
// convention a native-code reader of the decompiled output expects.
func (t QualifiedTypeName) PathCxx() string {
	return strings.ReplaceAll(t.String(), ".", "::")
}

// decodeCodedIndex splits a coded-index value into the table tag it
// addresses and the 1-based row number within that table, given the same
// tagbits/idx description used to size the index while reading it.
func decodeCodedIndex(cidx codedidx, value uint32) (tableTag int, row uint32) {
	if cidx.tagbits == 0 {
		return cidx.idx[0], value
	}
	mask := uint32(1)<<cidx.tagbits - 1
	tag := value & mask
	if int(tag) >= len(cidx.idx) {
		return -1, 0
	}
	return cidx.idx[tag], value >> cidx.tagbits
}

// resolveTypeDefOrRef resolves a TypeDefOrRef coded index (used by
// TypeDef.Extends and the signature grammar's ValueType/Class elements)
// into its qualified name. TypeSpec targets have no simple name; an empty
// QualifiedTypeName is returned for them rather than an error, since a
// TypeSpec is itself a structured signature a caller can decode separately.
func (pe *File) resolveTypeDefOrRef(value uint32) (QualifiedTypeName, error) {
	tag, row := decodeCodedIndex(idxTypeDefOrRef, value)
	return pe.typeNameFromTable(tag, row)
}

// resolveMemberRefParent resolves a MemberRefParent coded index (MemberRef's
// Class column) into a qualified name, covering the TypeDef/TypeRef/
// TypeSpec cases the way resolveTypeDefOrRef does, plus ModuleRef (named by
// the referenced module's own name) and MethodDef (a vararg call-site
// parent, named by the method's own name with no namespace).
func (pe *File) resolveMemberRefParent(value uint32) (QualifiedTypeName, error) {
	tag, row := decodeCodedIndex(idxMemberRefParent, value)
	switch tag {
	case ModuleRef:
		rows, ok := pe.tableRows(ModuleRef).([]ModuleRefTableRow)
		if !ok || row == 0 || int(row) > len(rows) {
			return QualifiedTypeName{}, nil
		}
		name, err := pe.CLR.Heaps.Strings.Get(rows[row-1].Name)
		return QualifiedTypeName{Name: name}, err
	case MethodDef:
		rows, ok := pe.tableRows(MethodDef).([]MethodDefTableRow)
		if !ok || row == 0 || int(row) > len(rows) {
			return QualifiedTypeName{}, nil
		}
		name, err := pe.CLR.Heaps.Strings.Get(rows[row-1].Name)
		return QualifiedTypeName{Name: name}, err
	default:
		return pe.typeNameFromTable(tag, row)
	}
}

// typeNameFromTable resolves a (table tag, 1-based row) pair from the
// TypeDef or TypeRef tables into a qualified name.
func (pe *File) typeNameFromTable(tag int, row uint32) (QualifiedTypeName, error) {
	if row == 0 {
		return QualifiedTypeName{}, nil
	}
	switch tag {
	case TypeDef:
		rows, ok := pe.tableRows(TypeDef).([]TypeDefTableRow)
		if !ok || int(row) > len(rows) {
			return QualifiedTypeName{}, nil
		}
		name, err := pe.CLR.Heaps.Strings.Get(rows[row-1].TypeName)
		if err != nil {
			return QualifiedTypeName{}, err
		}
		ns, err := pe.CLR.Heaps.Strings.Get(rows[row-1].TypeNamespace)
		return QualifiedTypeName{Namespace: ns, Name: name}, err
	case TypeRef:
		rows, ok := pe.tableRows(TypeRef).([]TypeRefTableRow)
		if !ok || int(row) > len(rows) {
			return QualifiedTypeName{}, nil
		}
		name, err := pe.CLR.Heaps.Strings.Get(rows[row-1].TypeName)
		if err != nil {
			return QualifiedTypeName{}, err
		}
		ns, err := pe.CLR.Heaps.Strings.Get(rows[row-1].TypeNamespace)
		return QualifiedTypeName{Namespace: ns, Name: name}, err
	case TypeSpec:
		return QualifiedTypeName{}, nil
	default:
		return QualifiedTypeName{}, nil
	}
}

// tableRows returns the boxed row slice stored for tag, or nil if the table
// was never present in the image.
func (pe *File) tableRows(tag int) interface{} {
	table, ok := pe.CLR.MetadataTables[tag]
	if !ok || table == nil {
		return nil
	}
	return table.Content
}

// ResolvedMethod is what resolveMethod recovers about a call-site token:
// the declaring type, the method's own name, and its signature.
type ResolvedMethod struct {
	DeclaringType QualifiedTypeName
	Name          string
	Signature     *StandaloneMethodSignature
}

// resolveMethod recovers the declaring type, name, and signature of a
// MethodDef or MemberRef token, the information a call/callvirt/newobj
// instruction needs to render a human-readable call target. A MethodDef
// has no explicit declaring-type column of its own in the table; it is
// named relative to the synthesized "this" placeholder, matching how a
// direct in-module call is naturally read.
func (pe *File) resolveMethod(tok Token) (*ResolvedMethod, error) {
	switch tok.Kind() {
	case TokenMemberRef:
		rows, ok := pe.tableRows(MemberRef).([]MemberRefTableRow)
		if !ok || tok.Index() == 0 || int(tok.Index()) > len(rows) {
			return nil, ErrUnresolvedToken
		}
		row := rows[tok.Index()-1]

		declType, err := pe.resolveMemberRefParent(row.Class)
		if err != nil {
			return nil, err
		}
		name, err := pe.CLR.Heaps.Strings.Get(row.Name)
		if err != nil {
			return nil, err
		}
		sig, err := pe.resolveMethodSignature(row.Signature)
		if err != nil {
			return nil, err
		}
		return &ResolvedMethod{DeclaringType: declType, Name: name, Signature: sig}, nil

	case TokenMethodDef:
		rows, ok := pe.tableRows(MethodDef).([]MethodDefTableRow)
		if !ok || tok.Index() == 0 || int(tok.Index()) > len(rows) {
			return nil, ErrUnresolvedToken
		}
		row := rows[tok.Index()-1]

		name, err := pe.CLR.Heaps.Strings.Get(row.Name)
		if err != nil {
			return nil, err
		}
		sig, err := pe.resolveMethodSignature(row.Signature)
		if err != nil {
			return nil, err
		}
		return &ResolvedMethod{
			DeclaringType: QualifiedTypeName{Name: "this"},
			Name:          name,
			Signature:     sig,
		}, nil

	default:
		return nil, ErrUnresolvedToken
	}
}
