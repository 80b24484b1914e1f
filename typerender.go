// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "fmt"

// DebugPrint renders an Element as a human-readable type name, resolving
// ValueType/Class tokens against pe's metadata tables when possible and
// falling back to a bracketed token when they cannot be resolved (a
// TypeSpec, or a reference into a module that was not loaded).
func (pe *File) DebugPrint(e Element) string {
	switch e.Kind {
	case ElemVoid:
		return "void"
	case ElemBoolean:
		return "bool"
	case ElemChar:
		return "char16"
	case ElemI1:
		return "int8"
	case ElemU1:
		return "uint8"
	case ElemI2:
		return "int16"
	case ElemU2:
		return "uint16"
	case ElemI4:
		return "int32"
	case ElemU4:
		return "uint32"
	case ElemI8:
		return "int64"
	case ElemU8:
		return "uint64"
	case ElemR4:
		return "float"
	case ElemR8:
		return "double"
	case ElemString:
		return "string"
	case ElemIntPtr:
		return "intptr"
	case ElemUIntPtr:
		return "uintptr"
	case ElemObject:
		return "object"
	case ElemPtr:
		return pe.DebugPrint(*e.Inner) + "*"
	case ElemByRef:
		return pe.DebugPrint(*e.Inner) + "&"
	case ElemSzArray:
		return pe.DebugPrint(*e.Inner) + "[]"
	case ElemPinned:
		return "pinned " + pe.DebugPrint(*e.Inner)
	case ElemValueType, ElemClass:
		name, err := pe.typeNameFromTable(int(tokenTableTag(e.TypeToken)), e.TypeToken.Index())
		if err != nil || (name.Namespace == "" && name.Name == "") {
			return fmt.Sprintf("<%08x>", uint32(e.TypeToken))
		}
		return name.PathCxx()
	case ElemVar:
		return fmt.Sprintf("T%d", e.Index)
	case ElemMVar:
		return fmt.Sprintf("M%d", e.Index)
	case ElemGenericInst:
		s := pe.DebugPrint(*e.GenericHead) + "<"
		for i, a := range e.GenericArgs {
			if i > 0 {
				s += ", "
			}
			s += pe.DebugPrint(a)
		}
		return s + ">"
	case ElemCModReq:
		return pe.DebugPrint(*e.Inner) + " modreq"
	case ElemCModOpt:
		return pe.DebugPrint(*e.Inner) + " modopt"
	case ElemFnPtr:
		return "fnptr"
	default:
		return "?"
	}
}

// tokenTableTag maps the TypeDefOrRef token kind stored on an Element's
// TypeToken back to the raw table tag typeNameFromTable expects.
func tokenTableTag(t Token) int {
	switch t.Kind() {
	case TokenTypeDef:
		return TypeDef
	case TokenTypeRef:
		return TypeRef
	case TokenTypeSpec:
		return TypeSpec
	default:
		return -1
	}
}
