// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// OverflowCheck distinguishes unchecked arithmetic from the two checked
// forms the CLR exposes.
type OverflowCheck uint8

const (
	OverflowOff OverflowCheck = iota
	OverflowSigned
	OverflowUnsigned
)

// Comparison names a relational test. One and Zero are the two unary forms
// brtrue/brfalse and their short forms lower to: "is the popped value
// truthy" and "is it falsy", respectively.
type Comparison uint8

const (
	CompareEqual Comparison = iota
	CompareGreater
	CompareGreaterOrEqual
	CompareLess
	CompareLessOrEqual
	CompareNotEqual
	CompareOne
	CompareZero
)

// IsTrueFalse reports whether the comparison is the unary brtrue/brfalse
// form rather than a binary relational operator.
func (c Comparison) IsTrueFalse() bool {
	return c == CompareOne || c == CompareZero
}

// Operator returns the infix operator text for the comparison, e.g. "=="
// for CompareEqual or "== true" for CompareOne.
func (c Comparison) Operator() string {
	switch c {
	case CompareEqual:
		return "=="
	case CompareGreater:
		return ">"
	case CompareGreaterOrEqual:
		return ">="
	case CompareLess:
		return "<"
	case CompareLessOrEqual:
		return "<="
	case CompareNotEqual:
		return "!="
	case CompareOne:
		return "== true"
	case CompareZero:
		return "== false"
	default:
		return "?"
	}
}

// OpcodeKind names the shape of a lowered Opcode, since Go has no sum types:
// every Opcode carries the fields relevant to its Kind and zero values
// elsewhere.
type OpcodeKind uint8

const (
	OpNop OpcodeKind = iota
	OpBreak
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpRemainder
	OpCompare
	OpShiftLeft
	OpShiftRight
	OpAnd
	OpOr
	OpXor
	OpLoadString
	OpLoadConstantI4
	OpLoadConstantI8
	OpLoadConstantR4
	OpLoadConstantR8
	OpLoadArg
	OpLoadArgAddress
	OpLoadLocal
	OpLoadLocalAddress
	OpStoreLocal
	OpCall
	OpReturn
	OpBranch
	OpBranchConditional
	OpSwitch
	OpSetField
	OpConvertToI1
	OpConvertToI2
	OpConvertToI4
	OpConvertToI8
	OpUnimplemented
)

// Opcode is one canonical, lowered instruction: the lossy but decompiler-
// friendly algebra the raw ~220-entry wire format collapses into, folding
// per-index variants like ldarg.0..ldarg.3 into a single LoadArg(n) shape.
type Opcode struct {
	Kind        OpcodeKind
	Offset      uint32
	Size        uint32
	Overflow    OverflowCheck
	Comparison  Comparison
	Unsigned    bool
	Token       Token
	I4          int32
	I8          int64
	R4          float32
	R8          float64
	Index       uint16
	BranchDelta int32
	Targets     []int32
	RawName     string // only set for OpUnimplemented, for diagnostics
}

// lowerOpcode converts one decoded RawOpcode into its canonical Opcode.
// Lowering is total over the subset of the instruction set a decompiler
// needs to reconstruct expression trees; any raw opcode outside that subset
// lowers to OpUnimplemented rather than failing the whole method, since one
// unsupported instruction in a large method body shouldn't discard the
// instructions around it.
func lowerOpcode(raw RawOpcode) Opcode {
	op := Opcode{Offset: raw.Offset, Size: raw.Size}

	switch raw.Name {
	case "nop":
		op.Kind = OpNop
	case "break":
		op.Kind = OpBreak

	case "add":
		op.Kind, op.Overflow = OpAdd, OverflowOff
	case "add.ovf":
		op.Kind, op.Overflow = OpAdd, OverflowSigned
	case "add.ovf.un":
		op.Kind, op.Overflow = OpAdd, OverflowUnsigned
	case "sub":
		op.Kind, op.Overflow = OpSubtract, OverflowOff
	case "sub.ovf":
		op.Kind, op.Overflow = OpSubtract, OverflowSigned
	case "sub.ovf.un":
		op.Kind, op.Overflow = OpSubtract, OverflowUnsigned
	case "mul":
		op.Kind, op.Overflow = OpMultiply, OverflowOff
	case "mul.ovf":
		op.Kind, op.Overflow = OpMultiply, OverflowSigned
	case "mul.ovf.un":
		op.Kind, op.Overflow = OpMultiply, OverflowUnsigned
	case "div":
		op.Kind, op.Unsigned = OpDivide, false
	case "div.un":
		op.Kind, op.Unsigned = OpDivide, true
	case "rem":
		op.Kind, op.Unsigned = OpRemainder, false
	case "rem.un":
		op.Kind, op.Unsigned = OpRemainder, true

	case "and":
		op.Kind = OpAnd
	case "or":
		op.Kind = OpOr
	case "xor":
		op.Kind = OpXor
	case "shl":
		op.Kind = OpShiftLeft
	case "shr", "shr.un":
		op.Kind = OpShiftRight

	case "ceq":
		op.Kind, op.Comparison, op.Unsigned = OpCompare, CompareEqual, false
	case "cgt":
		op.Kind, op.Comparison, op.Unsigned = OpCompare, CompareGreater, false
	case "cgt.un":
		op.Kind, op.Comparison, op.Unsigned = OpCompare, CompareGreater, true
	case "clt":
		op.Kind, op.Comparison, op.Unsigned = OpCompare, CompareLess, false
	case "clt.un":
		op.Kind, op.Comparison, op.Unsigned = OpCompare, CompareLess, true

	case "ldstr":
		op.Kind, op.Token = OpLoadString, NewToken(TokenUserString, raw.Token.Index())

	case "ldc.i4.m1":
		op.Kind, op.I4 = OpLoadConstantI4, -1
	case "ldc.i4.0":
		op.Kind, op.I4 = OpLoadConstantI4, 0
	case "ldc.i4.1":
		op.Kind, op.I4 = OpLoadConstantI4, 1
	case "ldc.i4.2":
		op.Kind, op.I4 = OpLoadConstantI4, 2
	case "ldc.i4.3":
		op.Kind, op.I4 = OpLoadConstantI4, 3
	case "ldc.i4.4":
		op.Kind, op.I4 = OpLoadConstantI4, 4
	case "ldc.i4.5":
		op.Kind, op.I4 = OpLoadConstantI4, 5
	case "ldc.i4.6":
		op.Kind, op.I4 = OpLoadConstantI4, 6
	case "ldc.i4.7":
		op.Kind, op.I4 = OpLoadConstantI4, 7
	case "ldc.i4.8":
		op.Kind, op.I4 = OpLoadConstantI4, 8
	case "ldc.i4.s":
		op.Kind, op.I4 = OpLoadConstantI4, int32(raw.Int8)
	case "ldc.i4":
		op.Kind, op.I4 = OpLoadConstantI4, raw.Int32
	case "ldc.i8":
		op.Kind, op.I8 = OpLoadConstantI8, raw.Int64
	case "ldc.r4":
		op.Kind, op.R4 = OpLoadConstantR4, raw.Float32
	case "ldc.r8":
		op.Kind, op.R8 = OpLoadConstantR8, raw.Float64

	case "ldarg.0":
		op.Kind, op.Index = OpLoadArg, 0
	case "ldarg.1":
		op.Kind, op.Index = OpLoadArg, 1
	case "ldarg.2":
		op.Kind, op.Index = OpLoadArg, 2
	case "ldarg.3":
		op.Kind, op.Index = OpLoadArg, 3
	case "ldarg.s":
		op.Kind, op.Index = OpLoadArg, uint16(raw.UInt8)
	case "ldarg":
		op.Kind, op.Index = OpLoadArg, raw.UInt16
	case "ldarga.s":
		op.Kind, op.Index = OpLoadArgAddress, uint16(raw.UInt8)
	case "ldarga":
		op.Kind, op.Index = OpLoadArgAddress, raw.UInt16

	case "ldloc.0":
		op.Kind, op.Index = OpLoadLocal, 0
	case "ldloc.1":
		op.Kind, op.Index = OpLoadLocal, 1
	case "ldloc.2":
		op.Kind, op.Index = OpLoadLocal, 2
	case "ldloc.3":
		op.Kind, op.Index = OpLoadLocal, 3
	case "ldloc.s":
		op.Kind, op.Index = OpLoadLocal, uint16(raw.UInt8)
	case "ldloc":
		op.Kind, op.Index = OpLoadLocal, raw.UInt16
	case "ldloca.s":
		op.Kind, op.Index = OpLoadLocalAddress, uint16(raw.UInt8)
	case "ldloca":
		op.Kind, op.Index = OpLoadLocalAddress, raw.UInt16

	case "stloc.0":
		op.Kind, op.Index = OpStoreLocal, 0
	case "stloc.1":
		op.Kind, op.Index = OpStoreLocal, 1
	case "stloc.2":
		op.Kind, op.Index = OpStoreLocal, 2
	case "stloc.3":
		op.Kind, op.Index = OpStoreLocal, 3
	case "stloc.s":
		op.Kind, op.Index = OpStoreLocal, uint16(raw.UInt8)
	case "stloc":
		op.Kind, op.Index = OpStoreLocal, raw.UInt16

	case "call", "callvirt":
		op.Kind, op.Token = OpCall, raw.Token
	case "ret":
		op.Kind = OpReturn

	case "br":
		op.Kind, op.BranchDelta = OpBranch, raw.Int32
	case "br.s":
		op.Kind, op.BranchDelta = OpBranch, int32(raw.Int8)

	case "beq":
		op.Kind, op.Comparison, op.BranchDelta = OpBranchConditional, CompareEqual, raw.Int32
	case "beq.s":
		op.Kind, op.Comparison, op.BranchDelta = OpBranchConditional, CompareEqual, int32(raw.Int8)
	case "bge":
		op.Kind, op.Comparison, op.BranchDelta = OpBranchConditional, CompareGreaterOrEqual, raw.Int32
	case "bge.s":
		op.Kind, op.Comparison, op.BranchDelta = OpBranchConditional, CompareGreaterOrEqual, int32(raw.Int8)
	case "bge.un":
		op.Kind, op.Comparison, op.Unsigned, op.BranchDelta = OpBranchConditional, CompareGreaterOrEqual, true, raw.Int32
	case "bge.un.s":
		op.Kind, op.Comparison, op.Unsigned, op.BranchDelta = OpBranchConditional, CompareGreaterOrEqual, true, int32(raw.Int8)
	case "bgt":
		op.Kind, op.Comparison, op.BranchDelta = OpBranchConditional, CompareGreater, raw.Int32
	case "bgt.s":
		op.Kind, op.Comparison, op.BranchDelta = OpBranchConditional, CompareGreater, int32(raw.Int8)
	case "bgt.un":
		op.Kind, op.Comparison, op.Unsigned, op.BranchDelta = OpBranchConditional, CompareGreater, true, raw.Int32
	case "bgt.un.s":
		op.Kind, op.Comparison, op.Unsigned, op.BranchDelta = OpBranchConditional, CompareGreater, true, int32(raw.Int8)
	case "ble":
		op.Kind, op.Comparison, op.BranchDelta = OpBranchConditional, CompareLessOrEqual, raw.Int32
	case "ble.s":
		op.Kind, op.Comparison, op.BranchDelta = OpBranchConditional, CompareLessOrEqual, int32(raw.Int8)
	case "ble.un":
		op.Kind, op.Comparison, op.Unsigned, op.BranchDelta = OpBranchConditional, CompareLessOrEqual, true, raw.Int32
	case "ble.un.s":
		op.Kind, op.Comparison, op.Unsigned, op.BranchDelta = OpBranchConditional, CompareLessOrEqual, true, int32(raw.Int8)
	case "blt":
		op.Kind, op.Comparison, op.BranchDelta = OpBranchConditional, CompareLess, raw.Int32
	case "blt.s":
		op.Kind, op.Comparison, op.BranchDelta = OpBranchConditional, CompareLess, int32(raw.Int8)
	case "blt.un":
		op.Kind, op.Comparison, op.Unsigned, op.BranchDelta = OpBranchConditional, CompareLess, true, raw.Int32
	case "blt.un.s":
		op.Kind, op.Comparison, op.Unsigned, op.BranchDelta = OpBranchConditional, CompareLess, true, int32(raw.Int8)
	case "bne.un":
		op.Kind, op.Comparison, op.Unsigned, op.BranchDelta = OpBranchConditional, CompareNotEqual, true, raw.Int32
	case "bne.un.s":
		op.Kind, op.Comparison, op.Unsigned, op.BranchDelta = OpBranchConditional, CompareNotEqual, true, int32(raw.Int8)
	case "brfalse":
		op.Kind, op.Comparison, op.BranchDelta = OpBranchConditional, CompareZero, raw.Int32
	case "brfalse.s":
		op.Kind, op.Comparison, op.BranchDelta = OpBranchConditional, CompareZero, int32(raw.Int8)
	case "brtrue":
		op.Kind, op.Comparison, op.BranchDelta = OpBranchConditional, CompareOne, raw.Int32
	case "brtrue.s":
		op.Kind, op.Comparison, op.BranchDelta = OpBranchConditional, CompareOne, int32(raw.Int8)

	case "switch":
		op.Kind, op.Targets = OpSwitch, raw.Targets

	case "stfld", "stsfld":
		op.Kind, op.Token = OpSetField, raw.Token

	case "conv.i1":
		op.Kind = OpConvertToI1
	case "conv.i2":
		op.Kind = OpConvertToI2
	case "conv.i4":
		op.Kind = OpConvertToI4
	case "conv.i8":
		op.Kind = OpConvertToI8

	default:
		op.Kind = OpUnimplemented
		op.RawName = raw.Name
	}

	return op
}
