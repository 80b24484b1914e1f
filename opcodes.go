// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "math"

// operandKind classifies how many bytes follow an opcode and how they
// should be interpreted.
type operandKind uint8

const (
	operandNone operandKind = iota
	operandInt8
	operandUint8
	operandInt32
	operandInt64
	operandFloat32
	operandFloat64
	operandUint16
	operandToken
	operandBranchTargetShort // i8, relative to the instruction following it
	operandBranchTarget      // i32, relative to the instruction following it
	operandSwitch            // u32 count, followed by count x i32 relative targets
)

// opcodeDef is one row of the CIL opcode table: the two-byte code (single
// byte opcodes are stored with a zero high byte), its mnemonic, and how to
// decode its operand.
type opcodeDef struct {
	code    uint16
	name    string
	operand operandKind
}

// opcodeTable is the full ECMA-335 Partition III opcode list. It is a data
// table, not logic: every entry maps a byte (or 0xFE-prefixed byte pair) to
// its name and operand shape, mirroring how the CLR's own opcode.def reads.
var opcodeTable = []opcodeDef{
	{0x00, "nop", operandNone},
	{0x01, "break", operandNone},
	{0x02, "ldarg.0", operandNone},
	{0x03, "ldarg.1", operandNone},
	{0x04, "ldarg.2", operandNone},
	{0x05, "ldarg.3", operandNone},
	{0x06, "ldloc.0", operandNone},
	{0x07, "ldloc.1", operandNone},
	{0x08, "ldloc.2", operandNone},
	{0x09, "ldloc.3", operandNone},
	{0x0A, "stloc.0", operandNone},
	{0x0B, "stloc.1", operandNone},
	{0x0C, "stloc.2", operandNone},
	{0x0D, "stloc.3", operandNone},
	{0x0E, "ldarg.s", operandUint8},
	{0x0F, "ldarga.s", operandUint8},
	{0x10, "starg.s", operandUint8},
	{0x11, "ldloc.s", operandUint8},
	{0x12, "ldloca.s", operandUint8},
	{0x13, "stloc.s", operandUint8},
	{0x14, "ldnull", operandNone},
	{0x15, "ldc.i4.m1", operandNone},
	{0x16, "ldc.i4.0", operandNone},
	{0x17, "ldc.i4.1", operandNone},
	{0x18, "ldc.i4.2", operandNone},
	{0x19, "ldc.i4.3", operandNone},
	{0x1A, "ldc.i4.4", operandNone},
	{0x1B, "ldc.i4.5", operandNone},
	{0x1C, "ldc.i4.6", operandNone},
	{0x1D, "ldc.i4.7", operandNone},
	{0x1E, "ldc.i4.8", operandNone},
	{0x1F, "ldc.i4.s", operandInt8},
	{0x20, "ldc.i4", operandInt32},
	{0x21, "ldc.i8", operandInt64},
	{0x22, "ldc.r4", operandFloat32},
	{0x23, "ldc.r8", operandFloat64},
	{0x25, "dup", operandNone},
	{0x26, "pop", operandNone},
	{0x27, "jmp", operandToken},
	{0x28, "call", operandToken},
	{0x29, "calli", operandToken},
	{0x2A, "ret", operandNone},
	{0x2B, "br.s", operandBranchTargetShort},
	{0x2C, "brfalse.s", operandBranchTargetShort},
	{0x2D, "brtrue.s", operandBranchTargetShort},
	{0x2E, "beq.s", operandBranchTargetShort},
	{0x2F, "bge.s", operandBranchTargetShort},
	{0x30, "bgt.s", operandBranchTargetShort},
	{0x31, "ble.s", operandBranchTargetShort},
	{0x32, "blt.s", operandBranchTargetShort},
	{0x33, "bne.un.s", operandBranchTargetShort},
	{0x34, "bge.un.s", operandBranchTargetShort},
	{0x35, "bgt.un.s", operandBranchTargetShort},
	{0x36, "ble.un.s", operandBranchTargetShort},
	{0x37, "blt.un.s", operandBranchTargetShort},
	{0x38, "br", operandBranchTarget},
	{0x39, "brfalse", operandBranchTarget},
	{0x3A, "brtrue", operandBranchTarget},
	{0x3B, "beq", operandBranchTarget},
	{0x3C, "bge", operandBranchTarget},
	{0x3D, "bgt", operandBranchTarget},
	{0x3E, "ble", operandBranchTarget},
	{0x3F, "blt", operandBranchTarget},
	{0x40, "bne.un", operandBranchTarget},
	{0x41, "bge.un", operandBranchTarget},
	{0x42, "bgt.un", operandBranchTarget},
	{0x43, "ble.un", operandBranchTarget},
	{0x44, "blt.un", operandBranchTarget},
	{0x45, "switch", operandSwitch},
	{0x46, "ldind.i1", operandNone},
	{0x47, "ldind.u1", operandNone},
	{0x48, "ldind.i2", operandNone},
	{0x49, "ldind.u2", operandNone},
	{0x4A, "ldind.i4", operandNone},
	{0x4B, "ldind.u4", operandNone},
	{0x4C, "ldind.i8", operandNone},
	{0x4D, "ldind.i", operandNone},
	{0x4E, "ldind.r4", operandNone},
	{0x4F, "ldind.r8", operandNone},
	{0x50, "ldind.ref", operandNone},
	{0x51, "stind.ref", operandNone},
	{0x52, "stind.i1", operandNone},
	{0x53, "stind.i2", operandNone},
	{0x54, "stind.i4", operandNone},
	{0x55, "stind.i8", operandNone},
	{0x56, "stind.r4", operandNone},
	{0x57, "stind.r8", operandNone},
	{0x58, "add", operandNone},
	{0x59, "sub", operandNone},
	{0x5A, "mul", operandNone},
	{0x5B, "div", operandNone},
	{0x5C, "div.un", operandNone},
	{0x5D, "rem", operandNone},
	{0x5E, "rem.un", operandNone},
	{0x5F, "and", operandNone},
	{0x60, "or", operandNone},
	{0x61, "xor", operandNone},
	{0x62, "shl", operandNone},
	{0x63, "shr", operandNone},
	{0x64, "shr.un", operandNone},
	{0x65, "neg", operandNone},
	{0x66, "not", operandNone},
	{0x67, "conv.i1", operandNone},
	{0x68, "conv.i2", operandNone},
	{0x69, "conv.i4", operandNone},
	{0x6A, "conv.i8", operandNone},
	{0x6B, "conv.r4", operandNone},
	{0x6C, "conv.r8", operandNone},
	{0x6D, "conv.u4", operandNone},
	{0x6E, "conv.u8", operandNone},
	{0x6F, "callvirt", operandToken},
	{0x70, "cpobj", operandToken},
	{0x71, "ldobj", operandToken},
	{0x72, "ldstr", operandToken},
	{0x73, "newobj", operandToken},
	{0x74, "castclass", operandToken},
	{0x75, "isinst", operandToken},
	{0x76, "conv.r.un", operandNone},
	{0x79, "unbox", operandToken},
	{0x7A, "throw", operandNone},
	{0x7B, "ldfld", operandToken},
	{0x7C, "ldflda", operandToken},
	{0x7D, "stfld", operandToken},
	{0x7E, "ldsfld", operandToken},
	{0x7F, "ldsflda", operandToken},
	{0x80, "stsfld", operandToken},
	{0x81, "stobj", operandToken},
	{0x82, "conv.ovf.i1.un", operandNone},
	{0x83, "conv.ovf.i2.un", operandNone},
	{0x84, "conv.ovf.i4.un", operandNone},
	{0x85, "conv.ovf.i8.un", operandNone},
	{0x86, "conv.ovf.u1.un", operandNone},
	{0x87, "conv.ovf.u2.un", operandNone},
	{0x88, "conv.ovf.u4.un", operandNone},
	{0x89, "conv.ovf.u8.un", operandNone},
	{0x8A, "conv.ovf.i.un", operandNone},
	{0x8B, "conv.ovf.u.un", operandNone},
	{0x8C, "box", operandToken},
	{0x8D, "newarr", operandToken},
	{0x8E, "ldlen", operandNone},
	{0x8F, "ldelema", operandToken},
	{0x90, "ldelem.i1", operandNone},
	{0x91, "ldelem.u1", operandNone},
	{0x92, "ldelem.i2", operandNone},
	{0x93, "ldelem.u2", operandNone},
	{0x94, "ldelem.i4", operandNone},
	{0x95, "ldelem.u4", operandNone},
	{0x96, "ldelem.i8", operandNone},
	{0x97, "ldelem.i", operandNone},
	{0x98, "ldelem.r4", operandNone},
	{0x99, "ldelem.r8", operandNone},
	{0x9A, "ldelem.ref", operandNone},
	{0x9B, "stelem.i", operandNone},
	{0x9C, "stelem.i1", operandNone},
	{0x9D, "stelem.i2", operandNone},
	{0x9E, "stelem.i4", operandNone},
	{0x9F, "stelem.i8", operandNone},
	{0xA0, "stelem.r4", operandNone},
	{0xA1, "stelem.r8", operandNone},
	{0xA2, "stelem.ref", operandNone},
	{0xA3, "ldelem", operandToken},
	{0xA4, "stelem", operandToken},
	{0xA5, "unbox.any", operandToken},
	{0xB3, "conv.ovf.i1", operandNone},
	{0xB4, "conv.ovf.u1", operandNone},
	{0xB5, "conv.ovf.i2", operandNone},
	{0xB6, "conv.ovf.u2", operandNone},
	{0xB7, "conv.ovf.i4", operandNone},
	{0xB8, "conv.ovf.u4", operandNone},
	{0xB9, "conv.ovf.i8", operandNone},
	{0xBA, "conv.ovf.u8", operandNone},
	{0xC2, "refanyval", operandToken},
	{0xC3, "ckfinite", operandNone},
	{0xC6, "mkrefany", operandToken},
	{0xD0, "ldtoken", operandToken},
	{0xD1, "conv.u2", operandNone},
	{0xD2, "conv.u1", operandNone},
	{0xD3, "conv.i", operandNone},
	{0xD4, "conv.ovf.i", operandNone},
	{0xD5, "conv.ovf.u", operandNone},
	{0xD6, "add.ovf", operandNone},
	{0xD7, "add.ovf.un", operandNone},
	{0xD8, "mul.ovf", operandNone},
	{0xD9, "mul.ovf.un", operandNone},
	{0xDA, "sub.ovf", operandNone},
	{0xDB, "sub.ovf.un", operandNone},
	{0xDC, "endfinally", operandNone},
	{0xDD, "leave", operandBranchTarget},
	{0xDE, "leave.s", operandBranchTargetShort},
	{0xDF, "stind.i", operandNone},
	{0xE0, "conv.u", operandNone},

	// Two-byte opcodes, prefixed by 0xFE.
	{0xFE00, "arglist", operandNone},
	{0xFE01, "ceq", operandNone},
	{0xFE02, "cgt", operandNone},
	{0xFE03, "cgt.un", operandNone},
	{0xFE04, "clt", operandNone},
	{0xFE05, "clt.un", operandNone},
	{0xFE06, "ldftn", operandToken},
	{0xFE07, "ldvirtftn", operandToken},
	{0xFE09, "ldarg", operandUint16},
	{0xFE0A, "ldarga", operandUint16},
	{0xFE0B, "starg", operandUint16},
	{0xFE0C, "ldloc", operandUint16},
	{0xFE0D, "ldloca", operandUint16},
	{0xFE0E, "stloc", operandUint16},
	{0xFE0F, "localloc", operandNone},
	{0xFE11, "endfilter", operandNone},
	{0xFE12, "unaligned.", operandUint8},
	{0xFE13, "volatile.", operandNone},
	{0xFE14, "tail.", operandNone},
	{0xFE15, "initobj", operandToken},
	{0xFE16, "constrained.", operandToken},
	{0xFE17, "cpblk", operandNone},
	{0xFE18, "initblk", operandNone},
	{0xFE19, "no.", operandUint8},
	{0xFE1A, "rethrow", operandNone},
	{0xFE1C, "sizeof", operandToken},
	{0xFE1D, "refanytype", operandNone},
	{0xFE1E, "readonly.", operandNone},
}

// opcodesByCode is built once from opcodeTable for O(1) decode lookups.
var opcodesByCode = func() map[uint16]opcodeDef {
	m := make(map[uint16]opcodeDef, len(opcodeTable))
	for _, d := range opcodeTable {
		m[d.code] = d
	}
	return m
}()

// RawOpcode is one decoded CIL instruction, still in its raw pre-lowering
// shape: the mnemonic and code as they appear on the wire, plus whichever
// operand field its operandKind populated.
type RawOpcode struct {
	Offset  uint32 `json:"offset"`
	Code    uint16 `json:"code"`
	Name    string `json:"name"`
	Size    uint32 `json:"size"`
	Int8    int8   `json:"-"`
	Int32   int32  `json:"-"`
	Int64   int64  `json:"-"`
	UInt8   uint8  `json:"-"`
	UInt16  uint16 `json:"-"`
	Float32 float32
	Float64 float64
	Token   Token
	Targets []int32 `json:"-"` // switch only, relative to instruction end
}

// decodeRawOpcode reads one instruction starting at off within body (the raw
// method body bytes, already sliced to code_size). It returns the decoded
// opcode and the total number of bytes it occupies, including any prefix and
// operand bytes.
func decodeRawOpcode(body []byte, off uint32) (RawOpcode, uint32, error) {
	if int(off) >= len(body) {
		return RawOpcode{}, 0, ErrOutsideBoundary
	}

	b0 := body[off]
	code := uint16(b0)
	headerSize := uint32(1)
	if b0 == 0xFE {
		if int(off)+1 >= len(body) {
			return RawOpcode{}, 0, ErrOutsideBoundary
		}
		code = 0xFE00 | uint16(body[off+1])
		headerSize = 2
	}

	def, ok := opcodesByCode[code]
	if !ok {
		return RawOpcode{}, 0, &UnimplementedOpcodeError{Opcode: byte(code), Offset: off}
	}

	op := RawOpcode{Offset: off, Code: code, Name: def.name}
	cur := off + headerSize

	readU8 := func() (uint8, error) {
		if int(cur) >= len(body) {
			return 0, ErrOutsideBoundary
		}
		return body[cur], nil
	}
	readU16 := func() (uint16, error) {
		if int(cur)+2 > len(body) {
			return 0, ErrOutsideBoundary
		}
		return uint16(body[cur]) | uint16(body[cur+1])<<8, nil
	}
	readU32 := func() (uint32, error) {
		if int(cur)+4 > len(body) {
			return 0, ErrOutsideBoundary
		}
		return uint32(body[cur]) | uint32(body[cur+1])<<8 | uint32(body[cur+2])<<16 | uint32(body[cur+3])<<24, nil
	}

	switch def.operand {
	case operandNone:
	case operandInt8, operandBranchTargetShort:
		v, err := readU8()
		if err != nil {
			return RawOpcode{}, 0, err
		}
		op.Int8 = int8(v)
		cur++
	case operandUint8:
		v, err := readU8()
		if err != nil {
			return RawOpcode{}, 0, err
		}
		op.UInt8 = v
		cur++
	case operandUint16:
		v, err := readU16()
		if err != nil {
			return RawOpcode{}, 0, err
		}
		op.UInt16 = v
		cur += 2
	case operandInt32, operandToken, operandBranchTarget:
		v, err := readU32()
		if err != nil {
			return RawOpcode{}, 0, err
		}
		switch def.operand {
		case operandToken:
			op.Token = Token(v)
		default:
			op.Int32 = int32(v)
		}
		cur += 4
	case operandInt64:
		lo, err := readU32()
		if err != nil {
			return RawOpcode{}, 0, err
		}
		cur += 4
		hi, err := readU32()
		if err != nil {
			return RawOpcode{}, 0, err
		}
		cur += 4
		op.Int64 = int64(uint64(hi)<<32 | uint64(lo))
	case operandFloat32:
		v, err := readU32()
		if err != nil {
			return RawOpcode{}, 0, err
		}
		op.Float32 = math.Float32frombits(v)
		cur += 4
	case operandFloat64:
		lo, err := readU32()
		if err != nil {
			return RawOpcode{}, 0, err
		}
		cur += 4
		hi, err := readU32()
		if err != nil {
			return RawOpcode{}, 0, err
		}
		cur += 4
		op.Float64 = math.Float64frombits(uint64(hi)<<32 | uint64(lo))
	case operandSwitch:
		n, err := readU32()
		if err != nil {
			return RawOpcode{}, 0, err
		}
		cur += 4
		targets := make([]int32, n)
		for i := uint32(0); i < n; i++ {
			v, err := readU32()
			if err != nil {
				return RawOpcode{}, 0, err
			}
			targets[i] = int32(v)
			cur += 4
		}
		op.Targets = targets
	}

	op.Size = cur - off
	return op, op.Size, nil
}
