// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// SignatureKind classifies the blob a signature was decoded from. It is
// determined by the low nibble of the blob's leading byte.
type SignatureKind uint8

const (
	SignatureStandaloneMethod SignatureKind = iota
	SignatureField
	SignatureLocalVar
	SignatureProperty
)

// Element tag bytes, §II.23.2.12 of the ECMA-335 corlib signature grammar.
const (
	elemVoid        = 0x01
	elemBoolean     = 0x02
	elemChar        = 0x03
	elemI1          = 0x04
	elemU1          = 0x05
	elemI2          = 0x06
	elemU2          = 0x07
	elemI4          = 0x08
	elemU4          = 0x09
	elemI8          = 0x0A
	elemU8          = 0x0B
	elemR4          = 0x0C
	elemR8          = 0x0D
	elemString      = 0x0E
	elemPtr         = 0x0F
	elemByRef       = 0x10
	elemValueType   = 0x11
	elemClass       = 0x12
	elemVar         = 0x13
	elemGenericInst = 0x15
	elemIntPtr      = 0x18
	elemUIntPtr     = 0x19
	elemFnPtr       = 0x1B
	elemObject      = 0x1C
	elemSzArray     = 0x1D
	elemMVar        = 0x1E
	elemCModReq     = 0x1F
	elemCModOpt     = 0x20
	elemPinned      = 0x45
)

// ElementKind names an Element's shape, independent of any nested payload.
type ElementKind uint8

const (
	ElemVoid ElementKind = iota
	ElemBoolean
	ElemChar
	ElemI1
	ElemU1
	ElemI2
	ElemU2
	ElemI4
	ElemU4
	ElemI8
	ElemU8
	ElemR4
	ElemR8
	ElemString
	ElemIntPtr
	ElemUIntPtr
	ElemObject
	ElemPtr
	ElemByRef
	ElemSzArray
	ElemPinned
	ElemValueType
	ElemClass
	ElemVar
	ElemMVar
	ElemGenericInst
	ElemCModReq
	ElemCModOpt
	ElemFnPtr
)

// Element is a node in the recursive signature grammar. Only the fields
// relevant to its Kind are populated; Inner holds the single nested element
// for the unary constructors (Ptr, ByRef, SzArray, Pinned, CModReq, CModOpt),
// GenericHead/GenericArgs hold GenericInst's head and type arguments,
// TypeToken holds ValueType/Class/CModReq/CModOpt's TypeDefOrRef coded
// index, Index holds Var/MVar's generic parameter number, and Signature
// holds FnPtr's embedded method signature.
type Element struct {
	Kind        ElementKind
	Inner       *Element
	TypeToken   Token
	Index       uint32
	GenericHead *Element
	GenericArgs []Element
	Signature   *StandaloneMethodSignature
}

// StandaloneMethodSigHeader is the leading byte of a method signature blob,
// decoded into its constituent bit fields.
type StandaloneMethodSigHeader struct {
	HasThis      bool
	ExplicitThis bool
	CallType     uint8 // DEFAULT=0, VARARG=5, GENERIC=0x10 (masked into low nibble)
}

// StandaloneMethodSignature is a fully decoded method, function-pointer, or
// local-variable signature.
type StandaloneMethodSignature struct {
	Kind          SignatureKind
	Header        StandaloneMethodSigHeader
	GenParamCount uint32
	RetType       Element
	Params        []Element
	Locals        []Element // only populated when Kind == SignatureLocalVar
}

// decodeSignatureBlob decodes the blob at the start of a method, field,
// local-variable, or property signature. Field/Property signatures are
// reported as a single leading Element following their header byte; method
// and local-var signatures decode the fuller grammar. It returns the number
// of bytes consumed so FnPtr, which embeds a signature inline in a larger
// blob, can keep decoding its siblings.
func decodeSignatureBlob(blob []byte) (*StandaloneMethodSignature, int, error) {
	if len(blob) == 0 {
		return nil, 0, ErrTruncatedSignature
	}

	off := 0
	b0 := blob[0]
	off++

	sig := &StandaloneMethodSignature{}
	lowNibble := b0 & 0x0F

	switch {
	case lowNibble == 0x06:
		sig.Kind = SignatureField
		elem, n, err := decodeElement(blob, off)
		if err != nil {
			return nil, 0, err
		}
		sig.RetType = elem
		off += n
		return sig, off, nil

	case lowNibble == 0x07:
		sig.Kind = SignatureLocalVar
		count, n, err := readCompressedUint(blob, off)
		if err != nil {
			return nil, 0, err
		}
		off += n
		locals := make([]Element, 0, count)
		for i := uint32(0); i < count; i++ {
			elem, n, err := decodeElement(blob, off)
			if err != nil {
				return nil, 0, err
			}
			off += n
			locals = append(locals, elem)
		}
		sig.Locals = locals
		return sig, off, nil

	case lowNibble == 0x08:
		sig.Kind = SignatureProperty
		elem, n, err := decodeElement(blob, off)
		if err != nil {
			return nil, 0, err
		}
		sig.RetType = elem
		off += n
		return sig, off, nil

	default:
		sig.Kind = SignatureStandaloneMethod
		sig.Header = StandaloneMethodSigHeader{
			HasThis:      b0&0x20 != 0,
			ExplicitThis: b0&0x40 != 0,
			CallType:     b0 & 0x0F,
		}

		if b0&0x10 != 0 {
			n, size, err := readCompressedUint(blob, off)
			if err != nil {
				return nil, 0, err
			}
			sig.GenParamCount = n
			off += size
		}

		paramCount, n, err := readCompressedUint(blob, off)
		if err != nil {
			return nil, 0, err
		}
		off += n

		ret, n, err := decodeElement(blob, off)
		if err != nil {
			return nil, 0, err
		}
		off += n
		sig.RetType = ret

		params := make([]Element, 0, paramCount)
		for i := uint32(0); i < paramCount; i++ {
			p, n, err := decodeElement(blob, off)
			if err != nil {
				return nil, 0, err
			}
			off += n
			params = append(params, p)
		}
		sig.Params = params
		return sig, off, nil
	}
}

// decodeElement decodes one Element starting at off and returns it along
// with the number of bytes consumed.
func decodeElement(blob []byte, off int) (Element, int, error) {
	if off >= len(blob) {
		return Element{}, 0, ErrTruncatedSignature
	}
	start := off
	tag := blob[off]
	off++

	switch tag {
	case elemVoid:
		return Element{Kind: ElemVoid}, off - start, nil
	case elemBoolean:
		return Element{Kind: ElemBoolean}, off - start, nil
	case elemChar:
		return Element{Kind: ElemChar}, off - start, nil
	case elemI1:
		return Element{Kind: ElemI1}, off - start, nil
	case elemU1:
		return Element{Kind: ElemU1}, off - start, nil
	case elemI2:
		return Element{Kind: ElemI2}, off - start, nil
	case elemU2:
		return Element{Kind: ElemU2}, off - start, nil
	case elemI4:
		return Element{Kind: ElemI4}, off - start, nil
	case elemU4:
		return Element{Kind: ElemU4}, off - start, nil
	case elemI8:
		return Element{Kind: ElemI8}, off - start, nil
	case elemU8:
		return Element{Kind: ElemU8}, off - start, nil
	case elemR4:
		return Element{Kind: ElemR4}, off - start, nil
	case elemR8:
		return Element{Kind: ElemR8}, off - start, nil
	case elemString:
		return Element{Kind: ElemString}, off - start, nil
	case elemIntPtr:
		return Element{Kind: ElemIntPtr}, off - start, nil
	case elemUIntPtr:
		return Element{Kind: ElemUIntPtr}, off - start, nil
	case elemObject:
		return Element{Kind: ElemObject}, off - start, nil
	case elemPinned:
		inner, n, err := decodeElement(blob, off)
		if err != nil {
			return Element{}, 0, err
		}
		off += n
		return Element{Kind: ElemPinned, Inner: &inner}, off - start, nil
	case elemPtr, elemByRef, elemSzArray:
		inner, n, err := decodeElement(blob, off)
		if err != nil {
			return Element{}, 0, err
		}
		off += n
		kind := map[byte]ElementKind{elemPtr: ElemPtr, elemByRef: ElemByRef, elemSzArray: ElemSzArray}[tag]
		return Element{Kind: kind, Inner: &inner}, off - start, nil
	case elemCModReq, elemCModOpt:
		tok, n, err := readTypeDefOrRefCodedIndex(blob, off)
		if err != nil {
			return Element{}, 0, err
		}
		off += n
		inner, n, err := decodeElement(blob, off)
		if err != nil {
			return Element{}, 0, err
		}
		off += n
		kind := ElemCModReq
		if tag == elemCModOpt {
			kind = ElemCModOpt
		}
		return Element{Kind: kind, TypeToken: tok, Inner: &inner}, off - start, nil
	case elemValueType, elemClass:
		tok, n, err := readTypeDefOrRefCodedIndex(blob, off)
		if err != nil {
			return Element{}, 0, err
		}
		off += n
		kind := ElemValueType
		if tag == elemClass {
			kind = ElemClass
		}
		return Element{Kind: kind, TypeToken: tok}, off - start, nil
	case elemVar, elemMVar:
		idx, n, err := readCompressedUint(blob, off)
		if err != nil {
			return Element{}, 0, err
		}
		off += n
		kind := ElemVar
		if tag == elemMVar {
			kind = ElemMVar
		}
		return Element{Kind: kind, Index: idx}, off - start, nil
	case elemGenericInst:
		head, n, err := decodeElement(blob, off)
		if err != nil {
			return Element{}, 0, err
		}
		off += n
		if off >= len(blob) {
			return Element{}, 0, ErrTruncatedSignature
		}
		arity := blob[off]
		off++
		args := make([]Element, 0, arity)
		for i := 0; i < int(arity); i++ {
			arg, n, err := decodeElement(blob, off)
			if err != nil {
				return Element{}, 0, err
			}
			off += n
			args = append(args, arg)
		}
		return Element{Kind: ElemGenericInst, GenericHead: &head, GenericArgs: args}, off - start, nil
	case elemFnPtr:
		sub, n, err := decodeSignatureBlob(blob[off:])
		if err != nil {
			return Element{}, 0, err
		}
		off += n
		return Element{Kind: ElemFnPtr, Signature: sub}, off - start, nil
	default:
		return Element{}, 0, ErrUnknownElementTag
	}
}

// readTypeDefOrRefCodedIndex decodes the 2-bit-tagged TypeDefOrRef coded
// index used by ValueType, Class, CModReq, and CModOpt. Unlike the
// metadata-table coded indices (sized dynamically from row counts), the one
// embedded in a signature blob is always compressed-unsigned encoded; the
// tag occupies the low 2 bits and selects TypeDef(0), TypeRef(1), TypeSpec(2).
func readTypeDefOrRefCodedIndex(blob []byte, off int) (Token, int, error) {
	v, n, err := readCompressedUint(blob, off)
	if err != nil {
		return 0, 0, err
	}
	tag := v & 0x3
	row := v >> 2
	var kind TokenKind
	switch tag {
	case 0:
		kind = TokenTypeDef
	case 1:
		kind = TokenTypeRef
	case 2:
		kind = TokenTypeSpec
	default:
		return 0, 0, ErrUnknownElementTag
	}
	return NewToken(kind, row), n, nil
}
