// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const (
	// MaxDefaultMethodBodySize represents the default maximum number of
	// bytes read for any single method body. Bodies larger than this are
	// skipped rather than decoded.
	MaxDefaultMethodBodySize = 0x100000

	// MethodAttrStatic and MethodAttrAbstract are bits of
	// MethodDefTableRow.Flags (MethodAttributes, §II.23.1.10).
	MethodAttrStatic   = 0x0010
	MethodAttrAbstract = 0x0400

	// CorILMethodTinyFormat and CorILMethodFatFormat are the two low-order
	// bits of the first method body byte (§II.25.4.1) that select between
	// the 1-byte tiny header and the 12-byte fat header.
	CorILMethodTinyFormat = 0x2
	CorILMethodFatFormat  = 0x3
	corILMethodFormatMask = 0x3

	// CorILMethodMoreSects marks that one or more data sections (exception
	// handling clauses) follow the fat header's code bytes.
	CorILMethodMoreSects = 0x8
)

// MethodHeader is the fixed-format prologue that precedes every method
// body's IL bytes, normalized across the tiny and fat on-wire encodings.
type MethodHeader struct {
	Fat              bool   `json:"fat"`
	MaxStack         uint16 `json:"max_stack"`
	CodeSize         uint32 `json:"code_size"`
	LocalVarSigToken Token  `json:"local_var_sig_token"`
	MoreSects        bool   `json:"-"`
}

// DecodedMethod is the fully decoded body of one MethodDef row: its header,
// the raw and lowered instruction streams in program order, and the 1-based
// index of the MethodDef row it came from (RowIndex).
type DecodedMethod struct {
	RowIndex  uint32                     `json:"row_index"`
	Name      string                     `json:"name"`
	Header    MethodHeader               `json:"header"`
	RVA       uint32                     `json:"rva"`
	Raw       []RawOpcode                `json:"raw"`
	Lowered   []Opcode                   `json:"lowered"`
	Signature *StandaloneMethodSignature `json:"signature,omitempty"`
	Locals    []Element                  `json:"locals,omitempty"`
	Flags     uint16                     `json:"flags"`
}

// resolveLocalVarSignature follows a method header's local_var_sig_token
// through the StandAloneSig table into the blob heap and decodes the
// resulting LocalVar signature. A zero token (no locals) is not an error.
func (pe *File) resolveLocalVarSignature(tok Token) ([]Element, error) {
	if tok == 0 {
		return nil, nil
	}
	if tok.Kind() != TokenStandAloneSig {
		return nil, nil
	}

	table, ok := pe.CLR.MetadataTables[StandAloneSig]
	if !ok || table.Content == nil {
		return nil, nil
	}
	rows, ok := table.Content.([]StandAloneSigTableRow)
	if !ok {
		return nil, nil
	}
	idx := tok.Index()
	if idx == 0 || int(idx) > len(rows) {
		return nil, nil
	}

	blob, err := pe.CLR.Heaps.Blobs.Get(rows[idx-1].Signature)
	if err != nil || blob == nil {
		return nil, err
	}

	sig, _, err := decodeSignatureBlob(blob)
	if err != nil {
		return nil, err
	}
	return sig.Locals, nil
}

// resolveMethodSignature follows a MethodDef row's signature blob index
// into the blob heap and decodes the resulting method signature.
func (pe *File) resolveMethodSignature(blobIndex uint32) (*StandaloneMethodSignature, error) {
	blob, err := pe.CLR.Heaps.Blobs.Get(blobIndex)
	if err != nil || blob == nil {
		return nil, err
	}
	sig, _, err := decodeSignatureBlob(blob)
	return sig, err
}

// parseMethodHeader reads the tiny or fat method header at the start of
// body and returns the header plus the offset body's code bytes start at.
func parseMethodHeader(body []byte) (MethodHeader, uint32, error) {
	if len(body) < 1 {
		return MethodHeader{}, 0, ErrMalformedMethodHeader
	}

	b0 := body[0]
	if b0&corILMethodFormatMask == CorILMethodFatFormat {
		if len(body) < 12 {
			return MethodHeader{}, 0, ErrMalformedMethodHeader
		}
		flags := uint16(body[0]) | uint16(body[1])<<8
		headerSizeInDwords := flags >> 12
		maxStack := uint16(body[2]) | uint16(body[3])<<8
		codeSize := uint32(body[4]) | uint32(body[5])<<8 | uint32(body[6])<<16 | uint32(body[7])<<24
		localVarSigTok := uint32(body[8]) | uint32(body[9])<<8 | uint32(body[10])<<16 | uint32(body[11])<<24

		headerSize := uint32(headerSizeInDwords) * 4
		if headerSize < 12 {
			headerSize = 12
		}

		return MethodHeader{
			Fat:              true,
			MaxStack:         maxStack,
			CodeSize:         codeSize,
			LocalVarSigToken: Token(localVarSigTok),
			MoreSects:        flags&CorILMethodMoreSects != 0,
		}, headerSize, nil
	}

	if b0&corILMethodFormatMask != CorILMethodTinyFormat {
		return MethodHeader{}, 0, ErrMalformedMethodHeader
	}

	return MethodHeader{
		Fat:      false,
		MaxStack: 8,
		CodeSize: uint32(b0 >> 2),
	}, 1, nil
}

// decodeMethodBodies walks every MethodDef row with a non-zero RVA and a
// concrete (non-abstract) body, decodes its header and instruction stream,
// and appends the result to pe.CLR.Methods. Methods larger than
// pe.opts.MaxMethodBodySize, or whose RVA maps to no offset inside the file, are
// skipped rather than treated as fatal: a single malformed or unmapped
// method should not fail the whole load.
func (pe *File) decodeMethodBodies() error {
	table, ok := pe.CLR.MetadataTables[MethodDef]
	if !ok || table.Content == nil {
		return nil
	}
	rows, ok := table.Content.([]MethodDefTableRow)
	if !ok {
		return nil
	}

	for i := range rows {
		row := rows[i]
		if row.RVA == 0 || row.Flags&MethodAttrAbstract != 0 {
			continue
		}

		name, _ := pe.CLR.Heaps.Strings.Get(row.Name)

		offset := pe.GetOffsetFromRva(row.RVA)
		if offset == ^uint32(0) || offset >= pe.size {
			continue
		}

		b0, err := pe.ReadUint8(offset)
		if err != nil {
			continue
		}
		headerProbeSize := uint32(1)
		if b0&corILMethodFormatMask == CorILMethodFatFormat {
			headerProbeSize = 12
		}
		headerBytes, err := pe.ReadBytesAtOffset(offset, headerProbeSize)
		if err != nil || len(headerBytes) == 0 {
			continue
		}
		header, headerSize, err := parseMethodHeader(headerBytes)
		if err != nil {
			continue
		}
		if header.CodeSize == 0 || header.CodeSize > pe.opts.MaxMethodBodySize {
			continue
		}

		codeStart := offset + headerSize
		code, err := pe.ReadBytesAtOffset(codeStart, header.CodeSize)
		if err != nil {
			continue
		}

		var raw []RawOpcode
		var pos uint32
		for pos < uint32(len(code)) {
			op, n, err := decodeRawOpcode(code, pos)
			if err != nil {
				break
			}
			raw = append(raw, op)
			pos += n
		}

		sig, _ := pe.resolveMethodSignature(row.Signature)
		locals, _ := pe.resolveLocalVarSignature(header.LocalVarSigToken)

		lowered := make([]Opcode, len(raw))
		for j, r := range raw {
			lowered[j] = lowerOpcode(r)
		}

		pe.CLR.Methods = append(pe.CLR.Methods, DecodedMethod{
			RowIndex:  uint32(i) + 1,
			Name:      name,
			Header:    header,
			RVA:       row.RVA,
			Signature: sig,
			Locals:    locals,
			Raw:       raw,
			Lowered:   lowered,
			Flags:     row.Flags,
		})
	}

	return nil
}
