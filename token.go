// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// Token is a 32-bit value whose top 8 bits classify the record table
// (TokenKind) and whose low 24 bits form a 1-based row index. An index of 0
// means "no reference".
type Token uint32

// TokenKind identifies which table (or pseudo-table, for user strings) a
// Token's row index is relative to.
type TokenKind uint8

// Token kinds. Values match each table's tag byte directly; UserString is
// the one non-table kind, used only by the ldstr opcode's operand.
const (
	TokenModule                  TokenKind = 0x00
	TokenTypeRef                 TokenKind = 0x01
	TokenTypeDef                 TokenKind = 0x02
	TokenFieldPtr                TokenKind = 0x03
	TokenField                   TokenKind = 0x04
	TokenMethodPtr                TokenKind = 0x05
	TokenMethodDef                TokenKind = 0x06
	TokenParamPtr                TokenKind = 0x07
	TokenParam                    TokenKind = 0x08
	TokenInterfaceImpl            TokenKind = 0x09
	TokenMemberRef                TokenKind = 0x0A
	TokenConstant                 TokenKind = 0x0B
	TokenCustomAttribute          TokenKind = 0x0C
	TokenFieldMarshal             TokenKind = 0x0D
	TokenDeclSecurity             TokenKind = 0x0E
	TokenClassLayout              TokenKind = 0x0F
	TokenFieldLayout              TokenKind = 0x10
	TokenStandAloneSig            TokenKind = 0x11
	TokenEventMap                 TokenKind = 0x12
	TokenEventPtr                 TokenKind = 0x13
	TokenEvent                    TokenKind = 0x14
	TokenPropertyMap              TokenKind = 0x15
	TokenPropertyPtr              TokenKind = 0x16
	TokenProperty                 TokenKind = 0x17
	TokenMethodSemantics          TokenKind = 0x18
	TokenMethodImpl               TokenKind = 0x19
	TokenModuleRef                TokenKind = 0x1A
	TokenTypeSpec                 TokenKind = 0x1B
	TokenImplMap                  TokenKind = 0x1C
	TokenFieldRVA                 TokenKind = 0x1D
	TokenENCLog                   TokenKind = 0x1E
	TokenENCMap                   TokenKind = 0x1F
	TokenAssembly                 TokenKind = 0x20
	TokenAssemblyProcessor        TokenKind = 0x21
	TokenAssemblyOS               TokenKind = 0x22
	TokenAssemblyRef              TokenKind = 0x23
	TokenAssemblyRefProcessor     TokenKind = 0x24
	TokenAssemblyRefOS            TokenKind = 0x25
	TokenFile                     TokenKind = 0x26
	TokenExportedType             TokenKind = 0x27
	TokenManifestResource         TokenKind = 0x28
	TokenNestedClass              TokenKind = 0x29
	TokenGenericParam             TokenKind = 0x2A
	TokenMethodSpec               TokenKind = 0x2B
	TokenGenericParamConstraint   TokenKind = 0x2C
	TokenUserString               TokenKind = 0x70
	TokenUnknown                  TokenKind = 0xFF
)

// Kind recovers the top byte of the token.
func (t Token) Kind() TokenKind {
	return TokenKind(t >> 24)
}

// Index recovers the low 24 bits: the 1-based row index into the table
// named by Kind, or into the user-string heap for TokenUserString.
func (t Token) Index() uint32 {
	return uint32(t) & 0x00FFFFFF
}

// NewToken packs a kind and a 1-based row index into a Token.
func NewToken(kind TokenKind, index uint32) Token {
	return Token(uint32(kind)<<24 | (index & 0x00FFFFFF))
}
