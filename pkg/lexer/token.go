package lexer

import (
	"fmt"
)

type TokenType int

type Token struct {
	Type    TokenType // Type of the token
	Lexeme  string    // Actual string from source code
	Literal string    // Literal value (label name without ':', string without quotes)
	Pos     Position  // Position in source code
}

// NewToken creates a new Token instance
func NewToken(tokenType TokenType, lexeme string, literal string, pos Position) Token {
	return Token{
		Type:    tokenType,
		Lexeme:  lexeme,
		Literal: literal,
		Pos:     pos,
	}
}

const (
	EOF TokenType = iota // End of input

	DIRECTIVE // .text, .data, .global, .byte, .word, .macro, .endm
	LABEL     // name:
	REGISTER  // r0..r31 or x0..x31
	HEX       // 0x2A
	BIN       // 0b101010
	INT       // 42, -7
	IDENT     // mnemonic or label reference
	STRING    // "text"

	COMMA   // ,
	LBRACK  // [
	RBRACK  // ]
	PLUS    // +
	NEWLINE // statement terminator

	ILLEGAL // illegal token
)

var tokenNames = map[TokenType]string{
	EOF:       "EOF",
	DIRECTIVE: "DIRECTIVE",
	LABEL:     "LABEL",
	REGISTER:  "REGISTER",
	HEX:       "HEX",
	BIN:       "BIN",
	INT:       "INT",
	IDENT:     "IDENT",
	STRING:    "STRING",
	COMMA:     "COMMA",
	LBRACK:    "LBRACK",
	RBRACK:    "RBRACK",
	PLUS:      "PLUS",
	NEWLINE:   "NEWLINE",
	ILLEGAL:   "ILLEGAL",
}

// String returns a string representation of the TokenType
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}

	return fmt.Sprintf("UNKNOWN(%d)", int(t))
}

// String returns a string representation of the Token
func (t Token) String() string {
	if t.Literal == "" || t.Literal == t.Lexeme {
		return fmt.Sprintf("T_{%s, %q, %s}", t.Type, t.Lexeme, t.Pos.String())
	}

	return fmt.Sprintf("T_{%s, %q, %q, %s}", t.Type, t.Lexeme, t.Literal, t.Pos.String())
}

// IsInteger reports whether the token is an integer literal in any base
func (t TokenType) IsInteger() bool {
	switch t {
	case HEX, BIN, INT:
		return true
	default:
		return false
	}
}
