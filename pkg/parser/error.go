package parser

import (
	"github.com/pkg/errors"

	"vmtools/pkg/lexer"
)

// eat consumes the current token, which must be of the given type
func (p *Parser) eat(t lexer.TokenType) (lexer.Token, error) {
	tok := p.toks[p.i]
	if tok.Type != t {
		return tok, p.errorAt(tok, "expected %s, got %s", t, tok.Type)
	}
	p.i++

	return tok, nil
}

// expectComma requires a comma between operands
func (p *Parser) expectComma() error {
	if !p.maybe(lexer.COMMA) {
		return p.errorAt(p.current(), "expected ',', got %s", p.current().Type)
	}

	return nil
}

// errorAt builds an error carrying the token's line:column
func (p *Parser) errorAt(tok lexer.Token, format string, args ...any) error {
	args = append(args, tok.Pos)
	return errors.Errorf(format+" at %s", args...)
}
