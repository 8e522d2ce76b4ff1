package lexer_test

import (
	"strings"
	"testing"

	"vmtools/pkg/lexer"
)

func TestComments(t *testing.T) {
	input := `; leading comment
ldi r1, 5 ; trailing comment
; another comment
halt`

	toks, err := lexer.Tokenize(input)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	expected := []lexer.TokenType{
		lexer.NEWLINE,
		lexer.IDENT, lexer.REGISTER, lexer.COMMA, lexer.INT, lexer.NEWLINE,
		lexer.NEWLINE,
		lexer.IDENT,
		lexer.EOF,
	}

	if len(toks) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(toks), toks)
	}
	for i, e := range expected {
		if toks[i].Type != e {
			t.Errorf("Token %d: expected %s, got %s", i, e, toks[i].Type)
		}
	}
}

func TestUnknownToken(t *testing.T) {
	_, err := lexer.Tokenize("ldi r1, @5")
	if err == nil {
		t.Fatal("expected a lexical error for '@'")
	}
	if !strings.Contains(err.Error(), "1:9") {
		t.Errorf("expected error to carry position 1:9, got %q", err.Error())
	}
}
