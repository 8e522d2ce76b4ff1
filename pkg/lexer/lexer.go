package lexer

import (
	"strings"

	"github.com/pkg/errors"
)

type Lexer struct {
	input    string // input string to be tokenized
	length   int    // length of the input string
	position int    // current position in the input string
	line     int    // current line number for error reporting
	column   int    // current column number for error reporting
}

// NewLexer creates a new lexer instance
func NewLexer(s string) *Lexer {
	return &Lexer{
		input:    s,
		length:   len(s),
		position: 0,
		line:     1,
		column:   1,
	}
}

// NextToken returns the next token from the input. A run of newlines is
// collapsed into a single NEWLINE token; whitespace and comments are skipped.
func (l *Lexer) NextToken() Token {
	// End of input
	if l.position >= l.length {
		return NewToken(EOF, "", "", l.currentPosition())
	}

	remaining := l.input[l.position:]
	tokenType, lexeme, matched := MatchToken(remaining)

	if !matched {
		char := string(l.input[l.position])
		tok := NewToken(ILLEGAL, char, "", l.currentPosition())
		l.advance(1)
		return tok
	}

	// Whitespace or comment: skip and retry
	if tokenType == EOF && lexeme != "" {
		l.advance(len(lexeme))
		return l.NextToken()
	}

	pos := l.currentPosition()

	var literal string
	switch tokenType {
	case LABEL:
		// Strip the trailing colon
		literal = lexeme[:len(lexeme)-1]
	case STRING:
		// Strip the surrounding quotes
		literal = lexeme[1 : len(lexeme)-1]
	case NEWLINE:
		literal = "\n"
	default:
		literal = lexeme
	}

	display := lexeme
	if tokenType == NEWLINE {
		display = "\n"
	}

	tok := NewToken(tokenType, display, literal, pos)
	l.advance(len(lexeme))

	return tok
}

// Peek returns the next token without advancing the position
func (l *Lexer) Peek() Token {
	// save state
	cpos := l.position
	cline := l.line
	ccol := l.column

	token := l.NextToken()

	// restore state
	l.position = cpos
	l.line = cline
	l.column = ccol

	return token
}

// HasMore checks if there are more characters to read
func (l *Lexer) HasMore() bool {
	return l.position < l.length
}

// Tokenize runs the lexer over the whole input and returns the flat token
// stream terminated by an EOF token. Any byte sequence matching no rule
// fails with a lexical error carrying line:column.
func Tokenize(src string) ([]Token, error) {
	l := NewLexer(src)
	toks := make([]Token, 0, 64)

	for {
		tok := l.NextToken()
		if tok.Type == ILLEGAL {
			return nil, errors.Errorf("unknown token %q at %s", tok.Lexeme, tok.Pos)
		}

		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks, nil
		}
	}
}

// advance the lexer position by n characters
func (l *Lexer) advance(n int) {
	end := l.position + n
	if end > l.length {
		end = l.length
	}

	consumed := l.input[l.position:end]
	if newlines := strings.Count(consumed, "\n"); newlines > 0 {
		l.line += newlines
		l.column = len(consumed) - strings.LastIndexByte(consumed, '\n')
	} else {
		l.column += len(consumed)
	}

	l.position = end
}

// currentPosition returns the current position of the lexer
func (l *Lexer) currentPosition() Position {
	return Position{
		Line:   l.line,
		Column: l.column,
		Offset: l.position,
	}
}
