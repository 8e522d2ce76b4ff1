package lexer

import (
	"regexp"
)

type tokenRegex struct {
	Pattern *regexp.Regexp
	Raw     string
}

// Token regex patterns, each anchored to the current cursor
var tokenRegexes = map[TokenType]tokenRegex{
	DIRECTIVE: {regexp.MustCompile(`^\.[A-Za-z_][A-Za-z0-9_]*`), `^\.[A-Za-z_][A-Za-z0-9_]*`},
	LABEL:     {regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*:`), `^[A-Za-z_][A-Za-z0-9_]*:`},
	REGISTER:  {regexp.MustCompile(`^(?:r|x)(?:[12]?\d|3[01]|\d)\b`), `^(?:r|x)(?:[12]?\d|3[01]|\d)\b`},
	HEX:       {regexp.MustCompile(`^0x[0-9A-Fa-f]+`), `^0x[0-9A-Fa-f]+`},
	BIN:       {regexp.MustCompile(`^0b[01]+`), `^0b[01]+`},
	INT:       {regexp.MustCompile(`^-?\d+`), `^-?\d+`},
	IDENT:     {regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`), `^[A-Za-z_][A-Za-z0-9_]*`},
	STRING:    {regexp.MustCompile(`^"([^"\\]|\\.)*"`), `^"([^"\\]|\\.)*"`},

	COMMA:   {regexp.MustCompile(`^,`), `^,`},
	LBRACK:  {regexp.MustCompile(`^\[`), `^\[`},
	RBRACK:  {regexp.MustCompile(`^\]`), `^\]`},
	PLUS:    {regexp.MustCompile(`^\+`), `^\+`},
	NEWLINE: {regexp.MustCompile(`^\n+`), `^\n+`},
}

var (
	whitespaceRegex = regexp.MustCompile(`^[ \t\r]+`)
	commentRegex    = regexp.MustCompile(`^;[^\n]*`)
)

// Token precedence order for matching. LABEL and REGISTER must be tried
// before IDENT, HEX and BIN before INT.
var tokenPrecedenceOrder = []TokenType{
	DIRECTIVE, LABEL, REGISTER, HEX, BIN, INT, IDENT, STRING,
	COMMA, LBRACK, RBRACK, PLUS, NEWLINE,
}

// Regex returns the compiled pattern for a token type
func (t TokenType) Regex() *regexp.Regexp {
	if regex, ok := tokenRegexes[t]; ok {
		return regex.Pattern
	}

	return nil
}

// RawRegex returns the raw regex string for a token type
func (t TokenType) RawRegex() string {
	if regex, ok := tokenRegexes[t]; ok {
		return regex.Raw
	}

	return ""
}

// MatchToken matches the first rule in precedence order at the start of the
// string. Whitespace and comments match but carry no token: they are reported
// as (EOF, lexeme, true) so the caller can skip them.
func MatchToken(s string) (TokenType, string, bool) {
	if s == "" {
		return EOF, "", false
	} else if match := whitespaceRegex.FindString(s); match != "" {
		return EOF, match, true
	} else if match := commentRegex.FindString(s); match != "" {
		return EOF, match, true
	}

	for _, tokenType := range tokenPrecedenceOrder {
		if regex, ok := tokenRegexes[tokenType]; ok {
			if match := regex.Pattern.FindString(s); match != "" {
				return tokenType, match, true
			}
		}
	}

	return ILLEGAL, string(s[0]), false
}
