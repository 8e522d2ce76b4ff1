// Package macro implements the textual macro pass that runs before lexing.
// It is line-oriented: .macro NAME ARITY opens a definition, .endm closes it,
// and every other line is either copied through or, when its leading
// identifier names a known macro, replaced by the expanded body lines.
// Expansion is single-pass: expanded lines are not re-scanned for further
// invocations.
package macro

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Macro struct {
	Name  string   // macro name, case-sensitive
	Arity int      // declared number of arguments
	Body  []string // body lines, copied verbatim
	Line  int      // line of the .macro directive
}

// Expand rewrites macro invocations in src into their expanded body lines.
// Lines that do not open, close, or invoke a macro pass through unchanged.
func Expand(src string) (string, error) {
	lines := strings.Split(src, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		// Split leaves a trailing empty element when src ends with a newline
		lines = lines[:n-1]
	}
	macros := make(map[string]*Macro)

	var out strings.Builder
	var current *Macro

	for i, line := range lines {
		linum := i + 1
		fields := strings.Fields(stripComment(line))

		if current != nil {
			if len(fields) > 0 && strings.EqualFold(fields[0], ".endm") {
				macros[current.Name] = current
				current = nil
				continue
			}
			// Body lines are captured verbatim, not lexed
			current.Body = append(current.Body, line)
			continue
		}

		if len(fields) > 0 && strings.EqualFold(fields[0], ".macro") {
			m, err := parseHeader(fields, linum)
			if err != nil {
				return "", err
			}
			if _, ok := macros[m.Name]; ok {
				return "", errors.Errorf("line %d: macro %q redefined", linum, m.Name)
			}
			current = m
			continue
		}

		if len(fields) > 0 && strings.EqualFold(fields[0], ".endm") {
			return "", errors.Errorf("line %d: .endm without matching .macro", linum)
		}

		name := leadingIdent(line)
		if m, ok := macros[name]; ok && name != "" {
			expanded, err := invoke(m, line, linum)
			if err != nil {
				return "", err
			}
			for _, e := range expanded {
				out.WriteString(e)
				out.WriteByte('\n')
			}
			continue
		}

		out.WriteString(line)
		out.WriteByte('\n')
	}

	if current != nil {
		return "", errors.Errorf("line %d: unterminated .macro %q (missing .endm)", current.Line, current.Name)
	}

	return out.String(), nil
}

// parseHeader parses a ".macro NAME ARITY" line
func parseHeader(fields []string, linum int) (*Macro, error) {
	if len(fields) < 3 {
		return nil, errors.Errorf("line %d: .macro requires a name and an arity", linum)
	}

	arity, err := strconv.Atoi(fields[2])
	if err != nil || arity < 0 {
		return nil, errors.Errorf("line %d: invalid macro arity %q", linum, fields[2])
	}

	return &Macro{Name: fields[1], Arity: arity, Line: linum}, nil
}

// invoke expands a single invocation line into the macro's body lines
func invoke(m *Macro, line string, linum int) ([]string, error) {
	rest := strings.TrimSpace(stripComment(line))
	rest = strings.TrimSpace(rest[len(m.Name):])

	args := SplitArgs(rest)
	if len(args) != m.Arity {
		return nil, errors.Errorf("line %d: macro %q expects %d arguments, got %d",
			linum, m.Name, m.Arity, len(args))
	}

	expanded := make([]string, 0, len(m.Body))
	for _, body := range m.Body {
		expanded = append(expanded, substitute(body, args))
	}

	return expanded, nil
}

// substitute replaces $1..$N placeholders with the argument texts.
// Higher indices are replaced first so that $12 is never read as $1 + "2".
func substitute(line string, args []string) string {
	for i := len(args); i >= 1; i-- {
		line = strings.ReplaceAll(line, fmt.Sprintf("$%d", i), args[i-1])
	}

	return line
}

// SplitArgs splits a comma-separated argument list, tracking bracket depth so
// a comma inside [...] does not split arguments.
func SplitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var args []string
	depth := 0
	start := 0

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	args = append(args, strings.TrimSpace(s[start:]))

	return args
}

// leadingIdent returns the leading identifier of a line, or "" if the line
// does not start with one
func leadingIdent(line string) string {
	trimmed := strings.TrimLeft(line, " \t")

	end := 0
	for end < len(trimmed) {
		c := trimmed[end]
		isAlpha := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
		isDigit := c >= '0' && c <= '9'
		if end == 0 && !isAlpha {
			return ""
		}
		if !isAlpha && !isDigit {
			break
		}
		end++
	}

	// "name:" is a label definition, not an invocation
	if end < len(trimmed) && trimmed[end] == ':' {
		return ""
	}

	return trimmed[:end]
}

// stripComment cuts a line at the first ';'. The expander runs before the
// lexer, so comments on directive and invocation lines are handled here.
func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}

	return line
}
