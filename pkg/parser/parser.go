// Package parser consumes the token stream produced by the lexer and builds
// a relocatable object in one forward pass: it tracks the active section,
// encodes instructions into the text stream, collects data bytes, and
// records symbols and relocations in definition order.
package parser

import (
	"strconv"
	"strings"

	"vmtools/pkg/isa"
	"vmtools/pkg/lexer"
	"vmtools/pkg/objfile"
)

type Parser struct {
	toks []lexer.Token // flat token stream, EOF-terminated
	i    int           // cursor into toks

	section  objfile.Section   // active section, .text by default
	instrs   []isa.Instruction // encoded text stream, one 8-byte slot each
	data     []byte            // raw data section bytes
	symbols  []objfile.Symbol  // defined symbols in definition order
	symIndex map[string]int    // name -> index into symbols
	relocs   []objfile.Relocation

	pendingGlobal map[string]bool // names marked .global before definition
	pendingOrder  []string        // first-mention order of pending globals
}

// NewParser creates a parser over a token stream
func NewParser(toks []lexer.Token) *Parser {
	return &Parser{
		toks:          toks,
		section:       objfile.SectionText,
		symIndex:      make(map[string]int),
		pendingGlobal: make(map[string]bool),
	}
}

// Parse drives through the token stream and returns the assembled object.
// Statements are label definitions, directives, or instructions; anything
// else is skipped one token at a time to guarantee forward progress.
func (p *Parser) Parse() (*objfile.Object, error) {
	for !p.at(lexer.EOF) {
		switch {
		case p.at(lexer.NEWLINE):
			p.i++
		case p.at(lexer.LABEL):
			if err := p.parseLabel(); err != nil {
				return nil, err
			}
		case p.at(lexer.DIRECTIVE):
			if err := p.parseDirective(); err != nil {
				return nil, err
			}
		case p.at(lexer.IDENT):
			if err := p.parseInstr(); err != nil {
				return nil, err
			}
		default:
			// Fallback skip
			p.i++
		}
	}

	return p.finish(), nil
}

// finish emits never-defined pending globals as UNDEF external references
// and assembles the object
func (p *Parser) finish() *objfile.Object {
	for _, name := range p.pendingOrder {
		if _, defined := p.symIndex[name]; defined {
			continue
		}
		p.symbols = append(p.symbols, objfile.Symbol{
			Name:    name,
			Section: objfile.SectionUndef,
			Global:  true,
		})
	}

	text := make([]byte, 0, len(p.instrs)*isa.InstructionSize)
	for _, in := range p.instrs {
		enc := in.Encode()
		text = append(text, enc[:]...)
	}

	return &objfile.Object{
		Text:    text,
		Data:    p.data,
		Symbols: p.symbols,
		Relocs:  p.relocs,
	}
}

// Instructions returns the decoded instruction stream, for listings
func (p *Parser) Instructions() []isa.Instruction {
	return p.instrs
}

// parseLabel records a symbol at the current section and offset
func (p *Parser) parseLabel() error {
	t, err := p.eat(lexer.LABEL)
	if err != nil {
		return err
	}
	name := t.Literal

	if _, ok := p.symIndex[name]; ok {
		return p.errorAt(t, "duplicate symbol %q", name)
	}

	p.symIndex[name] = len(p.symbols)
	p.symbols = append(p.symbols, objfile.Symbol{
		Name:    name,
		Section: p.section,
		Value:   p.currentOffset(),
		Global:  p.pendingGlobal[name],
	})

	p.maybe(lexer.NEWLINE)
	return nil
}

// parseDirective handles section switches, .global, .byte and .word.
// Unknown directives, and data directives outside .data, are skipped to
// end of line to keep the format forward-extensible.
func (p *Parser) parseDirective() error {
	t, err := p.eat(lexer.DIRECTIVE)
	if err != nil {
		return err
	}

	switch strings.ToLower(t.Lexeme) {
	case ".text":
		p.section = objfile.SectionText
		p.skipLine()
	case ".data":
		p.section = objfile.SectionData
		p.skipLine()
	case ".global":
		if err := p.parseGlobal(); err != nil {
			return err
		}
	case ".byte":
		if p.section != objfile.SectionData {
			p.skipLine()
			break
		}
		if err := p.parseByte(); err != nil {
			return err
		}
	case ".word":
		if p.section != objfile.SectionData {
			p.skipLine()
			break
		}
		if err := p.parseWord(); err != nil {
			return err
		}
	default:
		p.skipLine()
	}

	p.maybe(lexer.NEWLINE)
	return nil
}

// parseGlobal marks each named symbol global, deferring to the pending set
// when the name is not yet defined
func (p *Parser) parseGlobal() error {
	for p.at(lexer.IDENT) {
		t, _ := p.eat(lexer.IDENT)
		name := t.Lexeme

		if idx, ok := p.symIndex[name]; ok {
			p.symbols[idx].Global = true
		} else if !p.pendingGlobal[name] {
			p.pendingGlobal[name] = true
			p.pendingOrder = append(p.pendingOrder, name)
		}

		if !p.maybe(lexer.COMMA) {
			break
		}
	}

	p.skipLine()
	return nil
}

// parseByte appends literal values truncated to their low 8 bits
func (p *Parser) parseByte() error {
	for {
		if p.at(lexer.IDENT) {
			return p.errorAt(p.current(), ".byte requires a literal value; byte-sized relocations are unsupported")
		}

		v, err := p.parseInt()
		if err != nil {
			return err
		}
		p.data = append(p.data, byte(v))

		if !p.maybe(lexer.COMMA) {
			break
		}
	}

	return nil
}

// parseWord writes 4 little-endian bytes per value. A label reference
// writes a zero placeholder and records a data-section relocation instead.
func (p *Parser) parseWord() error {
	for {
		if p.at(lexer.IDENT) {
			t, _ := p.eat(lexer.IDENT)
			p.relocs = append(p.relocs, objfile.Relocation{
				Section: objfile.SectionData,
				Type:    objfile.RelocAbs32,
				Offset:  uint32(len(p.data)),
				Symbol:  t.Lexeme,
			})
			p.data = append(p.data, 0, 0, 0, 0)
		} else {
			v, err := p.parseInt()
			if err != nil {
				return err
			}
			p.data = append(p.data,
				byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
		}

		if !p.maybe(lexer.COMMA) {
			break
		}
	}

	return nil
}

// parseInstr parses one instruction line per the opcode's operand grammar
// and appends it to the text stream
func (p *Parser) parseInstr() error {
	t, err := p.eat(lexer.IDENT)
	if err != nil {
		return err
	}

	mnem := strings.ToLower(t.Lexeme)
	op, ok := isa.Lookup(mnem)
	if !ok {
		return p.errorAt(t, "unknown mnemonic %q", t.Lexeme)
	}

	if p.section != objfile.SectionText {
		return p.errorAt(t, "instruction %q outside .text section", mnem)
	}

	in := isa.Instruction{Op: op, SrcLine: t.Pos.Line}

	switch op {
	case isa.LDI:
		if in.Rd, err = p.parseReg(); err != nil {
			return err
		}
		if err = p.expectComma(); err != nil {
			return err
		}
		if in.Imm, err = p.parseInt(); err != nil {
			return err
		}

	case isa.MOV:
		if in.Rd, err = p.parseReg(); err != nil {
			return err
		}
		if err = p.expectComma(); err != nil {
			return err
		}
		if in.Rs1, err = p.parseReg(); err != nil {
			return err
		}

	case isa.ADD, isa.SUB, isa.AND, isa.OR, isa.XOR:
		if in.Rd, err = p.parseReg(); err != nil {
			return err
		}
		if err = p.expectComma(); err != nil {
			return err
		}
		if in.Rs1, err = p.parseReg(); err != nil {
			return err
		}
		if err = p.expectComma(); err != nil {
			return err
		}
		if in.Rs2, err = p.parseReg(); err != nil {
			return err
		}

	case isa.LW:
		// lw rd, [rs1] — no offset addressing, imm stays 0
		if in.Rd, err = p.parseReg(); err != nil {
			return err
		}
		if err = p.expectComma(); err != nil {
			return err
		}
		if in.Rs1, err = p.parseMem(); err != nil {
			return err
		}

	case isa.SW:
		// sw rs2, [rs1]
		if in.Rs2, err = p.parseReg(); err != nil {
			return err
		}
		if err = p.expectComma(); err != nil {
			return err
		}
		if in.Rs1, err = p.parseMem(); err != nil {
			return err
		}

	case isa.JMP, isa.CALL:
		if in.Imm, in.LabelRef, err = p.parseTarget(); err != nil {
			return err
		}

	case isa.BEQ, isa.BNE:
		if in.Rs1, err = p.parseReg(); err != nil {
			return err
		}
		if err = p.expectComma(); err != nil {
			return err
		}
		if in.Rs2, err = p.parseReg(); err != nil {
			return err
		}
		if err = p.expectComma(); err != nil {
			return err
		}
		if in.Imm, in.LabelRef, err = p.parseTarget(); err != nil {
			return err
		}

	case isa.RET, isa.HALT:
		// no operands
	}

	idx := len(p.instrs)
	p.instrs = append(p.instrs, in)

	if in.LabelRef != "" {
		// The patch slot is the immediate field of the 8-byte instruction
		p.relocs = append(p.relocs, objfile.Relocation{
			Section: objfile.SectionText,
			Type:    objfile.RelocAbs32,
			Offset:  uint32(idx*isa.InstructionSize + 4),
			Symbol:  in.LabelRef,
		})
	}

	p.maybe(lexer.NEWLINE)
	return nil
}

// parseReg decodes a register token; the numeric suffix must be in
// [0, NumRegisters)
func (p *Parser) parseReg() (uint8, error) {
	t, err := p.eat(lexer.REGISTER)
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(t.Lexeme[1:])
	if err != nil || n < 0 || n >= isa.NumRegisters {
		return 0, p.errorAt(t, "register %q out of range [0,%d]", t.Lexeme, isa.NumRegisters-1)
	}

	return uint8(n), nil
}

// parseInt decodes a decimal, 0x-hex or 0b-binary integer literal
func (p *Parser) parseInt() (int32, error) {
	t := p.current()
	if !t.Type.IsInteger() {
		return 0, p.errorAt(t, "expected integer, got %s", t.Type)
	}
	p.i++

	v, err := strconv.ParseInt(t.Lexeme, 0, 64)
	if err != nil {
		return 0, p.errorAt(t, "invalid integer literal %q", t.Lexeme)
	}

	return int32(v), nil
}

// parseMem parses the register-indirect form [rs1]
func (p *Parser) parseMem() (uint8, error) {
	if _, err := p.eat(lexer.LBRACK); err != nil {
		return 0, err
	}
	base, err := p.parseReg()
	if err != nil {
		return 0, err
	}
	if _, err := p.eat(lexer.RBRACK); err != nil {
		return 0, err
	}

	return base, nil
}

// parseTarget parses a branch target: a literal immediate, or a label
// reference that will be patched by the linker
func (p *Parser) parseTarget() (int32, string, error) {
	if p.at(lexer.IDENT) {
		t, _ := p.eat(lexer.IDENT)
		return 0, t.Lexeme, nil
	}

	if p.current().Type.IsInteger() {
		imm, err := p.parseInt()
		return imm, "", err
	}

	return 0, "", p.errorAt(p.current(), "expected label or integer target, got %s", p.current().Type)
}

// currentOffset is the next free offset in the active section
func (p *Parser) currentOffset() uint32 {
	if p.section == objfile.SectionData {
		return uint32(len(p.data))
	}

	return uint32(len(p.instrs) * isa.InstructionSize)
}

// skipLine consumes tokens up to, but not including, the next newline
func (p *Parser) skipLine() {
	for !p.at(lexer.NEWLINE) && !p.at(lexer.EOF) {
		p.i++
	}
}

func (p *Parser) current() lexer.Token {
	return p.toks[p.i]
}

func (p *Parser) at(t lexer.TokenType) bool {
	return p.toks[p.i].Type == t
}

func (p *Parser) maybe(t lexer.TokenType) bool {
	if p.at(t) {
		p.i++
		return true
	}

	return false
}
