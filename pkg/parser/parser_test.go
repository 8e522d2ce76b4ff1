package parser

import (
	"bytes"
	"strings"
	"testing"

	"vmtools/pkg/lexer"
	"vmtools/pkg/objfile"
)

func mustParse(t *testing.T, src string) *objfile.Object {
	t.Helper()

	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	obj, err := NewParser(toks).Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	return obj
}

func parseErr(t *testing.T, src string) error {
	t.Helper()

	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	_, err = NewParser(toks).Parse()
	if err == nil {
		t.Fatalf("expected a parse error for %q", src)
	}

	return err
}

func TestEncodeLdiHalt(t *testing.T) {
	obj := mustParse(t, "ldi r0, 5\nhalt")

	want := []byte{
		0x01, 0x00, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00,
		0x0F, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(obj.Text, want) {
		t.Errorf("text = % X, want % X", obj.Text, want)
	}
	if len(obj.Symbols) != 0 || len(obj.Relocs) != 0 {
		t.Errorf("expected no symbols/relocs, got %d/%d", len(obj.Symbols), len(obj.Relocs))
	}
}

func TestThreeRegisterForms(t *testing.T) {
	obj := mustParse(t, "add r3, r1, r2\nsub r4, r5, r6\nxor r7, r8, r9")

	want := []byte{
		3, 3, 1, 2, 0, 0, 0, 0,
		4, 4, 5, 6, 0, 0, 0, 0,
		7, 7, 8, 9, 0, 0, 0, 0,
	}
	if !bytes.Equal(obj.Text, want) {
		t.Errorf("text = % X, want % X", obj.Text, want)
	}
}

func TestMemoryForms(t *testing.T) {
	obj := mustParse(t, "lw r1, [r2]\nsw r3, [r4]")

	want := []byte{
		8, 1, 2, 0, 0, 0, 0, 0,
		9, 0, 4, 3, 0, 0, 0, 0,
	}
	if !bytes.Equal(obj.Text, want) {
		t.Errorf("text = % X, want % X", obj.Text, want)
	}
}

func TestIntegerBases(t *testing.T) {
	obj := mustParse(t, "ldi r0, 0x2A\nldi r1, 0b101010\nldi r2, 42\nldi r3, -1")

	for _, off := range []int{4, 12, 20} {
		if got := obj.Text[off]; got != 42 {
			t.Errorf("imm at %d = %d, want 42", off, got)
		}
	}

	if !bytes.Equal(obj.Text[28:32], []byte{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("imm for -1 = % X", obj.Text[28:32])
	}
}

func TestGlobalLabelAndRelocation(t *testing.T) {
	obj := mustParse(t, ".global start\nstart:\n  jmp start")

	if len(obj.Symbols) != 1 {
		t.Fatalf("expected 1 symbol, got %d", len(obj.Symbols))
	}
	s := obj.Symbols[0]
	if s.Name != "start" || s.Section != objfile.SectionText || s.Value != 0 || !s.Global {
		t.Errorf("unexpected symbol: %+v", s)
	}

	if len(obj.Relocs) != 1 {
		t.Fatalf("expected 1 relocation, got %d", len(obj.Relocs))
	}
	r := obj.Relocs[0]
	if r.Section != objfile.SectionText || r.Offset != 4 || r.Symbol != "start" || r.Type != objfile.RelocAbs32 {
		t.Errorf("unexpected relocation: %+v", r)
	}
}

func TestPendingGlobalStaysUndef(t *testing.T) {
	obj := mustParse(t, ".global external\ncall external")

	if len(obj.Symbols) != 1 {
		t.Fatalf("expected 1 symbol, got %d", len(obj.Symbols))
	}
	s := obj.Symbols[0]
	if s.Name != "external" || s.Section != objfile.SectionUndef || !s.Global {
		t.Errorf("unexpected symbol: %+v", s)
	}
}

func TestGlobalAfterDefinition(t *testing.T) {
	obj := mustParse(t, "start:\nhalt\n.global start")

	if len(obj.Symbols) != 1 || !obj.Symbols[0].Global {
		t.Errorf("expected start to be global: %+v", obj.Symbols)
	}
}

func TestDataSection(t *testing.T) {
	obj := mustParse(t, ".data\nvalues:\n.byte 1, 2, 0x1FF\n.word 0x11223344")

	want := []byte{1, 2, 0xFF, 0x44, 0x33, 0x22, 0x11}
	if !bytes.Equal(obj.Data, want) {
		t.Errorf("data = % X, want % X", obj.Data, want)
	}

	if len(obj.Symbols) != 1 {
		t.Fatalf("expected 1 symbol, got %d", len(obj.Symbols))
	}
	s := obj.Symbols[0]
	if s.Name != "values" || s.Section != objfile.SectionData || s.Value != 0 {
		t.Errorf("unexpected symbol: %+v", s)
	}
}

func TestWordLabelReference(t *testing.T) {
	obj := mustParse(t, ".data\n.byte 9\n.word target\n.text\ntarget:\nhalt")

	if !bytes.Equal(obj.Data, []byte{9, 0, 0, 0, 0}) {
		t.Errorf("data = % X", obj.Data)
	}

	if len(obj.Relocs) != 1 {
		t.Fatalf("expected 1 relocation, got %d", len(obj.Relocs))
	}
	r := obj.Relocs[0]
	if r.Section != objfile.SectionData || r.Offset != 1 || r.Symbol != "target" {
		t.Errorf("unexpected relocation: %+v", r)
	}
}

func TestDataDirectivesOutsideDataSkipped(t *testing.T) {
	obj := mustParse(t, ".byte 1, 2\n.word 3\nhalt")

	if len(obj.Data) != 0 {
		t.Errorf("expected no data bytes, got % X", obj.Data)
	}
	if len(obj.Text) != 8 {
		t.Errorf("expected 1 instruction, got %d bytes", len(obj.Text))
	}
}

func TestUnknownDirectiveSkipped(t *testing.T) {
	obj := mustParse(t, ".align 4\nhalt")

	if len(obj.Text) != 8 {
		t.Errorf("expected 1 instruction, got %d bytes", len(obj.Text))
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		src         string
		contains    string
		description string
	}{
		{"frob r1", "unknown mnemonic", "unknown mnemonic"},
		{"dup:\ndup:", "duplicate symbol", "duplicate label"},
		{"ldi r0 5", "expected ','", "missing comma"},
		{"lw r0, r1", "expected LBRACK", "missing bracket"},
		{".data\n.byte label_name", "literal", ".byte with label"},
		{".data\nldi r0, 5", "outside .text", "instruction in data section"},
		{"jmp ,", "expected label or integer", "bad branch target"},
		{"mov r1, 5", "expected REGISTER", "immediate where register required"},
	}

	for _, test := range tests {
		err := parseErr(t, test.src)
		if !strings.Contains(err.Error(), test.contains) {
			t.Errorf("%s: error %q does not contain %q", test.description, err.Error(), test.contains)
		}
	}
}

func TestErrorCarriesPosition(t *testing.T) {
	err := parseErr(t, "ldi r0 5")
	if !strings.Contains(err.Error(), "1:8") {
		t.Errorf("expected position 1:8 in %q", err.Error())
	}
}

func TestDeterministicSymbolOrder(t *testing.T) {
	src := ".global b, a\nzz:\nhalt\naa:\nhalt\ncall b\ncall a"
	first := mustParse(t, src).Encode()
	second := mustParse(t, src).Encode()

	if !bytes.Equal(first, second) {
		t.Error("assembling identical source twice produced different bytes")
	}

	obj := mustParse(t, src)
	names := make([]string, len(obj.Symbols))
	for i, s := range obj.Symbols {
		names[i] = s.Name
	}

	// definition order, then pending globals in first-mention order
	want := []string{"zz", "aa", "b", "a"}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("symbol order = %v, want %v", names, want)
		}
	}
}
