package isa

import (
	"bytes"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		in   Instruction
		want []byte
	}{
		{Instruction{Op: LDI, Rd: 0, Imm: 5}, []byte{1, 0, 0, 0, 5, 0, 0, 0}},
		{Instruction{Op: HALT}, []byte{15, 0, 0, 0, 0, 0, 0, 0}},
		{Instruction{Op: ADD, Rd: 3, Rs1: 1, Rs2: 2}, []byte{3, 3, 1, 2, 0, 0, 0, 0}},
		{Instruction{Op: LDI, Rd: 7, Imm: -1}, []byte{1, 7, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF}},
	}

	for _, test := range tests {
		enc := test.in.Encode()
		if !bytes.Equal(enc[:], test.want) {
			t.Errorf("%s: encoded % X, want % X", test.in, enc, test.want)
		}
	}
}

func TestLookup(t *testing.T) {
	if op, ok := Lookup("ldi"); !ok || op != LDI {
		t.Errorf("ldi -> %v, %v", op, ok)
	}
	if op, ok := Lookup("halt"); !ok || op != HALT {
		t.Errorf("halt -> %v, %v", op, ok)
	}
	if _, ok := Lookup("frob"); ok {
		t.Error("frob should not resolve")
	}
	if _, ok := Lookup("LDI"); ok {
		t.Error("lookup takes case-folded mnemonics only")
	}
}
