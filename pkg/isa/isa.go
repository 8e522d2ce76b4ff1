// Package isa defines the VM instruction set: opcode numbers, the mnemonic
// lookup table, and the fixed 8-byte instruction encoding
// [opcode:1][rd:1][rs1:1][rs2:1][imm:4 little-endian].
package isa

import (
	"encoding/binary"
	"fmt"
)

type Opcode uint8

const (
	LDI  Opcode = 1
	MOV  Opcode = 2
	ADD  Opcode = 3
	SUB  Opcode = 4
	AND  Opcode = 5
	OR   Opcode = 6
	XOR  Opcode = 7
	LW   Opcode = 8
	SW   Opcode = 9
	JMP  Opcode = 10
	BEQ  Opcode = 11
	BNE  Opcode = 12
	CALL Opcode = 13
	RET  Opcode = 14
	HALT Opcode = 15
)

// InstructionSize is the encoded width of every instruction in bytes
const InstructionSize = 8

// NumRegisters bounds the register file; valid indices are 0..NumRegisters-1
const NumRegisters = 32

var Mnemonics = map[string]Opcode{
	"ldi":  LDI,
	"mov":  MOV,
	"add":  ADD,
	"sub":  SUB,
	"and":  AND,
	"or":   OR,
	"xor":  XOR,
	"lw":   LW,
	"sw":   SW,
	"jmp":  JMP,
	"beq":  BEQ,
	"bne":  BNE,
	"call": CALL,
	"ret":  RET,
	"halt": HALT,
}

var opcodeNames = map[Opcode]string{
	LDI: "ldi", MOV: "mov", ADD: "add", SUB: "sub", AND: "and",
	OR: "or", XOR: "xor", LW: "lw", SW: "sw", JMP: "jmp",
	BEQ: "beq", BNE: "bne", CALL: "call", RET: "ret", HALT: "halt",
}

// String returns the mnemonic for an opcode
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}

	return fmt.Sprintf("op(%d)", uint8(op))
}

// Lookup resolves a case-folded mnemonic to its opcode
func Lookup(mnemonic string) (Opcode, bool) {
	op, ok := Mnemonics[mnemonic]
	return op, ok
}

type Instruction struct {
	Op       Opcode
	Rd       uint8
	Rs1      uint8
	Rs2      uint8
	Imm      int32
	LabelRef string // unresolved label name, "" if none
	SrcLine  int    // source line for diagnostics
}

// Encode renders the instruction into its 8-byte slot
func (in Instruction) Encode() [InstructionSize]byte {
	var b [InstructionSize]byte
	b[0] = byte(in.Op)
	b[1] = in.Rd
	b[2] = in.Rs1
	b[3] = in.Rs2
	binary.LittleEndian.PutUint32(b[4:], uint32(in.Imm))

	return b
}

// String returns a listing-style representation of the instruction
func (in Instruction) String() string {
	return fmt.Sprintf("%-4s rd=%d rs1=%d rs2=%d imm=%d", in.Op, in.Rd, in.Rs1, in.Rs2, in.Imm)
}
