// Package objfile defines the .vmo relocatable object format shared by the
// assembler and the linker: a fixed 40-byte header, the raw text and data
// section bytes, and the length-prefixed symbol and relocation tables. All
// multi-byte integers are little-endian.
package objfile

import (
	"fmt"
)

// Magic identifies a relocatable object file ('VMOF')
const Magic uint32 = 0x564D4F46

// ExecMagic identifies a linked executable image ('VMCE')
const ExecMagic uint32 = 0x564D4345

// Version is the object format version written by the assembler
const Version uint16 = 1

// ExecVersion is the format version written by the linker
const ExecVersion uint16 = 2

// HeaderSize is the fixed size of both the object and the executable header
const HeaderSize = 40

// FooterSize is the trailing entry-point footer of an executable:
// a 4-byte "ENTR" tag followed by the u32 entry address
const FooterSize = 8

// FooterTag marks the executable's trailing entry-point record
var FooterTag = [4]byte{'E', 'N', 'T', 'R'}

type Section uint16

const (
	SectionUndef Section = 0
	SectionText  Section = 1
	SectionData  Section = 2
)

// String returns the conventional section name
func (s Section) String() string {
	switch s {
	case SectionUndef:
		return "UNDEF"
	case SectionText:
		return ".text"
	case SectionData:
		return ".data"
	default:
		return fmt.Sprintf("section(%d)", uint16(s))
	}
}

// valid reports whether the section number is one the format defines
func (s Section) valid() bool {
	return s <= SectionData
}

// SymbolGlobal is the flags bit marking a symbol linker-visible by request
const SymbolGlobal uint16 = 1 << 0

type Symbol struct {
	Name    string
	Section Section // SectionUndef for external references
	Value   uint32  // offset within its section; meaningless for UNDEF
	Global  bool
}

// Flags encodes the symbol's flag bits for serialization
func (s Symbol) Flags() uint16 {
	if s.Global {
		return SymbolGlobal
	}

	return 0
}

// RelocAbs32 is the only defined relocation type: write the referenced
// symbol's absolute address as 4 little-endian bytes at the target offset
const RelocAbs32 uint16 = 0

type Relocation struct {
	Section Section // section the patch target lives in
	Type    uint16
	Offset  uint32 // byte offset of the 4-byte patch slot within the section
	Symbol  string // referenced symbol name
}

// Object is one relocatable unit: the assembler's output and the linker's
// input. Symbols and relocations keep definition order so serialization is
// deterministic.
type Object struct {
	Text    []byte
	Data    []byte
	Symbols []Symbol
	Relocs  []Relocation
}
