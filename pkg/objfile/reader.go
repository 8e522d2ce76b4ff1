package objfile

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Decode validates and decodes one object file back into structured
// sections and tables. Every declared region must fit within the file;
// the version field is read but not enforced.
func Decode(raw []byte) (*Object, error) {
	if len(raw) < HeaderSize {
		return nil, errors.Errorf("file too small: %d bytes, want at least %d", len(raw), HeaderSize)
	}

	magic := binary.LittleEndian.Uint32(raw[0:])
	if magic != Magic {
		return nil, errors.Errorf("bad magic 0x%08X, want 0x%08X", magic, Magic)
	}

	_ = binary.LittleEndian.Uint16(raw[4:]) // version, forward-compat placeholder
	textOff := binary.LittleEndian.Uint32(raw[8:])
	textSize := binary.LittleEndian.Uint32(raw[12:])
	dataOff := binary.LittleEndian.Uint32(raw[16:])
	dataSize := binary.LittleEndian.Uint32(raw[20:])
	symOff := binary.LittleEndian.Uint32(raw[24:])
	symCount := binary.LittleEndian.Uint32(raw[28:])
	relOff := binary.LittleEndian.Uint32(raw[32:])
	relCount := binary.LittleEndian.Uint32(raw[36:])

	if err := checkRegion(raw, textOff, textSize, "text section"); err != nil {
		return nil, err
	}
	if err := checkRegion(raw, dataOff, dataSize, "data section"); err != nil {
		return nil, err
	}

	obj := &Object{
		Text: append([]byte(nil), raw[textOff:textOff+textSize]...),
		Data: append([]byte(nil), raw[dataOff:dataOff+dataSize]...),
	}

	r := reader{raw: raw, pos: int(symOff)}
	for i := uint32(0); i < symCount; i++ {
		sec, flags, value, name, err := r.entry()
		if err != nil {
			return nil, errors.Wrap(err, "reading symbol table")
		}
		if !sec.valid() {
			return nil, errors.Errorf("symbol %q has out-of-range section %d", name, uint16(sec))
		}
		obj.Symbols = append(obj.Symbols, Symbol{
			Name:    name,
			Section: sec,
			Value:   value,
			Global:  flags&SymbolGlobal != 0,
		})
	}

	r.pos = int(relOff)
	for i := uint32(0); i < relCount; i++ {
		sec, typ, offset, name, err := r.entry()
		if err != nil {
			return nil, errors.Wrap(err, "reading relocation table")
		}
		if !sec.valid() {
			return nil, errors.Errorf("relocation for %q has out-of-range section %d", name, uint16(sec))
		}
		obj.Relocs = append(obj.Relocs, Relocation{
			Section: sec,
			Type:    typ,
			Offset:  offset,
			Symbol:  name,
		})
	}

	return obj, nil
}

// checkRegion verifies that off..off+size lies within the file
func checkRegion(raw []byte, off, size uint32, what string) error {
	if uint64(off)+uint64(size) > uint64(len(raw)) {
		return errors.Errorf("%s out of range: offset %d size %d, file is %d bytes", what, off, size, len(raw))
	}

	return nil
}

// reader walks the symbol/relocation tables, which share one entry shape:
// u16, u16, u32, u16 name_len, name bytes
type reader struct {
	raw []byte
	pos int
}

func (r *reader) entry() (Section, uint16, uint32, string, error) {
	const fixed = 2 + 2 + 4 + 2
	if r.pos+fixed > len(r.raw) {
		return 0, 0, 0, "", errors.New("table truncated")
	}

	sec := Section(binary.LittleEndian.Uint16(r.raw[r.pos:]))
	second := binary.LittleEndian.Uint16(r.raw[r.pos+2:])
	value := binary.LittleEndian.Uint32(r.raw[r.pos+4:])
	nameLen := int(binary.LittleEndian.Uint16(r.raw[r.pos+8:]))
	r.pos += fixed

	if r.pos+nameLen > len(r.raw) {
		return 0, 0, 0, "", errors.New("entry name truncated")
	}

	name := string(r.raw[r.pos : r.pos+nameLen])
	r.pos += nameLen

	return sec, second, value, name, nil
}
