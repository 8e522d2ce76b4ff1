package objfile

import (
	"bytes"
	"encoding/binary"
)

// Encode renders the object into the on-disk .vmo layout: header, text
// bytes, data bytes, symbol table, relocation table. Table entries are
// written in the order they appear on the Object, so identical input
// produces byte-identical output.
func (o *Object) Encode() []byte {
	symblob := EncodeSymbols(o.Symbols)
	relblob := encodeRelocs(o.Relocs)

	textOff := uint32(HeaderSize)
	dataOff := textOff + uint32(len(o.Text))
	symOff := dataOff + uint32(len(o.Data))
	relOff := symOff + uint32(len(symblob))

	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(o.Text) + len(o.Data) + len(symblob) + len(relblob))

	writeU32(&buf, Magic)
	writeU16(&buf, Version)
	writeU16(&buf, 0) // flags
	writeU32(&buf, textOff)
	writeU32(&buf, uint32(len(o.Text)))
	writeU32(&buf, dataOff)
	writeU32(&buf, uint32(len(o.Data)))
	writeU32(&buf, symOff)
	writeU32(&buf, uint32(len(o.Symbols)))
	writeU32(&buf, relOff)
	writeU32(&buf, uint32(len(o.Relocs)))

	buf.Write(o.Text)
	buf.Write(o.Data)
	buf.Write(symblob)
	buf.Write(relblob)

	return buf.Bytes()
}

// EncodeSymbols renders a symbol table:
// per entry u16 section, u16 flags, u32 value, u16 name_len, name bytes.
// The executable serializer shares this encoding for its derived table.
func EncodeSymbols(symbols []Symbol) []byte {
	var buf bytes.Buffer
	for _, s := range symbols {
		writeU16(&buf, uint16(s.Section))
		writeU16(&buf, s.Flags())
		writeU32(&buf, s.Value)
		writeU16(&buf, uint16(len(s.Name)))
		buf.WriteString(s.Name)
	}

	return buf.Bytes()
}

// encodeRelocs renders the relocation table:
// per entry u16 section, u16 type, u32 offset, u16 name_len, name bytes
func encodeRelocs(relocs []Relocation) []byte {
	var buf bytes.Buffer
	for _, r := range relocs {
		writeU16(&buf, uint16(r.Section))
		writeU16(&buf, r.Type)
		writeU32(&buf, r.Offset)
		writeU16(&buf, uint16(len(r.Symbol)))
		buf.WriteString(r.Symbol)
	}

	return buf.Bytes()
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
