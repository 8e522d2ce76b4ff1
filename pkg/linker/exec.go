package linker

import (
	"bytes"
	"encoding/binary"

	"vmtools/pkg/objfile"
)

// Executable is a fully linked image: merged sections, the derived symbol
// table, and the entry address (symbol "main" when defined, else 0).
type Executable struct {
	Text    []byte
	Data    []byte
	Symbols []objfile.Symbol
	Entry   uint32
}

// Encode renders the executable image. The header is structurally identical
// to the object header, tagged with the executable magic, and the relocation
// count is always 0. The entry point lives in a mandatory trailing 8-byte
// footer ("ENTR" tag + u32 entry address) that the header does not describe;
// loaders must read the last 8 bytes of the file to recover it.
func (e *Executable) Encode() []byte {
	symblob := objfile.EncodeSymbols(e.Symbols)

	textOff := uint32(objfile.HeaderSize)
	textSize := uint32(len(e.Text))
	dataOff := textOff + textSize
	dataSize := uint32(len(e.Data))
	symOff := dataOff + dataSize
	relOff := symOff + uint32(len(symblob))

	var buf bytes.Buffer
	buf.Grow(objfile.HeaderSize + len(e.Text) + len(e.Data) + len(symblob) + objfile.FooterSize)

	writeU32(&buf, objfile.ExecMagic)
	writeU16(&buf, objfile.ExecVersion)
	writeU16(&buf, 0) // flags
	writeU32(&buf, textOff)
	writeU32(&buf, textSize)
	writeU32(&buf, dataOff)
	writeU32(&buf, dataSize)
	writeU32(&buf, symOff)
	writeU32(&buf, uint32(len(e.Symbols)))
	writeU32(&buf, relOff)
	writeU32(&buf, 0) // a linked image carries no outstanding relocations

	buf.Write(e.Text)
	buf.Write(e.Data)
	buf.Write(symblob)

	buf.Write(objfile.FooterTag[:])
	writeU32(&buf, e.Entry)

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
