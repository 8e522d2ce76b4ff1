package driver

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"vmtools/pkg/objfile"
)

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}

	return path
}

func TestAssembleAndLink(t *testing.T) {
	dir := t.TempDir()

	mainSrc := `.macro call2 1
	call $1
	call $1
.endm
.global main
main:
	call2 helper
	halt
`
	helperSrc := `.global helper
helper:
	ldi r0, 0x2A
	ret
`

	mainPath := writeSource(t, dir, "main.vmasm", mainSrc)
	helperPath := writeSource(t, dir, "helper.vmasm", helperSrc)

	for _, src := range []string{mainPath, helperPath} {
		asm := Assembler{SourceFile: src}
		if err := asm.Assemble(); err != nil {
			t.Fatalf("Assemble(%s) failed: %v", src, err)
		}
	}

	// default output swaps the extension
	mainObj := filepath.Join(dir, "main.vmo")
	helperObj := filepath.Join(dir, "helper.vmo")
	for _, path := range []string{mainObj, helperObj} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected object %s: %v", path, err)
		}
	}

	out := filepath.Join(dir, "prog.vmx")
	ld := Linker{OutputFile: out, Inputs: []string{mainObj, helperObj}}
	if err := ld.Link(); err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	blob, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading executable: %v", err)
	}

	if got := binary.LittleEndian.Uint32(blob[0:]); got != objfile.ExecMagic {
		t.Errorf("magic = 0x%08X, want 0x%08X", got, objfile.ExecMagic)
	}

	// main: two expanded calls + halt = 24 bytes; helper follows at 24
	textOff := binary.LittleEndian.Uint32(blob[8:])
	textSize := binary.LittleEndian.Uint32(blob[12:])
	if textSize != 40 {
		t.Errorf("text_size = %d, want 40", textSize)
	}

	text := blob[textOff : textOff+textSize]
	for _, callOff := range []int{4, 12} {
		if !bytes.Equal(text[callOff:callOff+4], []byte{24, 0, 0, 0}) {
			t.Errorf("call at %d patched to % X, want 18 00 00 00", callOff, text[callOff:callOff+4])
		}
	}

	// entry footer names main at address 0
	footer := blob[len(blob)-objfile.FooterSize:]
	if !bytes.Equal(footer[:4], objfile.FooterTag[:]) {
		t.Errorf("footer tag = % X", footer[:4])
	}
	if got := binary.LittleEndian.Uint32(footer[4:]); got != 0 {
		t.Errorf("entry = %d, want 0", got)
	}
}

func TestAssembleFailsWithoutOutput(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "bad.vmasm", "frob r1\n")

	asm := Assembler{SourceFile: src}
	if err := asm.Assemble(); err == nil {
		t.Fatal("expected an error for an unknown mnemonic")
	}

	// no partial output on error
	if _, err := os.Stat(filepath.Join(dir, "bad.vmo")); !os.IsNotExist(err) {
		t.Error("object file should not exist after a failed assembly")
	}
}

func TestLinkerOptionValidation(t *testing.T) {
	if err := (&Linker{Inputs: []string{"x.vmo"}}).Link(); err == nil {
		t.Error("expected an error when -o is missing")
	}
	if err := (&Linker{OutputFile: "out.vmx"}).Link(); err == nil {
		t.Error("expected an error with no inputs")
	}
}
