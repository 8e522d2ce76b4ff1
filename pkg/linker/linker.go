// Package linker merges relocatable objects into a single executable image:
// it assigns absolute base addresses per object and section, builds a global
// symbol table, validates references, concatenates sections, and patches
// relocations in place.
package linker

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"vmtools/pkg/objfile"
)

// Input is one object file to link. Input order is the command-line order
// and determines the final layout.
type Input struct {
	Path string
	Obj  *objfile.Object
}

// Layout holds the absolute base address of each object's sections.
// Text sections are laid out back-to-back from address 0, data sections
// back-to-back immediately after the last text byte.
type Layout struct {
	TextBases []uint32
	DataBases []uint32
	TextSize  uint32 // total text size; also the text/data boundary
	DataSize  uint32
}

// globalSym is a resolved entry in the transient global symbol table
type globalSym struct {
	section objfile.Section
	addr    uint32 // absolute address
	global  bool
	obj     int // defining object index
}

// ComputeLayout assigns base addresses for every object's sections in input
// order
func ComputeLayout(inputs []Input) Layout {
	lay := Layout{
		TextBases: make([]uint32, len(inputs)),
		DataBases: make([]uint32, len(inputs)),
	}

	for i, in := range inputs {
		lay.TextBases[i] = lay.TextSize
		lay.TextSize += uint32(len(in.Obj.Text))
	}

	addr := lay.TextSize
	for i, in := range inputs {
		lay.DataBases[i] = addr
		addr += uint32(len(in.Obj.Data))
	}
	lay.DataSize = addr - lay.TextSize

	return lay
}

// Link merges the given objects, in order, into an executable image
func Link(inputs []Input) (*Executable, error) {
	if len(inputs) == 0 {
		return nil, errors.New("no input objects")
	}

	lay := ComputeLayout(inputs)

	gsym, order, err := buildGlobalTable(inputs, lay)
	if err != nil {
		return nil, err
	}

	if err := checkReferences(inputs, gsym); err != nil {
		return nil, err
	}

	text := make([]byte, 0, lay.TextSize)
	data := make([]byte, 0, lay.DataSize)
	for _, in := range inputs {
		text = append(text, in.Obj.Text...)
	}
	for _, in := range inputs {
		data = append(data, in.Obj.Data...)
	}

	if err := applyRelocations(inputs, lay, gsym, text, data); err != nil {
		return nil, err
	}

	exe := &Executable{
		Text:  text,
		Data:  data,
		Entry: 0,
	}

	// Derived symbol table: every resolved symbol, re-tagged by comparing
	// its address against the text/data boundary
	for _, name := range order {
		g := gsym[name]
		sec := objfile.SectionText
		if g.addr >= lay.TextSize {
			sec = objfile.SectionData
		}
		exe.Symbols = append(exe.Symbols, objfile.Symbol{
			Name:    name,
			Section: sec,
			Value:   g.addr,
			Global:  true,
		})
	}

	if main, ok := gsym["main"]; ok {
		exe.Entry = main.addr
	}

	return exe, nil
}

// buildGlobalTable registers every defined symbol across every object.
// Each defined name is linker-visible regardless of its global flag, and a
// name defined twice is a fatal error naming both objects.
func buildGlobalTable(inputs []Input, lay Layout) (map[string]globalSym, []string, error) {
	gsym := make(map[string]globalSym)
	var order []string

	for oi, in := range inputs {
		for _, s := range in.Obj.Symbols {
			if s.Section == objfile.SectionUndef {
				continue // external reference, not a definition
			}

			base := lay.TextBases[oi]
			if s.Section == objfile.SectionData {
				base = lay.DataBases[oi]
			}

			if old, ok := gsym[s.Name]; ok {
				return nil, nil, errors.Errorf("duplicate symbol %q defined in %s and %s",
					s.Name, inputs[old.obj].Path, in.Path)
			}

			gsym[s.Name] = globalSym{
				section: s.Section,
				addr:    base + s.Value,
				global:  s.Global,
				obj:     oi,
			}
			order = append(order, s.Name)
		}
	}

	return gsym, order, nil
}

// checkReferences collects every referenced name (relocation targets plus
// UNDEF symbol entries) and reports all unresolved ones in one failure
func checkReferences(inputs []Input, gsym map[string]globalSym) error {
	referenced := make(map[string]bool)
	for _, in := range inputs {
		for _, r := range in.Obj.Relocs {
			referenced[r.Symbol] = true
		}
		for _, s := range in.Obj.Symbols {
			if s.Section == objfile.SectionUndef {
				referenced[s.Name] = true
			}
		}
	}

	var undefined []string
	for name := range referenced {
		if _, ok := gsym[name]; !ok {
			undefined = append(undefined, name)
		}
	}

	if len(undefined) > 0 {
		sort.Strings(undefined)
		return errors.Errorf("undefined symbols: %s", strings.Join(undefined, ", "))
	}

	return nil
}

// applyRelocations resolves each relocation's symbol to its absolute address
// and overwrites the 4-byte patch slot in the merged buffers
func applyRelocations(inputs []Input, lay Layout, gsym map[string]globalSym, text, data []byte) error {
	for oi, in := range inputs {
		for _, r := range in.Obj.Relocs {
			if r.Type != objfile.RelocAbs32 {
				return errors.Errorf("unsupported relocation type %d in %s", r.Type, in.Path)
			}

			g, ok := gsym[r.Symbol]
			if !ok {
				return errors.Errorf("relocation refers to undefined symbol %q in %s", r.Symbol, in.Path)
			}

			var buf []byte
			var at uint32
			switch r.Section {
			case objfile.SectionText:
				buf = text
				at = lay.TextBases[oi] + r.Offset
			case objfile.SectionData:
				// Data bases are absolute; the merged data buffer starts
				// at the text/data boundary
				buf = data
				at = lay.DataBases[oi] - lay.TextSize + r.Offset
			default:
				return errors.Errorf("relocation for %q in %s names section %s", r.Symbol, in.Path, r.Section)
			}

			if uint64(at)+4 > uint64(len(buf)) {
				return errors.Errorf("relocation write out of range in %s for symbol %q", in.Path, r.Symbol)
			}

			buf[at] = byte(g.addr)
			buf[at+1] = byte(g.addr >> 8)
			buf[at+2] = byte(g.addr >> 16)
			buf[at+3] = byte(g.addr >> 24)
		}
	}

	return nil
}
