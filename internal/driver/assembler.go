// Package driver wires the pipeline stages into the two CLI tools: the
// assembler (macro expand, lex, parse, serialize) and the linker (decode
// objects, link, serialize).
package driver

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"vmtools/pkg/color"
	"vmtools/pkg/lexer"
	"vmtools/pkg/macro"
	"vmtools/pkg/objfile"
	"vmtools/pkg/parser"
)

type Assembler struct {
	Help       bool   // Show help message
	Verbose    bool   // Enable verbose output
	NoColor    bool   // Disable colored output
	SourceFile string // Path to the assembly source file
	OutputFile string // Path to the output object file
}

// Assemble runs one macro-expand, lex, parse, serialize pass over the source
// file and writes the resulting object. No output is written on error.
func (opts *Assembler) Assemble() error {
	log.Info("assembling", "file", opts.SourceFile)

	input, err := os.ReadFile(opts.SourceFile)
	if err != nil {
		return errors.Wrapf(err, "reading %s", opts.SourceFile)
	}

	expanded, err := macro.Expand(string(input))
	if err != nil {
		return errors.Wrapf(err, "expanding macros in %s", opts.SourceFile)
	}

	toks, err := lexer.Tokenize(expanded)
	if err != nil {
		return errors.Wrapf(err, "lexing %s", opts.SourceFile)
	}

	p := parser.NewParser(toks)
	obj, err := p.Parse()
	if err != nil {
		return errors.Wrapf(err, "parsing %s", opts.SourceFile)
	}

	if opts.Verbose {
		printListing(p, obj)
	}

	out := opts.OutputFile
	if out == "" {
		out = defaultOutput(opts.SourceFile, ".vmo")
	}

	blob := obj.Encode()
	if err := os.WriteFile(out, blob, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", out)
	}

	fmt.Printf("Wrote %s (%d bytes)\n", out, len(blob))
	return nil
}

// defaultOutput replaces the input's extension, mirroring `in.vmasm -> in.vmo`
func defaultOutput(in, ext string) string {
	if dot := strings.LastIndexByte(in, '.'); dot > 0 {
		return in[:dot] + ext
	}

	return in + ext
}

// printListing dumps the assembled object in a readable form
func printListing(p *parser.Parser, obj *objfile.Object) {
	fmt.Println(color.GreenText("\n=== Assembly Listing ==="))
	for i, in := range p.Instructions() {
		fmt.Printf("%s  %s\n",
			color.CyanText(fmt.Sprintf("%08X", i*8)),
			color.YellowText(in.String()))
	}

	fmt.Printf("%s text=%d data=%d\n", color.GreenText("sections:"), len(obj.Text), len(obj.Data))

	if len(obj.Symbols) > 0 {
		fmt.Println(color.GreenText("symbols:"))
		for _, s := range obj.Symbols {
			flag := ""
			if s.Global {
				flag = " global"
			}
			fmt.Printf("  %s %s+%d%s\n", color.BlueText(s.Name), s.Section, s.Value, color.GrayText(flag))
		}
	}

	if len(obj.Relocs) > 0 {
		fmt.Println(color.GreenText("relocations:"))
		for _, r := range obj.Relocs {
			fmt.Printf("  %s+%d -> %s\n", r.Section, r.Offset, color.BlueText(r.Symbol))
		}
	}
}
