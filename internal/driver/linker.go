package driver

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"vmtools/pkg/color"
	"vmtools/pkg/linker"
	"vmtools/pkg/objfile"
)

type Linker struct {
	Help       bool     // Show help message
	Verbose    bool     // Enable verbose output
	NoColor    bool     // Disable colored output
	OutputFile string   // Path to the output executable
	Inputs     []string // Object files in layout order
}

// Link decodes every input object, merges them in command-line order, and
// writes the executable image. Objects are read concurrently since decoding
// is independent per file; layout order is taken from the Inputs slice, not
// from completion order.
func (opts *Linker) Link() error {
	if opts.OutputFile == "" {
		return errors.New("output not specified (-o)")
	}
	if len(opts.Inputs) == 0 {
		return errors.New("no input objects")
	}

	inputs := make([]linker.Input, len(opts.Inputs))

	var g errgroup.Group
	for i, path := range opts.Inputs {
		i, path := i, path
		g.Go(func() error {
			raw, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "reading %s", path)
			}

			obj, err := objfile.Decode(raw)
			if err != nil {
				return errors.Wrapf(err, "parsing %s", path)
			}

			log.Info("loaded object", "file", path,
				"text", len(obj.Text), "data", len(obj.Data),
				"symbols", len(obj.Symbols), "relocs", len(obj.Relocs))

			inputs[i] = linker.Input{Path: path, Obj: obj}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if opts.Verbose {
		printLayout(inputs)
	}

	exe, err := linker.Link(inputs)
	if err != nil {
		return err
	}

	blob := exe.Encode()
	if err := os.WriteFile(opts.OutputFile, blob, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", opts.OutputFile)
	}

	fmt.Printf("Wrote %s (%d bytes). entry=%d\n", opts.OutputFile, len(blob), exe.Entry)
	return nil
}

// printLayout dumps the per-object base addresses of the final image
func printLayout(inputs []linker.Input) {
	lay := linker.ComputeLayout(inputs)

	fmt.Println(color.GreenText("\n=== Layout ==="))
	for i, in := range inputs {
		fmt.Printf("%s text@%s data@%s\n",
			color.BlueText(in.Path),
			color.CyanText(fmt.Sprintf("%08X", lay.TextBases[i])),
			color.CyanText(fmt.Sprintf("%08X", lay.DataBases[i])))
	}
	fmt.Printf("total text=%d data=%d\n", lay.TextSize, lay.DataSize)
}
