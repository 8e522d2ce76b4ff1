package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"vmtools/internal/driver"
	"vmtools/internal/logger"
	"vmtools/pkg/color"
)

// Main entry point for the VM assembler.
func main() {
	options := driver.Assembler{}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.StringVar(&options.OutputFile, "o", "", "Output object file (default: input with .vmo extension)")

	flag.Parse()
	args := flag.Args()

	logger.Init("VMASM", options.Verbose, options.NoColor)
	if options.Help {
		fmt.Printf("Usage: %s [options] <input.vmasm>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if options.NoColor {
		color.EnableColor(false)
	}

	if len(args) == 0 {
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}

	options.SourceFile = args[0]

	if err := options.Assemble(); err != nil {
		log.Fatal("Assembly failed", "error", err)
	}
}
