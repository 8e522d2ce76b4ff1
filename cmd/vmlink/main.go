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

// Main entry point for the VM linker.
func main() {
	options := driver.Linker{}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.StringVar(&options.OutputFile, "o", "", "Output executable file")

	flag.Parse()
	options.Inputs = flag.Args()

	logger.Init("VMLINK", options.Verbose, options.NoColor)
	if options.Help {
		fmt.Printf("Usage: %s -o output.vmx <input1.vmo> [input2.vmo ...]\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if options.NoColor {
		color.EnableColor(false)
	}

	if err := options.Link(); err != nil {
		log.Fatal("Linking failed", "error", err)
	}
}
