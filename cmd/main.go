package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/rayone121/widow/internal/config"
	"github.com/rayone121/widow/internal/driver"
	"github.com/rayone121/widow/internal/logger"
	"github.com/rayone121/widow/pkg/color"
)

// Main entry point for the Widow runner.
func main() {
	options := driver.Driver{}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.StringVar(&options.Backend, "b", "vm", "Execution backend (vm or tree)")
	flag.BoolVar(&options.ShouldCompile, "c", false, "Compile to a bytecode file")
	flag.StringVar(&options.OutputFile, "o", "", "Bytecode output file (default <input>.wdb)")
	flag.BoolVar(&options.ShouldExec, "x", false, "Execute a compiled bytecode file")
	flag.BoolVar(&options.Disassemble, "d", false, "Print the disassembly and exit")
	flag.BoolVar(&options.Trace, "t", false, "Trace VM instructions")
	flag.IntVar(&options.MaxSteps, "s", 0, "Maximum execution steps (0 = unlimited)")
	flag.StringVar(&options.ConfigFile, "config", "", "Path to "+config.FileName)
	flag.StringVar(&options.LogFile, "log", "", "Also append logs to this file")

	flag.Parse()
	args := flag.Args()

	if _, err := logger.Init(logger.Options{Debug: options.Verbose, NoColor: options.NoColor}); err != nil {
		log.Fatal("Could not start logger", "error", err)
	}
	if options.Help {
		fmt.Printf("Usage: %s [options] <file>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if len(args) == 0 {
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}
	options.SourceFile = args[0]

	cfg, err := config.Resolve(options.ConfigFile, filepath.Dir(options.SourceFile))
	if err != nil {
		log.Fatal("Could not load config", "error", err)
	}
	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	options.ApplyConfig(cfg, explicit)

	if options.NoColor {
		color.EnableColor(false)
	}

	closeLog, err := logger.Init(logger.Options{
		Debug:   options.Verbose || options.Trace,
		Level:   cfg.Log.Level,
		NoColor: !color.IsColorEnabled(),
		File:    options.LogFile,
	})
	if err != nil {
		log.Fatal("Could not open log file", "error", err)
	}
	if cfg.Path != "" {
		log.Debug("Loaded config", "path", cfg.Path)
	}

	err = options.Run()
	if cerr := closeLog(); cerr != nil {
		log.Warn("Could not close log file", "error", cerr)
	}
	if errors.Is(err, driver.ErrReported) {
		os.Exit(1)
	}
	if err != nil {
		log.Fatal("Run failed", "error", err)
	}
}
