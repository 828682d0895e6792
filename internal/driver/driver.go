package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/rayone121/widow/internal/config"
	"github.com/rayone121/widow/pkg/bytecode"
	"github.com/rayone121/widow/pkg/color"
	"github.com/rayone121/widow/pkg/compiler"
	"github.com/rayone121/widow/pkg/diag"
	"github.com/rayone121/widow/pkg/engine"
	"github.com/rayone121/widow/pkg/lexer"
	"github.com/rayone121/widow/pkg/parser"
	"github.com/rayone121/widow/pkg/vm"
)

// ErrReported marks failures whose details were already printed.
var ErrReported = errors.New("error reported")

type Driver struct {
	Help            bool   // Show help message
	Verbose         bool   // Enable verbose output
	NoColor         bool   // Disable colored output
	Backend         string // "vm" or "tree"
	ShouldCompile   bool   // Write a bytecode file instead of running
	ShouldExec      bool   // SourceFile is a bytecode file
	Disassemble     bool   // Print the compiled bytecode instead of running
	Trace           bool   // Log every VM instruction
	MaxSteps        int    // 0 = unlimited
	MaxFrames       int    // call depth limit
	BytecodeVersion int    // format version written by ShouldCompile
	SourceFile      string // Path to the source file
	OutputFile      string // Path to the bytecode output file
	ConfigFile      string // Explicit widow.toml path
	LogFile         string // Also write log records here

	Out io.Writer // program output and reports, stdout when nil
}

// Run processes the source file and compiles, disassembles or executes it
// depending on the options set.
func (opts *Driver) Run() error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	log.Info("Processing file", "file", opts.SourceFile, "backend", opts.Backend)

	input, err := os.ReadFile(opts.SourceFile)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", opts.SourceFile, err)
	}

	if opts.ShouldExec {
		return opts.runBytecode(input)
	}

	p := parser.NewParser(lexer.NewLexer(string(input)))
	prog := p.Parse()
	if syntaxErrors := p.Errors(); len(syntaxErrors) > 0 {
		fmt.Fprintln(opts.Out, color.BrightRedText("=== Syntax Errors ==="))
		fmt.Fprintln(opts.Out, syntaxErrors[0])
		return fmt.Errorf("parsing failed with %d errors: %w", len(syntaxErrors), ErrReported)
	}

	if opts.ShouldCompile || opts.Disassemble || (opts.Verbose && opts.Backend != "tree") {
		m, err := compiler.Compile(prog)
		if err != nil {
			return opts.report("Compile Errors", err)
		}
		if opts.Verbose || opts.Disassemble {
			fmt.Fprintln(opts.Out, color.Header("Bytecode"))
			fmt.Fprint(opts.Out, m.Disassemble())
		}
		if opts.ShouldCompile {
			return opts.writeBytecode(m)
		}
		if opts.Disassemble {
			return nil
		}
	}

	backend, err := engine.New(opts.Backend, opts.limits())
	if err != nil {
		return err
	}
	if opts.Verbose {
		fmt.Fprintln(opts.Out, color.Header("Program Output"))
	}
	result, err := backend.Execute(prog, opts.Out)
	if err != nil {
		return opts.report(banner(err), err)
	}
	if !result.IsNil() {
		log.Debug("Program returned", "backend", backend.Name(), "value", result.String())
	}
	return nil
}

// banner names the error section after the stage that failed; the vm
// backend compiles inside Execute.
func banner(err error) string {
	if kind, ok := diag.KindOf(err); ok && kind == diag.Compile {
		return "Compile Errors"
	}
	return "Runtime Errors"
}

func (opts *Driver) limits() engine.Limits {
	return engine.Limits{MaxSteps: opts.MaxSteps, MaxFrames: opts.MaxFrames, Trace: opts.Trace}
}

// runBytecode loads a module written by ShouldCompile and runs it on the VM.
func (opts *Driver) runBytecode(data []byte) error {
	if opts.Backend == "tree" {
		return errors.New("bytecode files can only run on the vm backend")
	}
	m, err := bytecode.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("cannot load %s: %w", opts.SourceFile, err)
	}
	log.Info("Loaded bytecode", "file", opts.SourceFile, "chunks", len(m.Chunks))

	if opts.Verbose || opts.Disassemble {
		fmt.Fprintln(opts.Out, color.Header("Bytecode"))
		fmt.Fprint(opts.Out, m.Disassemble())
		if opts.Disassemble {
			return nil
		}
	}
	if opts.Verbose {
		fmt.Fprintln(opts.Out, color.Header("Program Output"))
	}

	vmOpts := append([]vm.Option{vm.WithWriter(opts.Out)}, engine.VMOptions(opts.limits())...)
	if _, err := vm.Execute(m, vmOpts...); err != nil {
		return opts.report("Runtime Errors", err)
	}
	return nil
}

func (opts *Driver) writeBytecode(m *bytecode.Module) error {
	out := opts.OutputFile
	if out == "" {
		out = DefaultOutput(opts.SourceFile)
	}
	version := byte(opts.BytecodeVersion)
	if version == 0 {
		version = bytecode.CurrentVersion
	}
	if version == bytecode.Version1 {
		fmt.Fprintln(opts.Out, color.Warning("bytecode version 1 does not store constant values"))
	}

	data, err := bytecode.Marshal(m, version)
	if err != nil {
		return fmt.Errorf("cannot encode bytecode: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", out, err)
	}
	log.Info("Wrote bytecode", "file", out, "version", version, "bytes", len(data))
	return nil
}

// report prints err under a section banner and marks it as reported.
func (opts *Driver) report(section string, err error) error {
	fmt.Fprintln(opts.Out, color.BrightRedText("=== "+section+" ==="))
	fmt.Fprintln(opts.Out, diag.Render(err))
	return fmt.Errorf("%w: %w", ErrReported, err)
}

// DefaultOutput is the bytecode path for a source file: its name with the
// extension replaced by .wdb.
func DefaultOutput(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".wdb"
}

// ApplyConfig copies c into the options, except for settings whose flag
// was given explicitly (keys of explicit are flag names).
func (opts *Driver) ApplyConfig(c *config.Config, explicit map[string]bool) {
	if !explicit["b"] {
		opts.Backend = c.Run.Backend
	}
	if !explicit["s"] {
		opts.MaxSteps = c.Run.MaxSteps
	}
	if !explicit["t"] {
		opts.Trace = c.Run.Trace
	}
	if !explicit["n"] {
		opts.NoColor = !c.Output.Color
	}
	if !explicit["log"] {
		opts.LogFile = c.Log.File
	}
	opts.MaxFrames = c.Run.MaxFrames
	opts.BytecodeVersion = c.Output.BytecodeVersion
}
