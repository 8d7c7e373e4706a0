// loxvm CLI - assembles, inspects, stores and runs bytecode chunks
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"

	"github.com/chazu/loxvm/manifest"
	"github.com/chazu/loxvm/pkg/bytecode"

	_ "github.com/tliron/commonlog/simple"
)

// Exit codes follow sysexits.h.
const (
	exitFailure = 1
	exitUsage   = 64 // EX_USAGE
	exitData    = 65 // EX_DATAERR
	exitRuntime = 70 // EX_SOFTWARE
)

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ee):
		return ee.code
	case bytecode.IsRuntimeError(err):
		return exitRuntime
	default:
		return exitFailure
	}
}

// app holds what every command needs.
type app struct {
	cfg    *manifest.Manifest
	stdout io.Writer
	stderr io.Writer
}

func main() {
	configDir := flag.String("config", ".", "Directory to search upward from for loxvm.toml / loxvm.yaml")
	verbosity := flag.Int("v", -1, "Log verbosity 0-5 (overrides [log] verbosity)")
	trace := flag.Bool("trace", false, "Log the stack and each instruction while running")
	printCode := flag.Bool("print-code", false, "Disassemble chunks before running them")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: loxvm [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  demo [-o file.loxc]     Assemble and run the demo chunk\n")
		fmt.Fprintf(os.Stderr, "  run <file.loxc>         Run a chunk file\n")
		fmt.Fprintf(os.Stderr, "  dis <file.loxc>         Disassemble a chunk file\n")
		fmt.Fprintf(os.Stderr, "  scan <file.lox>         Print the tokens of a source file\n")
		fmt.Fprintf(os.Stderr, "  store save <file.loxc>  Save a chunk file to the store\n")
		fmt.Fprintf(os.Stderr, "  store run <name>        Run a stored chunk\n")
		fmt.Fprintf(os.Stderr, "  store list              List stored chunks\n")
		fmt.Fprintf(os.Stderr, "  store rm <name>         Delete a stored chunk\n")
		fmt.Fprintf(os.Stderr, "  lsp                     Start the language server on stdio\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadConfig(*configDir)
	if err != nil {
		fail(err)
	}
	if *verbosity >= 0 {
		cfg.Log.Verbosity = *verbosity
	}
	if *trace {
		cfg.VM.Trace = true
		// Trace lines are debug messages.
		cfg.Log.Verbosity = max(cfg.Log.Verbosity, 2)
	}
	if *printCode {
		cfg.VM.PrintCode = true
	}

	if logFile := cfg.LogFile(); logFile != "" {
		commonlog.Configure(cfg.Log.Verbosity, &logFile)
	} else {
		commonlog.Configure(cfg.Log.Verbosity, nil)
	}

	a := &app{cfg: cfg, stdout: os.Stdout, stderr: os.Stderr}
	if err := a.dispatch(flag.Args()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flag.Usage()
			os.Exit(exitUsage)
		}
		fail(err)
	}
}

// loadConfig finds the manifest above dir, or returns defaults rooted at dir.
func loadConfig(dir string) (*manifest.Manifest, error) {
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return manifest.Default(dir), nil
	}
	return m, nil
}

func (a *app) dispatch(args []string) error {
	if len(args) == 0 {
		return flag.ErrHelp
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "demo":
		return a.demo(rest)
	case "run":
		return a.runFile(rest)
	case "dis":
		return a.disassembleFile(rest)
	case "scan":
		return a.scanFile(rest)
	case "store":
		return a.storeCommand(rest)
	case "lsp":
		return runLSP()
	default:
		return usageError("unknown command %q", cmd)
	}
}

// fail prints err and exits with its code.
func fail(err error) {
	prefix := "error:"
	fd := os.Stderr.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		prefix = "\x1b[1;31merror:\x1b[0m"
	}
	fmt.Fprintln(os.Stderr, prefix, err)
	os.Exit(exitCode(err))
}
