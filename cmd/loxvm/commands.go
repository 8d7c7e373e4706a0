package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chazu/loxvm/pkg/bytecode"
	"github.com/chazu/loxvm/pkg/scanner"
	"github.com/chazu/loxvm/server"
)

// demoChunk loads 3.14, negates it and returns.
func demoChunk() *bytecode.Chunk {
	c := bytecode.NewChunk("demo")
	c.EmitConstant(3.14, 1)
	c.WriteOp(bytecode.OpNegate, 1)
	c.WriteOp(bytecode.OpReturn, 2)
	return c
}

// demo prints, runs and optionally saves the demo chunk.
// Usage:
//
//	loxvm demo
//	loxvm demo -o demo.loxc
func (a *app) demo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	output := fs.String("o", "", "Write the chunk to this file")
	if err := fs.Parse(args); err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	c := demoChunk()
	defer c.Release()

	if *output != "" {
		if err := writeChunk(*output, c); err != nil {
			return err
		}
	}

	fmt.Fprint(a.stdout, c)
	return a.interpret(c)
}

func (a *app) runFile(args []string) error {
	if len(args) != 1 {
		return usageError("usage: loxvm run <file.loxc>")
	}
	c, err := readChunk(args[0])
	if err != nil {
		return err
	}
	defer c.Release()

	if a.cfg.VM.PrintCode {
		fmt.Fprint(a.stdout, c)
	}
	return a.interpret(c)
}

func (a *app) disassembleFile(args []string) error {
	if len(args) != 1 {
		return usageError("usage: loxvm dis <file.loxc>")
	}
	c, err := readChunk(args[0])
	if err != nil {
		return err
	}
	defer c.Release()

	fmt.Fprint(a.stdout, c)
	return nil
}

func (a *app) scanFile(args []string) error {
	if len(args) != 1 {
		return usageError("usage: loxvm scan <file.lox>")
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", args[0], err)
	}
	return scanSource(a.stdout, string(src))
}

// scanSource prints one token per line as "line:col TOKEN".
func scanSource(w io.Writer, src string) error {
	tokens, err := scanner.Scan(src)
	if err != nil {
		var scanErrs scanner.ScanErrors
		if errors.As(err, &scanErrs) {
			return &exitError{code: exitData, err: err}
		}
		return err
	}
	for _, tok := range tokens {
		fmt.Fprintf(w, "%d:%d %s\n", tok.Line, tok.Column, tok)
	}
	return nil
}

func (a *app) interpret(c *bytecode.Chunk) error {
	vm := bytecode.NewVM(
		bytecode.WithOutput(a.stdout),
		bytecode.WithTrace(a.cfg.VM.Trace),
	)
	return vm.Interpret(c)
}

func runLSP() error {
	return server.NewLSP().Run()
}

// readChunk decodes a CBOR chunk file.
func readChunk(path string) (*bytecode.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	c, err := bytecode.UnmarshalChunk(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return c, nil
}

// writeChunk encodes c to path as CBOR.
func writeChunk(path string, c *bytecode.Chunk) error {
	data, err := bytecode.MarshalChunk(c)
	if err != nil {
		return fmt.Errorf("encoding chunk: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}
