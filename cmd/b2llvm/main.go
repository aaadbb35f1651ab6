// Command b2llvm compiles one or more B source files to LLVM-style IR
// and, optionally, to assembly or object code, invoking the LLVM
// target machine to emit native code after frontend-side validation.
// One file compiles at a time: the driver's multi-file loop is a plain
// sequential range, even though each file still gets a disjoint
// internal/ctx.Context, so nothing about the per-file state prevents
// running them concurrently later.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tinygo.org/x/go-llvm"

	"github.com/b2llvm/b2llvm/internal/ast"
	"github.com/b2llvm/b2llvm/internal/config"
	"github.com/b2llvm/b2llvm/internal/ctx"
	"github.com/b2llvm/b2llvm/internal/decl"
	"github.com/b2llvm/b2llvm/internal/emit"
	"github.com/b2llvm/b2llvm/internal/finalize"
	ioutilpkg "github.com/b2llvm/b2llvm/internal/ioutil"
	"github.com/b2llvm/b2llvm/internal/parse"
	"github.com/b2llvm/b2llvm/internal/target"
)

func main() {
	opt, err := config.ParseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "b2llvm: %s\n", err)
		os.Exit(1)
	}

	var outFile *os.File
	if len(opt.Out) > 0 {
		f, err := os.OpenFile(opt.Out, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "b2llvm: %s\n", err)
			os.Exit(1)
		}
		defer f.Close()
		outFile = f
	}
	wg := ioutilpkg.ListenWrite(outFile)
	defer ioutilpkg.Close()

	exit := 0
	for _, src := range opt.Src {
		if err := compileOne(opt, src); err != nil {
			fmt.Fprintf(os.Stderr, "b2llvm: %s: %s\n", src, err)
			exit = 1
			continue
		}
		if opt.Verbose {
			fmt.Fprintf(os.Stderr, "b2llvm: compiled %s\n", src)
		}
	}
	wg.Wait()
	os.Exit(exit)
}

// compileOne runs one translation unit end to end: read, lex+parse,
// semantic build, declare, emit, finalize, and write the requested
// output kind.
func compileOne(opt config.Options, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read source: %w", err)
	}

	tree, err := parse.Parse(string(raw))
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	prog, err := ast.Build(tree)
	if err != nil {
		return fmt.Errorf("semantic error: %w", err)
	}
	if opt.Verbose {
		fmt.Fprintf(os.Stderr, "b2llvm: -dump-ast %s\n", path)
		prog.Dump(os.Stderr)
	}

	machine, err := target.Resolve(opt.Target)
	if err != nil {
		return fmt.Errorf("target error: %w", err)
	}
	defer machine.Dispose()

	c := ctx.New(machine)
	moduleName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := c.BeginModule(moduleName); err != nil {
		return err
	}
	if err := decl.Declare(c, prog); err != nil {
		return fmt.Errorf("declaration error: %w", err)
	}
	if err := emit.Emit(c, prog); err != nil {
		return fmt.Errorf("emission error: %w", err)
	}
	if err := finalize.Run(c); err != nil {
		return fmt.Errorf("finalization error: %w", err)
	}

	w := ioutilpkg.NewWriter()
	defer w.Close()

	switch opt.Emit {
	case config.EmitIR:
		w.WriteString(c.Module().String())
	case config.EmitAsm, config.EmitObj:
		fileType := llvm.ObjectFile
		if opt.Emit == config.EmitAsm {
			fileType = llvm.AssemblyFile
		}
		buf, err := machine.TargetMachine().EmitToMemoryBuffer(c.Module(), fileType)
		if err != nil {
			return fmt.Errorf("backend error: %w", err)
		}
		w.Write(buf.Bytes())
	}
	return nil
}
