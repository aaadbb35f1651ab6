// Package config parses command-line arguments into the driver's
// options, hand-rolled from os.Args — no external flag library.
package config

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/b2llvm/b2llvm/internal/target"
)

// Emit selects what the driver writes per input file.
type Emit int

const (
	EmitIR Emit = iota
	EmitAsm
	EmitObj
)

const appVersion = "b2llvm 1.0"

// Options holds one invocation's fully parsed flags.
type Options struct {
	Src     []string // one or more .b source paths
	Out     string   // output path; empty means stdout, only valid for a single source
	Emit    Emit
	Target  target.Descriptor
	Verbose bool
}

// ParseArgs parses os.Args[1:] into Options. Flags and source paths may
// appear in any order; an unrecognized flag is an error, and every
// non-flag argument is treated as a source path.
func ParseArgs() (Options, error) {
	opt := Options{}
	args := os.Args[1:]

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "--h", "-help", "--help":
			printHelp()
			os.Exit(0)
		case "-v", "--v", "-version", "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case "-vb":
			opt.Verbose = true
		case "-o":
			v, err := flagArg(args, &i)
			if err != nil {
				return opt, err
			}
			opt.Out = v
		case "-emit":
			v, err := flagArg(args, &i)
			if err != nil {
				return opt, err
			}
			switch v {
			case "ir":
				opt.Emit = EmitIR
			case "asm":
				opt.Emit = EmitAsm
			case "obj":
				opt.Emit = EmitObj
			default:
				return opt, fmt.Errorf("unexpected -emit value: %s", v)
			}
		case "-arch":
			v, err := flagArg(args, &i)
			if err != nil {
				return opt, err
			}
			switch v {
			case "x86_64":
				opt.Target.Arch = target.X86_64
			case "x86_32":
				opt.Target.Arch = target.X86_32
			case "aarch64":
				opt.Target.Arch = target.Aarch64
			case "riscv64":
				opt.Target.Arch = target.Riscv64
			case "riscv32":
				opt.Target.Arch = target.Riscv32
			default:
				return opt, fmt.Errorf("unexpected architecture identifier: %s", v)
			}
		case "-vendor":
			v, err := flagArg(args, &i)
			if err != nil {
				return opt, err
			}
			switch v {
			case "pc":
				opt.Target.Vendor = target.PC
			case "apple":
				opt.Target.Vendor = target.Apple
			case "ibm":
				opt.Target.Vendor = target.IBM
			default:
				return opt, fmt.Errorf("unexpected vendor identifier: %s", v)
			}
		case "-os":
			v, err := flagArg(args, &i)
			if err != nil {
				return opt, err
			}
			switch v {
			case "linux":
				opt.Target.OS = target.Linux
			case "windows":
				opt.Target.OS = target.Windows
			case "mac":
				opt.Target.OS = target.MAC
			default:
				return opt, fmt.Errorf("unexpected operating system identifier: %s", v)
			}
		default:
			if strings.HasPrefix(args[i], "-") {
				return opt, fmt.Errorf("unexpected flag: %s", args[i])
			}
			opt.Src = append(opt.Src, args[i])
		}
	}

	if len(opt.Src) == 0 {
		return opt, fmt.Errorf("expected at least one source file")
	}
	if len(opt.Out) > 0 && len(opt.Src) > 1 {
		return opt, fmt.Errorf("-o requires exactly one source file, got %d", len(opt.Src))
	}
	return opt, nil
}

func flagArg(args []string, i *int) (string, error) {
	if *i+1 >= len(args) {
		return "", fmt.Errorf("got flag %s but no argument", args[*i])
	}
	if strings.HasPrefix(args[*i+1], "-") {
		return "", fmt.Errorf("expected argument for %s, got new flag %s", args[*i], args[*i+1])
	}
	*i++
	return args[*i], nil
}

func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, -help\tPrints this help message and exits.")
	_, _ = fmt.Fprintln(w, "-o\tOutput path. Requires exactly one source file; defaults to stdout.")
	_, _ = fmt.Fprintln(w, "-emit\tOutput kind: 'ir' (default), 'asm' or 'obj'.")
	_, _ = fmt.Fprintln(w, "-arch\tTarget architecture: x86_64, x86_32, aarch64, riscv64 or riscv32.")
	_, _ = fmt.Fprintln(w, "-vendor\tTarget vendor: pc, apple or ibm.")
	_, _ = fmt.Fprintln(w, "-os\tTarget operating system: linux, windows or mac.")
	_, _ = fmt.Fprintln(w, "-vb\tVerbose mode: print each file's AST dump and a per-file completion line to stderr.")
	_, _ = fmt.Fprintln(w, "-v, -version\tPrints the compiler version and exits.")
	_ = w.Flush()
}
