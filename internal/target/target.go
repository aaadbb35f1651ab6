// Package target describes the machine a compilation is generating code
// for: its LLVM triple and the bytes-per-word the frontend's word-oriented
// memory model is built on.
package target

import (
	"fmt"
	"strings"

	"tinygo.org/x/go-llvm"
)

// Arch enumerates the architectures the driver accepts on the command
// line. Unknown defers entirely to the host's default triple.
type Arch int

const (
	Unknown Arch = iota
	X86_64
	X86_32
	Aarch64
	Riscv64
	Riscv32
)

// Vendor enumerates the vendor field of the triple.
type Vendor int

const (
	UnknownVendor Vendor = iota
	PC
	Apple
	IBM
)

// OS enumerates the operating-system field of the triple. Zero value
// means "none" (a freestanding target).
type OS int

const (
	None OS = iota
	Linux
	Windows
	MAC
)

// Descriptor names the compilation target before it is resolved against
// the installed LLVM backends. A zero Descriptor (Arch == Unknown) means
// "use the host's default triple".
type Descriptor struct {
	Arch   Arch
	Vendor Vendor
	OS     OS
}

// Triple renders the LLVM target triple string for d, or the host default
// triple when d.Arch is Unknown.
func (d Descriptor) Triple() (string, error) {
	if d.Arch == Unknown {
		return llvm.DefaultTargetTriple(), nil
	}

	var sb strings.Builder
	switch d.Arch {
	case X86_64:
		sb.WriteString("x86_64")
	case X86_32:
		sb.WriteString("x86")
	case Aarch64:
		sb.WriteString("aarch64")
	case Riscv64:
		sb.WriteString("riscv64")
	case Riscv32:
		sb.WriteString("riscv32")
	default:
		return "", fmt.Errorf("target: unsupported architecture identifier %d", d.Arch)
	}
	sb.WriteRune('-')

	switch d.Vendor {
	case PC, UnknownVendor:
		sb.WriteString("pc")
	case Apple:
		sb.WriteString("apple")
	case IBM:
		sb.WriteString("ibm")
	default:
		return "", fmt.Errorf("target: unsupported vendor identifier %d", d.Vendor)
	}
	sb.WriteRune('-')

	switch d.OS {
	case None:
		sb.WriteString("none")
	case Linux:
		sb.WriteString("linux")
	case Windows:
		sb.WriteString("win32")
	case MAC:
		sb.WriteString("darwin")
	default:
		return "", fmt.Errorf("target: unsupported operating system identifier %d", d.OS)
	}
	sb.WriteRune('-')
	sb.WriteString("gnu")

	return sb.String(), nil
}

// Machine bundles the resolved LLVM target handle, its triple, and its
// target-machine/target-data pair. Callers must call Dispose when done.
type Machine struct {
	triple string
	tm     llvm.TargetMachine
	td     llvm.TargetData
}

// Resolve initializes LLVM's target registry and builds a Machine for d.
func Resolve(d Descriptor) (*Machine, error) {
	triple, err := d.Triple()
	if err != nil {
		return nil, err
	}
	llvm.InitializeAllTargets()
	llvm.InitializeAllTargetMCs()
	llvm.InitializeAllAsmPrinters()
	t, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	tm := t.CreateTargetMachine(triple, "", "",
		llvm.CodeGenLevelDefault, llvm.RelocDefault, llvm.CodeModelDefault)
	td := tm.CreateTargetData()
	return &Machine{triple: triple, tm: tm, td: td}, nil
}

// Dispose releases the underlying LLVM target-machine/target-data handles.
func (m *Machine) Dispose() {
	m.td.Dispose()
	m.tm.Dispose()
}

// Triple returns the resolved triple string.
func (m *Machine) Triple() string { return m.triple }

// DataLayout returns the target's data layout string, to be attached to
// the module with Module.SetDataLayout.
func (m *Machine) DataLayout() string { return m.td.String() }

// TargetMachine exposes the underlying handle for callers (the driver's
// object-emission stage) that need it directly.
func (m *Machine) TargetMachine() llvm.TargetMachine { return m.tm }

// BytesPerWord is the size, in bytes, of a pointer on this target — the
// concrete instantiation of the word's bit width, read off the resolved
// target data layout rather than assumed.
func (m *Machine) BytesPerWord() int {
	return int(m.td.PointerSize())
}
