// Package ctx holds the emit context: the mutable, per-compilation state
// the declaration and emission passes thread through a single
// translation unit. A Context is exclusively-owned by its walker and
// passed by reference, a plain aggregate rather than anything more
// elaborate; scoped acquisitions return a restore closure instead of
// relying on a try/finally construct Go doesn't have.
package ctx

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/b2llvm/b2llvm/internal/addr"
	"github.com/b2llvm/b2llvm/internal/diag"
	"github.com/b2llvm/b2llvm/internal/target"
)

// Binding is what a scope name resolves to: the word-valued address of
// some storage, and whether that storage must be dereferenced (loaded
// through) to obtain the name's r-value. Scalar autos, externs, and
// function parameters are Dereferenced; vector autos, vector externs,
// and function definitions are not — their binding address already *is*
// the r-value.
type Binding struct {
	Address      llvm.Value
	Dereferenced bool
}

// GotoHook is a deferred goto branch: the block the branch must be
// inserted into, the target label, and the label map active in the
// function that issued the goto (captured at queue time, since the
// context's own label map may belong to a different function by the
// time hooks drain).
type GotoHook struct {
	Block  llvm.BasicBlock
	Label  string
	Labels map[string]llvm.BasicBlock
}

// CtorRecord schedules a function to run at module load.
type CtorRecord struct {
	Priority int32
	Fn       llvm.Value
	Data     llvm.Value
}

type scopeFrame struct {
	vars map[string]*Binding
	next *scopeFrame
}

// Context is the emit context for one translation unit.
type Context struct {
	machine *target.Machine
	wordTy  llvm.Type

	module  llvm.Module
	builder llvm.Builder
	bridge  *addr.Bridge

	global map[string]*Binding
	scope  *scopeFrame

	externals map[string]llvm.Value
	strings   map[string]llvm.Value
	strCount  int

	labels map[string]llvm.BasicBlock

	breakBlock *llvm.BasicBlock
	switchCond *llvm.Value
	switchTest *llvm.BasicBlock

	ctors []CtorRecord
	hooks []GotoHook

	ctorNames  map[string]bool
	ctorSuffix int

	emitting bool
}

// New returns a Context targeting m, with its module not yet created.
// Declaration-pass callers may populate global bindings immediately;
// BeginModule must run before any instruction-emitting call.
func New(m *target.Machine) *Context {
	wordTy := llvm.IntType(m.BytesPerWord() * 8)
	return &Context{
		machine:   m,
		wordTy:    wordTy,
		global:    make(map[string]*Binding),
		externals: make(map[string]llvm.Value),
		strings:   make(map[string]llvm.Value),
		ctorNames: make(map[string]bool),
	}
}

// BeginModule is the "emitting-code" scoped acquisition's entry half: it
// asserts the module has not already been created, creates it, and sets
// its target triple and data layout. Re-entry is forbidden. Because
// internal/finalize necessarily imports internal/ctx (and so cannot be
// imported back), the "runs the finalizer" half of emitting-code is not
// performed here — the caller (cmd/b2llvm) must invoke finalize.Run(c)
// itself once declaration and emission are done, which is the Go-layering
// realization of the same single acquisition.
func (c *Context) BeginModule(name string) error {
	if c.emitting {
		return diag.NewInternal("emit context: emitting-code re-entered")
	}
	c.emitting = true
	c.module = llvm.NewModule(name)
	c.module.SetTarget(c.machine.Triple())
	c.module.SetDataLayout(c.machine.DataLayout())
	c.builder = llvm.NewBuilder()
	c.bridge = addr.NewBridge(c.builder, c.machine.BytesPerWord())
	return nil
}

// Module returns the module under construction. Valid only after
// BeginModule.
func (c *Context) Module() llvm.Module { return c.module }

// Builder returns the active IR builder. Valid only after BeginModule.
func (c *Context) Builder() llvm.Builder { return c.builder }

// Bridge returns the address/pointer bridge for this compilation.
func (c *Context) Bridge() *addr.Bridge { return c.bridge }

// WordType is the target's word-typed integer type.
func (c *Context) WordType() llvm.Type { return c.wordTy }

// BytesPerWord is the target's pointer size in bytes.
func (c *Context) BytesPerWord() int { return c.machine.BytesPerWord() }

// Machine returns the resolved target machine.
func (c *Context) Machine() *target.Machine { return c.machine }

// DefineGlobal registers name in the global scope. Used by the
// declaration pass; runs before any scope is pushed.
func (c *Context) DefineGlobal(name string, b *Binding) {
	c.global[name] = b
}

// DefineLocal registers name in the innermost active scope (the current
// function's top frame, or a nested compound's frame). Panics if called
// with no scope pushed — a function body must always be entered via
// EnterFunctionBody before any local declaration is emitted.
func (c *Context) DefineLocal(name string, b *Binding) {
	if c.scope == nil {
		panic("ctx: DefineLocal called with no active scope")
	}
	c.scope.vars[name] = b
}

// GlobalBinding looks up name in the global scope only, bypassing any
// local shadow. Used by extrn statement emission to detect whether the
// name already has a top-level definition in this translation unit.
func (c *Context) GlobalBinding(name string) (*Binding, bool) {
	b, ok := c.global[name]
	return b, ok
}

// Lookup resolves name by walking the scope chain from innermost to the
// global scope.
func (c *Context) Lookup(name string) (*Binding, bool) {
	for f := c.scope; f != nil; f = f.next {
		if b, ok := f.vars[name]; ok {
			return b, true
		}
	}
	b, ok := c.global[name]
	return b, ok
}

// EnterChildScope pushes a fresh scope frame and returns a closure that
// pops it; callers defer the returned closure.
func (c *Context) EnterChildScope() func() {
	prev := c.scope
	c.scope = &scopeFrame{vars: make(map[string]*Binding), next: prev}
	return func() { c.scope = prev }
}

// EnterFunctionBody installs a fresh label map and a child scope for one
// function body, and positions the builder at entry. The restore closure
// repositions nothing (the builder is left wherever emission left it —
// the caller has already moved on to the next top-level definition by
// the time it matters) but restores the prior label map and scope.
func (c *Context) EnterFunctionBody(entry llvm.BasicBlock) func() {
	prevLabels := c.labels
	c.labels = make(map[string]llvm.BasicBlock)
	restoreScope := c.EnterChildScope()
	c.builder.SetInsertPointAtEnd(entry)
	return func() {
		c.labels = prevLabels
		restoreScope()
	}
}

// SetBreakBlock installs block as the target of the nearest enclosing
// break, returning a closure that restores the previous target (or
// "none").
func (c *Context) SetBreakBlock(block llvm.BasicBlock) func() {
	prev := c.breakBlock
	b := block
	c.breakBlock = &b
	return func() { c.breakBlock = prev }
}

// BreakBlock returns the current break target, if any.
func (c *Context) BreakBlock() (llvm.BasicBlock, bool) {
	if c.breakBlock == nil {
		return llvm.BasicBlock{}, false
	}
	return *c.breakBlock, true
}

// SetSwitchContext installs the active switch's condition value and
// "next test" block, returning a closure that restores the enclosing
// switch's context (or "none", for a top-level switch).
func (c *Context) SetSwitchContext(cond llvm.Value, test llvm.BasicBlock) func() {
	prevCond, prevTest := c.switchCond, c.switchTest
	cv, tb := cond, test
	c.switchCond, c.switchTest = &cv, &tb
	return func() { c.switchCond, c.switchTest = prevCond, prevTest }
}

// SwitchContext returns the active switch's condition value and test
// block, if inside a switch.
func (c *Context) SwitchContext() (cond llvm.Value, test llvm.BasicBlock, ok bool) {
	if c.switchCond == nil || c.switchTest == nil {
		return llvm.Value{}, llvm.BasicBlock{}, false
	}
	return *c.switchCond, *c.switchTest, true
}

// AdvanceSwitchTest updates the active switch's "next test" block in
// place, preserving whatever condition value and break-block are
// currently installed. Internal error if called outside a switch.
func (c *Context) AdvanceSwitchTest(test llvm.BasicBlock) error {
	if c.switchTest == nil {
		return diag.NewInternal("switch test block advanced outside a switch")
	}
	*c.switchTest = test
	return nil
}

// DefineLabel records name as denoting block in the current function.
// Redefining a label within the same function is a semantic error.
func (c *Context) DefineLabel(name string, block llvm.BasicBlock, line, pos int) error {
	if c.labels == nil {
		return diag.NewInternal("label defined with no active function body")
	}
	if _, exists := c.labels[name]; exists {
		return diag.NewSemantic(line, pos, "duplicate label %q", name)
	}
	c.labels[name] = block
	return nil
}

// QueueGotoHook defers a goto's branch emission; it captures the
// function's current label map by reference so it can be consulted at
// finalization even after the function's own emission has finished.
func (c *Context) QueueGotoHook(block llvm.BasicBlock, label string) {
	c.hooks = append(c.hooks, GotoHook{Block: block, Label: label, Labels: c.labels})
}

// Hooks returns the accumulated post-emit hook queue, in insertion order.
func (c *Context) Hooks() []GotoHook { return c.hooks }

// ExternalStorage looks up the external table entry for name.
func (c *Context) ExternalStorage(name string) (llvm.Value, bool) {
	v, ok := c.externals[name]
	return v, ok
}

// RegisterExternal records name's storage in the external table. Only
// the first registration for a given name takes effect; callers should
// check ExternalStorage first.
func (c *Context) RegisterExternal(name string, v llvm.Value) {
	if _, exists := c.externals[name]; !exists {
		c.externals[name] = v
	}
}

// InternString returns the shared global for bytes (a B string
// terminator 0x04 must already be appended by the caller), creating one
// named "__str.N" if this exact byte sequence has not been seen before.
func (c *Context) InternString(bytes []byte) llvm.Value {
	key := string(bytes)
	if g, ok := c.strings[key]; ok {
		return g
	}
	arrTy := llvm.ArrayType(llvm.Int8Type(), len(bytes))
	g := llvm.AddGlobal(c.module, arrTy, fmt.Sprintf("__str.%d", c.strCount))
	c.strCount++
	g.SetLinkage(llvm.PrivateLinkage)
	g.SetUnnamedAddr(true)
	g.SetGlobalConstant(true)
	g.SetAlignment(c.machine.BytesPerWord())
	g.SetInitializer(llvm.ConstString(string(bytes), false))
	c.strings[key] = g
	return g
}

// AddCtor appends a constructor record.
func (c *Context) AddCtor(priority int32, fn, data llvm.Value) {
	c.ctors = append(c.ctors, CtorRecord{Priority: priority, Fn: fn, Data: data})
}

// Ctors returns the accumulated constructor records, in insertion order.
func (c *Context) Ctors() []CtorRecord { return c.ctors }

// CtorName returns a unique name of the form "__ctor.base", appending a
// numeric suffix on collision.
func (c *Context) CtorName(base string) string {
	name := "__ctor." + base
	if !c.ctorNames[name] {
		c.ctorNames[name] = true
		return name
	}
	for {
		candidate := fmt.Sprintf("%s.%d", name, c.ctorSuffix)
		c.ctorSuffix++
		if !c.ctorNames[candidate] {
			c.ctorNames[candidate] = true
			return candidate
		}
	}
}
