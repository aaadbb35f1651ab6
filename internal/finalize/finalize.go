// Package finalize runs after declaration and emission have finished
// with one translation unit: it drains the deferred goto branches the
// emission pass queued (each function's labels are only complete once
// the whole function has been walked) and synthesizes the
// llvm.global_ctors array from the constructor records that non-constant
// initializers registered. It does not return the module's textual IR;
// the caller reads that off the context once Run succeeds. This is
// the "runs the finalizer" half of the emitting-code acquisition that
// internal/ctx.BeginModule could not itself perform — see its doc
// comment for why that split falls where it does.
package finalize

import (
	"tinygo.org/x/go-llvm"

	"github.com/b2llvm/b2llvm/internal/ctx"
	"github.com/b2llvm/b2llvm/internal/diag"
)

// Run drains c's goto hooks and constructor records. The caller reads
// the finished module back off c (c.Module().String() for textual IR, or
// c.Machine().TargetMachine().EmitToMemoryBuffer for assembly/object
// output) once Run returns successfully.
func Run(c *ctx.Context) error {
	if err := resolveGotos(c); err != nil {
		return err
	}
	synthesizeCtorArray(c)
	return nil
}

// resolveGotos emits the one branch instruction every goto deferred.
// Each hook carries the label map of the function it was issued in, so a
// goto to an undefined label is only discovered here, once that
// function's every label statement has had a chance to register.
func resolveGotos(c *ctx.Context) error {
	b := c.Builder()
	for _, h := range c.Hooks() {
		target, ok := h.Labels[h.Label]
		if !ok {
			return diag.NewSemantic(0, 0, "undefined label %q", h.Label)
		}
		b.SetInsertPointAtEnd(h.Block)
		b.CreateBr(target)
	}
	return nil
}

// synthesizeCtorArray builds the standard
// { i32 priority, void()* fn, i8* data }[] llvm.global_ctors array, used
// by every LLVM-targeting toolchain to run module-load-time
// initialization before main. Absent if no non-constant initializer
// needed one.
func synthesizeCtorArray(c *ctx.Context) {
	records := c.Ctors()
	if len(records) == 0 {
		return
	}

	i32 := llvm.Int32Type()
	voidFnPtrTy := llvm.PointerType(llvm.FunctionType(llvm.VoidType(), nil, false), 0)
	i8PtrTy := llvm.PointerType(llvm.Int8Type(), 0)
	entryTy := llvm.StructType([]llvm.Type{i32, voidFnPtrTy, i8PtrTy}, false)

	entries := make([]llvm.Value, len(records))
	for i, r := range records {
		entries[i] = llvm.ConstStruct([]llvm.Value{
			llvm.ConstInt(i32, uint64(r.Priority), false),
			r.Fn,
			r.Data,
		}, false)
	}

	arr := llvm.ConstArray(entryTy, entries)
	g := llvm.AddGlobal(c.Module(), llvm.ArrayType(entryTy, len(entries)), "llvm.global_ctors")
	g.SetLinkage(llvm.AppendingLinkage)
	g.SetInitializer(arr)
}
