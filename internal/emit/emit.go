// Package emit is the emission pass: it walks the AST the declaration
// pass has already registered in the global scope and produces IR
// instructions — expressions (expr.go), statements (stmt.go), and
// constructor synthesis for non-constant initializers (ctor.go).
package emit

import (
	"tinygo.org/x/go-llvm"

	"github.com/b2llvm/b2llvm/internal/addr"
	"github.com/b2llvm/b2llvm/internal/ast"
	"github.com/b2llvm/b2llvm/internal/ctx"
	"github.com/b2llvm/b2llvm/internal/diag"
)

// Emit walks every top-level definition of prog, in source order, after
// Declare has already reserved its storage.
func Emit(c *ctx.Context, prog *ast.Node) error {
	if prog.Kind() != ast.Program {
		return diag.NewInternal("emit.Emit: expected ast.Program root, got kind %d", prog.Kind())
	}
	for _, def := range prog.Children {
		if err := emitTopLevel(c, def); err != nil {
			return err
		}
	}
	return nil
}

func emitTopLevel(c *ctx.Context, def *ast.Node) error {
	switch def.Kind() {
	case ast.SimpleExternDef:
		return emitSimpleInit(c, def)
	case ast.VectorExternDef:
		return emitVectorInit(c, def)
	case ast.FunctionDef:
		return emitFunction(c, def)
	default:
		return diag.NewInternal("emit.Emit: unexpected top-level kind %d", def.Kind())
	}
}

// emitFunction emits one function body: a fresh entry block, parameters
// copied into stack slots (so they resolve the same way autos do), the
// body statement, and an implicit "return 0" if control falls off the
// end.
func emitFunction(c *ctx.Context, def *ast.Node) error {
	fn := c.Module().NamedFunction(addr.Mangle(def.Name))
	if fn.IsNil() {
		return diag.NewInternal("function %q missing its declaration-pass storage", def.Name)
	}

	entry := llvm.AddBasicBlock(fn, "")
	restore := c.EnterFunctionBody(entry)
	defer restore()

	wordTy := c.WordType()
	b := c.Builder()
	for i, name := range def.Params {
		param := fn.Param(i)
		slot := b.CreateAlloca(wordTy, "")
		slot.SetAlignment(c.BytesPerWord())
		b.CreateStore(param, slot)
		c.DefineLocal(name, &ctx.Binding{
			Address:      c.Bridge().PointerToAddress(slot, wordTy),
			Dereferenced: true,
		})
	}

	body := def.Children[0]
	if err := emitStmt(c, body); err != nil {
		return err
	}

	// Control fell off the end of the body without an explicit return:
	// an empty function (or one whose every path is non-terminating
	// statement flow) returns 0.
	if !isTerminated(b.GetInsertBlock()) {
		b.CreateRet(llvm.ConstInt(wordTy, 0, false))
	}
	return nil
}

func isTerminated(bb llvm.BasicBlock) bool {
	last := bb.LastInstruction()
	return !last.IsNil() && !last.IsATerminatorInst().IsNil()
}
