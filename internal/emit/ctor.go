package emit

import (
	"tinygo.org/x/go-llvm"

	"github.com/b2llvm/b2llvm/internal/addr"
	"github.com/b2llvm/b2llvm/internal/ast"
	"github.com/b2llvm/b2llvm/internal/ctx"
)

// emitSimpleInit synthesizes a constructor for a scalar external whose
// initializer is not a constant integer (the declaration pass already
// gave constant-integer initializers their final value; nothing to do
// here for those, and nothing to do for an absent initializer either).
func emitSimpleInit(c *ctx.Context, def *ast.Node) error {
	if len(def.Children) == 0 || def.Children[0].Kind() == ast.ConstInt {
		return nil
	}
	g := c.Module().NamedGlobal(addr.Mangle(def.Name))

	return synthesizeCtor(c, def.Name, func(b llvm.Builder) error {
		val, err := emitExpr(c, def.Children[0])
		if err != nil {
			return err
		}
		b.CreateStore(val, g)
		return nil
	})
}

// emitVectorInit synthesizes a constructor for a vector external with an
// initializer list, storing each initializer at its successive word
// offset from the vector's base.
func emitVectorInit(c *ctx.Context, def *ast.Node) error {
	if len(def.Children) == 0 {
		return nil
	}
	g := c.Module().NamedGlobal(addr.Mangle(def.Name))
	i32 := llvm.Int32Type()

	return synthesizeCtor(c, def.Name, func(b llvm.Builder) error {
		for idx, init := range def.Children {
			val, err := emitExpr(c, init)
			if err != nil {
				return err
			}
			elemPtr := b.CreateGEP(g, []llvm.Value{
				llvm.ConstInt(i32, 0, false),
				llvm.ConstInt(i32, uint64(idx), false),
			}, "")
			b.CreateStore(val, elemPtr)
		}
		return nil
	})
}

// synthesizeCtor creates a private void() function named "__ctor.name",
// positions the builder at its entry block, runs body to emit its
// contents, terminates with a void return, and records it as a
// priority-0 constructor with no associated data pointer.
func synthesizeCtor(c *ctx.Context, name string, body func(llvm.Builder) error) error {
	fnTy := llvm.FunctionType(llvm.VoidType(), nil, false)
	fn := llvm.AddFunction(c.Module(), c.CtorName(name), fnTy)
	fn.SetLinkage(llvm.PrivateLinkage)

	entry := llvm.AddBasicBlock(fn, "")
	b := c.Builder()
	b.SetInsertPointAtEnd(entry)

	if err := body(b); err != nil {
		return err
	}
	b.CreateRetVoid()

	nullData := llvm.ConstNull(llvm.PointerType(llvm.Int8Type(), 0))
	c.AddCtor(0, fn, nullData)
	return nil
}
