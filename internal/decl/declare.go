// Package decl implements the declaration pass: a single walk over every
// top-level definition, in source order, that reserves IR storage and
// registers a referenceable binding in the global scope and (for
// externals) the external table — before any emission, so that arbitrary
// forward and mutual references resolve regardless of textual order.
package decl

import (
	"tinygo.org/x/go-llvm"

	"github.com/b2llvm/b2llvm/internal/addr"
	"github.com/b2llvm/b2llvm/internal/ast"
	"github.com/b2llvm/b2llvm/internal/ctx"
	"github.com/b2llvm/b2llvm/internal/diag"
)

// Declare walks prog (an ast.Program) once and populates c's global scope
// and external table. The builder is never touched.
func Declare(c *ctx.Context, prog *ast.Node) error {
	if prog.Kind() != ast.Program {
		return diag.NewInternal("decl.Declare: expected ast.Program root, got kind %d", prog.Kind())
	}
	for _, def := range prog.Children {
		if err := declareOne(c, def); err != nil {
			return err
		}
	}
	return nil
}

func declareOne(c *ctx.Context, def *ast.Node) error {
	switch def.Kind() {
	case ast.SimpleExternDef:
		return declareSimple(c, def)
	case ast.VectorExternDef:
		return declareVector(c, def)
	case ast.FunctionDef:
		return declareFunction(c, def)
	default:
		return diag.NewInternal("decl.Declare: unexpected top-level kind %d", def.Kind())
	}
}

func declareSimple(c *ctx.Context, def *ast.Node) error {
	wordTy := c.WordType()
	g := llvm.AddGlobal(c.Module(), wordTy, addr.Mangle(def.Name))
	g.SetAlignment(c.BytesPerWord())

	init := llvm.ConstInt(wordTy, 0, false)
	if len(def.Children) > 0 && def.Children[0].Kind() == ast.ConstInt {
		init = llvm.ConstInt(wordTy, uint64(def.Children[0].Int), true)
	}
	g.SetInitializer(init)

	c.RegisterExternal(def.Name, g)
	c.DefineGlobal(def.Name, &ctx.Binding{
		Address:      addr.ConstPointerToAddress(g, wordTy, c.BytesPerWord()),
		Dereferenced: true,
	})
	return nil
}

func declareVector(c *ctx.Context, def *ast.Node) error {
	wordTy := c.WordType()

	length := 1
	if def.MaxIdx >= 0 {
		length = int(def.MaxIdx) + 1
	}
	if n := len(def.Children); n > length {
		length = n
	}

	arrTy := llvm.ArrayType(wordTy, length)
	g := llvm.AddGlobal(c.Module(), arrTy, addr.Mangle(def.Name))
	g.SetAlignment(c.BytesPerWord())
	g.SetInitializer(llvm.ConstNull(arrTy))

	c.RegisterExternal(def.Name, g)
	c.DefineGlobal(def.Name, &ctx.Binding{
		Address:      addr.ConstPointerToAddress(g, wordTy, c.BytesPerWord()),
		Dereferenced: false,
	})
	return nil
}

func declareFunction(c *ctx.Context, def *ast.Node) error {
	wordTy := c.WordType()
	params := make([]llvm.Type, len(def.Params))
	for i := range params {
		params[i] = wordTy
	}
	fnTy := llvm.FunctionType(wordTy, params, false)
	fn := llvm.AddFunction(c.Module(), addr.Mangle(def.Name), fnTy)

	c.DefineGlobal(def.Name, &ctx.Binding{
		Address:      addr.ConstPointerToAddress(fn, wordTy, c.BytesPerWord()),
		Dereferenced: false,
	})
	return nil
}
