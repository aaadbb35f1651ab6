package decl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2llvm/b2llvm/internal/ast"
	"github.com/b2llvm/b2llvm/internal/ctx"
	"github.com/b2llvm/b2llvm/internal/decl"
	"github.com/b2llvm/b2llvm/internal/parse"
	"github.com/b2llvm/b2llvm/internal/target"
)

// declared parses and declares src against a fresh Context, returning the
// Context for assertions on its global bindings and external table.
func declared(t *testing.T, src string) *ctx.Context {
	t.Helper()
	tree, err := parse.Parse(src)
	require.NoError(t, err)
	prog, err := ast.Build(tree)
	require.NoError(t, err)

	m, err := target.Resolve(target.Descriptor{})
	require.NoError(t, err)
	t.Cleanup(m.Dispose)

	c := ctx.New(m)
	require.NoError(t, c.BeginModule("decl_test"))
	require.NoError(t, decl.Declare(c, prog))
	return c
}

func TestDeclareSimpleExternRegistersDereferencedGlobal(t *testing.T) {
	c := declared(t, "x 7;")

	b, ok := c.GlobalBinding("x")
	require.True(t, ok)
	assert.True(t, b.Dereferenced)

	_, ok = c.ExternalStorage("x")
	assert.True(t, ok, "a top-level simple definition must be registered in the external table")
}

func TestDeclareVectorExternRegistersUndereferencedGlobal(t *testing.T) {
	c := declared(t, "v[3];")

	b, ok := c.GlobalBinding("v")
	require.True(t, ok)
	assert.False(t, b.Dereferenced, "a vector binding holds its base address directly, with no extra indirection")

	_, ok = c.ExternalStorage("v")
	assert.True(t, ok)
}

func TestDeclareFunctionRegistersUndereferencedGlobal(t *testing.T) {
	c := declared(t, "f(a,b){return(a+b);}")

	b, ok := c.GlobalBinding("f")
	require.True(t, ok)
	assert.False(t, b.Dereferenced, "a function's address is itself the callable value, not a cell holding one")
}

func TestDeclareOrderIsIndependentOfReferenceOrder(t *testing.T) {
	// b is extrn'd inside a() before b's own top-level definition appears
	// later in the file; the declaration pass must have already reserved
	// storage for both names regardless of textual position.
	c := declared(t, "a(){extrn b; return(b);} b 9;")

	_, aOK := c.GlobalBinding("a")
	_, bOK := c.GlobalBinding("b")
	assert.True(t, aOK)
	assert.True(t, bOK)
}
