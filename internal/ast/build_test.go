package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2llvm/b2llvm/internal/ast"
	"github.com/b2llvm/b2llvm/internal/parse"
)

func build(t *testing.T, src string) *ast.Node {
	t.Helper()
	tree, err := parse.Parse(src)
	require.NoError(t, err)
	prog, err := ast.Build(tree)
	require.NoError(t, err)
	return prog
}

// firstReturnExpr digs into the single-statement compound body of the
// first function in prog and returns its return expression.
func firstReturnExpr(t *testing.T, prog *ast.Node) *ast.Node {
	t.Helper()
	fn := prog.Children[0]
	require.Equal(t, ast.FunctionDef, fn.Kind())
	body := fn.Children[0]
	require.Equal(t, ast.Compound, body.Kind())
	require.Len(t, body.Children, 1)
	ret := body.Children[0]
	require.Equal(t, ast.ReturnStmt, ret.Kind())
	require.Len(t, ret.Children, 1)
	return ret.Children[0]
}

func TestBinaryChainFoldsLeftAssociative(t *testing.T) {
	prog := build(t, "f(){return(1-2-3);}")
	e := firstReturnExpr(t, prog)

	require.Equal(t, ast.BinaryOp, e.Kind())
	assert.Equal(t, "-", e.Op)
	assert.Equal(t, int64(3), e.Children[1].Int)

	lhs := e.Children[0]
	require.Equal(t, ast.BinaryOp, lhs.Kind())
	assert.Equal(t, "-", lhs.Op)
	assert.Equal(t, int64(1), lhs.Children[0].Int)
	assert.Equal(t, int64(2), lhs.Children[1].Int)
}

func TestUnaryPrefixWrapsInnermostFirst(t *testing.T) {
	prog := build(t, "f(){return(-~x);}")
	e := firstReturnExpr(t, prog)

	require.Equal(t, ast.UnaryPrefix, e.Kind())
	assert.Equal(t, "-", e.Op)
	inner := e.Children[0]
	require.Equal(t, ast.UnaryPrefix, inner.Kind())
	assert.Equal(t, "~", inner.Op)
	assert.Equal(t, ast.ScopeRef, inner.Children[0].Kind())
}

func TestAddressOfScopeRefIsReferenceable(t *testing.T) {
	prog := build(t, "f(){auto x; return(&x);}")
	fn := prog.Children[0]
	body := fn.Children[0]
	require.Equal(t, ast.Compound, body.Kind())
	ret := body.Children[1]
	e := ret.Children[0]

	require.Equal(t, ast.AddressOf, e.Kind())
	assert.Equal(t, ast.ScopeRef, e.Children[0].Kind())
	assert.True(t, e.Children[0].IsReferenceable())
}

func TestAddressOfNonReferenceableIsAnError(t *testing.T) {
	tree, err := parse.Parse("f(){return(&1);}")
	require.NoError(t, err)
	_, err = ast.Build(tree)
	assert.Error(t, err)
}

func TestAssignToNonReferenceableIsAnError(t *testing.T) {
	tree, err := parse.Parse("f(){42=1;}")
	require.NoError(t, err)
	_, err = ast.Build(tree)
	assert.Error(t, err)
}

func TestIndexSuffixLowersToDerefOfAddition(t *testing.T) {
	prog := build(t, "f(){auto v; return(v[2]);}")
	fn := prog.Children[0]
	body := fn.Children[0]
	ret := body.Children[1]
	e := ret.Children[0]

	require.Equal(t, ast.Deref, e.Kind())
	addExpr := e.Reference()
	require.Equal(t, ast.BinaryOp, addExpr.Kind())
	assert.Equal(t, "+", addExpr.Op)
	assert.Equal(t, ast.ScopeRef, addExpr.Children[0].Kind())
	assert.Equal(t, int64(2), addExpr.Children[1].Int)
}

func TestOctalAndDecimalIntLiterals(t *testing.T) {
	prog := build(t, "f(){return(0755);} g(){return(10);}")
	assert.Equal(t, int64(0755), firstReturnExpr(t, prog).Int)

	gBody := prog.Children[1].Children[0]
	assert.Equal(t, int64(10), gBody.Children[0].Children[0].Int)
}

func TestStringEscapesExpand(t *testing.T) {
	prog := build(t, `f(){return("a*nb*tc");}`)
	e := firstReturnExpr(t, prog)
	require.Equal(t, ast.ConstString, e.Kind())
	assert.Equal(t, []byte("a\nb\tc"), e.Str)
}

func TestCharLiteralPacksBigEndian(t *testing.T) {
	prog := build(t, "f(){return('AB');}")
	e := firstReturnExpr(t, prog)
	assert.Equal(t, int64('A')<<8|int64('B'), e.Int)
}

func TestCompoundAssignKeepsEmbeddedOperator(t *testing.T) {
	prog := build(t, "f(){auto x; x =+ 1;}")
	fn := prog.Children[0]
	body := fn.Children[0]
	require.Equal(t, ast.Compound, body.Kind())
	stmt := body.Children[1]
	require.Equal(t, ast.ExprStmt, stmt.Kind())
	e := stmt.Children[0]
	require.Equal(t, ast.AssignOp, e.Kind())
	assert.Equal(t, "=+", e.Op)
}
