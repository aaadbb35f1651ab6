package addr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/go-llvm"

	"github.com/b2llvm/b2llvm/internal/addr"
)

// fixture builds a throwaway module with one function and an entry block
// positioned and ready for instruction emission, the minimum scaffold the
// bridge needs to emit its bitcasts/arithmetic.
func fixture(t *testing.T) (llvm.Builder, llvm.Type) {
	t.Helper()
	lctx := llvm.NewContext()
	m := lctx.NewModule("bridge_test")
	wordTy := lctx.Int64Type()
	fnTy := llvm.FunctionType(lctx.VoidType(), nil, false)
	fn := llvm.AddFunction(m, "f", fnTy)
	entry := lctx.AddBasicBlock(fn, "entry")
	b := lctx.NewBuilder()
	b.SetInsertPointAtEnd(entry)
	return b, wordTy
}

func TestAddressToPointerThenBackIsABareBitcast(t *testing.T) {
	b, wordTy := fixture(t)
	br := addr.NewBridge(b, 8)

	a := llvm.ConstInt(wordTy, 4, false)
	ptr := br.AddressToPointer(a, wordTy)
	require.False(t, ptr.IsNil())

	back := br.PointerToAddress(ptr, wordTy)
	assert.True(t, back == a, "PointerToAddress should return the original address value via the back-link, not a reconstructed one")
}

func TestPointerToAddressThenBackIsABareBitcast(t *testing.T) {
	b, wordTy := fixture(t)
	br := addr.NewBridge(b, 8)

	ptrTy := llvm.PointerType(wordTy, 0)
	p := llvm.ConstNull(ptrTy)
	a := br.PointerToAddress(p, wordTy)
	require.False(t, a.IsNil())

	back := br.AddressToPointer(a, wordTy)
	assert.True(t, back == p, "with a matching pointee type the bitcast of the back-linked pointer folds away, returning the original pointer")
}

func TestAddressToPointerWithoutBackLinkEmitsMulAndIntToPtr(t *testing.T) {
	b, wordTy := fixture(t)
	br := addr.NewBridge(b, 4)

	a := llvm.ConstInt(wordTy, 10, false)
	ptr := br.AddressToPointer(a, wordTy)
	assert.False(t, ptr.IsNil())
	assert.Equal(t, llvm.PointerTypeKind, ptr.Type().TypeKind())
}

func TestManglePrefixesBDot(t *testing.T) {
	assert.Equal(t, "b.printn", addr.Mangle("printn"))
	assert.Equal(t, "b.x", addr.Mangle("x"))
}

func TestConstPointerToAddressFoldsWithoutABuilder(t *testing.T) {
	lctx := llvm.NewContext()
	wordTy := lctx.Int64Type()
	ptrTy := llvm.PointerType(wordTy, 0)
	g := llvm.ConstNull(ptrTy)

	a := addr.ConstPointerToAddress(g, wordTy, 8)
	assert.False(t, a.IsNil())
	assert.Equal(t, llvm.IntegerTypeKind, a.Type().TypeKind())
}
