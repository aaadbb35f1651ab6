package emit

import (
	"tinygo.org/x/go-llvm"

	"github.com/b2llvm/b2llvm/internal/ast"
	"github.com/b2llvm/b2llvm/internal/ctx"
	"github.com/b2llvm/b2llvm/internal/diag"
)

// emitExpr emits exactly one word-typed IR value for n.
func emitExpr(c *ctx.Context, n *ast.Node) (llvm.Value, error) {
	wordTy := c.WordType()
	switch n.Kind() {
	case ast.ConstInt:
		return llvm.ConstInt(wordTy, uint64(n.Int), true), nil
	case ast.ConstString:
		return emitConstString(c, n)
	case ast.ScopeRef:
		return emitScopeRefValue(c, n)
	case ast.Deref:
		addrVal, err := emitExpr(c, n.Reference())
		if err != nil {
			return llvm.Value{}, err
		}
		ptr := c.Bridge().AddressToPointer(addrVal, wordTy)
		return c.Builder().CreateLoad(ptr, ""), nil
	case ast.AddressOf:
		return addressOfReferenceable(c, n.Children[0])
	case ast.BinaryOp:
		return emitBinaryOp(c, n)
	case ast.UnaryPrefix:
		return emitUnaryPrefix(c, n)
	case ast.UnaryPostfix:
		return emitUnaryPostfix(c, n)
	case ast.AssignOp:
		return emitAssign(c, n)
	case ast.Conditional:
		return emitConditional(c, n)
	case ast.Call:
		return emitCall(c, n)
	case ast.BuiltinBytesPerWord:
		return llvm.ConstInt(wordTy, uint64(c.BytesPerWord()), false), nil
	default:
		return llvm.Value{}, diag.NewInternal("emitExpr: unexpected node kind %d", n.Kind())
	}
}

// addressOfReferenceable emits the word-address of a Referenceable node.
// For a dereferenced r-value (*e), that address is simply e's own
// r-value. For a scope name, it is the binding's address regardless of
// whether the binding is itself dereferenced — taking the address of a
// vector or function name is idempotent, matching plain B's "a vector
// name already is its address".
func addressOfReferenceable(c *ctx.Context, n *ast.Node) (llvm.Value, error) {
	switch n.Kind() {
	case ast.Deref:
		return emitExpr(c, n.Reference())
	case ast.ScopeRef:
		b, ok := c.Lookup(n.Name)
		if !ok {
			return llvm.Value{}, diag.NewSemantic(n.Line, n.Pos, "unresolved name %q", n.Name)
		}
		return b.Address, nil
	default:
		return llvm.Value{}, diag.NewInternal("addressOfReferenceable: node kind %d is not referenceable", n.Kind())
	}
}

func emitScopeRefValue(c *ctx.Context, n *ast.Node) (llvm.Value, error) {
	b, ok := c.Lookup(n.Name)
	if !ok {
		return llvm.Value{}, diag.NewSemantic(n.Line, n.Pos, "unresolved name %q", n.Name)
	}
	if !b.Dereferenced {
		return b.Address, nil
	}
	ptr := c.Bridge().AddressToPointer(b.Address, c.WordType())
	return c.Builder().CreateLoad(ptr, ""), nil
}

// emitConstString interns the escape-expanded bytes with the B string
// terminator appended, and yields the interned global's address-as-word.
func emitConstString(c *ctx.Context, n *ast.Node) (llvm.Value, error) {
	b := make([]byte, len(n.Str)+1)
	copy(b, n.Str)
	b[len(n.Str)] = 0x04
	g := c.InternString(b)
	return c.Bridge().PointerToAddress(g, c.WordType()), nil
}

func emitBinaryOp(c *ctx.Context, n *ast.Node) (llvm.Value, error) {
	lv, err := emitExpr(c, n.Children[0])
	if err != nil {
		return llvm.Value{}, err
	}
	rv, err := emitExpr(c, n.Children[1])
	if err != nil {
		return llvm.Value{}, err
	}
	return applyBinaryOp(c, n.Op, lv, rv)
}

// applyBinaryOp implements one operator over two already-evaluated word
// values; shared between plain binary expressions and compound
// assignment, whose embedded operator is split out at assignment time.
func applyBinaryOp(c *ctx.Context, op string, lv, rv llvm.Value) (llvm.Value, error) {
	b := c.Builder()
	wordTy := c.WordType()
	switch op {
	case "+":
		return b.CreateAdd(lv, rv, ""), nil
	case "-":
		return b.CreateSub(lv, rv, ""), nil
	case "*":
		return b.CreateMul(lv, rv, ""), nil
	case "/":
		return b.CreateSDiv(lv, rv, ""), nil
	case "%":
		return b.CreateSRem(lv, rv, ""), nil
	case "<<":
		return b.CreateShl(lv, rv, ""), nil
	case ">>":
		return b.CreateLShr(lv, rv, ""), nil
	case "&":
		return b.CreateAnd(lv, rv, ""), nil
	case "^":
		return b.CreateXor(lv, rv, ""), nil
	case "|":
		return b.CreateOr(lv, rv, ""), nil
	case "==":
		return zext(b, b.CreateICmp(llvm.IntEQ, lv, rv, ""), wordTy), nil
	case "!=":
		return zext(b, b.CreateICmp(llvm.IntNE, lv, rv, ""), wordTy), nil
	case "<":
		return zext(b, b.CreateICmp(llvm.IntSLT, lv, rv, ""), wordTy), nil
	case ">":
		return zext(b, b.CreateICmp(llvm.IntSGT, lv, rv, ""), wordTy), nil
	case "<=":
		return zext(b, b.CreateICmp(llvm.IntSLE, lv, rv, ""), wordTy), nil
	case ">=":
		return zext(b, b.CreateICmp(llvm.IntSGE, lv, rv, ""), wordTy), nil
	default:
		return llvm.Value{}, diag.NewInternal("applyBinaryOp: unknown operator %q", op)
	}
}

func zext(b llvm.Builder, cmp llvm.Value, wordTy llvm.Type) llvm.Value {
	return b.CreateZExt(cmp, wordTy, "")
}

func emitUnaryPrefix(c *ctx.Context, n *ast.Node) (llvm.Value, error) {
	wordTy := c.WordType()
	b := c.Builder()
	operand := n.Children[0]

	switch n.Op {
	case "-":
		v, err := emitExpr(c, operand)
		if err != nil {
			return llvm.Value{}, err
		}
		return b.CreateSub(llvm.ConstInt(wordTy, 0, false), v, ""), nil
	case "~":
		v, err := emitExpr(c, operand)
		if err != nil {
			return llvm.Value{}, err
		}
		return b.CreateXor(v, llvm.ConstInt(wordTy, ^uint64(0), false), ""), nil
	case "!":
		v, err := emitExpr(c, operand)
		if err != nil {
			return llvm.Value{}, err
		}
		cmp := b.CreateICmp(llvm.IntEQ, v, llvm.ConstInt(wordTy, 0, false), "")
		return zext(b, cmp, wordTy), nil
	case "++", "--":
		return emitIncDec(c, operand, n.Op, true)
	default:
		return llvm.Value{}, diag.NewInternal("emitUnaryPrefix: unknown operator %q", n.Op)
	}
}

func emitUnaryPostfix(c *ctx.Context, n *ast.Node) (llvm.Value, error) {
	return emitIncDec(c, n.Children[0], n.Op, false)
}

// emitIncDec implements both ++/-- fixities: load, add/sub one, store
// back, and return the new value for prefix or the old value for
// postfix.
func emitIncDec(c *ctx.Context, operand *ast.Node, op string, prefix bool) (llvm.Value, error) {
	wordTy := c.WordType()
	b := c.Builder()

	addrVal, err := addressOfReferenceable(c, operand)
	if err != nil {
		return llvm.Value{}, err
	}
	ptr := c.Bridge().AddressToPointer(addrVal, wordTy)
	old := b.CreateLoad(ptr, "")

	var next llvm.Value
	if op == "++" {
		next = b.CreateAdd(old, llvm.ConstInt(wordTy, 1, false), "")
	} else {
		next = b.CreateSub(old, llvm.ConstInt(wordTy, 1, false), "")
	}
	b.CreateStore(next, ptr)

	if prefix {
		return next, nil
	}
	return old, nil
}

func emitAssign(c *ctx.Context, n *ast.Node) (llvm.Value, error) {
	wordTy := c.WordType()
	b := c.Builder()
	lhs, rhs := n.Children[0], n.Children[1]

	addrVal, err := addressOfReferenceable(c, lhs)
	if err != nil {
		return llvm.Value{}, err
	}
	ptr := c.Bridge().AddressToPointer(addrVal, wordTy)

	if n.Op == "=" {
		val, err := emitExpr(c, rhs)
		if err != nil {
			return llvm.Value{}, err
		}
		b.CreateStore(val, ptr)
		return val, nil
	}

	old := b.CreateLoad(ptr, "")
	rv, err := emitExpr(c, rhs)
	if err != nil {
		return llvm.Value{}, err
	}
	combined, err := applyBinaryOp(c, n.Op[1:], old, rv)
	if err != nil {
		return llvm.Value{}, err
	}
	b.CreateStore(combined, ptr)
	return combined, nil
}

func emitConditional(c *ctx.Context, n *ast.Node) (llvm.Value, error) {
	wordTy := c.WordType()
	b := c.Builder()

	condVal, err := emitExpr(c, n.Children[0])
	if err != nil {
		return llvm.Value{}, err
	}
	test := b.CreateICmp(llvm.IntNE, condVal, llvm.ConstInt(wordTy, 0, false), "")

	fn := b.GetInsertBlock().Parent()
	thenBB := llvm.AddBasicBlock(fn, "")
	elseBB := llvm.AddBasicBlock(fn, "")
	mergeBB := llvm.AddBasicBlock(fn, "")
	b.CreateCondBr(test, thenBB, elseBB)

	b.SetInsertPointAtEnd(thenBB)
	thenVal, err := emitExpr(c, n.Children[1])
	if err != nil {
		return llvm.Value{}, err
	}
	thenEnd := b.GetInsertBlock()
	b.CreateBr(mergeBB)

	b.SetInsertPointAtEnd(elseBB)
	elseVal, err := emitExpr(c, n.Children[2])
	if err != nil {
		return llvm.Value{}, err
	}
	elseEnd := b.GetInsertBlock()
	b.CreateBr(mergeBB)

	b.SetInsertPointAtEnd(mergeBB)
	phi := b.CreatePHI(wordTy, "")
	phi.AddIncoming([]llvm.Value{thenVal, elseVal}, []llvm.BasicBlock{thenEnd, elseEnd})
	return phi, nil
}

func emitCall(c *ctx.Context, n *ast.Node) (llvm.Value, error) {
	wordTy := c.WordType()
	callee := n.Children[0]
	args := n.Children[1:]

	calleeVal, err := addressOfReferenceable(c, callee)
	if err != nil {
		return llvm.Value{}, err
	}

	params := make([]llvm.Type, len(args))
	argVals := make([]llvm.Value, len(args))
	for i, a := range args {
		params[i] = wordTy
		v, err := emitExpr(c, a)
		if err != nil {
			return llvm.Value{}, err
		}
		argVals[i] = v
	}

	fnTy := llvm.FunctionType(wordTy, params, false)
	fnPtr := c.Bridge().AddressToPointer(calleeVal, fnTy)
	return c.Builder().CreateCall(fnPtr, argVals, ""), nil
}
