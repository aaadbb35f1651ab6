package ast

import (
	"fmt"
	"strconv"

	"github.com/b2llvm/b2llvm/internal/diag"
	"github.com/b2llvm/b2llvm/internal/parse"
)

// Build runs the semantic builder over a parse tree, producing the
// canonical AST. This is the frontend's first stage: it resolves
// operator associativity, desugars indexing and compound assignment, and
// normalizes escape sequences and numeric literals. It performs no
// semantic checks beyond the handful whose answer is already fully
// determined by parse-tree shape (e.g. "&" applied to a non-l-value);
// everything else (unresolved names, duplicate labels, ...) is the
// declaration/emission passes' job, since it requires the scope chain.
func Build(root *parse.Node) (*Node, error) {
	if root == nil || root.Kind != parse.Program {
		return nil, diag.NewInternal("ast.Build: expected parse.Program root")
	}
	defs := make([]*Node, 0, len(root.Children))
	for _, d := range root.Children {
		def, err := buildDef(d)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return NewProgram(defs), nil
}

func buildDef(n *parse.Node) (*Node, error) {
	switch n.Kind {
	case parse.SimpleDef:
		var init *Node
		if len(n.Children) > 0 {
			e, err := buildExpr(n.Children[0])
			if err != nil {
				return nil, err
			}
			init = e
		}
		return NewSimpleExternDef(n.Str, init, n.Line, n.Pos), nil
	case parse.VectorDef:
		maxIdx := int64(-1)
		if n.Children[0] != nil {
			v, err := parseIntLit(n.Children[0].Str)
			if err != nil {
				return nil, err
			}
			maxIdx = v
		}
		inits := make([]*Node, 0, len(n.Children)-1)
		for _, c := range n.Children[1:] {
			e, err := buildExpr(c)
			if err != nil {
				return nil, err
			}
			inits = append(inits, e)
		}
		return NewVectorExternDef(n.Str, maxIdx, inits, n.Line, n.Pos), nil
	case parse.FunctionDef:
		body, err := buildStmt(n.Children[0])
		if err != nil {
			return nil, err
		}
		return NewFunctionDef(n.Str, n.Names, body, n.Line, n.Pos), nil
	default:
		return nil, diag.NewInternal("ast.Build: unexpected top-level parse kind %d", n.Kind)
	}
}

func buildStmt(n *parse.Node) (*Node, error) {
	switch n.Kind {
	case parse.Compound:
		stmts, err := buildStmtList(n.Children)
		if err != nil {
			return nil, err
		}
		return NewCompound(stmts, n.Line, n.Pos), nil
	case parse.Multipart:
		stmts, err := buildStmtList(n.Children)
		if err != nil {
			return nil, err
		}
		return NewMultipart(stmts, n.Line, n.Pos), nil
	case parse.AutoScalar:
		return NewAutoScalarDecl(n.Str, n.Line, n.Pos), nil
	case parse.AutoVector:
		maxIdx := int64(-1)
		if n.Children[0] != nil {
			v, err := parseIntLit(n.Children[0].Str)
			if err != nil {
				return nil, err
			}
			maxIdx = v
		}
		return NewAutoVectorDecl(n.Str, maxIdx, n.Line, n.Pos), nil
	case parse.ExternDecl:
		return NewExternDecl(n.Str, n.Line, n.Pos), nil
	case parse.ExprStmt:
		e, err := buildExpr(n.Children[0])
		if err != nil {
			return nil, err
		}
		return NewExprStmt(e, n.Line, n.Pos), nil
	case parse.NullStmt:
		return NewNullStmt(n.Line, n.Pos), nil
	case parse.ReturnStmt:
		var e *Node
		if len(n.Children) > 0 {
			v, err := buildExpr(n.Children[0])
			if err != nil {
				return nil, err
			}
			e = v
		}
		return NewReturnStmt(e, n.Line, n.Pos), nil
	case parse.IfStmt:
		cond, err := buildExpr(n.Children[0])
		if err != nil {
			return nil, err
		}
		then, err := buildStmt(n.Children[1])
		if err != nil {
			return nil, err
		}
		var els *Node
		if len(n.Children) > 2 {
			e, err := buildStmt(n.Children[2])
			if err != nil {
				return nil, err
			}
			els = e
		}
		return NewIfStmt(cond, then, els, n.Line, n.Pos), nil
	case parse.WhileStmt:
		cond, err := buildExpr(n.Children[0])
		if err != nil {
			return nil, err
		}
		body, err := buildStmt(n.Children[1])
		if err != nil {
			return nil, err
		}
		return NewWhileStmt(cond, body, n.Line, n.Pos), nil
	case parse.SwitchStmt:
		cond, err := buildExpr(n.Children[0])
		if err != nil {
			return nil, err
		}
		body, err := buildStmt(n.Children[1])
		if err != nil {
			return nil, err
		}
		return NewSwitchStmt(cond, body, n.Line, n.Pos), nil
	case parse.CaseStmt:
		var c *Node
		if n.Children[0] != nil {
			v, err := buildExpr(n.Children[0])
			if err != nil {
				return nil, err
			}
			c = v
		}
		s, err := buildStmt(n.Children[1])
		if err != nil {
			return nil, err
		}
		return NewCaseStmt(c, s, n.Line, n.Pos), nil
	case parse.BreakStmt:
		return NewBreakStmt(n.Line, n.Pos), nil
	case parse.LabelStmt:
		s, err := buildStmt(n.Children[0])
		if err != nil {
			return nil, err
		}
		return NewLabelStmt(n.Str, s, n.Line, n.Pos), nil
	case parse.GotoStmt:
		return NewGotoStmt(n.Str, n.Line, n.Pos), nil
	default:
		return nil, diag.NewInternal("ast.Build: unexpected statement parse kind %d", n.Kind)
	}
}

func buildStmtList(ns []*parse.Node) ([]*Node, error) {
	out := make([]*Node, 0, len(ns))
	for _, c := range ns {
		s, err := buildStmt(c)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func buildExpr(n *parse.Node) (*Node, error) {
	switch n.Kind {
	case parse.IntLit:
		v, err := parseIntLit(n.Str)
		if err != nil {
			return nil, err
		}
		return NewConstInt(v, n.Line, n.Pos), nil
	case parse.CharLit:
		v, err := packCharLiteral(n.Str)
		if err != nil {
			return nil, diag.NewSemantic(n.Line, n.Pos, "%s", err)
		}
		return NewConstInt(v, n.Line, n.Pos), nil
	case parse.StringLit:
		b, err := expandEscapes(n.Str)
		if err != nil {
			return nil, diag.NewSemantic(n.Line, n.Pos, "%s", err)
		}
		return NewConstString(b, n.Line, n.Pos), nil
	case parse.Ident:
		return NewScopeRef(n.Str, n.Line, n.Pos), nil
	case parse.BuiltinBPW:
		return NewBuiltinBytesPerWord(n.Line, n.Pos), nil
	case parse.Paren:
		return buildExpr(n.Children[0])
	case parse.PrimaryChain:
		return buildPrimaryChain(n)
	case parse.Unary:
		return buildUnary(n)
	case parse.BinaryChain:
		return foldBinaryChain(n)
	case parse.Assign:
		return buildAssign(n)
	case parse.Ternary:
		return buildTernary(n)
	default:
		return nil, diag.NewInternal("ast.Build: unexpected expression parse kind %d", n.Kind)
	}
}

// foldBinaryChain folds a flat (head, tail[]) run, left to right, into
// nested binary-op nodes: ((head op1 t1) op2 t2) op3 t3 ...
func foldBinaryChain(n *parse.Node) (*Node, error) {
	acc, err := buildExpr(n.Children[0])
	if err != nil {
		return nil, err
	}
	for i, op := range n.Ops {
		rhs, err := buildExpr(n.Children[i+1])
		if err != nil {
			return nil, err
		}
		acc = NewBinaryOp(op, acc, rhs, acc.Line, acc.Pos)
	}
	return acc, nil
}

// buildUnary wraps the operand in postfix nodes innermost-first, then in
// prefix nodes innermost-first. Prefixes were collected left to right in
// source order, so the innermost prefix (closest to the operand) is the
// last one parsed; applying the list in reverse therefore wraps
// innermost-first, producing the correct right-to-left binding. Postfixes
// were collected in source order with the innermost (closest to the
// operand) parsed first, so a forward pass already applies
// innermost-first.
func buildUnary(n *parse.Node) (*Node, error) {
	expr, err := buildExpr(n.Children[0])
	if err != nil {
		return nil, err
	}
	for _, op := range n.PostOps {
		expr = NewUnaryPostfix(op, expr, expr.Line, expr.Pos)
	}
	for i := len(n.Ops) - 1; i >= 0; i-- {
		op := n.Ops[i]
		switch op {
		case "*":
			expr = NewDeref(expr, n.Line, n.Pos)
		case "&":
			if !expr.IsReferenceable() {
				return nil, diag.NewSemantic(n.Line, n.Pos, "cannot take the address of a non-lvalue expression")
			}
			expr = NewAddressOf(expr, n.Line, n.Pos)
		default:
			expr = NewUnaryPrefix(op, expr, n.Line, n.Pos)
		}
	}
	return expr, nil
}

// buildPrimaryChain lowers "a[b]" to "*(a + b)" and "f(args)" to a call
// node, chaining suffixes left to right.
func buildPrimaryChain(n *parse.Node) (*Node, error) {
	expr, err := buildExpr(n.Children[0])
	if err != nil {
		return nil, err
	}
	for _, suf := range n.Children[1:] {
		switch suf.Kind {
		case parse.IndexSuffix:
			idx, err := buildExpr(suf.Children[0])
			if err != nil {
				return nil, err
			}
			sum := NewBinaryOp("+", expr, idx, expr.Line, expr.Pos)
			expr = NewDeref(sum, expr.Line, expr.Pos)
		case parse.CallSuffix:
			args := make([]*Node, 0, len(suf.Children))
			for _, a := range suf.Children {
				v, err := buildExpr(a)
				if err != nil {
					return nil, err
				}
				args = append(args, v)
			}
			expr = NewCall(expr, args, expr.Line, expr.Pos)
		default:
			return nil, diag.NewInternal("ast.Build: unexpected primary-chain suffix kind %d", suf.Kind)
		}
	}
	return expr, nil
}

func buildAssign(n *parse.Node) (*Node, error) {
	lhs, err := buildExpr(n.Children[0])
	if err != nil {
		return nil, err
	}
	if !lhs.IsReferenceable() {
		return nil, diag.NewSemantic(n.Line, n.Pos, "left-hand side of assignment is not an lvalue")
	}
	rhs, err := buildExpr(n.Children[1])
	if err != nil {
		return nil, err
	}
	return NewAssignOp(n.Str, lhs, rhs, n.Line, n.Pos), nil
}

func buildTernary(n *parse.Node) (*Node, error) {
	cond, err := buildExpr(n.Children[0])
	if err != nil {
		return nil, err
	}
	then, err := buildExpr(n.Children[1])
	if err != nil {
		return nil, err
	}
	els, err := buildExpr(n.Children[2])
	if err != nil {
		return nil, err
	}
	return NewConditional(cond, then, els, n.Line, n.Pos), nil
}

// parseIntLit parses a B numeric literal: a leading '0' selects base 8,
// else base 10.
func parseIntLit(s string) (int64, error) {
	base := 10
	if len(s) > 1 && s[0] == '0' {
		base = 8
	}
	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric literal %q: %s", s, err)
	}
	return v, nil
}
