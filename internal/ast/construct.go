package ast

// NewConstInt builds a constant-integer expression.
func NewConstInt(v int64, line, pos int) *Node {
	return &Node{K: ConstInt, Int: v, Line: line, Pos: pos}
}

// NewConstString builds a string-constant expression from already
// escape-expanded bytes. The B string terminator (0x04) is appended by
// the emitter just before the bytes are interned in the string-constant
// pool, not here: two call sites with identical bytes but computed
// separately must still dedupe.
func NewConstString(b []byte, line, pos int) *Node {
	return &Node{K: ConstString, Str: b, Line: line, Pos: pos}
}

// NewScopeRef builds a name lookup. Its referenceability and the address
// it yields depend on what the name resolves to in the active scope
// chain, not on anything the node itself carries beyond the name.
func NewScopeRef(name string, line, pos int) *Node {
	return &Node{K: ScopeRef, Name: name, Line: line, Pos: pos}
}

// NewDeref builds "*e": the canonical constructor for the dereferenced
// r-value l-value form. e is the address expression.
func NewDeref(e *Node, line, pos int) *Node {
	return &Node{K: Deref, Children: []*Node{e}, Line: line, Pos: pos}
}

// NewAddressOf builds "&e". e must be Referenceable; that is a semantic
// precondition the builder checks before calling this constructor, not an
// invariant this constructor itself enforces (construction is always
// successful; checking happens where the decision is made, with the
// source position at hand for a useful error).
func NewAddressOf(e *Node, line, pos int) *Node {
	return &Node{K: AddressOf, Children: []*Node{e}, Line: line, Pos: pos}
}

// NewBinaryOp builds a binary arithmetic/bitwise/shift/comparison node.
func NewBinaryOp(op string, lhs, rhs *Node, line, pos int) *Node {
	return &Node{K: BinaryOp, Op: op, Children: []*Node{lhs, rhs}, Line: line, Pos: pos}
}

// NewUnaryPrefix builds one of -, ~, !, prefix ++, prefix --.
func NewUnaryPrefix(op string, operand *Node, line, pos int) *Node {
	return &Node{K: UnaryPrefix, Op: op, Children: []*Node{operand}, Line: line, Pos: pos}
}

// NewUnaryPostfix builds postfix ++ or --.
func NewUnaryPostfix(op string, operand *Node, line, pos int) *Node {
	return &Node{K: UnaryPostfix, Op: op, Children: []*Node{operand}, Line: line, Pos: pos}
}

// NewAssignOp builds "=" or a compound "=op". lhs must be Referenceable;
// checked by the caller for the same reason as NewAddressOf.
func NewAssignOp(op string, lhs, rhs *Node, line, pos int) *Node {
	return &Node{K: AssignOp, Op: op, Children: []*Node{lhs, rhs}, Line: line, Pos: pos}
}

// NewConditional builds "cond ? then : else".
func NewConditional(cond, then, els *Node, line, pos int) *Node {
	return &Node{K: Conditional, Children: []*Node{cond, then, els}, Line: line, Pos: pos}
}

// NewCall builds a function call. callee is the function operand whose
// address (not value) is taken; args are evaluated left to right.
func NewCall(callee *Node, args []*Node, line, pos int) *Node {
	return &Node{K: Call, Children: append([]*Node{callee}, args...), Line: line, Pos: pos}
}

// NewBuiltinBytesPerWord builds the __bytes_per_word intrinsic.
func NewBuiltinBytesPerWord(line, pos int) *Node {
	return &Node{K: BuiltinBytesPerWord, Line: line, Pos: pos}
}

// NewAutoScalarDecl builds "auto name".
func NewAutoScalarDecl(name string, line, pos int) *Node {
	return &Node{K: AutoScalarDecl, Name: name, Line: line, Pos: pos}
}

// NewAutoVectorDecl builds "auto name[maxIdx]". maxIdx is -1 when absent
// from source; the declaration still needs at least one word of storage,
// and emission resolves the final length.
func NewAutoVectorDecl(name string, maxIdx int64, line, pos int) *Node {
	return &Node{K: AutoVectorDecl, Name: name, MaxIdx: maxIdx, Line: line, Pos: pos}
}

// NewExternDecl builds one name of an "extrn a, b, c" statement. Multiple
// names are coalesced into a Multipart by the parser, one ExternDecl each.
func NewExternDecl(name string, line, pos int) *Node {
	return &Node{K: ExternDecl, Name: name, Line: line, Pos: pos}
}

// NewCompound builds a compound statement: opens a new lexical scope.
func NewCompound(stmts []*Node, line, pos int) *Node {
	return &Node{K: Compound, Children: stmts, Line: line, Pos: pos}
}

// NewMultipart builds a multipart statement: no new scope, used for
// coalesced declarations.
func NewMultipart(stmts []*Node, line, pos int) *Node {
	return &Node{K: Multipart, Children: stmts, Line: line, Pos: pos}
}

// NewExprStmt builds an expression statement; its value is discarded.
func NewExprStmt(e *Node, line, pos int) *Node {
	return &Node{K: ExprStmt, Children: []*Node{e}, Line: line, Pos: pos}
}

// NewNullStmt builds the empty statement.
func NewNullStmt(line, pos int) *Node {
	return &Node{K: NullStmt, Line: line, Pos: pos}
}

// NewReturnStmt builds "return;" (e == nil, yields 0) or "return(e);".
func NewReturnStmt(e *Node, line, pos int) *Node {
	n := &Node{K: ReturnStmt, Line: line, Pos: pos}
	if e != nil {
		n.Children = []*Node{e}
	}
	return n
}

// NewIfStmt builds "if(cond) then" or "if(cond) then else els" (els == nil
// for the two-child form).
func NewIfStmt(cond, then, els *Node, line, pos int) *Node {
	n := &Node{K: IfStmt, Line: line, Pos: pos, Children: []*Node{cond, then}}
	if els != nil {
		n.Children = append(n.Children, els)
	}
	return n
}

// NewWhileStmt builds "while(cond) body".
func NewWhileStmt(cond, body *Node, line, pos int) *Node {
	return &Node{K: WhileStmt, Children: []*Node{cond, body}, Line: line, Pos: pos}
}

// NewSwitchStmt builds "switch(cond) body".
func NewSwitchStmt(cond, body *Node, line, pos int) *Node {
	return &Node{K: SwitchStmt, Children: []*Node{cond, body}, Line: line, Pos: pos}
}

// NewCaseStmt builds "case c: s" (c == nil for "default: s").
func NewCaseStmt(c, s *Node, line, pos int) *Node {
	n := &Node{K: CaseStmt, Line: line, Pos: pos}
	if c != nil {
		n.Children = []*Node{c, s}
	} else {
		n.Children = []*Node{nil, s}
	}
	return n
}

// IsDefault reports whether a CaseStmt node is the "default" arm.
func (n *Node) IsDefault() bool {
	return n.K == CaseStmt && n.Children[0] == nil
}

// NewBreakStmt builds "break;".
func NewBreakStmt(line, pos int) *Node {
	return &Node{K: BreakStmt, Line: line, Pos: pos}
}

// NewLabelStmt builds "L: s".
func NewLabelStmt(label string, s *Node, line, pos int) *Node {
	return &Node{K: LabelStmt, Name: label, Children: []*Node{s}, Line: line, Pos: pos}
}

// NewGotoStmt builds "goto L;".
func NewGotoStmt(label string, line, pos int) *Node {
	return &Node{K: GotoStmt, Name: label, Line: line, Pos: pos}
}

// NewSimpleExternDef builds a top-level "name;" or "name init;". init may
// be nil (zero-initialized) or any expression: a constant-integer literal
// becomes the global's initializer in the declaration pass; any other
// expression (constant or not) is synthesized into a constructor by the
// emission pass.
func NewSimpleExternDef(name string, init *Node, line, pos int) *Node {
	n := &Node{K: SimpleExternDef, Name: name, Line: line, Pos: pos}
	if init != nil {
		n.Children = []*Node{init}
	}
	return n
}

// NewVectorExternDef builds a top-level "name[maxIdx] init...;". maxIdx is
// -1 if absent from source.
func NewVectorExternDef(name string, maxIdx int64, inits []*Node, line, pos int) *Node {
	return &Node{K: VectorExternDef, Name: name, MaxIdx: maxIdx, Children: inits, Line: line, Pos: pos}
}

// NewFunctionDef builds a top-level function definition.
func NewFunctionDef(name string, params []string, body *Node, line, pos int) *Node {
	return &Node{K: FunctionDef, Name: name, Params: params, Children: []*Node{body}, Line: line, Pos: pos}
}

// NewProgram builds the program root; defs are top-level definitions in
// source order.
func NewProgram(defs []*Node) *Node {
	return &Node{K: Program, Children: defs}
}
