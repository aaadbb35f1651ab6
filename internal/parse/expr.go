package parse

import (
	"fmt"

	"github.com/b2llvm/b2llvm/internal/token"
)

// compoundAssignOps lists the textual compound-assignment operators the
// lexer emits as a single token.Op; "=" is the plain form.
var compoundAssignOps = map[string]bool{
	"=": true, "=+": true, "=-": true, "=*": true, "=/": true, "=%": true,
}

// assignment parses a right-associative assignment expression, falling
// through to conditional() when no '=' or '=op' follows.
func (p *Parser) assignment() (*Node, error) {
	lhs, err := p.conditional()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.Kind == token.Op && compoundAssignOps[t.Val] {
		p.next()
		rhs, err := p.assignment()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: Assign, Str: t.Val, Line: lhs.Line, Pos: lhs.Pos, Children: []*Node{lhs, rhs}}, nil
	}
	return lhs, nil
}

// conditional parses "e ? then : else"; absence of '?' leaves e untouched,
// which is the parse-shape encoding of "then branch is empty" collapsing
// the whole expression to the condition.
func (p *Parser) conditional() (*Node, error) {
	cond, err := p.binaryOr()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != token.Question {
		return cond, nil
	}
	p.next()
	then, err := p.assignment()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}
	els, err := p.conditional()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: Ternary, Line: cond.Line, Pos: cond.Pos, Children: []*Node{cond, then, els}}, nil
}

// chain parses a left-associative binary precedence level: a head operand
// followed by zero or more (operator, operand) pairs, kept unfolded as a
// flat (head, tail) run. internal/ast's semantic builder performs the
// actual left fold into nested binary-op nodes.
func (p *Parser) chain(next func() (*Node, error), ops ...string) (*Node, error) {
	head, err := next()
	if err != nil {
		return nil, err
	}
	var operands []*Node
	var tailOps []string
	for {
		t := p.peek()
		if t.Kind != token.Op || !containsOp(ops, t.Val) {
			break
		}
		p.next()
		rhs, err := next()
		if err != nil {
			return nil, err
		}
		operands = append(operands, rhs)
		tailOps = append(tailOps, t.Val)
	}
	if len(operands) == 0 {
		return head, nil
	}
	return &Node{
		Kind:     BinaryChain,
		Line:     head.Line,
		Pos:      head.Pos,
		Ops:      tailOps,
		Children: append([]*Node{head}, operands...),
	}, nil
}

func containsOp(ops []string, v string) bool {
	for _, o := range ops {
		if o == v {
			return true
		}
	}
	return false
}

func (p *Parser) binaryOr() (*Node, error) { return p.chain(p.binaryXor, "|") }
func (p *Parser) binaryXor() (*Node, error) { return p.chain(p.binaryAnd, "^") }
func (p *Parser) binaryAnd() (*Node, error) { return p.chain(p.equality, "&") }
func (p *Parser) equality() (*Node, error)  { return p.chain(p.relational, "==", "!=") }
func (p *Parser) relational() (*Node, error) {
	return p.chain(p.shift, "<", ">", "<=", ">=")
}
func (p *Parser) shift() (*Node, error)      { return p.chain(p.additive, "<<", ">>") }
func (p *Parser) additive() (*Node, error)   { return p.chain(p.multiplicative, "+", "-") }
func (p *Parser) multiplicative() (*Node, error) {
	return p.chain(p.unary, "*", "/", "%")
}

// prefixOps and postfixOps are the operator texts recognised in each
// position; "*" and "&" are only valid as prefixes, "++"/"--" in both.
var prefixOps = map[string]bool{"-": true, "~": true, "!": true, "*": true, "&": true, "++": true, "--": true}
var postfixOps = map[string]bool{"++": true, "--": true}

// unary collects a run of prefix operators, the primary chain they apply
// to, and a run of postfix operators, without yet deciding nesting order —
// that is the semantic builder's job (see its doc comment).
func (p *Parser) unary() (*Node, error) {
	var prefixes []string
	for {
		t := p.peek()
		if t.Kind == token.Op && prefixOps[t.Val] {
			p.next()
			prefixes = append(prefixes, t.Val)
			continue
		}
		break
	}
	operand, err := p.primaryChain()
	if err != nil {
		return nil, err
	}
	var postfixes []string
	for {
		t := p.peek()
		if t.Kind == token.Op && postfixOps[t.Val] {
			p.next()
			postfixes = append(postfixes, t.Val)
			continue
		}
		break
	}
	if len(prefixes) == 0 && len(postfixes) == 0 {
		return operand, nil
	}
	return &Node{
		Kind:     Unary,
		Line:     operand.Line,
		Pos:      operand.Pos,
		Ops:      prefixes,
		PostOps:  postfixes,
		Children: []*Node{operand},
	}, nil
}

// primaryChain parses a primary expression followed by zero or more
// '[index]' or '(args)' suffixes, left to right.
func (p *Parser) primaryChain() (*Node, error) {
	head, err := p.primary()
	if err != nil {
		return nil, err
	}
	var suffixes []*Node
	for {
		switch p.peek().Kind {
		case token.LBracket:
			p.next()
			idx, err := p.assignment()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBracket); err != nil {
				return nil, err
			}
			suffixes = append(suffixes, &Node{Kind: IndexSuffix, Children: []*Node{idx}})
			continue
		case token.LParen:
			p.next()
			var args []*Node
			if p.peek().Kind != token.RParen {
				for {
					a, err := p.assignment()
					if err != nil {
						return nil, err
					}
					args = append(args, a)
					if p.peek().Kind == token.Comma {
						p.next()
						continue
					}
					break
				}
			}
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
			suffixes = append(suffixes, &Node{Kind: CallSuffix, Children: args})
			continue
		}
		break
	}
	if len(suffixes) == 0 {
		return head, nil
	}
	return &Node{Kind: PrimaryChain, Line: head.Line, Pos: head.Pos, Children: append([]*Node{head}, suffixes...)}, nil
}

func (p *Parser) primary() (*Node, error) {
	t := p.peek()
	switch t.Kind {
	case token.Ident:
		p.next()
		return &Node{Kind: Ident, Str: t.Val, Line: t.Line, Pos: t.Pos}, nil
	case token.Int:
		p.next()
		return &Node{Kind: IntLit, Str: t.Val, Line: t.Line, Pos: t.Pos}, nil
	case token.Char:
		p.next()
		return &Node{Kind: CharLit, Str: t.Val, Line: t.Line, Pos: t.Pos}, nil
	case token.String:
		p.next()
		return &Node{Kind: StringLit, Str: t.Val, Line: t.Line, Pos: t.Pos}, nil
	case token.BuiltinBytesPerWord:
		p.next()
		return &Node{Kind: BuiltinBPW, Line: t.Line, Pos: t.Pos}, nil
	case token.LParen:
		p.next()
		e, err := p.assignment()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return &Node{Kind: Paren, Line: t.Line, Pos: t.Pos, Children: []*Node{e}}, nil
	default:
		return nil, &unexpectedTokenError{t}
	}
}

type unexpectedTokenError struct{ t token.Token }

func (e *unexpectedTokenError) Error() string {
	return fmt.Sprintf("line %d:%d: unexpected token %s %q", e.t.Line, e.t.Pos, e.t.Kind, e.t.Val)
}
