package parse

import (
	"fmt"

	"github.com/b2llvm/b2llvm/internal/lexer"
	"github.com/b2llvm/b2llvm/internal/token"
)

// Parser is a hand-written recursive-descent parser with two tokens of
// lookahead (the second only needed to disambiguate a label from an
// expression statement), fed by a concurrently running lexer.Lexer.
type Parser struct {
	lex  *lexer.Lexer
	buf  []token.Token
}

// New returns a Parser over src. The lexer is started in its own goroutine.
func New(src string) *Parser {
	l := lexer.New(src)
	go l.Run()
	return &Parser{lex: l}
}

// Parse parses a full program and returns its parse tree root.
func Parse(src string) (*Node, error) {
	return New(src).Program()
}

func (p *Parser) fill(n int) {
	for len(p.buf) < n {
		p.buf = append(p.buf, p.lex.Next())
	}
}

func (p *Parser) peek() token.Token {
	p.fill(1)
	return p.buf[0]
}

func (p *Parser) peek2() token.Token {
	p.fill(2)
	return p.buf[1]
}

func (p *Parser) next() token.Token {
	p.fill(1)
	t := p.buf[0]
	p.buf = p.buf[1:]
	return t
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	t := p.peek()
	if t.Kind != k {
		return t, fmt.Errorf("line %d:%d: expected %s, got %s %q", t.Line, t.Pos, k, t.Kind, t.Val)
	}
	return p.next(), nil
}

// Program parses the top-level sequence of definitions.
func (p *Parser) Program() (*Node, error) {
	root := &Node{Kind: Program}
	for p.peek().Kind != token.EOF {
		if t := p.peek(); t.Kind == token.Error {
			return nil, fmt.Errorf("line %d:%d: %s", t.Line, t.Pos, t.Val)
		}
		def, err := p.definition()
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, def)
	}
	return root, nil
}

// definition parses one top-level simple/vector/function definition.
func (p *Parser) definition() (*Node, error) {
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	switch p.peek().Kind {
	case token.LParen:
		return p.functionDef(name)
	case token.LBracket:
		return p.vectorDef(name)
	default:
		return p.simpleDef(name)
	}
}

func (p *Parser) functionDef(name token.Token) (*Node, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var params []string
	for p.peek().Kind != token.RParen {
		id, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		params = append(params, id.Val)
		if p.peek().Kind == token.Comma {
			p.next()
		} else {
			break
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: FunctionDef, Str: name.Val, Names: params, Line: name.Line, Pos: name.Pos, Children: []*Node{body}}, nil
}

func (p *Parser) vectorDef(name token.Token) (*Node, error) {
	if _, err := p.expect(token.LBracket); err != nil {
		return nil, err
	}
	var maxIdx *Node
	if p.peek().Kind == token.Int {
		t := p.next()
		maxIdx = &Node{Kind: IntLit, Str: t.Val, Line: t.Line, Pos: t.Pos}
	}
	if _, err := p.expect(token.RBracket); err != nil {
		return nil, err
	}
	var inits []*Node
	if p.peek().Kind != token.Semicolon {
		for {
			e, err := p.assignment()
			if err != nil {
				return nil, err
			}
			inits = append(inits, e)
			if p.peek().Kind == token.Comma {
				p.next()
				continue
			}
			break
		}
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	n := &Node{Kind: VectorDef, Str: name.Val, Line: name.Line, Pos: name.Pos}
	if maxIdx != nil {
		n.Children = append(n.Children, maxIdx)
	} else {
		n.Children = append(n.Children, nil)
	}
	n.Children = append(n.Children, inits...)
	return n, nil
}

func (p *Parser) simpleDef(name token.Token) (*Node, error) {
	n := &Node{Kind: SimpleDef, Str: name.Val, Line: name.Line, Pos: name.Pos}
	if p.peek().Kind != token.Semicolon {
		e, err := p.assignment()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, e)
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return n, nil
}

// statement parses a single statement.
func (p *Parser) statement() (*Node, error) {
	t := p.peek()
	switch t.Kind {
	case token.LBrace:
		return p.compound()
	case token.Auto:
		return p.autoDecl()
	case token.Extrn:
		return p.externDecl()
	case token.Semicolon:
		p.next()
		return &Node{Kind: NullStmt, Line: t.Line, Pos: t.Pos}, nil
	case token.Return:
		return p.returnStmt()
	case token.If:
		return p.ifStmt()
	case token.While:
		return p.whileStmt()
	case token.Switch:
		return p.switchStmt()
	case token.Case, token.Default:
		return p.caseStmt()
	case token.Break:
		p.next()
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &Node{Kind: BreakStmt, Line: t.Line, Pos: t.Pos}, nil
	case token.Goto:
		p.next()
		id, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &Node{Kind: GotoStmt, Str: id.Val, Line: t.Line, Pos: t.Pos}, nil
	default:
		// A label ("name:") is the only construct requiring two tokens of
		// lookahead to distinguish from an expression statement.
		if t.Kind == token.Ident && p.peek2().Kind == token.Colon {
			p.next() // identifier
			p.next() // ':'
			body, err := p.statement()
			if err != nil {
				return nil, err
			}
			return &Node{Kind: LabelStmt, Str: t.Val, Line: t.Line, Pos: t.Pos, Children: []*Node{body}}, nil
		}
		return p.exprStmt()
	}
}

func (p *Parser) compound() (*Node, error) {
	lb, _ := p.expect(token.LBrace)
	n := &Node{Kind: Compound, Line: lb.Line, Pos: lb.Pos}
	for p.peek().Kind != token.RBrace {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, s)
	}
	p.next()
	return n, nil
}

func (p *Parser) autoDecl() (*Node, error) {
	kw := p.next() // 'auto'
	var decls []*Node
	for {
		id, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if p.peek().Kind == token.LBracket {
			p.next()
			var maxIdx *Node
			if p.peek().Kind == token.Int {
				t := p.next()
				maxIdx = &Node{Kind: IntLit, Str: t.Val, Line: t.Line, Pos: t.Pos}
			}
			if _, err := p.expect(token.RBracket); err != nil {
				return nil, err
			}
			n := &Node{Kind: AutoVector, Str: id.Val, Line: id.Line, Pos: id.Pos}
			n.Children = append(n.Children, maxIdx)
			decls = append(decls, n)
		} else {
			decls = append(decls, &Node{Kind: AutoScalar, Str: id.Val, Line: id.Line, Pos: id.Pos})
		}
		if p.peek().Kind == token.Comma {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	if len(decls) == 1 {
		return decls[0], nil
	}
	return &Node{Kind: Multipart, Line: kw.Line, Pos: kw.Pos, Children: decls}, nil
}

func (p *Parser) externDecl() (*Node, error) {
	kw := p.next() // 'extrn'
	var decls []*Node
	for {
		id, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		decls = append(decls, &Node{Kind: ExternDecl, Str: id.Val, Line: id.Line, Pos: id.Pos})
		if p.peek().Kind == token.Comma {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	if len(decls) == 1 {
		return decls[0], nil
	}
	return &Node{Kind: Multipart, Line: kw.Line, Pos: kw.Pos, Children: decls}, nil
}

func (p *Parser) returnStmt() (*Node, error) {
	kw := p.next() // 'return'
	n := &Node{Kind: ReturnStmt, Line: kw.Line, Pos: kw.Pos}
	if p.peek().Kind == token.LParen {
		p.next()
		e, err := p.assignment()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		n.Children = append(n.Children, e)
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) ifStmt() (*Node, error) {
	kw := p.next() // 'if'
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.assignment()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	then, err := p.statement()
	if err != nil {
		return nil, err
	}
	n := &Node{Kind: IfStmt, Line: kw.Line, Pos: kw.Pos, Children: []*Node{cond, then}}
	if p.peek().Kind == token.Else {
		p.next()
		els, err := p.statement()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, els)
	}
	return n, nil
}

func (p *Parser) whileStmt() (*Node, error) {
	kw := p.next()
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.assignment()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: WhileStmt, Line: kw.Line, Pos: kw.Pos, Children: []*Node{cond, body}}, nil
}

func (p *Parser) switchStmt() (*Node, error) {
	kw := p.next()
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.assignment()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: SwitchStmt, Line: kw.Line, Pos: kw.Pos, Children: []*Node{cond, body}}, nil
}

func (p *Parser) caseStmt() (*Node, error) {
	t := p.next() // 'case' or 'default'
	n := &Node{Kind: CaseStmt, Line: t.Line, Pos: t.Pos}
	if t.Kind == token.Case {
		c, err := p.assignment()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, c)
	} else {
		n.Children = append(n.Children, nil) // default: no constant
	}
	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	n.Children = append(n.Children, body)
	return n, nil
}

func (p *Parser) exprStmt() (*Node, error) {
	e, err := p.assignment()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return &Node{Kind: ExprStmt, Line: e.Line, Pos: e.Pos, Children: []*Node{e}}, nil
}
