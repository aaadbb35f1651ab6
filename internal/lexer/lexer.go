// Package lexer implements a concurrent, state-function lexer for B source
// text, in the style of Rob Pike's "Lexical Scanning in Go" talk.
// Link to the talk: https://www.youtube.com/watch?v=HxaD_trXwRE
package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/b2llvm/b2llvm/internal/token"
)

// stateFunc defines the current state of the lexer.
type stateFunc func(*Lexer) stateFunc

const eof = 0

// Lexer scans a B source string and emits token.Token values on a channel.
// Identifier bytes are recognised here; the parser never inspects raw
// runes. Character and string literals are emitted with their '*' escapes
// unexpanded, and numeric literals as raw digit runs: escape expansion and
// numeric base selection happen in the semantic builder (internal/ast).
type Lexer struct {
	input       string
	start       int
	pos         int
	width       int
	line        int
	startOnLine int
	items       chan token.Token
}

// New creates a Lexer over src. Call Run in its own goroutine, then drain
// Next until it returns a token.EOF or token.Error token.
func New(src string) *Lexer {
	return &Lexer{
		input:       src,
		line:        1,
		startOnLine: 1,
		items:       make(chan token.Token, 2),
	}
}

// Run drives the state machine to completion, closing the item channel
// when done.
func (l *Lexer) Run() {
	defer close(l.items)
	for state := stateGlobal; state != nil; {
		state = state(l)
	}
}

// Next returns the next scanned token, blocking until the lexer produces one.
func (l *Lexer) Next() token.Token {
	t, ok := <-l.items
	if !ok {
		return token.Token{Kind: token.EOF}
	}
	return t
}

func (l *Lexer) emit(k token.Kind) {
	l.items <- token.Token{
		Kind: k,
		Val:  l.input[l.start:l.pos],
		Line: l.line,
		Pos:  l.startOnLine,
	}
	l.startOnLine += len(l.input[l.start:l.pos])
	l.start = l.pos
}

func (l *Lexer) emitVal(k token.Kind, val string) {
	l.items <- token.Token{Kind: k, Val: val, Line: l.line, Pos: l.startOnLine}
	l.startOnLine += len(l.input[l.start:l.pos])
	l.start = l.pos
}

func (l *Lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	return r
}

func (l *Lexer) backup() {
	if l.pos > l.start {
		l.pos -= l.width
	}
}

func (l *Lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *Lexer) ignore() {
	l.startOnLine += len(l.input[l.start:l.pos])
	l.start = l.pos
}

func (l *Lexer) errorf(format string, args ...interface{}) stateFunc {
	l.items <- token.Token{
		Kind: token.Error,
		Val:  fmt.Sprintf(format, args...),
		Line: l.line,
		Pos:  l.startOnLine,
	}
	return nil
}

// isIdentStart reports whether r may begin a B name, which includes the
// historical backspace character.
func isIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '\b'
}

func isIdentCont(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\f' || r == '\r'
}
