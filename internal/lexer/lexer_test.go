package lexer

import (
	"testing"

	"github.com/b2llvm/b2llvm/internal/token"
	"github.com/stretchr/testify/assert"
)

// tokenize drains a Lexer into a slice of tokens, up to and including the
// first EOF or Error token.
func tokenize(t *testing.T, src string) []token.Token {
	t.Helper()
	l := New(src)
	go l.Run()
	var out []token.Token
	for {
		tk := l.Next()
		out = append(out, tk)
		if tk.Kind == token.EOF || tk.Kind == token.Error {
			return out
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, tk := range toks {
		ks[i] = tk.Kind
	}
	return ks
}

func TestLexerDeclarationAndCall(t *testing.T) {
	toks := tokenize(t, `main() { extrn putchar; auto i; i = 0; putchar('X'); }`)
	assert.Equal(t, []token.Kind{
		token.Ident, token.LParen, token.RParen, token.LBrace,
		token.Extrn, token.Ident, token.Semicolon,
		token.Auto, token.Ident, token.Semicolon,
		token.Ident, token.Op, token.Int, token.Semicolon,
		token.Ident, token.LParen, token.Char, token.RParen, token.Semicolon,
		token.RBrace, token.EOF,
	}, kinds(toks))
}

func TestLexerCompoundAssignAndCompare(t *testing.T) {
	toks := tokenize(t, `a =+ 1; if (a == b) a =- 1;`)
	assert.Equal(t, []token.Kind{
		token.Ident, token.Op, token.Int, token.Semicolon,
		token.If, token.LParen, token.Ident, token.Op, token.Ident, token.RParen,
		token.Ident, token.Op, token.Int, token.Semicolon,
		token.EOF,
	}, kinds(toks))
	assert.Equal(t, "=+", toks[1].Val)
	assert.Equal(t, "==", toks[7].Val)
	assert.Equal(t, "=-", toks[11].Val)
}

func TestLexerOctalNumber(t *testing.T) {
	toks := tokenize(t, `031`)
	assert.Equal(t, token.Int, toks[0].Kind)
	assert.Equal(t, "031", toks[0].Val)
}

func TestLexerEscapesPassThroughRaw(t *testing.T) {
	toks := tokenize(t, `"hello*nworld"`)
	assert.Equal(t, token.String, toks[0].Kind)
	assert.Equal(t, "hello*nworld", toks[0].Val)
}

func TestLexerUnclosedStringIsError(t *testing.T) {
	toks := tokenize(t, `"unterminated`)
	assert.Equal(t, token.Error, toks[len(toks)-1].Kind)
}

func TestLexerBlockComment(t *testing.T) {
	toks := tokenize(t, "a /* comment\nspanning lines */ = 1;")
	assert.Equal(t, []token.Kind{token.Ident, token.Op, token.Int, token.Semicolon, token.EOF}, kinds(toks))
}

func TestLexerBuiltin(t *testing.T) {
	toks := tokenize(t, `__bytes_per_word`)
	assert.Equal(t, token.BuiltinBytesPerWord, toks[0].Kind)
}
