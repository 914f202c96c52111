package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pebblelang/pebble/internal/token"
)

func collect(src string) []token.Token {
	l := New(src)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestNextToken_Punctuation(t *testing.T) {
	toks := collect("(){}[],.-+;*")
	assert.Equal(t, []token.Kind{
		token.LEFT_PAREN, token.RIGHT_PAREN, token.LEFT_BRACE, token.RIGHT_BRACE,
		token.LEFT_BRACKET, token.RIGHT_BRACKET, token.COMMA, token.DOT,
		token.MINUS, token.PLUS, token.SEMICOLON, token.STAR, token.EOF,
	}, kinds(toks))
}

func TestNextToken_TwoCharOperators(t *testing.T) {
	tests := []struct {
		src  string
		want token.Kind
	}{
		{"!", token.BANG},
		{"!=", token.BANG_EQUAL},
		{"=", token.EQUAL},
		{"==", token.EQUAL_EQUAL},
		{"<", token.LESS},
		{"<=", token.LESS_EQUAL},
		{">", token.GREATER},
		{">=", token.GREATER_EQUAL},
	}
	for _, tc := range tests {
		toks := collect(tc.src)
		require_len := 2 // operator + EOF
		assert.Len(t, toks, require_len)
		assert.Equal(t, tc.want, toks[0].Kind)
	}
}

func TestNextToken_Keywords(t *testing.T) {
	toks := collect("and class else false for fun if nil or print println return super this true var while")
	want := []token.Kind{
		token.AND, token.CLASS, token.ELSE, token.FALSE, token.FOR, token.FUN,
		token.IF, token.NIL, token.OR, token.PRINT, token.PRINTLN, token.RETURN,
		token.SUPER, token.THIS, token.TRUE, token.VAR, token.WHILE, token.EOF,
	}
	assert.Equal(t, want, kinds(toks))
}

func TestNextToken_IdentifiersAndNumbers(t *testing.T) {
	toks := collect("foo_bar 123 3.14")
	assert.Equal(t, []token.Kind{token.IDENTIFIER, token.NUMBER, token.NUMBER, token.EOF}, kinds(toks))
	assert.Equal(t, "foo_bar", toks[0].Lexeme)
	assert.Equal(t, "123", toks[1].Lexeme)
	assert.Equal(t, "3.14", toks[2].Lexeme)
}

func TestNextToken_String(t *testing.T) {
	toks := collect(`"hello\nworld"`)
	require := assert.New(t)
	require.Equal(token.STRING, toks[0].Kind)
	require.Equal(`"hello\nworld"`, toks[0].Lexeme)
}

func TestNextToken_MultilineString(t *testing.T) {
	toks := collect("\"line1\nline2\"\nvar")
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, token.VAR, toks[1].Kind)
	assert.Equal(t, 2, toks[0].Line)
	assert.Equal(t, 3, toks[1].Line)
}

func TestNextToken_UnterminatedString(t *testing.T) {
	toks := collect(`"unterminated`)
	assert.Equal(t, token.ERROR, toks[0].Kind)
	assert.Equal(t, "Unterminated string.", toks[0].Lexeme)
}

func TestNextToken_CommentsSkipped(t *testing.T) {
	toks := collect("// a comment\nvar x")
	assert.Equal(t, []token.Kind{token.VAR, token.IDENTIFIER, token.EOF}, kinds(toks))
}

func TestNextToken_UnexpectedCharacter(t *testing.T) {
	toks := collect("@")
	assert.Equal(t, token.ERROR, toks[0].Kind)
}
