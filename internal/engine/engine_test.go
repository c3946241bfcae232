package engine

import (
	"errors"
	"io"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokens []Token

func (t *tokens) NextToken() (Token, error) {
	if len(*t) == 0 {
		return Token{}, io.EOF
	}
	tok := (*t)[0]
	*t = (*t)[1:]
	return tok, nil
}

func (t *tokens) Location() int64 { return -1 }

func obj(body ...Token) []Token {
	return append(append([]Token{{Kind: KindBeginObject}}, body...), Token{Kind: KindEndObject})
}

func arr(body ...Token) []Token {
	return append(append([]Token{{Kind: KindBeginArray}}, body...), Token{Kind: KindEndArray})
}

func key(k string) Token { return Token{Kind: KindKey, String: k} }
func num(n string) Token { return Token{Kind: KindNumber, Number: n} }
func str(s string) Token { return Token{Kind: KindString, String: s} }
func cat(parts ...[]Token) []Token {
	var out []Token
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestDecodeDocument_OrderAndNumbers(t *testing.T) {
	ts := tokens(obj(cat(
		[]Token{key("z"), num("1")},
		[]Token{key("a"), num("1.5")},
		[]Token{key("m")}, arr(str("x"), Token{Kind: KindBool, Bool: true}, Token{Kind: KindNull}),
	)...))
	doc, err := DecodeDocument(&ts, NumberNative)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, doc.Keys())
	z, _ := doc.Get("z")
	assert.Equal(t, 1, z)
	a, _ := doc.Get("a")
	assert.Equal(t, 1.5, a)
	m, _ := doc.Get("m")
	assert.Equal(t, []any{"x", true, nil}, m)

	ts = tokens(obj(key("n"), num("10")))
	doc, err = DecodeDocument(&ts, NumberJSONNumber)
	require.NoError(t, err)
	n, _ := doc.Get("n")
	assert.Equal(t, json.Number("10"), n)
}

func TestDecodeDocument_NotObject(t *testing.T) {
	ts := tokens(arr(num("1")))
	_, err := DecodeDocument(&ts, NumberNative)
	assert.Error(t, err)
}

func TestEnforcement_DuplicatePath(t *testing.T) {
	body := cat(
		[]Token{key("a")},
		arr(cat([]Token{num("1")}, obj(key("b"), num("2"), key("b"), num("3")))...),
	)
	ts := tokens(obj(body...))
	_, err := Decode(WrapWithEnforcement(&ts, EnforceOptions{}), NumberNative)
	var dup *DuplicateKeyError
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, "a.1.b", dup.Path)
	assert.Equal(t, "b", dup.Key)

	ts = tokens(obj(body...))
	v, err := Decode(WrapWithEnforcement(&ts, EnforceOptions{AllowDuplicates: true}), NumberNative)
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestEnforcement_MaxDepth(t *testing.T) {
	ts := tokens(obj(cat([]Token{key("a")}, obj(cat([]Token{key("b")}, arr(num("1")))...))...))
	_, err := Decode(WrapWithEnforcement(&ts, EnforceOptions{MaxDepth: 2}), NumberNative)
	assert.ErrorIs(t, err, ErrMaxDepth)
}

func TestJoinPathEscapesDots(t *testing.T) {
	assert.Equal(t, `a.b\.c`, joinPath("a", "b.c"))
	assert.Equal(t, "(root)", displayPath(""))
}
