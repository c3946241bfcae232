// Package engine turns a stream of JSON-like tokens into document values:
// objects become insertion-ordered *document.Map, arrays []any.
package engine

import (
	"fmt"
	"io"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/reoring/blueprint/document"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// NumberMode selects how number tokens are materialized.
type NumberMode int

const (
	// NumberNative yields int for integral values that fit, float64 otherwise.
	NumberNative NumberMode = iota
	// NumberJSONNumber keeps the literal as json.Number.
	NumberJSONNumber
)

// Decode reads one complete value from src.
func Decode(src TokenSource, mode NumberMode) (any, error) {
	tok, err := src.NextToken()
	if err != nil {
		return nil, err
	}
	d := decoder{src: src, mode: mode}
	return d.value(tok)
}

// DecodeDocument reads one value from src and requires it to be an object.
func DecodeDocument(src TokenSource, mode NumberMode) (*document.Map, error) {
	v, err := Decode(src, mode)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*document.Map)
	if !ok {
		return nil, fmt.Errorf("engine: top-level value is %T, want object", v)
	}
	return m, nil
}

type decoder struct {
	src  TokenSource
	mode NumberMode
}

func (d decoder) value(tok Token) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return d.object()
	case KindBeginArray:
		return d.array()
	case KindString:
		return tok.String, nil
	case KindNumber:
		return d.number(tok.Number)
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, io.ErrUnexpectedEOF
	}
}

func (d decoder) number(s string) (any, error) {
	if d.mode == NumberJSONNumber {
		return json.Number(s), nil
	}
	if i, err := strconv.ParseInt(s, 10, 0); err == nil {
		return int(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("engine: invalid number %q: %w", s, err)
	}
	return f, nil
}

func (d decoder) object() (any, error) {
	m := document.New()
	for {
		tok, err := d.src.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, io.ErrUnexpectedEOF
		}
		vt, err := d.src.NextToken()
		if err != nil {
			return nil, err
		}
		v, err := d.value(vt)
		if err != nil {
			return nil, err
		}
		m.Set(tok.String, v)
	}
}

func (d decoder) array() (any, error) {
	arr := []any{}
	for {
		tok, err := d.src.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := d.value(tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}
