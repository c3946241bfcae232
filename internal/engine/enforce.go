package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMaxDepth is returned when nesting exceeds EnforceOptions.MaxDepth.
var ErrMaxDepth = errors.New("max depth exceeded")

// DuplicateKeyError reports an object key seen twice in one object.
type DuplicateKeyError struct {
	Path string // dotted path of the duplicated key
	Key  string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q at %s", e.Key, e.Path)
}

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	// AllowDuplicates lets a repeated key silently replace the earlier value.
	AllowDuplicates bool
	MaxDepth        int
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	keys         map[string]struct{}
	expectingKey bool
	path         string
	nextIndex    int
	pendingKey   string
}

// WrapWithEnforcement returns a TokenSource that rejects duplicate object keys
// and nesting deeper than opt.MaxDepth.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	return &enforcingTokenSource{inner: inner, opt: opt}
}

type enforcingTokenSource struct {
	inner TokenSource
	opt   EnforceOptions
	stack []frame
}

func (e *enforcingTokenSource) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}

	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		f := frame{kind: kindArray, path: e.childPath()}
		if tok.Kind == KindBeginObject {
			f.kind = kindObject
			f.keys = map[string]struct{}{}
			f.expectingKey = true
		}
		e.stack = append(e.stack, f)
		if e.opt.MaxDepth > 0 && len(e.stack) > e.opt.MaxDepth {
			return Token{}, fmt.Errorf("%w at %s", ErrMaxDepth, displayPath(f.path))
		}
	case KindEndObject, KindEndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
		e.valueDone()
	case KindKey:
		if n := len(e.stack); n > 0 {
			top := &e.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				if _, dup := top.keys[tok.String]; dup && !e.opt.AllowDuplicates {
					return Token{}, &DuplicateKeyError{Path: displayPath(joinPath(top.path, tok.String)), Key: tok.String}
				}
				top.keys[tok.String] = struct{}{}
				top.expectingKey = false
				top.pendingKey = tok.String
			}
		}
	default:
		e.childPath()
		e.valueDone()
	}
	return tok, nil
}

// childPath returns the path of the value about to start in the current
// container, advancing array indices.
func (e *enforcingTokenSource) childPath() string {
	n := len(e.stack)
	if n == 0 {
		return ""
	}
	top := &e.stack[n-1]
	if top.kind == kindArray {
		p := joinPath(top.path, strconv.Itoa(top.nextIndex))
		top.nextIndex++
		return p
	}
	return joinPath(top.path, top.pendingKey)
}

func (e *enforcingTokenSource) valueDone() {
	if n := len(e.stack); n > 0 {
		top := &e.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
			top.pendingKey = ""
		}
	}
}

func joinPath(base, token string) string {
	token = strings.ReplaceAll(token, ".", `\.`)
	if base == "" {
		return token
	}
	return base + "." + token
}

func displayPath(p string) string {
	if p == "" {
		return "(root)"
	}
	return p
}

func (e *enforcingTokenSource) Location() int64 { return e.inner.Location() }
