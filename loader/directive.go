package loader

import (
	"fmt"
	"strings"

	"github.com/reoring/blueprint/document"
)

// Actions with load-time meaning. Every other action is deferred as a
// DynamicField.
const (
	ActionExtends  = "extends"
	ActionImport   = "import"
	ActionOrdering = "ordering"
	ActionUnset    = "unset"
	ActionReplace  = "replace"
)

// Directive is a parsed directive key: "@import", "import@", "import@2",
// "config-default@".
type Directive struct {
	Action   string
	Property string
}

// ParseDirective splits a directive key. ok is false for ordinary keys.
func ParseDirective(key string) (Directive, bool) {
	var body string
	switch {
	case strings.HasPrefix(key, "@"):
		body = strings.TrimPrefix(key, "@")
		if i := strings.IndexByte(body, '@'); i >= 0 {
			return Directive{}, false
		}
	default:
		i := strings.LastIndexByte(key, '@')
		if i <= 0 || !isDigits(key[i+1:]) {
			return Directive{}, false
		}
		body = key[:i]
	}
	if body == "" {
		return Directive{}, false
	}
	action, property, _ := strings.Cut(body, "-")
	return Directive{Action: action, Property: property}, true
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Ref names a schema to extend or import. The reserved Type "parent" refers
// to the remaining, less specific candidates of the schema being loaded.
type Ref struct {
	Type    string
	Context string
	// Append makes imported values override local ones.
	Append bool
}

// Parent is the reserved reference to the next less specific candidate.
const Parent = "parent"

func (r Ref) key() string {
	if r.Context == "" {
		return r.Type
	}
	return r.Type + "@" + r.Context
}

// parseRefs accepts a bare string, a {type, context, append} map or a list
// of either.
func parseRefs(v any) ([]Ref, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if t == "" {
			return nil, nil
		}
		return []Ref{{Type: strings.TrimPrefix(t, "@")}}, nil
	case *document.Map:
		r := Ref{Type: strings.TrimPrefix(t.String("type"), "@"), Context: t.String("context")}
		if a, ok := t.Get("append"); ok {
			r.Append, _ = a.(bool)
		}
		return []Ref{r}, nil
	case []any:
		var out []Ref
		for _, it := range t {
			refs, err := parseRefs(it)
			if err != nil {
				return nil, err
			}
			out = append(out, refs...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("invalid schema reference %v (%T)", v, v)
	}
}
