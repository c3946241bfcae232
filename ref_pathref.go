package blueprint

import (
	"fmt"
	"strconv"
	"strings"
)

// PathRef builds dotted data paths in a chain-safe way and creates Issues.
// The zero value is the root.
type PathRef struct {
	parts []string
}

// Root returns the empty path.
func Root() PathRef { return PathRef{} }

func (p PathRef) Field(name string) PathRef {
	if name == "" {
		return p
	}
	return PathRef{parts: append(append([]string{}, p.parts...), name)}
}

func (p PathRef) Index(i int) PathRef {
	return PathRef{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

// String returns the dotted path; the root is "".
func (p PathRef) String() string { return strings.Join(p.parts, ".") }

func (p PathRef) Issue(code, msg string, kv ...any) Issue {
	m := map[string]any{}
	for i := 0; i+1 < len(kv); i += 2 {
		m[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return Issue{Path: p.String(), Code: code, Message: msg, Params: m}
}
