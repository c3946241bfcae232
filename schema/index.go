package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/untillpro/goutils/logger"

	"github.com/reoring/blueprint/document"
	"github.com/reoring/blueprint/loader"
)

// Wildcard is the schema key matching any data key at its level.
const Wildcard = "*"

// ErrPathConflict is returned when one dotted path is declared both as a leaf
// field and as a container.
var ErrPathConflict = errors.New("schema: path declared both as field and container")

// Index is the read-only product of indexing a resolved schema document.
//
// Flat maps every leaf's dotted path to its Field. Nested mirrors the shape of
// the data the schema describes: each key resolves either to a leaf path or to
// a nested level. An Index is never modified after Build returns and may be
// shared between goroutines.
type Index struct {
	Flat   map[string]*Field
	Nested *Nested
	Fields []*Field
	Rules  map[string]map[string]any
	Strict bool

	order []string
}

// Paths returns the leaf paths in document order.
func (x *Index) Paths() []string { return append([]string(nil), x.order...) }

// Field returns the leaf field at path.
func (x *Index) Field(path string) (*Field, bool) {
	f, ok := x.Flat[path]
	return f, ok
}

// Nested is one level of the data-shaped mirror tree.
type Nested struct {
	keys    []string
	entries map[string]*Entry
}

// Entry is either a leaf reference (Path set, Sub nil) or a container (Sub set).
type Entry struct {
	Path string
	Sub  *Nested
}

// IsLeaf reports whether the entry refers to a single field.
func (e Entry) IsLeaf() bool { return e.Sub == nil }

func newNested() *Nested { return &Nested{entries: map[string]*Entry{}} }

// Lookup resolves a data key at this level, falling back to the wildcard key.
func (n *Nested) Lookup(key string) (Entry, bool) {
	if n == nil {
		return Entry{}, false
	}
	if e, ok := n.entries[key]; ok {
		return *e, true
	}
	if e, ok := n.entries[Wildcard]; ok {
		return *e, true
	}
	return Entry{}, false
}

// Keys returns the keys of this level in declaration order.
func (n *Nested) Keys() []string {
	if n == nil {
		return nil
	}
	return append([]string(nil), n.keys...)
}

// Len returns the number of keys at this level.
func (n *Nested) Len() int {
	if n == nil {
		return 0
	}
	return len(n.keys)
}

func (n *Nested) put(key string, e *Entry) {
	if _, ok := n.entries[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.entries[key] = e
}

// Build indexes a resolved schema document. Fields are read from form.fields,
// or from a top-level fields map when the document has no form section.
func Build(doc *document.Map) (*Index, error) {
	b := &builder{
		idx: &Index{
			Flat:   map[string]*Field{},
			Nested: newNested(),
			Rules:  readRules(doc),
			Strict: readStrict(doc),
		},
	}
	fields, ok := doc.LookupMap("form", "fields")
	if !ok {
		fields, _ = doc.Map("fields")
	}
	if fields == nil {
		return b.idx, nil
	}
	return b.build(fields)
}

func readRules(doc *document.Map) map[string]map[string]any {
	rules := map[string]map[string]any{}
	rm, ok := doc.Map("rules")
	if !ok {
		return rules
	}
	for _, name := range rm.Keys() {
		if def, ok := rm.Map(name); ok {
			rules[name] = def.ToMap()
		}
	}
	return rules
}

func readStrict(doc *document.Map) bool {
	if v, ok := doc.Lookup("form", "validation"); ok {
		return v == "strict"
	}
	v, _ := doc.Get("validation")
	return v == "strict"
}

type builder struct {
	idx *Index
}

func (b *builder) walk(fields *document.Map, prefix []string, level *Nested) ([]*Field, error) {
	out := make([]*Field, 0, fields.Len())
	for _, key := range fields.Keys() {
		if isDirectiveKey(key) {
			continue
		}
		raw, _ := fields.Get(key)
		node, ok := raw.(*document.Map)
		if !ok {
			if raw == nil {
				continue
			}
			return nil, fmt.Errorf("schema: field %q: definition is %T, want map", joinPath(prefix, key), raw)
		}
		segs := splitKey(key)
		if len(segs) == 0 {
			continue
		}
		path := append(append([]string(nil), prefix...), segs...)
		f, err := b.field(path, node)
		if err != nil {
			return nil, err
		}
		if f.IsBranch() {
			sub, err := b.ensureSub(level, segs, f.Path)
			if err != nil {
				return nil, err
			}
			children, _ := node.Map("fields")
			f.Fields, err = b.walk(children, path, sub)
			if err != nil {
				return nil, err
			}
		} else {
			if err := b.putLeaf(level, segs, f); err != nil {
				return nil, err
			}
		}
		out = append(out, f)
	}
	return out, nil
}

func (b *builder) field(path []string, node *document.Map) (*Field, error) {
	name := path[len(path)-1]
	f := &Field{
		Name:     name,
		Path:     strings.Join(path, "."),
		Validate: map[string]any{},
		Props:    map[string]any{},
	}
	typeName, _ := node.Get("type")
	ts, _ := typeName.(string)
	f.Type = ParseType(ts)

	for _, k := range node.Keys() {
		v, _ := node.Get(k)
		switch k {
		case "type", "fields", "name":
		case "validate":
			if vm, ok := v.(*document.Map); ok {
				f.Validate = vm.ToMap()
			}
		case "options":
			f.Options = readOptions(v)
		default:
			if isDirectiveKey(k) {
				continue
			}
			f.Props[k] = document.ToPlain(v)
		}
	}
	b.applyNamedRule(f)

	children, hasChildren := node.Map("fields")
	switch {
	case hasChildren && f.Type.Kind == KindList:
		elem, err := (&builder{idx: &Index{
			Flat:   map[string]*Field{},
			Nested: newNested(),
			Rules:  b.idx.Rules,
			Strict: b.idx.Strict,
		}}).build(children)
		if err != nil {
			return nil, fmt.Errorf("schema: list %q: %w", f.Path, err)
		}
		f.Element = elem
		f.Fields = elem.Fields
	case hasChildren:
		f.Fields = []*Field{}
	}
	return f, nil
}

func (b *builder) build(fields *document.Map) (*Index, error) {
	root, err := b.walk(fields, nil, b.idx.Nested)
	if err != nil {
		return nil, err
	}
	b.idx.Fields = root
	return b.idx, nil
}

// applyNamedRule merges rules.<name> under the field's own constraints for
// validate.rule: name. The field's constraints win.
func (b *builder) applyNamedRule(f *Field) {
	name, ok := f.Validate["rule"].(string)
	if !ok || name == "" {
		return
	}
	rule, ok := b.idx.Rules[name]
	if !ok {
		if logger.IsVerbose() {
			logger.Verbose(fmt.Sprintf("schema: field %s references unknown rule %q", f.Path, name))
		}
		return
	}
	merged := make(map[string]any, len(rule)+len(f.Validate))
	for k, v := range rule {
		merged[k] = v
	}
	for k, v := range f.Validate {
		merged[k] = v
	}
	f.Validate = merged
}

func (b *builder) ensureSub(level *Nested, segs []string, path string) (*Nested, error) {
	cur := level
	for _, s := range segs {
		e, ok := cur.entries[s]
		switch {
		case !ok:
			e = &Entry{Sub: newNested()}
			cur.put(s, e)
		case e.Sub == nil:
			return nil, fmt.Errorf("%w: %s", ErrPathConflict, path)
		}
		cur = e.Sub
	}
	return cur, nil
}

func (b *builder) putLeaf(level *Nested, segs []string, f *Field) error {
	parent, err := b.ensureSub(level, segs[:len(segs)-1], f.Path)
	if err != nil {
		return err
	}
	last := segs[len(segs)-1]
	if e, ok := parent.entries[last]; ok {
		if e.Sub != nil {
			return fmt.Errorf("%w: %s", ErrPathConflict, f.Path)
		}
		// Redeclared leaf: the later definition wins, the position stays.
		b.idx.Flat[f.Path] = f
		return nil
	}
	parent.put(last, &Entry{Path: f.Path})
	b.idx.Flat[f.Path] = f
	b.idx.order = append(b.idx.order, f.Path)
	return nil
}

// readOptions accepts a map (key -> label) or a sequence of scalars (each
// value is its own key).
func readOptions(v any) *document.Map {
	switch t := v.(type) {
	case *document.Map:
		return t.Clone()
	case []any:
		m := document.New()
		for _, it := range t {
			k := fmt.Sprint(it)
			m.Set(k, it)
		}
		return m
	default:
		return nil
	}
}

func splitKey(key string) []string {
	parts := strings.Split(strings.TrimPrefix(key, "."), ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinPath(prefix []string, key string) string {
	if len(prefix) == 0 {
		return key
	}
	return strings.Join(prefix, ".") + "." + key
}

// isDirectiveKey reports keys the loader treats as directives.
func isDirectiveKey(k string) bool {
	_, ok := loader.ParseDirective(k)
	return ok
}
