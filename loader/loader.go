// Package loader resolves a schema name into one composite document.
//
// Loading follows extends chains across candidate documents, merges them
// least specific first, then walks the result once to embed imports, apply
// ordering and unset/replace actions, derive field names and collect the
// dynamic directives that need request-time context.
package loader

import (
	"context"
	"fmt"

	"github.com/untillpro/goutils/logger"

	"github.com/reoring/blueprint/document"
	"github.com/reoring/blueprint/source"
)

// DefaultMaxDepth bounds extends/import nesting when Options.MaxDepth is 0.
const DefaultMaxDepth = 64

// Options configures a Loader.
type Options struct {
	MaxDepth int
}

// Loader loads schemas from a source.Source. It holds no per-load state and
// may be used concurrently when the Source allows it.
type Loader struct {
	src  source.Source
	opts Options
}

// New returns a Loader reading from src.
func New(src source.Source, opts Options) *Loader {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Loader{src: src, opts: opts}
}

// DynamicField is a deferred "<action>-<property>@" directive. It is removed
// from the document at load time and resolved later with request context.
type DynamicField struct {
	Field    string   // dotted data path of the field, "" outside form fields
	RawPath  []string // path of the owning node inside Result.Document
	Property string
	Action   string
	Params   any
}

// Result is a fully resolved schema document.
type Result struct {
	Name     string
	Document *document.Map
	Dynamic  []DynamicField
	Sources  []source.Location
}

// Load resolves name with no context.
func (l *Loader) Load(ctx context.Context, name string) (*Result, error) {
	return l.LoadContext(ctx, name, "")
}

// LoadContext resolves name within variant (the schema context, e.g. a
// sub-directory of the search path).
func (l *Loader) LoadContext(ctx context.Context, name, variant string) (*Result, error) {
	res := &Result{Name: name}
	st := &loadState{visiting: map[string]bool{}, res: res}
	doc, err := l.loadRaw(ctx, Ref{Type: name, Context: variant}, st)
	if err != nil {
		return nil, err
	}
	w := &walker{l: l, ctx: ctx, root: doc, res: res}
	if err := w.walk(doc, nil, []string{Ref{Type: name, Context: variant}.key()}); err != nil {
		return nil, wrap(name, "", err)
	}
	res.Document = doc
	if logger.IsVerbose() {
		logger.Verbose(fmt.Sprintf("loader: %s resolved from %d document(s), %d dynamic field(s)", name, len(res.Sources), len(res.Dynamic)))
	}
	return res, nil
}

type loadState struct {
	chain    []string
	visiting map[string]bool
	res      *Result
}

// loadRaw loads ref with its extends chain merged in, without the init walk.
func (l *Loader) loadRaw(ctx context.Context, ref Ref, st *loadState) (*document.Map, error) {
	cands, err := l.src.Resolve(ctx, ref.Type, ref.Context)
	if err != nil {
		return nil, wrap(ref.Type, "", err)
	}
	if len(cands) == 0 {
		return nil, &LoadError{Name: ref.Type, Err: ErrNotFound}
	}
	return l.loadCandidate(ctx, ref, cands, 0, st)
}

func (l *Loader) loadCandidate(ctx context.Context, ref Ref, cands []source.Location, i int, st *loadState) (*document.Map, error) {
	loc := cands[i]
	key := fmt.Sprintf("%s#%d", ref.key(), i)
	if st.visiting[key] {
		return nil, &LoadError{Name: ref.Type, Location: loc.String(), Err: &CyclicReferenceError{Chain: append(append([]string(nil), st.chain...), key)}}
	}
	if len(st.chain) >= l.opts.MaxDepth {
		return nil, &LoadError{Name: ref.Type, Location: loc.String(), Err: ErrMaxDepth}
	}
	st.visiting[key] = true
	st.chain = append(st.chain, key)
	defer func() {
		delete(st.visiting, key)
		st.chain = st.chain[:len(st.chain)-1]
	}()

	doc, err := l.src.Decode(ctx, loc)
	if err != nil {
		return nil, wrap(ref.Type, loc.String(), err)
	}
	st.res.Sources = append(st.res.Sources, loc)

	extends, err := takeExtends(doc)
	if err != nil {
		return nil, wrap(ref.Type, loc.String(), err)
	}
	if len(extends) == 0 {
		return doc, nil
	}

	var base *document.Map
	for _, parent := range extends {
		var anc *document.Map
		if parent.Type == Parent {
			if i+1 >= len(cands) {
				return nil, &LoadError{Name: ref.Type, Location: loc.String(), Err: ErrNoParent}
			}
			anc, err = l.loadCandidate(ctx, ref, cands, i+1, st)
		} else {
			anc, err = l.loadRaw(ctx, parent, st)
		}
		if err != nil {
			return nil, err
		}
		base = document.MergeWith(base, anc, mergeActions)
	}
	if logger.IsVerbose() {
		logger.Verbose(fmt.Sprintf("loader: %s extends %d schema(s)", loc, len(extends)))
	}
	return document.MergeWith(base, doc, mergeActions), nil
}

// takeExtends removes and parses the top-level extends directive.
func takeExtends(doc *document.Map) ([]Ref, error) {
	var refs []Ref
	for _, k := range doc.Keys() {
		d, ok := ParseDirective(k)
		if !ok || d.Action != ActionExtends || d.Property != "" {
			continue
		}
		v, _ := doc.Get(k)
		doc.Delete(k)
		r, err := parseRefs(v)
		if err != nil {
			return nil, err
		}
		refs = append(refs, r...)
	}
	return refs, nil
}

// mergeActions applies unset/replace directives of the overlay against the
// inherited document while merging.
func mergeActions(dst *document.Map, key string, value any) bool {
	if d, ok := ParseDirective(key); ok && d.Property != "" {
		switch d.Action {
		case ActionUnset:
			if document.Truthy(value) {
				dst.Delete(d.Property)
			}
			return true
		case ActionReplace:
			dst.Set(d.Property, document.CloneValue(value))
			return true
		}
		return false
	}
	m, ok := value.(*document.Map)
	if !ok || !hasUnset(m) {
		return false
	}
	dst.Delete(key)
	rest := m.Clone()
	deleteUnset(rest)
	if rest.Len() > 0 {
		dst.Set(key, rest)
	}
	return true
}

func hasUnset(m *document.Map) bool {
	for _, k := range m.Keys() {
		if d, ok := ParseDirective(k); ok && d.Action == ActionUnset && d.Property == "" {
			v, _ := m.Get(k)
			return document.Truthy(v)
		}
	}
	return false
}

func deleteUnset(m *document.Map) {
	for _, k := range m.Keys() {
		if d, ok := ParseDirective(k); ok && d.Action == ActionUnset && d.Property == "" {
			m.Delete(k)
		}
	}
}
