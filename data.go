package blueprint

import (
	"context"
	"strings"

	"github.com/reoring/blueprint/document"
	"github.com/reoring/blueprint/schema"
	"github.com/reoring/blueprint/validators"
)

// Filter coerces data into the canonical shape the schema describes and
// prunes empty values: the result never holds a key whose value is null, an
// empty string, or an empty sequence or map. Keys without a rule are kept
// (pruned) unless the schema is strict. Filter is idempotent and does not
// modify data.
func (b *Blueprint) Filter(ctx context.Context, data map[string]any) (map[string]any, error) {
	idx, err := b.Index()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := filtering{reg: b.opts.registry(), strict: idx.Strict}
	return f.level(data, idx.Nested, idx), nil
}

type filtering struct {
	reg    *validators.Registry
	strict bool
}

func (f filtering) level(data map[string]any, n *schema.Nested, idx *schema.Index) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		e, ok := n.Lookup(k)
		if !ok {
			if !f.strict {
				setPruned(out, k, v)
			}
			continue
		}
		if e.IsLeaf() {
			fld := idx.Flat[e.Path]
			if fld == nil {
				setPruned(out, k, v)
				continue
			}
			setPruned(out, k, f.leaf(v, fld))
			continue
		}
		m, ok := asMap(v)
		if !ok {
			if !f.strict {
				setPruned(out, k, v)
			}
			continue
		}
		if sub := f.level(m, e.Sub, idx); len(sub) > 0 {
			out[k] = sub
		}
	}
	return out
}

func (f filtering) leaf(v any, fld *schema.Field) any {
	fv := f.reg.Filter(v, fld)
	if fld.Element == nil {
		return fv
	}
	list, ok := fv.([]any)
	if !ok {
		return fv
	}
	out := make([]any, 0, len(list))
	for _, el := range list {
		m, ok := asMap(el)
		if !ok {
			continue
		}
		if sub := f.level(m, fld.Element.Nested, fld.Element); len(sub) > 0 {
			out = append(out, sub)
		}
	}
	return out
}

func setPruned(out map[string]any, k string, v any) {
	if pv := prune(v); !isEmpty(pv) {
		out[k] = pv
	}
}

// prune drops empty values from maps at any depth. Sequence elements are
// kept in place; maps inside sequences are pruned.
func prune(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			setPruned(out, k, x)
		}
		return out
	case *document.Map:
		return prune(t.ToMap())
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = prune(x)
		}
		return out
	}
	return v
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// MergeData deep-merges secondary into a copy of primary. Where the schema
// declares a container both sides' maps are merged key-wise; everywhere else,
// including leaves whose values are maps, the secondary value replaces the
// primary one. Neither input is modified.
func (b *Blueprint) MergeData(primary, secondary map[string]any) (map[string]any, error) {
	idx, err := b.Index()
	if err != nil {
		return nil, err
	}
	return mergeLevel(primary, secondary, idx.Nested), nil
}

func mergeLevel(p, s map[string]any, n *schema.Nested) map[string]any {
	out := make(map[string]any, len(p)+len(s))
	for k, v := range p {
		out[k] = cloneData(v)
	}
	for k, sv := range s {
		if e, ok := n.Lookup(k); ok && !e.IsLeaf() {
			pm, pok := asMap(out[k])
			sm, sok := asMap(sv)
			if pok && sok {
				out[k] = mergeLevel(pm, sm, e.Sub)
				continue
			}
		}
		out[k] = cloneData(sv)
	}
	return out
}

func cloneData(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = cloneData(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = cloneData(x)
		}
		return out
	case *document.Map:
		return t.ToMap()
	}
	return v
}

// Extra returns the data entries the schema does not describe, keyed by
// dotted data path. Entries under list fields with element rules are checked
// per element.
func (b *Blueprint) Extra(data map[string]any) (map[string]any, error) {
	idx, err := b.Index()
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	extraLevel(out, data, idx.Nested, idx, Root())
	return out, nil
}

func extraLevel(out, data map[string]any, n *schema.Nested, idx *schema.Index, at PathRef) {
	for k, v := range data {
		p := at.Field(k)
		e, ok := n.Lookup(k)
		switch {
		case !ok:
			out[p.String()] = v
		case e.IsLeaf():
			f := idx.Flat[e.Path]
			list, isList := v.([]any)
			if f == nil || f.Element == nil || !isList {
				continue
			}
			for i, el := range list {
				if m, ok := asMap(el); ok {
					extraLevel(out, m, f.Element.Nested, f.Element, p.Index(i))
				}
			}
		default:
			if m, ok := asMap(v); ok {
				extraLevel(out, m, e.Sub, idx, p)
			} else {
				out[p.String()] = v
			}
		}
	}
}

// Defaults returns the declared default values shaped as data. Wildcard
// fields contribute nothing.
func (b *Blueprint) Defaults() (map[string]any, error) {
	idx, err := b.Index()
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	for _, path := range idx.Paths() {
		f := idx.Flat[path]
		dv, ok := f.Default()
		if !ok || dv == nil {
			continue
		}
		segs := strings.Split(path, ".")
		if containsWildcard(segs) {
			continue
		}
		setPath(out, segs, document.ToPlain(dv))
	}
	return out, nil
}

func containsWildcard(segs []string) bool {
	for _, s := range segs {
		if s == schema.Wildcard {
			return true
		}
	}
	return false
}

func setPath(m map[string]any, segs []string, v any) {
	for _, s := range segs[:len(segs)-1] {
		next, ok := m[s].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[s] = next
		}
		m = next
	}
	m[segs[len(segs)-1]] = v
}
