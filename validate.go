package blueprint

import (
	"context"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/reoring/blueprint/document"
	"github.com/reoring/blueprint/i18n"
	"github.com/reoring/blueprint/schema"
	"github.com/reoring/blueprint/validators"
)

// Validate checks data against the schema and returns Issues describing every
// violation, or nil.
//
// Missing required fields are collected for a whole level before any nested
// level is visited. Keys are then visited in sorted order so the result is
// deterministic. In strict mode the first data key without a rule aborts the
// walk with an *UnknownFieldError instead of Issues. Errors from indexing and
// context cancellation are returned as is.
func (b *Blueprint) Validate(ctx context.Context, data map[string]any) error {
	idx, err := b.Index()
	if err != nil {
		return err
	}
	v := &validation{
		reg:      b.opts.registry(),
		tr:       b.opts.translator(),
		strict:   idx.Strict,
		failFast: b.opts.FailFast || IsFailFast(ctx),
	}
	if lang, ok := languageFrom(ctx); ok {
		v.tr = i18n.New(lang)
	}
	if err := v.level(ctx, data, idx.Nested, idx, Root()); err != nil {
		return err
	}
	if len(v.issues) == 0 {
		return nil
	}
	return v.issues
}

type validation struct {
	reg      *validators.Registry
	tr       i18n.Translator
	strict   bool
	failFast bool
	issues   Issues
}

func (v *validation) stop() bool { return v.failFast && len(v.issues) > 0 }

func (v *validation) level(ctx context.Context, data map[string]any, n *schema.Nested, idx *schema.Index, at PathRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.required(data, n, idx, at)
	if v.stop() {
		return nil
	}
	keys := maps.Keys(data)
	slices.Sort(keys)
	for _, k := range keys {
		val := data[k]
		p := at.Field(k)
		e, ok := n.Lookup(k)
		if !ok {
			if v.strict {
				return &UnknownFieldError{Path: p.String()}
			}
			continue
		}
		if val == nil {
			continue
		}
		if e.IsLeaf() {
			if f := idx.Flat[e.Path]; f != nil {
				if err := v.leaf(ctx, val, f, p); err != nil {
					return err
				}
			}
		} else if m, ok := asMap(val); ok {
			if err := v.level(ctx, m, e.Sub, idx, p); err != nil {
				return err
			}
		} else {
			v.issues = append(v.issues, v.structural(p, k, "object"))
		}
		if v.stop() {
			return nil
		}
	}
	// Containers absent from data still report their required fields.
	for _, k := range n.Keys() {
		if k == schema.Wildcard || data[k] != nil {
			continue
		}
		e, _ := n.Lookup(k)
		if e.IsLeaf() {
			continue
		}
		if err := v.level(ctx, map[string]any{}, e.Sub, idx, at.Field(k)); err != nil {
			return err
		}
		if v.stop() {
			return nil
		}
	}
	return nil
}

// required reports every required leaf of the level that is absent or null.
// Empty strings are left to the field check, which reports them the same way.
func (v *validation) required(data map[string]any, n *schema.Nested, idx *schema.Index, at PathRef) {
	for _, k := range n.Keys() {
		if k == schema.Wildcard {
			continue
		}
		e, _ := n.Lookup(k)
		if !e.IsLeaf() {
			continue
		}
		f := idx.Flat[e.Path]
		if f == nil || !f.Required() || data[k] != nil {
			continue
		}
		v.add(at.Field(k), f, &validators.Failure{
			Code:   CodeRequired,
			Rule:   "required",
			Params: map[string]any{"required": true},
		})
		if v.stop() {
			return
		}
	}
}

func (v *validation) leaf(ctx context.Context, val any, f *schema.Field, at PathRef) error {
	if fl := v.reg.Check(val, f); fl != nil {
		v.add(at, f, fl)
		return nil
	}
	if f.Element == nil {
		return nil
	}
	list, ok := val.([]any)
	if !ok {
		return nil
	}
	for i, el := range list {
		p := at.Index(i)
		if el == nil {
			continue
		}
		m, ok := asMap(el)
		if !ok {
			v.issues = append(v.issues, v.structural(p, f.Label(), "object"))
		} else if err := v.level(ctx, m, f.Element.Nested, f.Element, p); err != nil {
			return err
		}
		if v.stop() {
			return nil
		}
	}
	return nil
}

func (v *validation) add(at PathRef, f *schema.Field, fl *validators.Failure) {
	v.issues = append(v.issues, Issue{
		Path:    at.String(),
		Field:   f.Path,
		Code:    fl.Code,
		Message: v.message(f, fl),
		Params:  fl.Params,
		Rule:    fl.Rule,
	})
}

func (v *validation) message(f *schema.Field, fl *validators.Failure) string {
	if m := f.Message(); m != "" {
		return m
	}
	data := map[string]string{"label": f.Label()}
	for k, p := range fl.Params {
		data[k] = fmt.Sprint(p)
	}
	return v.tr.Message(fl.Code, data)
}

func (v *validation) structural(at PathRef, label, expected string) Issue {
	iss := at.Issue(CodeInvalidType, "", "expected", expected)
	iss.Message = v.tr.Message(CodeInvalidType, map[string]string{"label": label, "expected": expected})
	return iss
}

// asMap accepts the two map shapes data arrives in.
func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case *document.Map:
		return t.ToMap(), true
	}
	return nil, false
}
