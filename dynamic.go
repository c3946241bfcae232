package blueprint

import (
	"context"
	"errors"
	"fmt"

	"github.com/untillpro/goutils/logger"

	"github.com/reoring/blueprint/document"
	"github.com/reoring/blueprint/loader"
)

// Resolver computes the value of one dynamic field property. field is the
// schema node that declared it, in the working copy being resolved. Returning
// ok=false leaves the property untouched.
type Resolver func(ctx context.Context, field *document.Map, d loader.DynamicField) (value any, ok bool, err error)

// Resolvers maps action names (the part before "-" in "config-default@") to
// their Resolver.
type Resolvers map[string]Resolver

// ResolveDynamicFields evaluates the pending dynamic properties on a working
// copy and returns it as a new Blueprint. Actions without a resolver are
// skipped and stay pending. A resolver error aborts and leaves b unchanged.
func (b *Blueprint) ResolveDynamicFields(ctx context.Context, resolvers Resolvers) (*Blueprint, error) {
	raw := b.raw.Clone()
	var pending []loader.DynamicField
	for _, d := range b.dynamic {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, ok := resolvers[d.Action]
		if !ok {
			logger.Verbose(fmt.Sprintf("blueprint %s: no resolver for %s-%s@ at %s", b.name, d.Action, d.Property, d.Field))
			pending = append(pending, d)
			continue
		}
		node, ok := raw.LookupMap(d.RawPath...)
		if !ok {
			continue
		}
		val, ok, err := r(ctx, node, d)
		if err != nil {
			return nil, fmt.Errorf("blueprint %s: resolve %s-%s@ at %s: %w", b.name, d.Action, d.Property, d.Field, err)
		}
		if !ok || val == nil {
			continue
		}
		node.Set(d.Property, document.FromPlain(val))
	}
	nb := b.with(raw, pending)
	nb.resolved = true
	return nb, nil
}

// Config is the lookup ConfigResolver reads from. path is dotted.
type Config interface {
	Get(path string) (any, bool)
}

// ConfigFunc adapts a function to Config.
type ConfigFunc func(path string) (any, bool)

func (f ConfigFunc) Get(path string) (any, bool) { return f(path) }

// ConfigResolver resolves "config-<prop>@: path" from cfg. With a nil cfg the
// Config service stored in the context (see WithService) is used.
//
// The parameter is a dotted path, or a list whose first element is the path
// and whose second element is the fallback value.
func ConfigResolver(cfg Config) Resolver {
	return func(ctx context.Context, _ *document.Map, d loader.DynamicField) (any, bool, error) {
		c := cfg
		if c == nil {
			var err error
			if c, err = RequireService[Config](ctx); err != nil {
				return nil, false, err
			}
		}
		path, fallback, hasFallback := configParams(d.Params)
		if path == "" {
			return nil, false, errors.New("config path missing")
		}
		if v, ok := c.Get(path); ok {
			return v, true, nil
		}
		return fallback, hasFallback, nil
	}
}

func configParams(p any) (path string, fallback any, hasFallback bool) {
	switch t := p.(type) {
	case string:
		return t, nil, false
	case []any:
		if len(t) == 0 {
			return "", nil, false
		}
		path, _ = t[0].(string)
		if len(t) > 1 {
			return path, document.ToPlain(t[1]), true
		}
		return path, nil, false
	}
	return "", nil, false
}

// DataFunc computes a value from the arguments listed in the schema.
type DataFunc func(ctx context.Context, args []any) (any, error)

// DataResolver resolves "data-<prop>@: [name, args...]" by calling the named
// function. A bare string names a function without arguments.
func DataResolver(funcs map[string]DataFunc) Resolver {
	return func(ctx context.Context, _ *document.Map, d loader.DynamicField) (any, bool, error) {
		var name string
		var args []any
		switch t := d.Params.(type) {
		case string:
			name = t
		case []any:
			if len(t) > 0 {
				name, _ = t[0].(string)
				for _, a := range t[1:] {
					args = append(args, document.ToPlain(a))
				}
			}
		}
		fn, ok := funcs[name]
		if !ok {
			return nil, false, fmt.Errorf("data function %q not registered", name)
		}
		v, err := fn(ctx, args)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}
}
