package blueprint

import (
	"context"
	"fmt"
	"sync"

	"github.com/untillpro/goutils/logger"

	"github.com/reoring/blueprint/document"
	"github.com/reoring/blueprint/loader"
	"github.com/reoring/blueprint/schema"
)

// Blueprint is a resolved schema together with the operations that run data
// against it.
//
// The schema document is immutable once the Blueprint is built: Extend and
// ResolveDynamicFields return new values. The field index is computed on
// first use and then shared, so a Blueprint may be used from several
// goroutines.
type Blueprint struct {
	name     string
	raw      *document.Map
	dynamic  []loader.DynamicField
	sources  []string
	resolved bool
	opts     Options

	once sync.Once
	idx  *schema.Index
	err  error
}

// New wraps a resolved schema document. The document is cloned.
func New(name string, doc *document.Map, opts ...Options) *Blueprint {
	if doc == nil {
		doc = document.New()
	}
	return &Blueprint{name: name, raw: doc.Clone(), opts: mergeOptions(opts)}
}

// FromMap builds a Blueprint from a plain map. Key order follows sorted keys.
func FromMap(name string, m map[string]any, opts ...Options) *Blueprint {
	return &Blueprint{name: name, raw: document.FromMap(m), opts: mergeOptions(opts)}
}

// Load resolves name through l and wraps the result.
func Load(ctx context.Context, l *loader.Loader, name string, opts ...Options) (*Blueprint, error) {
	return LoadContext(ctx, l, name, "", opts...)
}

// LoadContext is Load under a named variant (for example a theme or a
// locale) that the loader's source consults first.
func LoadContext(ctx context.Context, l *loader.Loader, name, variant string, opts ...Options) (*Blueprint, error) {
	res, err := l.LoadContext(ctx, name, variant)
	if err != nil {
		return nil, err
	}
	b := &Blueprint{
		name:    res.Name,
		raw:     res.Document,
		dynamic: res.Dynamic,
		opts:    mergeOptions(opts),
	}
	for _, loc := range res.Sources {
		b.sources = append(b.sources, loc.String())
	}
	return b, nil
}

func (b *Blueprint) Name() string { return b.name }

// Raw returns a copy of the resolved schema document.
func (b *Blueprint) Raw() *document.Map { return b.raw.Clone() }

// Sources lists the documents the schema was resolved from, most specific
// first.
func (b *Blueprint) Sources() []string { return append([]string(nil), b.sources...) }

// Dynamic returns the pending dynamic field properties.
func (b *Blueprint) Dynamic() []loader.DynamicField {
	return append([]loader.DynamicField(nil), b.dynamic...)
}

// DynamicResolved reports whether ResolveDynamicFields produced this value.
func (b *Blueprint) DynamicResolved() bool { return b.resolved }

// Index returns the field index, building it on first use.
func (b *Blueprint) Index() (*schema.Index, error) {
	b.once.Do(func() {
		b.idx, b.err = schema.Build(b.raw)
		if b.err != nil {
			b.err = fmt.Errorf("blueprint %s: %w", b.name, b.err)
			return
		}
		logger.Verbose(fmt.Sprintf("blueprint %s: indexed %d fields", b.name, len(b.idx.Flat)))
	})
	return b.idx, b.err
}

// Fields returns the top-level fields in document order.
func (b *Blueprint) Fields() ([]*schema.Field, error) {
	idx, err := b.Index()
	if err != nil {
		return nil, err
	}
	return idx.Fields, nil
}

// Field returns the leaf field at a dotted path.
func (b *Blueprint) Field(path string) (*schema.Field, error) {
	idx, err := b.Index()
	if err != nil {
		return nil, err
	}
	f, ok := idx.Field(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, path)
	}
	return f, nil
}

// Strict reports whether the schema rejects data keys it does not describe.
func (b *Blueprint) Strict() (bool, error) {
	idx, err := b.Index()
	if err != nil {
		return false, err
	}
	return idx.Strict, nil
}

// Extend merges other into a new Blueprint. With appendMode other is applied
// on top and wins; otherwise other is the base and b's values win. Neither
// input changes.
func (b *Blueprint) Extend(other *Blueprint, appendMode bool) *Blueprint {
	if other == nil {
		return b.with(b.raw.Clone(), b.dynamic)
	}
	var raw *document.Map
	if appendMode {
		raw = document.Merge(b.raw, other.raw)
	} else {
		raw = document.Merge(other.raw, b.raw)
	}
	dyn := append(append([]loader.DynamicField(nil), b.dynamic...), other.dynamic...)
	nb := b.with(raw, dyn)
	nb.sources = append(append([]string(nil), b.sources...), other.sources...)
	return nb
}

func (b *Blueprint) with(raw *document.Map, dyn []loader.DynamicField) *Blueprint {
	return &Blueprint{
		name:     b.name,
		raw:      raw,
		dynamic:  dyn,
		sources:  append([]string(nil), b.sources...),
		resolved: b.resolved,
		opts:     b.opts,
	}
}
