package blueprint

import (
	"context"
	"sync"

	"github.com/reoring/blueprint/i18n"
	"github.com/reoring/blueprint/validators"
)

// Options configures a Blueprint. The zero value uses the shared default
// registry and the process-wide translator.
type Options struct {
	// Registry dispatches field types and constraints. nil means the builtin
	// registry.
	Registry *validators.Registry
	// Translator renders issue messages. nil means i18n.Current at the time
	// of validation.
	Translator i18n.Translator
	// FailFast stops Validate at the first issue.
	FailFast bool
}

func mergeOptions(opts []Options) Options {
	var o Options
	for _, x := range opts {
		if x.Registry != nil {
			o.Registry = x.Registry
		}
		if x.Translator != nil {
			o.Translator = x.Translator
		}
		if x.FailFast {
			o.FailFast = true
		}
	}
	return o
}

var (
	defaultOnce sync.Once
	defaultReg  *validators.Registry
)

func defaultRegistry() *validators.Registry {
	defaultOnce.Do(func() { defaultReg = validators.Default() })
	return defaultReg
}

func (o Options) registry() *validators.Registry {
	if o.Registry != nil {
		return o.Registry
	}
	return defaultRegistry()
}

func (o Options) translator() i18n.Translator {
	if o.Translator != nil {
		return o.Translator
	}
	return i18n.Current()
}

// ---- context options ----

type contextKey int

const (
	_ctxKeyFailFast contextKey = iota
	_ctxKeyLanguage
)

// WithFailFast returns a child context that stops Validate at the first issue
// regardless of the Blueprint's Options.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether validation under ctx should stop on the first issue.
func IsFailFast(ctx context.Context) bool {
	v := ctx.Value(_ctxKeyFailFast)
	b, _ := v.(bool)
	return b
}

// WithLanguage returns a child context whose Validate messages are rendered
// in lang with the catalog translator.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, _ctxKeyLanguage, lang)
}

func languageFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(_ctxKeyLanguage).(string)
	return s, ok && s != ""
}
