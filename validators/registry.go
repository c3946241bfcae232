// Package validators holds the type/constraint dispatch table used to check
// and filter leaf values against their schema field.
//
// A Registry is built once (Default returns one populated with the builtin
// types) and handed to every Blueprint that needs it. Registration is not
// synchronized: finish registering before sharing a Registry between
// goroutines.
package validators

import (
	"fmt"
	"strings"
	"sync"

	"github.com/untillpro/goutils/logger"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/reoring/blueprint/schema"
)

// Failure describes why a value was rejected. It is a value, not an error:
// checks never panic and never abort the surrounding validation.
type Failure struct {
	Code   string
	Rule   string
	Params map[string]any
}

// Check reports a Failure, or nil when value is acceptable for the field.
type Check func(value any, params map[string]any, f *schema.Field) *Failure

// FilterFunc coerces value into the canonical shape for the field. Returning
// nil drops the value.
type FilterFunc func(value any, params map[string]any, f *schema.Field) any

// TypeHandler pairs the type check and the filter of one field type.
type TypeHandler struct {
	Check  Check
	Filter FilterFunc
}

// Constraint is a universal rule evaluated after the type check. param is the
// value configured under the rule's name in the field's validate map.
type Constraint func(value any, param any) bool

// Registry maps field types to handlers and rule names to constraints.
type Registry struct {
	kinds       map[schema.Kind]TypeHandler
	named       map[string]TypeHandler
	constraints map[string]Constraint
	codes       map[string]string

	fallbackSeen sync.Map
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		kinds:       map[schema.Kind]TypeHandler{},
		named:       map[string]TypeHandler{},
		constraints: map[string]Constraint{},
		codes:       map[string]string{},
	}
}

// Default returns a new Registry with every builtin type and constraint.
func Default() *Registry {
	r := New()
	registerBuiltinTypes(r)
	registerBuiltinConstraints(r)
	return r
}

// RegisterKind installs the handler for a builtin kind.
func (r *Registry) RegisterKind(k schema.Kind, h TypeHandler) *Registry {
	r.kinds[k] = h
	return r
}

// Register installs a handler for a type name. Named handlers take precedence
// over builtin kinds, so a builtin type can be overridden by name.
func (r *Registry) Register(name string, h TypeHandler) *Registry {
	r.named[strings.ToLower(name)] = h
	return r
}

// RegisterConstraint installs a universal constraint. code is the Failure code
// reported when it does not hold.
func (r *Registry) RegisterConstraint(name, code string, c Constraint) *Registry {
	r.constraints[name] = c
	r.codes[name] = code
	return r
}

// Handler returns the handler for t. The boolean is false when no handler
// matched and the generic text handler was substituted.
func (r *Registry) Handler(t schema.FieldType) (TypeHandler, bool) {
	if h, ok := r.named[strings.ToLower(t.Name)]; ok {
		return h, true
	}
	if t.Kind != schema.KindCustom {
		if h, ok := r.kinds[t.Kind]; ok {
			return h, true
		}
	}
	return r.kinds[schema.KindText], false
}

func (r *Registry) handlerFor(t schema.FieldType, f *schema.Field) TypeHandler {
	h, exact := r.Handler(t)
	if !exact {
		if _, seen := r.fallbackSeen.LoadOrStore(t.Name, struct{}{}); !seen {
			logger.Verbose(fmt.Sprintf("validators: unknown field type %q at %s, using text handler", t.Name, f.Path))
		}
	}
	return h
}

// Check validates value against f: the type check first, then every declared
// constraint. The first failure wins.
//
// A value that is empty (nil, "", or false for checkbox-like fields) is
// accepted without further checks unless the field is required, in which
// case it fails with CodeRequired.
func (r *Registry) Check(value any, f *schema.Field) *Failure {
	if isEmptyInput(value, f) {
		if !f.Required() {
			return nil
		}
		return &Failure{Code: CodeRequired, Rule: "required", Params: map[string]any{"required": true}}
	}
	params := f.Validate
	h := r.handlerFor(f.ValidationType(), f)
	if h.Check != nil {
		if fl := h.Check(value, params, f); fl != nil {
			if fl.Code == "" {
				fl.Code = CodeCustom
			}
			return fl
		}
	}
	for _, name := range constraintOrder(params) {
		c, ok := r.constraints[name]
		if !ok {
			continue
		}
		if !c(value, params[name]) {
			return &Failure{Code: r.codes[name], Rule: name, Params: map[string]any{name: params[name], "format": name}}
		}
	}
	return nil
}

// Filter runs the field's filter. Filter parameters come from the field's
// filter map when present, else from validate; filter.type overrides the
// dispatch type.
func (r *Registry) Filter(value any, f *schema.Field) any {
	if value == nil {
		return nil
	}
	if s, ok := value.(string); ok && s == "" && !f.Required() {
		return nil
	}
	params := f.Validate
	t := f.ValidationType()
	if fm, ok := f.Props["filter"].(map[string]any); ok {
		params = fm
		if s, ok := fm["type"].(string); ok && s != "" {
			t = schema.ParseType(s)
		}
	}
	h := r.handlerFor(t, f)
	if h.Filter == nil {
		return value
	}
	return h.Filter(value, params, f)
}

// constraintOrder puts required first, then the remaining names sorted.
func constraintOrder(params map[string]any) []string {
	names := maps.Keys(params)
	slices.Sort(names)
	if i := slices.Index(names, "required"); i > 0 {
		names = slices.Delete(names, i, i+1)
		names = slices.Insert(names, 0, "required")
	}
	return names
}

func isEmptyInput(v any, f *schema.Field) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		k := f.ValidationType().Kind
		return !t && (k == schema.KindCheckbox || k == schema.KindToggle)
	}
	return false
}
