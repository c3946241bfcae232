package schema

import (
	"fmt"

	"github.com/reoring/blueprint/document"
)

// Field is one node of a resolved schema.
//
// A leaf field has no Fields and is validated as a single value. A branch
// field has Fields and only describes structure; its Type is ignored for
// validation. List fields are leaves for data alignment even when they
// declare sub-fields: those describe every element of the list and are
// indexed separately in Element.
type Field struct {
	Name     string // key under the parent's fields map
	Path     string // dotted data path, unique within an Index
	Type     FieldType
	Validate map[string]any
	Options  *document.Map
	Fields   []*Field
	Props    map[string]any
	Element  *Index
}

// IsBranch reports whether the field describes a nested container.
func (f *Field) IsBranch() bool { return f.Fields != nil && f.Type.Kind != KindList }

// Prop returns a non-reserved property (label, default, multiple, ...).
func (f *Field) Prop(name string) (any, bool) {
	v, ok := f.Props[name]
	return v, ok
}

// Label returns the human-facing name of the field, falling back to its key.
func (f *Field) Label() string {
	if s, ok := f.Props["label"].(string); ok && s != "" {
		return s
	}
	return f.Name
}

// Default returns the declared default value.
func (f *Field) Default() (any, bool) { return f.Prop("default") }

// Multiple reports whether the field accepts several values.
func (f *Field) Multiple() bool { return document.Truthy(f.Props["multiple"]) }

// Use returns how enumerable values are matched: "values" (default) or "keys".
func (f *Field) Use() string {
	if s, ok := f.Props["use"].(string); ok && s != "" {
		return s
	}
	return "values"
}

// Param returns one validate constraint parameter.
func (f *Field) Param(name string) (any, bool) {
	v, ok := f.Validate[name]
	return v, ok
}

// Required reports whether validate.required is set to true.
func (f *Field) Required() bool { return document.Truthy(f.Validate["required"]) }

// Message returns the custom validation message, if any.
func (f *Field) Message() string {
	s, _ := f.Validate["message"].(string)
	return s
}

// ValidationType is the type used to dispatch validation and filtering:
// validate.type overrides the field type.
func (f *Field) ValidationType() FieldType {
	if s, ok := f.Validate["type"].(string); ok && s != "" {
		return ParseType(s)
	}
	return f.Type
}

// OptionKeys returns the keys of the declared options in order.
func (f *Field) OptionKeys() []string {
	return f.Options.Keys()
}

func (f *Field) String() string { return fmt.Sprintf("%s(%s)", f.Path, f.Type) }
