package validators_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/blueprint/document"
	"github.com/reoring/blueprint/schema"
	"github.com/reoring/blueprint/validators"
)

func field(t *testing.T, def map[string]any) *schema.Field {
	t.Helper()
	idx, err := schema.Build(document.FromMap(map[string]any{
		"form": map[string]any{"fields": map[string]any{"f": def}},
	}))
	require.NoError(t, err)
	f, ok := idx.Field("f")
	require.True(t, ok)
	return f
}

func code(fl *validators.Failure) string {
	if fl == nil {
		return ""
	}
	return fl.Code
}

func TestCheck_EmptyOptionalSkipsEverything(t *testing.T) {
	r := validators.Default()
	f := field(t, map[string]any{"type": "number", "validate": map[string]any{"min": 5}})
	assert.Nil(t, r.Check(nil, f))
	assert.Nil(t, r.Check("", f))

	cb := field(t, map[string]any{"type": "checkbox"})
	assert.Nil(t, r.Check(false, cb))
}

func TestCheck_RequiredEmpty(t *testing.T) {
	r := validators.Default()
	f := field(t, map[string]any{"type": "text", "validate": map[string]any{"required": true}})
	fl := r.Check("", f)
	require.NotNil(t, fl)
	assert.Equal(t, validators.CodeRequired, fl.Code)
	assert.Equal(t, "required", fl.Rule)

	list := field(t, map[string]any{"type": "list", "validate": map[string]any{"required": true}})
	assert.Equal(t, validators.CodeRequired, code(r.Check([]any{}, list)))
}

func TestCheck_TextLength(t *testing.T) {
	r := validators.Default()
	f := field(t, map[string]any{"type": "text", "validate": map[string]any{"min": 3, "max": 5}})
	assert.Equal(t, validators.CodeTooShort, code(r.Check("ab", f)))
	assert.Nil(t, r.Check("abcd", f))
	assert.Equal(t, validators.CodeTooLong, code(r.Check("abcdef", f)))
	assert.Nil(t, r.Check("日本語", f), "length counts runes")
	assert.Nil(t, r.Check(1234, f), "numbers are accepted as text")
	assert.Equal(t, validators.CodeInvalidType, code(r.Check(map[string]any{}, f)))
}

func TestCheck_TextSingleLine(t *testing.T) {
	r := validators.Default()
	text := field(t, map[string]any{"type": "text"})
	assert.Equal(t, validators.CodeMultiline, code(r.Check("a\nb", text)))

	area := field(t, map[string]any{"type": "textarea"})
	assert.Nil(t, r.Check("a\r\nb", area))
}

// The length step rejects a length that lands exactly on a step boundary and
// accepts the others. This inverted behavior is kept for compatibility.
func TestCheck_TextLengthStepLegacy(t *testing.T) {
	r := validators.Default()
	f := field(t, map[string]any{"type": "text", "validate": map[string]any{"step": 2}})
	assert.Equal(t, validators.CodeStep, code(r.Check("ab", f)))
	assert.Nil(t, r.Check("abc", f))
}

func TestCheck_Number(t *testing.T) {
	r := validators.Default()
	f := field(t, map[string]any{"type": "number", "validate": map[string]any{"min": 1, "max": 10, "step": 0.5}})
	assert.Nil(t, r.Check(2.5, f))
	assert.Nil(t, r.Check("3", f))
	assert.Equal(t, validators.CodeTooSmall, code(r.Check(0, f)))
	assert.Equal(t, validators.CodeTooBig, code(r.Check(11, f)))
	assert.Equal(t, validators.CodeStep, code(r.Check(2.25, f)))
	assert.Equal(t, validators.CodeInvalidType, code(r.Check("abc", f)))
	assert.Equal(t, validators.CodeInvalidType, code(r.Check(true, f)))

	// step measured from min
	g := field(t, map[string]any{"type": "range", "validate": map[string]any{"min": 1, "step": 3}})
	assert.Nil(t, r.Check(4, g))
	assert.Equal(t, validators.CodeStep, code(r.Check(3, g)))

	// float remainder tolerates binary rounding
	h := field(t, map[string]any{"type": "number", "validate": map[string]any{"step": 0.1}})
	assert.Nil(t, r.Check(0.3, h))
}

func TestCheck_SelectOptions(t *testing.T) {
	r := validators.Default()
	f := field(t, map[string]any{
		"type":    "select",
		"options": map[string]any{"a": "A", "b": "B"},
	})
	assert.Nil(t, r.Check("a", f))
	assert.Equal(t, validators.CodeInvalidEnum, code(r.Check("z", f)))

	ignore := field(t, map[string]any{
		"type":     "select",
		"options":  map[string]any{"a": "A"},
		"validate": map[string]any{"options": "ignore"},
	})
	assert.Nil(t, r.Check("z", ignore))
}

func TestCheck_MultipleCountBounds(t *testing.T) {
	r := validators.Default()
	f := field(t, map[string]any{
		"type":     "select",
		"multiple": true,
		"options":  []any{"a", "b", "c"},
		"validate": map[string]any{"min": 1, "max": 2},
	})
	assert.Nil(t, r.Check([]any{"a", "b"}, f))
	assert.Equal(t, validators.CodeTooBig, code(r.Check([]any{"a", "b", "c"}, f)))
	assert.Equal(t, validators.CodeInvalidEnum, code(r.Check([]any{"a", "x"}, f)))
}

func TestCheck_CheckboxesUseKeys(t *testing.T) {
	r := validators.Default()
	f := field(t, map[string]any{
		"type":    "checkboxes",
		"options": map[string]any{"news": "News", "blog": "Blog"},
	})
	assert.Nil(t, r.Check(map[string]any{"news": true, "blog": false}, f))
	assert.Nil(t, r.Check("news, blog", f))
	assert.Equal(t, validators.CodeInvalidEnum, code(r.Check(map[string]any{"other": true}, f)))
}

func TestCheck_Toggle(t *testing.T) {
	r := validators.Default()
	f := field(t, map[string]any{"type": "toggle", "options": map[string]any{"1": "On", "0": "Off"}})
	assert.Nil(t, r.Check(true, f))
	assert.Nil(t, r.Check("0", f))
	assert.Equal(t, validators.CodeInvalidEnum, code(r.Check("2", f)))
}

func TestCheck_ListAndCommaList(t *testing.T) {
	r := validators.Default()
	list := field(t, map[string]any{"type": "list"})
	assert.Nil(t, r.Check([]any{map[string]any{"a": 1}}, list))
	assert.Equal(t, validators.CodeInvalidType, code(r.Check("x", list)))

	cl := field(t, map[string]any{"type": "commalist"})
	assert.Nil(t, r.Check("a, b", cl))
	assert.Nil(t, r.Check([]any{"a", "b"}, cl))
}

func TestCheck_Formats(t *testing.T) {
	r := validators.Default()
	email := field(t, map[string]any{"type": "email"})
	assert.Nil(t, r.Check("me@example.com", email))
	assert.Nil(t, r.Check("a@example.com, b@example.com", email))
	assert.Equal(t, validators.CodeInvalidFormat, code(r.Check("not-an-email", email)))

	url := field(t, map[string]any{"type": "url"})
	assert.Nil(t, r.Check("https://example.com/x", url))
	assert.Equal(t, validators.CodeInvalidFormat, code(r.Check("example", url)))

	color := field(t, map[string]any{"type": "color"})
	assert.Nil(t, r.Check("#fff", color))
	assert.Equal(t, validators.CodeInvalidFormat, code(r.Check("red", color)))

	date := field(t, map[string]any{"type": "date"})
	assert.Nil(t, r.Check("2024-02-29", date))
	assert.Equal(t, validators.CodeInvalidFormat, code(r.Check("2023-02-29", date)))

	dt := field(t, map[string]any{"type": "datetime", "validate": map[string]any{"format": "d/m/Y H:i"}})
	assert.Nil(t, r.Check("31/12/2024 23:59", dt))
	assert.Equal(t, validators.CodeInvalidFormat, code(r.Check("2024-12-31", dt)))

	week := field(t, map[string]any{"type": "week"})
	assert.Nil(t, r.Check("2024-W09", week))
}

func TestCheck_Constraints(t *testing.T) {
	r := validators.Default()
	f := field(t, map[string]any{"type": "text", "validate": map[string]any{"pattern": "[a-z]+"}})
	assert.Nil(t, r.Check("abc", f))
	fl := r.Check("abc1", f)
	require.NotNil(t, fl)
	assert.Equal(t, validators.CodePattern, fl.Code)
	assert.Equal(t, "pattern", fl.Rule)

	alpha := field(t, map[string]any{"type": "text", "validate": map[string]any{"alpha": true}})
	assert.Nil(t, r.Check("abc", alpha))
	assert.NotNil(t, r.Check("ab1", alpha))

	js := field(t, map[string]any{"type": "textarea", "validate": map[string]any{"json": true}})
	assert.Nil(t, r.Check(`{"a":[1,2]}`, js))
	assert.NotNil(t, r.Check(`{"a":`, js))

	// constraints switched off are no-ops
	off := field(t, map[string]any{"type": "text", "validate": map[string]any{"digit": false}})
	assert.Nil(t, r.Check("abc", off))
}

func TestCheck_FailFastPerField(t *testing.T) {
	r := validators.Default()
	f := field(t, map[string]any{"type": "text", "validate": map[string]any{"min": 5, "pattern": "[0-9]+"}})
	// type check reports first; the pattern is never consulted
	assert.Equal(t, validators.CodeTooShort, code(r.Check("ab", f)))
}

func TestCheck_UnknownTypeFallsBackToText(t *testing.T) {
	r := validators.Default()
	f := field(t, map[string]any{"type": "stars", "validate": map[string]any{"max": 3}})
	_, exact := r.Handler(f.Type)
	assert.False(t, exact)
	assert.Nil(t, r.Check("abc", f))
	assert.Equal(t, validators.CodeTooLong, code(r.Check("abcd", f)))
	assert.Equal(t, "abc", r.Filter("abc", f))
}

func TestRegister_CustomType(t *testing.T) {
	r := validators.Default()
	r.Register("stars", validators.TypeHandler{
		Check: func(v any, _ map[string]any, _ *schema.Field) *validators.Failure {
			if n, ok := v.(int); ok && n >= 1 && n <= 5 {
				return nil
			}
			return &validators.Failure{Code: validators.CodeInvalidEnum}
		},
		Filter: func(v any, _ map[string]any, _ *schema.Field) any { return v },
	})
	f := field(t, map[string]any{"type": "stars"})
	_, exact := r.Handler(f.Type)
	assert.True(t, exact)
	assert.Nil(t, r.Check(4, f))
	assert.NotNil(t, r.Check(9, f))

	r.Register("even", validators.TypeHandler{
		Check: func(v any, _ map[string]any, _ *schema.Field) *validators.Failure {
			if n, ok := v.(int); ok && n%2 == 0 {
				return nil
			}
			return &validators.Failure{}
		},
	})
	f = field(t, map[string]any{"type": "even"})
	assert.Equal(t, validators.CodeCustom, code(r.Check(3, f)))
}

func TestCheck_ValidateTypeOverride(t *testing.T) {
	r := validators.Default()
	f := field(t, map[string]any{"type": "text", "validate": map[string]any{"type": "number"}})
	assert.Equal(t, validators.CodeInvalidType, code(r.Check("abc", f)))
	assert.Nil(t, r.Check("12", f))
}
