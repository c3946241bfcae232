package validators

import (
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/reoring/blueprint/document"
	"github.com/reoring/blueprint/schema"
)

const (
	defaultMaxLen          = 2048
	defaultMaxLenMultiline = 65536
)

var (
	colorRe   = regexp.MustCompile(`^#[0-9a-fA-F]{3}(?:[0-9a-fA-F]{3})?$`)
	weekRe    = regexp.MustCompile(`^\d{4}-W\d{2}$`)
	newlineRe = regexp.MustCompile(`[\n\v\f\x{85}\x{2028}\x{2029}]`)
)

func registerBuiltinTypes(r *Registry) {
	text := TypeHandler{Check: checkText, Filter: filterText}
	for _, k := range []schema.Kind{schema.KindText, schema.KindPassword, schema.KindHidden, schema.KindTel} {
		r.RegisterKind(k, text)
	}
	r.RegisterKind(schema.KindTextarea, TypeHandler{Check: checkTextarea, Filter: filterText})
	r.RegisterKind(schema.KindEmail, TypeHandler{Check: checkEmail, Filter: filterText})
	r.RegisterKind(schema.KindURL, TypeHandler{Check: checkURL, Filter: filterText})
	r.RegisterKind(schema.KindColor, TypeHandler{Check: checkColor, Filter: filterText})
	r.RegisterKind(schema.KindDate, TypeHandler{Check: checkDateLayout("Y-m-d"), Filter: filterText})
	r.RegisterKind(schema.KindTime, TypeHandler{Check: checkDateLayout("H:i"), Filter: filterText})
	r.RegisterKind(schema.KindMonth, TypeHandler{Check: checkDateLayout("Y-m"), Filter: filterText})
	r.RegisterKind(schema.KindWeek, TypeHandler{Check: checkWeek, Filter: filterText})
	r.RegisterKind(schema.KindDateTime, TypeHandler{Check: checkDateTime, Filter: filterText})

	number := TypeHandler{Check: checkNumber, Filter: filterNumber}
	r.RegisterKind(schema.KindNumber, number)
	r.RegisterKind(schema.KindRange, number)

	r.RegisterKind(schema.KindCheckbox, TypeHandler{Check: checkCheckbox, Filter: filterCheckbox})
	r.RegisterKind(schema.KindCheckboxes, TypeHandler{Check: checkCheckboxes, Filter: filterArray})
	r.RegisterKind(schema.KindRadio, TypeHandler{Check: checkChoice, Filter: filterChoice})
	r.RegisterKind(schema.KindSelect, TypeHandler{Check: checkChoice, Filter: filterChoice})
	r.RegisterKind(schema.KindToggle, TypeHandler{Check: checkToggle, Filter: filterToggle})
	r.RegisterKind(schema.KindArray, TypeHandler{Check: checkArrayStrict, Filter: filterArray})

	r.RegisterKind(schema.KindList, TypeHandler{Check: checkList, Filter: filterList})
	r.RegisterKind(schema.KindCommaList, TypeHandler{Check: checkCommaList, Filter: filterCommaList})
	r.RegisterKind(schema.KindBool, TypeHandler{Check: checkBool, Filter: filterBool})
	r.RegisterKind(schema.KindIgnore, TypeHandler{
		Check:  func(any, map[string]any, *schema.Field) *Failure { return nil },
		Filter: func(v any, _ map[string]any, _ *schema.Field) any { return v },
	})
	r.RegisterKind(schema.KindUnset, TypeHandler{
		Check:  func(any, map[string]any, *schema.Field) *Failure { return nil },
		Filter: func(any, map[string]any, *schema.Field) any { return nil },
	})
}

func fail(code string, kv ...any) *Failure {
	f := &Failure{Code: code}
	if len(kv) > 1 {
		f.Params = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			k, _ := kv[i].(string)
			f.Params[k] = kv[i+1]
		}
	}
	return f
}

// ---- text family ----

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}

func checkText(v any, p map[string]any, _ *schema.Field) *Failure {
	s, ok := textValue(v)
	if !ok {
		return fail(CodeInvalidType, "expected", "text")
	}
	if document.Truthy(p["trim"]) {
		s = strings.TrimSpace(s)
	}
	s = normalizeNewlines(s)
	n := utf8.RuneCountInString(s)
	min := intParam(p, "min", 0)
	if min > 0 && n < min {
		return fail(CodeTooShort, "min", min, "got", n)
	}
	multiline := document.Truthy(p["multiline"])
	def := defaultMaxLen
	if multiline {
		def = defaultMaxLenMultiline
	}
	if max := intParam(p, "max", def); max > 0 && n > max {
		return fail(CodeTooLong, "max", max, "got", n)
	}
	// Legacy length step: a length landing exactly on a step boundary is
	// rejected. Kept for compatibility with existing schemas.
	if step := intParam(p, "step", 0); step != 0 && (n-min)%step == 0 {
		return fail(CodeStep, "step", step, "got", n)
	}
	if !multiline && newlineRe.MatchString(s) {
		return fail(CodeMultiline)
	}
	return nil
}

func checkTextarea(v any, p map[string]any, f *schema.Field) *Failure {
	return checkText(v, withParam(p, "multiline", true), f)
}

func withParam(p map[string]any, k string, v any) map[string]any {
	out := make(map[string]any, len(p)+1)
	for kk, vv := range p {
		out[kk] = vv
	}
	out[k] = v
	return out
}

func filterText(v any, p map[string]any, _ *schema.Field) any {
	s, ok := textValue(v)
	if !ok {
		return nil
	}
	if document.Truthy(p["trim"]) {
		s = strings.TrimSpace(s)
	}
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func checkEmail(v any, p map[string]any, f *schema.Field) *Failure {
	var values []any
	switch t := v.(type) {
	case []any:
		values = t
	case string:
		values = splitComma(strings.Join(strings.Fields(t), ""))
	default:
		return fail(CodeInvalidType, "expected", "email")
	}
	for _, it := range values {
		if fl := checkText(it, p, f); fl != nil {
			return fl
		}
		s, _ := textValue(it)
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			return fail(CodeInvalidFormat, "format", "email")
		}
	}
	return nil
}

func checkURL(v any, p map[string]any, f *schema.Field) *Failure {
	if fl := checkText(v, p, f); fl != nil {
		return fl
	}
	s, _ := textValue(v)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fail(CodeInvalidFormat, "format", "url")
	}
	return nil
}

func checkColor(v any, _ map[string]any, _ *schema.Field) *Failure {
	s, ok := v.(string)
	if !ok {
		return fail(CodeInvalidType, "expected", "color")
	}
	if !colorRe.MatchString(s) {
		return fail(CodeInvalidFormat, "format", "color")
	}
	return nil
}

// ---- dates ----

// goLayout translates the date tokens schemas use (Y, m, d, H, i, s, ...)
// into a Go time layout. Other characters are copied.
func goLayout(format string) string {
	var b strings.Builder
	for _, r := range format {
		switch r {
		case 'Y':
			b.WriteString("2006")
		case 'y':
			b.WriteString("06")
		case 'm':
			b.WriteString("01")
		case 'n':
			b.WriteString("1")
		case 'd':
			b.WriteString("02")
		case 'j':
			b.WriteString("2")
		case 'H':
			b.WriteString("15")
		case 'G':
			b.WriteString("15")
		case 'h':
			b.WriteString("03")
		case 'i':
			b.WriteString("04")
		case 's':
			b.WriteString("05")
		case 'A':
			b.WriteString("PM")
		case 'a':
			b.WriteString("pm")
		case 'T':
			b.WriteString("MST")
		case 'P':
			b.WriteString("-07:00")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func checkDateTime(v any, p map[string]any, _ *schema.Field) *Failure {
	switch t := v.(type) {
	case time.Time:
		return nil
	case string:
		if format, ok := p["format"].(string); ok && format != "" {
			if _, err := time.Parse(goLayout(format), t); err != nil {
				return fail(CodeInvalidFormat, "format", format)
			}
			return nil
		}
		for _, l := range dateTimeLayouts {
			if _, err := time.Parse(l, t); err == nil {
				return nil
			}
		}
		return fail(CodeInvalidFormat, "format", "datetime")
	default:
		return fail(CodeInvalidType, "expected", "datetime")
	}
}

func checkDateLayout(def string) Check {
	return func(v any, p map[string]any, f *schema.Field) *Failure {
		if _, ok := p["format"]; !ok {
			p = withParam(p, "format", def)
		}
		return checkDateTime(v, p, f)
	}
}

func checkWeek(v any, p map[string]any, f *schema.Field) *Failure {
	if _, ok := p["format"]; ok {
		return checkDateTime(v, p, f)
	}
	s, ok := v.(string)
	if !ok {
		return fail(CodeInvalidType, "expected", "week")
	}
	if !weekRe.MatchString(s) {
		return fail(CodeInvalidFormat, "format", "week")
	}
	return nil
}

// ---- numbers ----

func checkNumber(v any, p map[string]any, _ *schema.Field) *Failure {
	x, ok := toFloat(v)
	if !ok {
		return fail(CodeInvalidType, "expected", "number")
	}
	min := 0.0
	if m, ok := floatParam(p, "min"); ok {
		min = m
		if x < min {
			return fail(CodeTooSmall, "min", m, "got", x)
		}
	}
	if m, ok := floatParam(p, "max"); ok && x > m {
		return fail(CodeTooBig, "max", m, "got", x)
	}
	if step, ok := floatParam(p, "step"); ok && step != 0 {
		pos := (x - min) / step
		pos = math.Round(pos*1e10) / 1e10
		if pos != math.Trunc(pos) {
			return fail(CodeStep, "step", step, "got", x)
		}
	}
	return nil
}

func filterNumber(v any, _ map[string]any, _ *schema.Field) any {
	x, ok := toFloat(v)
	if !ok {
		return nil
	}
	if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
		return int64(x)
	}
	return x
}

// ---- checkbox / choice family ----

func checkboxValue(f *schema.Field) string {
	if v, ok := f.Props["value"]; ok {
		return scalarString(v)
	}
	return "1"
}

func checkCheckbox(v any, _ map[string]any, f *schema.Field) *Failure {
	if scalarString(v) != checkboxValue(f) {
		return fail(CodeInvalidEnum, "expected", checkboxValue(f))
	}
	return nil
}

func filterCheckbox(v any, _ map[string]any, f *schema.Field) any {
	s := scalarString(v)
	if s == checkboxValue(f) {
		return s
	}
	return nil
}

// arrayItems returns the values of an array-like input. useKeys selects the
// keys of a map input; for sequences the elements themselves act as keys.
// Scalars are wrapped into a single-element sequence when wrap is set.
func arrayItems(v any, useKeys, wrap bool) ([]any, bool) {
	if v == nil {
		return nil, wrap
	}
	if list, ok := v.([]any); ok {
		return list, true
	}
	if m, ok := asMap(v); ok {
		keys := sortedKeys(m)
		out := make([]any, 0, len(keys))
		for _, k := range keys {
			if useKeys {
				out = append(out, k)
			} else {
				out = append(out, m[k])
			}
		}
		return out, true
	}
	if !wrap {
		return nil, false
	}
	return []any{v}, true
}

func flatten(items []any) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		if nested, ok := it.([]any); ok {
			out = append(out, flatten(nested)...)
			continue
		}
		out = append(out, it)
	}
	return out
}

func checkArrayItems(items []any, p map[string]any, f *schema.Field) *Failure {
	if f.Multiple() {
		n := len(items)
		min := intParam(p, "min", 0)
		if _, ok := p["min"]; ok && n < min {
			return fail(CodeTooSmall, "min", min, "count", n)
		}
		if max, ok := p["max"]; ok && n > intParam(p, "max", 0) {
			return fail(CodeTooBig, "max", max, "count", n)
		}
		// Legacy count step, same semantics as the text length step.
		if step := intParam(p, "step", 0); step != 0 && (n-min)%step == 0 {
			return fail(CodeStep, "step", step, "count", n)
		}
	}
	if p["options"] == "ignore" || allowsCreate(f) {
		return nil
	}
	options := f.OptionKeys()
	if len(options) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(options))
	for _, o := range options {
		allowed[o] = struct{}{}
	}
	for _, it := range flatten(items) {
		s := scalarString(it)
		if _, ok := allowed[s]; !ok {
			return fail(CodeInvalidEnum, "value", s)
		}
	}
	return nil
}

func allowsCreate(f *schema.Field) bool {
	sel, ok := f.Props["selectize"].(map[string]any)
	return ok && document.Truthy(sel["create"])
}

func checkChoice(v any, p map[string]any, f *schema.Field) *Failure {
	items, _ := arrayItems(v, f.Use() == "keys", true)
	return checkArrayItems(items, p, f)
}

func checkCheckboxes(v any, p map[string]any, f *schema.Field) *Failure {
	if s, ok := v.(string); ok {
		v = splitComma(s)
	}
	items, _ := arrayItems(v, true, true)
	return checkArrayItems(items, p, f)
}

func checkToggle(v any, p map[string]any, f *schema.Field) *Failure {
	if b, ok := v.(bool); ok {
		if b {
			v = 1
		} else {
			v = 0
		}
	}
	return checkChoice(v, p, f)
}

func checkArrayStrict(v any, p map[string]any, f *schema.Field) *Failure {
	items, ok := arrayItems(v, f.Use() == "keys", false)
	if !ok {
		return fail(CodeInvalidType, "expected", "array")
	}
	return checkArrayItems(items, p, f)
}

// filterArray normalizes array-like input. With options and use: keys, map
// values become checked states and a list of selected keys becomes a map of
// those keys set to true. With multiple, every element is re-split on commas:
// multi-value controls submit comma-joined sub-lists.
func filterArray(v any, p map[string]any, f *schema.Field) any {
	multi := f.Multiple()
	useKeys := f.Use() == "keys" && f.Options.Len() > 0
	ignoreEmpty := document.Truthy(f.Props["ignore_empty"])

	elem := func(val any) (any, bool) {
		if multi {
			val = splitElement(val)
		}
		if ignoreEmpty && isEmptyValue(val) {
			return nil, false
		}
		return val, true
	}

	if m, ok := asMap(v); ok {
		out := make(map[string]any, len(m))
		for _, k := range sortedKeys(m) {
			if useKeys {
				out[k] = checked(m[k])
			} else if ev, keep := elem(m[k]); keep {
				out[k] = ev
			}
		}
		return out
	}
	if s, ok := v.(string); ok && useKeys {
		v = splitComma(s)
	}
	items, _ := arrayItems(v, false, true)
	if len(items) == 1 && items[0] == "" {
		return nil
	}
	if useKeys {
		out := make(map[string]any, len(items))
		for _, it := range flatten(items) {
			if s := scalarString(it); s != "" {
				out[s] = true
			}
		}
		return out
	}
	out := make([]any, 0, len(items))
	for _, it := range items {
		if ev, keep := elem(it); keep {
			out = append(out, ev)
		}
	}
	return out
}

// checked reports the state of a submitted checkbox: anything but an empty
// value, zero, "0" or "false" counts as checked.
func checked(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		s := strings.TrimSpace(t)
		return s != "" && s != "0" && !strings.EqualFold(s, "false")
	case []any:
		return len(t) > 0
	}
	if m, ok := asMap(v); ok {
		return len(m) > 0
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}

func splitElement(val any) any {
	if list, ok := val.([]any); ok {
		parts := make([]string, 0, len(list))
		for _, it := range list {
			parts = append(parts, scalarString(it))
		}
		return splitComma(strings.Join(parts, ","))
	}
	s := strings.TrimSpace(scalarString(val))
	parts := splitComma(s)
	if len(parts) <= 1 {
		return s
	}
	return parts
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func filterChoice(v any, p map[string]any, f *schema.Field) any {
	if f.Multiple() {
		return filterArray(v, p, f)
	}
	return filterText(v, p, f)
}

func filterToggle(v any, p map[string]any, f *schema.Field) any {
	if b, ok := v.(bool); ok {
		return b
	}
	return filterChoice(v, p, f)
}

// ---- list / commalist / bool ----

func checkList(v any, p map[string]any, _ *schema.Field) *Failure {
	list, ok := v.([]any)
	if !ok {
		return fail(CodeInvalidType, "expected", "list")
	}
	if _, ok := p["min"]; ok && len(list) < intParam(p, "min", 0) {
		return fail(CodeTooSmall, "min", p["min"], "count", len(list))
	}
	if _, ok := p["max"]; ok && len(list) > intParam(p, "max", 0) {
		return fail(CodeTooBig, "max", p["max"], "count", len(list))
	}
	return nil
}

func filterList(v any, _ map[string]any, _ *schema.Field) any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	return list
}

func checkCommaList(v any, p map[string]any, f *schema.Field) *Failure {
	if _, ok := v.([]any); ok {
		return nil
	}
	return checkText(v, p, f)
}

func filterCommaList(v any, _ map[string]any, _ *schema.Field) any {
	switch t := v.(type) {
	case []any:
		return t
	case string:
		return splitComma(t)
	default:
		return nil
	}
}

func checkBool(v any, _ map[string]any, _ *schema.Field) *Failure {
	if !isBoolLike(v) {
		return fail(CodeInvalidType, "expected", "bool")
	}
	return nil
}

func isBoolLike(v any) bool {
	switch t := v.(type) {
	case bool:
		return true
	case string:
		switch strings.ToLower(t) {
		case "1", "0", "true", "false", "":
			return true
		}
		return false
	}
	if f, ok := toFloat(v); ok {
		return f == 0 || f == 1
	}
	return false
}

func filterBool(v any, _ map[string]any, _ *schema.Field) any {
	return document.Truthy(v)
}
