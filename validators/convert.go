package validators

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/reoring/blueprint/document"
)

// toFloat converts numbers and numeric strings. Booleans are not numeric.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func isNumeric(v any) bool {
	_, ok := toFloat(v)
	return ok
}

// textValue accepts strings and numbers, the values a text input can carry.
func textValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool, nil:
		return "", false
	}
	if f, ok := toFloat(v); ok {
		return formatNumber(f), true
	}
	return "", false
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// scalarString renders a scalar the way option keys are compared:
// booleans become "1" and "".
func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return ""
	}
	if s, ok := textValue(v); ok {
		return s
	}
	return fmt.Sprint(v)
}

func intParam(p map[string]any, name string, def int) int {
	v, ok := p[name]
	if !ok {
		return def
	}
	f, ok := toFloat(v)
	if !ok {
		return def
	}
	return int(f)
}

func floatParam(p map[string]any, name string) (float64, bool) {
	v, ok := p[name]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// asMap accepts the map shapes data documents may carry.
func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case *document.Map:
		return t.ToMap(), true
	default:
		return nil, false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

// splitComma splits on commas, trimming whitespace and dropping empty parts.
func splitComma(s string) []any {
	parts := strings.Split(s, ",")
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
