package validators

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	json "github.com/goccy/go-json"

	"github.com/reoring/blueprint/document"
)

var patternCache sync.Map // string -> *regexp.Regexp, nil for invalid patterns

func compilePattern(p string) *regexp.Regexp {
	if re, ok := patternCache.Load(p); ok {
		return re.(*regexp.Regexp)
	}
	re, err := regexp.Compile("^(?:" + p + ")$")
	if err != nil {
		re = nil
	}
	patternCache.Store(p, re)
	return re
}

func registerBuiltinConstraints(r *Registry) {
	r.RegisterConstraint("required", CodeRequired, func(v, param any) bool {
		if !document.Truthy(param) {
			return true
		}
		return !isEmptyValue(v)
	})
	r.RegisterConstraint("pattern", CodePattern, func(v, param any) bool {
		p, ok := param.(string)
		if !ok || p == "" {
			return true
		}
		re := compilePattern(p)
		if re == nil {
			return false
		}
		s, ok := textValue(v)
		return ok && re.MatchString(s)
	})
	r.RegisterConstraint("alpha", CodeInvalidFormat, ctypeConstraint(unicode.IsLetter))
	r.RegisterConstraint("alnum", CodeInvalidFormat, ctypeConstraint(func(c rune) bool {
		return unicode.IsLetter(c) || unicode.IsDigit(c)
	}))
	r.RegisterConstraint("digit", CodeInvalidFormat, ctypeConstraint(unicode.IsDigit))
	r.RegisterConstraint("hex", CodeInvalidFormat, ctypeConstraint(func(c rune) bool {
		return strings.ContainsRune("0123456789abcdefABCDEF", c)
	}))
	r.RegisterConstraint("int", CodeInvalidFormat, flagConstraint(func(v any) bool {
		if s, ok := v.(string); ok {
			_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			return err == nil
		}
		f, ok := toFloat(v)
		return ok && f == float64(int64(f))
	}))
	r.RegisterConstraint("float", CodeInvalidFormat, flagConstraint(isNumeric))
	r.RegisterConstraint("bool", CodeInvalidFormat, flagConstraint(isBoolLike))
	r.RegisterConstraint("json", CodeInvalidFormat, flagConstraint(func(v any) bool {
		s, ok := v.(string)
		return ok && json.Valid([]byte(s))
	}))
	r.RegisterConstraint("array", CodeInvalidType, flagConstraint(func(v any) bool {
		if _, ok := v.([]any); ok {
			return true
		}
		_, ok := asMap(v)
		return ok
	}))
}

// flagConstraint applies test only when the rule is switched on.
func flagConstraint(test func(any) bool) Constraint {
	return func(v, param any) bool {
		if !document.Truthy(param) {
			return true
		}
		return test(v)
	}
}

// ctypeConstraint requires every rune of a non-empty text value to satisfy is.
func ctypeConstraint(is func(rune) bool) Constraint {
	return flagConstraint(func(v any) bool {
		s, ok := textValue(v)
		if !ok || s == "" {
			return false
		}
		for _, c := range s {
			if !is(c) {
				return false
			}
		}
		return true
	})
}
