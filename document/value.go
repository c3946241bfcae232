package document

import (
	"reflect"
	"strings"
)

// Truthy reports whether a schema or data value switches a flag on.
// Recognised strings are "1", "true", "on" and "yes" (any case); numbers are
// on when non-zero.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "on", "yes":
			return true
		}
		return false
	case interface{ Float64() (float64, error) }:
		f, err := t.Float64()
		return err == nil && f != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	}
	return false
}
