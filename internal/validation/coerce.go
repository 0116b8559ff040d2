package validation

import (
	"fmt"
	"strings"
)

var truthy = map[string]bool{
	"1":    true,
	"t":    true,
	"true": true,
	"y":    true,
	"yes":  true,
	"on":   true,
}

// ToBoolean applies the form-input boolean rule: blank input yields
// ok=false, a recognised truthy token yields true, anything else false.
func ToBoolean(v any) (value, ok bool) {
	switch x := v.(type) {
	case nil:
		return false, false
	case bool:
		return x, true
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		if s == "" {
			return false, false
		}
		return truthy[s], true
	default:
		s := strings.ToLower(strings.TrimSpace(fmt.Sprint(x)))
		if s == "" {
			return false, false
		}
		return truthy[s], true
	}
}

// Blank reports whether v is nil, an empty or whitespace string, or false.
func Blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case bool:
		return !x
	case []string:
		return len(x) == 0
	case []any:
		return len(x) == 0
	default:
		return false
	}
}
