package source

import (
	"fmt"
	"strconv"
)

// lookup walks nested YAML mappings along path. A missing key, a null
// value or a non-mapping parent ends the walk with nil instead of failing.
func lookup(v any, path ...string) any {
	cur := v
	for _, key := range path {
		switch m := cur.(type) {
		case map[string]any:
			cur = m[key]
		case map[any]any:
			cur = m[key]
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

// scalarString renders a YAML scalar as a string. Mappings, sequences and
// null are absent ("").
func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case uint64:
		return strconv.FormatUint(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case map[string]any, map[any]any, []any:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// accessor yields a field candidate, "" when absent.
type accessor func() string

// at is an accessor for the scalar found at path inside rec.
func at(rec any, path ...string) accessor {
	return func() string {
		return scalarString(lookup(rec, path...))
	}
}

// value is an accessor for an already resolved value.
func value(s string) accessor {
	return func() string { return s }
}

// first returns the first non-empty candidate, evaluating lazily.
func first(candidates ...accessor) string {
	for _, c := range candidates {
		if s := c(); s != "" {
			return s
		}
	}
	return ""
}
