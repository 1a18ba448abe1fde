package common

import (
	"fmt"
	"math"
)

// IntArg returns the integer argument name, or def when it is absent.
// JSON numbers arrive as float64 and must be integral.
func IntArg(args map[string]any, name string, def int) (int, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return def, nil
	}

	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, &ArgumentError{Name: name, Reason: fmt.Sprintf("must be an integer, got %v", n)}
		}
		if n > math.MaxInt32 || n < math.MinInt32 {
			return 0, &ArgumentError{Name: name, Reason: "out of range"}
		}
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, &ArgumentError{Name: name, Reason: fmt.Sprintf("must be a number, got %T", v)}
	}
}

// BoolArg returns the boolean argument name, or def when it is absent.
func BoolArg(args map[string]any, name string, def bool) (bool, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return def, nil
	}

	b, ok := v.(bool)
	if !ok {
		return false, &ArgumentError{Name: name, Reason: fmt.Sprintf("must be a boolean, got %T", v)}
	}
	return b, nil
}

// StringArg returns the required, non-empty string argument name.
func StringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", &ArgumentError{Name: name, Reason: "is required"}
	}

	s, ok := v.(string)
	if !ok {
		return "", &ArgumentError{Name: name, Reason: fmt.Sprintf("must be a string, got %T", v)}
	}
	if s == "" {
		return "", &ArgumentError{Name: name, Reason: "must not be empty"}
	}
	return s, nil
}
