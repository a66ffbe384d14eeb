package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/teemow/calsync/internal/domain"
)

// String returns the trimmed string argument name, or "" when absent.
func String(args map[string]any, name string) string {
	v, ok := args[name].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// RequiredString returns argument name or an error naming it.
func RequiredString(args map[string]any, name string) (string, error) {
	v := String(args, name)
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// Int returns an integer argument. MCP clients send JSON numbers as
// float64 and sometimes as strings; both are accepted.
func Int(args map[string]any, name string, def int) (int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return def, nil
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

// Float returns a numeric argument and whether it was present.
func Float(args map[string]any, name string) (float64, bool, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return 0, false, nil
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, true, fmt.Errorf("%s must be a number", name)
	}
	return v, true, nil
}

// Bool returns a boolean argument and whether it was present.
func Bool(args map[string]any, name string) (bool, bool, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return false, false, nil
	}
	v, err := cast.ToBoolE(raw)
	if err != nil {
		return false, true, fmt.Errorf("%s must be a boolean", name)
	}
	return v, true, nil
}

// Time parses an optional RFC 3339 argument.
func Time(args map[string]any, name string) (time.Time, error) {
	v := String(args, name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format (expected RFC3339, e.g. '2026-01-15T14:00:00Z'): %v", name, err)
	}
	return t, nil
}

// Page reads the page and size arguments.
func Page(args map[string]any) (domain.Page, error) {
	number, err := Int(args, "page", 0)
	if err != nil {
		return domain.Page{}, err
	}
	size, err := Int(args, "size", domain.DefaultPageSize)
	if err != nil {
		return domain.Page{}, err
	}
	if number < 0 || size < 0 {
		return domain.Page{}, fmt.Errorf("page and size must not be negative")
	}
	return domain.Page{Number: number, Size: size}.Normalize(), nil
}
