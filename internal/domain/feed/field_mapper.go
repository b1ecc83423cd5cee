package feed

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Field Mapping
// ---------------------------------------------------------------------------

// RawRecord is one decoded product record as returned by a vendor API,
// before any mapping is applied.
type RawRecord map[string]any

// FieldMapping maps canonical field names to dot-separated paths inside
// a raw record, e.g. {"price": "pricing.retail"}.
type FieldMapping map[string]string

// Resolve walks a dot-separated path through nested maps and returns the
// value found there. A missing key or an intermediate value that is not a
// map yields (nil, false); it is never an error.
func Resolve(record RawRecord, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var current any = map[string]any(record)
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// ResolveString resolves a path and coerces the value to a string.
// Numeric values are formatted, so a vendor sending {"id": 42} still
// yields "42".
func ResolveString(record RawRecord, path string) (string, bool) {
	v, ok := Resolve(record, path)
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// ResolveDecimal resolves a path and coerces the value to a decimal.
// Both JSON numbers and numeric strings are accepted.
func ResolveDecimal(record RawRecord, path string) (decimal.Decimal, bool) {
	v, ok := Resolve(record, path)
	if !ok || v == nil {
		return decimal.Zero, false
	}
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case decimal.Decimal:
		return t, true
	default:
		return decimal.Zero, false
	}
}

// ResolveInt resolves a path and coerces the value to an int.
func ResolveInt(record RawRecord, path string) (int, bool) {
	v, ok := Resolve(record, path)
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// ResolveStrings resolves a path and coerces the value to a string slice.
// A scalar string yields a single-element slice; array elements that are
// not strings are skipped.
func ResolveStrings(record RawRecord, path string) ([]string, bool) {
	v, ok := Resolve(record, path)
	if !ok || v == nil {
		return nil, false
	}
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out, len(out) > 0
	case []string:
		return t, len(t) > 0
	case string:
		if t == "" {
			return nil, false
		}
		return []string{t}, true
	default:
		return nil, false
	}
}
