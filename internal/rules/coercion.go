// internal/rules/coercion.go
package rules

import (
	"math"
	"strconv"
	"strings"
	"time"
)

/*
 * Value coercion for rule evaluation.
 *
 * Normalizes answer values and rule literals into comparable typed forms
 * (number, date, string) before any operator is applied. Rule data is
 * externally authored JSON, so every coercion is total: failure returns
 * ok=false and the calling operator yields false, never a panic. One
 * malformed field can never take down evaluation of the whole rule set.
 *
 * Date literals additionally support a relative shape
 *   {type: "relative", days?, months?, years?, from?: "now" | <field>}
 * resolved by offsetting either the evaluation clock or another answer
 * field's date value.
 */

// Env carries the per-pass evaluation context: the answer lookup, the
// evaluation clock, and a diagnostics sink. All fields are optional;
// the zero Env looks up nothing and warns nowhere.
type Env struct {
	Now    time.Time
	Lookup func(field string) (any, bool)
	Warnf  func(format string, args ...any)
}

func (e Env) now() time.Time {
	if e.Now.IsZero() {
		return time.Now()
	}
	return e.Now
}

func (e Env) lookup(field string) (any, bool) {
	if e.Lookup == nil {
		return nil, false
	}
	return e.Lookup(field)
}

func (e Env) warnf(format string, args ...any) {
	if e.Warnf != nil {
		e.Warnf(format, args...)
	}
}

// toNumber converts a value to float64 for numeric comparison.
// Accepts Go numeric types and numeric strings. Rejects booleans, nil,
// and non-finite results.
func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, isFinite(v)
	case float32:
		return float64(v), isFinite(float64(v))
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		// Whitespace-only strings are not valid numbers
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, isFinite(f)
	default:
		return 0, false
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// dateLayouts accepted for string date literals, tried in order.
// RFC3339 covers admin-authored timestamps; the date-only form covers
// answers collected through the chat flow.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// toDate converts a value to time.Time for date comparison.
// Accepts time.Time, ISO-8601 strings, epoch milliseconds, and the
// relative-date literal shape resolved against env.
func toDate(value any, env Env) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case float64, int, int64:
		// Epoch milliseconds, matching what date pickers serialize
		ms, ok := toNumber(v)
		if !ok {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)).UTC(), true
	case map[string]any:
		return resolveRelativeDate(v, env)
	default:
		return time.Time{}, false
	}
}

// resolveRelativeDate resolves {type:"relative", ...} literals.
// The base is the evaluation clock for from="now" (or unset), otherwise
// another answer field's date value. A relative base is rejected to keep
// resolution non-recursive.
func resolveRelativeDate(literal map[string]any, env Env) (time.Time, bool) {
	kind, _ := literal["type"].(string)
	if kind != "relative" {
		return time.Time{}, false
	}

	base := env.now()
	if from, ok := literal["from"].(string); ok && from != "" && from != "now" {
		raw, found := env.lookup(from)
		if !found {
			return time.Time{}, false
		}
		if _, nested := raw.(map[string]any); nested {
			return time.Time{}, false
		}
		resolved, ok := toDate(raw, env)
		if !ok {
			return time.Time{}, false
		}
		base = resolved
	}

	days := relativeOffset(literal, "days")
	months := relativeOffset(literal, "months")
	years := relativeOffset(literal, "years")
	return base.AddDate(years, months, days), true
}

// relativeOffset reads one offset component, tolerating the float64 that
// encoding/json produces and the int that Go callers pass directly.
func relativeOffset(literal map[string]any, key string) int {
	raw, ok := literal[key]
	if !ok {
		return 0
	}
	n, ok := toNumber(raw)
	if !ok {
		return 0
	}
	return int(n)
}

// toText returns the string form of a value for substring/prefix/suffix
// matching. Strict: non-string operands are not comparable, per the
// operator catalog contract.
func toText(value any) (string, bool) {
	s, ok := value.(string)
	return s, ok
}

// isEmptyValue reports whether a value counts as empty for is_empty:
// nil or the empty string. Missing answer fields arrive here as nil.
func isEmptyValue(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

// isPresentValue reports whether a value counts as present for
// is_not_empty: non-nil and, for strings, non-whitespace. The two
// predicates are deliberately asymmetric, so a whitespace-only string
// satisfies neither is_empty nor is_not_empty.
func isPresentValue(value any) bool {
	if value == nil {
		return false
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}
