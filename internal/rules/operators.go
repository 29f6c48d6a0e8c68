// internal/rules/operators.go
package rules

import (
	"reflect"
	"regexp"
	"strings"
)

/*
 * Operator comparison logic.
 *
 * Implements the fixed catalog of 20 condition operators. Every operator
 * is a total function (fieldValue, literal) -> bool: incomparable pairs,
 * malformed literals, and invalid regex patterns all yield false. Rule
 * data is externally authored and may be stale relative to this catalog
 * version, so an unknown operator name records a diagnostic warning and
 * yields false rather than failing the pass.
 *
 * Operator families:
 *   - equality: equals/not_equals (strict; int/float widening only)
 *   - text: contains/not_contains/starts_with/ends_with (case-insensitive)
 *   - numeric: greater_than/less_than/_or_equal, between/not_between
 *   - membership: in/not_in
 *   - presence: is_empty/is_not_empty
 *   - pattern: regex (compiled fresh per call)
 *   - date: date_before/date_after/date_between
 *
 * Dispatch is one switch over the catalog; interface polymorphism would
 * add 20 types with minimal behavior variation.
 */

// Operator names the comparison applied by a condition.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "not_equals"
	OpContains           Operator = "contains"
	OpNotContains        Operator = "not_contains"
	OpGreaterThan        Operator = "greater_than"
	OpLessThan           Operator = "less_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
	OpBetween            Operator = "between"
	OpNotBetween         Operator = "not_between"
	OpIn                 Operator = "in"
	OpNotIn              Operator = "not_in"
	OpIsEmpty            Operator = "is_empty"
	OpIsNotEmpty         Operator = "is_not_empty"
	OpRegex              Operator = "regex"
	OpStartsWith         Operator = "starts_with"
	OpEndsWith           Operator = "ends_with"
	OpDateBefore         Operator = "date_before"
	OpDateAfter          Operator = "date_after"
	OpDateBetween        Operator = "date_between"
)

// KnownOperator reports whether name is part of the fixed catalog.
// Used at the parse boundary to flag stale rule data early.
func KnownOperator(name string) bool {
	switch Operator(name) {
	case OpEquals, OpNotEquals, OpContains, OpNotContains,
		OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual,
		OpBetween, OpNotBetween, OpIn, OpNotIn,
		OpIsEmpty, OpIsNotEmpty, OpRegex,
		OpStartsWith, OpEndsWith,
		OpDateBefore, OpDateAfter, OpDateBetween:
		return true
	default:
		return false
	}
}

// Compare applies the operator to the answer value and rule literal.
// Total: never panics, incomparable pairs return false.
func Compare(op Operator, value, literal any, env Env) bool {
	switch op {
	case OpEquals:
		return compareEqual(value, literal)
	case OpNotEquals:
		return !compareEqual(value, literal)
	case OpContains:
		return compareSubstring(value, literal)
	case OpNotContains:
		return !compareSubstring(value, literal)
	case OpGreaterThan:
		cmp, ok := compareNumeric(value, literal)
		return ok && cmp > 0
	case OpLessThan:
		cmp, ok := compareNumeric(value, literal)
		return ok && cmp < 0
	case OpGreaterThanOrEqual:
		cmp, ok := compareNumeric(value, literal)
		return ok && cmp >= 0
	case OpLessThanOrEqual:
		cmp, ok := compareNumeric(value, literal)
		return ok && cmp <= 0
	case OpBetween:
		return compareBetween(value, literal)
	case OpNotBetween:
		in, ok := betweenInclusive(value, literal)
		return ok && !in
	case OpIn:
		return compareIn(value, literal)
	case OpNotIn:
		arr, ok := asList(literal)
		if !ok {
			return false
		}
		return !membership(value, arr)
	case OpIsEmpty:
		return isEmptyValue(value)
	case OpIsNotEmpty:
		return isPresentValue(value)
	case OpRegex:
		return compareRegex(value, literal)
	case OpStartsWith:
		return compareAffix(value, literal, strings.HasPrefix)
	case OpEndsWith:
		return compareAffix(value, literal, strings.HasSuffix)
	case OpDateBefore:
		return compareDates(value, literal, env, func(cmp int) bool { return cmp < 0 })
	case OpDateAfter:
		return compareDates(value, literal, env, func(cmp int) bool { return cmp > 0 })
	case OpDateBetween:
		return compareDateBetween(value, literal, env)
	default:
		env.warnf("unknown operator %q, condition evaluates false", string(op))
		return false
	}
}

// compareEqual performs strict value equality. The only widening is
// across Go numeric types, since JSON unmarshaling yields float64 while
// Go callers pass int; numeric strings stay strings, so "5" never
// equals 5. Uncomparable dynamic types (slices, maps) are never equal
// rather than a panic.
func compareEqual(a, b any) bool {
	na, aok := goNumber(a)
	nb, bok := goNumber(b)
	if aok && bok {
		return na == nb
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}

// goNumber widens Go numeric types to float64 for equality. Unlike
// toNumber it rejects strings: string-to-number coercion belongs to the
// ordering operators only.
func goNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// compareNumeric performs three-way numeric comparison (-1/0/1).
// ok=false when either side is not a number.
func compareNumeric(a, b any) (int, bool) {
	na, nb, ok := asNumbers(a, b)
	if !ok {
		return 0, false
	}
	switch {
	case na < nb:
		return -1, true
	case na > nb:
		return 1, true
	default:
		return 0, true
	}
}

// asNumbers attempts to convert both values to float64.
func asNumbers(a, b any) (float64, float64, bool) {
	na, oka := toNumber(a)
	nb, okb := toNumber(b)
	return na, nb, oka && okb
}

// compareSubstring checks case-insensitive containment. Non-string
// operands are incomparable.
func compareSubstring(value, literal any) bool {
	vs, ok1 := toText(value)
	ls, ok2 := toText(literal)
	if !ok1 || !ok2 {
		return false
	}
	return strings.Contains(strings.ToLower(vs), strings.ToLower(ls))
}

// compareAffix checks a case-insensitive prefix or suffix.
func compareAffix(value, literal any, match func(s, affix string) bool) bool {
	vs, ok1 := toText(value)
	ls, ok2 := toText(literal)
	if !ok1 || !ok2 {
		return false
	}
	return match(strings.ToLower(vs), strings.ToLower(ls))
}

// compareBetween tests inclusive numeric range membership against a
// [min, max] literal.
func compareBetween(value, literal any) bool {
	in, ok := betweenInclusive(value, literal)
	return ok && in
}

// betweenInclusive resolves the [min, max] 2-tuple literal and tests
// min <= value <= max. ok=false when the tuple or value is malformed,
// which makes both between and not_between false on bad data.
func betweenInclusive(value, literal any) (bool, bool) {
	bounds, ok := asList(literal)
	if !ok || len(bounds) != 2 {
		return false, false
	}
	v, okV := toNumber(value)
	lo, okLo := toNumber(bounds[0])
	hi, okHi := toNumber(bounds[1])
	if !okV || !okLo || !okHi {
		return false, false
	}
	return v >= lo && v <= hi, true
}

// compareIn checks membership in an array literal using equality
// semantics (numeric mixing included).
func compareIn(value, literal any) bool {
	arr, ok := asList(literal)
	if !ok {
		return false
	}
	return membership(value, arr)
}

func membership(value any, arr []any) bool {
	for _, elem := range arr {
		if compareEqual(value, elem) {
			return true
		}
	}
	return false
}

// asList normalizes array literals. JSON decoding yields []any; []string
// appears when rules are constructed in Go (tests, admin tooling).
func asList(literal any) ([]any, bool) {
	switch arr := literal.(type) {
	case []any:
		return arr, true
	case []string:
		out := make([]any, len(arr))
		for i, s := range arr {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(arr))
		for i, f := range arr {
			out[i] = f
		}
		return out, true
	case []int:
		out := make([]any, len(arr))
		for i, n := range arr {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

// compareRegex matches the string value against a pattern literal.
// Compiled fresh per call; an invalid pattern yields false, never an error.
func compareRegex(value, literal any) bool {
	vs, ok1 := toText(value)
	pattern, ok2 := toText(literal)
	if !ok1 || !ok2 {
		return false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(vs)
}

// compareDates coerces both sides to dates and applies strict ordering.
func compareDates(value, literal any, env Env, want func(cmp int) bool) bool {
	v, ok1 := toDate(value, env)
	l, ok2 := toDate(literal, env)
	if !ok1 || !ok2 {
		return false
	}
	return want(v.Compare(l))
}

// compareDateBetween tests inclusive date range membership against a
// 2-tuple of date-likes.
func compareDateBetween(value, literal any, env Env) bool {
	bounds, ok := asList(literal)
	if !ok || len(bounds) != 2 {
		return false
	}
	v, okV := toDate(value, env)
	lo, okLo := toDate(bounds[0], env)
	hi, okHi := toDate(bounds[1], env)
	if !okV || !okLo || !okHi {
		return false
	}
	return v.Compare(lo) >= 0 && v.Compare(hi) <= 0
}
