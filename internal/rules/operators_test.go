// internal/rules/operators_test.go
package rules

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestCompare_Equality(t *testing.T) {
	tests := []struct {
		name     string
		op       Operator
		value    any
		literal  any
		expected bool
	}{
		{name: "equal strings", op: OpEquals, value: "theft", literal: "theft", expected: true},
		{name: "unequal strings", op: OpEquals, value: "theft", literal: "loss", expected: false},
		{name: "int vs float mixing", op: OpEquals, value: 5, literal: float64(5), expected: true},
		{name: "numeric string vs number is strict", op: OpEquals, value: "5", literal: float64(5), expected: false},
		{name: "number vs numeric string is strict", op: OpEquals, value: float64(5), literal: "5", expected: false},
		{name: "not_equals numeric string vs number", op: OpNotEquals, value: "5", literal: float64(5), expected: true},
		{name: "nil vs nil", op: OpEquals, value: nil, literal: nil, expected: true},
		{name: "nil vs value", op: OpEquals, value: nil, literal: "x", expected: false},
		{name: "slice never equal", op: OpEquals, value: []any{1}, literal: []any{1}, expected: false},
		{name: "not_equals", op: OpNotEquals, value: "a", literal: "b", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.op, tt.value, tt.literal, Env{}); got != tt.expected {
				t.Errorf("Compare(%s, %v, %v) = %v, want %v", tt.op, tt.value, tt.literal, got, tt.expected)
			}
		})
	}
}

func TestCompare_Text(t *testing.T) {
	tests := []struct {
		name     string
		op       Operator
		value    any
		literal  any
		expected bool
	}{
		{name: "contains case-insensitive", op: OpContains, value: "Lost Baggage", literal: "baggage", expected: true},
		{name: "contains miss", op: OpContains, value: "Lost Baggage", literal: "medical", expected: false},
		{name: "contains non-string value", op: OpContains, value: 42, literal: "4", expected: false},
		{name: "not_contains", op: OpNotContains, value: "Lost Baggage", literal: "medical", expected: true},
		{name: "starts_with case-insensitive", op: OpStartsWith, value: "Flight AB123", literal: "flight", expected: true},
		{name: "ends_with case-insensitive", op: OpEndsWith, value: "report.PDF", literal: ".pdf", expected: true},
		{name: "starts_with non-string literal", op: OpStartsWith, value: "abc", literal: 1, expected: false},
		{name: "regex match", op: OpRegex, value: "AB-1234", literal: `^[A-Z]{2}-\d{4}$`, expected: true},
		{name: "regex no match", op: OpRegex, value: "abcd", literal: `^\d+$`, expected: false},
		{name: "regex invalid pattern", op: OpRegex, value: "abc", literal: "([", expected: false},
		{name: "regex non-string value", op: OpRegex, value: 12, literal: `\d+`, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.op, tt.value, tt.literal, Env{}); got != tt.expected {
				t.Errorf("Compare(%s, %v, %v) = %v, want %v", tt.op, tt.value, tt.literal, got, tt.expected)
			}
		})
	}
}

func TestCompare_Numeric(t *testing.T) {
	tests := []struct {
		name     string
		op       Operator
		value    any
		literal  any
		expected bool
	}{
		{name: "greater_than true", op: OpGreaterThan, value: float64(1500), literal: float64(1000), expected: true},
		{name: "greater_than false", op: OpGreaterThan, value: float64(500), literal: float64(1000), expected: false},
		{name: "greater_than equal is false", op: OpGreaterThan, value: float64(1000), literal: float64(1000), expected: false},
		{name: "greater_than incomparable", op: OpGreaterThan, value: "lots", literal: float64(1000), expected: false},
		{name: "less_than", op: OpLessThan, value: 3, literal: 10, expected: true},
		{name: "gte boundary", op: OpGreaterThanOrEqual, value: 10, literal: 10, expected: true},
		{name: "lte boundary", op: OpLessThanOrEqual, value: 10, literal: 10, expected: true},
		{name: "numeric string value", op: OpGreaterThan, value: "1500", literal: 1000, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.op, tt.value, tt.literal, Env{}); got != tt.expected {
				t.Errorf("Compare(%s, %v, %v) = %v, want %v", tt.op, tt.value, tt.literal, got, tt.expected)
			}
		})
	}
}

func TestCompare_Between(t *testing.T) {
	bounds := []any{float64(100), float64(50000)}

	tests := []struct {
		name     string
		op       Operator
		value    any
		literal  any
		expected bool
	}{
		{name: "below range", op: OpBetween, value: float64(99), literal: bounds, expected: false},
		{name: "lower boundary inclusive", op: OpBetween, value: float64(100), literal: bounds, expected: true},
		{name: "upper boundary inclusive", op: OpBetween, value: float64(50000), literal: bounds, expected: true},
		{name: "above range", op: OpBetween, value: float64(50001), literal: bounds, expected: false},
		{name: "not_between inside", op: OpNotBetween, value: float64(200), literal: bounds, expected: false},
		{name: "not_between outside", op: OpNotBetween, value: float64(50001), literal: bounds, expected: true},
		{name: "not_between malformed tuple is false", op: OpNotBetween, value: float64(1), literal: []any{float64(1)}, expected: false},
		{name: "between non-tuple literal", op: OpBetween, value: float64(1), literal: "100-200", expected: false},
		{name: "between non-numeric value", op: OpBetween, value: "abc", literal: bounds, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.op, tt.value, tt.literal, Env{}); got != tt.expected {
				t.Errorf("Compare(%s, %v, %v) = %v, want %v", tt.op, tt.value, tt.literal, got, tt.expected)
			}
		})
	}
}

func TestCompare_Membership(t *testing.T) {
	tests := []struct {
		name     string
		op       Operator
		value    any
		literal  any
		expected bool
	}{
		{name: "in hit", op: OpIn, value: "theft", literal: []any{"theft", "loss"}, expected: true},
		{name: "in miss", op: OpIn, value: "fire", literal: []any{"theft", "loss"}, expected: false},
		{name: "in numeric mixing", op: OpIn, value: 5, literal: []any{float64(5), float64(6)}, expected: true},
		{name: "in numeric string is strict", op: OpIn, value: "5", literal: []any{float64(5), float64(6)}, expected: false},
		{name: "not_in numeric string is strict", op: OpNotIn, value: "5", literal: []any{float64(5)}, expected: true},
		{name: "in string slice literal", op: OpIn, value: "loss", literal: []string{"theft", "loss"}, expected: true},
		{name: "in non-array literal", op: OpIn, value: "x", literal: "x", expected: false},
		{name: "not_in hit", op: OpNotIn, value: "fire", literal: []any{"theft", "loss"}, expected: true},
		{name: "not_in malformed literal is false", op: OpNotIn, value: "x", literal: 5, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.op, tt.value, tt.literal, Env{}); got != tt.expected {
				t.Errorf("Compare(%s, %v, %v) = %v, want %v", tt.op, tt.value, tt.literal, got, tt.expected)
			}
		})
	}
}

func TestCompare_Presence(t *testing.T) {
	tests := []struct {
		name     string
		op       Operator
		value    any
		expected bool
	}{
		{name: "is_empty nil", op: OpIsEmpty, value: nil, expected: true},
		{name: "is_empty empty string", op: OpIsEmpty, value: "", expected: true},
		{name: "is_empty blank string", op: OpIsEmpty, value: "  ", expected: false},
		{name: "is_empty value present", op: OpIsEmpty, value: "x", expected: false},
		{name: "is_not_empty value present", op: OpIsNotEmpty, value: "x", expected: true},
		{name: "is_not_empty nil", op: OpIsNotEmpty, value: nil, expected: false},
		{name: "is_not_empty whitespace", op: OpIsNotEmpty, value: " ", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.op, tt.value, nil, Env{}); got != tt.expected {
				t.Errorf("Compare(%s, %v, nil) = %v, want %v", tt.op, tt.value, got, tt.expected)
			}
		})
	}
}

func TestCompare_Dates(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	env := Env{Now: now}

	tests := []struct {
		name     string
		op       Operator
		value    any
		literal  any
		expected bool
	}{
		{name: "date_before true", op: OpDateBefore, value: "2025-01-01", literal: "2025-06-01", expected: true},
		{name: "date_before equal is false", op: OpDateBefore, value: "2025-06-01", literal: "2025-06-01", expected: false},
		{name: "date_after true", op: OpDateAfter, value: "2025-07-01", literal: "2025-06-01", expected: true},
		{name: "date_after unparseable value", op: OpDateAfter, value: "soon", literal: "2025-06-01", expected: false},
		{
			name:     "date_after relative window inside",
			op:       OpDateAfter,
			value:    now.AddDate(0, 0, -89).Format("2006-01-02"),
			literal:  map[string]any{"type": "relative", "days": float64(-90), "from": "now"},
			expected: true,
		},
		{
			name:     "date_after relative window outside",
			op:       OpDateAfter,
			value:    now.AddDate(0, 0, -91).Format("2006-01-02"),
			literal:  map[string]any{"type": "relative", "days": float64(-90), "from": "now"},
			expected: false,
		},
		{
			name:     "date_between inclusive",
			op:       OpDateBetween,
			value:    "2025-06-01",
			literal:  []any{"2025-06-01", "2025-06-30"},
			expected: true,
		},
		{
			name:     "date_between outside",
			op:       OpDateBetween,
			value:    "2025-07-01",
			literal:  []any{"2025-06-01", "2025-06-30"},
			expected: false,
		},
		{name: "date_between malformed tuple", op: OpDateBetween, value: "2025-06-01", literal: []any{"2025-06-01"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.op, tt.value, tt.literal, env); got != tt.expected {
				t.Errorf("Compare(%s, %v, %v) = %v, want %v", tt.op, tt.value, tt.literal, got, tt.expected)
			}
		})
	}
}

func TestCompare_UnknownOperator(t *testing.T) {
	var warned bool
	env := Env{Warnf: func(format string, args ...any) { warned = true }}

	if got := Compare(Operator("approximately"), 1, 1, env); got {
		t.Errorf("Compare(unknown) = true, want false")
	}
	if !warned {
		t.Errorf("unknown operator did not record a warning")
	}
}

// Every operator must be total: arbitrary value/literal pairs never
// panic, and incomparable pairs yield false rather than an error.
func TestCompare_Totality(t *testing.T) {
	operators := []Operator{
		OpEquals, OpNotEquals, OpContains, OpNotContains,
		OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual,
		OpBetween, OpNotBetween, OpIn, OpNotIn,
		OpIsEmpty, OpIsNotEmpty, OpRegex,
		OpStartsWith, OpEndsWith,
		OpDateBefore, OpDateAfter, OpDateBetween,
		Operator("no_such_operator"),
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Compare never panics for any operand pair", prop.ForAll(
		func(s string, f float64, n int, b bool) bool {
			operands := []any{
				nil, s, f, n, b,
				[]any{s, f},
				[]any{f, f + 1},
				map[string]any{"type": "relative", "days": f},
				map[string]any{"unrelated": s},
			}
			env := Env{Now: time.Unix(1748736000, 0)}
			for _, op := range operators {
				for _, value := range operands {
					for _, literal := range operands {
						// Reaching the end without panicking is the property
						_ = Compare(op, value, literal, env)
					}
				}
			}
			return true
		},
		gen.AnyString(),
		gen.Float64(),
		gen.Int(),
		gen.Bool(),
	))

	properties.Property("incomparable numeric pairs are false", prop.ForAll(
		func(value string) bool {
			if _, ok := toNumber(value); ok {
				return true // numeric strings are comparable, skip
			}
			return !Compare(OpGreaterThan, value, float64(10), Env{}) &&
				!Compare(OpLessThan, value, float64(10), Env{}) &&
				!Compare(OpBetween, value, []any{float64(0), float64(10)}, Env{})
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
