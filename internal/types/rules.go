// internal/types/rules.go
package types

/*
 * Domain types for rule evaluation.
 *
 * Provides Rule, Condition, and Action structures used by internal/rules
 * for evaluation. These types are wire-format agnostic - JSON-to-types
 * conversion happens at the repository boundary (internal/rules/parse.go),
 * so nothing downstream ever branches on schema version or legacy shapes.
 *
 * Key types:
 *   - Rule: Prioritized (conditions -> actions) unit scoped to a coverage type
 *   - Condition: Single predicate chained to its predecessor via AND/OR
 *   - Action: Tagged effect (visibility, validation, documents, values)
 *
 * Dependencies: None (standard library only)
 */

// RuleKind groups rules for the admin UI. Purely descriptive; it never
// changes evaluation semantics.
type RuleKind string

const (
	RuleKindConditional RuleKind = "conditional"
	RuleKindValidation  RuleKind = "validation"
	RuleKindDocument    RuleKind = "document"
	RuleKindEligibility RuleKind = "eligibility"
	RuleKindCalculation RuleKind = "calculation"
)

// LogicalOperator chains a condition to the previous condition in the
// same rule. The first condition's operator is ignored.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// Condition represents a single predicate within a rule.
type Condition struct {
	Field    string          // key into the answer map
	Operator string          // operator name from the fixed catalog
	Value    any             // operator-specific literal: scalar, 2-tuple, array, relative date
	Logical  LogicalOperator // combination with the previous condition (default AND)
}

// ActionType tags an Action variant. The catalog is closed; unknown types
// arriving from storage are dropped at the parse boundary.
type ActionType string

const (
	ActionShowQuestion    ActionType = "show_question"
	ActionHideQuestion    ActionType = "hide_question"
	ActionValidate        ActionType = "validate"
	ActionBlockSubmission ActionType = "block_submission"
	ActionShowWarning     ActionType = "show_warning"
	ActionRequireDocument ActionType = "require_document"
	ActionSetValue        ActionType = "set_value"
	ActionCalculateValue  ActionType = "calculate_value"
)

// Action represents one atomic effect applied when a rule triggers.
// One struct covers all variants; only the fields for the tagged type
// are populated.
type Action struct {
	Type ActionType

	// show_question / hide_question
	TargetQuestionID string

	// validate / block_submission / require_document
	ErrorMessage string

	// show_warning
	WarningMessage string

	// require_document
	DocumentTypes  []string
	MinFiles       int
	MaxFiles       int
	AllowedFormats []string
	MaxFileSize    int64

	// set_value / calculate_value
	TargetField string
	Value       any
	Formula     string
}

// Rule represents a complete, parsed rule definition ready for evaluation.
type Rule struct {
	ID               RuleID
	CoverageTypeID   CoverageTypeID
	Name             string
	Kind             RuleKind
	TargetQuestionID string      // optional single target question
	Conditions       []Condition // empty means "always triggers"
	Actions          []Action    // must be non-empty to have any effect
	Priority         int         // higher evaluates first
	Active           bool
}
