package types

import "errors"

// Sentinel errors for claimrules operations.
var (
	// ErrRuleFetch indicates the rule repository could not supply the
	// active rule set. Callers must treat the evaluation as untrusted
	// rather than as an empty-but-successful pass.
	ErrRuleFetch = errors.New("rule fetch failed")

	// ErrRuleNotFound indicates a rule lookup by ID matched no row.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrCoverageTypeNotFound indicates a coverage type lookup matched no row.
	ErrCoverageTypeNotFound = errors.New("coverage type not found")

	// ErrMalformedRule indicates a persisted rule's conditions or actions
	// JSON could not be decoded at all. The rule is skipped, never fatal.
	ErrMalformedRule = errors.New("malformed rule definition")

	// ErrTooManyConditions indicates a rule exceeds MaxConditionsPerRule.
	ErrTooManyConditions = errors.New("rule has too many conditions")

	// ErrTooManyActions indicates a rule exceeds MaxActionsPerRule.
	ErrTooManyActions = errors.New("rule has too many actions")

	// ErrTooManyInValues indicates an in/not_in literal exceeds
	// MaxInOperatorValues.
	ErrTooManyInValues = errors.New("in operator has too many values")
)
