// Package types provides domain models shared across claimrules components.
//
// Zero-dependency design: types.go, rules.go and errors.go use only the
// standard library so callers embedding the engine pull no transitive
// weight. ID utilities in ids.go import uuid but are isolated for
// selective inclusion.
package types

// RuleID represents a UUIDv7 rule identifier.
// String alias enables type safety while maintaining JSON string serialization.
// UUIDv7 time-ordering ensures sequential IDs cluster in B-tree indexes.
type RuleID string

// CoverageTypeID represents a UUIDv7 coverage type identifier.
// A coverage type is a category of insurable incident (baggage loss,
// medical emergency) that owns its own questions and rules.
type CoverageTypeID string

// Eligibility is the submission verdict carried by an evaluation result.
type Eligibility string

const (
	// Eligible means no triggered rule blocked submission.
	Eligible Eligibility = "eligible"

	// Ineligible means at least one triggered rule fired block_submission.
	// Once set within a pass it never reverts.
	Ineligible Eligibility = "ineligible"
)

// Resource limits enforced at the rule parse boundary. They keep a single
// evaluation pass bounded: rules x conditions x actions, all in-memory work.
const (
	// MaxConditionsPerRule bounds the left-to-right condition chain.
	// 64 conditions is far beyond any rule authored through the admin UI.
	MaxConditionsPerRule = 64

	// MaxActionsPerRule bounds the per-rule action list.
	MaxActionsPerRule = 64

	// MaxInOperatorValues limits in/not_in literal list size to prevent
	// quadratic comparison cost on externally authored rules.
	MaxInOperatorValues = 256

	// MaxDocumentTypes bounds the documentTypes list of one
	// require_document action.
	MaxDocumentTypes = 16
)
