// internal/rules/actions.go
package rules

import (
	"strings"

	"github.com/clearclaim/claimrules/internal/types"
)

/*
 * Action execution and the evaluation result accumulator.
 *
 * ApplyActions folds one triggered rule's ordered actions into the
 * EvaluationResult. Side effects on the accumulator only - no I/O.
 *
 * Cross-rule composition invariants:
 *   - hide wins over show for the same question, regardless of rule
 *     priority or processing order within the pass
 *   - block_submission is sticky: once ineligible, the pass stays
 *     ineligible
 *   - required documents are deduplicated by (documentTypes signature,
 *     owning rule) so re-evaluation after each new answer does not
 *     stack duplicate requirements
 *   - set_value/calculate_value conflicts: last rule processed wins
 *
 * Messages attached to actions are pass-through strings authored by the
 * rule's creator; nothing here generates or translates user-facing text.
 */

// DocumentRequirement describes one upload obligation produced by a
// require_document action.
type DocumentRequirement struct {
	RuleID         types.RuleID `json:"rule_id"`
	DocumentTypes  []string     `json:"document_types"`
	MinFiles       int          `json:"min_files"`
	MaxFiles       int          `json:"max_files,omitempty"`
	AllowedFormats []string     `json:"allowed_formats,omitempty"`
	MaxFileSize    int64        `json:"max_file_size,omitempty"`
	Message        string       `json:"message,omitempty"`
}

// EvaluationResult accumulates the effects of one evaluation pass.
// Mutable while the pass runs, treated as immutable once returned.
// Slices keep insertion order, which is rule priority order, so message
// ordering is deterministic for fixed inputs.
type EvaluationResult struct {
	TriggeredRules    []types.RuleID        `json:"triggered_rules"`
	VisibleQuestions  []string              `json:"visible_questions"`
	HiddenQuestions   []string              `json:"hidden_questions"`
	ValidationErrors  []string              `json:"validation_errors"`
	Warnings          []string              `json:"warnings"`
	RequiredDocuments []DocumentRequirement `json:"required_documents"`
	EligibilityStatus types.Eligibility     `json:"eligibility_status"`
	FieldValues       map[string]any        `json:"field_values"`

	seenDocs map[string]struct{}
}

// NewEvaluationResult returns an empty, eligible accumulator.
func NewEvaluationResult() *EvaluationResult {
	return &EvaluationResult{
		TriggeredRules:    []types.RuleID{},
		VisibleQuestions:  []string{},
		HiddenQuestions:   []string{},
		ValidationErrors:  []string{},
		Warnings:          []string{},
		RequiredDocuments: []DocumentRequirement{},
		EligibilityStatus: types.Eligible,
		FieldValues:       map[string]any{},
	}
}

// ApplyActions executes a triggered rule's actions in array order
// against the accumulator. Unknown action types are ignored with a
// diagnostic warning, never fatal.
func ApplyActions(rule types.Rule, res *EvaluationResult, env Env) {
	for _, action := range rule.Actions {
		switch action.Type {
		case types.ActionShowQuestion:
			res.showQuestion(action.TargetQuestionID)
		case types.ActionHideQuestion:
			res.hideQuestion(action.TargetQuestionID)
		case types.ActionValidate:
			res.ValidationErrors = append(res.ValidationErrors, action.ErrorMessage)
		case types.ActionBlockSubmission:
			if action.ErrorMessage != "" {
				res.ValidationErrors = append(res.ValidationErrors, action.ErrorMessage)
			}
			// Sticky: never reverts within the pass
			res.EligibilityStatus = types.Ineligible
		case types.ActionShowWarning:
			res.Warnings = append(res.Warnings, action.WarningMessage)
		case types.ActionRequireDocument:
			res.requireDocument(rule.ID, action)
		case types.ActionSetValue, types.ActionCalculateValue:
			value, ok := resolveValue(action, env)
			if !ok {
				env.warnf("rule %s: %s for field %q skipped, formula %q unresolvable",
					rule.ID, action.Type, action.TargetField, action.Formula)
				continue
			}
			// Conflict policy: last rule processed wins
			res.FieldValues[action.TargetField] = value
		default:
			env.warnf("rule %s: unknown action type %q ignored", rule.ID, action.Type)
		}
	}
}

// showQuestion adds a question to the visible set unless a hide already
// fired for it in this pass.
func (res *EvaluationResult) showQuestion(questionID string) {
	if questionID == "" || containsString(res.HiddenQuestions, questionID) {
		return
	}
	if !containsString(res.VisibleQuestions, questionID) {
		res.VisibleQuestions = append(res.VisibleQuestions, questionID)
	}
}

// hideQuestion moves a question to the hidden set, evicting any earlier
// show. Hide wins over show for the remainder of the pass.
func (res *EvaluationResult) hideQuestion(questionID string) {
	if questionID == "" {
		return
	}
	res.VisibleQuestions = removeString(res.VisibleQuestions, questionID)
	if !containsString(res.HiddenQuestions, questionID) {
		res.HiddenQuestions = append(res.HiddenQuestions, questionID)
	}
}

// requireDocument appends a requirement, deduplicated by the
// (documentTypes signature, owning rule) pair.
func (res *EvaluationResult) requireDocument(ruleID types.RuleID, action types.Action) {
	key := string(ruleID) + "|" + strings.Join(action.DocumentTypes, ",")
	if res.seenDocs == nil {
		res.seenDocs = make(map[string]struct{})
	}
	if _, dup := res.seenDocs[key]; dup {
		return
	}
	res.seenDocs[key] = struct{}{}

	minFiles := action.MinFiles
	if minFiles <= 0 {
		minFiles = 1
	}
	res.RequiredDocuments = append(res.RequiredDocuments, DocumentRequirement{
		RuleID:         ruleID,
		DocumentTypes:  action.DocumentTypes,
		MinFiles:       minFiles,
		MaxFiles:       action.MaxFiles,
		AllowedFormats: action.AllowedFormats,
		MaxFileSize:    action.MaxFileSize,
		Message:        action.ErrorMessage,
	})
}

// resolveValue produces the value written by set_value/calculate_value.
// A literal value wins; otherwise the formula is evaluated over the
// current answers.
func resolveValue(action types.Action, env Env) (any, bool) {
	if action.Value != nil {
		return action.Value, true
	}
	if action.Formula != "" {
		return evalFormula(action.Formula, env)
	}
	return nil, false
}

// evalFormula evaluates a calculation formula of the form
// "<operand>" or "<operand> (+|-|*|/) <operand>", where an operand is a
// numeric literal or an answer field name. Anything the grammar or the
// answers cannot resolve fails soft (ok=false), per the data-error
// policy for externally authored rules.
func evalFormula(formula string, env Env) (float64, bool) {
	fields := strings.Fields(formula)
	switch len(fields) {
	case 1:
		return resolveOperand(fields[0], env)
	case 3:
		left, okL := resolveOperand(fields[0], env)
		right, okR := resolveOperand(fields[2], env)
		if !okL || !okR {
			return 0, false
		}
		switch fields[1] {
		case "+":
			return left + right, true
		case "-":
			return left - right, true
		case "*":
			return left * right, true
		case "/":
			if right == 0 {
				return 0, false
			}
			return left / right, true
		default:
			return 0, false
		}
	default:
		return 0, false
	}
}

// resolveOperand interprets a formula token as a numeric literal first,
// then as an answer field reference.
func resolveOperand(token string, env Env) (float64, bool) {
	if n, ok := toNumber(token); ok {
		return n, true
	}
	raw, found := env.lookup(token)
	if !found {
		return 0, false
	}
	return toNumber(raw)
}

func containsString(list []string, s string) bool {
	for _, elem := range list {
		if elem == s {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, elem := range list {
		if elem != s {
			out = append(out, elem)
		}
	}
	return out
}
