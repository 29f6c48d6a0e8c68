// internal/rules/parse.go
package rules

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clearclaim/claimrules/internal/types"
)

/*
 * Rule parsing boundary.
 *
 * Persisted rule definitions carry conditions and actions as opaque JSON
 * authored through the admin UI. This file decodes that JSON into the
 * closed typed variants of internal/types exactly once, at the
 * repository boundary, so nothing downstream trusts loosely typed data
 * or branches on schema version.
 *
 * Skip-and-warn policy: a malformed entry is dropped and reported in
 * the returned warnings; only JSON that fails to decode as an array at
 * all is an error (the whole rule is then skipped by the caller). One
 * bad rule can never prevent evaluation of the rest.
 *
 * Legacy compatibility: the historical action shape
 *   {action: "request_documents", message: ...}
 * is normalized here into a modern require_document action with a
 * single generic document type.
 */

// conditionJSON is the persisted wire shape of one condition.
type conditionJSON struct {
	Field           string          `json:"field"`
	Operator        string          `json:"operator"`
	Value           json.RawMessage `json:"value"`
	LogicalOperator string          `json:"logicalOperator"`
}

// actionJSON is the persisted wire shape of one action, covering both
// the modern tagged form and the legacy request_documents form.
type actionJSON struct {
	Type             string          `json:"type"`
	TargetQuestionID string          `json:"targetQuestionId"`
	ErrorMessage     string          `json:"errorMessage"`
	WarningMessage   string          `json:"warningMessage"`
	DocumentTypes    []string        `json:"documentTypes"`
	MinFiles         int             `json:"minFiles"`
	MaxFiles         int             `json:"maxFiles"`
	AllowedFormats   []string        `json:"allowedFormats"`
	MaxFileSize      int64           `json:"maxFileSize"`
	TargetField      string          `json:"targetField"`
	Value            json.RawMessage `json:"value"`
	Formula          string          `json:"formula"`

	// Legacy shape
	LegacyAction  string `json:"action"`
	LegacyMessage string `json:"message"`
}

// ParseConditions decodes a persisted conditions array. Entries missing
// a field or operator are dropped with a warning; unknown operator
// names are kept (they evaluate false at runtime) but flagged here so
// stale rules surface in diagnostics.
func ParseConditions(raw []byte) ([]types.Condition, []string, error) {
	if len(raw) == 0 {
		return []types.Condition{}, nil, nil
	}

	var entries []conditionJSON
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, nil, fmt.Errorf("%w: conditions: %v", types.ErrMalformedRule, err)
	}
	if len(entries) > types.MaxConditionsPerRule {
		return nil, nil, types.ErrTooManyConditions
	}

	conds := make([]types.Condition, 0, len(entries))
	var warnings []string
	for i, entry := range entries {
		if entry.Field == "" || entry.Operator == "" {
			warnings = append(warnings, fmt.Sprintf("condition %d: missing field or operator, dropped", i))
			continue
		}
		if !KnownOperator(entry.Operator) {
			warnings = append(warnings, fmt.Sprintf("condition %d: unknown operator %q", i, entry.Operator))
		}

		value, err := decodeLiteral(entry.Value)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("condition %d: unreadable value, dropped: %v", i, err))
			continue
		}
		if arr, ok := value.([]any); ok && len(arr) > types.MaxInOperatorValues {
			warnings = append(warnings, fmt.Sprintf("condition %d: %v", i, types.ErrTooManyInValues))
			continue
		}

		conds = append(conds, types.Condition{
			Field:    entry.Field,
			Operator: entry.Operator,
			Value:    value,
			Logical:  parseLogical(entry.LogicalOperator),
		})
	}
	return conds, warnings, nil
}

// ParseActions decodes a persisted actions array, normalizing the
// legacy request_documents shape. Unknown or incomplete entries are
// dropped with a warning.
func ParseActions(raw []byte) ([]types.Action, []string, error) {
	if len(raw) == 0 {
		return []types.Action{}, nil, nil
	}

	var entries []actionJSON
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, nil, fmt.Errorf("%w: actions: %v", types.ErrMalformedRule, err)
	}
	if len(entries) > types.MaxActionsPerRule {
		return nil, nil, types.ErrTooManyActions
	}

	actions := make([]types.Action, 0, len(entries))
	var warnings []string
	for i, entry := range entries {
		action, warn, ok := normalizeAction(i, entry)
		if warn != "" {
			warnings = append(warnings, warn)
		}
		if ok {
			actions = append(actions, action)
		}
	}
	return actions, warnings, nil
}

// normalizeAction converts one wire entry into a typed Action.
// ok=false drops the entry.
func normalizeAction(idx int, entry actionJSON) (types.Action, string, bool) {
	// Legacy request_documents predates the tagged action catalog
	if entry.Type == "" && entry.LegacyAction != "" {
		if entry.LegacyAction != "request_documents" {
			return types.Action{}, fmt.Sprintf("action %d: unknown legacy action %q ignored", idx, entry.LegacyAction), false
		}
		return types.Action{
			Type:          types.ActionRequireDocument,
			DocumentTypes: []string{"document"},
			MinFiles:      1,
			ErrorMessage:  entry.LegacyMessage,
		}, "", true
	}

	switch types.ActionType(entry.Type) {
	case types.ActionShowQuestion, types.ActionHideQuestion:
		if entry.TargetQuestionID == "" {
			return types.Action{}, fmt.Sprintf("action %d: %s without targetQuestionId, dropped", idx, entry.Type), false
		}
		return types.Action{
			Type:             types.ActionType(entry.Type),
			TargetQuestionID: entry.TargetQuestionID,
		}, "", true

	case types.ActionValidate, types.ActionBlockSubmission:
		return types.Action{
			Type:         types.ActionType(entry.Type),
			ErrorMessage: entry.ErrorMessage,
		}, "", true

	case types.ActionShowWarning:
		return types.Action{
			Type:           types.ActionShowWarning,
			WarningMessage: entry.WarningMessage,
		}, "", true

	case types.ActionRequireDocument:
		if len(entry.DocumentTypes) == 0 {
			return types.Action{}, fmt.Sprintf("action %d: require_document without documentTypes, dropped", idx), false
		}
		if len(entry.DocumentTypes) > types.MaxDocumentTypes {
			return types.Action{}, fmt.Sprintf("action %d: require_document exceeds %d document types, dropped", idx, types.MaxDocumentTypes), false
		}
		return types.Action{
			Type:           types.ActionRequireDocument,
			DocumentTypes:  entry.DocumentTypes,
			MinFiles:       entry.MinFiles,
			MaxFiles:       entry.MaxFiles,
			AllowedFormats: entry.AllowedFormats,
			MaxFileSize:    entry.MaxFileSize,
			ErrorMessage:   entry.ErrorMessage,
		}, "", true

	case types.ActionSetValue, types.ActionCalculateValue:
		if entry.TargetField == "" {
			return types.Action{}, fmt.Sprintf("action %d: %s without targetField, dropped", idx, entry.Type), false
		}
		value, err := decodeLiteral(entry.Value)
		if err != nil {
			return types.Action{}, fmt.Sprintf("action %d: unreadable value, dropped: %v", idx, err), false
		}
		return types.Action{
			Type:        types.ActionType(entry.Type),
			TargetField: entry.TargetField,
			Value:       value,
			Formula:     entry.Formula,
		}, "", true

	default:
		// Rule authors may run ahead of this catalog version; fail soft
		return types.Action{}, fmt.Sprintf("action %d: unknown action type %q ignored", idx, entry.Type), false
	}
}

// decodeLiteral unmarshals an operator literal into the loose any form
// operators coerce from. Absent literals decode to nil (valid for
// is_empty/is_not_empty).
func decodeLiteral(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return value, nil
}

// parseLogical normalizes the persisted combinator. AND is the default
// for absent or unrecognized values.
func parseLogical(s string) types.LogicalOperator {
	if strings.EqualFold(s, string(types.LogicalOr)) {
		return types.LogicalOr
	}
	return types.LogicalAnd
}
