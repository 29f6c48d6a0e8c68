package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clearclaim/claimrules/internal/rules"
	"github.com/clearclaim/claimrules/internal/types"
	"github.com/rs/zerolog"
)

/*
 * Persistent rule repository.
 *
 * RuleStore backs both the engine (ListActiveRules, the rules.Repository
 * contract) and the admin API (CRUD on raw records). Conditions and
 * actions persist as opaque JSON text; decoding into typed form happens
 * here, at the boundary, via internal/rules/parse.go.
 *
 * Skip-and-warn: a stored rule whose JSON cannot be decoded is excluded
 * from the active set with a logged warning instead of failing the
 * fetch, so one corrupt row never blocks claim evaluation. Writes take
 * the opposite stance: CreateRule/UpdateRule reject undecodable JSON
 * outright so corrupt rows don't enter the table in the first place.
 */

// RuleRecord is the persisted row shape of a rule. Conditions and
// actions are stored as JSON text.
type RuleRecord struct {
	RuleID           string         `db:"rule_id"`
	CoverageTypeID   string         `db:"coverage_type_id"`
	Name             string         `db:"name"`
	Kind             string         `db:"kind"`
	TargetQuestionID sql.NullString `db:"target_question_id"`
	Conditions       string         `db:"conditions"`
	Actions          string         `db:"actions"`
	Priority         int            `db:"priority"`
	IsActive         bool           `db:"is_active"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

// CoverageTypeRecord is the persisted row shape of a coverage type.
type CoverageTypeRecord struct {
	CoverageTypeID string    `db:"coverage_type_id"`
	Name           string    `db:"name"`
	Description    string    `db:"description"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// RuleStore is the database-backed rule repository.
type RuleStore struct {
	queries *Queries
	logger  zerolog.Logger
}

// NewRuleStore creates a store over loaded named queries.
func NewRuleStore(queries *Queries, logger zerolog.Logger) *RuleStore {
	return &RuleStore{
		queries: queries,
		logger:  logger.With().Str("component", "rule-store").Logger(),
	}
}

// ListActiveRules returns the parsed active rules for a coverage type,
// priority descending with creation order breaking ties. Implements
// rules.Repository.
func (s *RuleStore) ListActiveRules(ctx context.Context, coverageTypeID types.CoverageTypeID) ([]types.Rule, error) {
	var records []RuleRecord
	if err := s.queries.Select(ctx, "list-active-rules", &records, string(coverageTypeID)); err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}

	parsed := make([]types.Rule, 0, len(records))
	for _, rec := range records {
		rule, warnings, err := s.parseRecord(rec)
		for _, w := range warnings {
			s.logger.Warn().Str("rule_id", rec.RuleID).Msg(w)
		}
		if err != nil {
			// Skip-and-warn: one corrupt rule never blocks evaluation
			s.logger.Warn().Str("rule_id", rec.RuleID).Err(err).Msg("skipping undecodable rule")
			continue
		}
		parsed = append(parsed, rule)
	}
	return parsed, nil
}

// parseRecord decodes a row's JSON columns into a typed rule.
func (s *RuleStore) parseRecord(rec RuleRecord) (types.Rule, []string, error) {
	conds, condWarnings, err := rules.ParseConditions([]byte(rec.Conditions))
	if err != nil {
		return types.Rule{}, condWarnings, err
	}
	actions, actionWarnings, err := rules.ParseActions([]byte(rec.Actions))
	if err != nil {
		return types.Rule{}, append(condWarnings, actionWarnings...), err
	}

	return types.Rule{
		ID:               types.RuleID(rec.RuleID),
		CoverageTypeID:   types.CoverageTypeID(rec.CoverageTypeID),
		Name:             rec.Name,
		Kind:             types.RuleKind(rec.Kind),
		TargetQuestionID: rec.TargetQuestionID.String,
		Conditions:       conds,
		Actions:          actions,
		Priority:         rec.Priority,
		Active:           rec.IsActive,
	}, append(condWarnings, actionWarnings...), nil
}

// CreateRule inserts a rule after verifying its JSON decodes.
func (s *RuleStore) CreateRule(ctx context.Context, rec RuleRecord) error {
	if err := s.validateJSON(rec); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := s.queries.Exec(ctx, "insert-rule",
		rec.RuleID, rec.CoverageTypeID, rec.Name, rec.Kind, rec.TargetQuestionID,
		rec.Conditions, rec.Actions, rec.Priority, rec.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}

// GetRule fetches a single rule row by ID.
func (s *RuleStore) GetRule(ctx context.Context, id types.RuleID) (RuleRecord, error) {
	var rec RuleRecord
	err := s.queries.Get(ctx, "get-rule", &rec, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return RuleRecord{}, types.ErrRuleNotFound
	}
	if err != nil {
		return RuleRecord{}, fmt.Errorf("get rule: %w", err)
	}
	return rec, nil
}

// ListRules returns every rule row for a coverage type, active or not.
func (s *RuleStore) ListRules(ctx context.Context, coverageTypeID types.CoverageTypeID) ([]RuleRecord, error) {
	var records []RuleRecord
	if err := s.queries.Select(ctx, "list-rules-for-coverage-type", &records, string(coverageTypeID)); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return records, nil
}

// UpdateRule rewrites a rule row after verifying its JSON decodes.
func (s *RuleStore) UpdateRule(ctx context.Context, rec RuleRecord) error {
	if err := s.validateJSON(rec); err != nil {
		return err
	}

	res, err := s.queries.Exec(ctx, "update-rule",
		rec.Name, rec.Kind, rec.TargetQuestionID, rec.Conditions, rec.Actions,
		rec.Priority, rec.IsActive, time.Now().UTC(), rec.RuleID)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrRuleNotFound
	}
	return nil
}

// DeleteRule removes a rule row.
func (s *RuleStore) DeleteRule(ctx context.Context, id types.RuleID) error {
	res, err := s.queries.Exec(ctx, "delete-rule", string(id))
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrRuleNotFound
	}
	return nil
}

// CreateCoverageType inserts a coverage type row.
func (s *RuleStore) CreateCoverageType(ctx context.Context, rec CoverageTypeRecord) error {
	now := time.Now().UTC()
	_, err := s.queries.Exec(ctx, "insert-coverage-type",
		rec.CoverageTypeID, rec.Name, rec.Description, now, now)
	if err != nil {
		return fmt.Errorf("insert coverage type: %w", err)
	}
	return nil
}

// GetCoverageType fetches a coverage type row by ID.
func (s *RuleStore) GetCoverageType(ctx context.Context, id types.CoverageTypeID) (CoverageTypeRecord, error) {
	var rec CoverageTypeRecord
	err := s.queries.Get(ctx, "get-coverage-type", &rec, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return CoverageTypeRecord{}, types.ErrCoverageTypeNotFound
	}
	if err != nil {
		return CoverageTypeRecord{}, fmt.Errorf("get coverage type: %w", err)
	}
	return rec, nil
}

// ListCoverageTypes returns all coverage type rows ordered by name.
func (s *RuleStore) ListCoverageTypes(ctx context.Context) ([]CoverageTypeRecord, error) {
	var records []CoverageTypeRecord
	if err := s.queries.Select(ctx, "list-coverage-types", &records); err != nil {
		return nil, fmt.Errorf("list coverage types: %w", err)
	}
	return records, nil
}

// validateJSON rejects writes whose conditions/actions JSON would be
// skipped at read time.
func (s *RuleStore) validateJSON(rec RuleRecord) error {
	if _, _, err := rules.ParseConditions([]byte(rec.Conditions)); err != nil {
		return err
	}
	if _, _, err := rules.ParseActions([]byte(rec.Actions)); err != nil {
		return err
	}
	return nil
}
