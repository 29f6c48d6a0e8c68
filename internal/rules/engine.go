// internal/rules/engine.go
package rules

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/clearclaim/claimrules/internal/types"
	"github.com/rs/zerolog"
)

/*
 * Rule evaluation orchestration.
 *
 * One evaluation pass: fetch active rules for the requested coverage
 * types, stable-sort by priority descending, then fold every rule
 * through condition evaluation and action execution into a fresh
 * accumulator. There is no early exit on block_submission - later,
 * lower-priority rules still contribute the warnings and document
 * requirements the caller displays alongside the block reason.
 *
 * The engine is synchronous and allocation-local per call: the only
 * I/O is the up-front repository fetch, and the accumulator is owned
 * by the call, so concurrent passes need no coordination.
 *
 * Failure semantics: a repository fetch failure surfaces as ErrRuleFetch
 * (the caller cannot make a trustworthy eligibility decision); an empty
 * coverage-type list is a legitimate no-rules-apply pass, not an error.
 */

// Repository supplies active rule definitions for a coverage type,
// already parsed into typed form. Return order is arbitrary; the engine
// sorts.
type Repository interface {
	ListActiveRules(ctx context.Context, coverageTypeID types.CoverageTypeID) ([]types.Rule, error)
}

// Engine evaluates coverage-type rule sets against answer snapshots.
type Engine struct {
	repo   Repository
	logger zerolog.Logger
	clock  func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the evaluation clock used to resolve relative
// date literals with from="now". Tests inject a fixed clock.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// NewEngine creates an evaluation engine over the given repository.
func NewEngine(repo Repository, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		repo:   repo,
		logger: logger.With().Str("component", "rules-engine").Logger(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs one pass over the active rules of the given coverage
// types against the answer snapshot. The returned result is fresh per
// call and never shared.
func (e *Engine) Evaluate(ctx context.Context, coverageTypeIDs []types.CoverageTypeID, answers map[string]any) (*EvaluationResult, error) {
	result := NewEvaluationResult()

	applicable, err := e.fetchRules(ctx, coverageTypeIDs)
	if err != nil {
		return nil, err
	}

	// Higher priority acts first; stable sort keeps repository return
	// order for ties, which fixes warning/error ordering.
	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].Priority > applicable[j].Priority
	})

	env := Env{
		Now: e.clock(),
		Lookup: func(field string) (any, bool) {
			v, ok := answers[field]
			return v, ok
		},
		Warnf: func(format string, args ...any) {
			e.logger.Warn().Msgf(format, args...)
		},
	}

	for _, rule := range applicable {
		if !EvalConditions(rule.Conditions, env) {
			continue
		}
		result.TriggeredRules = append(result.TriggeredRules, rule.ID)
		ApplyActions(rule, result, env)
	}

	return result, nil
}

// fetchRules concatenates the active rules of each coverage type in
// argument order, so cross-coverage priority ties stay deterministic.
func (e *Engine) fetchRules(ctx context.Context, coverageTypeIDs []types.CoverageTypeID) ([]types.Rule, error) {
	var applicable []types.Rule
	for _, id := range coverageTypeIDs {
		fetched, err := e.repo.ListActiveRules(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: coverage type %s: %v", types.ErrRuleFetch, id, err)
		}
		applicable = append(applicable, fetched...)
	}
	return applicable, nil
}
