package api

import (
	"errors"
	"net/http"

	"github.com/clearclaim/claimrules/internal/types"
)

// evaluateRequest is the evaluation entrypoint consumed by the dynamic
// form renderer, the pre-submission document checker, and the
// submission gate. An empty coverage-type list is legitimate caller
// input ("no rules apply"), not a validation error.
type evaluateRequest struct {
	CoverageTypeIDs []string       `json:"coverage_type_ids" validate:"dive,required"`
	Answers         map[string]any `json:"answers"`
}

// handleEvaluate runs one evaluation pass and returns the accumulator.
func (s *Service) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	ids := make([]types.CoverageTypeID, len(req.CoverageTypeIDs))
	for i, id := range req.CoverageTypeIDs {
		ids[i] = types.CoverageTypeID(id)
	}

	result, err := s.engine.Evaluate(r.Context(), ids, req.Answers)
	if err != nil {
		if errors.Is(err, types.ErrRuleFetch) {
			// The caller cannot make a trustworthy eligibility decision
			s.logger.Error().Err(err).Msg("rule fetch failed during evaluation")
			respondError(w, http.StatusServiceUnavailable, "rule repository unavailable")
			return
		}
		s.logger.Error().Err(err).Msg("evaluation failed")
		respondError(w, http.StatusInternalServerError, "evaluation failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
