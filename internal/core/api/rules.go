package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clearclaim/claimrules/internal/core/db"
	"github.com/clearclaim/claimrules/internal/types"
)

// Rule administration handlers. Conditions and actions travel as raw
// JSON end to end; the store verifies they decode before persisting.

type createRuleRequest struct {
	Name             string          `json:"name" validate:"required"`
	Kind             string          `json:"kind" validate:"omitempty,oneof=conditional validation document eligibility calculation"`
	TargetQuestionID string          `json:"target_question_id"`
	Conditions       json.RawMessage `json:"conditions"`
	Actions          json.RawMessage `json:"actions" validate:"required"`
	Priority         int             `json:"priority"`
	IsActive         *bool           `json:"is_active"`
}

type createCoverageTypeRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type ruleResponse struct {
	RuleID           string          `json:"rule_id"`
	CoverageTypeID   string          `json:"coverage_type_id"`
	Name             string          `json:"name"`
	Kind             string          `json:"kind"`
	TargetQuestionID string          `json:"target_question_id,omitempty"`
	Conditions       json.RawMessage `json:"conditions"`
	Actions          json.RawMessage `json:"actions"`
	Priority         int             `json:"priority"`
	IsActive         bool            `json:"is_active"`
	CreatedAt        string          `json:"created_at"`
	UpdatedAt        string          `json:"updated_at"`
}

type coverageTypeResponse struct {
	CoverageTypeID string `json:"coverage_type_id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toRuleResponse(rec db.RuleRecord) ruleResponse {
	conditions := rec.Conditions
	if conditions == "" {
		conditions = "[]"
	}
	actions := rec.Actions
	if actions == "" {
		actions = "[]"
	}
	return ruleResponse{
		RuleID:           rec.RuleID,
		CoverageTypeID:   rec.CoverageTypeID,
		Name:             rec.Name,
		Kind:             rec.Kind,
		TargetQuestionID: rec.TargetQuestionID.String,
		Conditions:       json.RawMessage(conditions),
		Actions:          json.RawMessage(actions),
		Priority:         rec.Priority,
		IsActive:         rec.IsActive,
		CreatedAt:        timestampOrZero(rec.CreatedAt),
		UpdatedAt:        timestampOrZero(rec.UpdatedAt),
	}
}

func toCoverageTypeResponse(rec db.CoverageTypeRecord) coverageTypeResponse {
	return coverageTypeResponse{
		CoverageTypeID: rec.CoverageTypeID,
		Name:           rec.Name,
		Description:    rec.Description,
		CreatedAt:      timestampOrZero(rec.CreatedAt),
		UpdatedAt:      timestampOrZero(rec.UpdatedAt),
	}
}

func (s *Service) handleCreateCoverageType(w http.ResponseWriter, r *http.Request) {
	var req createCoverageTypeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	rec := db.CoverageTypeRecord{
		CoverageTypeID: string(types.NewCoverageTypeID()),
		Name:           req.Name,
		Description:    req.Description,
	}
	if err := s.store.CreateCoverageType(r.Context(), rec); err != nil {
		s.logger.Error().Err(err).Msg("create coverage type failed")
		respondError(w, http.StatusInternalServerError, "failed to create coverage type")
		return
	}

	respondJSON(w, http.StatusCreated, toCoverageTypeResponse(rec))
}

func (s *Service) handleListCoverageTypes(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListCoverageTypes(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list coverage types failed")
		respondError(w, http.StatusInternalServerError, "failed to list coverage types")
		return
	}

	out := make([]coverageTypeResponse, len(records))
	for i, rec := range records {
		out[i] = toCoverageTypeResponse(rec)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Service) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	coverageTypeID := types.CoverageTypeID(chi.URLParam(r, "coverageTypeId"))
	if _, err := s.store.GetCoverageType(r.Context(), coverageTypeID); err != nil {
		if errors.Is(err, types.ErrCoverageTypeNotFound) {
			respondError(w, http.StatusNotFound, "coverage type not found")
			return
		}
		s.logger.Error().Err(err).Msg("coverage type lookup failed")
		respondError(w, http.StatusInternalServerError, "failed to look up coverage type")
		return
	}

	var req createRuleRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	rec := recordFromRequest(req)
	rec.RuleID = string(types.NewRuleID())
	rec.CoverageTypeID = string(coverageTypeID)

	if err := s.store.CreateRule(r.Context(), rec); err != nil {
		if errors.Is(err, types.ErrMalformedRule) ||
			errors.Is(err, types.ErrTooManyConditions) ||
			errors.Is(err, types.ErrTooManyActions) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("create rule failed")
		respondError(w, http.StatusInternalServerError, "failed to create rule")
		return
	}

	created, err := s.store.GetRule(r.Context(), types.RuleID(rec.RuleID))
	if err != nil {
		s.logger.Error().Err(err).Msg("read-back of created rule failed")
		respondError(w, http.StatusInternalServerError, "failed to create rule")
		return
	}
	respondJSON(w, http.StatusCreated, toRuleResponse(created))
}

func (s *Service) handleListRules(w http.ResponseWriter, r *http.Request) {
	coverageTypeID := types.CoverageTypeID(chi.URLParam(r, "coverageTypeId"))
	records, err := s.store.ListRules(r.Context(), coverageTypeID)
	if err != nil {
		s.logger.Error().Err(err).Msg("list rules failed")
		respondError(w, http.StatusInternalServerError, "failed to list rules")
		return
	}

	out := make([]ruleResponse, len(records))
	for i, rec := range records {
		out[i] = toRuleResponse(rec)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Service) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetRule(r.Context(), types.RuleID(chi.URLParam(r, "ruleId")))
	if err != nil {
		if errors.Is(err, types.ErrRuleNotFound) {
			respondError(w, http.StatusNotFound, "rule not found")
			return
		}
		s.logger.Error().Err(err).Msg("get rule failed")
		respondError(w, http.StatusInternalServerError, "failed to get rule")
		return
	}
	respondJSON(w, http.StatusOK, toRuleResponse(rec))
}

func (s *Service) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")

	var req createRuleRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	rec := recordFromRequest(req)
	rec.RuleID = ruleID

	if err := s.store.UpdateRule(r.Context(), rec); err != nil {
		switch {
		case errors.Is(err, types.ErrRuleNotFound):
			respondError(w, http.StatusNotFound, "rule not found")
		case errors.Is(err, types.ErrMalformedRule),
			errors.Is(err, types.ErrTooManyConditions),
			errors.Is(err, types.ErrTooManyActions):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error().Err(err).Msg("update rule failed")
			respondError(w, http.StatusInternalServerError, "failed to update rule")
		}
		return
	}

	updated, err := s.store.GetRule(r.Context(), types.RuleID(ruleID))
	if err != nil {
		s.logger.Error().Err(err).Msg("read-back of updated rule failed")
		respondError(w, http.StatusInternalServerError, "failed to update rule")
		return
	}
	respondJSON(w, http.StatusOK, toRuleResponse(updated))
}

func (s *Service) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteRule(r.Context(), types.RuleID(chi.URLParam(r, "ruleId")))
	if err != nil {
		if errors.Is(err, types.ErrRuleNotFound) {
			respondError(w, http.StatusNotFound, "rule not found")
			return
		}
		s.logger.Error().Err(err).Msg("delete rule failed")
		respondError(w, http.StatusInternalServerError, "failed to delete rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recordFromRequest maps the shared create/update DTO onto a row.
// Absent conditions default to the always-triggers empty list; absent
// is_active defaults to active.
func recordFromRequest(req createRuleRequest) db.RuleRecord {
	conditions := "[]"
	if len(req.Conditions) > 0 {
		conditions = string(req.Conditions)
	}

	kind := req.Kind
	if kind == "" {
		kind = string(types.RuleKindConditional)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return db.RuleRecord{
		Name:             req.Name,
		Kind:             kind,
		TargetQuestionID: sql.NullString{String: req.TargetQuestionID, Valid: req.TargetQuestionID != ""},
		Conditions:       conditions,
		Actions:          string(req.Actions),
		Priority:         req.Priority,
		IsActive:         active,
	}
}
