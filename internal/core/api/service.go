// Package api provides the HTTP service for claim rule evaluation and
// rule administration.
//
// Thin orchestration layer: handlers decode and validate request DTOs,
// delegate to the rules engine and the rule store, and map domain
// errors onto HTTP status codes. Repository failures surface as 503 so
// callers never mistake "could not fetch rules" for "no rules apply".
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/clearclaim/claimrules/internal/core/config"
	"github.com/clearclaim/claimrules/internal/core/db"
	"github.com/clearclaim/claimrules/internal/rules"
)

// Service implements the HTTP claims API.
type Service struct {
	engine   *rules.Engine
	store    *db.RuleStore
	conn     *sqlx.DB
	cfg      *config.APIConfig
	logger   zerolog.Logger
	validate *validator.Validate
	router   chi.Router
}

// NewService wires the evaluation engine and rule store behind a chi router.
func NewService(engine *rules.Engine, store *db.RuleStore, conn *sqlx.DB, cfg *config.APIConfig, logger zerolog.Logger) (*Service, error) {
	s := &Service{
		engine:   engine,
		store:    store,
		conn:     conn,
		cfg:      cfg,
		logger:   logger.With().Str("component", "api").Logger(),
		validate: validator.New(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/api/v1/health", s.handleHealth)
	r.Post("/api/v1/evaluate", s.handleEvaluate)

	r.Route("/api/v1/coverage-types", func(r chi.Router) {
		r.Get("/", s.handleListCoverageTypes)
		r.Post("/", s.handleCreateCoverageType)
		r.Route("/{coverageTypeId}", func(r chi.Router) {
			r.Get("/rules", s.handleListRules)
			r.Post("/rules", s.handleCreateRule)
		})
	})

	r.Route("/api/v1/rules/{ruleId}", func(r chi.Router) {
		r.Get("/", s.handleGetRule)
		r.Put("/", s.handleUpdateRule)
		r.Delete("/", s.handleDeleteRule)
	})

	s.router = r
	return s, nil
}

// Router exposes the configured handler for the HTTP server.
func (s *Service) Router() http.Handler {
	return s.router
}

// handleHealth reports liveness of the service and its database.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.conn.PingContext(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// decodeBody reads a size-capped JSON request body into dst and runs
// struct validation.
func (s *Service) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// timestampOrZero formats a time for response DTOs, tolerating zero
// values from drivers that return NULL timestamps.
func timestampOrZero(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
