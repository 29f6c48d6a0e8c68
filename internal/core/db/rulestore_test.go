package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/clearclaim/claimrules/internal/types"
)

// testStore opens an in-memory SQLite database, migrates it, and wires
// a store over it.
func testStore(t *testing.T) (*RuleStore, *sqlx.DB) {
	t.Helper()

	conn, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	// :memory: databases are per-connection
	conn.SetMaxOpenConns(1)

	if err := MigrateUp(conn); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	queries, err := LoadQueries(conn)
	if err != nil {
		t.Fatalf("loading queries: %v", err)
	}
	return NewRuleStore(queries, zerolog.Nop()), conn
}

func seedCoverageType(t *testing.T, store *RuleStore, id string) {
	t.Helper()
	err := store.CreateCoverageType(context.Background(), CoverageTypeRecord{
		CoverageTypeID: id,
		Name:           "Medical expenses",
		Description:    "Covers treatment costs",
	})
	if err != nil {
		t.Fatalf("seeding coverage type: %v", err)
	}
}

func TestRuleStore_CreateGetRoundtrip(t *testing.T) {
	store, _ := testStore(t)
	seedCoverageType(t, store, "ct-medical")

	rec := RuleRecord{
		RuleID:           "r-threshold",
		CoverageTypeID:   "ct-medical",
		Name:             "High amount needs bills",
		Kind:             string(types.RuleKindDocument),
		TargetQuestionID: sql.NullString{String: "q_amount", Valid: true},
		Conditions:       `[{"field": "claim_amount", "operator": "greater_than", "value": 1000}]`,
		Actions:          `[{"type": "require_document", "documentTypes": ["medical_bill"], "minFiles": 1}]`,
		Priority:         10,
		IsActive:         true,
	}
	if err := store.CreateRule(context.Background(), rec); err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}

	got, err := store.GetRule(context.Background(), "r-threshold")
	if err != nil {
		t.Fatalf("GetRule() error = %v", err)
	}
	if got.Name != rec.Name || got.Priority != 10 || !got.IsActive {
		t.Errorf("GetRule() = %+v", got)
	}
	if got.TargetQuestionID.String != "q_amount" {
		t.Errorf("TargetQuestionID = %v", got.TargetQuestionID)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Errorf("timestamps not persisted: %v / %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestRuleStore_CreateRejectsMalformedJSON(t *testing.T) {
	store, _ := testStore(t)
	seedCoverageType(t, store, "ct")

	err := store.CreateRule(context.Background(), RuleRecord{
		RuleID:         "r-bad",
		CoverageTypeID: "ct",
		Name:           "broken",
		Kind:           string(types.RuleKindConditional),
		Conditions:     `{"not": "an array"}`,
		Actions:        `[]`,
	})
	if !errors.Is(err, types.ErrMalformedRule) {
		t.Errorf("CreateRule() error = %v, want ErrMalformedRule", err)
	}

	if _, err := store.GetRule(context.Background(), "r-bad"); !errors.Is(err, types.ErrRuleNotFound) {
		t.Errorf("rejected rule was persisted anyway: %v", err)
	}
}

func TestRuleStore_ListActiveRules(t *testing.T) {
	store, _ := testStore(t)
	seedCoverageType(t, store, "ct")

	insert := func(id string, priority int, active bool) {
		t.Helper()
		err := store.CreateRule(context.Background(), RuleRecord{
			RuleID:         id,
			CoverageTypeID: "ct",
			Name:           id,
			Kind:           string(types.RuleKindConditional),
			Conditions:     `[]`,
			Actions:        `[{"type": "show_warning", "warningMessage": "w"}]`,
			Priority:       priority,
			IsActive:       active,
		})
		if err != nil {
			t.Fatalf("inserting %s: %v", id, err)
		}
	}
	insert("r-low", 1, true)
	insert("r-high", 10, true)
	insert("r-inactive", 99, false)

	rules, err := store.ListActiveRules(context.Background(), "ct")
	if err != nil {
		t.Fatalf("ListActiveRules() error = %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("len(rules) = %d, want 2 (inactive excluded)", len(rules))
	}
	if rules[0].ID != "r-high" || rules[1].ID != "r-low" {
		t.Errorf("order = [%s, %s], want priority descending", rules[0].ID, rules[1].ID)
	}
	if len(rules[0].Actions) != 1 || rules[0].Actions[0].Type != types.ActionShowWarning {
		t.Errorf("actions not parsed: %+v", rules[0].Actions)
	}
}

func TestRuleStore_ListActiveRulesSkipsCorruptRow(t *testing.T) {
	store, conn := testStore(t)
	seedCoverageType(t, store, "ct")

	err := store.CreateRule(context.Background(), RuleRecord{
		RuleID:         "r-good",
		CoverageTypeID: "ct",
		Name:           "good",
		Kind:           string(types.RuleKindConditional),
		Conditions:     `[]`,
		Actions:        `[{"type": "show_warning", "warningMessage": "w"}]`,
		IsActive:       true,
	})
	if err != nil {
		t.Fatalf("inserting good rule: %v", err)
	}

	// Corrupt a row behind the store's back; reads must survive it
	_, err = conn.Exec(`INSERT INTO rules
		(rule_id, coverage_type_id, name, kind, target_question_id,
		 conditions, actions, priority, is_active, created_at, updated_at)
		VALUES ('r-corrupt', 'ct', 'corrupt', 'conditional', NULL,
		 'not json', 'also not json', 0, TRUE, '2025-01-01 00:00:00', '2025-01-01 00:00:00')`)
	if err != nil {
		t.Fatalf("inserting corrupt row: %v", err)
	}

	rules, err := store.ListActiveRules(context.Background(), "ct")
	if err != nil {
		t.Fatalf("ListActiveRules() error = %v", err)
	}
	if len(rules) != 1 || rules[0].ID != "r-good" {
		t.Errorf("rules = %+v, want only r-good", rules)
	}
}

func TestRuleStore_UpdateRule(t *testing.T) {
	store, _ := testStore(t)
	seedCoverageType(t, store, "ct")

	rec := RuleRecord{
		RuleID:         "r1",
		CoverageTypeID: "ct",
		Name:           "before",
		Kind:           string(types.RuleKindConditional),
		Conditions:     `[]`,
		Actions:        `[{"type": "show_warning", "warningMessage": "w"}]`,
		IsActive:       true,
	}
	if err := store.CreateRule(context.Background(), rec); err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}

	rec.Name = "after"
	rec.Priority = 7
	rec.IsActive = false
	if err := store.UpdateRule(context.Background(), rec); err != nil {
		t.Fatalf("UpdateRule() error = %v", err)
	}

	got, err := store.GetRule(context.Background(), "r1")
	if err != nil {
		t.Fatalf("GetRule() error = %v", err)
	}
	if got.Name != "after" || got.Priority != 7 || got.IsActive {
		t.Errorf("GetRule() after update = %+v", got)
	}
}

func TestRuleStore_NotFound(t *testing.T) {
	store, _ := testStore(t)

	if _, err := store.GetRule(context.Background(), "absent"); !errors.Is(err, types.ErrRuleNotFound) {
		t.Errorf("GetRule(absent) error = %v, want ErrRuleNotFound", err)
	}
	if err := store.DeleteRule(context.Background(), "absent"); !errors.Is(err, types.ErrRuleNotFound) {
		t.Errorf("DeleteRule(absent) error = %v, want ErrRuleNotFound", err)
	}
	err := store.UpdateRule(context.Background(), RuleRecord{
		RuleID: "absent", Conditions: `[]`, Actions: `[]`,
	})
	if !errors.Is(err, types.ErrRuleNotFound) {
		t.Errorf("UpdateRule(absent) error = %v, want ErrRuleNotFound", err)
	}
	if _, err := store.GetCoverageType(context.Background(), "absent"); !errors.Is(err, types.ErrCoverageTypeNotFound) {
		t.Errorf("GetCoverageType(absent) error = %v, want ErrCoverageTypeNotFound", err)
	}
}

func TestRuleStore_DeleteRule(t *testing.T) {
	store, _ := testStore(t)
	seedCoverageType(t, store, "ct")

	err := store.CreateRule(context.Background(), RuleRecord{
		RuleID:         "r1",
		CoverageTypeID: "ct",
		Name:           "deleteme",
		Kind:           string(types.RuleKindConditional),
		Conditions:     `[]`,
		Actions:        `[]`,
		IsActive:       true,
	})
	if err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}

	if err := store.DeleteRule(context.Background(), "r1"); err != nil {
		t.Fatalf("DeleteRule() error = %v", err)
	}
	if _, err := store.GetRule(context.Background(), "r1"); !errors.Is(err, types.ErrRuleNotFound) {
		t.Errorf("GetRule() after delete = %v, want ErrRuleNotFound", err)
	}
}

func TestRuleStore_CoverageTypes(t *testing.T) {
	store, _ := testStore(t)
	seedCoverageType(t, store, "ct-b")

	err := store.CreateCoverageType(context.Background(), CoverageTypeRecord{
		CoverageTypeID: "ct-a",
		Name:           "Baggage loss",
	})
	if err != nil {
		t.Fatalf("CreateCoverageType() error = %v", err)
	}

	all, err := store.ListCoverageTypes(context.Background())
	if err != nil {
		t.Fatalf("ListCoverageTypes() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	// Ordered by name
	if all[0].Name != "Baggage loss" {
		t.Errorf("order = [%s, %s]", all[0].Name, all[1].Name)
	}
}
