package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/adapters/datasource"
	"github.com/vizly-bi/vizly-engine/pkg/apperrors"
	"github.com/vizly-bi/vizly-engine/pkg/crypto"
	"github.com/vizly-bi/vizly-engine/pkg/models"
	vizsql "github.com/vizly-bi/vizly-engine/pkg/sql"
)

type queryServiceFixture struct {
	svc     QueryService
	queries *mockQueryRepository
	conns   *mockConnectionRepository
	runs    *mockQueryRunRepository
	adapter *mockAdapter
	secrets *crypto.SecretBox
	userID  uuid.UUID
	connID  uuid.UUID
}

func newQueryServiceFixture(t *testing.T) *queryServiceFixture {
	t.Helper()

	secrets, err := crypto.NewSecretBox("test-secrets-key", "")
	if err != nil {
		t.Fatalf("new secret box: %v", err)
	}

	f := &queryServiceFixture{
		queries: newMockQueryRepository(),
		conns:   newMockConnectionRepository(),
		runs:    &mockQueryRunRepository{},
		adapter: &mockAdapter{style: vizsql.PlaceholderDollar},
		secrets: secrets,
		userID:  uuid.New(),
	}

	encrypted, err := secrets.Encrypt("db-password")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	conn := &models.Connection{
		UserID:   f.userID,
		Name:     "main",
		Type:     models.ConnectionPostgres,
		Host:     "localhost",
		Database: "app",
	}
	if err := f.conns.Create(context.Background(), conn, encrypted); err != nil {
		t.Fatalf("seed connection: %v", err)
	}
	f.connID = conn.ID

	f.svc = NewQueryService(
		f.queries, f.conns, f.runs, secrets,
		&mockAdapterFactory{adapter: f.adapter},
		100, 5*time.Second, zap.NewNop(),
	)
	return f
}

func (f *queryServiceFixture) saveQuery(t *testing.T, sqlText string) *models.Query {
	t.Helper()
	query, err := f.svc.Create(context.Background(), f.userID, &models.Query{
		ConnectionID: f.connID,
		Name:         "test query",
		SQLText:      sqlText,
	})
	if err != nil {
		t.Fatalf("create query: %v", err)
	}
	return query
}

func TestQueryCreate_NormalizesSQL(t *testing.T) {
	f := newQueryServiceFixture(t)

	query := f.saveQuery(t, "SELECT 1;")
	if query.SQLText != "SELECT 1" {
		t.Errorf("trailing semicolon not stripped: %q", query.SQLText)
	}
}

func TestQueryCreate_RejectsMultipleStatements(t *testing.T) {
	f := newQueryServiceFixture(t)

	_, err := f.svc.Create(context.Background(), f.userID, &models.Query{
		ConnectionID: f.connID,
		Name:         "bad",
		SQLText:      "SELECT 1; DROP TABLE users",
	})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestQueryCreate_ForeignConnection(t *testing.T) {
	f := newQueryServiceFixture(t)

	_, err := f.svc.Create(context.Background(), f.userID, &models.Query{
		ConnectionID: uuid.New(),
		Name:         "orphan",
		SQLText:      "SELECT 1",
	})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown connection, got %v", err)
	}
}

func TestQueryUpdate_RenameOnly(t *testing.T) {
	f := newQueryServiceFixture(t)
	query := f.saveQuery(t, "SELECT 1")

	updated, err := f.svc.Update(context.Background(), f.userID, query.ID, QueryUpdate{Name: ptr("renamed")})
	if err != nil {
		t.Fatalf("rename-only update failed: %v", err)
	}

	if updated.Name != "renamed" {
		t.Errorf("name not updated: %q", updated.Name)
	}
	if updated.SQLText != "SELECT 1" {
		t.Errorf("sql changed on rename: %q", updated.SQLText)
	}
	if updated.ConnectionID != f.connID {
		t.Errorf("connection binding changed on rename: %s", updated.ConnectionID)
	}
}

func TestQueryUpdate_RevalidatesMergedSQL(t *testing.T) {
	f := newQueryServiceFixture(t)
	query := f.saveQuery(t, "SELECT 1")

	_, err := f.svc.Update(context.Background(), f.userID, query.ID, QueryUpdate{
		SQL: ptr("SELECT 1; DROP TABLE users"),
	})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestExecute_Success(t *testing.T) {
	f := newQueryServiceFixture(t)
	f.adapter.result = &datasource.QueryResult{
		Columns:  []datasource.ColumnInfo{{Name: "one", DataType: "INT4"}},
		Rows:     []map[string]any{{"one": 1}},
		RowCount: 1,
	}
	query := f.saveQuery(t, "SELECT 1 AS one")

	result, err := f.svc.Execute(context.Background(), f.userID, query.ID, ExecuteRequest{})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if result.RowCount != 1 || len(result.Rows) != result.RowCount {
		t.Errorf("row count mismatch: %+v", result)
	}
	if result.Columns[0].Name != "one" {
		t.Errorf("unexpected columns: %+v", result.Columns)
	}

	// Every execution leaves a run record.
	if len(f.runs.runs) != 1 {
		t.Fatalf("expected 1 run record, got %d", len(f.runs.runs))
	}
	run := f.runs.runs[0]
	if run.Status != models.RunSuccess || run.RowCount != 1 {
		t.Errorf("unexpected run record: %+v", run)
	}
}

func TestExecute_SubstitutesParameters(t *testing.T) {
	f := newQueryServiceFixture(t)
	query := f.saveQuery(t, "SELECT * FROM orders WHERE region = {{region}}")

	_, err := f.svc.Execute(context.Background(), f.userID, query.ID, ExecuteRequest{
		Params: map[string]any{"region": "EU"},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if f.adapter.lastQuery != "SELECT * FROM orders WHERE region = $1" {
		t.Errorf("parameters not substituted: %q", f.adapter.lastQuery)
	}
	if len(f.adapter.lastArgs) != 1 || f.adapter.lastArgs[0] != "EU" {
		t.Errorf("unexpected args: %v", f.adapter.lastArgs)
	}
}

func TestExecute_MissingParameter(t *testing.T) {
	f := newQueryServiceFixture(t)
	query := f.saveQuery(t, "SELECT * FROM orders WHERE region = {{region}}")

	_, err := f.svc.Execute(context.Background(), f.userID, query.ID, ExecuteRequest{})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestExecute_BlocksInjectionInParameters(t *testing.T) {
	f := newQueryServiceFixture(t)
	query := f.saveQuery(t, "SELECT * FROM orders WHERE region = {{region}}")

	_, err := f.svc.Execute(context.Background(), f.userID, query.ID, ExecuteRequest{
		Params: map[string]any{"region": "' OR '1'='1"},
	})
	if !errors.Is(err, apperrors.ErrUnsafeParameter) {
		t.Errorf("expected ErrUnsafeParameter, got %v", err)
	}
	if f.adapter.lastQuery != "" {
		t.Error("query reached the adapter despite failed screening")
	}
}

func TestExecute_CapsLimit(t *testing.T) {
	f := newQueryServiceFixture(t)
	query := f.saveQuery(t, "SELECT * FROM big_table")

	// Requested limit above the configured cap of 100.
	if _, err := f.svc.Execute(context.Background(), f.userID, query.ID, ExecuteRequest{Limit: 5000}); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if f.adapter.lastMaxRows != 100 {
		t.Errorf("limit not capped: %d", f.adapter.lastMaxRows)
	}

	// Requested limit below the cap passes through.
	if _, err := f.svc.Execute(context.Background(), f.userID, query.ID, ExecuteRequest{Limit: 10}); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if f.adapter.lastMaxRows != 10 {
		t.Errorf("explicit limit not honored: %d", f.adapter.lastMaxRows)
	}
}

func TestExecute_FailureRecordsRun(t *testing.T) {
	f := newQueryServiceFixture(t)
	f.adapter.executeErr = errors.New(`syntax error at or near "FORM"`)
	query := f.saveQuery(t, "SELECT * FORM orders")

	_, err := f.svc.Execute(context.Background(), f.userID, query.ID, ExecuteRequest{})
	if !errors.Is(err, apperrors.ErrExecutionFailed) {
		t.Fatalf("expected ErrExecutionFailed, got %v", err)
	}

	if len(f.runs.runs) != 1 {
		t.Fatalf("expected 1 run record, got %d", len(f.runs.runs))
	}
	run := f.runs.runs[0]
	if run.Status != models.RunError || run.ErrorMessage == "" {
		t.Errorf("unexpected run record: %+v", run)
	}
}

func TestExecute_ForeignQuery(t *testing.T) {
	f := newQueryServiceFixture(t)
	query := f.saveQuery(t, "SELECT 1")

	_, err := f.svc.Execute(context.Background(), uuid.New(), query.ID, ExecuteRequest{})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign user, got %v", err)
	}
}
