package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vizly-bi/vizly-engine/pkg/adapters/datasource"
	"github.com/vizly-bi/vizly-engine/pkg/apperrors"
	"github.com/vizly-bi/vizly-engine/pkg/crypto"
	"github.com/vizly-bi/vizly-engine/pkg/logging"
	"github.com/vizly-bi/vizly-engine/pkg/models"
	"github.com/vizly-bi/vizly-engine/pkg/repositories"
	vizsql "github.com/vizly-bi/vizly-engine/pkg/sql"
)

// ExecuteRequest carries the optional knobs of an execute call.
type ExecuteRequest struct {
	Params map[string]any `json:"params"`
	Limit  int            `json:"limit"`
}

// QueryUpdate carries a partial update. Nil fields keep their stored
// values.
type QueryUpdate struct {
	ConnectionID *uuid.UUID `json:"connection_id"`
	Name         *string    `json:"name"`
	Description  *string    `json:"description"`
	SQL          *string    `json:"sql"`
}

// QueryService manages saved queries and their execution against external
// databases.
type QueryService interface {
	// Create validates and stores a query. The connection must belong to
	// the same user.
	Create(ctx context.Context, userID uuid.UUID, query *models.Query) (*models.Query, error)

	// Get retrieves a query owned by userID.
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Query, error)

	// List retrieves all queries for a user.
	List(ctx context.Context, userID uuid.UUID) ([]*models.Query, error)

	// Update applies a partial update to a query owned by userID. Fields
	// absent from the update keep their stored values; the merged result
	// is re-validated as a whole.
	Update(ctx context.Context, userID, id uuid.UUID, upd QueryUpdate) (*models.Query, error)

	// Delete removes a query owned by userID.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// Execute runs a query against its connection with bound parameters,
	// a row cap, and a statement timeout. Every call records a run.
	Execute(ctx context.Context, userID, id uuid.UUID, req ExecuteRequest) (*datasource.QueryResult, error)

	// Runs lists recent executions of a query, newest first.
	Runs(ctx context.Context, userID, id uuid.UUID, limit int) ([]*models.QueryRun, error)

	// Parameters reports the template parameter names a query declares.
	Parameters(ctx context.Context, userID, id uuid.UUID) ([]string, error)
}

type queryService struct {
	queries     repositories.QueryRepository
	connections repositories.ConnectionRepository
	runs        repositories.QueryRunRepository
	secrets     *crypto.SecretBox
	adapters    datasource.AdapterFactory
	maxRows     int
	timeout     time.Duration
	logger      *zap.Logger
}

// NewQueryService creates a new query service. maxRows caps result size on
// every execution; timeout bounds dial plus execute.
func NewQueryService(
	queries repositories.QueryRepository,
	connections repositories.ConnectionRepository,
	runs repositories.QueryRunRepository,
	secrets *crypto.SecretBox,
	adapters datasource.AdapterFactory,
	maxRows int,
	timeout time.Duration,
	logger *zap.Logger,
) QueryService {
	if maxRows <= 0 {
		maxRows = datasource.MaxQueryRows
	}
	return &queryService{
		queries:     queries,
		connections: connections,
		runs:        runs,
		secrets:     secrets,
		adapters:    adapters,
		maxRows:     maxRows,
		timeout:     timeout,
		logger:      logger,
	}
}

func (s *queryService) Create(ctx context.Context, userID uuid.UUID, query *models.Query) (*models.Query, error) {
	normalized, err := s.validateQuery(ctx, userID, query)
	if err != nil {
		return nil, err
	}
	query.SQLText = normalized

	query.UserID = userID
	if err := s.queries.Create(ctx, query); err != nil {
		return nil, err
	}

	return query, nil
}

func (s *queryService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Query, error) {
	return s.queries.GetByID(ctx, userID, id)
}

func (s *queryService) List(ctx context.Context, userID uuid.UUID) ([]*models.Query, error) {
	return s.queries.List(ctx, userID)
}

func (s *queryService) Update(ctx context.Context, userID, id uuid.UUID, upd QueryUpdate) (*models.Query, error) {
	query, err := s.queries.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if upd.ConnectionID != nil {
		query.ConnectionID = *upd.ConnectionID
	}
	if upd.Name != nil {
		query.Name = *upd.Name
	}
	if upd.Description != nil {
		query.Description = *upd.Description
	}
	if upd.SQL != nil {
		query.SQLText = *upd.SQL
	}

	normalized, err := s.validateQuery(ctx, userID, query)
	if err != nil {
		return nil, err
	}
	query.SQLText = normalized

	if err := s.queries.Update(ctx, userID, query); err != nil {
		return nil, err
	}

	return s.queries.GetByID(ctx, userID, id)
}

func (s *queryService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.queries.Delete(ctx, userID, id)
}

func (s *queryService) Execute(ctx context.Context, userID, id uuid.UUID, req ExecuteRequest) (*datasource.QueryResult, error) {
	query, err := s.queries.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	conn, encrypted, err := s.connections.GetByID(ctx, userID, query.ConnectionID)
	if err != nil {
		return nil, err
	}

	password, err := s.decrypt(encrypted)
	if err != nil {
		return nil, err
	}

	// Stored SQL was normalized on save; re-validate in case rows predate
	// the single-statement rule.
	validation := vizsql.ValidateAndNormalize(query.SQLText)
	if validation.Error != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, validation.Error)
	}

	if flagged := vizsql.CheckAllParameters(req.Params); len(flagged) > 0 {
		s.logger.Warn("query parameter failed injection screening",
			zap.String("query_id", id.String()),
			zap.String("param", flagged[0].ParamName),
			zap.String("fingerprint", flagged[0].Fingerprint))
		return nil, fmt.Errorf("%w: parameter %q", apperrors.ErrUnsafeParameter, flagged[0].ParamName)
	}

	adapter, err := s.adapters.NewAdapter(conn, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
	}
	defer adapter.Close()

	prepared, args, err := vizsql.SubstituteParameters(validation.NormalizedSQL, req.Params, adapter.PlaceholderStyle())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
	}

	limit := req.Limit
	if limit <= 0 || limit > s.maxRows {
		limit = s.maxRows
	}

	execCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, execErr := adapter.Execute(execCtx, prepared, args, limit)
	duration := time.Since(start)

	s.recordRun(ctx, query, userID, result, execErr, duration)

	if execErr != nil {
		s.logger.Info("query execution failed",
			zap.String("query_id", id.String()),
			zap.String("sql", logging.SanitizeQuery(query.SQLText)),
			zap.String("error", logging.SanitizeError(execErr)))
		return nil, fmt.Errorf("%w: %s", apperrors.ErrExecutionFailed, logging.SanitizeError(execErr))
	}

	s.logger.Debug("query executed",
		zap.String("query_id", id.String()),
		zap.Int("row_count", result.RowCount),
		zap.Duration("duration", duration))

	return result, nil
}

func (s *queryService) Runs(ctx context.Context, userID, id uuid.UUID, limit int) ([]*models.QueryRun, error) {
	// Ownership check; runs join through queries too, but a foreign query
	// should 404 rather than return an empty list.
	if _, err := s.queries.GetByID(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.runs.ListByQuery(ctx, userID, id, limit)
}

func (s *queryService) Parameters(ctx context.Context, userID, id uuid.UUID) ([]string, error) {
	query, err := s.queries.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return vizsql.ExtractParameters(query.SQLText), nil
}

// recordRun writes the execution record. Recording failures are logged and
// swallowed so history never breaks execution.
func (s *queryService) recordRun(ctx context.Context, query *models.Query, userID uuid.UUID, result *datasource.QueryResult, execErr error, duration time.Duration) {
	run := &models.QueryRun{
		QueryID:    query.ID,
		UserID:     userID,
		Status:     models.RunSuccess,
		DurationMs: duration.Milliseconds(),
	}
	if execErr != nil {
		run.Status = models.RunError
		run.ErrorMessage = logging.SanitizeError(execErr)
	} else if result != nil {
		run.RowCount = result.RowCount
	}

	if err := s.runs.Create(ctx, run); err != nil {
		s.logger.Warn("failed to record query run",
			zap.String("query_id", query.ID.String()),
			zap.Error(err))
	}
}

func (s *queryService) validateQuery(ctx context.Context, userID uuid.UUID, query *models.Query) (string, error) {
	if strings.TrimSpace(query.Name) == "" {
		return "", fmt.Errorf("%w: query name is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(query.SQLText) == "" {
		return "", fmt.Errorf("%w: sql is required", apperrors.ErrValidation)
	}

	validation := vizsql.ValidateAndNormalize(query.SQLText)
	if validation.Error != nil {
		return "", fmt.Errorf("%w: %s", apperrors.ErrValidation, validation.Error)
	}

	// The connection must exist and belong to the same user. A foreign
	// connection is indistinguishable from a missing one.
	if _, _, err := s.connections.GetByID(ctx, userID, query.ConnectionID); err != nil {
		return "", err
	}

	return validation.NormalizedSQL, nil
}

func (s *queryService) decrypt(encrypted string) (string, error) {
	password, err := s.secrets.Decrypt(encrypted)
	if err != nil {
		return "", apperrors.ErrSecretsKeyMismatch
	}
	return password, nil
}

var _ QueryService = (*queryService)(nil)
