package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vizly-bi/vizly-engine/pkg/adapters/datasource"
	"github.com/vizly-bi/vizly-engine/pkg/auth"
	"github.com/vizly-bi/vizly-engine/pkg/models"
	"github.com/vizly-bi/vizly-engine/pkg/services"
)

// authedRequest attaches claims for userID so handlers can resolve the
// current user without going through the auth middleware.
func authedRequest(r *http.Request, userID uuid.UUID, role string) *http.Request {
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
		Role:             role,
	}
	return r.WithContext(auth.WithClaims(r.Context(), claims))
}

// envelope mirrors the response wrapper for assertions.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to parse response envelope: %v", err)
	}
	return env
}

// mockAuthService is a mock implementation of services.AuthService.
type mockAuthService struct {
	user  *models.User
	token string
	err   error
}

func (m *mockAuthService) Register(ctx context.Context, email, password, name string) (*models.User, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.user, m.token, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.user, m.token, nil
}

func (m *mockAuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockAuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, name, email string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockAuthService) UpdatePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	return m.err
}

// mockUserService is a mock implementation of services.UserService.
type mockUserService struct {
	users []*models.User
	user  *models.User
	err   error
}

func (m *mockUserService) List(ctx context.Context) ([]*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users, nil
}

func (m *mockUserService) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockUserService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.err
}

// mockConnectionService is a mock implementation of services.ConnectionService.
type mockConnectionService struct {
	conn       *models.Connection
	conns      []*models.Connection
	schema     *datasource.SchemaInfo
	types      []datasource.AdapterInfo
	lastUpdate services.ConnectionUpdate
	testErr    error
	err        error
}

func (m *mockConnectionService) Create(ctx context.Context, userID uuid.UUID, conn *models.Connection, password string) (*models.Connection, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.conn, nil
}

func (m *mockConnectionService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Connection, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.conn, nil
}

func (m *mockConnectionService) List(ctx context.Context, userID uuid.UUID) ([]*models.Connection, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.conns, nil
}

func (m *mockConnectionService) Update(ctx context.Context, userID, id uuid.UUID, upd services.ConnectionUpdate) (*models.Connection, error) {
	m.lastUpdate = upd
	if m.err != nil {
		return nil, m.err
	}
	return m.conn, nil
}

func (m *mockConnectionService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.err
}

func (m *mockConnectionService) Test(ctx context.Context, userID, id uuid.UUID) error {
	return m.testErr
}

func (m *mockConnectionService) TestUnsaved(ctx context.Context, conn *models.Connection, password string) error {
	return m.testErr
}

func (m *mockConnectionService) Schema(ctx context.Context, userID, id uuid.UUID) (*datasource.SchemaInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.schema, nil
}

func (m *mockConnectionService) Types() []datasource.AdapterInfo {
	return m.types
}

// mockQueryService is a mock implementation of services.QueryService.
type mockQueryService struct {
	query      *models.Query
	queries    []*models.Query
	result     *datasource.QueryResult
	runs       []*models.QueryRun
	params     []string
	lastReq    services.ExecuteRequest
	lastUpdate services.QueryUpdate
	err        error
}

func (m *mockQueryService) Create(ctx context.Context, userID uuid.UUID, query *models.Query) (*models.Query, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.query, nil
}

func (m *mockQueryService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Query, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.query, nil
}

func (m *mockQueryService) List(ctx context.Context, userID uuid.UUID) ([]*models.Query, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.queries, nil
}

func (m *mockQueryService) Update(ctx context.Context, userID, id uuid.UUID, upd services.QueryUpdate) (*models.Query, error) {
	m.lastUpdate = upd
	if m.err != nil {
		return nil, m.err
	}
	return m.query, nil
}

func (m *mockQueryService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.err
}

func (m *mockQueryService) Execute(ctx context.Context, userID, id uuid.UUID, req services.ExecuteRequest) (*datasource.QueryResult, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockQueryService) Runs(ctx context.Context, userID, id uuid.UUID, limit int) ([]*models.QueryRun, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.runs, nil
}

func (m *mockQueryService) Parameters(ctx context.Context, userID, id uuid.UUID) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.params, nil
}

// mockVisualizationService is a mock implementation of services.VisualizationService.
type mockVisualizationService struct {
	viz  *models.Visualization
	list []*models.Visualization
	err  error
}

func (m *mockVisualizationService) Create(ctx context.Context, userID uuid.UUID, viz *models.Visualization) (*models.Visualization, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.viz, nil
}

func (m *mockVisualizationService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Visualization, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.viz, nil
}

func (m *mockVisualizationService) List(ctx context.Context, userID uuid.UUID) ([]*models.Visualization, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

func (m *mockVisualizationService) Update(ctx context.Context, userID, id uuid.UUID, upd services.VisualizationUpdate) (*models.Visualization, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.viz, nil
}

func (m *mockVisualizationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.err
}

// mockDashboardService is a mock implementation of services.DashboardService.
type mockDashboardService struct {
	dashboard *models.Dashboard
	list      []*models.Dashboard
	lastItems []*models.DashboardItem
	publicErr error
	err       error
}

func (m *mockDashboardService) Create(ctx context.Context, userID uuid.UUID, dashboard *models.Dashboard) (*models.Dashboard, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.dashboard, nil
}

func (m *mockDashboardService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Dashboard, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.dashboard, nil
}

func (m *mockDashboardService) GetPublic(ctx context.Context, id uuid.UUID) (*models.Dashboard, error) {
	if m.publicErr != nil {
		return nil, m.publicErr
	}
	return m.dashboard, nil
}

func (m *mockDashboardService) List(ctx context.Context, userID uuid.UUID) ([]*models.Dashboard, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

func (m *mockDashboardService) Update(ctx context.Context, userID, id uuid.UUID, upd services.DashboardUpdate) (*models.Dashboard, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.dashboard, nil
}

func (m *mockDashboardService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.err
}

func (m *mockDashboardService) ReplaceLayout(ctx context.Context, userID, dashboardID uuid.UUID, items []*models.DashboardItem) (*models.Dashboard, error) {
	m.lastItems = items
	if m.err != nil {
		return nil, m.err
	}
	return m.dashboard, nil
}
