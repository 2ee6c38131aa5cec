package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/vizly-bi/vizly-engine/pkg/adapters/datasource"
	"github.com/vizly-bi/vizly-engine/pkg/apperrors"
	"github.com/vizly-bi/vizly-engine/pkg/models"
	vizsql "github.com/vizly-bi/vizly-engine/pkg/sql"
)

func ptr[T any](v T) *T { return &v }

// mockUserRepository is an in-memory UserRepository.
type mockUserRepository struct {
	users map[uuid.UUID]*models.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[uuid.UUID]*models.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return apperrors.ErrEmailTaken
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	for _, user := range m.users {
		users = append(users, user)
	}
	return users, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) error {
	user, ok := m.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.Name = name
	user.Email = email
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	user, ok := m.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	user, ok := m.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if user.Role == models.RoleAdmin && role != models.RoleAdmin && m.adminCount() == 1 {
		return apperrors.ErrLastAdmin
	}
	user.Role = role
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	user, ok := m.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if user.Role == models.RoleAdmin && m.adminCount() == 1 {
		return apperrors.ErrLastAdmin
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepository) adminCount() int {
	count := 0
	for _, user := range m.users {
		if user.Role == models.RoleAdmin {
			count++
		}
	}
	return count
}

// mockConnectionRepository is an in-memory ConnectionRepository.
type mockConnectionRepository struct {
	connections map[uuid.UUID]*models.Connection
	passwords   map[uuid.UUID]string
}

func newMockConnectionRepository() *mockConnectionRepository {
	return &mockConnectionRepository{
		connections: make(map[uuid.UUID]*models.Connection),
		passwords:   make(map[uuid.UUID]string),
	}
}

func (m *mockConnectionRepository) Create(ctx context.Context, conn *models.Connection, encryptedPassword string) error {
	for _, existing := range m.connections {
		if existing.UserID == conn.UserID && existing.Name == conn.Name {
			return apperrors.ErrConflict
		}
	}
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	m.connections[conn.ID] = conn
	m.passwords[conn.ID] = encryptedPassword
	return nil
}

func (m *mockConnectionRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Connection, string, error) {
	conn, ok := m.connections[id]
	if !ok || conn.UserID != userID {
		return nil, "", apperrors.ErrNotFound
	}
	return conn, m.passwords[id], nil
}

func (m *mockConnectionRepository) List(ctx context.Context, userID uuid.UUID) ([]*models.Connection, error) {
	var result []*models.Connection
	for _, conn := range m.connections {
		if conn.UserID == userID {
			result = append(result, conn)
		}
	}
	return result, nil
}

func (m *mockConnectionRepository) Update(ctx context.Context, userID uuid.UUID, conn *models.Connection, encryptedPassword string) error {
	existing, ok := m.connections[conn.ID]
	if !ok || existing.UserID != userID {
		return apperrors.ErrNotFound
	}
	conn.UserID = userID
	m.connections[conn.ID] = conn
	if encryptedPassword != "" {
		m.passwords[conn.ID] = encryptedPassword
	}
	return nil
}

func (m *mockConnectionRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	conn, ok := m.connections[id]
	if !ok || conn.UserID != userID {
		return apperrors.ErrNotFound
	}
	delete(m.connections, id)
	delete(m.passwords, id)
	return nil
}

// mockQueryRepository is an in-memory QueryRepository.
type mockQueryRepository struct {
	queries map[uuid.UUID]*models.Query
}

func newMockQueryRepository() *mockQueryRepository {
	return &mockQueryRepository{queries: make(map[uuid.UUID]*models.Query)}
}

func (m *mockQueryRepository) Create(ctx context.Context, query *models.Query) error {
	if query.ID == uuid.Nil {
		query.ID = uuid.New()
	}
	m.queries[query.ID] = query
	return nil
}

func (m *mockQueryRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Query, error) {
	query, ok := m.queries[id]
	if !ok || query.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return query, nil
}

func (m *mockQueryRepository) List(ctx context.Context, userID uuid.UUID) ([]*models.Query, error) {
	var result []*models.Query
	for _, query := range m.queries {
		if query.UserID == userID {
			result = append(result, query)
		}
	}
	return result, nil
}

func (m *mockQueryRepository) Update(ctx context.Context, userID uuid.UUID, query *models.Query) error {
	existing, ok := m.queries[query.ID]
	if !ok || existing.UserID != userID {
		return apperrors.ErrNotFound
	}
	query.UserID = userID
	m.queries[query.ID] = query
	return nil
}

func (m *mockQueryRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query, ok := m.queries[id]
	if !ok || query.UserID != userID {
		return apperrors.ErrNotFound
	}
	delete(m.queries, id)
	return nil
}

// mockQueryRunRepository records runs in memory.
type mockQueryRunRepository struct {
	runs []*models.QueryRun
}

func (m *mockQueryRunRepository) Create(ctx context.Context, run *models.QueryRun) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockQueryRunRepository) ListByQuery(ctx context.Context, userID, queryID uuid.UUID, limit int) ([]*models.QueryRun, error) {
	var result []*models.QueryRun
	for _, run := range m.runs {
		if run.QueryID == queryID {
			result = append(result, run)
		}
	}
	return result, nil
}

// mockAdapter is a scripted datasource.Adapter.
type mockAdapter struct {
	testErr    error
	executeErr error
	result     *datasource.QueryResult
	schema     *datasource.SchemaInfo
	style      vizsql.PlaceholderStyle

	lastQuery   string
	lastArgs    []any
	lastMaxRows int
}

func (m *mockAdapter) TestConnection(ctx context.Context) error { return m.testErr }

func (m *mockAdapter) Execute(ctx context.Context, query string, args []any, maxRows int) (*datasource.QueryResult, error) {
	m.lastQuery = query
	m.lastArgs = args
	m.lastMaxRows = maxRows
	if m.executeErr != nil {
		return nil, m.executeErr
	}
	if m.result != nil {
		return m.result, nil
	}
	return &datasource.QueryResult{Columns: []datasource.ColumnInfo{}, Rows: []map[string]any{}}, nil
}

func (m *mockAdapter) Schema(ctx context.Context) (*datasource.SchemaInfo, error) {
	if m.schema != nil {
		return m.schema, nil
	}
	return &datasource.SchemaInfo{}, nil
}

func (m *mockAdapter) PlaceholderStyle() vizsql.PlaceholderStyle { return m.style }
func (m *mockAdapter) Close() error                              { return nil }

// mockAdapterFactory returns the same adapter for every connection.
type mockAdapterFactory struct {
	adapter *mockAdapter
	err     error
}

func (f *mockAdapterFactory) NewAdapter(conn *models.Connection, password string) (datasource.Adapter, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.adapter, nil
}

func (f *mockAdapterFactory) ListTypes() []datasource.AdapterInfo {
	return []datasource.AdapterInfo{{Type: "postgres", DisplayName: "PostgreSQL"}}
}
