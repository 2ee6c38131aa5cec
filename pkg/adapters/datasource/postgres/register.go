package postgres

import (
	"github.com/vizly-bi/vizly-engine/pkg/adapters/datasource"
	"github.com/vizly-bi/vizly-engine/pkg/models"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Type:        models.ConnectionPostgres,
			DisplayName: "PostgreSQL",
			Description: "Connect to PostgreSQL 12+, Aurora PostgreSQL, Supabase",
			Icon:        "postgres",
		},
		Factory: func(conn *models.Connection, password string) (datasource.Adapter, error) {
			return New(conn, password)
		},
	})
}
