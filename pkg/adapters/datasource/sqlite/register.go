package sqlite

import (
	"github.com/vizly-bi/vizly-engine/pkg/adapters/datasource"
	"github.com/vizly-bi/vizly-engine/pkg/models"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Type:        models.ConnectionSQLite,
			DisplayName: "SQLite",
			Description: "Query a SQLite database file on the server",
			Icon:        "sqlite",
		},
		Factory: func(conn *models.Connection, password string) (datasource.Adapter, error) {
			return New(conn, password)
		},
	})
}
