package mysql

import (
	"github.com/vizly-bi/vizly-engine/pkg/adapters/datasource"
	"github.com/vizly-bi/vizly-engine/pkg/models"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Type:        models.ConnectionMySQL,
			DisplayName: "MySQL",
			Description: "Connect to MySQL 5.7+, MariaDB, Aurora MySQL",
			Icon:        "mysql",
		},
		Factory: func(conn *models.Connection, password string) (datasource.Adapter, error) {
			return New(conn, password)
		},
	})
}
