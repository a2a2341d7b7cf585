// Package postgres reads PostgreSQL catalogs. A connection is bound to one
// database for its lifetime, so switching database reconnects.
//
// Credentials come from the usual libpq sources (PGUSER, PGPASSWORD,
// ~/.pgpass) when a server has no explicit DSN.
package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/alexanderjulianmartinez/tablecensus/internal/config"
)

const listDatabasesQuery = `
		SELECT datname AS name
		FROM pg_database
		WHERE datallowconn AND NOT datistemplate
		ORDER BY datname
	`

const tableRowCountsQuery = `
		SELECT
			c.relname AS "TableName",
			c.reltuples::bigint AS "Rows",
			pg_total_relation_size(c.oid) / 1048576 AS "TotalSpaceMB",
			pg_relation_size(c.oid) / 1048576 AS "DataSpaceMB"
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind IN ('r', 'p')
			AND n.nspname NOT IN ('pg_catalog', 'information_schema')
			AND n.nspname NOT LIKE 'pg_toast%'
			AND c.reltuples > 0
		ORDER BY c.relname
	`

type Dialect struct{}

func New() Dialect {
	return Dialect{}
}

func (Dialect) Name() string {
	return config.DriverPostgres
}

func (Dialect) Driver() string {
	return "postgres"
}

func (Dialect) DSN(server config.Server, database string) (string, error) {
	dsn := server.DSN
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		converted, err := pq.ParseURL(dsn)
		if err != nil {
			return "", err
		}
		dsn = converted
	}
	if dsn == "" {
		dsn = "host=" + quoteValue(server.Name) + " application_name=tablecensus"
	}
	if database != "" {
		// later keys win in libpq connection strings
		dsn = fmt.Sprintf("%s dbname=%s", dsn, quoteValue(database))
	}
	return dsn, nil
}

func (Dialect) ListDatabasesQuery() string {
	return listDatabasesQuery
}

func (Dialect) TableRowCountsQuery() string {
	return tableRowCountsQuery
}

func (Dialect) UseStatement(string) string {
	return ""
}

func (Dialect) ErrorMessage(err error) string {
	var e *pq.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
