package source

import (
	"database/sql"

	"github.com/alexanderjulianmartinez/tablecensus/internal/config"
	"github.com/alexanderjulianmartinez/tablecensus/pkg/types"
)

// Dialect describes how to reach and query one database engine's catalog.
type Dialect interface {
	Name() string
	Driver() string
	// DSN builds the connection string for server. A non-empty database
	// selects that database at connect time.
	DSN(server config.Server, database string) (string, error)
	ListDatabasesQuery() string
	TableRowCountsQuery() string
	// UseStatement returns the statement that switches the session's
	// database, or "" when the engine needs a new connection instead.
	UseStatement(database string) string
	// ErrorMessage is the server's message for err without the driver's
	// decoration.
	ErrorMessage(err error) string
}

// UseError is a failed database switch. Its text is the server's message
// alone, since it is written into reports verbatim.
type UseError struct {
	Database string
	Message  string
	Err      error
}

func (e *UseError) Error() string {
	return e.Message
}

func (e *UseError) Unwrap() error {
	return e.Err
}

// TableRow is one row of the row-count catalog query. Queries may return
// more columns; only these two are read.
type TableRow struct {
	TableName string         `db:"TableName"`
	Rows      sql.NullString `db:"Rows"`
}

func (r TableRow) RowCount() string {
	if !r.Rows.Valid {
		return types.NullRowCount
	}
	return r.Rows.String
}

type databaseRow struct {
	Name string `db:"name"`
}
