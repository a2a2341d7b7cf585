// Package mssql reads SQL Server catalogs. Connections without a user id use
// integrated authentication: SSPI on Windows, Kerberos elsewhere.
package mssql

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	mssqldb "github.com/microsoft/go-mssqldb"
	_ "github.com/microsoft/go-mssqldb/integratedauth/krb5"

	"github.com/alexanderjulianmartinez/tablecensus/internal/config"
)

const appName = "tablecensus"

const listDatabasesQuery = `SELECT * FROM master.dbo.sysdatabases`

// tableRowCountsQuery reports, per table, the clustered index or heap row
// count and its page usage.
const tableRowCountsQuery = `SELECT
    t.NAME AS TableName,
    i.name AS indexName,
    p.[Rows],
    SUM(a.total_pages) AS TotalPages,
    SUM(a.used_pages) AS UsedPages,
    SUM(a.data_pages) AS DataPages,
    (SUM(a.total_pages) * 8) / 1024 AS TotalSpaceMB,
    (SUM(a.used_pages) * 8) / 1024 AS UsedSpaceMB,
    (SUM(a.data_pages) * 8) / 1024 AS DataSpaceMB
FROM
    sys.tables t
INNER JOIN
    sys.indexes i ON t.OBJECT_ID = i.object_id
INNER JOIN
    sys.partitions p ON i.object_id = p.OBJECT_ID AND i.index_id = p.index_id
INNER JOIN
    sys.allocation_units a ON p.partition_id = a.container_id
WHERE
    t.NAME NOT LIKE 'dt%' AND
    i.OBJECT_ID > 255 AND
    i.index_id <= 1 AND
    p.[Rows] > 0
GROUP BY
    t.NAME, i.object_id, i.index_id, i.name, p.[Rows]
ORDER BY
    OBJECT_NAME(i.object_id)`

type Dialect struct {
	goos string
}

func New() Dialect {
	return Dialect{goos: runtime.GOOS}
}

func (Dialect) Name() string {
	return config.DriverMSSQL
}

func (Dialect) Driver() string {
	return "sqlserver"
}

func (d Dialect) DSN(server config.Server, database string) (string, error) {
	dsn := server.DSN
	if dsn == "" {
		if strings.ContainsAny(server.Name, ";=") {
			return "", fmt.Errorf("invalid server name %q", server.Name)
		}
		dsn = fmt.Sprintf("server=%s;app name=%s", server.Name, appName)
		// the driver defaults to NTLM off Windows, which needs a user id
		if d.goos != "windows" {
			dsn += ";authenticator=krb5"
		}
	}
	if database != "" {
		dsn += ";database=" + database
	}
	return dsn, nil
}

func (Dialect) ListDatabasesQuery() string {
	return listDatabasesQuery
}

func (Dialect) TableRowCountsQuery() string {
	return tableRowCountsQuery
}

func (Dialect) UseStatement(database string) string {
	return "USE " + QuoteName(database)
}

// ErrorMessage strips the driver's "mssql: " prefix so recorded failures carry
// the server's own message text.
func (Dialect) ErrorMessage(err error) string {
	var e mssqldb.Error
	if errors.As(err, &e) {
		return e.Message
	}
	var pe *mssqldb.Error
	if errors.As(err, &pe) && pe != nil {
		return pe.Message
	}
	return err.Error()
}

// QuoteName brackets an identifier the way T-SQL QUOTENAME does.
func QuoteName(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
