package mysql

import (
	"errors"
	"fmt"
	"os/user"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/alexanderjulianmartinez/tablecensus/internal/config"
)

const listDatabasesQuery = `
		SELECT SCHEMA_NAME AS name
		FROM INFORMATION_SCHEMA.SCHEMATA
		ORDER BY SCHEMA_NAME
	`

// TABLE_ROWS is the storage engine's estimate, the closest MySQL has to the
// partition row counts SQL Server keeps.
const tableRowCountsQuery = `
		SELECT
			TABLE_NAME AS TableName,
			TABLE_ROWS AS ` + "`Rows`" + `,
			ROUND((DATA_LENGTH + INDEX_LENGTH) / 1024 / 1024) AS TotalSpaceMB,
			ROUND(DATA_LENGTH / 1024 / 1024) AS DataSpaceMB
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE()
			AND TABLE_TYPE = 'BASE TABLE'
			AND TABLE_ROWS > 0
		ORDER BY TABLE_NAME
	`

type Dialect struct {
	// currentUser names the OS account used when a server has no DSN.
	currentUser func() (string, error)
}

func New() Dialect {
	return Dialect{currentUser: osUser}
}

func osUser() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	// DOMAIN\user on Windows
	if i := strings.LastIndex(u.Username, `\`); i >= 0 {
		return u.Username[i+1:], nil
	}
	return u.Username, nil
}

func (Dialect) Name() string {
	return config.DriverMySQL
}

func (Dialect) Driver() string {
	return "mysql"
}

func (d Dialect) DSN(server config.Server, database string) (string, error) {
	var cfg *mysql.Config
	if server.DSN != "" {
		parsed, err := mysql.ParseDSN(server.DSN)
		if err != nil {
			return "", err
		}
		cfg = parsed
	} else {
		name, err := d.currentUser()
		if err != nil {
			return "", fmt.Errorf("resolve current user: %w", err)
		}
		cfg = mysql.NewConfig()
		cfg.User = name
		cfg.Net = "tcp"
		cfg.Addr = server.Name
	}
	if database != "" {
		cfg.DBName = database
	}
	return cfg.FormatDSN(), nil
}

func (Dialect) ListDatabasesQuery() string {
	return listDatabasesQuery
}

func (Dialect) TableRowCountsQuery() string {
	return tableRowCountsQuery
}

func (Dialect) UseStatement(database string) string {
	return "USE " + QuoteIdentifier(database)
}

func (Dialect) ErrorMessage(err error) string {
	var e *mysql.MySQLError
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
