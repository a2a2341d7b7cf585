package mysql

import (
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderjulianmartinez/tablecensus/internal/config"
)

func fixedUser(name string) func() (string, error) {
	return func() (string, error) { return name, nil }
}

func TestDSN_CurrentUser(t *testing.T) {
	d := Dialect{currentUser: fixedUser("etl")}

	dsn, err := d.DSN(config.Server{Name: "db1:3307"}, "")
	require.NoError(t, err)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "etl", cfg.User)
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "db1:3307", cfg.Addr)
	assert.Empty(t, cfg.DBName)
}

func TestDSN_OverrideAndDatabase(t *testing.T) {
	d := Dialect{currentUser: func() (string, error) { return "", errors.New("unused") }}

	dsn, err := d.DSN(config.Server{Name: "db1", DSN: "report:secret@tcp(db1:3306)/"}, "Analytics_Sales")
	require.NoError(t, err)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "report", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "Analytics_Sales", cfg.DBName)
}

func TestDSN_UserLookupFails(t *testing.T) {
	d := Dialect{currentUser: func() (string, error) { return "", errors.New("no passwd entry") }}
	_, err := d.DSN(config.Server{Name: "db1"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no passwd entry")
}

func TestErrorMessage(t *testing.T) {
	d := New()
	err := &mysql.MySQLError{Number: 1049, Message: "Unknown database 'Analytics_X'"}
	assert.Equal(t, "Unknown database 'Analytics_X'", d.ErrorMessage(err))
	assert.Equal(t, "bad connection", d.ErrorMessage(errors.New("bad connection")))
}

func TestUseStatement(t *testing.T) {
	d := New()
	assert.Equal(t, "USE `Analytics_Sales`", d.UseStatement("Analytics_Sales"))
	assert.Equal(t, "USE `a``b`", d.UseStatement("a`b"))
}
