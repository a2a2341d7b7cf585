package mssql

import (
	"errors"
	"fmt"
	"testing"

	mssqldb "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderjulianmartinez/tablecensus/internal/config"
)

func TestDSN(t *testing.T) {
	d := Dialect{goos: "windows"}

	dsn, err := d.DSN(config.Server{Name: "WWMAVASQL01"}, "")
	require.NoError(t, err)
	assert.Equal(t, "server=WWMAVASQL01;app name=tablecensus", dsn)

	dsn, err = d.DSN(config.Server{Name: `HOST\INST`}, "Analytics_Sales")
	require.NoError(t, err)
	assert.Equal(t, `server=HOST\INST;app name=tablecensus;database=Analytics_Sales`, dsn)

	dsn, err = d.DSN(config.Server{Name: "x", DSN: "server=x;user id=sa;password=p"}, "")
	require.NoError(t, err)
	assert.Equal(t, "server=x;user id=sa;password=p", dsn)

	_, err = d.DSN(config.Server{Name: "x;user id=sa"}, "")
	require.Error(t, err)
}

func TestDSN_KerberosOffWindows(t *testing.T) {
	for _, goos := range []string{"linux", "darwin"} {
		d := Dialect{goos: goos}
		dsn, err := d.DSN(config.Server{Name: "WWMAVASQL01"}, "")
		require.NoError(t, err)
		assert.Equal(t, "server=WWMAVASQL01;app name=tablecensus;authenticator=krb5", dsn)
	}

	// an explicit DSN picks its own authentication
	d := Dialect{goos: "linux"}
	dsn, err := d.DSN(config.Server{Name: "x", DSN: "server=x;user id=sa;password=p"}, "")
	require.NoError(t, err)
	assert.NotContains(t, dsn, "authenticator")
}

func TestErrorMessage(t *testing.T) {
	d := New()
	offline := mssqldb.Error{Number: 942, Message: "Database 'Analytics_Off' cannot be opened because it is offline."}
	require.Equal(t, "mssql: "+offline.Message, offline.Error())

	assert.Equal(t, offline.Message, d.ErrorMessage(offline))
	assert.Equal(t, offline.Message, d.ErrorMessage(fmt.Errorf("use: %w", offline)))
	assert.Equal(t, offline.Message, d.ErrorMessage(&offline))
	assert.Equal(t, "i/o timeout", d.ErrorMessage(errors.New("i/o timeout")))
}

func TestUseStatement(t *testing.T) {
	d := New()
	assert.Equal(t, "USE [Analytics_Sales]", d.UseStatement("Analytics_Sales"))
	assert.Equal(t, "USE [odd]]name]", d.UseStatement("odd]name"))
}

func TestQueries(t *testing.T) {
	d := New()
	assert.Equal(t, "SELECT * FROM master.dbo.sysdatabases", d.ListDatabasesQuery())

	q := d.TableRowCountsQuery()
	for _, part := range []string{
		"t.NAME AS TableName",
		"p.[Rows]",
		"sys.allocation_units",
		"NOT LIKE 'dt%'",
		"i.OBJECT_ID > 255",
		"i.index_id <= 1",
		"p.[Rows] > 0",
	} {
		assert.Contains(t, q, part)
	}
}
