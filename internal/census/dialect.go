package census

import (
	"context"
	"fmt"

	"github.com/alexanderjulianmartinez/tablecensus/internal/config"
	"github.com/alexanderjulianmartinez/tablecensus/internal/source"
	"github.com/alexanderjulianmartinez/tablecensus/internal/source/mssql"
	"github.com/alexanderjulianmartinez/tablecensus/internal/source/mysql"
	"github.com/alexanderjulianmartinez/tablecensus/internal/source/postgres"
)

func DialectFor(driver string) (source.Dialect, error) {
	switch driver {
	case config.DriverMSSQL:
		return mssql.New(), nil
	case config.DriverMySQL:
		return mysql.New(), nil
	case config.DriverPostgres:
		return postgres.New(), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}

// SQLOpener opens catalog sessions against real servers.
type SQLOpener struct {
	dialect source.Dialect
	opts    source.Options
}

func NewSQLOpener(cfg *config.Config) (*SQLOpener, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	return &SQLOpener{
		dialect: dialect,
		opts: source.Options{
			Queries:        cfg.Queries,
			ConnectTimeout: cfg.ConnectTimeout,
		},
	}, nil
}

func (o *SQLOpener) Open(ctx context.Context, server config.Server) (Session, error) {
	s, err := source.Open(ctx, o.dialect, server, o.opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}
