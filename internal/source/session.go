package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/alexanderjulianmartinez/tablecensus/internal/config"
)

type Options struct {
	Queries config.Queries
	// ConnectTimeout bounds the initial ping. Zero leaves it to the driver.
	ConnectTimeout time.Duration
}

// Session holds one dedicated connection to a server. Switching database
// changes the state of that connection, so every statement goes through conn
// rather than the pool.
type Session struct {
	dialect Dialect
	server  config.Server
	opts    Options
	db      *sqlx.DB
	conn    *sqlx.Conn
}

func Open(ctx context.Context, dialect Dialect, server config.Server, opts Options) (*Session, error) {
	dsn, err := dialect.DSN(server, "")
	if err != nil {
		return nil, fmt.Errorf("build %s dsn: %w", dialect.Name(), err)
	}
	db, err := sqlx.Open(dialect.Driver(), dsn)
	if err != nil {
		return nil, err
	}
	return NewSession(ctx, dialect, server, opts, db)
}

// NewSession takes ownership of db and pins one connection from it.
func NewSession(ctx context.Context, dialect Dialect, server config.Server, opts Options, db *sqlx.DB) (*Session, error) {
	db = db.Unsafe()
	conn, err := connect(ctx, db, opts.ConnectTimeout)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s ping failed: %w", dialect.Name(), err)
	}
	return &Session{
		dialect: dialect,
		server:  server,
		opts:    opts,
		db:      db,
		conn:    conn,
	}, nil
}

func connect(ctx context.Context, db *sqlx.DB, timeout time.Duration) (*sqlx.Conn, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (s *Session) Databases(ctx context.Context) ([]string, error) {
	var rows []databaseRow
	if err := s.conn.SelectContext(ctx, &rows, s.listDatabasesQuery()); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	return names, nil
}

// Use switches the session to database. Failures are returned as *UseError.
func (s *Session) Use(ctx context.Context, database string) error {
	var err error
	if stmt := s.dialect.UseStatement(database); stmt != "" {
		_, err = s.conn.ExecContext(ctx, stmt)
	} else {
		err = s.reconnect(ctx, database)
	}
	if err != nil {
		return &UseError{Database: database, Message: s.dialect.ErrorMessage(err), Err: err}
	}
	return nil
}

func (s *Session) reconnect(ctx context.Context, database string) error {
	dsn, err := s.dialect.DSN(s.server, database)
	if err != nil {
		return err
	}
	db, err := sqlx.Open(s.dialect.Driver(), dsn)
	if err != nil {
		return err
	}
	db = db.Unsafe()
	conn, err := connect(ctx, db, s.opts.ConnectTimeout)
	if err != nil {
		db.Close()
		return err
	}

	// the old connection is only released once the new one is usable
	_ = s.close()
	s.db, s.conn = db, conn
	return nil
}

// EachTable streams the row-count query for the current database.
func (s *Session) EachTable(ctx context.Context, fn func(TableRow) error) error {
	rows, err := s.conn.QueryxContext(ctx, s.tableRowCountsQuery())
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var row TableRow
		if err := rows.StructScan(&row); err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Session) Close() error {
	err := s.close()
	s.conn, s.db = nil, nil
	return err
}

func (s *Session) close() error {
	var errs []error
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}

func (s *Session) listDatabasesQuery() string {
	if s.opts.Queries.ListDatabases != "" {
		return s.opts.Queries.ListDatabases
	}
	return s.dialect.ListDatabasesQuery()
}

func (s *Session) tableRowCountsQuery() string {
	if s.opts.Queries.TableRowCounts != "" {
		return s.opts.Queries.TableRowCounts
	}
	return s.dialect.TableRowCountsQuery()
}
