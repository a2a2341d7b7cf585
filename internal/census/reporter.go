// Package census inventories fact and dimension tables across database
// servers, writing one row-count report per server.
package census

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/alexanderjulianmartinez/tablecensus/internal/config"
	"github.com/alexanderjulianmartinez/tablecensus/internal/report"
	"github.com/alexanderjulianmartinez/tablecensus/internal/source"
	"github.com/alexanderjulianmartinez/tablecensus/internal/viewer"
	"github.com/alexanderjulianmartinez/tablecensus/pkg/types"
)

// Session is one open connection to a server's catalog.
type Session interface {
	Databases(ctx context.Context) ([]string, error)
	Use(ctx context.Context, database string) error
	EachTable(ctx context.Context, fn func(source.TableRow) error) error
	Close() error
}

type Opener interface {
	Open(ctx context.Context, server config.Server) (Session, error)
}

type Publisher interface {
	Publish(ctx context.Context, rows []types.TableRowStat) error
}

// ServerSummary counts what one server's run saw and wrote. RowsWritten is
// every report line below the header: tables plus failed databases.
type ServerSummary struct {
	Server           string
	ReportPath       string
	DatabasesSeen    int
	DatabasesMatched int
	DatabasesFailed  int
	TablesReported   int
	RowsWritten      int
}

type Reporter struct {
	cfg       *config.Config
	opener    Opener
	filter    Filter
	launcher  viewer.Launcher
	publisher Publisher
	log       logrus.FieldLogger
}

type Option func(*Reporter)

func WithLauncher(l viewer.Launcher) Option {
	return func(r *Reporter) { r.launcher = l }
}

func WithPublisher(p Publisher) Option {
	return func(r *Reporter) { r.publisher = p }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Reporter) { r.log = l }
}

func New(cfg *config.Config, opener Opener, opts ...Option) *Reporter {
	r := &Reporter{
		cfg:      cfg,
		opener:   opener,
		filter:   NewFilter(cfg.DatabasePrefix, cfg.TableKeywords),
		launcher: viewer.Nop{},
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reports every configured server in order. A fatal error on one server
// ends the run unless ContinueOnError is set, in which case the remaining
// servers are still reported and all errors are returned together.
func (r *Reporter) Run(ctx context.Context) ([]ServerSummary, error) {
	var (
		summaries []ServerSummary
		errs      []error
	)
	for _, server := range r.cfg.Servers {
		summary, err := r.RunServer(ctx, server)
		summaries = append(summaries, summary)
		if err != nil {
			err = fmt.Errorf("server %s: %w", server.Name, err)
			if !r.cfg.ContinueOnError {
				return summaries, err
			}
			r.log.WithError(err).Error("server report failed, continuing")
			errs = append(errs, err)
			continue
		}
		r.log.WithFields(logrus.Fields{
			"server":    summary.Server,
			"databases": summary.DatabasesMatched,
			"failed":    summary.DatabasesFailed,
			"tables":    summary.TablesReported,
			"rows":      summary.RowsWritten,
		}).Infof("wrote %s", summary.ReportPath)
	}
	return summaries, errors.Join(errs...)
}

// RunServer writes the report for one server. On a fatal error the partial
// report is still flushed and closed but is neither published nor opened.
func (r *Reporter) RunServer(ctx context.Context, server config.Server) (summary ServerSummary, err error) {
	summary = ServerSummary{
		Server:     server.Name,
		ReportPath: report.Path(r.cfg.ReportDir(), server.Name, r.cfg.FileSuffix),
	}
	log := r.log.WithField("server", server.Name)

	w, err := report.Create(summary.ReportPath, r.cfg.Format)
	if err != nil {
		return summary, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var rows []types.TableRowStat
	emit := func(row types.TableRowStat) error {
		if err := w.WriteRow(row); err != nil {
			return err
		}
		if r.publisher != nil {
			rows = append(rows, row)
		}
		return nil
	}

	err = r.inventory(ctx, server, &summary, emit, log)
	summary.RowsWritten = w.Rows()
	if err != nil {
		return summary, err
	}
	if err := w.Close(); err != nil {
		return summary, err
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, rows); err != nil {
			return summary, err
		}
	}
	if r.cfg.Open {
		if err := r.launcher.Launch(summary.ReportPath); err != nil {
			log.WithError(err).Warnf("could not open %s", summary.ReportPath)
		}
	}
	return summary, nil
}

func (r *Reporter) inventory(
	ctx context.Context,
	server config.Server,
	summary *ServerSummary,
	emit func(types.TableRowStat) error,
	log logrus.FieldLogger,
) error {
	sess, err := r.opener.Open(ctx, server)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer closeSession(sess, log)

	databases, err := sess.Databases(ctx)
	if err != nil {
		return fmt.Errorf("list databases: %w", err)
	}
	summary.DatabasesSeen = len(databases)

	for _, database := range databases {
		if !r.filter.MatchDatabase(database) {
			log.Debugf("skipping database %s", database)
			continue
		}
		summary.DatabasesMatched++

		res, err := r.inspect(ctx, sess, server, database, emit)
		if err != nil {
			return fmt.Errorf("database %s: %w", database, err)
		}
		if res.switchErr != nil {
			log.WithError(res.switchErr).Warnf("cannot use database %s", database)
			if err := emit(types.FailedDatabase(server.Name, database, res.switchErr)); err != nil {
				return err
			}
			summary.DatabasesFailed++
			continue
		}
		summary.TablesReported += res.tables
	}
	return nil
}

func closeSession(sess Session, log logrus.FieldLogger) {
	if err := sess.Close(); err != nil {
		log.WithError(err).Warn("close connection")
	}
}

// databaseResult is the outcome of one database: either its matching tables
// were emitted, or switching to it failed and that failure is reported in
// place of its tables.
type databaseResult struct {
	tables    int
	switchErr error
}

func (r *Reporter) inspect(
	ctx context.Context,
	sess Session,
	server config.Server,
	database string,
	emit func(types.TableRowStat) error,
) (databaseResult, error) {
	if err := sess.Use(ctx, database); err != nil {
		return databaseResult{switchErr: err}, nil
	}

	var res databaseResult
	err := sess.EachTable(ctx, func(row source.TableRow) error {
		if !r.filter.MatchTable(row.TableName) {
			return nil
		}
		res.tables++
		return emit(types.TableRowStat{
			Server:   server.Name,
			Database: database,
			Table:    row.TableName,
			RowCount: row.RowCount(),
		})
	})
	return res, err
}
