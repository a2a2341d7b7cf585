package census

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderjulianmartinez/tablecensus/internal/config"
)

type ServerCheck struct {
	Server    string
	Databases int
	Matching  []string
}

// Check connects to every server and lists the databases a run would
// inventory, without writing reports.
func (r *Reporter) Check(ctx context.Context) ([]ServerCheck, error) {
	var (
		checks []ServerCheck
		errs   []error
	)
	for _, server := range r.cfg.Servers {
		check, err := r.checkServer(ctx, server)
		if err != nil {
			err = fmt.Errorf("server %s: %w", server.Name, err)
			if !r.cfg.ContinueOnError {
				return checks, err
			}
			r.log.WithError(err).Error("server check failed, continuing")
			errs = append(errs, err)
			continue
		}
		checks = append(checks, check)
	}
	return checks, errors.Join(errs...)
}

func (r *Reporter) checkServer(ctx context.Context, server config.Server) (ServerCheck, error) {
	check := ServerCheck{Server: server.Name}

	sess, err := r.opener.Open(ctx, server)
	if err != nil {
		return check, fmt.Errorf("connect: %w", err)
	}
	defer closeSession(sess, r.log.WithField("server", server.Name))

	databases, err := sess.Databases(ctx)
	if err != nil {
		return check, fmt.Errorf("list databases: %w", err)
	}
	check.Databases = len(databases)
	for _, database := range databases {
		if r.filter.MatchDatabase(database) {
			check.Matching = append(check.Matching, database)
		}
	}
	return check, nil
}
