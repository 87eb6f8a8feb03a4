// The entrypoint binary is the application container's main process. It runs
// the fixed startup sequence — collect static assets, wait for the database,
// apply migrations — and then replaces itself with the application server.
// Any step failure exits non-zero; the composition's restart policy is the
// only retry mechanism above this process.
package main

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/ersin/stackd/internal/config"
	"github.com/ersin/stackd/internal/logging"
	"github.com/ersin/stackd/internal/sequencer"
)

func main() {
	log := logging.New("entrypoint")

	cfg, err := config.LoadRuntime()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid runtime configuration")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("open database handle")
	}
	defer db.Close()

	runner := sequencer.New(log,
		sequencer.CollectStatic{
			Source: cfg.StaticSource,
			Target: cfg.StaticRoot,
		},
		sequencer.WaitForDatabase{
			DB:           db,
			InitialDelay: cfg.WaitDelay,
			Interval:     cfg.WaitInterval,
			MaxAttempts:  cfg.WaitAttempts,
		},
		sequencer.Migrate{
			Open: func() (sequencer.Migrator, error) {
				return sequencer.NewMigrator(cfg.MigrationsDir, cfg.Database.DSN())
			},
		},
		sequencer.ExecServer{
			Command: cfg.ServerCommand,
			Port:    cfg.ListenPort,
		},
	)

	if err := runner.Run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("startup sequence failed")
	}
}
