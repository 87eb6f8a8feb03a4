package sequencer

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrator applies pending schema migrations. *migrate.Migrate satisfies it.
// Individual migrations being transactional and idempotent is the migration
// system's contract, not this step's.
type Migrator interface {
	Up() error
}

// Migrate brings the database schema to the state required by the current
// image. A database already at the target schema is a no-op and succeeds.
// Open is called at step time, not construction time: connecting any earlier
// would race the database's own startup.
type Migrate struct {
	Open func() (Migrator, error)
}

func (Migrate) Name() string { return "migrate" }

func (m Migrate) Run(ctx context.Context) error {
	mig, err := m.Open()
	if err != nil {
		return err
	}
	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// NewMigrator opens the on-image migration directory against the runtime
// database URL.
func NewMigrator(dir, databaseURL string) (Migrator, error) {
	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	return m, nil
}
