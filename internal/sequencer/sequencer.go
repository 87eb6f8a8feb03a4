// Package sequencer implements the ordered startup procedure run as the
// application container's main process: collect static assets, wait for the
// database, apply schema migrations, then exec the application server. Each
// step gates the next; the first failure aborts the sequence and the
// container exits non-zero. Nothing here retries above step level — the
// composition's restart policy is the only recovery mechanism.
package sequencer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Step is one stage of the startup sequence.
type Step interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner executes steps strictly in order.
type Runner struct {
	log   zerolog.Logger
	steps []Step
}

func New(log zerolog.Logger, steps ...Step) *Runner {
	return &Runner{log: log, steps: steps}
}

// Run executes every step in order and stops at the first failure. The final
// step is expected to replace the process and never return on success.
func (r *Runner) Run(ctx context.Context) error {
	for _, s := range r.steps {
		r.log.Info().Str("step", s.Name()).Msg("running")
		if err := s.Run(ctx); err != nil {
			return fmt.Errorf("step %s: %w", s.Name(), err)
		}
	}
	return nil
}
