package sequencer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDependencyNotReady reports that the database never answered within the
// probe's attempt budget. It is the one failure kind the sequencer
// distinguishes: everything else at this boundary (wrong credentials, wrong
// host) surfaces as whatever the driver returned.
var ErrDependencyNotReady = errors.New("dependency never became ready")

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// WaitForDatabase probes the database with a bounded retry loop instead of a
// blind sleep. InitialDelay is an optional grace period before the first
// probe; after that the probe pings at Interval up to MaxAttempts times.
type WaitForDatabase struct {
	DB           Pinger
	InitialDelay time.Duration
	Interval     time.Duration
	MaxAttempts  int
}

func (WaitForDatabase) Name() string { return "wait-for-database" }

func (w WaitForDatabase) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = time.Second
	}
	attempts := w.MaxAttempts
	if attempts <= 0 {
		attempts = 30
	}

	if w.InitialDelay > 0 {
		if err := sleep(ctx, w.InitialDelay); err != nil {
			return err
		}
	}

	var last error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := sleep(ctx, interval); err != nil {
				return err
			}
		}
		if last = w.DB.PingContext(ctx); last == nil {
			return nil
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrDependencyNotReady, attempts, last)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
