package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the component logger used by the stackd binaries.
func New(component string) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).With().Timestamp().Str("component", component).Logger()
}
