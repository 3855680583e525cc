package logging

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// ComponentCtx is Component with the run ID from ctx attached up front, for
// loggers that outlive the events they are handed.
func ComponentCtx(ctx context.Context, name string) zerolog.Logger {
	c := log.With().Str("cmp", name)
	if id := GetRunID(ctx); id != "" {
		c = c.Str("run_id", id)
	}
	return c.Logger()
}
