// Package ctxlog provides the small per-component, per-request logger
// construction helpers used throughout the proxy, following the teacher's
// convention of building a component-scoped zerolog.Logger once and deriving
// request-scoped child loggers from it with With().
package ctxlog

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component returns a logger tagged with the given component name, the base
// every package builds its loggers from.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// Request derives a child logger scoped to one in-flight HTTP request.
func Request(base zerolog.Logger, method, path, remoteAddr string) zerolog.Logger {
	return base.With().
		Str("method", method).
		Str("path", path).
		Str("remote_addr", remoteAddr).
		Logger()
}
