// Package config loads and validates the adapter/endpoint configuration that
// drives the proxy, and resolves the operational knobs (listen address,
// upstream selector, timeouts) that control the surrounding daemon. The
// result is an immutable Config snapshot: one Config is built at startup and
// shared read-only by every in-flight request.
package config

import (
	"net/url"
	"time"

	"github.com/gobwas/glob"
)

// EndpointConfig is the resolved, ready-to-match configuration for one
// endpoint pattern: its compiled glob plus the ordered adapter name lists
// that the engine flattens into pre/post hook chains.
type EndpointConfig struct {
	Pattern string
	Glob    glob.Glob
	Pre     []string
	Post    []string
}

// UpstreamNetwork identifies the transport used to reach the Docker daemon.
type UpstreamNetwork string

const (
	UpstreamTCP  UpstreamNetwork = "tcp"
	UpstreamUnix UpstreamNetwork = "unix"
)

// UpstreamSelector names the Docker daemon the proxy forwards to.
type UpstreamSelector struct {
	Network UpstreamNetwork
	Address string
}

func (u UpstreamSelector) String() string {
	return string(u.Network) + "://" + u.Address
}

// Config is the immutable, fully-validated runtime configuration. Endpoints
// is kept sorted by Pattern so the matcher's fan-out over matching endpoints
// is deterministic across runs.
type Config struct {
	Endpoints []EndpointConfig
	Adapters  map[string]*url.URL

	Upstream UpstreamSelector

	ListenAddr              string
	MetricsAddr             string
	LogLevel                string
	RequestTimeout          time.Duration
	ServerReadTimeout       time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	GracefulShutdownTimeout time.Duration
}
