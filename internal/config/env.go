package config

import (
	"os"
	"strings"
	"time"
)

const (
	// EnvConfigPath names the environment variable cmd/powerstripd reads to
	// find the adapter/endpoint YAML file, absent an explicit -config flag.
	EnvConfigPath = "POWERSTRIP_CONFIG"

	envListenAddr         = "POWERSTRIP_LISTEN_ADDR"
	envMetricsAddr        = "POWERSTRIP_METRICS_ADDR"
	envUpstream           = "POWERSTRIP_UPSTREAM"
	envLogLevel           = "POWERSTRIP_LOG_LEVEL"
	envRequestTimeout     = "POWERSTRIP_REQUEST_TIMEOUT"
	envServerReadTimeout  = "POWERSTRIP_SERVER_READ_TIMEOUT"
	envServerWriteTimeout = "POWERSTRIP_SERVER_WRITE_TIMEOUT"
	envServerIdleTimeout  = "POWERSTRIP_SERVER_IDLE_TIMEOUT"
	envGracefulShutdown   = "POWERSTRIP_GRACEFUL_SHUTDOWN"

	// DefaultConfigPath is used when neither -config nor POWERSTRIP_CONFIG is set.
	DefaultConfigPath = "/etc/powerstrip/powerstrip.yml"

	defaultListenAddr         = "127.0.0.1:2375"
	defaultMetricsAddr        = "127.0.0.1:9090"
	defaultUpstream           = "unix:///var/run/docker.sock"
	defaultLogLevel           = "info"
	defaultRequestTimeout     = 30 * time.Second
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 0 // streaming/hijacked responses must not be write-deadlined
	defaultServerIdleTimeout  = 120 * time.Second
	defaultGracefulShutdown   = 10 * time.Second
)

// applyEnv overlays the operational knobs (as opposed to the adapter/endpoint
// schema, which only ever comes from the YAML file) from the environment,
// falling back to the package defaults. This mirrors the teacher's
// env-var-driven Config.Load, generalized to also parse the upstream
// selector.
func applyEnv(cfg *Config) {
	cfg.ListenAddr = getString(envListenAddr, defaultListenAddr)
	cfg.MetricsAddr = getString(envMetricsAddr, defaultMetricsAddr)
	cfg.Upstream = parseUpstream(getString(envUpstream, defaultUpstream))
	cfg.LogLevel = strings.ToLower(getString(envLogLevel, defaultLogLevel))
	cfg.RequestTimeout = getDuration(envRequestTimeout, defaultRequestTimeout)
	cfg.ServerReadTimeout = getDuration(envServerReadTimeout, defaultServerReadTimeout)
	cfg.ServerWriteTimeout = getDuration(envServerWriteTimeout, defaultServerWriteTimeout)
	cfg.ServerIdleTimeout = getDuration(envServerIdleTimeout, defaultServerIdleTimeout)
	cfg.GracefulShutdownTimeout = getDuration(envGracefulShutdown, defaultGracefulShutdown)
}

// parseUpstream accepts "unix:///path/to.sock", "tcp://host:port", or a bare
// "host:port" (treated as tcp, matching the common Docker -H shorthand).
func parseUpstream(raw string) UpstreamSelector {
	switch {
	case strings.HasPrefix(raw, "unix://"):
		return UpstreamSelector{Network: UpstreamUnix, Address: strings.TrimPrefix(raw, "unix://")}
	case strings.HasPrefix(raw, "tcp://"):
		return UpstreamSelector{Network: UpstreamTCP, Address: strings.TrimPrefix(raw, "tcp://")}
	default:
		return UpstreamSelector{Network: UpstreamTCP, Address: raw}
	}
}

func getString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
