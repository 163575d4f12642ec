package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/powerstrip/powerstrip/internal/config"
	"github.com/powerstrip/powerstrip/internal/engine"
	"github.com/powerstrip/powerstrip/internal/metrics"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	configPath := flag.String("config", "", "path to the adapter/endpoint configuration file")
	flag.Parse()

	if *configPath == "" {
		*configPath = os.Getenv(config.EnvConfigPath)
	}
	if *configPath == "" {
		*configPath = config.DefaultConfigPath
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("log_level", cfg.LogLevel).Msg("invalid log level")
	}
	log.Logger = log.Level(level)

	m := metrics.New()

	proxyHandler, err := engine.New(cfg, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct proxy")
	}

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      proxyHandler,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metricsMux,
	}

	go func() {
		log.Info().
			Str("listen_addr", cfg.ListenAddr).
			Str("upstream", cfg.Upstream.String()).
			Str("config", *configPath).
			Msg("starting powerstrip")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("proxy server exited unexpectedly")
		}
	}()

	go func() {
		log.Info().Str("metrics_addr", cfg.MetricsAddr).Msg("starting metrics listener")
		if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server exited unexpectedly")
		}
	}()

	waitForShutdown(context.Background(), []*http.Server{server, metricsServer}, cfg.GracefulShutdownTimeout)
}

func waitForShutdown(ctx context.Context, servers []*http.Server, timeout time.Duration) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	log.Info().Msg("shutting down powerstrip")

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Str("addr", srv.Addr).Msg("graceful shutdown failed; forcing close")
			if closeErr := srv.Close(); closeErr != nil {
				log.Error().Err(closeErr).Str("addr", srv.Addr).Msg("forced close failed")
			}
		}
	}

	log.Info().Msg("powerstrip stopped")
}
