package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/seismoscope/quakeview/internal/adapter/httpapi"
	"github.com/seismoscope/quakeview/internal/adapter/nominatim"
	"github.com/seismoscope/quakeview/internal/adapter/stream"
	"github.com/seismoscope/quakeview/internal/adapter/usgs"
	"github.com/seismoscope/quakeview/internal/config"
	"github.com/seismoscope/quakeview/internal/observability"
	"github.com/seismoscope/quakeview/internal/viewstate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		ServiceName: cfg.TracingServiceName,
		Exporter:    cfg.TracingExporter,
		Endpoint:    cfg.TracingEndpoint,
		SampleRatio: cfg.TracingSampleRatio,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	feed := usgs.NewClient(cfg.FeedURL, cfg.FeedTimeout, metrics, logger)

	geocoder := nominatim.NewClient(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout, metrics, logger)
	searcher := nominatim.NewCachedSearcher(geocoder, cfg.SuggestionCacheSize, metrics)

	// Mirror stream (feature-flagged via KAFKA_MIRROR_TOPIC).
	var mirror *stream.Writer
	ctrlCfg := viewstate.Config{
		DebounceInterval: cfg.DebounceInterval,
		SuggestionLimit:  cfg.SuggestionLimit,
	}
	if cfg.MirrorEnabled {
		mirror = stream.NewWriter(cfg.KafkaBrokers, cfg.KafkaMirrorTopic, clockwork.NewRealClock(), logger)
		ctrlCfg.Stream = mirror
		logger.Info("event mirror enabled", "topic", cfg.KafkaMirrorTopic, "brokers", cfg.KafkaBrokers)
	}

	controller := viewstate.New(feed, searcher, ctrlCfg, logger, metrics)

	srv := httpapi.NewServer(cfg.HTTPAddr, controller, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// One-shot initial load. A failure is terminal for the session: the error
	// is surfaced through the state and readiness endpoints, no retry.
	go func() {
		if err := controller.Load(ctx); err != nil {
			logger.Error("initial load failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if mirror != nil {
		if err := mirror.Close(); err != nil {
			logger.Error("mirror writer close error", "error", err)
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
