package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/obsidianstack/healthwatch/internal/api"
	"github.com/obsidianstack/healthwatch/internal/config"
	"github.com/obsidianstack/healthwatch/internal/monitor"
	"github.com/obsidianstack/healthwatch/internal/remediation"
	"github.com/obsidianstack/healthwatch/internal/sink"
	"github.com/obsidianstack/healthwatch/internal/source"
	"github.com/obsidianstack/healthwatch/internal/store"
	"github.com/obsidianstack/healthwatch/internal/telemetry"
	"github.com/obsidianstack/healthwatch/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file; empty uses built-in defaults")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the config; ignored if missing")
	logLevel := flag.String("log-level", "info", "debug | info | warn | error")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load env file", "path", *envFile, "err", err)
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
	}

	slog.Info("healthwatch starting",
		"config", *configPath,
		"source", cfg.Source.Type,
		"tick", cfg.Monitor.Tick,
		"sampling_period", cfg.Monitor.SamplingPeriod,
		"retention_days", cfg.Monitor.RetentionDays,
		"webhooks", len(cfg.Notify.Webhooks),
		"http_addr", cfg.HTTP.Addr,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	src, err := source.New(cfg.Source)
	if err != nil {
		slog.Error("failed to create metric source", "err", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.New(registry)

	st := store.New(cfg.HTTP.NotificationTTL)
	go st.Run(ctx)

	hub := ws.New(st, cfg.HTTP.BroadcastInterval)
	webhook := sink.NewWebhook(cfg.Notify)

	seed := time.Now().UnixNano()
	sim := remediation.New(
		remediation.NewCommitHash(seed),
		rand.New(rand.NewSource(seed+1)),
		cfg.Alerting.RemediationMaxMultiple,
	)

	mon := monitor.New(cfg, monitor.Deps{
		Source:    src,
		Simulator: sim,
		Notifier:  sink.Fanout{sink.NewLogNotifier(logger), st, hub, webhook},
		Metrics:   metrics,
		Store:     st,
	})

	// The monitor and alerting sections hot-reload; source, notify and http
	// settings need a restart.
	if *configPath != "" {
		go func() {
			if err := config.Watch(ctx, *configPath, mon.Reload); err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	var httpSrv *http.Server
	if cfg.HTTP.Addr != "" {
		go hub.Run(ctx)

		mux := http.NewServeMux()
		mux.Handle("/api/", api.New(st))
		mux.Handle("/ws/stream", hub)
		mux.Handle("/metrics", metrics.Handler())

		httpSrv = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("HTTP server listening", "addr", cfg.HTTP.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("HTTP server stopped", "err", err)
			}
		}()
	}

	if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("monitor stopped", "err", err)
	}

	slog.Info("healthwatch shutting down")
	if httpSrv != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	}
	webhook.Wait()
}
