// Command ingestd runs the auction-market ingest loop of spec §4.F: it
// polls the upstream auction feed, maintains the auctions/sales tables,
// and exposes /healthz and /metrics for operational visibility, scheduled
// by robfig/cron/v3.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"auctionintel/internal/config"
	"auctionintel/internal/cronrunner"
	"auctionintel/internal/ingest"
	"auctionintel/internal/store"
	"auctionintel/internal/upstream"
)

func main() {
	once := flag.Bool("once", false, "run a single ingest cycle and exit")
	repair := flag.Bool("repair", false, "run the stale-auction repair tool once and exit")
	flag.Parse()

	cfg := config.Load()

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.DatabaseURL == "" {
		sugar.Fatalw("DATABASE_URL is required")
	}

	pool, err := store.MustOpenPool(ctx, cfg.DatabaseURL, 8)
	if err != nil {
		sugar.Fatalw("open pool", "error", err)
	}
	defer pool.Close()

	st := store.New(pool)
	if err := st.EnsureSchema(ctx); err != nil {
		sugar.Fatalw("ensure schema", "error", err)
	}

	feed := buildFeed(cfg)
	loop := ingest.NewLoop(feed, st, sugar)
	loop.MaxPages = cfg.MaxPages
	loop.UnseenGrace = cfg.UnseenGrace
	loop.FinalizeBatch = cfg.FinalizeBatch
	loop.BackfillBatch = cfg.BackfillBatch

	if *repair {
		n, err := loop.Repair(ctx, st)
		if err != nil {
			sugar.Fatalw("repair", "error", err)
		}
		sugar.Infow("repair complete", "resurrected", n)
		return
	}

	if *once {
		if err := loop.RunOnce(ctx); err != nil {
			sugar.Fatalw("ingest cycle", "error", err)
		}
		return
	}

	runDaemon(ctx, cfg, sugar, loop)
}

func buildLogger(cfg config.Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.LogLevel))); err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	zc := zap.Config{
		Level:            level,
		Encoding:         cfg.LogEncoding,
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.LogEncoding == "console" {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return zc.Build()
}

func buildFeed(cfg config.Config) ingest.Feed {
	if cfg.MockUpstream {
		return upstream.NewMockFeed()
	}
	f, err := upstream.NewHTTPFeed(upstream.HTTPFeedOptions{
		BaseURL: cfg.UpstreamBase,
		APIKey:  cfg.UpstreamKey,
	})
	if err != nil {
		panic(fmt.Sprintf("build upstream feed: %v", err))
	}
	return f
}

// runDaemon schedules recurring cycles under robfig/cron/v3 and serves
// /healthz + /metrics until SIGINT/SIGTERM, then finishes the in-flight
// cycle with a 20s cap before exiting (spec §5).
func runDaemon(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger, loop *ingest.Loop) {
	var ready int32

	// Cycles run under cycleCtx, not ctx, so a signal lets the in-flight one finish.
	cycleCtx, cancelCycles := context.WithCancel(context.Background())
	defer cancelCycles()

	runner := cronrunner.New(logger.Desugar(), cycleCtx)
	spec := fmt.Sprintf("@every %s", cfg.IngestInterval)
	if _, err := runner.Add(spec, func(jobCtx context.Context) {
		atomic.StoreInt32(&ready, 1)
		if err := loop.RunOnce(jobCtx); err != nil {
			logger.Errorw("scheduled ingest cycle failed", "error", err)
		}
	}); err != nil {
		logger.Fatalw("schedule ingest loop", "error", err)
	}
	runner.Start()

	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: healthzMux(&ready)}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("metrics server", "error", err)
		}
	}()

	logger.Infow("ingestd started", "interval", cfg.IngestInterval, "metrics_addr", cfg.MetricsAddr, "mock_upstream", cfg.MockUpstream)

	<-ctx.Done()
	logger.Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	stopped := make(chan struct{})
	go func() { runner.Stop(); close(stopped) }()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		cancelCycles()
		<-stopped
	}
}

func healthzMux(ready *int32) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprintf(w, "auctionintel_ready %d\n", atomic.LoadInt32(ready))
	})
	return mux
}
