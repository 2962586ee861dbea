// Command collabd runs the collaborative editing server: the document
// actor supervisor, the channel dispatcher, and the WebSocket transport,
// generalizing the teacher's main.go to the expanded dependency set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/peterbourgon/ff/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quilldoc/collabcore/config"
	"github.com/quilldoc/collabcore/document"
	"github.com/quilldoc/collabcore/hub"
	"github.com/quilldoc/collabcore/metrics"
	"github.com/quilldoc/collabcore/presence"
	"github.com/quilldoc/collabcore/snapshot"
	"github.com/quilldoc/collabcore/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	const envVarPrefix = "COLLABD"

	fs := flag.NewFlagSet("collabd", flag.ExitOnError)
	cfg := config.Default()
	cfg.BindFlags(fs)

	if err := ff.Parse(fs, slices.Clone(os.Args[1:]), ff.WithEnvVarPrefix(envVarPrefix)); err != nil {
		if errors.Is(err, ff.ErrHelp) {
			return nil
		}
		return err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newSnapshotStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("collabd: snapshot store: %w", err)
	}
	defer closeStore()

	sup := document.NewSupervisor(log, store)
	tracker := presence.NewInMemoryTracker()
	h := hub.New(sup, tracker, log)

	interval, err := time.ParseDuration(cfg.SnapshotInterval)
	if err != nil {
		return fmt.Errorf("collabd: invalid -snapshot-interval: %w", err)
	}
	go snapshotLoop(ctx, sup, interval)

	handler := transport.NewHandler(h, log)
	mainMux := http.NewServeMux()
	mainMux.Handle("/", handler)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}
	go func() {
		log.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", zap.Error(err))
		}
	}()

	srv := &http.Server{Addr: cfg.Addr, Handler: mainMux}
	errCh := make(chan error, 1)
	go func() {
		log.Info("collabd listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		metricsSrv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("collabd: invalid -log-level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// newSnapshotStore builds the configured snapshot backend and returns a
// close func the caller must defer, even for backends with nothing to
// close (a no-op func in that case).
func newSnapshotStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (snapshot.Store, func(), error) {
	noop := func() {}
	switch cfg.SnapshotBackend {
	case "", "memory":
		return snapshot.NewMemoryStore(), noop, nil
	case "firestore":
		if cfg.FirestoreProject == "" {
			return nil, noop, errors.New("collabd: -firestore-project is required when -snapshot-backend=firestore")
		}
		client, err := firestore.NewClient(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, noop, err
		}
		flushInterval, err := time.ParseDuration(cfg.CacheFlushInterval)
		if err != nil {
			return nil, noop, fmt.Errorf("collabd: invalid -cache-flush-interval: %w", err)
		}
		backing := snapshot.NewFirestoreStore(client)
		cached := snapshot.NewCachedStore(backing, flushInterval, log)
		return cached, cached.Close, nil
	default:
		return nil, noop, fmt.Errorf("collabd: unknown -snapshot-backend %q", cfg.SnapshotBackend)
	}
}

func snapshotLoop(ctx context.Context, sup *document.Supervisor, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sup.SnapshotAll(ctx)
		}
	}
}
