package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jcampos-dev/docindex/internal/analytics"
	"github.com/jcampos-dev/docindex/internal/cache"
	"github.com/jcampos-dev/docindex/internal/docs"
	"github.com/jcampos-dev/docindex/internal/server"
	"github.com/jcampos-dev/docindex/internal/store"
	"github.com/jcampos-dev/docindex/internal/transport"
	"github.com/jcampos-dev/docindex/pkg/config"
	"github.com/jcampos-dev/docindex/pkg/health"
	"github.com/jcampos-dev/docindex/pkg/kafka"
	"github.com/jcampos-dev/docindex/pkg/logger"
	"github.com/jcampos-dev/docindex/pkg/metrics"
	"github.com/jcampos-dev/docindex/pkg/postgres"
	"github.com/jcampos-dev/docindex/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config <file>] <document_folder> <cache_size>\n", os.Args[0])
		os.Exit(1)
	}
	docRootArg := flag.Arg(0)
	cacheSize, err := strconv.Atoi(flag.Arg(1))
	if err != nil || cacheSize < 0 {
		fmt.Fprintf(os.Stderr, "invalid cache size %q\n", flag.Arg(1))
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	root, err := docs.NewRoot(docRootArg)
	if err != nil {
		slog.Error("invalid document folder", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.IndexPath), 0o755); err != nil {
		slog.Error("creating storage directory", "error", err)
		os.Exit(1)
	}
	st := store.New(cfg.Storage.IndexPath)
	if err := st.Open(); err != nil {
		slog.Error("opening record store", "error", err)
		os.Exit(1)
	}

	c := cache.New(cacheSize)
	c.Load(cfg.Cache.PersistPath)

	xp, err := transport.Listen(transport.Config{
		RequestPath:  cfg.Transport.RequestPath,
		ReplyPattern: cfg.Transport.ReplyPattern,
	})
	if err != nil {
		slog.Error("opening transport", "error", err)
		st.Close()
		os.Exit(1)
	}

	var m *metrics.Metrics
	var stopMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		m = metrics.New()
		checker := health.NewChecker()
		checker.Register("record_store", func(ctx context.Context) health.ComponentHealth {
			if _, err := st.Total(); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
		checker.Register("docroot", func(ctx context.Context) health.ComponentHealth {
			if _, err := os.Stat(root.Dir()); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
		stopMetrics = metrics.StartServer(cfg.Metrics.Port, checker)
	}

	collector, stopCollector := setupAnalytics(cfg)

	srv := server.New(server.Options{
		Store:            st,
		Root:             root,
		Cache:            c,
		Transport:        xp,
		Metrics:          m,
		Collector:        collector,
		MaxWorkersPerCPU: cfg.Search.MaxWorkersPerCPU,
	})

	slog.Info("document index server started",
		"docroot", root.Dir(),
		"cache_size", cacheSize,
		"index", cfg.Storage.IndexPath,
		"fifo", cfg.Transport.RequestPath,
	)

	if err := srv.Run(); err != nil {
		slog.Error("server loop failed", "error", err)
	}

	// Shutdown: persist the cache, then release everything.
	if err := c.Persist(cfg.Cache.PersistPath); err != nil {
		slog.Error("persisting cache", "error", err)
	}
	if err := st.Close(); err != nil {
		slog.Error("closing record store", "error", err)
	}
	if err := xp.Close(); err != nil {
		slog.Error("closing transport", "error", err)
	}
	stopCollector()
	if stopMetrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stopMetrics(ctx); err != nil {
			slog.Error("stopping metrics server", "error", err)
		}
	}
	slog.Info("document index server stopped")
}

// setupAnalytics wires the optional event pipeline. It returns a nil
// collector only when analytics is disabled. When PostgreSQL is unreachable
// the collector runs without the snapshot sink; the Kafka producer is always
// created and is not probed here.
func setupAnalytics(cfg *config.Config) (*analytics.Collector, func()) {
	if !cfg.Analytics.Enabled {
		return nil, func() {}
	}

	var snapStore *analytics.Store
	var pg *postgres.Client
	err := resilience.Retry(context.Background(), "postgres-connect", resilience.RetryConfig{}, func() error {
		var err error
		pg, err = postgres.New(cfg.Analytics.Postgres)
		return err
	})
	if err != nil {
		slog.Warn("analytics snapshots disabled, postgres unavailable", "error", err)
	} else {
		snapStore = analytics.NewStore(pg)
	}

	producer := kafka.NewProducer(cfg.Analytics.Kafka)
	collector := analytics.NewCollector(producer, snapStore,
		cfg.Analytics.BufferSize, cfg.Analytics.SnapshotInterval)

	ctx, cancel := context.WithCancel(context.Background())
	collector.Start(ctx)

	stop := func() {
		collector.Close()
		cancel()
		if err := producer.Close(); err != nil {
			slog.Error("closing kafka producer", "error", err)
		}
		if pg != nil {
			pg.Close()
		}
	}
	return collector, stop
}
