package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/searchlab/termindex/internal/analytics"
	"github.com/searchlab/termindex/internal/builder"
	"github.com/searchlab/termindex/internal/index"
	"github.com/searchlab/termindex/internal/query"
	"github.com/searchlab/termindex/internal/server"
	"github.com/searchlab/termindex/internal/server/cache"
	"github.com/searchlab/termindex/internal/source"
	"github.com/searchlab/termindex/pkg/config"
	"github.com/searchlab/termindex/pkg/health"
	"github.com/searchlab/termindex/pkg/kafka"
	"github.com/searchlab/termindex/pkg/logger"
	"github.com/searchlab/termindex/pkg/metrics"
	"github.com/searchlab/termindex/pkg/middleware"
	"github.com/searchlab/termindex/pkg/postgres"
	pkgredis "github.com/searchlab/termindex/pkg/redis"
	"github.com/searchlab/termindex/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting term index service", "port", cfg.Server.Port, "sources", len(cfg.Sources))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(shutdownCtx)
		}()
	}

	var pg *postgres.Client
	if cfg.NeedsPostgres() {
		err := resilience.Retry(ctx, "postgres-connect", resilience.Policy{MaxAttempts: 5}, func() error {
			return resilience.WithTimeout(ctx, 10*time.Second, "postgres-connect", func(ctx context.Context) error {
				var err error
				pg, err = postgres.New(cfg.Postgres)
				return err
			})
		})
		if err != nil {
			slog.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
	}

	sources, err := source.FromConfig(cfg.Sources, pg)
	if err != nil {
		slog.Error("invalid source configuration", "error", err)
		os.Exit(1)
	}

	table := index.New(index.Options{
		BucketCount: cfg.Index.BucketCount,
		MaxTerms:    cfg.Index.MaxTerms,
		MaxPostings: cfg.Index.MaxPostings,
	})

	b := builder.New(table, cfg.Index, m)
	report, err := b.IngestAll(ctx, sources)
	if err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}
	slog.Info("index built",
		"sources_indexed", report.Indexed,
		"sources_skipped", report.Skipped,
		"terms", table.TermCount(),
		"postings", table.PostingCount(),
	)

	var resultCache *cache.ResultCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, result caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			resultCache = cache.New(redisClient, cfg.Redis)
			slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var collector *analytics.Collector
	if cfg.Analytics.Enabled {
		producer := kafka.NewProducer(cfg.Analytics)
		defer producer.Close()
		collector = analytics.NewCollector(producer, 4096)
		collector.Start(ctx)
		defer collector.Close()
		slog.Info("analytics collector started", "topic", cfg.Analytics.Topic)
	}

	checker := health.NewChecker()
	checker.Register("term_table", func(ctx context.Context) health.ComponentHealth {
		if table.TermCount() > 0 {
			return health.ComponentHealth{
				Status:  health.StatusUp,
				Message: fmt.Sprintf("%d terms indexed", table.TermCount()),
			}
		}
		return health.ComponentHealth{Status: health.StatusDegraded, Message: "index is empty"}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	engine := query.New(table, cfg.Index, m)
	h := server.New(engine, table, resultCache, collector, m, cfg.Index)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("term index service listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("term index service stopped")
}
