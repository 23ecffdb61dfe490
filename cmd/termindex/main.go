package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/searchlab/termindex/internal/builder"
	"github.com/searchlab/termindex/internal/index"
	"github.com/searchlab/termindex/internal/query"
	"github.com/searchlab/termindex/internal/repl"
	"github.com/searchlab/termindex/internal/source"
	"github.com/searchlab/termindex/pkg/config"
	"github.com/searchlab/termindex/pkg/logger"
	"github.com/searchlab/termindex/pkg/postgres"
	"github.com/searchlab/termindex/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pg *postgres.Client
	if cfg.NeedsPostgres() {
		err := resilience.Retry(ctx, "postgres-connect", resilience.Policy{}, func() error {
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

	fmt.Println("building index...")
	b := builder.New(table, cfg.Index, nil)
	report, err := b.IngestAll(ctx, sources)
	if err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("index ready: %d sources indexed, %d skipped, %d terms\n",
		report.Indexed, report.Skipped, table.TermCount())

	engine := query.New(table, cfg.Index, nil)
	r := repl.New(engine, os.Stdin, os.Stdout)
	if err := r.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("query loop failed", "error", err)
		os.Exit(1)
	}
}
