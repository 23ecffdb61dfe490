// Package builder drives index construction: it reads each configured source
// line by line, tokenizes and normalizes every token, and records occurrences
// into the term table. Building is strictly sequential; the table is handed
// to the query engine once IngestAll returns.
package builder

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/searchlab/termindex/internal/index"
	"github.com/searchlab/termindex/internal/source"
	"github.com/searchlab/termindex/internal/tokenizer"
	"github.com/searchlab/termindex/pkg/config"
	"github.com/searchlab/termindex/pkg/errors"
	"github.com/searchlab/termindex/pkg/metrics"
	"github.com/searchlab/termindex/pkg/tracing"
)

// maxLineLen bounds a single scanned line.
const maxLineLen = 1024 * 1024

// SourceStats reports what one Ingest call recorded.
type SourceStats struct {
	SourceID   int
	SourceName string
	Lines      int
	Tokens     int
	Skipped    bool
}

// Report aggregates the outcome of an IngestAll pass.
type Report struct {
	Sources []SourceStats
	Indexed int
	Skipped int
}

// Builder ingests sources into a term table. Not safe for concurrent use.
type Builder struct {
	table   *index.Table
	cfg     config.IndexConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Builder writing into table. m may be nil to disable metric
// updates.
func New(table *index.Table, cfg config.IndexConfig, m *metrics.Metrics) *Builder {
	return &Builder{
		table:   table,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "index-builder"),
	}
}

// Ingest indexes one source. Re-ingesting the same source accumulates
// counts; the builder has no notion of already-indexed content. An
// unavailable source is reported as ErrSourceUnavailable; a record-budget
// failure aborts mid-source with ErrIndexFull, leaving all previously
// recorded occurrences intact.
func (b *Builder) Ingest(ctx context.Context, src source.Source) (SourceStats, error) {
	stats := SourceStats{SourceID: src.ID, SourceName: src.Name}

	rc, err := src.Provider.Open(ctx)
	if err != nil {
		if stderrors.Is(err, errors.ErrSourceUnavailable) {
			return stats, err
		}
		return stats, fmt.Errorf("%w: %v", errors.ErrSourceUnavailable, err)
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLen)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Lines++
		toks := tokenizer.NewLineTokenizer(scanner.Text(), b.cfg.Delimiters)
		for {
			raw, ok := toks.Next()
			if !ok {
				break
			}
			term, ok := tokenizer.Normalize(raw, b.cfg.MaxTermLen)
			if !ok {
				continue
			}
			h, err := b.table.FindOrCreate(term)
			if err != nil {
				return stats, fmt.Errorf("indexing %q from %s: %w", term, src.Name, err)
			}
			if err := b.table.RecordOccurrence(h, src.ID, src.Name); err != nil {
				return stats, fmt.Errorf("recording %q from %s: %w", term, src.Name, err)
			}
			stats.Tokens++
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("%w: reading %s: %v", errors.ErrSourceUnavailable, src.Name, err)
	}

	if b.metrics != nil {
		b.metrics.TokensIngestedTotal.Add(float64(stats.Tokens))
		b.metrics.TermsIndexed.Set(float64(b.table.TermCount()))
		b.metrics.PostingsIndexed.Set(float64(b.table.PostingCount()))
	}
	return stats, nil
}

// IngestAll indexes every source in order. Unavailable sources are logged
// and skipped; indexing never aborts because one source is missing. Any
// other failure (context cancellation, record budget) stops the build and
// is returned with the partial report.
func (b *Builder) IngestAll(ctx context.Context, sources []source.Source) (Report, error) {
	ctx, span := tracing.StartSpan(ctx, "index-build", fmt.Sprintf("build-%d", len(sources)))
	defer func() {
		span.End()
		span.Log()
	}()

	var report Report
	for _, src := range sources {
		childCtx, child := tracing.StartChildSpan(ctx, "ingest-source")
		child.SetAttr("source_id", src.ID)
		child.SetAttr("source_name", src.Name)

		stats, err := b.Ingest(childCtx, src)
		child.End()

		if err != nil {
			if stderrors.Is(err, errors.ErrSourceUnavailable) {
				stats.Skipped = true
				report.Sources = append(report.Sources, stats)
				report.Skipped++
				if b.metrics != nil {
					b.metrics.SourcesSkippedTotal.Inc()
				}
				b.logger.Warn("source unavailable, skipping",
					"source_id", src.ID,
					"source_name", src.Name,
					"error", err,
				)
				continue
			}
			report.Sources = append(report.Sources, stats)
			return report, err
		}

		report.Sources = append(report.Sources, stats)
		report.Indexed++
		if b.metrics != nil {
			b.metrics.SourcesIndexedTotal.Inc()
		}
		b.logger.Info("source indexed",
			"source_id", src.ID,
			"source_name", src.Name,
			"lines", stats.Lines,
			"tokens", stats.Tokens,
		)
	}

	span.SetAttr("indexed", report.Indexed)
	span.SetAttr("skipped", report.Skipped)
	span.SetAttr("terms", b.table.TermCount())
	return report, nil
}
