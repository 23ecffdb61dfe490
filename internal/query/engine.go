// Package query implements the read path: a query term is normalized
// exactly like build-time tokens, looked up in the term table, and answered
// with its posting list or a not-found outcome.
package query

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/searchlab/termindex/internal/index"
	"github.com/searchlab/termindex/internal/tokenizer"
	"github.com/searchlab/termindex/pkg/config"
	"github.com/searchlab/termindex/pkg/errors"
	"github.com/searchlab/termindex/pkg/metrics"
)

// Result is a successful lookup: the canonical term and its postings.
// Posting order is unspecified.
type Result struct {
	Term     string            `json:"term"`
	Sources  int               `json:"sources"`
	Postings index.PostingList `json:"postings"`
}

// Engine answers exact-term lookups against a built table.
type Engine struct {
	table   *index.Table
	cfg     config.IndexConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an Engine reading from table. m may be nil to disable metric
// updates.
func New(table *index.Table, cfg config.IndexConfig, m *metrics.Metrics) *Engine {
	return &Engine{
		table:   table,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "query-engine"),
	}
}

// Search looks up one term. It returns ErrInvalidInput when the query
// normalizes to nothing and ErrTermNotFound when the term was never
// indexed; both are ordinary outcomes, not failures of the engine.
func (e *Engine) Search(raw string) (*Result, error) {
	start := time.Now()

	term, ok := tokenizer.Normalize(raw, e.cfg.MaxTermLen)
	if !ok {
		e.observe("invalid", start)
		return nil, fmt.Errorf("%w: empty query", errors.ErrInvalidInput)
	}

	postings, found := e.table.Lookup(term)
	if !found {
		e.observe("not_found", start)
		e.logger.Debug("term not found", "term", term)
		return nil, fmt.Errorf("%w: %q", errors.ErrTermNotFound, term)
	}

	e.observe("found", start)
	e.logger.Debug("term found", "term", term, "sources", len(postings))
	return &Result{
		Term:     term,
		Sources:  len(postings),
		Postings: postings,
	}, nil
}

func (e *Engine) observe(outcome string, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.QueriesTotal.WithLabelValues(outcome).Inc()
	e.metrics.QueryLatency.WithLabelValues("none").Observe(time.Since(start).Seconds())
}
