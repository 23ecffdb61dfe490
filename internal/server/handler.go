// Package server exposes the query engine over HTTP for the long-running
// service binary: term search, index stats, cache control, health probes.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/searchlab/termindex/internal/analytics"
	"github.com/searchlab/termindex/internal/index"
	"github.com/searchlab/termindex/internal/query"
	"github.com/searchlab/termindex/internal/server/cache"
	"github.com/searchlab/termindex/internal/tokenizer"
	"github.com/searchlab/termindex/pkg/config"
	"github.com/searchlab/termindex/pkg/errors"
	"github.com/searchlab/termindex/pkg/logger"
	"github.com/searchlab/termindex/pkg/metrics"
	"github.com/searchlab/termindex/pkg/middleware"
)

type Handler struct {
	engine    *query.Engine
	table     *index.Table
	cache     *cache.ResultCache
	collector *analytics.Collector
	metrics   *metrics.Metrics
	cfg       config.IndexConfig
	logger    *slog.Logger
}

// New wires the search handler. cache, collector, and m may be nil.
func New(engine *query.Engine, table *index.Table, rc *cache.ResultCache, collector *analytics.Collector, m *metrics.Metrics, cfg config.IndexConfig) *Handler {
	return &Handler{
		engine:    engine,
		table:     table,
		cache:     rc,
		collector: collector,
		metrics:   m,
		cfg:       cfg,
		logger:    slog.Default().With("component", "search-handler"),
	}
}

// Search answers GET /api/v1/search?term=<word>.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	raw := r.URL.Query().Get("term")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'term' is required")
		return
	}
	term, ok := tokenizer.Normalize(raw, h.cfg.MaxTermLen)
	if !ok {
		h.track(ctx, analytics.EventQueryInvalid, raw, 0, false, start)
		h.writeError(w, http.StatusBadRequest, "term normalizes to nothing")
		return
	}

	var result *query.Result
	var err error
	cacheHit := false

	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, term, func() (*query.Result, error) {
			return h.engine.Search(term)
		})
	} else {
		result, err = h.engine.Search(term)
	}

	if err != nil {
		if stderrors.Is(err, errors.ErrTermNotFound) {
			h.track(ctx, analytics.EventQueryNotFound, term, 0, false, start)
			h.writeError(w, http.StatusNotFound, "no sources contain this term")
			return
		}
		log.Error("search failed", "term", term, "error", err)
		h.writeError(w, errors.HTTPStatusCode(err), "search failed")
		return
	}

	if h.metrics != nil {
		status := "miss"
		if cacheHit {
			status = "hit"
			h.metrics.CacheHitsTotal.Inc()
		} else if h.cache != nil {
			h.metrics.CacheMissesTotal.Inc()
		}
		h.metrics.QueryLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}

	log.Info("search completed",
		"term", term,
		"sources", result.Sources,
		"cache_hit", cacheHit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.track(ctx, analytics.EventQueryHit, term, result.Sources, cacheHit, start)
	h.writeJSON(w, http.StatusOK, result)
}

// IndexStats answers GET /api/v1/index/stats.
func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]int{
		"terms":    h.table.TermCount(),
		"postings": h.table.PostingCount(),
		"buckets":  h.table.BucketCount(),
	})
}

// CacheStats answers GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": hitRate,
	})
}

// CacheInvalidate answers POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) track(ctx context.Context, t analytics.EventType, term string, sources int, cacheHit bool, start time.Time) {
	if h.collector == nil {
		return
	}
	h.collector.Track(analytics.QueryEvent{
		Type:      t,
		Term:      term,
		Sources:   sources,
		CacheHit:  cacheHit,
		LatencyMs: time.Since(start).Milliseconds(),
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(ctx),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
