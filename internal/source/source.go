// Package source abstracts where indexed text comes from. A Source pairs a
// stable id and display name with a Provider that owns the open/read/close
// lifecycle of the underlying line stream; the index core only ever consumes
// the io.ReadCloser.
package source

import (
	"context"
	"fmt"
	"io"

	"github.com/searchlab/termindex/pkg/config"
	"github.com/searchlab/termindex/pkg/postgres"
)

// Provider opens the readable line stream for one source.
type Provider interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Source is one ingestable unit of text.
type Source struct {
	ID       int
	Name     string
	Provider Provider
}

// FromConfig materializes the configured source list. pg may be nil when no
// source is database-backed.
func FromConfig(cfgs []config.SourceConfig, pg *postgres.Client) ([]Source, error) {
	sources := make([]Source, 0, len(cfgs))
	for _, sc := range cfgs {
		src := Source{ID: sc.ID, Name: sc.Name}
		switch sc.Provider {
		case "", "file":
			src.Provider = &FileProvider{Path: sc.Path}
		case "postgres":
			if pg == nil {
				return nil, fmt.Errorf("source %q needs postgres but no client is configured", sc.Name)
			}
			src.Provider = &PostgresProvider{Client: pg, Query: sc.Query}
		default:
			return nil, fmt.Errorf("source %q: unknown provider %q", sc.Name, sc.Provider)
		}
		sources = append(sources, src)
	}
	return sources, nil
}
