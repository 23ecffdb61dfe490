package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/searchlab/termindex/pkg/errors"
	"github.com/searchlab/termindex/pkg/postgres"
)

// PostgresProvider streams lines from the first column of a SQL query.
// Rows are fetched eagerly on Open so the returned reader never holds a
// database cursor across the ingest loop.
type PostgresProvider struct {
	Client *postgres.Client
	Query  string
}

func (p *PostgresProvider) Open(ctx context.Context) (io.ReadCloser, error) {
	lines, err := p.Client.QueryLines(ctx, p.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrSourceUnavailable, err)
	}
	return io.NopCloser(strings.NewReader(strings.Join(lines, "\n"))), nil
}
