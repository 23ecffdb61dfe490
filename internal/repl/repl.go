// Package repl drives the interactive query loop: prompt, read a term,
// search, print the per-source occurrence table, until the quit sentinel.
package repl

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/searchlab/termindex/internal/index"
	"github.com/searchlab/termindex/internal/query"
	"github.com/searchlab/termindex/pkg/errors"
)

// QuitSentinel terminates the loop when entered as a query.
const QuitSentinel = "quit"

// REPL reads queries from In and writes results to Out.
type REPL struct {
	engine *query.Engine
	in     io.Reader
	out    io.Writer
	logger *slog.Logger
}

func New(engine *query.Engine, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		engine: engine,
		in:     in,
		out:    out,
		logger: slog.Default().With("component", "repl"),
	}
}

// Run loops until the quit sentinel, EOF, or context cancellation. Queries
// that hit nothing print a not-found message and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "\nsearch term (%q to exit): ", QuitSentinel)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading query: %w", err)
			}
			fmt.Fprintln(r.out)
			return nil
		}
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		if raw == QuitSentinel {
			return nil
		}

		result, err := r.engine.Search(raw)
		switch {
		case err == nil:
			r.printResult(raw, result)
		case stderrors.Is(err, errors.ErrTermNotFound):
			fmt.Fprintf(r.out, "\nno sources contain %q\n", raw)
		case stderrors.Is(err, errors.ErrInvalidInput):
			fmt.Fprintf(r.out, "\nnot a searchable term: %q\n", raw)
		default:
			r.logger.Error("search failed", "query", raw, "error", err)
			return err
		}
	}
}

// printResult renders the occurrence table. The index contract leaves
// posting order unspecified; the display sorts its own copy by count
// descending, source id ascending, purely as presentation.
func (r *REPL) printResult(raw string, result *query.Result) {
	postings := make(index.PostingList, len(result.Postings))
	copy(postings, result.Postings)
	sort.Slice(postings, func(i, j int) bool {
		if postings[i].Count != postings[j].Count {
			return postings[i].Count > postings[j].Count
		}
		return postings[i].SourceID < postings[j].SourceID
	})

	fmt.Fprintf(r.out, "\n>>> results for %q <<<\n", raw)
	fmt.Fprintf(r.out, "%-30s | %-10s\n", "SOURCE", "COUNT")
	fmt.Fprintln(r.out, strings.Repeat("-", 43))
	for _, p := range postings {
		fmt.Fprintf(r.out, "%-30s | %-10d\n", p.SourceName, p.Count)
	}
}
