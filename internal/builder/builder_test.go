package builder

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"testing"

	"github.com/searchlab/termindex/internal/index"
	"github.com/searchlab/termindex/internal/source"
	"github.com/searchlab/termindex/pkg/config"
	"github.com/searchlab/termindex/pkg/errors"
)

type stringProvider struct {
	content string
}

func (p *stringProvider) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(p.content)), nil
}

type brokenProvider struct{}

func (p *brokenProvider) Open(ctx context.Context) (io.ReadCloser, error) {
	return nil, errors.ErrSourceUnavailable
}

func testConfig() config.IndexConfig {
	return config.IndexConfig{
		BucketCount: 1007,
		MaxTermLen:  50,
		Delimiters:  config.DefaultDelimiters,
	}
}

func textSource(id int, name, content string) source.Source {
	return source.Source{ID: id, Name: name, Provider: &stringProvider{content: content}}
}

func countFor(t *testing.T, table *index.Table, term string, sourceID int) int {
	t.Helper()
	postings, ok := table.Lookup(term)
	if !ok {
		t.Fatalf("term %q not indexed", term)
	}
	for _, p := range postings {
		if p.SourceID == sourceID {
			return p.Count
		}
	}
	t.Fatalf("term %q has no posting for source %d", term, sourceID)
	return 0
}

func TestIngestCountsOccurrences(t *testing.T) {
	table := index.New(index.Options{})
	b := New(table, testConfig(), nil)

	stats, err := b.Ingest(context.Background(), textSource(1, "doc.txt", "the cat sat on the mat"))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if stats.Tokens != 6 {
		t.Errorf("tokens = %d, want 6", stats.Tokens)
	}
	if got := countFor(t, table, "the", 1); got != 2 {
		t.Errorf(`count("the") = %d, want 2`, got)
	}
	if got := countFor(t, table, "cat", 1); got != 1 {
		t.Errorf(`count("cat") = %d, want 1`, got)
	}
	if _, ok := table.Lookup("dog"); ok {
		t.Error(`"dog" indexed but never ingested`)
	}
}

func TestIngestNormalizesCase(t *testing.T) {
	table := index.New(index.Options{})
	b := New(table, testConfig(), nil)

	if _, err := b.Ingest(context.Background(), textSource(1, "doc.txt", "Hello HELLO hello")); err != nil {
		t.Fatal(err)
	}
	if got := countFor(t, table, "hello", 1); got != 3 {
		t.Errorf(`count("hello") = %d, want 3`, got)
	}
	if _, ok := table.Lookup("Hello"); ok {
		t.Error("unnormalized term found in table")
	}
}

func TestIngestMultipleLines(t *testing.T) {
	table := index.New(index.Options{})
	b := New(table, testConfig(), nil)

	stats, err := b.Ingest(context.Background(), textSource(1, "doc.txt", "first line\nsecond line\nthird"))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Lines != 3 {
		t.Errorf("lines = %d, want 3", stats.Lines)
	}
	if got := countFor(t, table, "line", 1); got != 2 {
		t.Errorf(`count("line") = %d, want 2`, got)
	}
}

func TestReingestAccumulates(t *testing.T) {
	table := index.New(index.Options{})
	b := New(table, testConfig(), nil)
	src := textSource(7, "src", "a a a")

	for i := 0; i < 2; i++ {
		if _, err := b.Ingest(context.Background(), src); err != nil {
			t.Fatal(err)
		}
	}
	if got := countFor(t, table, "a", 7); got != 6 {
		t.Errorf(`count("a") after double ingest = %d, want 6`, got)
	}
}

func TestIngestAllSkipsUnavailableSources(t *testing.T) {
	table := index.New(index.Options{})
	b := New(table, testConfig(), nil)

	sources := []source.Source{
		textSource(1, "one.txt", "the fox"),
		{ID: 2, Name: "missing.txt", Provider: &brokenProvider{}},
		textSource(3, "three.txt", "the hound"),
	}

	report, err := b.IngestAll(context.Background(), sources)
	if err != nil {
		t.Fatalf("IngestAll aborted: %v", err)
	}
	if report.Indexed != 2 || report.Skipped != 1 {
		t.Fatalf("report = %d indexed, %d skipped, want 2/1", report.Indexed, report.Skipped)
	}

	postings, ok := table.Lookup("the")
	if !ok {
		t.Fatal(`"the" not indexed`)
	}
	if len(postings) != 2 {
		t.Errorf(`"the" has %d postings, want one per available source`, len(postings))
	}
}

func TestIngestAllFileSourceMissing(t *testing.T) {
	table := index.New(index.Options{})
	b := New(table, testConfig(), nil)

	sources := []source.Source{
		{ID: 1, Name: "gone.txt", Provider: &source.FileProvider{Path: "testdata/does-not-exist.txt"}},
		textSource(2, "ok.txt", "still indexed"),
	}
	report, err := b.IngestAll(context.Background(), sources)
	if err != nil {
		t.Fatalf("IngestAll aborted on missing file: %v", err)
	}
	if report.Skipped != 1 || report.Indexed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if _, ok := table.Lookup("indexed"); !ok {
		t.Error("remaining source not indexed after skip")
	}
}

func TestIngestStopsWhenBudgetExhausted(t *testing.T) {
	table := index.New(index.Options{MaxTerms: 2})
	b := New(table, testConfig(), nil)

	_, err := b.Ingest(context.Background(), textSource(1, "doc.txt", "one two three"))
	if !stderrors.Is(err, errors.ErrIndexFull) {
		t.Fatalf("expected ErrIndexFull, got %v", err)
	}
	// Terms recorded before the failure stay queryable.
	if got := countFor(t, table, "one", 1); got != 1 {
		t.Errorf(`count("one") = %d, want 1`, got)
	}
	if got := countFor(t, table, "two", 1); got != 1 {
		t.Errorf(`count("two") = %d, want 1`, got)
	}
}

func TestIngestRespectsContextCancellation(t *testing.T) {
	table := index.New(index.Options{})
	b := New(table, testConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Ingest(ctx, textSource(1, "doc.txt", "some words here"))
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
