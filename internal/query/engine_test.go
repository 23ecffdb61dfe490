package query

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"testing"

	"github.com/searchlab/termindex/internal/builder"
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

func testConfig() config.IndexConfig {
	return config.IndexConfig{
		BucketCount: 1007,
		MaxTermLen:  50,
		Delimiters:  config.DefaultDelimiters,
	}
}

func buildIndex(t *testing.T, contents map[int]string) *Engine {
	t.Helper()
	table := index.New(index.Options{})
	b := builder.New(table, testConfig(), nil)
	for id, content := range contents {
		src := source.Source{
			ID:       id,
			Name:     "doc.txt",
			Provider: &stringProvider{content: content},
		}
		if _, err := b.Ingest(context.Background(), src); err != nil {
			t.Fatalf("ingest failed: %v", err)
		}
	}
	return New(table, testConfig(), nil)
}

func TestSearchSingleSource(t *testing.T) {
	engine := buildIndex(t, map[int]string{1: "the cat sat on the mat"})

	result, err := engine.Search("the")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Sources != 1 || len(result.Postings) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Postings[0].Count != 2 {
		t.Errorf(`count("the") = %d, want 2`, result.Postings[0].Count)
	}

	result, err = engine.Search("cat")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.Postings[0].Count != 1 {
		t.Errorf(`count("cat") = %d, want 1`, result.Postings[0].Count)
	}
}

func TestSearchNotFound(t *testing.T) {
	engine := buildIndex(t, map[int]string{1: "the cat sat on the mat"})

	_, err := engine.Search("dog")
	if !stderrors.Is(err, errors.ErrTermNotFound) {
		t.Fatalf("expected ErrTermNotFound, got %v", err)
	}
}

func TestSearchOnEmptyIndex(t *testing.T) {
	engine := New(index.New(index.Options{}), testConfig(), nil)

	_, err := engine.Search("anything")
	if !stderrors.Is(err, errors.ErrTermNotFound) {
		t.Fatalf("expected ErrTermNotFound on empty index, got %v", err)
	}
}

func TestSearchCaseFoldEquivalence(t *testing.T) {
	engine := buildIndex(t, map[int]string{1: "Hello world"})

	upper, err := engine.Search("Hello")
	if err != nil {
		t.Fatalf("Search(Hello) failed: %v", err)
	}
	lower, err := engine.Search("hello")
	if err != nil {
		t.Fatalf("Search(hello) failed: %v", err)
	}
	if upper.Term != lower.Term {
		t.Errorf("normalized terms differ: %q vs %q", upper.Term, lower.Term)
	}
	if len(upper.Postings) != len(lower.Postings) {
		t.Fatalf("posting counts differ: %d vs %d", len(upper.Postings), len(lower.Postings))
	}
	for i := range upper.Postings {
		if upper.Postings[i] != lower.Postings[i] {
			t.Errorf("posting %d differs: %+v vs %+v", i, upper.Postings[i], lower.Postings[i])
		}
	}
}

func TestSearchAcrossSources(t *testing.T) {
	table := index.New(index.Options{})
	b := builder.New(table, testConfig(), nil)
	sources := []source.Source{
		{ID: 1, Name: "fox.txt", Provider: &stringProvider{content: "the fox"}},
		{ID: 2, Name: "hound.txt", Provider: &stringProvider{content: "the hound"}},
	}
	for _, src := range sources {
		if _, err := b.Ingest(context.Background(), src); err != nil {
			t.Fatal(err)
		}
	}
	engine := New(table, testConfig(), nil)

	result, err := engine.Search("the")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(result.Postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(result.Postings))
	}
	seen := map[int]bool{}
	for _, p := range result.Postings {
		if p.Count != 1 {
			t.Errorf("source %d count = %d, want 1", p.SourceID, p.Count)
		}
		if seen[p.SourceID] {
			t.Errorf("duplicate posting for source %d", p.SourceID)
		}
		seen[p.SourceID] = true
	}
	if !seen[1] || !seen[2] {
		t.Errorf("postings missing a source: %v", seen)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	engine := buildIndex(t, map[int]string{1: "words"})

	_, err := engine.Search("")
	if !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSearchTruncatesOverlongQuery(t *testing.T) {
	long := strings.Repeat("b", 80)
	engine := buildIndex(t, map[int]string{1: long})

	// Build-time normalization truncated the token to 50 bytes; an
	// identically overlong query must find it.
	result, err := engine.Search(long)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(result.Term) != 50 {
		t.Errorf("normalized query length = %d, want 50", len(result.Term))
	}
}
