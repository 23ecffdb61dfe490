// Package index implements the in-memory term table: a fixed-capacity hashed
// structure mapping normalized terms to per-source occurrence counts. The
// table owns every term and posting record for the life of the process;
// records are never deleted.
package index

import (
	"fmt"
	"sort"

	"github.com/searchlab/termindex/pkg/errors"
)

// hashSeed is the BKDR polynomial multiplier.
const hashSeed = 131

// Handle identifies a term record inside a Table. Handles are stable for the
// table's lifetime and are only meaningful for the table that issued them.
type Handle int32

type termRecord struct {
	term     string
	postings PostingList
}

// Options bounds a Table's shape and record budgets.
type Options struct {
	// BucketCount is the number of hash buckets, fixed at construction.
	// The table never resizes or rehashes.
	BucketCount int
	// MaxTerms caps the number of distinct terms; zero means unbounded.
	MaxTerms int
	// MaxPostings caps the total posting count across all terms; zero
	// means unbounded.
	MaxPostings int
}

// Table is the hashed term store. It is not safe for concurrent use;
// build and query run on a single control flow.
type Table struct {
	buckets      [][]Handle
	arena        []termRecord
	maxTerms     int
	maxPostings  int
	postingCount int
}

// DefaultBucketCount matches the classic fixed table size.
const DefaultBucketCount = 1007

// New creates an empty Table. A non-positive BucketCount falls back to
// DefaultBucketCount.
func New(opts Options) *Table {
	n := opts.BucketCount
	if n <= 0 {
		n = DefaultBucketCount
	}
	return &Table{
		buckets:     make([][]Handle, n),
		maxTerms:    opts.MaxTerms,
		maxPostings: opts.MaxPostings,
	}
}

// hash computes the BKDR rolling hash of term reduced to a bucket slot.
func (t *Table) hash(term string) int {
	var h uint32
	for i := 0; i < len(term); i++ {
		h = h*hashSeed + uint32(term[i])
	}
	return int(h % uint32(len(t.buckets)))
}

// Find returns the handle for term if it has been recorded.
func (t *Table) Find(term string) (Handle, bool) {
	for _, h := range t.buckets[t.hash(term)] {
		if t.arena[h].term == term {
			return h, true
		}
	}
	return 0, false
}

// FindOrCreate returns the handle for term, allocating a new empty record if
// the term has not been seen. It returns ErrIndexFull when the term budget
// is exhausted; the table is left untouched in that case.
func (t *Table) FindOrCreate(term string) (Handle, error) {
	slot := t.hash(term)
	for _, h := range t.buckets[slot] {
		if t.arena[h].term == term {
			return h, nil
		}
	}
	if t.maxTerms > 0 && len(t.arena) >= t.maxTerms {
		return 0, fmt.Errorf("%w: term budget %d", errors.ErrIndexFull, t.maxTerms)
	}
	h := Handle(len(t.arena))
	t.arena = append(t.arena, termRecord{term: term})
	t.buckets[slot] = append(t.buckets[slot], h)
	return h, nil
}

// RecordOccurrence counts one occurrence of the term in the given source.
// The first occurrence per source allocates a posting with count 1; later
// occurrences increment it. At most one posting exists per source id. It
// returns ErrIndexFull when the posting budget is exhausted, leaving the
// term's posting list unchanged.
func (t *Table) RecordOccurrence(h Handle, sourceID int, sourceName string) error {
	rec := &t.arena[h]
	for i := range rec.postings {
		if rec.postings[i].SourceID == sourceID {
			rec.postings[i].Count++
			return nil
		}
	}
	if t.maxPostings > 0 && t.postingCount >= t.maxPostings {
		return fmt.Errorf("%w: posting budget %d", errors.ErrIndexFull, t.maxPostings)
	}
	rec.postings = append(rec.postings, Posting{
		SourceID:   sourceID,
		SourceName: sourceName,
		Count:      1,
	})
	t.postingCount++
	return nil
}

// Postings returns a copy of the term's recorded postings. Order is
// unspecified.
func (t *Table) Postings(h Handle) PostingList {
	rec := &t.arena[h]
	out := make(PostingList, len(rec.postings))
	copy(out, rec.postings)
	return out
}

// Lookup combines Find and Postings for the read path.
func (t *Table) Lookup(term string) (PostingList, bool) {
	h, ok := t.Find(term)
	if !ok {
		return nil, false
	}
	return t.Postings(h), true
}

// TermCount returns the number of distinct terms recorded.
func (t *Table) TermCount() int {
	return len(t.arena)
}

// PostingCount returns the total number of postings across all terms.
func (t *Table) PostingCount() int {
	return t.postingCount
}

// BucketCount returns the fixed bucket count chosen at construction.
func (t *Table) BucketCount() int {
	return len(t.buckets)
}

// Snapshot returns every term with its postings, sorted by term for
// deterministic iteration. Postings within each entry are copied in
// recorded order.
func (t *Table) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(t.arena))
	for i := range t.arena {
		entries = append(entries, TermEntry{
			Term:     t.arena[i].term,
			Postings: t.Postings(Handle(i)),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}
