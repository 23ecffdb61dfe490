package index

// Posting records one term's occurrence count within one source.
type Posting struct {
	SourceID   int    `json:"source_id"`
	SourceName string `json:"source_name"`
	Count      int    `json:"count"`
}

// PostingList is the full set of postings recorded for a term. Order is
// unspecified; callers that want ranked output sort their own copy.
type PostingList []Posting

// TermEntry pairs a term with its postings, used by snapshots.
type TermEntry struct {
	Term     string
	Postings PostingList
}
