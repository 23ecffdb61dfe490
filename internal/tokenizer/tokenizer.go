// Package tokenizer splits lines of text into raw tokens on a fixed
// delimiter set and folds tokens to their canonical lowercase form. ASCII
// only; no stemming, no stop-word removal. Build and query must normalize
// identically, so the transformation stays minimal.
package tokenizer

import "strings"

// DefaultDelimiters is whitespace plus the punctuation the classic indexer
// splits on.
const DefaultDelimiters = " \t\r\n,.?!\"()[]{}"

// DefaultMaxTermLen bounds normalized terms; longer tokens are truncated.
const DefaultMaxTermLen = 50

// Normalize folds raw to lowercase and truncates it to maxLen bytes. It
// returns false for tokens that normalize to the empty string. maxLen <= 0
// means no bound.
func Normalize(raw string, maxLen int) (string, bool) {
	if raw == "" {
		return "", false
	}
	if maxLen > 0 && len(raw) > maxLen {
		raw = raw[:maxLen]
	}
	return strings.ToLower(raw), true
}

// LineTokenizer yields the tokens of a single line in one forward pass.
// It is finite, lazy, and not restartable: once Next returns false the
// tokenizer is exhausted.
type LineTokenizer struct {
	line  string
	pos   int
	delim [256]bool
}

// NewLineTokenizer creates a tokenizer over line using the given delimiter
// set. An empty delims falls back to DefaultDelimiters.
func NewLineTokenizer(line string, delims string) *LineTokenizer {
	if delims == "" {
		delims = DefaultDelimiters
	}
	t := &LineTokenizer{line: line}
	for i := 0; i < len(delims); i++ {
		t.delim[delims[i]] = true
	}
	return t
}

// Next returns the next raw token, skipping empty substrings between
// consecutive delimiters. It returns false when the line is exhausted.
func (t *LineTokenizer) Next() (string, bool) {
	for t.pos < len(t.line) && t.delim[t.line[t.pos]] {
		t.pos++
	}
	if t.pos >= len(t.line) {
		return "", false
	}
	start := t.pos
	for t.pos < len(t.line) && !t.delim[t.line[t.pos]] {
		t.pos++
	}
	return t.line[start:t.pos], true
}
