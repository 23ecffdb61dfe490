package tokenizer

import (
	"strings"
	"testing"
)

func collect(t *testing.T, line string) []string {
	t.Helper()
	tok := NewLineTokenizer(line, "")
	var out []string
	for {
		raw, ok := tok.Next()
		if !ok {
			return out
		}
		out = append(out, raw)
	}
}

func TestTokenizeSplitsOnDelimiters(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"the cat sat", []string{"the", "cat", "sat"}},
		{"hello, world!", []string{"hello", "world"}},
		{`"quoted" (parens) [brackets] {braces}`, []string{"quoted", "parens", "brackets", "braces"}},
		{"tabs\tand\tspaces mixed", []string{"tabs", "and", "spaces", "mixed"}},
		{"trailing punctuation...", []string{"trailing", "punctuation"}},
		{",,,???", nil},
		{"", nil},
		{"single", []string{"single"}},
	}
	for _, tt := range tests {
		got := collect(t, tt.line)
		if len(got) != len(tt.want) {
			t.Errorf("tokenize(%q) = %v, want %v", tt.line, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("tokenize(%q)[%d] = %q, want %q", tt.line, i, got[i], tt.want[i])
			}
		}
	}
}

func TestTokenizerSkipsEmptySubstrings(t *testing.T) {
	got := collect(t, "a,,b..c  d")
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokenizerNotRestartable(t *testing.T) {
	tok := NewLineTokenizer("one two", "")
	for {
		if _, ok := tok.Next(); !ok {
			break
		}
	}
	if raw, ok := tok.Next(); ok {
		t.Errorf("exhausted tokenizer yielded %q", raw)
	}
}

func TestTokenizerCustomDelimiters(t *testing.T) {
	tok := NewLineTokenizer("a:b:c", ":")
	got := []string{}
	for {
		raw, ok := tok.Next()
		if !ok {
			break
		}
		got = append(got, raw)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("custom delimiter split = %v", got)
	}
}

func TestNormalizeCaseFolds(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"Hello", "hello", true},
		{"WORLD", "world", true},
		{"already", "already", true},
		{"MiXeD123", "mixed123", true},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Normalize(tt.raw, DefaultMaxTermLen)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Normalize(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeTruncatesOverlongTokens(t *testing.T) {
	long := strings.Repeat("A", 80)
	got, ok := Normalize(long, 50)
	if !ok {
		t.Fatal("overlong token rejected, want truncation")
	}
	if len(got) != 50 {
		t.Errorf("truncated length = %d, want 50", len(got))
	}
	if got != strings.Repeat("a", 50) {
		t.Errorf("truncated token not folded: %q", got)
	}
}

func TestNormalizeUnboundedWhenMaxLenZero(t *testing.T) {
	long := strings.Repeat("x", 200)
	got, ok := Normalize(long, 0)
	if !ok || len(got) != 200 {
		t.Errorf("Normalize with maxLen 0 = (%d bytes, %v), want full token", len(got), ok)
	}
}
