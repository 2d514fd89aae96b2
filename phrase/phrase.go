// Package phrase finds every occurrence of a token sequence in a document.
//
// A Matcher is compiled once per query. Its failure table lets a single
// left-to-right pass over the document tokens find all occurrences without
// ever re-reading a token that has already been consumed.
package phrase

import (
	"errors"

	"github.com/robinvdvleuten/looker/lexer"
)

// ErrEmptyQuery is returned when a query contains no tokens.
var ErrEmptyQuery = errors.New("nothing to search: query contains no tokens")

// Span is a half-open byte range [Start, End) in a document.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the length of the span in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// FailureTable holds, for every prefix terms[:i+1], the length of the
// longest proper prefix of terms that is also a suffix of that prefix.
type FailureTable []int

// NewFailureTable builds the failure table for terms using exact string
// equality between tokens.
func NewFailureTable(terms []string) FailureTable {
	failure := make(FailureTable, len(terms))

	k := 0
	for i := 1; i < len(terms); i++ {
		for k > 0 && terms[i] != terms[k] {
			k = failure[k-1]
		}
		if terms[i] == terms[k] {
			k++
		}
		failure[i] = k
	}

	return failure
}

// Matcher searches documents for a fixed phrase. It is immutable and safe
// for concurrent use; every search owns its own token stream.
type Matcher struct {
	lexer   *lexer.Lexer
	terms   []string
	failure FailureTable
}

// New tokenizes query with lx and compiles a matcher for the resulting
// phrase. It returns ErrEmptyQuery if query yields no tokens.
func New(lx *lexer.Lexer, query string) (*Matcher, error) {
	terms := lx.Terms(query)
	if len(terms) == 0 {
		return nil, ErrEmptyQuery
	}
	return Compile(lx, terms), nil
}

// Compile builds a matcher for terms. Documents are tokenized with lx,
// which must be the lexer that produced terms. A matcher compiled from no
// terms never matches.
func Compile(lx *lexer.Lexer, terms []string) *Matcher {
	owned := make([]string, len(terms))
	copy(owned, terms)

	return &Matcher{
		lexer:   lx,
		terms:   owned,
		failure: NewFailureTable(owned),
	}
}

// Terms returns a copy of the phrase terms.
func (m *Matcher) Terms() []string {
	out := make([]string, len(m.terms))
	copy(out, m.terms)
	return out
}

// Failure returns a copy of the failure table.
func (m *Matcher) Failure() FailureTable {
	out := make(FailureTable, len(m.failure))
	copy(out, m.failure)
	return out
}

// Occurrences returns every occurrence of the phrase in text, ordered by
// start offset. Occurrences of a self-overlapping phrase may overlap.
func (m *Matcher) Occurrences(text string) []Span {
	n := len(m.terms)
	if n == 0 {
		return nil
	}

	var spans []Span

	// starts[i%n] is the start offset of token i. Only the last n starts
	// are ever needed to locate the first token of a match.
	starts := make([]int, n)

	j := 0
	for tok := range m.lexer.Tokenize(text) {
		starts[tok.Index%n] = tok.Start

		for j > 0 && tok.Text != m.terms[j] {
			j = m.failure[j-1]
		}
		if tok.Text != m.terms[j] {
			continue
		}

		j++
		if j == n {
			first := tok.Index - n + 1
			spans = append(spans, Span{Start: starts[first%n], End: tok.End})
			j = m.failure[j-1]
		}
	}

	return spans
}

// Search returns the phrase occurrences in text as ordered,
// non-overlapping spans. Overlapping occurrences are merged into one span.
func (m *Matcher) Search(text string) []Span {
	return Coalesce(m.Occurrences(text))
}

// Contains reports whether text contains the phrase at least once.
func (m *Matcher) Contains(text string) bool {
	n := len(m.terms)
	if n == 0 {
		return false
	}

	j := 0
	for tok := range m.lexer.Tokenize(text) {
		for j > 0 && tok.Text != m.terms[j] {
			j = m.failure[j-1]
		}
		if tok.Text == m.terms[j] {
			j++
			if j == n {
				return true
			}
		}
	}

	return false
}

// Coalesce merges overlapping spans of a start-ordered list. Spans that
// merely touch are kept apart.
func Coalesce(spans []Span) []Span {
	if len(spans) < 2 {
		return spans
	}

	out := make([]Span, 0, len(spans))
	cur := spans[0]
	for _, s := range spans[1:] {
		if s.Start < cur.End {
			if s.End > cur.End {
				cur.End = s.End
			}
			continue
		}
		out = append(out, cur)
		cur = s
	}

	return append(out, cur)
}
