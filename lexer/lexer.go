// Package lexer splits C-like source code into tokens.
//
// The lexer evaluates every rule of a RuleSet at the cursor and keeps the
// longest match, falling back to rule order on ties. The same Lexer must be
// used at index time and at query time, otherwise phrase terms will never
// line up with indexed terms.
//
// Example usage:
//
//	rules := lexer.DefaultRules() // once, at startup
//	lx := lexer.New(rules, lexer.WithLogger(logger))
//	for tok := range lx.Tokenize(source) {
//		fmt.Println(tok.Start, tok.End, tok.Text)
//	}
package lexer

import (
	"fmt"
	"hash/fnv"
	"iter"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultMaxTokenLen is the length above which a match is discarded instead
// of yielded. It guards against unterminated comments and binary input.
const DefaultMaxTokenLen = 1 << 16

const spaceChars = " \t\n\v\f\r"

// Recovery decides what happens when no rule matches at the cursor.
type Recovery uint8

const (
	// Truncate ends the stream as if the input stopped at the cursor.
	Truncate Recovery = iota
	// Skip drops a single rune and resumes scanning after it.
	Skip
)

func (r Recovery) String() string {
	switch r {
	case Truncate:
		return "truncate"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

// ParseRecovery parses a recovery policy name ("truncate" or "skip").
func ParseRecovery(s string) (Recovery, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "truncate":
		return Truncate, nil
	case "skip":
		return Skip, nil
	default:
		return Truncate, fmt.Errorf("invalid recovery policy %q, expected truncate or skip", s)
	}
}

// Lexer tokenizes text with a fixed rule set. A Lexer holds no per-input
// state and is safe for concurrent use.
type Lexer struct {
	rules       *RuleSet
	maxTokenLen int
	recovery    Recovery
	logger      *zap.Logger
}

// Option configures a Lexer.
type Option func(*Lexer)

// WithMaxTokenLen sets the ceiling above which matches are discarded.
// Values below 1 are ignored.
func WithMaxTokenLen(n int) Option {
	return func(l *Lexer) {
		if n > 0 {
			l.maxTokenLen = n
		}
	}
}

// WithRecovery sets the policy applied when no rule matches.
func WithRecovery(r Recovery) Option {
	return func(l *Lexer) {
		l.recovery = r
	}
}

// WithLogger sets the logger used to report recoveries.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Lexer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a lexer over rules.
func New(rules *RuleSet, opts ...Option) *Lexer {
	l := &Lexer{
		rules:       rules,
		maxTokenLen: DefaultMaxTokenLen,
		recovery:    Truncate,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// MaxTokenLen returns the configured token ceiling.
func (l *Lexer) MaxTokenLen() int {
	return l.maxTokenLen
}

// Recovery returns the configured recovery policy.
func (l *Lexer) Recovery() Recovery {
	return l.recovery
}

// Fingerprint identifies the rule patterns and options of the lexer. Two
// lexers with equal fingerprints produce identical tokens for any input.
func (l *Lexer) Fingerprint() string {
	h := fnv.New64a()
	for _, r := range l.rules.rules {
		_, _ = fmt.Fprintf(h, "%d\x00%s\x00", r.Category, r.Pattern)
	}
	_, _ = fmt.Fprintf(h, "max=%d recovery=%s", l.maxTokenLen, l.recovery)
	return fmt.Sprintf("%016x", h.Sum64())
}

// Stream returns a new pull-based token stream over text.
func (l *Lexer) Stream(text string) *Stream {
	return &Stream{lexer: l, text: text}
}

// Tokenize returns a lazy sequence of the tokens in text. Every iteration
// starts a fresh stream, so the sequence can be ranged over repeatedly.
func (l *Lexer) Tokenize(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		s := l.Stream(text)
		for {
			tok, ok := s.Next()
			if !ok || !yield(tok) {
				return
			}
		}
	}
}

// Offsets yields the (start, end) byte offsets of every token in text.
func (l *Lexer) Offsets(text string) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for tok := range l.Tokenize(text) {
			if !yield(tok.Start, tok.End) {
				return
			}
		}
	}
}

// All collects every token in text.
func (l *Lexer) All(text string) []Token {
	// Empirically ~1 token per 6 bytes of C source
	tokens := make([]Token, 0, len(text)/6+1)
	for tok := range l.Tokenize(text) {
		tokens = append(tokens, tok)
	}
	return tokens
}

// Terms returns the text of every token in text.
func (l *Lexer) Terms(text string) []string {
	var terms []string
	for tok := range l.Tokenize(text) {
		terms = append(terms, tok.Text)
	}
	return terms
}

// Stream is a cursor over the remaining input. It must not be shared
// between goroutines.
type Stream struct {
	lexer     *Lexer
	text      string
	pos       int
	index     int
	truncated bool
	discarded int
}

// Next returns the next token. It returns false once the input is
// exhausted or the stream was truncated.
func (s *Stream) Next() (Token, bool) {
	l := s.lexer

	for s.pos < len(s.text) && !s.truncated {
		length, category := l.rules.longest(s.text[s.pos:])
		if length == 0 {
			s.resync()
			continue
		}

		start := s.pos
		s.pos += length

		if length > l.maxTokenLen {
			s.discarded++
			l.logger.Debug("discarding oversized token",
				zap.Int("offset", start),
				zap.Int("length", length),
				zap.Stringer("category", category),
			)
			continue
		}

		raw := s.text[start:s.pos]
		left := strings.TrimLeft(raw, spaceChars)
		text := strings.TrimRight(left, spaceChars)
		if text == "" {
			continue
		}

		tokStart := start + len(raw) - len(left)
		tok := Token{
			Text:     text,
			Start:    tokStart,
			End:      tokStart + len(text),
			Index:    s.index,
			Category: category,
		}
		s.index++

		return tok, true
	}

	return Token{}, false
}

// resync applies the lexer's recovery policy at the cursor.
func (s *Stream) resync() {
	l := s.lexer

	switch l.recovery {
	case Skip:
		_, size := utf8.DecodeRuneInString(s.text[s.pos:])
		l.logger.Debug("skipping unmatched input",
			zap.Int("offset", s.pos),
			zap.String("near", s.near()),
		)
		s.pos += size
	default:
		l.logger.Warn("aborting lex: no rule matches",
			zap.Int("offset", s.pos),
			zap.String("near", s.near()),
		)
		s.truncated = true
	}
}

// near returns a short excerpt of the input at the cursor for logging.
func (s *Stream) near() string {
	end := s.pos + 16
	if end > len(s.text) {
		end = len(s.text)
	}
	return s.text[s.pos:end]
}

// Offset returns the cursor position in bytes.
func (s *Stream) Offset() int {
	return s.pos
}

// Truncated reports whether the stream stopped early because no rule
// matched the remaining input.
func (s *Stream) Truncated() bool {
	return s.truncated
}

// Discarded returns the number of oversized matches dropped so far.
func (s *Stream) Discarded() int {
	return s.discarded
}
