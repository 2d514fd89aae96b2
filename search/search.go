// Package search runs phrase queries against an index.
//
// A Session narrows a query to candidate documents through the index
// postings, then scans the candidates in parallel with the phrase matcher
// and renders the matched lines. Results come back in index order.
package search

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/robinvdvleuten/looker/highlight"
	"github.com/robinvdvleuten/looker/index"
	"github.com/robinvdvleuten/looker/lexer"
	"github.com/robinvdvleuten/looker/phrase"
	"github.com/robinvdvleuten/looker/telemetry"
)

// Result is one matching document.
type Result struct {
	Document index.Document
	Spans    []phrase.Span
	Lines    []highlight.Line
}

// Context returns the matched lines of the result with n lines around each.
func (r Result) Context(n int) [][]highlight.Line {
	return highlight.Context(r.Lines, n)
}

// Session searches one index. It is safe for concurrent use.
type Session struct {
	index   *index.Index
	lexer   *lexer.Lexer
	workers int
	logger  *zap.Logger

	// scan is replaced in tests.
	scan func(m *phrase.Matcher, doc index.Document) *Result
}

// Option configures a Session.
type Option func(*Session)

// WithWorkers bounds the number of documents scanned in parallel. Zero or
// less means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the logger used to report dropped documents.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession returns a session over ix. The contents analyzer of ix must be
// a lexer, since documents are rescanned with it.
func NewSession(ix *index.Index, opts ...Option) (*Session, error) {
	lx, ok := ix.Analyzer().(*lexer.Lexer)
	if !ok {
		return nil, fmt.Errorf("analyzer %T cannot scan documents", ix.Analyzer())
	}

	s := &Session{
		index:   ix,
		lexer:   lx,
		workers: runtime.GOMAXPROCS(0),
		logger:  zap.NewNop(),
	}
	s.scan = s.scanDocument

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Search returns up to limit documents containing query, in index order. A
// limit of zero returns every match. It returns phrase.ErrEmptyQuery if the
// query has no tokens.
func (s *Session) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	collector := telemetry.FromContext(ctx)
	timer := collector.Start("search")
	defer timer.End()

	compileTimer := timer.Child("compile query")
	m, err := phrase.New(s.lexer, query)
	compileTimer.End()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("compiled query", zap.Strings("terms", m.Terms()))

	queryTimer := timer.Child("query postings")
	ids := s.index.Query(m.Terms())
	queryTimer.End()
	collector.Count("candidates", len(ids))

	scanTimer := timer.Child("scan documents")
	defer scanTimer.End()

	var results []Result
	for next := 0; next < len(ids); {
		size := len(ids) - next
		if limit > 0 {
			size = min(size, limit-len(results))
		}

		batch, err := s.scanBatch(ctx, m, ids[next:next+size])
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
		next += size

		if limit > 0 && len(results) >= limit {
			break
		}
	}

	collector.Count("results", len(results))
	return results, nil
}

// scanBatch scans the documents ids in parallel. Documents that fail are
// left out; the order of the rest is kept.
func (s *Session) scanBatch(ctx context.Context, m *phrase.Matcher, ids []int) ([]Result, error) {
	slots := make([]*Result, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			doc, ok := s.index.Document(id)
			if !ok {
				s.logger.Warn("dropping unknown document", zap.Int("id", id))
				return nil
			}

			slots[i] = s.safeScan(m, doc)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results, nil
}

// safeScan keeps a failure in one document from failing the session.
func (s *Session) safeScan(m *phrase.Matcher, doc index.Document) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dropping document after scan failure",
				zap.String("file", doc.Name),
				zap.Any("panic", r),
			)
			result = nil
		}
	}()

	return s.scan(m, doc)
}

func (s *Session) scanDocument(m *phrase.Matcher, doc index.Document) *Result {
	spans := m.Search(doc.Contents)
	if len(spans) == 0 {
		s.logger.Debug("no match in candidate document", zap.String("file", doc.Name))
		return nil
	}

	return &Result{
		Document: doc,
		Spans:    spans,
		Lines:    highlight.Render(doc.Contents, spans),
	}
}
