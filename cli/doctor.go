package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"
	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/looker/highlight"
	"github.com/robinvdvleuten/looker/index"
	"github.com/robinvdvleuten/looker/lexer"
	"github.com/robinvdvleuten/looker/output"
	"github.com/robinvdvleuten/looker/phrase"
	"github.com/robinvdvleuten/looker/search"
)

// DoctorCmd provides doctor utilities for debugging tokenization and matching.
type DoctorCmd struct {
	Lex   LexCmd   `cmd:"" help:"Show the tokens of a C source file."`
	Match MatchCmd `cmd:"" help:"Show how a phrase matches a C source file."`
}

// LexCmd shows the tokens of a C source file.
type LexCmd struct {
	File FileOrStdin `help:"C source file (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Repr bool        `help:"Dump the tokens as Go values."`
}

// Run executes the lex command.
func (cmd *LexCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	cfg, err := globals.LoadConfig()
	if err != nil {
		return err
	}
	logger := globals.Logger(ctx.Stderr)
	defer func() { _ = logger.Sync() }()

	lx, err := cfg.Lexer(logger)
	if err != nil {
		return err
	}

	text := string(cmd.File.Contents)
	stream := lx.Stream(text)

	var tokens []lexer.Token
	for {
		tok, ok := stream.Next()
		if !ok {
			break
		}
		tokens = append(tokens, tok)
	}

	if cmd.Repr {
		_, _ = fmt.Fprintln(ctx.Stdout, repr.String(tokens, repr.Indent("  ")))
	} else {
		printTokens(ctx.Stdout, text, tokens)
	}

	lines := newLineIndex(text)
	if stream.Truncated() {
		line, col := lines.position(stream.Offset())
		printError(ctx.Stderr, fmt.Sprintf("no rule matches at %d:%d, remaining input was not tokenized", line, col))
	}
	if n := stream.Discarded(); n > 0 {
		printInfof(ctx.Stderr, "Discarded %s longer than %d bytes", describe(n, "token", "tokens"), lx.MaxTokenLen())
	}

	return nil
}

// printTokens writes one token per line: CATEGORY line:col "text".
func printTokens(w io.Writer, text string, tokens []lexer.Token) {
	lines := newLineIndex(text)
	for _, tok := range tokens {
		line, col := lines.position(tok.Start)
		_, _ = fmt.Fprintf(w, "%-12s %d:%d    %q\n",
			tok.Category.String(),
			line,
			col,
			tok.Text)
	}
}

// MatchCmd shows how a phrase matches a C source file.
type MatchCmd struct {
	Query string      `help:"Phrase to match." arg:""`
	File  FileOrStdin `help:"C source file (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
}

// Run executes the match command.
func (cmd *MatchCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	cfg, err := globals.LoadConfig()
	if err != nil {
		return err
	}
	logger := globals.Logger(ctx.Stderr)
	defer func() { _ = logger.Sync() }()

	lx, err := cfg.Lexer(logger)
	if err != nil {
		return err
	}

	m, err := phrase.New(lx, cmd.Query)
	if err != nil {
		return reportError(ctx.Stderr, err)
	}

	text := string(cmd.File.Contents)
	occurrences := m.Occurrences(text)
	spans := phrase.Coalesce(occurrences)

	styles := output.NewStyles(ctx.Stdout)
	printPhrase(ctx.Stdout, styles, m)

	lines := newLineIndex(text)
	for _, s := range spans {
		startLine, startCol := lines.position(s.Start)
		endLine, endCol := lines.position(s.End)
		_, _ = fmt.Fprintf(ctx.Stdout, "%-12s %d:%d-%d:%d    %q\n",
			"SPAN", startLine, startCol, endLine, endCol, text[s.Start:s.End])
	}

	if len(spans) == 0 {
		printInfof(ctx.Stderr, "No matches in %s", cmd.File.DisplayName())
		return nil
	}

	_, _ = fmt.Fprintln(ctx.Stdout)
	renderResults(ctx.Stdout, styles, []search.Result{{
		Document: index.Document{Name: cmd.File.DisplayName(), Contents: text},
		Spans:    spans,
		Lines:    highlight.Render(text, spans),
	}}, 0)

	printInfof(ctx.Stderr, "%s, %s after merging overlaps",
		describe(len(occurrences), "occurrence", "occurrences"),
		describe(len(spans), "span", "spans"))
	return nil
}

// printPhrase writes the query terms and their failure table.
func printPhrase(w io.Writer, styles *output.Styles, m *phrase.Matcher) {
	terms := m.Terms()
	failure := m.Failure()

	quoted := make([]string, len(terms))
	values := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = fmt.Sprintf("%q", term)
		values[i] = fmt.Sprintf("%-*d", len(quoted[i]), failure[i])
	}

	_, _ = fmt.Fprintf(w, "%s %s\n", styles.Keyword(fmt.Sprintf("%-12s", "TERMS")), strings.Join(quoted, " "))
	_, _ = fmt.Fprintf(w, "%s %s\n", styles.Keyword(fmt.Sprintf("%-12s", "FAILURE")), strings.TrimRight(strings.Join(values, " "), " "))
}

// lineIndex maps byte offsets to 1-based line and column numbers. Columns
// count display cells, with a tab counting as one.
type lineIndex struct {
	text   string
	starts []int
}

func newLineIndex(text string) lineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{text: text, starts: starts}
}

func (li lineIndex) position(offset int) (line, col int) {
	i := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	prefix := li.text[li.starts[i]:offset]
	return i + 1, runewidth.StringWidth(prefix) + strings.Count(prefix, "\t") + 1
}
