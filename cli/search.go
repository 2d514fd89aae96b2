package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/looker/highlight"
	"github.com/robinvdvleuten/looker/index"
	"github.com/robinvdvleuten/looker/output"
	"github.com/robinvdvleuten/looker/phrase"
	"github.com/robinvdvleuten/looker/search"
)

type SearchCmd struct {
	Query    string `help:"Phrase to search for." arg:""`
	IndexDir string `help:"Directory the index is stored in (defaults to the configured index_dir)." placeholder:"DIR"`
	Limit    int    `help:"Maximum number of results, 0 for all (negative uses the configured limit)." short:"l" default:"-1"`
	Context  int    `help:"Lines of context around matches (negative uses the configured context)." short:"C" default:"-1"`
	Format   string `help:"Output format: ${enum}." enum:"text,json" default:"text"`
}

func (cmd *SearchCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := globals.LoadConfig()
	if err != nil {
		return err
	}

	logger := globals.Logger(ctx.Stderr)
	defer func() { _ = logger.Sync() }()

	runCtx, report := startTelemetry(context.Background(), ctx, globals, fmt.Sprintf("search %q", cmd.Query))
	defer report()

	reg, err := cfg.Registry(logger)
	if err != nil {
		return err
	}

	dir := indexDir(cmd.IndexDir, cfg)
	ix, err := index.Open(dir, reg)
	if errors.Is(err, index.ErrNotFound) {
		confirmed, promptErr := prompt(fmt.Sprintf("No index found in %s. Build it from the current directory?", dir))
		if promptErr != nil {
			return promptErr
		}
		if confirmed {
			b := &builder{cfg: cfg, logger: logger}
			if isTerminalWriter(ctx.Stderr) {
				b.progress = ctx.Stderr
			}
			ix, err = b.build(runCtx, ".", dir)
		}
	}
	if err != nil {
		return reportError(ctx.Stderr, err)
	}

	session, err := search.NewSession(ix, search.WithWorkers(cfg.Workers), search.WithLogger(logger))
	if err != nil {
		return err
	}

	results, err := session.Search(runCtx, cmd.Query, intOption(cmd.Limit, cfg.Limit))
	if err != nil {
		return reportError(ctx.Stderr, err)
	}

	if len(results) == 0 {
		printInfof(ctx.Stderr, "No matches for %q", cmd.Query)
		return nil
	}

	n := intOption(cmd.Context, cfg.Context)
	if cmd.Format == "json" {
		return encodeResults(ctx.Stdout, results, n)
	}

	renderResults(ctx.Stdout, output.NewStyles(ctx.Stdout), results, n)
	return nil
}

// renderResults prints every result as its file name followed by the
// matched lines with n lines of context. Elided lines are marked with --.
func renderResults(w io.Writer, styles *output.Styles, results []search.Result, n int) {
	for i, r := range results {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintln(w, styles.FileName(r.Document.Name))

		groups := r.Context(n)
		width := gutterWidth(groups)
		for j, group := range groups {
			if j > 0 {
				_, _ = fmt.Fprintln(w, styles.Dim("--"))
			}
			for _, line := range group {
				renderLine(w, styles, line, width)
			}
		}
	}
}

func renderLine(w io.Writer, styles *output.Styles, line highlight.Line, width int) {
	number := fmt.Sprintf("%*d", width, line.Number)
	text := line.Format(
		func(s string) string { return s },
		styles.Match,
	)
	_, _ = fmt.Fprintf(w, "%s  %s\n", styles.LineNumber(number), text)
}

func gutterWidth(groups [][]highlight.Line) int {
	width := 1
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		width = max(width, len(strconv.Itoa(group[len(group)-1].Number)))
	}
	return width
}

type jsonResult struct {
	File  string        `json:"file"`
	Spans []phrase.Span `json:"spans"`
	Lines []jsonLine    `json:"lines"`
}

type jsonLine struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
	// Highlights are byte ranges within Text.
	Highlights [][2]int `json:"highlights,omitempty"`
}

// encodeResults writes one JSON object per result, holding the matched
// lines with n lines of context.
func encodeResults(w io.Writer, results []search.Result, n int) error {
	enc := json.NewEncoder(w)

	for _, r := range results {
		out := jsonResult{File: r.Document.Name, Spans: r.Spans}
		for _, group := range r.Context(n) {
			for _, line := range group {
				out.Lines = append(out.Lines, newJSONLine(line))
			}
		}
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	}

	return nil
}

func newJSONLine(line highlight.Line) jsonLine {
	out := jsonLine{Number: line.Number}

	var b strings.Builder
	for i, f := range line.Fragments {
		text := f.Text
		if i == len(line.Fragments)-1 {
			text = strings.TrimRight(text, "\r\n")
		}
		if f.Highlighted && text != "" {
			out.Highlights = append(out.Highlights, [2]int{b.Len(), b.Len() + len(text)})
		}
		b.WriteString(text)
	}
	out.Text = b.String()

	return out
}
