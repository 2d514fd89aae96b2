// Package highlight renders phrase matches in a document line by line.
//
// Render walks the document once, carrying whether a match is still open
// from one line into the next, so a match spanning several lines is
// highlighted on each of them. The fragments of all lines concatenate back
// to the original text.
package highlight

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/looker/phrase"
)

// Fragment is a piece of a line, either plain or highlighted.
type Fragment struct {
	Text        string
	Highlighted bool
}

// Line is one line of a rendered document. Start and End are byte offsets
// of the line in the document, End including the line terminator.
type Line struct {
	Number    int // 1-indexed
	Start     int
	End       int
	Fragments []Fragment
}

// Matched reports whether any part of the line is highlighted.
func (l Line) Matched() bool {
	for _, f := range l.Fragments {
		if f.Highlighted {
			return true
		}
	}
	return false
}

// String returns the line text, terminator included.
func (l Line) String() string {
	var b strings.Builder
	for _, f := range l.Fragments {
		b.WriteString(f.Text)
	}
	return b.String()
}

// Format renders the line without its terminator, passing every fragment
// through plain or highlighted.
func (l Line) Format(plain, highlighted func(string) string) string {
	var b strings.Builder
	for i, f := range l.Fragments {
		text := f.Text
		if i == len(l.Fragments)-1 {
			text = strings.TrimRight(text, "\r\n")
		}
		if text == "" {
			continue
		}
		if f.Highlighted {
			b.WriteString(highlighted(text))
		} else {
			b.WriteString(plain(text))
		}
	}
	return b.String()
}

// point is a span boundary: the start or the end of spans[span].
type point struct {
	offset int
	span   int
	end    bool
}

func comparePoints(a, b point) int {
	switch {
	case a.offset != b.offset:
		return a.offset - b.offset
	case a.end != b.end:
		// A match closing at an offset sorts before one opening there.
		if a.end {
			return -1
		}
		return 1
	default:
		return a.span - b.span
	}
}

// Render splits text into lines and tags every byte as plain or
// highlighted according to spans.
func Render(text string, spans []phrase.Span) []Line {
	r := newRenderer(text, spans)

	var lines []Line
	for start, number := 0, 1; start < len(text); number++ {
		end := len(text)
		if i := strings.IndexByte(text[start:], '\n'); i >= 0 {
			end = start + i + 1
		}

		fragments := r.line(start, end)
		if len(fragments) == 0 {
			fragments = []Fragment{{Text: text[start:end]}}
		}

		lines = append(lines, Line{
			Number:    number,
			Start:     start,
			End:       end,
			Fragments: fragments,
		})
		start = end
	}

	return lines
}

// renderer holds the state carried across the lines of one document.
type renderer struct {
	text   string
	spans  []phrase.Span
	points []point
	next   int // index of the first unprocessed point

	open   bool // a match continues from the previous line
	active int  // span index of the open match
}

func newRenderer(text string, spans []phrase.Span) *renderer {
	valid := make([]phrase.Span, 0, len(spans))
	for _, s := range spans {
		if s.Start >= 0 && s.Start < s.End && s.End <= len(text) {
			valid = append(valid, s)
		}
	}
	slices.SortStableFunc(valid, func(a, b phrase.Span) int {
		return a.Start - b.Start
	})
	valid = phrase.Coalesce(valid)

	points := make([]point, 0, 2*len(valid))
	for i, s := range valid {
		points = append(points,
			point{offset: s.Start, span: i},
			point{offset: s.End, span: i, end: true},
		)
	}
	slices.SortFunc(points, comparePoints)
	points = slices.Compact(points)

	return &renderer{text: text, spans: valid, points: points}
}

// line renders [start, end). It returns nil when no match touches the line.
func (r *renderer) line(start, end int) []Fragment {
	var fragments []Fragment
	pos := start

	if r.open {
		closeAt := r.spans[r.active].End
		if closeAt > end {
			return []Fragment{r.fragment(start, end, true)}
		}

		if closeAt > start {
			fragments = append(fragments, r.fragment(start, closeAt, true))
		}
		pos = closeAt
		r.open = false
		r.skipEnd(r.active)
	}

	for r.next < len(r.points) {
		p := r.points[r.next]
		if p.offset >= end && !(p.end && p.offset == end) {
			break
		}
		r.next++

		if p.end {
			// Ends are consumed together with their start below.
			continue
		}

		if p.offset > pos {
			fragments = append(fragments, r.fragment(pos, p.offset, false))
		}

		closeAt := r.spans[p.span].End
		if closeAt > end {
			fragments = append(fragments, r.fragment(p.offset, end, true))
			r.open, r.active = true, p.span
			return fragments
		}

		fragments = append(fragments, r.fragment(p.offset, closeAt, true))
		pos = closeAt
		r.skipEnd(p.span)
	}

	if len(fragments) > 0 && pos < end {
		fragments = append(fragments, r.fragment(pos, end, false))
	}

	return fragments
}

// skipEnd advances past the end point of spans[span] if it is next.
func (r *renderer) skipEnd(span int) {
	if r.next < len(r.points) && r.points[r.next].end && r.points[r.next].span == span {
		r.next++
	}
}

func (r *renderer) fragment(start, end int, highlighted bool) Fragment {
	return Fragment{Text: r.text[start:end], Highlighted: highlighted}
}
