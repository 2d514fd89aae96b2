package highlight

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/looker/lexer"
	"github.com/robinvdvleuten/looker/phrase"
)

func plain(s string) Fragment { return Fragment{Text: s} }
func marked(s string) Fragment { return Fragment{Text: s, Highlighted: true} }

func joinLines(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.String())
	}
	return b.String()
}

func TestRenderWithoutMatches(t *testing.T) {
	text := "int a;\nint b;\n"
	lines := Render(text, nil)

	assert.Equal(t, []Line{
		{Number: 1, Start: 0, End: 7, Fragments: []Fragment{plain("int a;\n")}},
		{Number: 2, Start: 7, End: 14, Fragments: []Fragment{plain("int b;\n")}},
	}, lines)
	assert.False(t, lines[0].Matched())
}

func TestRenderEmpty(t *testing.T) {
	assert.Equal(t, 0, len(Render("", nil)))
}

func TestRenderSingleLine(t *testing.T) {
	text := "int x = foo(bar);\n"
	lines := Render(text, []phrase.Span{{Start: 8, End: 16}})

	assert.Equal(t, 1, len(lines))
	assert.Equal(t, []Fragment{plain("int x = "), marked("foo(bar)"), plain(";\n")}, lines[0].Fragments)
	assert.True(t, lines[0].Matched())
}

func TestRenderSpanningLines(t *testing.T) {
	text := "a foo\nmiddle\nbar b\n"

	m, err := phrase.New(lexer.New(lexer.DefaultRules()), "foo middle bar")
	assert.NoError(t, err)
	spans := m.Search(text)
	assert.Equal(t, []phrase.Span{{Start: 2, End: 16}}, spans)

	lines := Render(text, spans)
	assert.Equal(t, 3, len(lines))
	assert.Equal(t, []Fragment{plain("a "), marked("foo\n")}, lines[0].Fragments)
	assert.Equal(t, []Fragment{marked("middle\n")}, lines[1].Fragments)
	assert.Equal(t, []Fragment{marked("bar"), plain(" b\n")}, lines[2].Fragments)
	assert.Equal(t, text, joinLines(lines))
}

func TestRenderCloseThenReopenOnSameLine(t *testing.T) {
	text := "x foo\nbar y foo\nbar\n"
	// "foo\nbar" twice: the second match opens on the line the first closes.
	spans := []phrase.Span{{Start: 2, End: 9}, {Start: 12, End: 19}}

	lines := Render(text, spans)
	assert.Equal(t, 3, len(lines))
	assert.Equal(t, []Fragment{plain("x "), marked("foo\n")}, lines[0].Fragments)
	assert.Equal(t, []Fragment{marked("bar"), plain(" y "), marked("foo\n")}, lines[1].Fragments)
	assert.Equal(t, []Fragment{marked("bar"), plain("\n")}, lines[2].Fragments)
}

func TestRenderTouchingSpans(t *testing.T) {
	text := "f()f()\n"
	lines := Render(text, []phrase.Span{{Start: 0, End: 3}, {Start: 3, End: 6}})

	assert.Equal(t, []Fragment{marked("f()"), marked("f()"), plain("\n")}, lines[0].Fragments)
}

func TestRenderMatchAtEndOfText(t *testing.T) {
	text := "x foo"
	lines := Render(text, []phrase.Span{{Start: 2, End: 5}})

	assert.Equal(t, []Fragment{plain("x "), marked("foo")}, lines[0].Fragments)
}

func TestRenderMatchAtLineStart(t *testing.T) {
	text := "a\nfoo b\n"
	lines := Render(text, []phrase.Span{{Start: 2, End: 5}})

	assert.Equal(t, []Fragment{plain("a\n")}, lines[0].Fragments)
	assert.Equal(t, []Fragment{marked("foo"), plain(" b\n")}, lines[1].Fragments)
}

func TestRenderNormalizesSpans(t *testing.T) {
	text := "a b c d\n"
	spans := []phrase.Span{{Start: 6, End: 7}, {Start: 0, End: 1}, {Start: 0, End: 1}, {Start: 3, End: 3}, {Start: 5, End: 99}}

	lines := Render(text, spans)
	assert.Equal(t, []Fragment{marked("a"), plain(" b c "), marked("d"), plain("\n")}, lines[0].Fragments)
}

func TestRenderCoversEveryByte(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := []byte("ab \n")

	for i := 0; i < 200; i++ {
		n := rng.Intn(40)
		buf := make([]byte, n)
		for j := range buf {
			buf[j] = alphabet[rng.Intn(len(alphabet))]
		}
		text := string(buf)

		var spans []phrase.Span
		for pos := 0; pos < n; {
			start := pos + rng.Intn(5)
			end := start + 1 + rng.Intn(8)
			if end > n {
				break
			}
			spans = append(spans, phrase.Span{Start: start, End: end})
			pos = end + rng.Intn(2)
		}

		inside := make([]bool, n)
		for _, s := range spans {
			for k := s.Start; k < s.End; k++ {
				inside[k] = true
			}
		}

		lines := Render(text, spans)
		assert.Equal(t, text, joinLines(lines))

		offset := 0
		for _, line := range lines {
			assert.Equal(t, offset, line.Start)
			assert.Equal(t, text[line.Start:line.End], line.String())
			for _, f := range line.Fragments {
				assert.NotEqual(t, "", f.Text)
				for k := 0; k < len(f.Text); k++ {
					assert.Equal(t, inside[offset+k], f.Highlighted, "byte %d of %q with spans %v", offset+k, text, spans)
				}
				offset += len(f.Text)
			}
		}
	}
}

func TestLineFormat(t *testing.T) {
	line := Line{Fragments: []Fragment{plain("x = "), marked("foo"), plain(";\r\n")}}
	got := line.Format(
		func(s string) string { return s },
		func(s string) string { return "[" + s + "]" },
	)
	assert.Equal(t, "x = [foo];", got)

	line = Line{Fragments: []Fragment{plain("a "), marked("foo\n")}}
	got = line.Format(
		func(s string) string { return s },
		func(s string) string { return "[" + s + "]" },
	)
	assert.Equal(t, "a [foo]", got)
}

func TestLineNumbers(t *testing.T) {
	lines := Render("a\n\nb", nil)

	assert.Equal(t, 3, len(lines))
	for i, line := range lines {
		assert.Equal(t, i+1, line.Number)
	}
	assert.Equal(t, "\n", lines[1].String())
	assert.Equal(t, "b", lines[2].String())
}
