// Package output provides styling helpers for terminal output.
package output

import (
	"io"

	"github.com/muesli/termenv"
)

// Styles provides styled output helpers for the CLI.
type Styles struct {
	output *termenv.Output
}

// NewStyles creates a new Styles instance for the given writer. Colors are
// only emitted when the writer is a terminal that supports them.
func NewStyles(w io.Writer) *Styles {
	return &Styles{
		output: termenv.NewOutput(w),
	}
}

// NewStylesWithProfile creates a Styles instance with a fixed color profile,
// regardless of what the writer supports.
func NewStylesWithProfile(w io.Writer, profile termenv.Profile) *Styles {
	return &Styles{
		output: termenv.NewOutput(w, termenv.WithProfile(profile)),
	}
}

// Success returns a styled success string (green + bold).
func (s *Styles) Success(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("2")).
		Bold().
		String()
}

// Error returns a styled error string (red + bold).
func (s *Styles) Error(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("1")).
		Bold().
		String()
}

// FileName returns a styled file name heading a search result (blue).
func (s *Styles) FileName(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("4")).
		String()
}

// Match returns highlighted matched text (red).
func (s *Styles) Match(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("1")).
		String()
}

// LineNumber returns a styled line number gutter (dim).
func (s *Styles) LineNumber(text string) string {
	return s.Dim(text)
}

// Keyword returns a styled keyword (bold).
func (s *Styles) Keyword(text string) string {
	return s.output.String(text).
		Bold().
		String()
}

// Dim returns dimmed text (for secondary information).
func (s *Styles) Dim(text string) string {
	return s.output.String(text).
		Faint().
		String()
}

// Warning returns a styled warning (yellow + bold).
func (s *Styles) Warning(text string) string {
	return s.output.String(text).
		Foreground(s.output.Color("3")).
		Bold().
		String()
}

// Timing returns a styled timing string: red for slow operations, dimmed
// otherwise.
func (s *Styles) Timing(text string, slow bool) string {
	if slow {
		return s.output.String(text).
			Foreground(s.output.Color("1")).
			String()
	}
	return s.Dim(text)
}

// Output returns the underlying termenv Output for advanced usage.
func (s *Styles) Output() *termenv.Output {
	return s.output
}
