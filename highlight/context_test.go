package highlight

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/looker/phrase"
)

func lineNumbers(groups [][]Line) [][]int {
	out := make([][]int, 0, len(groups))
	for _, g := range groups {
		nums := make([]int, 0, len(g))
		for _, l := range g {
			nums = append(nums, l.Number)
		}
		out = append(out, nums)
	}
	return out
}

func TestContext(t *testing.T) {
	text := "1\n2\nx\n4\n5\n6\n7\nx\n9\n"
	// "x" on lines 3 and 8
	lines := Render(text, []phrase.Span{{Start: 4, End: 5}, {Start: 14, End: 15}})

	tests := []struct {
		n    int
		want [][]int
	}{
		{0, [][]int{{3}, {8}}},
		{1, [][]int{{2, 3, 4}, {7, 8, 9}}},
		{2, [][]int{{1, 2, 3, 4, 5, 6, 7, 8, 9}}},
		{-1, [][]int{{3}, {8}}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, lineNumbers(Context(lines, tt.n)))
	}
}

func TestContextNoMatches(t *testing.T) {
	lines := Render("a\nb\n", nil)
	assert.Equal(t, 0, len(Context(lines, 3)))
}
