package highlight

// Context selects the matched lines plus up to n lines around each of them.
// Lines that are adjacent after selection are grouped together; a new group
// starts wherever lines were elided.
func Context(lines []Line, n int) [][]Line {
	if n < 0 {
		n = 0
	}

	keep := make([]bool, len(lines))
	for i, line := range lines {
		if !line.Matched() {
			continue
		}
		for j := max(0, i-n); j <= min(len(lines)-1, i+n); j++ {
			keep[j] = true
		}
	}

	var groups [][]Line
	var group []Line
	for i, line := range lines {
		if !keep[i] {
			if len(group) > 0 {
				groups = append(groups, group)
				group = nil
			}
			continue
		}
		group = append(group, line)
	}
	if len(group) > 0 {
		groups = append(groups, group)
	}

	return groups
}
