package operation

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/walteh/argthread/pkg/log"
)

// diffContext is the number of unchanged lines kept around each change
const diffContext = 2

// lineDiff returns the changed lines between before and after with up to
// context unchanged lines around each change. Skipped runs between changes
// are collapsed into a single "..." line.
func lineDiff(before, after string, context int) []log.DiffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var all []log.DiffLine
	for _, d := range diffs {
		op := ' '
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = '+'
		case diffmatchpatch.DiffDelete:
			op = '-'
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			all = append(all, log.DiffLine{Op: op, Text: strings.TrimSuffix(line, "\n")})
		}
	}

	keep := make([]bool, len(all))
	for i, line := range all {
		if line.Op == ' ' {
			continue
		}
		for j := max(0, i-context); j <= min(len(all)-1, i+context); j++ {
			keep[j] = true
		}
	}

	var out []log.DiffLine
	last := -1
	for i, line := range all {
		if !keep[i] {
			continue
		}
		if last >= 0 && i > last+1 {
			out = append(out, log.DiffLine{Op: ' ', Text: "..."})
		}
		out = append(out, line)
		last = i
	}
	return out
}
