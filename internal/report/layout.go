package report

import (
	"strings"
	"unicode/utf8"
)

// Page geometry in millimetres, A4 portrait. The cursor moves top-down; a
// block is emitted only after checking it fits above the bottom margin.
const (
	pageWidth  = 210.0
	pageHeight = 297.0

	marginX = 16.0
	marginY = 16.0
	lineH   = 5.0

	photoIndent = 10.0
	photoMaxH   = 80.0
)

// Hard-wrap budgets in characters. Indented blocks have less horizontal room
// and get a slightly smaller budget.
const (
	wrapWide   = 120
	wrapBody   = 110
	wrapIndent = 115
)

// wrapText word-wraps s to at most width characters per line. Words longer
// than the budget are split mid-word, on rune boundaries. An empty string
// still yields one empty line so captions and labels always advance the
// cursor.
func wrapText(s string, width int) []string {
	if width <= 0 {
		width = 1
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, w := range words {
		n := utf8.RuneCountInString(w)
		for n > width {
			flush()
			r := []rune(w)
			lines = append(lines, string(r[:width]))
			w = string(r[width:])
			n -= width
		}
		if w == "" {
			continue
		}
		switch {
		case curLen == 0:
			cur.WriteString(w)
			curLen = n
		case curLen+1+n <= width:
			cur.WriteByte(' ')
			cur.WriteString(w)
			curLen += 1 + n
		default:
			flush()
			cur.WriteString(w)
			curLen = n
		}
	}
	flush()
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
