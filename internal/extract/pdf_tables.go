// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"sort"
	"strings"
)

// textSpan is one positioned text run on a PDF line.
type textSpan struct {
	x, w, size float64
	s          string
}

// textLine is a row of spans sharing a baseline.
type textLine struct {
	y     int64
	spans []textSpan
}

const (
	// cellGapEm is the horizontal gap, in multiples of the font size,
	// that separates two cells on the same line.
	cellGapEm = 1.5

	// minTableRows is the number of consecutive aligned lines that make a table.
	minTableRows = 2
)

// detectTables groups consecutive lines that split into the same number
// (at least two) of gap-separated cells. Lines are ordered top to bottom.
func detectTables(lines []textLine) [][][]string {
	sorted := make([]textLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].y > sorted[j].y })

	var (
		tables [][][]string
		run    [][]string
	)
	flush := func() {
		if len(run) >= minTableRows {
			tables = append(tables, run)
		}
		run = nil
	}

	for _, line := range sorted {
		cells := splitCells(line.spans)
		if len(cells) < 2 {
			flush()
			continue
		}
		if len(run) > 0 && len(run[0]) != len(cells) {
			flush()
		}
		run = append(run, cells)
	}
	flush()
	return tables
}

// splitCells merges spans left to right and starts a new cell wherever the
// gap to the previous span exceeds cellGapEm font sizes.
func splitCells(spans []textSpan) []string {
	if len(spans) == 0 {
		return nil
	}
	sorted := make([]textSpan, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].x < sorted[j].x })

	var (
		cells []string
		cur   strings.Builder
		end   float64
	)
	for i, sp := range sorted {
		size := sp.size
		if size <= 0 {
			size = 10
		}
		if i > 0 && sp.x-end > cellGapEm*size {
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		cur.WriteString(sp.s)
		w := sp.w
		if w <= 0 {
			// Fonts without width tables report zero; assume half an em per rune.
			w = float64(len([]rune(sp.s))) * size * 0.5
		}
		end = sp.x + w
	}
	cells = append(cells, strings.TrimSpace(cur.String()))
	return cells
}
