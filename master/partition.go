package master

import "github.com/NickNoot/Jogo-da-Vida/gol"

// span is one worker's contiguous row range [start, end).
type span struct {
	start, end int
}

func (s span) rows() int {
	return s.end - s.start
}

// splitRows divides rows into contiguous spans, one per worker, in
// index order. Every worker except the last gets exactly rows/workers
// rows; the last takes the remainder. The union covers [0, rows).
func splitRows(rows, workers int) []span {
	rows_per_worker := rows / workers
	spans := make([]span, workers)
	for i := 0; i != workers; i++ {
		spans[i] = span{start: i * rows_per_worker, end: (i + 1) * rows_per_worker}
	}
	spans[workers-1].end = rows
	return spans
}

// ghostRows picks the grid rows bordering a span, wrapping at the grid
// edges: the first span's top ghost is the last grid row and the last
// span's bottom ghost is row zero.
func ghostRows(g gol.Grid, s span) (top, bottom []uint8) {
	top = g.Cells[(s.start-1+g.Rows)%g.Rows]
	bottom = g.Cells[s.end%g.Rows]
	return top, bottom
}

// merge concatenates worker results in index order into a fresh grid.
func merge(results [][][]uint8, rows, cols int) gol.Grid {
	next := gol.Grid{Rows: rows, Cols: cols, Cells: gol.MakeCells(rows, cols)}
	i := 0
	for _, result := range results {
		for _, row := range result {
			copy(next.Cells[i], row)
			i++
		}
	}
	return next
}
