package gol

// NextGeneration evaluates one full generation against a snapshot of g
// and returns the new grid. g is not modified.
func NextGeneration(g Grid) Grid {
	next := Grid{Rows: g.Rows, Cols: g.Cols, Cells: MakeCells(g.Rows, g.Cols)}
	for r := 0; r != g.Rows; r++ {
		for c := 0; c != g.Cols; c++ {
			next.Cells[r][c] = ApplyRule(g.Cells[r][c], CountLiveNeighbors(g.Cells, r, c))
		}
	}
	return next
}
