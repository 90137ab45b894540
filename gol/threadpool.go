package gol

import "sync"

// NextGenerationParallel evaluates one generation with the rows split
// across a pool of goroutines. Every goroutine except the last gets
// rows/threads rows; the last takes the remainder. The result is
// identical to NextGeneration for any thread count.
func NextGenerationParallel(g Grid, threads int) Grid {
	if threads < 1 {
		threads = 1
	}
	if threads > g.Rows {
		threads = g.Rows
	}
	next := Grid{Rows: g.Rows, Cols: g.Cols, Cells: MakeCells(g.Rows, g.Cols)}
	rows_per_thread := g.Rows / threads

	var wg sync.WaitGroup
	for i := 0; i != threads; i++ {
		start := i * rows_per_thread
		end := start + rows_per_thread
		if i == threads-1 {
			end = g.Rows
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for r := start; r != end; r++ {
				for c := 0; c != g.Cols; c++ {
					next.Cells[r][c] = ApplyRule(g.Cells[r][c], CountLiveNeighbors(g.Cells, r, c))
				}
			}
		}(start, end)
	}
	wg.Wait()
	return next
}
