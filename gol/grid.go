package gol

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/NickNoot/Jogo-da-Vida/util"
)

// Grid is a toroidal cell matrix with a fixed shape. Row slices are
// views into one contiguous backing array.
type Grid struct {
	Rows, Cols int
	Cells      [][]uint8
}

// MakeCells allocates a rows x cols cell array backed by a single slice.
func MakeCells(rows, cols int) [][]uint8 {
	cells := make([][]uint8, rows)
	data := make([]uint8, rows*cols)
	for i := 0; i != rows; i++ {
		cells[i] = data[0:cols]
		data = data[cols:]
	}
	return cells
}

// NewGrid makes an empty grid. Both dimensions must be positive.
func NewGrid(rows, cols int) (Grid, error) {
	if rows <= 0 || cols <= 0 {
		return Grid{}, fmt.Errorf("gol: grid dimensions must be positive, got %dx%d", rows, cols)
	}
	return Grid{Rows: rows, Cols: cols, Cells: MakeCells(rows, cols)}, nil
}

// Clone returns a grid with its own copy of the cells.
func (g Grid) Clone() Grid {
	copied := Grid{Rows: g.Rows, Cols: g.Cols, Cells: MakeCells(g.Rows, g.Cols)}
	for i := 0; i != g.Rows; i++ {
		copy(copied.Cells[i], g.Cells[i])
	}
	return copied
}

// Clear kills every cell.
func (g Grid) Clear() {
	for i := 0; i != g.Rows; i++ {
		for j := 0; j != g.Cols; j++ {
			g.Cells[i][j] = Dead
		}
	}
}

// SeedRandom fills the grid with each cell alive at probability one half.
func (g Grid) SeedRandom(rng *rand.Rand) {
	for i := 0; i != g.Rows; i++ {
		for j := 0; j != g.Cols; j++ {
			g.Cells[i][j] = uint8(rng.Intn(2))
		}
	}
}

// SeedGlider clears the grid and places a glider one cell in from the
// top-left corner. Grids too small to hold it fall back to random cells.
func (g Grid) SeedGlider(rng *rand.Rand) {
	const startRow, startCol = 1, 1
	if g.Rows < startRow+3 || g.Cols < startCol+3 {
		log.Print("Grid too small for a glider, seeding random cells instead")
		g.SeedRandom(rng)
		return
	}
	// . # .
	// . . #
	// # # #
	g.Clear()
	g.Cells[startRow][startCol+1] = Alive
	g.Cells[startRow+1][startCol+2] = Alive
	g.Cells[startRow+2][startCol] = Alive
	g.Cells[startRow+2][startCol+1] = Alive
	g.Cells[startRow+2][startCol+2] = Alive
}

// AliveCount returns the number of alive cells.
func (g Grid) AliveCount() int {
	count := 0
	for i := 0; i != g.Rows; i++ {
		for j := 0; j != g.Cols; j++ {
			if g.Cells[i][j] != Dead {
				count++
			}
		}
	}
	return count
}

// AliveCells lists the alive cells in row-major order.
func (g Grid) AliveCells() []util.Cell {
	cells := make([]util.Cell, 0, 64)
	for i := 0; i != g.Rows; i++ {
		for j := 0; j != g.Cols; j++ {
			if g.Cells[i][j] != Dead {
				cells = append(cells, util.Cell{X: j, Y: i})
			}
		}
	}
	return cells
}

// FlippedCells lists every cell whose state differs between two grids of
// the same shape.
func FlippedCells(before, after Grid) []util.Cell {
	flipping_buffer := make([]util.Cell, 0, 64)
	for i := 0; i != before.Rows; i++ {
		for j := 0; j != before.Cols; j++ {
			if before.Cells[i][j] != after.Cells[i][j] {
				flipping_buffer = append(flipping_buffer, util.Cell{X: j, Y: i})
			}
		}
	}
	return flipping_buffer
}
