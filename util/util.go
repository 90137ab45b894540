package util

import "fmt"

// Cell identifies a single grid cell by its column (X) and row (Y).
type Cell struct {
	X, Y int
}

func (cell Cell) String() string {
	return fmt.Sprintf("(%d, %d)", cell.X, cell.Y)
}

// Check panics on a non-nil error.
func Check(err error) {
	if err != nil {
		panic(err)
	}
}
