package gol

// Cell states as stored in memory and on the wire.
const (
	Dead  uint8 = 0
	Alive uint8 = 1
)

// CountLiveNeighbors sums the eight cells surrounding (r, c), wrapping
// both indices modulo the array dimensions. With Dead/Alive values the
// sum is the live count.
func CountLiveNeighbors(cells [][]uint8, r, c int) int {
	rows := len(cells)
	cols := len(cells[0])
	count := 0
	for dr := -1; dr != 2; dr++ {
		for dc := -1; dc != 2; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			count += int(cells[(r+dr+rows)%rows][(c+dc+cols)%cols])
		}
	}
	return count
}

// ApplyRule returns the next state of a cell given its current state and
// live surrounding count. Alive cells survive with 2 or 3 live
// neighbors, dead cells come alive with exactly 3.
func ApplyRule(state uint8, liveNeighbors int) uint8 {
	if state == Alive {
		if liveNeighbors == 2 || liveNeighbors == 3 {
			return Alive
		}
		return Dead
	}
	if liveNeighbors == 3 {
		return Alive
	}
	return Dead
}
