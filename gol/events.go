package gol

import (
	"fmt"

	"github.com/NickNoot/Jogo-da-Vida/util"
)

// Event is anything a running simulation reports to its observers.
type Event interface {
	fmt.Stringer
}

// State represents a change in the state of execution.
type State int

const (
	Executing State = iota
	Quitting
)

func (state State) String() string {
	switch state {
	case Executing:
		return "Executing"
	case Quitting:
		return "Quitting"
	default:
		return "Incorrect State"
	}
}

// CellsFlipped lists every cell whose state changed in the completed
// turn. Turn 0 carries the initially alive cells.
type CellsFlipped struct {
	CompletedTurns int
	Cells          []util.Cell
}

// TurnComplete signals that a full generation has been merged. A live
// view renders a frame on this event.
type TurnComplete struct {
	CompletedTurns int
}

// AliveCellsCount reports the current number of alive cells, at most
// once every two seconds.
type AliveCellsCount struct {
	CompletedTurns int
	CellsCount     int
}

// FinalTurnComplete carries the alive cells of the last generation.
type FinalTurnComplete struct {
	CompletedTurns int
	Alive          []util.Cell
}

// StateChange reports the run starting or quitting.
type StateChange struct {
	CompletedTurns int
	NewState       State
}

func (e CellsFlipped) String() string {
	return fmt.Sprintf("Completed Turns %-8v %v cells flipped", e.CompletedTurns, len(e.Cells))
}

func (e TurnComplete) String() string {
	return fmt.Sprintf("Completed Turns %-8v", e.CompletedTurns)
}

func (e AliveCellsCount) String() string {
	return fmt.Sprintf("Completed Turns %-8v Alive Cells %v", e.CompletedTurns, e.CellsCount)
}

func (e FinalTurnComplete) String() string {
	return fmt.Sprintf("Completed Turns %-8v Final Alive Cells %v", e.CompletedTurns, len(e.Alive))
}

func (e StateChange) String() string {
	return fmt.Sprintf("Completed Turns %-8v %v", e.CompletedTurns, e.NewState)
}
