// Package worker implements the compute side of the distributed
// simulation: a process that receives partition chunks from the master,
// evaluates one generation for them and sends the result back.
package worker

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"

	"github.com/NickNoot/Jogo-da-Vida/gol"
	"github.com/NickNoot/Jogo-da-Vida/protocol"
)

// Worker holds one compute process's connection to the master.
type Worker struct {
	conn net.Conn
}

// Dial connects to the master. A refused or timed out connection is
// fatal to the caller; there is no retry.
func Dial(host string, port int) (*Worker, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("worker: connect to %s: %w", addr, err)
	}
	log.Printf("Connection to %s established", addr)
	return &Worker{conn: conn}, nil
}

// Run blocks on the receive/compute/send loop until the master sends
// STOP or closes the stream cleanly. Any codec error or unexpected
// message type ends the run with an error; there is no reconnection.
func (w *Worker) Run() error {
	defer func() {
		w.conn.Close()
		log.Printf("Connection to %s closed", w.conn.RemoteAddr().String())
	}()

	buffer := bufio.NewReader(w.conn)
	for {
		t, payload, err := protocol.Recv(buffer)
		if err != nil {
			if errors.Is(err, protocol.ErrClosed) {
				log.Print("Master closed the connection")
				return nil
			}
			return err
		}
		switch t {
		case protocol.MsgChunk:
			chunk, err := protocol.DecodeChunk(payload)
			if err != nil {
				return err
			}
			next := ComputeChunk(chunk.Cells, chunk.Top, chunk.Bottom)
			if err := protocol.Send(w.conn, protocol.MsgUpdate, protocol.EncodeRows(next)); err != nil {
				return err
			}
		case protocol.MsgStop:
			log.Print("Stop requested by master")
			return nil
		default:
			return fmt.Errorf("%w: unexpected %v message", protocol.ErrMalformed, t)
		}
	}
}

// ComputeChunk evaluates one generation for the chunk rows. The ghost
// rows extend the chunk above and below so the rule engine sees the true
// surrounding cells at the partition edges; column wrap comes from the
// engine itself and row wrap entirely from the ghosts. A nil ghost row
// leaves the chunk to wrap onto itself on that side.
func ComputeChunk(chunk [][]uint8, top, bottom []uint8) [][]uint8 {
	augmented := make([][]uint8, 0, len(chunk)+2)
	offset := 0
	if top != nil {
		augmented = append(augmented, top)
		offset = 1
	}
	augmented = append(augmented, chunk...)
	if bottom != nil {
		augmented = append(augmented, bottom)
	}

	cols := len(chunk[0])
	next := gol.MakeCells(len(chunk), cols)
	for r := 0; r != len(chunk); r++ {
		for c := 0; c != cols; c++ {
			count := gol.CountLiveNeighbors(augmented, r+offset, c)
			next[r][c] = gol.ApplyRule(chunk[r][c], count)
		}
	}
	return next
}
