// Package master implements the coordinator of the distributed
// simulation. It owns the full grid, partitions it across connected
// worker processes and advances generations behind a strict all-workers
// barrier.
package master

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/NickNoot/Jogo-da-Vida/gol"
	"github.com/NickNoot/Jogo-da-Vida/protocol"
	"github.com/NickNoot/Jogo-da-Vida/util"
)

// DefaultPort is where the master listens unless configured otherwise.
const DefaultPort = 12345

const (
	defaultStartupWindow = 10 * time.Second
	handlerJoinWait      = time.Second
)

// ErrConfig marks configuration mistakes caught before any generation
// runs.
var ErrConfig = errors.New("master: configuration error")

// Config carries everything needed to coordinate one simulation run.
type Config struct {
	Workers       int
	Port          int           // TCP port to listen on; 0 lets the OS pick one
	StartupWindow time.Duration // how long to wait for all workers to connect
}

// workerSlot is the coordinator-side state for one connected worker.
type workerSlot struct {
	index  int
	conn   *net.TCPConn
	addr   string
	wmu    sync.Mutex    // synchronise writes to conn
	result [][]uint8     // UPDATE payload for the in-flight generation, nil until received
	done   chan struct{} // closed when the receive handler exits
}

func (slot *workerSlot) send(t protocol.MsgType, payload []byte) error {
	slot.wmu.Lock()
	defer slot.wmu.Unlock()
	return protocol.Send(slot.conn, t, payload)
}

// Master owns the run state: the grid, the worker slots and the
// generation counter.
type Master struct {
	cfg        Config
	rows, cols int
	spans      []span
	grid       gol.Grid
	turn       int

	mu        sync.Mutex
	cond      *sync.Cond
	slots     []*workerSlot
	stop_flag bool
	down      bool

	listener *net.TCPListener
}

// New validates the configuration and computes the static partition.
// Partitioning never changes after this point.
func New(cfg Config, grid gol.Grid) (*Master, error) {
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("%w: worker count must be positive, got %d", ErrConfig, cfg.Workers)
	}
	if grid.Rows < 1 || grid.Cols < 1 {
		return nil, fmt.Errorf("%w: grid must not be empty, got %dx%d", ErrConfig, grid.Rows, grid.Cols)
	}
	if grid.Rows/cfg.Workers == 0 {
		return nil, fmt.Errorf("%w: %d rows cannot give %d workers at least one row each",
			ErrConfig, grid.Rows, cfg.Workers)
	}
	if cfg.StartupWindow <= 0 {
		cfg.StartupWindow = defaultStartupWindow
	}
	m := &Master{
		cfg:   cfg,
		rows:  grid.Rows,
		cols:  grid.Cols,
		spans: splitRows(grid.Rows, cfg.Workers),
		grid:  grid,
	}
	m.cond = sync.NewCond(&m.mu)
	return m, nil
}

// Listen binds the listening socket on all interfaces.
func (m *Master) Listen() error {
	listener, err := net.ListenTCP("tcp", &net.TCPAddr{Port: m.cfg.Port})
	if err != nil {
		return fmt.Errorf("master: listen on port %d: %w", m.cfg.Port, err)
	}
	m.listener = listener
	log.Printf("Listening on %s, waiting for %d workers", listener.Addr(), m.cfg.Workers)
	return nil
}

// Addr returns the bound listener address.
func (m *Master) Addr() net.Addr {
	return m.listener.Addr()
}

// WaitForWorkers accepts exactly the configured number of connections,
// assigning worker indexes in arrival order and spawning one receive
// handler per connection. Fewer connections than workers within the
// startup window abort the run; there is no partial-worker execution.
func (m *Master) WaitForWorkers() error {
	m.listener.SetDeadline(time.Now().Add(m.cfg.StartupWindow))
	for i := 0; i != m.cfg.Workers; i++ {
		conn, err := m.listener.AcceptTCP()
		if err != nil {
			m.Shutdown()
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				return fmt.Errorf("%w: %d of %d workers connected within %v",
					ErrConfig, i, m.cfg.Workers, m.cfg.StartupWindow)
			}
			return fmt.Errorf("master: accept: %w", err)
		}
		slot := &workerSlot{
			index: i,
			conn:  conn,
			addr:  conn.RemoteAddr().String(),
			done:  make(chan struct{}),
		}
		m.mu.Lock()
		m.slots = append(m.slots, slot)
		m.mu.Unlock()
		log.Printf("Worker %d connected from %s", i, slot.addr)
		go m.handle(slot)
	}
	m.listener.SetDeadline(time.Time{})
	return nil
}

// handle is the receive loop for one worker connection. It stores
// UPDATE payloads into the worker's slot and wakes the barrier when the
// set completes. A handler that exits without filling its slot leaves
// the barrier waiting forever; the run has no recovery for that.
func (m *Master) handle(slot *workerSlot) {
	defer close(slot.done)

	buffer := bufio.NewReader(slot.conn)
	for {
		t, payload, err := protocol.Recv(buffer)
		if err != nil {
			if errors.Is(err, protocol.ErrClosed) {
				log.Printf("Worker %d disconnected", slot.index)
			} else {
				log.Printf("Worker %d receive failed: %v", slot.index, err)
			}
			return
		}
		switch t {
		case protocol.MsgUpdate:
			cells, err := protocol.DecodeRows(payload)
			if err != nil {
				log.Printf("Worker %d sent a bad update: %v", slot.index, err)
				slot.conn.Close()
				return
			}
			got_rows := len(cells)
			got_cols := 0
			if got_rows > 0 {
				got_cols = len(cells[0])
			}
			if got_rows != m.spans[slot.index].rows() || got_cols != m.cols {
				log.Printf("Worker %d update shape %dx%d does not match its %d-row span",
					slot.index, got_rows, got_cols, m.spans[slot.index].rows())
				slot.conn.Close()
				return
			}
			m.mu.Lock()
			slot.result = cells
			if m.allFilled() {
				m.cond.Signal()
			}
			m.mu.Unlock()
		case protocol.MsgStop:
			log.Printf("Worker %d signalled stop", slot.index)
			return
		default:
			log.Printf("Worker %d sent unexpected %v message", slot.index, t)
			slot.conn.Close()
			return
		}
	}
}

// allFilled reports whether every slot holds a result. Callers hold mu.
func (m *Master) allFilled() bool {
	for _, slot := range m.slots {
		if slot.result == nil {
			return false
		}
	}
	return true
}

// runTurn drives one generation: distribute chunks with their ghost
// rows, block on the barrier until the result set is complete, merge in
// worker index order. Returns the cells that changed state.
func (m *Master) runTurn() ([]util.Cell, error) {

	// Distribute
	for i, slot := range m.slots {
		s := m.spans[i]
		top, bottom := ghostRows(m.grid, s)
		chunk := protocol.Chunk{Cells: m.grid.Cells[s.start:s.end], Top: top, Bottom: bottom}
		if err := slot.send(protocol.MsgChunk, protocol.EncodeChunk(chunk)); err != nil {
			return nil, fmt.Errorf("master: distribute to worker %d: %w", i, err)
		}
	}

	// Barrier: every slot filled for this generation
	m.mu.Lock()
	for !m.allFilled() {
		m.cond.Wait()
	}
	result_buffer := make([][][]uint8, len(m.slots))
	for i, slot := range m.slots {
		result_buffer[i] = slot.result
		slot.result = nil
	}
	m.mu.Unlock()

	// Merge in worker index order, never arrival order
	next := merge(result_buffer, m.rows, m.cols)
	flipped := gol.FlippedCells(m.grid, next)
	m.grid = next
	m.turn++
	return flipped, nil
}

// Run executes turns generations, or fewer if Stop is called in
// between. Observer events go to events, which may be nil; Run closes
// the channel on the way out.
func (m *Master) Run(turns int, events chan<- gol.Event) error {
	if events != nil {
		defer close(events)
	}
	emit := func(event gol.Event) {
		if events != nil {
			events <- event
		}
	}
	if turns < 0 {
		turns = 0
	}

	log.Printf("Running %d generations of %dx%d across %d workers",
		turns, m.rows, m.cols, m.cfg.Workers)
	emit(gol.StateChange{CompletedTurns: m.turn, NewState: gol.Executing})
	emit(gol.CellsFlipped{CompletedTurns: m.turn, Cells: m.grid.AliveCells()})

	alive_ticker := time.NewTicker(2 * time.Second)
	defer alive_ticker.Stop()

	for m.turn != turns {
		if m.stopRequested() {
			log.Printf("Stop requested, interrupting at generation %d", m.turn)
			break
		}
		flipped, err := m.runTurn()
		if err != nil {
			return err
		}
		emit(gol.CellsFlipped{CompletedTurns: m.turn, Cells: flipped})
		emit(gol.TurnComplete{CompletedTurns: m.turn})
		select {
		case <-alive_ticker.C:
			emit(gol.AliveCellsCount{CompletedTurns: m.turn, CellsCount: m.grid.AliveCount()})
		default:
		}
	}

	emit(gol.FinalTurnComplete{CompletedTurns: m.turn, Alive: m.grid.AliveCells()})
	emit(gol.StateChange{CompletedTurns: m.turn, NewState: gol.Quitting})
	log.Printf("Simulation complete after %d generations", m.turn)
	return nil
}

// Grid returns the current grid. Not safe while Run is in flight.
func (m *Master) Grid() gol.Grid {
	return m.grid
}

// Turn returns the number of completed generations.
func (m *Master) Turn() int {
	return m.turn
}

// Stop asks Run to finish after the generation in flight. Advisory
// only: it cannot interrupt a blocking receive.
func (m *Master) Stop() {
	m.mu.Lock()
	m.stop_flag = true
	m.mu.Unlock()
}

func (m *Master) stopRequested() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stop_flag
}

// Shutdown broadcasts STOP to every connected worker, half-closes and
// closes each socket, joins the handlers with a bounded wait and
// finally closes the listener. Handlers still running after the wait
// are abandoned, not force-terminated. Safe to call more than once;
// repeat calls do nothing and return nil.
func (m *Master) Shutdown() error {
	m.mu.Lock()
	if m.down {
		m.mu.Unlock()
		return nil
	}
	m.down = true
	m.stop_flag = true
	slots := m.slots
	m.mu.Unlock()

	log.Print("Sending stop to workers and shutting down")
	for _, slot := range slots {
		if err := slot.send(protocol.MsgStop, nil); err != nil {
			log.Printf("Worker %d: stop not delivered: %v", slot.index, err)
		}
	}
	for _, slot := range slots {
		slot.conn.CloseWrite()
		slot.conn.Close()
	}
	for _, slot := range slots {
		select {
		case <-slot.done:
		case <-time.After(handlerJoinWait):
			log.Printf("Worker %d handler still running after shutdown, abandoning it", slot.index)
		}
	}
	if m.listener != nil {
		m.listener.Close()
	}
	log.Print("Master shut down")
	return nil
}
