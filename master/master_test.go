package master

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"os"
	"testing"
	"time"

	"github.com/NickNoot/Jogo-da-Vida/gol"
	"github.com/NickNoot/Jogo-da-Vida/protocol"
	"github.com/NickNoot/Jogo-da-Vida/worker"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// startMaster news up a master listening on an OS-assigned port.
func startMaster(t *testing.T, workers int, grid gol.Grid) *Master {
	t.Helper()
	m, err := New(Config{Workers: workers, StartupWindow: 5 * time.Second}, grid)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Listen(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { m.Shutdown() })
	return m
}

func masterPort(m *Master) int {
	return m.Addr().(*net.TCPAddr).Port
}

func dialMaster(t *testing.T, m *Master) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", masterPort(m)))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// launchWorkers starts n real workers as goroutines. Each sends its
// final error on the returned channel.
func launchWorkers(t *testing.T, m *Master, n int) chan error {
	t.Helper()
	errs := make(chan error, n)
	for i := 0; i != n; i++ {
		go func() {
			w, err := worker.Dial("127.0.0.1", masterPort(m))
			if err != nil {
				errs <- err
				return
			}
			errs <- w.Run()
		}()
	}
	return errs
}

func equalGrids(a, b gol.Grid) bool {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return false
	}
	for r := 0; r != a.Rows; r++ {
		for c := 0; c != a.Cols; c++ {
			if a.Cells[r][c] != b.Cells[r][c] {
				return false
			}
		}
	}
	return true
}

func TestNewRejectsBadConfig(t *testing.T) {
	g, err := gol.NewGrid(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name    string
		workers int
		grid    gol.Grid
	}{
		{"zero workers", 0, g},
		{"negative workers", -1, g},
		{"more workers than rows", 8, g},
		{"empty grid", 2, gol.Grid{}},
	}
	for _, c := range cases {
		if _, err := New(Config{Workers: c.workers}, c.grid); !errors.Is(err, ErrConfig) {
			t.Errorf("%s: got %v, want ErrConfig", c.name, err)
		}
	}
	if _, err := New(Config{Workers: 4}, g); err != nil {
		t.Fatalf("4 workers for 4 rows rejected: %v", err)
	}
}

func TestWaitForWorkersGivesUpAfterStartupWindow(t *testing.T) {
	g, err := gol.NewGrid(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	m, err := New(Config{Workers: 2, StartupWindow: 200 * time.Millisecond}, g)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Listen(); err != nil {
		t.Fatal(err)
	}
	dialMaster(t, m) // one worker shows up, the second never does

	if err := m.WaitForWorkers(); !errors.Is(err, ErrConfig) {
		t.Fatalf("got %v, want ErrConfig", err)
	}
}

func TestRunKeepsStillLifeStableAcrossTheCut(t *testing.T) {
	g, err := gol.NewGrid(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	// A block straddling the two-worker partition boundary at row 2.
	g.Cells[1][1], g.Cells[1][2] = gol.Alive, gol.Alive
	g.Cells[2][1], g.Cells[2][2] = gol.Alive, gol.Alive
	seed := g.Clone()

	m := startMaster(t, 2, g)
	errs := launchWorkers(t, m, 2)
	if err := m.WaitForWorkers(); err != nil {
		t.Fatal(err)
	}
	if err := m.Run(3, nil); err != nil {
		t.Fatal(err)
	}
	if m.Turn() != 3 {
		t.Fatalf("completed %d generations, want 3", m.Turn())
	}
	if !equalGrids(m.Grid(), seed) {
		t.Fatal("a still life changed across generations")
	}

	m.Shutdown()
	for i := 0; i != 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}
}

func TestRunMatchesSequentialEvaluator(t *testing.T) {
	seed, err := gol.NewGrid(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	seed.SeedRandom(rand.New(rand.NewSource(42)))

	want := seed.Clone()
	for i := 0; i != 5; i++ {
		want = gol.NextGeneration(want)
	}

	m := startMaster(t, 3, seed.Clone())
	errs := launchWorkers(t, m, 3)
	if err := m.WaitForWorkers(); err != nil {
		t.Fatal(err)
	}
	if err := m.Run(5, nil); err != nil {
		t.Fatal(err)
	}
	if !equalGrids(m.Grid(), want) {
		t.Fatal("distributed run diverged from the sequential evaluator")
	}

	m.Shutdown()
	for i := 0; i != 3; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}
}

func TestBarrierHoldsUntilEveryUpdateArrives(t *testing.T) {
	g, err := gol.NewGrid(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	g.SeedRandom(rand.New(rand.NewSource(3)))

	m := startMaster(t, 2, g)
	first := dialMaster(t, m)
	second := dialMaster(t, m)
	if err := m.WaitForWorkers(); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- m.Run(2, nil) }()

	recvChunk := func(conn net.Conn) protocol.Chunk {
		tag, payload, err := protocol.Recv(conn)
		if err != nil {
			t.Fatalf("receiving chunk: %v", err)
		}
		if tag != protocol.MsgChunk {
			t.Fatalf("got %v, want %v", tag, protocol.MsgChunk)
		}
		chunk, err := protocol.DecodeChunk(payload)
		if err != nil {
			t.Fatal(err)
		}
		return chunk
	}
	sendUpdate := func(conn net.Conn, chunk protocol.Chunk) {
		next := worker.ComputeChunk(chunk.Cells, chunk.Top, chunk.Bottom)
		if err := protocol.Send(conn, protocol.MsgUpdate, protocol.EncodeRows(next)); err != nil {
			t.Fatalf("sending update: %v", err)
		}
	}

	// First generation: answer with only one of the two updates.
	chunk1 := recvChunk(first)
	chunk2 := recvChunk(second)
	sendUpdate(first, chunk1)

	// With an update outstanding, no next-generation chunk may go out.
	first.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if tag, _, err := protocol.Recv(first); err == nil {
		t.Fatalf("got a %v frame before the barrier released", tag)
	}
	first.SetReadDeadline(time.Time{})
	select {
	case err := <-done:
		t.Fatalf("run finished with an update outstanding (err %v)", err)
	default:
	}

	// The second update releases the barrier and the next generation.
	sendUpdate(second, chunk2)
	sendUpdate(first, recvChunk(first))
	sendUpdate(second, recvChunk(second))
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if m.Turn() != 2 {
		t.Fatalf("completed %d generations, want 2", m.Turn())
	}
}

func TestShutdownSendsStopAndIsIdempotent(t *testing.T) {
	g, err := gol.NewGrid(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	m := startMaster(t, 1, g)
	conn := dialMaster(t, m)
	if err := m.WaitForWorkers(); err != nil {
		t.Fatal(err)
	}

	if err := m.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := m.Shutdown(); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}

	tag, payload, err := protocol.Recv(conn)
	if err != nil {
		t.Fatalf("reading stop: %v", err)
	}
	if tag != protocol.MsgStop || payload != nil {
		t.Fatalf("got %v with %d payload bytes, want a bare %v", tag, len(payload), protocol.MsgStop)
	}
	if _, _, err := protocol.Recv(conn); !errors.Is(err, protocol.ErrClosed) {
		t.Fatalf("after stop: got %v, want ErrClosed", err)
	}
}

func TestHandlerDropsWorkerOnWrongShape(t *testing.T) {
	g, err := gol.NewGrid(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	m := startMaster(t, 1, g)
	conn := dialMaster(t, m)
	if err := m.WaitForWorkers(); err != nil {
		t.Fatal(err)
	}

	// A 1-row update for a 4-row span violates the shape contract.
	bad := [][]uint8{{0, 0, 0, 0}}
	if err := protocol.Send(conn, protocol.MsgUpdate, protocol.EncodeRows(bad)); err != nil {
		t.Fatal(err)
	}
	if _, _, err := protocol.Recv(conn); !errors.Is(err, protocol.ErrClosed) {
		t.Fatalf("got %v, want ErrClosed after the master drops the worker", err)
	}
}

func TestHandlerDropsWorkerOnUnexpectedType(t *testing.T) {
	g, err := gol.NewGrid(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	m := startMaster(t, 1, g)
	conn := dialMaster(t, m)
	if err := m.WaitForWorkers(); err != nil {
		t.Fatal(err)
	}

	// Workers have no business sending chunks.
	if err := protocol.Send(conn, protocol.MsgChunk, nil); err != nil {
		t.Fatal(err)
	}
	if _, _, err := protocol.Recv(conn); !errors.Is(err, protocol.ErrClosed) {
		t.Fatalf("got %v, want ErrClosed after the master drops the worker", err)
	}
}

func TestStopBeforeRunCompletesNoGenerations(t *testing.T) {
	g, err := gol.NewGrid(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	g.Cells[1][1] = gol.Alive

	m, err := New(Config{Workers: 2}, g)
	if err != nil {
		t.Fatal(err)
	}
	m.Stop()

	events := make(chan gol.Event, 16)
	if err := m.Run(100, events); err != nil {
		t.Fatal(err)
	}
	if m.Turn() != 0 {
		t.Fatalf("ran %d generations after stop, want 0", m.Turn())
	}

	var collected []gol.Event
	for e := range events {
		collected = append(collected, e)
	}
	if len(collected) < 2 {
		t.Fatalf("got %d events, want at least the final report and the state change", len(collected))
	}
	final, ok := collected[len(collected)-2].(gol.FinalTurnComplete)
	if !ok {
		t.Fatalf("second to last event %v, want FinalTurnComplete", collected[len(collected)-2])
	}
	if final.CompletedTurns != 0 || len(final.Alive) != 1 {
		t.Fatalf("final event %v, want 0 turns and 1 alive cell", final)
	}
	last, ok := collected[len(collected)-1].(gol.StateChange)
	if !ok || last.NewState != gol.Quitting {
		t.Fatalf("last event %v, want the quitting state change", collected[len(collected)-1])
	}
}
