package main

import (
	"flag"
	"log"
	"math/rand"
	"time"

	"github.com/NickNoot/Jogo-da-Vida/gol"
	"github.com/NickNoot/Jogo-da-Vida/master"
	"github.com/NickNoot/Jogo-da-Vida/sdl"
)

func main() {
	rows := flag.Int("rows", 200, "grid rows")
	cols := flag.Int("cols", 200, "grid columns")
	workers := flag.Int("workers", 2, "worker processes to wait for")
	turns := flag.Int("turns", 50, "generations to run")
	port := flag.Int("port", master.DefaultPort, "TCP port to listen on")
	pattern := flag.String("pattern", "random", "initial pattern: random, glider or empty")
	seed := flag.Int64("seed", 0, "random seed, 0 derives one from the clock")
	use_sdl := flag.Bool("sdl", false, "render the run in a live window")
	flag.Parse()

	grid, err := gol.NewGrid(*rows, *cols)
	if err != nil {
		log.Fatal(err)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))
	switch *pattern {
	case "random":
		grid.SeedRandom(rng)
	case "glider":
		grid.SeedGlider(rng)
	case "empty":
	default:
		log.Fatalf("Unknown pattern %q, use random, glider or empty", *pattern)
	}

	m, err := master.New(master.Config{Workers: *workers, Port: *port}, grid)
	if err != nil {
		log.Fatal(err)
	}
	if err := m.Listen(); err != nil {
		log.Fatal(err)
	}
	if err := m.WaitForWorkers(); err != nil {
		log.Fatal(err)
	}

	events := make(chan gol.Event, 64)
	done := make(chan error, 1)
	go func() { done <- m.Run(*turns, events) }()

	if *use_sdl {
		// Forward quit requests from the window as an advisory stop
		key_presses := make(chan rune, 8)
		go func() {
			for key := range key_presses {
				if key == 'q' {
					log.Print("Quit requested from the window")
					m.Stop()
				}
			}
		}()
		sdl.Run(*rows, *cols, events, key_presses)
	} else {
		for event := range events {
			switch event.(type) {
			case gol.AliveCellsCount, gol.FinalTurnComplete, gol.StateChange:
				log.Print(event)
			}
		}
	}

	err = <-done
	m.Shutdown()
	if err != nil {
		log.Fatal(err)
	}
}
