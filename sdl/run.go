package sdl

import (
	"log"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/NickNoot/Jogo-da-Vida/gol"
)

// Run opens a window for a rows x cols grid and consumes simulation
// events until the events channel closes: CellsFlipped toggles pixels,
// TurnComplete presents a frame, everything else is logged. The window's
// close button and the q key are forwarded as 'q' on keyPresses; the
// caller must keep draining that channel. Run must be called on the main
// goroutine.
func Run(rows, cols int, events <-chan gol.Event, keyPresses chan<- rune) {
	w := NewWindow(int32(cols), int32(rows))
	defer w.Destroy()

	refresh := time.NewTicker(time.Second / 60)
	defer refresh.Stop()

	for {
		select {
		case <-refresh.C:
			for event := w.PollEvent(); event != nil; event = w.PollEvent() {
				switch e := event.(type) {
				case *sdl.QuitEvent:
					keyPresses <- 'q'
				case *sdl.KeyboardEvent:
					if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_q {
						keyPresses <- 'q'
					}
				}
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			switch e := event.(type) {
			case gol.CellsFlipped:
				for _, cell := range e.Cells {
					w.FlipPixel(cell.X, cell.Y)
				}
			case gol.TurnComplete:
				w.RenderFrame()
			case gol.FinalTurnComplete:
				w.RenderFrame()
				log.Print(e)
			default:
				log.Print(e)
			}
		}
	}
}
