// Package sdl renders a running simulation in a live window, one pixel
// per cell, streamed through an RGBA texture.
package sdl

import (
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/NickNoot/Jogo-da-Vida/util"
)

// Each cell takes a scale x scale square of screen pixels.
const scale = 4

// Window wraps the SDL objects behind a single streamed cell texture.
type Window struct {
	Width, Height int32
	window        *sdl.Window
	renderer      *sdl.Renderer
	texture       *sdl.Texture
	pixels        []byte
}

// NewWindow opens a window sized to the grid. All cells start dead
// (black); FlipPixel toggles them.
func NewWindow(width, height int32) *Window {
	err := sdl.Init(sdl.INIT_VIDEO)
	util.Check(err)

	window, err := sdl.CreateWindow(
		"Jogo da Vida",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		width*scale, height*scale,
		sdl.WINDOW_SHOWN)
	util.Check(err)

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	util.Check(err)

	err = renderer.SetLogicalSize(width, height)
	util.Check(err)

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_RGBA8888, sdl.TEXTUREACCESS_STREAMING, width, height)
	util.Check(err)

	return &Window{
		Width:    width,
		Height:   height,
		window:   window,
		renderer: renderer,
		texture:  texture,
		pixels:   make([]byte, width*height*4),
	}
}

// FlipPixel toggles the cell at (x, y) between black and white.
func (w *Window) FlipPixel(x, y int) {
	offset := 4 * (y*int(w.Width) + x)
	w.pixels[offset+0] ^= 0xFF
	w.pixels[offset+1] ^= 0xFF
	w.pixels[offset+2] ^= 0xFF
	w.pixels[offset+3] ^= 0xFF
}

// RenderFrame pushes the pixel buffer to the screen.
func (w *Window) RenderFrame() {
	err := w.texture.Update(nil, unsafe.Pointer(&w.pixels[0]), int(w.Width)*4)
	util.Check(err)
	err = w.renderer.Clear()
	util.Check(err)
	err = w.renderer.Copy(w.texture, nil, nil)
	util.Check(err)
	w.renderer.Present()
}

// PollEvent drains one pending window event, nil when there is none.
func (w *Window) PollEvent() sdl.Event {
	return sdl.PollEvent()
}

// Destroy releases every SDL resource.
func (w *Window) Destroy() {
	w.texture.Destroy()
	w.renderer.Destroy()
	w.window.Destroy()
	sdl.Quit()
}
