package emu

import (
	"image"

	"github.com/user-none/emgf/goldfish"
)

const (
	ScreenWidth         = 320
	DefaultScreenHeight = 240
	MaxScreenHeight     = 240
)

// display is the host surface the controller draws into. It is always
// 32 bpp RGBA so the front ends can blit it directly.
type display struct {
	img  *image.RGBA
	surf goldfish.Surface

	updates int             // Update calls since the last frame started
	dirty   image.Rectangle // union of updated regions this frame
}

func newDisplay(width, height int) *display {
	d := &display{}
	d.resize(width, height)
	return d
}

func (d *display) resize(width, height int) {
	d.img = image.NewRGBA(image.Rect(0, 0, width, height))
	d.surf = goldfish.Surface{
		Width:        width,
		Height:       height,
		Stride:       d.img.Stride,
		BitsPerPixel: 32,
		Pix:          d.img.Pix,
	}
}

// Surface implements goldfish.Display.
func (d *display) Surface() *goldfish.Surface {
	return &d.surf
}

// Update implements goldfish.Display.
func (d *display) Update(x, y, w, h int) {
	d.updates++
	d.dirty = d.dirty.Union(image.Rect(x, y, x+w, y+h))
}

func (d *display) beginFrame() {
	d.updates = 0
	d.dirty = image.Rectangle{}
}
