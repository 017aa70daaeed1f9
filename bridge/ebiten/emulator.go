// Package ebiten provides an Ebiten-specific wrapper for the emulator.
package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/emgf/emu"
)

// Emulator wraps emu.Emulator with Ebiten-specific functionality
type Emulator struct {
	*emu.Emulator

	offscreen *ebiten.Image           // Offscreen buffer at the surface's native size
	drawOpts  ebiten.DrawImageOptions // Pre-allocated draw options to avoid per-frame allocation
}

// NewEmulator creates a new emulator instance with Ebiten rendering.
func NewEmulator(rom []byte, region emu.Region, cfg emu.Config) (*Emulator, error) {
	base, err := emu.NewEmulatorWithConfig(rom, region, cfg)
	if err != nil {
		return nil, err
	}

	return &Emulator{
		Emulator: base,
	}, nil
}

// Layout implements ebiten.Game.
func (e *Emulator) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// DrawCachedFramebuffer renders pre-cached RGBA pixel data to the screen,
// scaled to fit while preserving aspect ratio. The emulation goroutine
// writes pixels to a shared framebuffer; the Ebiten Draw() thread renders
// them here.
func (e *Emulator) DrawCachedFramebuffer(screen *ebiten.Image, pixels []byte, stride, height int) {
	if height == 0 || stride == 0 {
		return
	}

	requiredLen := stride * height
	if len(pixels) < requiredLen {
		return
	}
	width := stride / 4

	// Create or resize offscreen buffer if needed
	if e.offscreen == nil || e.offscreen.Bounds().Dx() != width || e.offscreen.Bounds().Dy() != height {
		if e.offscreen != nil {
			e.offscreen.Deallocate()
		}
		e.offscreen = ebiten.NewImage(width, height)
	}

	e.offscreen.WritePixels(pixels[:requiredLen])

	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale, offsetX, offsetY := fit(screenW, screenH, width, height)

	e.drawOpts = ebiten.DrawImageOptions{}
	e.drawOpts.GeoM.Scale(scale, scale)
	e.drawOpts.GeoM.Translate(offsetX, offsetY)
	e.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(e.offscreen, &e.drawOpts)
}

// fit returns the uniform scale and centering offsets that fit a
// nativeW x nativeH image inside a screenW x screenH screen.
func fit(screenW, screenH, nativeW, nativeH int) (scale, offsetX, offsetY float64) {
	scaleX := float64(screenW) / float64(nativeW)
	scaleY := float64(screenH) / float64(nativeH)
	scale = scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	offsetX = (float64(screenW) - float64(nativeW)*scale) / 2
	offsetY = (float64(screenH) - float64(nativeH)*scale) / 2
	return scale, offsetX, offsetY
}
