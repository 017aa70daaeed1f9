// Package goldfish implements the goldfish virtual framebuffer controller.
//
// The controller exposes a small MMIO register window to the guest,
// converts the guest's RGB565 framebuffer into the host display surface on
// every refresh tick, and signals the guest through a single level-triggered
// interrupt line on vertical sync and on completion of a base address update.
package goldfish

import (
	"encoding/binary"
	"errors"
	"log"
)

// DefaultDPI is the panel density reported to the guest through the
// physical size registers.
const DefaultDPI = 165

// WindowSize is the size in bytes of the MMIO window occupied by one controller.
const WindowSize = 0x100

// Surface describes the host display surface. The controller writes into Pix
// but never resizes or reallocates it.
type Surface struct {
	Width        int
	Height       int
	Stride       int // bytes per row
	BitsPerPixel int
	Pix          []byte
}

// Display is the host side of the controller: it owns the surface and is
// told which rows changed after each refresh.
type Display interface {
	// Surface returns the bound surface, or nil if none is bound.
	Surface() *Surface
	// Update reports that the given rectangle of the surface changed.
	Update(x, y, w, h int)
}

// Memory reads guest physical memory.
type Memory interface {
	ReadPhys(addr uint32, buf []byte)
}

// IRQLine is the interrupt sink the controller drives.
type IRQLine interface {
	SetLevel(high bool)
}

// Config holds construction-time settings.
type Config struct {
	// DPI is the panel density, must be positive. Zero selects DefaultDPI.
	DPI int

	// GuestOrder is the byte order of guest RGB565 pixels.
	// Nil selects little-endian.
	GuestOrder binary.ByteOrder

	// Logf receives protocol diagnostics. Nil selects log.Printf.
	Logf func(format string, args ...any)

	// Trace sends every register access and display update to Logf.
	Trace bool
}

// ErrBadDPI is returned by New for a non-positive DPI.
var ErrBadDPI = errors.New("goldfish: dpi must be positive")

// Controller is one goldfish framebuffer device.
type Controller struct {
	mem  Memory
	disp Display
	irq  Interrupts

	order binary.ByteOrder
	logf  func(format string, args ...any)
	trace bool

	base              uint32
	baseValid         bool
	needUpdate        bool
	needInt           bool
	requestedRotation uint8 // 2 bits
	rotation          uint32
	blank             bool
	dpi               int

	// converter cache, selected when the surface depth changes
	conv    PixelConverter
	convBPP int

	// guest rows as of the last conversion, used to find the dirty span
	shadow []byte
	line   []byte
}

// New creates a controller reading pixels from mem, presenting to disp and
// signalling on line. Any of mem, disp or line may be nil; a controller
// without a display never draws and never raises interrupts.
func New(cfg Config, mem Memory, disp Display, line IRQLine) (*Controller, error) {
	dpi := cfg.DPI
	if dpi == 0 {
		dpi = DefaultDPI
	}
	if dpi < 0 {
		return nil, ErrBadDPI
	}
	order := cfg.GuestOrder
	if order == nil {
		order = binary.LittleEndian
	}
	logf := cfg.Logf
	if logf == nil {
		logf = log.Printf
	}
	c := &Controller{
		mem:   mem,
		disp:  disp,
		order: order,
		logf:  logf,
		trace: cfg.Trace,
		dpi:   dpi,
	}
	c.irq.line = line
	return c, nil
}

// Base returns the committed framebuffer base address.
func (c *Controller) Base() uint32 { return c.base }

// Rotation returns the active rotation (0-3).
func (c *Controller) Rotation() uint32 { return c.rotation }

// RequestedRotation returns the latched rotation request (0-3).
func (c *Controller) RequestedRotation() uint8 { return c.requestedRotation }

// Blank reports whether output is forced to black.
func (c *Controller) Blank() bool { return c.blank }

// DPI returns the panel density.
func (c *Controller) DPI() int { return c.dpi }

// IRQ reports the current level of the interrupt line.
func (c *Controller) IRQ() bool { return c.irq.Line() }

// Pending returns what a read of INT_STATUS would return, without
// clearing anything.
func (c *Controller) Pending() uint32 { return c.irq.Status() & c.irq.Mask() }

// Invalidate forces the next refresh to redraw the whole frame, for example
// after the host lost the contents of the surface.
func (c *Controller) Invalidate() {
	c.needUpdate = true
}

// State is a point-in-time copy of the controller registers.
type State struct {
	Base              uint32
	BaseValid         bool
	NeedUpdate        bool
	NeedInterrupt     bool
	RequestedRotation uint8
	Rotation          uint32
	Blank             bool
	IntStatus         uint32
	IntEnable         uint32
	DPI               int
	IRQ               bool
}

// State returns a copy of the controller state.
func (c *Controller) State() State {
	return State{
		Base:              c.base,
		BaseValid:         c.baseValid,
		NeedUpdate:        c.needUpdate,
		NeedInterrupt:     c.needInt,
		RequestedRotation: c.requestedRotation,
		Rotation:          c.rotation,
		Blank:             c.blank,
		IntStatus:         c.irq.Status(),
		IntEnable:         c.irq.Mask(),
		DPI:               c.dpi,
		IRQ:               c.irq.Line(),
	}
}

func (c *Controller) surface() *Surface {
	if c.disp == nil {
		return nil
	}
	return c.disp.Surface()
}
