package emu

import (
	"encoding/binary"
	"errors"
	"image"
	"log"

	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/emgf/goldfish"
	"github.com/user-none/go-chip-m68k"
	"github.com/user-none/go-chip-sn76489"
)

const (
	Name    = "emgf"
	Version = "0.1.0"
)

// fbIRQLevel is the 68000 autovector level the framebuffer line drives.
const fbIRQLevel = 4

// guestOrder is the byte order of guest framebuffer pixels.
var guestOrder = binary.BigEndian

// Compile-time interface checks.
var _ emucore.Emulator = (*Emulator)(nil)
var _ emucore.SaveStater = (*Emulator)(nil)
var _ emucore.MemoryInspector = (*Emulator)(nil)
var _ emucore.MemoryMapper = (*Emulator)(nil)

var ErrBadGeometry = errors.New("display size must be positive")

// Config holds construction-time board settings. Zero fields take
// defaults.
type Config struct {
	Width  int // display width in pixels, default ScreenWidth
	Height int // display height in pixels, default DefaultScreenHeight
	DPI    int // reported display density, default goldfish.DefaultDPI

	// Logf receives guest-triggered diagnostics. Defaults to log.Printf.
	Logf func(format string, args ...any)

	// TraceFB logs every framebuffer register access and display update.
	TraceFB bool
}

// irqLine latches the controller's interrupt output for the CPU loop.
type irqLine struct {
	high bool
}

func (l *irqLine) SetLevel(high bool) {
	l.high = high
}

// Emulator is the emgf board: a 68000, RAM and ROM, the goldfish
// framebuffer controller, an SN76489 and two joypads.
type Emulator struct {
	cpu  *m68k.CPU
	bus  *Bus
	fb   *goldfish.Controller
	disp *display
	psg  *sn76489.SN76489
	pad  joypads
	irq  irqLine

	region Region
	timing RegionTiming

	cpuCyclesPerScanline int
	psgCyclesPerScanline int

	frame uint64

	// Pre-allocated audio buffer for external consumption
	audioBuffer []int16

	// Output filter state, persists across frames
	filterPrevL float64
	filterPrevR float64
}

// NewEmulator creates a board with the default display size.
func NewEmulator(rom []byte, region Region) (*Emulator, error) {
	return NewEmulatorWithConfig(rom, region, Config{})
}

// NewEmulatorWithConfig creates and resets a board running rom.
func NewEmulatorWithConfig(rom []byte, region Region, cfg Config) (*Emulator, error) {
	if err := ValidateImage(rom); err != nil {
		return nil, err
	}
	if cfg.Width == 0 {
		cfg.Width = ScreenWidth
	}
	if cfg.Height == 0 {
		cfg.Height = DefaultScreenHeight
	}
	if cfg.Width < 0 || cfg.Height < 0 {
		return nil, ErrBadGeometry
	}
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}

	e := &Emulator{
		disp:        newDisplay(cfg.Width, cfg.Height),
		pad:         joypads{p2Connected: true},
		audioBuffer: make([]int16, 0, 2048),
	}
	e.setTiming(region)

	e.psg = sn76489.New(e.timing.PSGClockHz, SampleRate, psgBufferSize, sn76489.Sega)
	e.psg.SetGain(psgGain)

	e.bus = NewBus(rom, e.psg, &e.pad, cfg.Logf)

	fb, err := goldfish.New(goldfish.Config{
		DPI:        cfg.DPI,
		GuestOrder: guestOrder,
		Logf:       cfg.Logf,
		Trace:      cfg.TraceFB,
	}, e.bus, e.disp, &e.irq)
	if err != nil {
		return nil, err
	}
	e.fb = fb
	e.bus.SetController(fb)

	e.cpu = m68k.New(e.bus)
	return e, nil
}

func (e *Emulator) setTiming(region Region) {
	e.region = region
	e.timing = GetTimingForRegion(region)
	e.cpuCyclesPerScanline = e.timing.cpuCyclesPerScanline()
	e.psgCyclesPerScanline = e.timing.psgCyclesPerScanline()
}

// RunFrame executes one frame of emulation. The controller's host
// refresh tick runs once per frame at the start of vertical blank.
func (e *Emulator) RunFrame() {
	e.audioBuffer = e.audioBuffer[:0]
	e.psg.ResetBuffer()
	e.disp.beginFrame()

	for line := 0; line < e.timing.Scanlines; line++ {
		if line == e.timing.ActiveLines {
			e.fb.UpdateDisplay()
		}

		e.assertIRQ()
		budget := e.cpuCyclesPerScanline
		for budget > 0 {
			consumed := e.cpu.StepCycles(budget)
			if consumed == 0 {
				break // CPU halted (double bus fault)
			}
			budget -= consumed
			e.assertIRQ()
		}

		e.psg.Run(e.psgCyclesPerScanline)
	}

	e.frame++
	e.mixAudio()
}

// assertIRQ presents the framebuffer line to the CPU. The CPU latches a
// request until it is taken and cannot withdraw it, so the line is only
// presented while the priority mask would accept it. A request latched
// under the mask would fire after the handler had already lowered the line.
func (e *Emulator) assertIRQ() {
	if !e.irq.high {
		return
	}
	if mask := int(e.cpu.Registers().SR>>8) & 7; mask < fbIRQLevel {
		e.cpu.RequestInterrupt(fbIRQLevel, nil)
	}
}

// SetInput sets the button bitmask for the given player.
func (e *Emulator) SetInput(player int, buttons uint32) {
	e.pad.set(player, buttons)
}

// SetP2Connected sets whether a player 2 joypad is plugged in. When
// disconnected the player 2 half of the joypad register reads 0.
func (e *Emulator) SetP2Connected(connected bool) {
	e.pad.p2Connected = connected
}

// GetFramebuffer returns raw RGBA pixel data for current frame.
func (e *Emulator) GetFramebuffer() []byte {
	return e.disp.img.Pix
}

// GetFramebufferStride returns the stride (bytes per row) of the framebuffer.
func (e *Emulator) GetFramebufferStride() int {
	return e.disp.img.Stride
}

// GetActiveHeight returns the display height.
func (e *Emulator) GetActiveHeight() int {
	return e.disp.surf.Height
}

// Width returns the display width.
func (e *Emulator) Width() int {
	return e.disp.surf.Width
}

// Image returns the display surface as an image. The pixels are live
// and change on the next frame.
func (e *Emulator) Image() *image.RGBA {
	return e.disp.img
}

// Controller returns the framebuffer controller.
func (e *Emulator) Controller() *goldfish.Controller {
	return e.fb
}

// Invalidate forces the next refresh tick to redraw the whole surface.
func (e *Emulator) Invalidate() {
	e.fb.Invalidate()
}

// GetRegion returns the emulator's region setting.
func (e *Emulator) GetRegion() Region {
	return e.region
}

// GetTiming returns FPS and scanline count for the current region.
func (e *Emulator) GetTiming() emucore.Timing {
	return emucore.Timing{
		FPS:       e.timing.FPS,
		Scanlines: e.timing.Scanlines,
	}
}

// SetRegion updates the emulator's region configuration.
func (e *Emulator) SetRegion(region Region) {
	e.setTiming(region)
}

// Status is a point-in-time view of the board for monitors.
type Status struct {
	Frame      uint64
	PC         uint32
	Width      int
	Height     int
	Updates    int             // display updates during the last frame
	Dirty      image.Rectangle // region redrawn during the last frame
	Controller goldfish.State
}

// Status returns the current board status. Not safe for use while a
// frame is running.
func (e *Emulator) Status() Status {
	return Status{
		Frame:      e.frame,
		PC:         e.cpu.Registers().PC,
		Width:      e.disp.surf.Width,
		Height:     e.disp.surf.Height,
		Updates:    e.disp.updates,
		Dirty:      e.disp.dirty,
		Controller: e.fb.State(),
	}
}

// Close releases any resources held by the emulator.
func (e *Emulator) Close() {}

// SetOption applies a core option change identified by key.
func (e *Emulator) SetOption(key string, value string) {
	switch key {
	case "p2_connected":
		e.SetP2Connected(value == "true")
	}
}

// ReadMemory reads guest RAM into buf. Flat address 0 is the first byte
// of RAM. Returns the number of bytes read.
func (e *Emulator) ReadMemory(addr uint32, buf []byte) uint32 {
	if addr >= ramSize {
		return 0
	}
	return uint32(copy(buf, e.bus.ram[addr:]))
}

// MemoryMap returns a list of available memory regions with sizes.
func (e *Emulator) MemoryMap() []emucore.MemoryRegion {
	return []emucore.MemoryRegion{
		{Type: emucore.MemorySystemRAM, Size: ramSize},
	}
}

// ReadRegion returns a copy of the specified memory region.
func (e *Emulator) ReadRegion(regionType int) []byte {
	if regionType != emucore.MemorySystemRAM {
		return nil
	}
	out := make([]byte, ramSize)
	copy(out, e.bus.ram)
	return out
}

// WriteRegion writes data to the specified memory region.
func (e *Emulator) WriteRegion(regionType int, data []byte) {
	if regionType == emucore.MemorySystemRAM {
		copy(e.bus.ram, data)
	}
}
