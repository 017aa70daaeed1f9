package ui

import (
	"sync"

	"github.com/user-none/emgf/emu"
)

// Players is the number of joypad ports the board exposes.
const Players = 2

// SharedInput holds per-player button masks written by the Ebiten thread
// and read by the emulation goroutine. Bits follow the emu.Button* IDs.
type SharedInput struct {
	mu      sync.Mutex
	buttons [Players]uint32
}

// Set stores the button mask for a player. Out of range players are ignored.
func (si *SharedInput) Set(player int, buttons uint32) {
	if player < 0 || player >= Players {
		return
	}
	si.mu.Lock()
	si.buttons[player] = buttons
	si.mu.Unlock()
}

// Read returns the button masks for all players.
func (si *SharedInput) Read() [Players]uint32 {
	si.mu.Lock()
	b := si.buttons
	si.mu.Unlock()
	return b
}

// SharedFramebuffer holds pixel data written by the emulation goroutine
// and read by Ebiten's Draw() method. The write side is only touched under
// the lock; Read hands out a private copy.
type SharedFramebuffer struct {
	mu           sync.Mutex
	writePixels  []byte
	readPixels   []byte
	stride       int
	activeHeight int
	frames       uint64
}

// NewSharedFramebuffer creates a framebuffer sized for width x height RGBA.
func NewSharedFramebuffer(width, height int) *SharedFramebuffer {
	n := width * height * 4
	return &SharedFramebuffer{
		writePixels: make([]byte, n),
		readPixels:  make([]byte, n),
	}
}

// NewSharedFramebufferFor sizes a framebuffer for the emulator's display.
func NewSharedFramebufferFor(e *emu.Emulator) *SharedFramebuffer {
	b := e.Image().Bounds()
	return NewSharedFramebuffer(b.Dx(), b.Dy())
}

// Update copies framebuffer data from the emulation goroutine.
func (sf *SharedFramebuffer) Update(pixels []byte, stride, activeHeight int) {
	sf.mu.Lock()
	n := min(stride*activeHeight, len(sf.writePixels), len(pixels))
	copy(sf.writePixels[:n], pixels[:n])
	sf.stride = stride
	sf.activeHeight = activeHeight
	sf.frames++
	sf.mu.Unlock()
}

// Read returns a snapshot of the current framebuffer. The returned slice is
// reused by the next Read.
func (sf *SharedFramebuffer) Read() (pixels []byte, stride, activeHeight int) {
	sf.mu.Lock()
	stride = sf.stride
	activeHeight = sf.activeHeight
	n := min(stride*activeHeight, len(sf.writePixels))
	if n > 0 {
		copy(sf.readPixels[:n], sf.writePixels[:n])
	}
	pixels = sf.readPixels
	sf.mu.Unlock()
	return
}

// Frames returns how many times Update has been called.
func (sf *SharedFramebuffer) Frames() uint64 {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.frames
}

// SharedStatus publishes the latest board snapshot for the monitor.
type SharedStatus struct {
	mu     sync.RWMutex
	status emu.Status
	valid  bool
}

// Publish stores a new snapshot.
func (ss *SharedStatus) Publish(s emu.Status) {
	ss.mu.Lock()
	ss.status = s
	ss.valid = true
	ss.mu.Unlock()
}

// Status returns the latest snapshot. ok is false until the first Publish.
func (ss *SharedStatus) Status() (s emu.Status, ok bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.status, ss.valid
}

// EmuControl coordinates pause, resume and stop between the Ebiten thread
// and the emulation goroutine.
type EmuControl struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pauseReq bool
	paused   bool
	stopped  bool
	step     int
}

// NewEmuControl creates a running control.
func NewEmuControl() *EmuControl {
	ec := &EmuControl{}
	ec.cond = sync.NewCond(&ec.mu)
	return ec
}

// RequestPause asks the emulation goroutine to pause and blocks until it
// has parked or stopped. Calling it while paused waits out a stepped frame.
func (ec *EmuControl) RequestPause() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.stopped {
		return
	}
	ec.pauseReq = true
	for !ec.paused && !ec.stopped {
		ec.cond.Wait()
	}
}

// RequestResume releases a paused emulation goroutine.
func (ec *EmuControl) RequestResume() {
	ec.mu.Lock()
	ec.pauseReq = false
	ec.step = 0
	ec.cond.Broadcast()
	ec.mu.Unlock()
}

// StepFrame lets a paused goroutine run a single frame and pause again.
func (ec *EmuControl) StepFrame() {
	ec.mu.Lock()
	if ec.pauseReq {
		ec.step++
		ec.cond.Broadcast()
	}
	ec.mu.Unlock()
}

// CheckPause is called by the emulation goroutine between frames. It parks
// while a pause is requested and returns false once the goroutine should exit.
func (ec *EmuControl) CheckPause() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	for ec.pauseReq && !ec.stopped {
		if ec.step > 0 {
			ec.step--
			ec.paused = false
			return true
		}
		if !ec.paused {
			ec.paused = true
			ec.cond.Broadcast()
		}
		ec.cond.Wait()
	}
	ec.paused = false
	return !ec.stopped
}

// Stop signals the emulation goroutine to exit and wakes any waiters.
func (ec *EmuControl) Stop() {
	ec.mu.Lock()
	ec.stopped = true
	ec.pauseReq = false
	ec.cond.Broadcast()
	ec.mu.Unlock()
}

// ShouldRun returns true until Stop is called.
func (ec *EmuControl) ShouldRun() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return !ec.stopped
}

// IsPaused returns true while the emulation goroutine is parked.
func (ec *EmuControl) IsPaused() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.paused
}
