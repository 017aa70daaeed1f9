// Package cli provides a command-line runner for the emulator.
// It handles input polling and runs the emulator in a window without the full UI.
package cli

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	emucore "github.com/user-none/eblitui/api"
	emubridge "github.com/user-none/emgf/bridge/ebiten"
	"github.com/user-none/emgf/emu"
	"github.com/user-none/emgf/ui"
)

// ADT buffer thresholds in bytes.
const (
	adtMinBuffer = 9600
	adtMaxBuffer = 19200
)

// Options tunes a Runner. The zero value is usable.
type Options struct {
	// Status, when set, receives a board snapshot after every frame.
	Status *ui.SharedStatus
	// ScreenshotDir is where F12 writes PNGs. Empty means the working directory.
	ScreenshotDir string
	// ScreenshotScale enlarges screenshots by an integer factor.
	ScreenshotScale int
	// Mute skips opening the audio device.
	Mute bool
}

// Runner wraps an emulator for command-line mode.
// The emulator runs on a dedicated goroutine with audio-driven timing.
// The Ebiten thread handles input polling and rendering from the shared framebuffer.
//
// Keys: P pauses, N advances one frame while paused, F5 saves a quick
// state, F9 loads it and F12 takes a screenshot.
type Runner struct {
	emulator    *emubridge.Emulator
	audioPlayer *ui.AudioPlayer
	opts        Options

	emuControl        *ui.EmuControl
	sharedInput       *ui.SharedInput
	sharedFramebuffer *ui.SharedFramebuffer
	emuDone           chan struct{}

	paused     bool
	quickState []byte
	shots      int
}

// NewRunner creates a new Runner wrapping the given emulator.
// Audio initialization failure is non-fatal; the runner will work without sound.
func NewRunner(e *emubridge.Emulator, opts Options) *Runner {
	if opts.ScreenshotScale < 1 {
		opts.ScreenshotScale = 1
	}

	var player *ui.AudioPlayer
	if !opts.Mute {
		var err error
		player, err = ui.NewAudioPlayer(1.0)
		if err != nil {
			log.Printf("Warning: audio initialization failed: %v", err)
		}
	}

	r := &Runner{
		emulator:          e,
		audioPlayer:       player,
		opts:              opts,
		emuControl:        ui.NewEmuControl(),
		sharedInput:       &ui.SharedInput{},
		sharedFramebuffer: ui.NewSharedFramebufferFor(e.Emulator),
		emuDone:           make(chan struct{}),
	}

	go r.emulationLoop()

	return r
}

// Close cleans up the runner's resources.
func (r *Runner) Close() {
	if r.emuControl != nil {
		r.emuControl.Stop()
		<-r.emuDone
	}

	if r.audioPlayer != nil {
		if n := r.audioPlayer.Dropped(); n > 0 {
			log.Printf("audio: %d bytes dropped on overflow", n)
		}
		r.audioPlayer.Close()
		r.audioPlayer = nil
	}
}

// emulationLoop runs on a dedicated goroutine with ADT.
func (r *Runner) emulationLoop() {
	defer close(r.emuDone)

	timing := r.emulator.GetTiming()
	frameTime := time.Duration(float64(time.Second) / float64(timing.FPS))
	lastFrameTime := time.Now()

	for {
		if !r.emuControl.CheckPause() {
			return
		}

		buttons := r.sharedInput.Read()
		for player, mask := range buttons {
			r.emulator.SetInput(player, mask)
		}

		r.emulator.RunFrame()

		if r.audioPlayer != nil {
			r.audioPlayer.QueueSamples(r.emulator.GetAudioSamples())
		}

		r.sharedFramebuffer.Update(
			r.emulator.GetFramebuffer(),
			r.emulator.GetFramebufferStride(),
			r.emulator.GetActiveHeight(),
		)
		if r.opts.Status != nil {
			r.opts.Status.Publish(r.emulator.Status())
		}

		// ADT sleep
		elapsed := time.Since(lastFrameTime)
		sleepTime := frameTime - elapsed

		if r.audioPlayer != nil {
			bufferLevel := r.audioPlayer.GetBufferLevel()
			if bufferLevel < adtMinBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 0.9)
			} else if bufferLevel > adtMaxBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 1.1)
			}
		}

		if sleepTime > time.Millisecond {
			time.Sleep(sleepTime)
		}

		lastFrameTime = time.Now()
	}
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	if !ebiten.IsFocused() {
		return nil
	}

	r.handleHotkeys()
	r.pollInputToShared()
	return nil
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	pixels, stride, height := r.sharedFramebuffer.Read()
	if height == 0 {
		return
	}
	r.emulator.DrawCachedFramebuffer(screen, pixels, stride, height)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.emulator.Layout(outsideWidth, outsideHeight)
}

func (r *Runner) handleHotkeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		r.paused = !r.paused
		if r.paused {
			r.emuControl.RequestPause()
		} else {
			r.emuControl.RequestResume()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		if r.paused {
			r.emuControl.StepFrame()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		r.withEmulatorParked(func() {
			state, err := r.emulator.Serialize()
			if err != nil {
				log.Printf("save state: %v", err)
				return
			}
			r.quickState = state
			log.Printf("state saved (%d bytes)", len(state))
		})
	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		if r.quickState == nil {
			return
		}
		r.withEmulatorParked(func() {
			if err := r.emulator.Deserialize(r.quickState); err != nil {
				log.Printf("load state: %v", err)
				return
			}
			log.Printf("state loaded")
		})
	case inpututil.IsKeyJustPressed(ebiten.KeyF12):
		r.screenshot()
	}
}

// withEmulatorParked runs fn while the emulation goroutine is paused,
// restoring the previous pause state afterwards.
func (r *Runner) withEmulatorParked(fn func()) {
	r.emuControl.RequestPause()
	if !r.paused {
		defer r.emuControl.RequestResume()
	}
	fn()
}

func (r *Runner) screenshot() {
	pixels, stride, height := r.sharedFramebuffer.Read()
	img := ui.FramebufferImage(pixels, stride, height)
	if img.Bounds().Empty() {
		return
	}

	r.shots++
	name := fmt.Sprintf("%s-%s-%d.png", emu.Name, time.Now().Format("20060102-150405"), r.shots)
	path := filepath.Join(r.opts.ScreenshotDir, name)
	if err := ui.SaveScreenshot(path, img, r.opts.ScreenshotScale); err != nil {
		log.Printf("screenshot: %v", err)
		return
	}
	log.Printf("screenshot saved to %s", path)
}

// keyBindings maps player 1 keyboard keys to button masks.
var keyBindings = []struct {
	keys []ebiten.Key
	mask uint32
}{
	{[]ebiten.Key{ebiten.KeyW, ebiten.KeyArrowUp}, 1 << emucore.ButtonUp},
	{[]ebiten.Key{ebiten.KeyS, ebiten.KeyArrowDown}, 1 << emucore.ButtonDown},
	{[]ebiten.Key{ebiten.KeyA, ebiten.KeyArrowLeft}, 1 << emucore.ButtonLeft},
	{[]ebiten.Key{ebiten.KeyD, ebiten.KeyArrowRight}, 1 << emucore.ButtonRight},
	{[]ebiten.Key{ebiten.KeyJ}, 1 << emu.ButtonA},
	{[]ebiten.Key{ebiten.KeyK}, 1 << emu.ButtonB},
	{[]ebiten.Key{ebiten.KeyL}, 1 << emu.ButtonC},
	{[]ebiten.Key{ebiten.KeyEnter}, 1 << emu.ButtonStart},
}

// padBindings maps standard gamepad buttons to button masks.
// A/Cross=A, B/Circle=B, X/Square=C.
var padBindings = []struct {
	button ebiten.StandardGamepadButton
	mask   uint32
}{
	{ebiten.StandardGamepadButtonLeftTop, 1 << emucore.ButtonUp},
	{ebiten.StandardGamepadButtonLeftBottom, 1 << emucore.ButtonDown},
	{ebiten.StandardGamepadButtonLeftLeft, 1 << emucore.ButtonLeft},
	{ebiten.StandardGamepadButtonLeftRight, 1 << emucore.ButtonRight},
	{ebiten.StandardGamepadButtonRightBottom, 1 << emu.ButtonA},
	{ebiten.StandardGamepadButtonRightRight, 1 << emu.ButtonB},
	{ebiten.StandardGamepadButtonRightLeft, 1 << emu.ButtonC},
	{ebiten.StandardGamepadButtonCenterRight, 1 << emu.ButtonStart},
}

// pollInputToShared reads keyboard and gamepad input and writes to shared
// state. The keyboard and the first gamepad drive player 1; the second
// gamepad drives player 2.
func (r *Runner) pollInputToShared() {
	var masks [ui.Players]uint32

	for _, b := range keyBindings {
		for _, k := range b.keys {
			if ebiten.IsKeyPressed(k) {
				masks[0] |= b.mask
			}
		}
	}

	player := 0
	for _, id := range ebiten.AppendGamepadIDs(nil) {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		if player >= ui.Players {
			break
		}
		masks[player] |= gamepadMask(id)
		player++
	}

	for p, m := range masks {
		r.sharedInput.Set(p, m)
	}
}

func gamepadMask(id ebiten.GamepadID) uint32 {
	var mask uint32
	for _, b := range padBindings {
		if ebiten.IsStandardGamepadButtonPressed(id, b.button) {
			mask |= b.mask
		}
	}

	// Left analog stick (with deadzone)
	const deadzone = 0.5
	axisX := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
	axisY := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
	if axisX < -deadzone {
		mask |= 1 << emucore.ButtonLeft
	}
	if axisX > deadzone {
		mask |= 1 << emucore.ButtonRight
	}
	if axisY < -deadzone {
		mask |= 1 << emucore.ButtonUp
	}
	if axisY > deadzone {
		mask |= 1 << emucore.ButtonDown
	}
	return mask
}
