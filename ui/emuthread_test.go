package ui

import (
	"testing"
	"time"

	"github.com/user-none/emgf/emu"
)

func TestSharedInput(t *testing.T) {
	var si SharedInput
	si.Set(0, 1<<emu.ButtonA)
	si.Set(1, 1<<emu.ButtonStart)
	si.Set(2, 0xFF)
	si.Set(-1, 0xFF)

	got := si.Read()
	if got[0] != 1<<emu.ButtonA || got[1] != 1<<emu.ButtonStart {
		t.Errorf("unexpected masks %v", got)
	}
}

func TestSharedFramebuffer(t *testing.T) {
	sf := NewSharedFramebuffer(2, 2)
	pixels := []byte{
		1, 2, 3, 4, 5, 6, 7, 8,
		9, 10, 11, 12, 13, 14, 15, 16,
	}
	sf.Update(pixels, 8, 2)
	pixels[0] = 0xFF

	got, stride, height := sf.Read()
	if stride != 8 || height != 2 {
		t.Fatalf("expected stride 8 height 2, got %d %d", stride, height)
	}
	if got[0] != 1 || got[15] != 16 {
		t.Errorf("snapshot not copied: %v", got)
	}
	if sf.Frames() != 1 {
		t.Errorf("expected 1 frame, got %d", sf.Frames())
	}
}

func TestSharedFramebuffer_Oversized(t *testing.T) {
	sf := NewSharedFramebuffer(1, 1)
	sf.Update(make([]byte, 64), 16, 4)
	got, _, _ := sf.Read()
	if len(got) != 4 {
		t.Errorf("expected buffer to stay 4 bytes, got %d", len(got))
	}
}

func TestSharedStatus(t *testing.T) {
	var ss SharedStatus
	if _, ok := ss.Status(); ok {
		t.Error("expected no status before Publish")
	}
	ss.Publish(emu.Status{Frame: 7})
	s, ok := ss.Status()
	if !ok || s.Frame != 7 {
		t.Errorf("expected frame 7, got %+v (%v)", s, ok)
	}
}

func TestEmuControl_PauseResume(t *testing.T) {
	ec := NewEmuControl()
	frames := make(chan struct{}, 100)
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		for ec.CheckPause() {
			select {
			case frames <- struct{}{}:
			default:
			}
			time.Sleep(time.Millisecond)
		}
	}()

	ec.RequestPause()
	if !ec.IsPaused() {
		t.Fatal("expected paused after RequestPause returns")
	}

	for len(frames) > 0 {
		<-frames
	}
	ec.StepFrame()
	select {
	case <-frames:
	case <-time.After(2 * time.Second):
		t.Fatal("StepFrame did not run a frame")
	}

	ec.RequestResume()
	select {
	case <-frames:
	case <-time.After(2 * time.Second):
		t.Fatal("emulation did not resume")
	}

	ec.Stop()
	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatal("goroutine did not exit after Stop")
	}
	if ec.ShouldRun() {
		t.Error("expected ShouldRun false after Stop")
	}
}

func TestEmuControl_StopWhilePaused(t *testing.T) {
	ec := NewEmuControl()
	exited := make(chan bool)
	go func() {
		for ec.CheckPause() {
			time.Sleep(time.Millisecond)
		}
		exited <- true
	}()

	ec.RequestPause()
	ec.Stop()
	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatal("paused goroutine did not exit after Stop")
	}
}
