package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/user-none/emgf/emu"
)

// ringBufferCapacity is about 170ms of 48kHz stereo 16-bit PCM.
const ringBufferCapacity = 32768

// bytesPerFrame is one stereo int16 sample pair.
const bytesPerFrame = 4

// AudioPlayer plays the board's PSG output through oto. Samples are queued
// into a ring buffer that oto's player pulls from.
type AudioPlayer struct {
	player *oto.Player
	ring   *AudioRingBuffer
	pcm    []byte
}

var (
	otoCtx      *oto.Context
	otoInitOnce sync.Once
	otoInitErr  error
)

func ensureOtoContext() (*oto.Context, error) {
	otoInitOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   emu.SampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		})
		if otoInitErr != nil {
			return
		}
		<-ready
	})
	return otoCtx, otoInitErr
}

// NewAudioPlayer opens the audio device and starts playback.
func NewAudioPlayer(volume float64) (*AudioPlayer, error) {
	ctx, err := ensureOtoContext()
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	ring := NewAudioRingBuffer(ringBufferCapacity)
	player := ctx.NewPlayer(ring)
	// 100ms of device-side buffering
	player.SetBufferSize(emu.SampleRate / 10 * bytesPerFrame)
	player.SetVolume(volume)
	player.Play()

	return &AudioPlayer{
		player: player,
		ring:   ring,
		pcm:    make([]byte, 0, 4096),
	}, nil
}

// QueueSamples encodes interleaved stereo samples as little-endian PCM and
// queues them for playback.
func (a *AudioPlayer) QueueSamples(samples []int16) {
	if len(samples) == 0 {
		return
	}
	a.pcm = encodePCM(a.pcm[:0], samples)
	a.ring.Write(a.pcm)
}

func encodePCM(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = append(dst, byte(s), byte(s>>8))
	}
	return dst
}

// GetBufferLevel returns the bytes queued in the ring buffer plus oto's
// own buffer. The runner paces emulation against it.
func (a *AudioPlayer) GetBufferLevel() int {
	return a.ring.Buffered() + a.player.BufferedSize()
}

// Dropped returns bytes lost to ring buffer overflow.
func (a *AudioPlayer) Dropped() uint64 {
	return a.ring.Dropped()
}

// SetVolume sets the playback volume (0.0 silent, 1.0 full).
func (a *AudioPlayer) SetVolume(vol float64) {
	a.player.SetVolume(vol)
}

// Close stops playback.
func (a *AudioPlayer) Close() {
	if a.ring != nil {
		a.ring.Close()
	}
	if a.player != nil {
		a.player.Close()
	}
}
