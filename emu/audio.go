package emu

import "math"

// SampleRate is the output rate of GetAudioSamples in Hz.
const SampleRate = 48000

const (
	psgBufferSize = 1024
	psgGain       = 1898.0
	lpfCutoffHz   = 3390.0
)

// lpfAlpha is the smoothing factor for the first-order RC output filter.
// Derived from: alpha = dt / (RC + dt) where RC = 1/(2*pi*fc).
var lpfAlpha = 1.0 / (float64(SampleRate)/(2*math.Pi*lpfCutoffHz) + 1)

// mixAudio copies the PSG's mono output into the stereo audio buffer,
// duplicating each sample to both channels.
func (e *Emulator) mixAudio() {
	psgBuf, psgCount := e.psg.GetBuffer()
	for i := 0; i < psgCount; i++ {
		s := int16(psgBuf[i])
		e.audioBuffer = append(e.audioBuffer, s, s)
	}
	e.applyLowPass()
}

// applyLowPass runs the output RC filter over the audio buffer, one
// pole per channel, with state carried across frames.
func (e *Emulator) applyLowPass() {
	for i := 0; i+1 < len(e.audioBuffer); i += 2 {
		inL := float64(e.audioBuffer[i])
		inR := float64(e.audioBuffer[i+1])
		e.filterPrevL = lpfAlpha*inL + (1-lpfAlpha)*e.filterPrevL
		e.filterPrevR = lpfAlpha*inR + (1-lpfAlpha)*e.filterPrevR
		e.audioBuffer[i] = int16(math.Round(e.filterPrevL))
		e.audioBuffer[i+1] = int16(math.Round(e.filterPrevR))
	}
}

// GetAudioSamples returns accumulated audio samples as 16-bit stereo PCM.
func (e *Emulator) GetAudioSamples() []int16 {
	return e.audioBuffer
}
