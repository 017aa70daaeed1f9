package emu

import emucore "github.com/user-none/eblitui/api"

// Region is an alias for emucore.Region.
type Region = emucore.Region

const (
	RegionNTSC = emucore.RegionNTSC
	RegionPAL  = emucore.RegionPAL
)

// RegionTiming holds timing constants for a specific region.
type RegionTiming struct {
	CPUClockHz  int // 68000 clock frequency
	PSGClockHz  int // SN76489 input clock
	Scanlines   int // Total scanlines per frame
	ActiveLines int // Line on which vertical blank begins
	FPS         int // Frames per second
}

// NTSC timing: 68000 7.670454 MHz, PSG 3.579545 MHz, 262 lines, 60 Hz
var NTSCTiming = RegionTiming{
	CPUClockHz:  7670454,
	PSGClockHz:  3579545,
	Scanlines:   262,
	ActiveLines: 224,
	FPS:         60,
}

// PAL timing: 68000 7.600489 MHz, PSG 3.546893 MHz, 313 lines, 50 Hz
var PALTiming = RegionTiming{
	CPUClockHz:  7600489,
	PSGClockHz:  3546893,
	Scanlines:   313,
	ActiveLines: 240,
	FPS:         50,
}

// GetTimingForRegion returns the appropriate timing constants
func GetTimingForRegion(r Region) RegionTiming {
	if r == RegionPAL {
		return PALTiming
	}
	return NTSCTiming
}

// cpuCyclesPerScanline is the 68000 budget for one line.
func (t RegionTiming) cpuCyclesPerScanline() int {
	return t.CPUClockHz / t.FPS / t.Scanlines
}

// psgCyclesPerScanline is the PSG input clock count for one line.
func (t RegionTiming) psgCyclesPerScanline() int {
	return t.PSGClockHz / t.FPS / t.Scanlines
}

// DetectRegion returns the display timing region declared in the optional
// image header. The bool is true when the image carries a header.
func DetectRegion(rom []byte) (Region, bool) {
	h, ok := parseHeader(rom)
	if !ok {
		return RegionNTSC, false
	}
	return h.region, true
}

// DefaultRegion returns the default region (NTSC).
func DefaultRegion() Region {
	return RegionNTSC
}
