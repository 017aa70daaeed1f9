package emu

import "testing"

// makeHeaderROM builds an image carrying the optional header.
func makeHeaderROM(region byte, title string) []byte {
	rom := make([]byte, headerEnd)
	copy(rom[headerOffset:], headerMagic)
	rom[headerOffset+4] = region
	for i := 0x110; i < headerEnd; i++ {
		rom[i] = ' '
	}
	copy(rom[0x110:], title)
	return rom
}

func TestDetectRegion_PAL(t *testing.T) {
	got, ok := DetectRegion(makeHeaderROM('P', ""))
	if got != RegionPAL || !ok {
		t.Errorf("P: got %v (%v), want PAL (true)", got, ok)
	}
}

func TestDetectRegion_NTSC(t *testing.T) {
	got, ok := DetectRegion(makeHeaderROM('N', ""))
	if got != RegionNTSC || !ok {
		t.Errorf("N: got %v (%v), want NTSC (true)", got, ok)
	}
}

func TestDetectRegion_NoHeader(t *testing.T) {
	rom := makeHeaderROM('P', "")
	rom[headerOffset] = 'X'
	if got, ok := DetectRegion(rom); got != RegionNTSC || ok {
		t.Errorf("no header: got %v (%v), want NTSC (false)", got, ok)
	}
}

func TestDetectRegion_ROMTooShort(t *testing.T) {
	if got, ok := DetectRegion(make([]byte, 0x100)); got != RegionNTSC || ok {
		t.Errorf("short ROM: got %v (%v), want NTSC (false)", got, ok)
	}
}

func TestTitle(t *testing.T) {
	if got := Title(makeHeaderROM('N', "BARS DEMO")); got != "BARS DEMO" {
		t.Errorf("expected %q, got %q", "BARS DEMO", got)
	}
	if got := Title(make([]byte, 8)); got != "" {
		t.Errorf("expected empty title without header, got %q", got)
	}
}

func TestTimingForRegion(t *testing.T) {
	for _, c := range []struct {
		region     Region
		fps, lines int
	}{
		{RegionNTSC, 60, 262},
		{RegionPAL, 50, 313},
	} {
		tm := GetTimingForRegion(c.region)
		if tm.FPS != c.fps || tm.Scanlines != c.lines {
			t.Errorf("%v: got %d fps %d lines, want %d fps %d lines", c.region, tm.FPS, tm.Scanlines, c.fps, c.lines)
		}
		if tm.ActiveLines >= tm.Scanlines {
			t.Errorf("%v: vblank line %d past end of frame", c.region, tm.ActiveLines)
		}
		if tm.cpuCyclesPerScanline() <= 0 || tm.psgCyclesPerScanline() <= 0 {
			t.Errorf("%v: expected positive per-line budgets", c.region)
		}
	}
}

func TestSetRegion(t *testing.T) {
	e := createTestEmulator(t)
	e.SetRegion(RegionPAL)
	if e.GetRegion() != RegionPAL {
		t.Errorf("expected PAL, got %v", e.GetRegion())
	}
	if timing := e.GetTiming(); timing.FPS != 50 || timing.Scanlines != 313 {
		t.Errorf("expected 50/313, got %d/%d", timing.FPS, timing.Scanlines)
	}
	if e.cpuCyclesPerScanline != PALTiming.cpuCyclesPerScanline() {
		t.Errorf("expected PAL line budget, got %d", e.cpuCyclesPerScanline)
	}
}
