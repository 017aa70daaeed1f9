package goldfish

import (
	"encoding/binary"
	"fmt"
	"testing"
)

// testBase is where test framebuffers live in fakeMemory.
const testBase = 0x1000

// fakeMemory is a flat guest physical memory starting at address 0.
type fakeMemory struct {
	data  []byte
	reads int
}

func (m *fakeMemory) ReadPhys(addr uint32, buf []byte) {
	m.reads++
	n := copy(buf, m.data[min(int(addr), len(m.data)):])
	clear(buf[n:])
}

// setPixel stores an RGB565 pixel little-endian in a width-wide framebuffer.
func (m *fakeMemory) setPixel(width, x, y int, v uint16) {
	binary.LittleEndian.PutUint16(m.data[testBase+(y*width+x)*2:], v)
}

type update struct {
	x, y, w, h int
}

// fakeDisplay owns a surface and records region updates.
type fakeDisplay struct {
	surf    *Surface
	updates []update
}

func newFakeDisplay(w, h, bpp int) *fakeDisplay {
	bytesPP := (bpp + 7) / 8
	return &fakeDisplay{surf: &Surface{
		Width:        w,
		Height:       h,
		Stride:       w * bytesPP,
		BitsPerPixel: bpp,
		Pix:          make([]byte, w*h*bytesPP),
	}}
}

func (d *fakeDisplay) Surface() *Surface { return d.surf }

func (d *fakeDisplay) Update(x, y, w, h int) {
	d.updates = append(d.updates, update{x, y, w, h})
}

// irqSink records every level driven onto the line.
type irqSink struct {
	levels []bool
}

func (s *irqSink) SetLevel(high bool) { s.levels = append(s.levels, high) }

func (s *irqSink) level() bool {
	if len(s.levels) == 0 {
		return false
	}
	return s.levels[len(s.levels)-1]
}

// testRig wires a controller to fakes.
type testRig struct {
	c    *Controller
	mem  *fakeMemory
	disp *fakeDisplay
	irq  *irqSink
	logs []string
}

func newTestRig(t *testing.T, w, h, bpp int) *testRig {
	t.Helper()
	r := &testRig{
		mem:  &fakeMemory{data: make([]byte, testBase+w*h*2+0x1000)},
		disp: newFakeDisplay(w, h, bpp),
		irq:  &irqSink{},
	}
	c, err := New(Config{Logf: r.logf}, r.mem, r.disp, r.irq)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	r.c = c
	return r
}

func (r *testRig) logf(format string, args ...any) {
	r.logs = append(r.logs, fmt.Sprintf(format, args...))
}

// checkLine asserts the interrupt invariant against the sink.
func (r *testRig) checkLine(t *testing.T, step string) {
	t.Helper()
	st := r.c.State()
	want := st.IntStatus&st.IntEnable != 0
	if r.c.IRQ() != want {
		t.Errorf("%s: IRQ() = %v, status=%#x enable=%#x", step, r.c.IRQ(), st.IntStatus, st.IntEnable)
	}
	if r.irq.level() != want {
		t.Errorf("%s: sink level = %v, want %v", step, r.irq.level(), want)
	}
}
