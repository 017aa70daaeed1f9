package emu

import (
	"encoding/binary"
	"testing"
)

// Test image layout
const (
	testEntry   = 0x400
	testISR     = 0x500
	testFBBase  = ramStart            // guest framebuffer
	testStatus  = ramStart + 0x100000 // ISR ORs INT_STATUS here
	testCounter = testStatus + 4      // ISR counts itself here
	testIdle    = testCounter + 4     // ISR counts entries that found nothing pending
)

// 68000 opcodes used by the test programs
const (
	opMoveLImmAbs = 0x23FC // move.l #imm,(xxx).l
	opMoveLAbsD0  = 0x2039 // move.l (xxx).l,d0
	opOrLD0Abs    = 0x81B9 // or.l d0,(xxx).l
	opAddqL1Abs   = 0x52B9 // addq.l #1,(xxx).l
	opMoveToSR    = 0x46FC // move #imm,sr
	opBraSelf     = 0x60FE // bra.s *
	opTstLD0      = 0x4A80 // tst.l d0
	opBneSkip6    = 0x6606 // bne.s over one 6-byte instruction
	opRTE         = 0x4E73
	opNOP         = 0x4E71
)

// asm accumulates big-endian 68000 code.
type asm []byte

func (a asm) w(words ...uint16) asm {
	for _, v := range words {
		a = binary.BigEndian.AppendUint16(a, v)
	}
	return a
}

func (a asm) l(v uint32) asm {
	return binary.BigEndian.AppendUint32(a, v)
}

func (a asm) moveLImm(imm, addr uint32) asm {
	return a.w(opMoveLImmAbs).l(imm).l(addr)
}

// makeTestROM builds an image with SSP at the top of RAM, the entry
// point at testEntry and the level 4 autovector pointing at testISR.
func makeTestROM(program, isr asm) []byte {
	rom := make([]byte, 0x800)
	binary.BigEndian.PutUint32(rom[0:], ramEnd+1)
	binary.BigEndian.PutUint32(rom[4:], testEntry)
	binary.BigEndian.PutUint32(rom[(24+fbIRQLevel)*4:], testISR)
	copy(rom[testEntry:], program)
	copy(rom[testISR:], isr)
	return rom
}

// idleProgram spins forever.
func idleProgram() asm {
	return asm{}.w(opNOP, opBraSelf)
}

// vsyncProgram enables both controller interrupts, commits the
// framebuffer base, unmasks interrupts and spins.
func vsyncProgram() asm {
	return asm{}.
		moveLImm(3, fbStart+0x0c).
		moveLImm(testFBBase, fbStart+0x10).
		w(opMoveToSR, 0x2000).
		w(opBraSelf)
}

// countingISR drains INT_STATUS, accumulates it and counts entries.
func countingISR() asm {
	return asm{}.
		w(opMoveLAbsD0).l(fbStart + 0x08).
		w(opOrLD0Abs).l(testStatus).
		w(opAddqL1Abs).l(testCounter).
		w(opRTE)
}

// checkingISR spends an instruction before draining INT_STATUS, counts
// entries that found nothing pending at testIdle, and counts itself.
func checkingISR() asm {
	return asm{}.
		w(opNOP).
		w(opMoveLAbsD0).l(fbStart + 0x08).
		w(opTstLD0).
		w(opBneSkip6).
		w(opAddqL1Abs).l(testIdle).
		w(opAddqL1Abs).l(testCounter).
		w(opRTE)
}

type logSink struct {
	lines []string
}

func (l *logSink) logf(format string, args ...any) {
	l.lines = append(l.lines, format)
}

func createTestEmulatorWith(t *testing.T, rom []byte, cfg Config) (*Emulator, *logSink) {
	t.Helper()
	logs := &logSink{}
	if cfg.Logf == nil {
		cfg.Logf = logs.logf
	}
	e, err := NewEmulatorWithConfig(rom, RegionNTSC, cfg)
	if err != nil {
		t.Fatalf("NewEmulatorWithConfig failed: %v", err)
	}
	return e, logs
}

// createTestEmulator creates an Emulator running the vsync program.
func createTestEmulator(t *testing.T) *Emulator {
	t.Helper()
	e, _ := createTestEmulatorWith(t, makeTestROM(vsyncProgram(), countingISR()), Config{})
	return e
}

func readRAMLong(e *Emulator, addr uint32) uint32 {
	return binary.BigEndian.Uint32(e.bus.ram[addr-ramStart:])
}
