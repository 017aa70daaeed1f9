package emu

import (
	"hash/crc32"

	"github.com/user-none/emgf/goldfish"
	"github.com/user-none/go-chip-m68k"
	"github.com/user-none/go-chip-sn76489"
)

const (
	addrMask = 0xFFFFFF // 24-bit address bus

	romSize  = 0x100000 // 1MB ROM window
	ramStart = 0x100000
	ramEnd   = 0x3FFFFF
	ramSize  = ramEnd - ramStart + 1 // 3MB

	fbStart = 0xF00000
	fbEnd   = fbStart + goldfish.WindowSize - 1

	psgPortStart = 0xF01000
	psgPortEnd   = 0xF01001

	joypadStart = 0xF02000
	joypadEnd   = 0xF02003
)

// Bus implements m68k.Bus with the board memory map.
//
// Address map (68000 view, 24-bit):
//
//	0x000000-0x0FFFFF  ROM (image loaded at 0, read-only)
//	0x100000-0x3FFFFF  RAM (3MB)
//	0xF00000-0xF000FF  framebuffer controller registers (long access;
//	                   narrow reads see one lane, narrow writes are dropped)
//	0xF01000-0xF01001  PSG write port
//	0xF02000-0xF02003  joypad register (P2 in the high word, P1 in the low word)
//
// Unmapped reads return 0 and unmapped writes are ignored.
type Bus struct {
	rom    []byte
	ram    []byte
	romCRC uint32

	fb  *goldfish.Controller
	psg *sn76489.SN76489
	pad *joypads

	logf func(format string, args ...any)
}

// NewBus creates a Bus over the given ROM image and devices. The
// controller can be attached later with SetController.
func NewBus(rom []byte, psg *sn76489.SN76489, pad *joypads, logf func(string, ...any)) *Bus {
	if len(rom) > romSize {
		rom = rom[:romSize]
	}
	return &Bus{
		rom:    rom,
		ram:    make([]byte, ramSize),
		romCRC: crc32.ChecksumIEEE(rom),
		psg:    psg,
		pad:    pad,
		logf:   logf,
	}
}

// SetController maps the framebuffer controller into the MMIO window.
// Called after construction because the controller reads guest memory
// through the bus.
func (b *Bus) SetController(c *goldfish.Controller) {
	b.fb = c
}

// Read implements m68k.Bus.
func (b *Bus) Read(s m68k.Size, addr uint32) uint32 {
	addr &= addrMask

	switch {
	case addr < romSize:
		return readBE(b.rom, s, addr)
	case addr >= ramStart && addr <= ramEnd:
		return readBE(b.ram, s, addr-ramStart)
	case addr >= fbStart && addr <= fbEnd:
		return b.readFB(s, addr-fbStart)
	case addr >= joypadStart && addr <= joypadEnd:
		return lane(s, addr-joypadStart, b.pad.word())
	default:
		return 0
	}
}

// Write implements m68k.Bus.
func (b *Bus) Write(s m68k.Size, addr uint32, value uint32) {
	addr &= addrMask

	switch {
	case addr < romSize:
		// ROM, read-only
	case addr >= ramStart && addr <= ramEnd:
		writeBE(b.ram, s, addr-ramStart, value)
	case addr >= fbStart && addr <= fbEnd:
		b.writeFB(s, addr-fbStart, value)
	case addr >= psgPortStart && addr <= psgPortEnd:
		// Data is always the low byte, whatever the access width
		b.psg.Write(byte(value))
	}
}

// Reset clears RAM. Implements m68k.Bus.
func (b *Bus) Reset() {
	clear(b.ram)
}

// GetROMCRC32 returns the CRC32 of the loaded ROM.
func (b *Bus) GetROMCRC32() uint32 {
	return b.romCRC
}

// ReadPhys implements goldfish.Memory. Bytes outside ROM and RAM read
// as zero; device registers are never touched.
func (b *Bus) ReadPhys(addr uint32, buf []byte) {
	for len(buf) > 0 {
		addr &= addrMask
		var src []byte
		switch {
		case addr < uint32(len(b.rom)):
			src = b.rom[addr:]
		case addr >= ramStart && addr <= ramEnd:
			src = b.ram[addr-ramStart:]
		}
		if src == nil {
			buf[0] = 0
			buf = buf[1:]
			addr++
			continue
		}
		n := copy(buf, src)
		buf = buf[n:]
		addr += uint32(n)
	}
}

// readFB forwards long reads to the controller. Word and byte reads
// return the matching big-endian lane of the 32-bit register. A narrow
// read of INT_STATUS only peeks: just a long read acknowledges, so a
// lane that happens to read 0 never drops a pending bit.
func (b *Bus) readFB(s m68k.Size, off uint32) uint32 {
	if b.fb == nil {
		return 0
	}
	if s == m68k.Long {
		return b.fb.Read(off)
	}
	reg := off &^ 3
	if reg == goldfish.RegIntStatus {
		return lane(s, off&3, b.fb.Pending())
	}
	return lane(s, off&3, b.fb.Read(reg))
}

// writeFB forwards long writes to the controller. The registers are 32
// bits wide, so narrower writes are dropped.
func (b *Bus) writeFB(s m68k.Size, off uint32, value uint32) {
	if b.fb == nil {
		return
	}
	if s != m68k.Long {
		b.logf("emu: dropped %d-byte write 0x%X to framebuffer register 0x%02x", sizeBytes(s), value, off)
		return
	}
	b.fb.Write(off, value)
}

// lane extracts the sub-word at byte offset off of a big-endian 32-bit
// register.
func lane(s m68k.Size, off uint32, reg uint32) uint32 {
	switch s {
	case m68k.Byte:
		return (reg >> ((3 - off&3) * 8)) & 0xFF
	case m68k.Word:
		if off&2 == 0 {
			return reg >> 16
		}
		return reg & 0xFFFF
	default:
		return reg
	}
}

func sizeBytes(s m68k.Size) int {
	switch s {
	case m68k.Byte:
		return 1
	case m68k.Word:
		return 2
	default:
		return 4
	}
}

// readBE reads from mem with big-endian byte order. Bytes past the end
// of mem read as zero.
func readBE(mem []byte, s m68k.Size, off uint32) uint32 {
	n := uint32(sizeBytes(s))
	var val uint32
	for i := uint32(0); i < n; i++ {
		val <<= 8
		if off+i < uint32(len(mem)) {
			val |= uint32(mem[off+i])
		}
	}
	return val
}

// writeBE writes to mem with big-endian byte order, dropping bytes past
// the end of mem.
func writeBE(mem []byte, s m68k.Size, off uint32, value uint32) {
	n := uint32(sizeBytes(s))
	for i := uint32(0); i < n; i++ {
		if off+i < uint32(len(mem)) {
			mem[off+i] = byte(value >> ((n - 1 - i) * 8))
		}
	}
}
