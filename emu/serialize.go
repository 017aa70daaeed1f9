package emu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/user-none/emgf/goldfish"
	"github.com/user-none/go-chip-m68k"
	"github.com/user-none/go-chip-sn76489"
)

// Save state format constants
const (
	stateVersion    = 1
	stateMagic      = "eMGFState\x00\x00\x00"
	stateHeaderSize = 22 // magic(12) + version(2) + romCRC(4) + dataCRC(4)
)

// boardSerializeSize covers the inline Emulator fields:
// p2Connected(1) + frame(8) + filterPrevL(8) + filterPrevR(8).
const boardSerializeSize = 25

// Payload offsets, relative to the start of the state.
var (
	cpuStateOffset   = stateHeaderSize
	ramStateOffset   = cpuStateOffset + m68k.SerializeSize
	fbStateOffset    = ramStateOffset + ramSize
	psgStateOffset   = fbStateOffset + goldfish.SerializeSize
	boardStateOffset = psgStateOffset + sn76489.SerializeSize
)

// boolByte converts a bool to a uint8 (0 or 1).
func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// SerializeSize returns the total size in bytes needed for a save state.
func SerializeSize() int {
	return boardStateOffset + boardSerializeSize
}

// Serialize creates a save state and returns it as a byte slice.
func (e *Emulator) Serialize() ([]byte, error) {
	data := make([]byte, SerializeSize())

	copy(data[0:12], stateMagic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)
	binary.LittleEndian.PutUint32(data[14:18], e.bus.romCRC)

	if err := e.cpu.Serialize(data[cpuStateOffset:]); err != nil {
		return nil, err
	}
	copy(data[ramStateOffset:], e.bus.ram)
	if err := e.fb.Serialize(data[fbStateOffset:]); err != nil {
		return nil, err
	}
	if err := e.psg.Serialize(data[psgStateOffset:]); err != nil {
		return nil, err
	}
	e.serializeBoard(data[boardStateOffset:])

	// Data CRC32 over everything after the header
	dataCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	binary.LittleEndian.PutUint32(data[18:22], dataCRC)

	return data, nil
}

// Deserialize restores emulator state from a save state byte slice.
// Region is NOT restored - the current region setting is preserved.
// Nothing is changed if the state fails verification.
func (e *Emulator) Deserialize(data []byte) error {
	if err := e.VerifyState(data); err != nil {
		return err
	}

	if err := e.cpu.Deserialize(data[cpuStateOffset:]); err != nil {
		return err
	}
	copy(e.bus.ram, data[ramStateOffset:fbStateOffset])
	if err := e.fb.Deserialize(data[fbStateOffset:]); err != nil {
		return err
	}
	if err := e.psg.Deserialize(data[psgStateOffset:]); err != nil {
		return err
	}
	e.deserializeBoard(data[boardStateOffset:])

	return nil
}

// VerifyState checks if a save state is valid without loading it,
// including that it was taken with the same display geometry.
func (e *Emulator) VerifyState(data []byte) error {
	if len(data) < SerializeSize() {
		return errors.New("save state too short")
	}

	if string(data[0:12]) != stateMagic {
		return errors.New("invalid save state magic")
	}

	version := binary.LittleEndian.Uint16(data[12:14])
	if version > stateVersion {
		return errors.New("unsupported save state version")
	}

	romCRC := binary.LittleEndian.Uint32(data[14:18])
	if romCRC != e.bus.romCRC {
		return errors.New("save state is for a different ROM")
	}

	expectedCRC := binary.LittleEndian.Uint32(data[18:22])
	actualCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	if expectedCRC != actualCRC {
		return errors.New("save state data is corrupted")
	}

	if err := e.fb.VerifyState(data[fbStateOffset:]); err != nil {
		return fmt.Errorf("framebuffer state: %w", err)
	}

	return nil
}

func (e *Emulator) serializeBoard(data []byte) {
	data[0] = boolByte(e.pad.p2Connected)
	binary.LittleEndian.PutUint64(data[1:], e.frame)
	binary.LittleEndian.PutUint64(data[9:], math.Float64bits(e.filterPrevL))
	binary.LittleEndian.PutUint64(data[17:], math.Float64bits(e.filterPrevR))
}

func (e *Emulator) deserializeBoard(data []byte) {
	e.pad.p2Connected = data[0] != 0
	e.frame = binary.LittleEndian.Uint64(data[1:])
	e.filterPrevL = math.Float64frombits(binary.LittleEndian.Uint64(data[9:]))
	e.filterPrevR = math.Float64frombits(binary.LittleEndian.Uint64(data[17:]))
}
