package emu

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"testing"

	"github.com/user-none/emgf/goldfish"
	"github.com/user-none/go-chip-m68k"
)

func TestSerializeSize(t *testing.T) {
	size := SerializeSize()
	want := stateHeaderSize + m68k.SerializeSize + ramSize + goldfish.SerializeSize + boardSerializeSize
	if size < want {
		t.Errorf("SerializeSize %d does not cover header, CPU, RAM, controller and board (%d)", size, want)
	}

	e := createTestEmulator(t)
	state, err := e.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if len(state) != size {
		t.Errorf("expected state of %d bytes, got %d", size, len(state))
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	e := createTestEmulator(t)
	e.RunFrame()
	e.bus.Write(m68k.Long, ramStart+0x1000, 0xABCDEF01)
	e.Controller().Write(goldfish.RegSetRotate, 1)
	e.SetP2Connected(false)

	wantCounter := readRAMLong(e, testCounter)
	wantFB := e.Controller().State()
	wantPC := e.cpu.Registers().PC

	state, err := e.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	// Move everything on
	e.RunFrame()
	e.RunFrame()
	e.bus.Write(m68k.Long, ramStart+0x1000, 0)
	e.Controller().Write(goldfish.RegSetRotate, 3)
	e.SetP2Connected(true)

	if err := e.Deserialize(state); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if got := readRAMLong(e, ramStart+0x1000); got != 0xABCDEF01 {
		t.Errorf("RAM: expected 0xABCDEF01, got 0x%08X", got)
	}
	if got := readRAMLong(e, testCounter); got != wantCounter {
		t.Errorf("ISR counter: expected %d, got %d", wantCounter, got)
	}
	if got := e.cpu.Registers().PC; got != wantPC {
		t.Errorf("PC: expected 0x%06X, got 0x%06X", wantPC, got)
	}
	gotFB := e.Controller().State()
	if !gotFB.NeedUpdate {
		t.Error("expected a full redraw scheduled after load")
	}
	gotFB.NeedUpdate = wantFB.NeedUpdate
	if gotFB != wantFB {
		t.Errorf("controller state mismatch\ngot  %+v\nwant %+v", gotFB, wantFB)
	}
	if e.pad.p2Connected {
		t.Error("expected player 2 connection restored")
	}
	if e.Status().Frame != 1 {
		t.Errorf("expected frame counter 1, got %d", e.Status().Frame)
	}

	// The machine keeps running from the restored state
	e.RunFrame()
	if got := readRAMLong(e, testCounter); got <= wantCounter {
		t.Errorf("expected interrupts to continue after load, counter %d", got)
	}
}

func TestVerifyState_ValidState(t *testing.T) {
	e := createTestEmulator(t)
	state, err := e.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if err := e.VerifyState(state); err != nil {
		t.Errorf("VerifyState should pass for valid state: %v", err)
	}
}

func TestVerifyState_InvalidMagic(t *testing.T) {
	e := createTestEmulator(t)
	state, _ := e.Serialize()
	state[0] = 'X'
	if err := e.VerifyState(state); err == nil {
		t.Error("VerifyState should reject invalid magic bytes")
	}
}

func TestVerifyState_UnsupportedVersion(t *testing.T) {
	e := createTestEmulator(t)
	state, _ := e.Serialize()
	binary.LittleEndian.PutUint16(state[12:14], 9999)
	if err := e.VerifyState(state); err == nil {
		t.Error("VerifyState should reject unsupported version")
	}
}

func TestVerifyState_CorruptData(t *testing.T) {
	e := createTestEmulator(t)
	state, _ := e.Serialize()
	state[stateHeaderSize+5] ^= 0xFF
	if err := e.VerifyState(state); err == nil {
		t.Error("VerifyState should reject corrupted data")
	}
}

func TestVerifyState_WrongROM(t *testing.T) {
	e1 := createTestEmulator(t)
	state, _ := e1.Serialize()

	e2, _ := createTestEmulatorWith(t, makeTestROM(idleProgram(), nil), Config{})
	if err := e2.VerifyState(state); err == nil {
		t.Error("VerifyState should reject state from different ROM")
	}
}

func TestVerifyState_TooShort(t *testing.T) {
	e := createTestEmulator(t)
	if err := e.VerifyState(make([]byte, stateHeaderSize-1)); err == nil {
		t.Error("VerifyState should reject data smaller than header")
	}
}

func TestDeserialize_GeometryMismatchLeavesStateAlone(t *testing.T) {
	rom := makeTestROM(vsyncProgram(), countingISR())
	small, _ := createTestEmulatorWith(t, rom, Config{})
	small.RunFrame()
	state, err := small.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	big, _ := createTestEmulatorWith(t, rom, Config{Width: 640, Height: 480})
	big.RunFrame()
	big.RunFrame()
	before := big.Controller().State()
	counter := readRAMLong(big, testCounter)

	err = big.Deserialize(state)
	if !errors.Is(err, goldfish.ErrGeometryMismatch) {
		t.Fatalf("expected ErrGeometryMismatch, got %v", err)
	}
	if after := big.Controller().State(); after != before {
		t.Errorf("controller changed by failed load: %+v -> %+v", before, after)
	}
	if got := readRAMLong(big, testCounter); got != counter {
		t.Errorf("RAM changed by failed load: %d -> %d", counter, got)
	}
}

func TestDeserialize_PreservesRegion(t *testing.T) {
	rom := makeTestROM(idleProgram(), nil)
	ntsc, err := NewEmulator(rom, RegionNTSC)
	if err != nil {
		t.Fatalf("NewEmulator NTSC failed: %v", err)
	}
	state, err := ntsc.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	pal, err := NewEmulator(rom, RegionPAL)
	if err != nil {
		t.Fatalf("NewEmulator PAL failed: %v", err)
	}
	if err := pal.Deserialize(state); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if pal.GetRegion() != RegionPAL {
		t.Errorf("Region should be preserved as PAL, got %v", pal.GetRegion())
	}
}

func TestSerialize_StateIntegrity(t *testing.T) {
	e := createTestEmulator(t)
	state, err := e.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	if string(state[0:12]) != stateMagic {
		t.Errorf("Magic bytes: expected %q, got %q", stateMagic, string(state[0:12]))
	}
	if version := binary.LittleEndian.Uint16(state[12:14]); version != stateVersion {
		t.Errorf("Version: expected %d, got %d", stateVersion, version)
	}
	if romCRC := binary.LittleEndian.Uint32(state[14:18]); romCRC != e.bus.GetROMCRC32() {
		t.Errorf("ROM CRC32: expected 0x%08X, got 0x%08X", e.bus.GetROMCRC32(), romCRC)
	}
	dataCRC := binary.LittleEndian.Uint32(state[18:22])
	if calc := crc32.ChecksumIEEE(state[stateHeaderSize:]); dataCRC != calc {
		t.Errorf("Data CRC32: expected 0x%08X, got 0x%08X", calc, dataCRC)
	}
}
