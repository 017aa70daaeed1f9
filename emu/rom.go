package emu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Optional image header at $100-$12F:
//
//	$100-$103  "EMGF"
//	$104       region, 'P' for PAL, anything else NTSC
//	$110-$12F  title, space or NUL padded
const (
	headerOffset = 0x100
	headerMagic  = "EMGF"
	headerEnd    = 0x130
)

var (
	ErrImageTooShort = errors.New("image too short to hold reset vectors")
	ErrImageTooLarge = errors.New("image larger than ROM window")
)

type imageHeader struct {
	region Region
	title  string
}

func parseHeader(rom []byte) (imageHeader, bool) {
	if len(rom) < headerEnd || string(rom[headerOffset:headerOffset+4]) != headerMagic {
		return imageHeader{}, false
	}
	h := imageHeader{region: RegionNTSC}
	if rom[headerOffset+4] == 'P' {
		h.region = RegionPAL
	}
	h.title = strings.TrimRight(string(rom[0x110:headerEnd]), " \x00")
	return h, true
}

// Title returns the image title from the header, or "" if there is none.
func Title(rom []byte) string {
	h, _ := parseHeader(rom)
	return h.title
}

// ValidateImage checks that a guest image can be booted: it must hold the
// SSP and PC reset vectors, fit the ROM window, and start at an even
// address inside ROM or RAM.
func ValidateImage(rom []byte) error {
	if len(rom) < 8 {
		return fmt.Errorf("%w (%d bytes)", ErrImageTooShort, len(rom))
	}
	if len(rom) > romSize {
		return fmt.Errorf("%w (%d bytes, max %d)", ErrImageTooLarge, len(rom), romSize)
	}

	pc := binary.BigEndian.Uint32(rom[4:8]) & addrMask
	if pc&1 != 0 {
		return fmt.Errorf("initial PC 0x%06X is odd", pc)
	}
	inROM := pc < uint32(len(rom))
	inRAM := pc >= ramStart && pc <= ramEnd
	if !inROM && !inRAM {
		return fmt.Errorf("initial PC 0x%06X is outside ROM and RAM", pc)
	}
	return nil
}
