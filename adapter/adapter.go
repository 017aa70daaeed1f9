package adapter

import (
	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/emgf/emu"
)

// Compile-time interface check.
var _ emucore.CoreFactory = (*Factory)(nil)

// Factory implements emucore.CoreFactory for the emgf board.
type Factory struct{}

// SystemInfo returns system metadata for UI configuration.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:            "emgf",
		ConsoleName:     "Goldfish Framebuffer Board",
		Extensions:      []string{".gfb", ".bin"},
		ScreenWidth:     emu.ScreenWidth,
		MaxScreenHeight: emu.MaxScreenHeight,
		AspectRatio:     float64(emu.ScreenWidth) / float64(emu.DefaultScreenHeight),
		SampleRate:      emu.SampleRate,
		Buttons: []emucore.Button{
			{Name: "A", ID: emu.ButtonA, DefaultKey: "J", DefaultPad: "A"},
			{Name: "B", ID: emu.ButtonB, DefaultKey: "K", DefaultPad: "B"},
			{Name: "C", ID: emu.ButtonC, DefaultKey: "L", DefaultPad: "X"},
			{Name: "Start", ID: emu.ButtonStart, DefaultKey: "Enter", DefaultPad: "Start"},
		},
		Players: 2,
		CoreOptions: []emucore.CoreOption{
			{
				Key:         "p2_connected",
				Label:       "Player 2 Joypad",
				Description: "Report a joypad plugged into port 2",
				Type:        emucore.CoreOptionBool,
				Default:     "true",
				Category:    emucore.CoreOptionCategoryInput,
			},
		},
		DataDirName:   "emgf",
		CoreName:      emu.Name,
		CoreVersion:   emu.Version,
		SerializeSize: emu.SerializeSize(),
	}
}

// CreateEmulator creates a new emulator instance with the given ROM and region.
func (f *Factory) CreateEmulator(rom []byte, region emucore.Region) (emucore.Emulator, error) {
	e, err := emu.NewEmulator(rom, region)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// DetectRegion reads the region from the optional image header.
// The bool return is true only when the image declares one.
func (f *Factory) DetectRegion(rom []byte) (emucore.Region, bool) {
	return emu.DetectRegion(rom)
}
