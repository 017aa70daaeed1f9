package main

import (
	libretro "github.com/user-none/eblitui/libretro"
	"github.com/user-none/emgf/adapter"
	"github.com/user-none/emgf/emu"
)

func init() {
	libretro.RegisterFactory(&adapter.Factory{}, []libretro.RetropadMapping{
		{RetroID: libretro.JoypadY, BitID: emu.ButtonA},
		{RetroID: libretro.JoypadB, BitID: emu.ButtonB},
		{RetroID: libretro.JoypadA, BitID: emu.ButtonC},
		{RetroID: libretro.JoypadStart, BitID: emu.ButtonStart},
	})
}

func main() {}
