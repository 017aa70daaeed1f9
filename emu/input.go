package emu

import emucore "github.com/user-none/eblitui/api"

// Button bit indices beyond the emucore D-pad bits.
const (
	ButtonA     = 4
	ButtonB     = 5
	ButtonC     = 6
	ButtonStart = 7
)

// padConnected is set in a joypad half when a controller is plugged in.
const padConnected = 1 << 15

const padButtonMask = 1<<emucore.ButtonUp | 1<<emucore.ButtonDown |
	1<<emucore.ButtonLeft | 1<<emucore.ButtonRight |
	1<<ButtonA | 1<<ButtonB | 1<<ButtonC | 1<<ButtonStart

// joypads backs the read-only joypad register. Buttons are active high
// in the emucore bit order.
type joypads struct {
	buttons     [2]uint16
	p2Connected bool
}

func (j *joypads) set(player int, buttons uint32) {
	if player < 0 || player > 1 {
		return
	}
	j.buttons[player] = uint16(buttons & padButtonMask)
}

// word returns the register value: player 2 in bits 31-16, player 1 in
// bits 15-0.
func (j *joypads) word() uint32 {
	p1 := uint32(j.buttons[0]) | padConnected
	var p2 uint32
	if j.p2Connected {
		p2 = uint32(j.buttons[1]) | padConnected
	}
	return p2<<16 | p1
}
