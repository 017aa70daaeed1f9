package goldfish

// Interrupt status and enable bits.
const (
	IntVSync          uint32 = 1 << 0
	IntBaseUpdateDone uint32 = 1 << 1

	intMask = IntVSync | IntBaseUpdateDone
)

// Interrupts is a set of sticky status bits masked by an enable register,
// driving one level-triggered output line. After every operation the line
// is high exactly when status&mask is non-zero.
type Interrupts struct {
	status uint32
	mask   uint32
	high   bool
	line   IRQLine
}

// Raise sets the given status bits.
func (i *Interrupts) Raise(bits uint32) {
	i.status |= bits & intMask
	i.update()
}

// Clear drops the given status bits without reporting them.
func (i *Interrupts) Clear(bits uint32) {
	i.status &^= bits
	i.update()
}

// ReadAndClear returns the pending enabled bits and clears exactly those.
func (i *Interrupts) ReadAndClear() uint32 {
	v := i.status & i.mask
	if v != 0 {
		i.status &^= v
		i.update()
	}
	return v
}

// SetMask replaces the enable register. Pending status bits are kept.
func (i *Interrupts) SetMask(mask uint32) {
	i.mask = mask
	i.update()
}

// Status returns the raw sticky status bits.
func (i *Interrupts) Status() uint32 { return i.status }

// Mask returns the enable register.
func (i *Interrupts) Mask() uint32 { return i.mask }

// Line reports the output level.
func (i *Interrupts) Line() bool { return i.high }

// restore loads status and mask from a snapshot and re-drives the line.
func (i *Interrupts) restore(status, mask uint32) {
	i.status = status
	i.mask = mask
	i.update()
}

func (i *Interrupts) update() {
	i.high = i.status&i.mask != 0
	if i.line != nil {
		i.line.SetLevel(i.high)
	}
}
