package goldfish

// Register offsets within the MMIO window. All registers are 32 bits wide.
const (
	RegWidth      = 0x00 // R: surface width in pixels
	RegHeight     = 0x04 // R: surface height in pixels
	RegIntStatus  = 0x08 // R: pending enabled interrupts, cleared by the read
	RegIntEnable  = 0x0c // W: interrupt mask
	RegSetBase    = 0x10 // W: commit framebuffer base address
	RegSetRotate  = 0x14 // W: latch rotation request (0-3)
	RegSetBlank   = 0x18 // W: blank flag
	RegPhysWidth  = 0x1c // R: width in millimetres
	RegPhysHeight = 0x20 // R: height in millimetres
)

// Read returns the value of the register at offset.
func (c *Controller) Read(offset uint32) uint32 {
	v := c.read(offset)
	if c.trace {
		c.logf("goldfish: read 0x%02x -> 0x%08x", offset, v)
	}
	return v
}

func (c *Controller) read(offset uint32) uint32 {
	var w, h int
	if s := c.surface(); s != nil {
		w, h = s.Width, s.Height
	}

	switch offset {
	case RegWidth:
		return uint32(w)
	case RegHeight:
		return uint32(h)
	case RegIntStatus:
		return c.irq.ReadAndClear()
	case RegPhysWidth:
		return uint32(pixelsToMM(w, c.dpi))
	case RegPhysHeight:
		return uint32(pixelsToMM(h, c.dpi))
	default:
		c.logf("goldfish: read from unknown register 0x%02x", offset)
		return 0
	}
}

// Write stores value into the register at offset.
func (c *Controller) Write(offset, value uint32) {
	if c.trace {
		c.logf("goldfish: write 0x%02x <- 0x%08x", offset, value)
	}
	switch offset {
	case RegIntEnable:
		c.irq.SetMask(value)
	case RegSetBase:
		c.base = value
		c.irq.Clear(IntBaseUpdateDone)
		c.needUpdate = true
		c.needInt = true
		c.baseValid = true
		if uint32(c.requestedRotation) != c.rotation {
			c.rotation = uint32(c.requestedRotation)
		}
		// The guest waits for the completion interrupt, so redraw now
		// rather than on the next host tick.
		c.UpdateDisplay()
		c.irq.update()
	case RegSetRotate:
		c.requestedRotation = uint8(value & 0x3)
	case RegSetBlank:
		c.blank = value&1 != 0
		c.needUpdate = true
	default:
		c.logf("goldfish: write 0x%08x to unknown register 0x%02x", value, offset)
	}
}
