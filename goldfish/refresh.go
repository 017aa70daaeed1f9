package goldfish

import "bytes"

// UpdateDisplay runs one refresh tick: it raises the vsync and base update
// interrupts, redraws the surface from guest memory and reports the rows
// that changed. The host calls it once per frame; a base address write
// calls it immediately.
func (c *Controller) UpdateDisplay() {
	s := c.surface()
	if s == nil || s.BitsPerPixel == 0 || !c.baseValid || c.base == 0 {
		return
	}

	if c.irq.Mask()&IntVSync != 0 && c.irq.Status()&IntVSync == 0 {
		c.irq.Raise(IntVSync)
	}

	full := false
	if c.needUpdate {
		full = true
		if c.needInt {
			c.irq.Raise(IntBaseUpdateDone)
		}
		c.needInt = false
		c.needUpdate = false
	}

	var ymin, ymax int
	if c.blank {
		n := min(s.Height*s.Stride, len(s.Pix))
		clear(s.Pix[:n])
		ymin, ymax = 0, s.Height
	} else {
		ymin, ymax = c.draw(s, full)
	}

	if ymin < ymax {
		if c.trace {
			c.logf("goldfish: update y %d-%d", ymin, ymax)
		}
		c.disp.Update(0, ymin, s.Width, ymax-ymin)
	}
}

// draw converts guest rows into the surface and returns the changed span
// [ymin, ymax). On a full pass every row is converted.
func (c *Controller) draw(s *Surface, full bool) (ymin, ymax int) {
	if c.conv == nil || c.convBPP != s.BitsPerPixel {
		conv, err := ConverterFor(s.BitsPerPixel, c.order)
		if err != nil {
			// The surface was set up with a depth this hardware cannot
			// drive. Nothing the guest does can recover from that.
			panic(err)
		}
		c.conv, c.convBPP = conv, s.BitsPerPixel
		full = true
	}

	pitch := s.Width * guestBytesPerPixel
	if len(c.shadow) != pitch*s.Height {
		c.shadow = make([]byte, pitch*s.Height)
		full = true
	}
	if len(c.line) != pitch {
		c.line = make([]byte, pitch)
	}

	ymin, ymax = s.Height, 0
	addr := c.base
	for y := 0; y < s.Height; y++ {
		if c.mem != nil {
			c.mem.ReadPhys(addr, c.line)
		}
		prev := c.shadow[y*pitch : (y+1)*pitch]
		if full || !bytes.Equal(prev, c.line) {
			copy(prev, c.line)
			c.conv.ConvertRow(s.Pix[y*s.Stride:], c.line, s.Width)
			if y < ymin {
				ymin = y
			}
			ymax = y + 1
		}
		addr += uint32(pitch)
	}
	return ymin, ymax
}
