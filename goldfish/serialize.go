package goldfish

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	stateVersion = 2
	// SerializeSize is the total bytes needed for controller serialization.
	// version(1) + width(4) + height(4) + stride(4) + surfaceRotation(1) +
	// base(4) + baseValid(1) + needUpdate(1) + needInt(1) +
	// requestedRotation(1) + blank(1) +
	// intStatus(4) + intEnable(4) + rotation(4) + dpi(4)
	SerializeSize = 39
)

// Errors returned when a saved state cannot be loaded.
var (
	ErrStateVersion     = errors.New("goldfish: unsupported state version")
	ErrGeometryMismatch = errors.New("goldfish: framebuffer dimensions mismatch")
)

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func (c *Controller) geometry() (w, h, stride int) {
	if s := c.surface(); s != nil {
		return s.Width, s.Height, s.Stride
	}
	return 0, 0, 0
}

// Serialize writes controller state to buf. buf must be at least
// SerializeSize bytes. Multi-byte fields are big-endian.
func (c *Controller) Serialize(buf []byte) error {
	if len(buf) < SerializeSize {
		return errors.New("goldfish: serialize buffer too small")
	}
	be := binary.BigEndian
	w, h, stride := c.geometry()

	offset := 0
	buf[offset] = stateVersion
	offset++

	// Surface geometry, checked on load
	be.PutUint32(buf[offset:], uint32(w))
	offset += 4
	be.PutUint32(buf[offset:], uint32(h))
	offset += 4
	be.PutUint32(buf[offset:], uint32(stride))
	offset += 4
	buf[offset] = 0 // surface rotation, not modelled
	offset++

	// Registers
	be.PutUint32(buf[offset:], c.base)
	offset += 4
	buf[offset] = boolByte(c.baseValid)
	offset++
	buf[offset] = boolByte(c.needUpdate)
	offset++
	buf[offset] = boolByte(c.needInt)
	offset++
	buf[offset] = c.requestedRotation
	offset++
	buf[offset] = boolByte(c.blank)
	offset++
	be.PutUint32(buf[offset:], c.irq.Status())
	offset += 4
	be.PutUint32(buf[offset:], c.irq.Mask())
	offset += 4
	be.PutUint32(buf[offset:], c.rotation)
	offset += 4
	be.PutUint32(buf[offset:], uint32(c.dpi))

	return nil
}

// VerifyState checks that buf holds a state this controller can load,
// without changing anything.
func (c *Controller) VerifyState(buf []byte) error {
	if len(buf) < SerializeSize {
		return errors.New("goldfish: deserialize buffer too small")
	}
	if buf[0] != stateVersion {
		return fmt.Errorf("%w: %d", ErrStateVersion, buf[0])
	}
	be := binary.BigEndian
	w, h, stride := c.geometry()
	sw := int(be.Uint32(buf[1:]))
	sh := int(be.Uint32(buf[5:]))
	sstride := int(be.Uint32(buf[9:]))
	srot := buf[13]
	if sw != w || sh != h || sstride != stride || srot != 0 {
		return fmt.Errorf("%w: saved %dx%d stride %d rotation %d, surface %dx%d stride %d",
			ErrGeometryMismatch, sw, sh, sstride, srot, w, h, stride)
	}
	return nil
}

// Deserialize restores controller state from buf. On error the controller
// is left unchanged. A successful load always schedules a full redraw.
func (c *Controller) Deserialize(buf []byte) error {
	if err := c.VerifyState(buf); err != nil {
		return err
	}
	be := binary.BigEndian

	offset := 14
	c.base = be.Uint32(buf[offset:])
	offset += 4
	c.baseValid = buf[offset] != 0
	offset++
	c.needUpdate = buf[offset] != 0
	offset++
	c.needInt = buf[offset] != 0
	offset++
	c.requestedRotation = buf[offset] & 0x3
	offset++
	c.blank = buf[offset] != 0
	offset++
	status := be.Uint32(buf[offset:])
	offset += 4
	mask := be.Uint32(buf[offset:])
	offset += 4
	c.rotation = be.Uint32(buf[offset:])
	offset += 4
	if dpi := int(be.Uint32(buf[offset:])); dpi > 0 {
		c.dpi = dpi
	}

	// The host surface may not hold what the guest last saw.
	c.needUpdate = true
	c.irq.restore(status, mask)
	return nil
}
