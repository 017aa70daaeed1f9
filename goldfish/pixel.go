package goldfish

import (
	"encoding/binary"
	"fmt"
)

// guestBytesPerPixel is the size of one guest RGB565 pixel.
const guestBytesPerPixel = 2

// PixelConverter turns one row of guest RGB565 pixels into one row of host
// pixels in a fixed surface format.
type PixelConverter interface {
	// ConvertRow converts width pixels from src into dst.
	ConvertRow(dst, src []byte, width int)
	// BytesPerPixel is the host pixel size written per pixel.
	BytesPerPixel() int
}

// DepthError reports a surface depth no converter exists for.
type DepthError struct {
	BitsPerPixel int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("goldfish: unsupported surface depth %d", e.BitsPerPixel)
}

// ConverterFor returns the converter for a host surface depth. Host pixels
// are stored little-endian; 24 and 32 bit surfaces are R, G, B(, A) bytes.
func ConverterFor(bpp int, guest binary.ByteOrder) (PixelConverter, error) {
	src := rgb565Source{order: guest}
	switch bpp {
	case 8:
		return rgb332{src}, nil
	case 15:
		return xrgb1555{src}, nil
	case 16:
		return rgb565{src}, nil
	case 24:
		return rgb888{src}, nil
	case 32:
		return rgba8888{src}, nil
	default:
		return nil, &DepthError{BitsPerPixel: bpp}
	}
}

type rgb565Source struct {
	order binary.ByteOrder
}

// rgb expands the pixel at src[0:2] to 8 bits per channel.
func (s rgb565Source) rgb(src []byte) (r, g, b uint8) {
	p := s.order.Uint16(src)
	r = uint8(p>>8)&0xf8 | uint8(p>>13)&0x07
	g = uint8(p>>3)&0xfc | uint8(p>>9)&0x03
	b = uint8(p<<3)&0xf8 | uint8(p>>2)&0x07
	return
}

type rgb332 struct{ rgb565Source }

func (rgb332) BytesPerPixel() int { return 1 }

func (c rgb332) ConvertRow(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		r, g, b := c.rgb(src[x*guestBytesPerPixel:])
		dst[x] = r>>5<<5 | g>>5<<2 | b>>6
	}
}

type xrgb1555 struct{ rgb565Source }

func (xrgb1555) BytesPerPixel() int { return 2 }

func (c xrgb1555) ConvertRow(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		r, g, b := c.rgb(src[x*guestBytesPerPixel:])
		v := uint16(r>>3)<<10 | uint16(g>>3)<<5 | uint16(b>>3)
		binary.LittleEndian.PutUint16(dst[x*2:], v)
	}
}

type rgb565 struct{ rgb565Source }

func (rgb565) BytesPerPixel() int { return 2 }

// ConvertRow only has to fix up byte order; the channel layout already matches.
func (c rgb565) ConvertRow(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		binary.LittleEndian.PutUint16(dst[x*2:], c.order.Uint16(src[x*guestBytesPerPixel:]))
	}
}

type rgb888 struct{ rgb565Source }

func (rgb888) BytesPerPixel() int { return 3 }

func (c rgb888) ConvertRow(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		r, g, b := c.rgb(src[x*guestBytesPerPixel:])
		d := dst[x*3 : x*3+3]
		d[0], d[1], d[2] = r, g, b
	}
}

type rgba8888 struct{ rgb565Source }

func (rgba8888) BytesPerPixel() int { return 4 }

func (c rgba8888) ConvertRow(dst, src []byte, width int) {
	for x := 0; x < width; x++ {
		r, g, b := c.rgb(src[x*guestBytesPerPixel:])
		d := dst[x*4 : x*4+4]
		d[0], d[1], d[2], d[3] = r, g, b, 0xff
	}
}
