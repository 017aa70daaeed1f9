package ui

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// ErrBadScale is returned for a screenshot scale below 1.
var ErrBadScale = errors.New("screenshot scale must be at least 1")

// ScaleImage returns src enlarged by an integer factor with nearest
// neighbour sampling. A scale of 1 returns a copy.
func ScaleImage(src image.Image, scale int) (*image.RGBA, error) {
	if scale < 1 {
		return nil, ErrBadScale
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst, nil
}

// SaveScreenshot writes src to path as a PNG, scaled by scale.
func SaveScreenshot(path string, src image.Image, scale int) error {
	img, err := ScaleImage(src, scale)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create screenshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode screenshot: %w", err)
	}
	return f.Close()
}

// FramebufferImage wraps a packed RGBA snapshot from SharedFramebuffer as an
// image without copying.
func FramebufferImage(pixels []byte, stride, height int) *image.RGBA {
	if stride <= 0 || height <= 0 || len(pixels) < stride*height {
		return image.NewRGBA(image.Rectangle{})
	}
	return &image.RGBA{
		Pix:    pixels[:stride*height],
		Stride: stride,
		Rect:   image.Rect(0, 0, stride/4, height),
	}
}
