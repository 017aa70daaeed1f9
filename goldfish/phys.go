package goldfish

// pixelsToMM converts a pixel count to millimetres at the given density,
// rounding half up. dpi is always positive; New rejects anything else.
func pixelsToMM(pixels, dpi int) int {
	// mm = dots * 25.4 / dpi
	return int(0.5 + 25.4*float64(pixels)/float64(dpi))
}
