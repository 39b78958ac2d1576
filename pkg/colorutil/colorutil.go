// Package colorutil provides the land-cover class palette shared by the
// quicklook writer and the signature plot.
package colorutil

import "image/color"

// Transparent is used for NoData cells.
var Transparent = color.RGBA{}

// palette is indexed by class code; index 0 is NoData.
var palette = []color.RGBA{
	Transparent,
	{R: 0x1b, G: 0x5e, B: 0x20, A: 255}, // terrestrial forest
	{R: 0xd4, G: 0xa3, B: 0x73, A: 255}, // mixed vegetation dry
	{R: 0xbd, G: 0xbd, B: 0xbd, A: 255}, // barren
	{R: 0x19, G: 0x76, B: 0xd2, A: 255}, // water
	{R: 0x00, G: 0x69, B: 0x5c, A: 255}, // closed mangrove
	{R: 0x4d, G: 0xb6, B: 0xac, A: 255}, // open mangrove I
	{R: 0x80, G: 0xcb, B: 0xc4, A: 255}, // open mangrove II
	{R: 0x7c, G: 0xb3, B: 0x42, A: 255}, // mixed vegetation healthy
	{R: 0xe5, G: 0x73, B: 0x73, A: 255}, // wet/urban
}

// ClassColor returns the display color for a class code. Unknown codes are
// drawn magenta so they stand out.
func ClassColor(code uint8) color.RGBA {
	if int(code) < len(palette) {
		return palette[code]
	}
	return color.RGBA{R: 255, G: 0, B: 255, A: 255}
}
