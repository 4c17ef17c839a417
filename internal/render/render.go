// Package render paints the host banner onto any mutable image. It knows
// nothing about keyboards or USB; the destination's Set is its whole world,
// and anything outside the destination bounds is silently clipped.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// HostStatus draws name in the top-left corner with a one-pixel underline
// rule across the text width beneath it.
func HostStatus(dst draw.Image, name string) error {
	if name == "" {
		return fmt.Errorf("empty host name")
	}

	face := basicfont.Face7x13
	d := font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(name)

	width := d.Dot.X.Ceil()
	for x := 0; x < width; x++ {
		dst.Set(x, face.Height, color.White)
	}
	return nil
}
