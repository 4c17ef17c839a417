// Package screen holds the in-memory monochrome frame buffer for a keyboard
// OLED. The buffer implements draw.Image so that text and shape rendering can
// be done by ordinary image collaborators; the bit packing matches the wire
// format the firmware expects.
package screen

import (
	"fmt"
	"image"
	"image/color"
)

// FrameBuffer is a width*height monochrome bitmap. Bit i corresponds to pixel
// (i mod width, i div width) and bits are packed most-significant-bit first
// into bytes. A fresh buffer is dirty: it has never been transmitted.
type FrameBuffer struct {
	width  int
	height int
	bits   []byte
	dirty  bool
}

// New returns a blank frame buffer. Dimensions must be positive.
func New(width, height int) *FrameBuffer {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("screen: invalid dimensions %dx%d", width, height))
	}
	return &FrameBuffer{
		width:  width,
		height: height,
		bits:   make([]byte, (width*height+7)/8),
		dirty:  true,
	}
}

func (f *FrameBuffer) Width() int  { return f.width }
func (f *FrameBuffer) Height() int { return f.height }

// SetPixel sets or clears one pixel. Out-of-range coordinates are a complete
// no-op: drawing collaborators routinely produce clipped points and must not
// abort rendering. Any in-range write marks the buffer dirty, even when the
// pixel already held that value.
func (f *FrameBuffer) SetPixel(x, y int, on bool) {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return
	}
	i := x + y*f.width
	if on {
		f.bits[i>>3] |= 1 << (7 - uint(i)&7)
	} else {
		f.bits[i>>3] &^= 1 << (7 - uint(i)&7)
	}
	f.dirty = true
}

// Pixel reports whether the pixel at (x, y) is set. Out-of-range coordinates
// read as unset.
func (f *FrameBuffer) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return false
	}
	i := x + y*f.width
	return f.bits[i>>3]&(1<<(7-uint(i)&7)) != 0
}

// Dirty reports whether the buffer changed since it was last transmitted.
func (f *FrameBuffer) Dirty() bool { return f.dirty }

// MarkClean records a successful transmission. Only the flush path should
// call this, and only after the device acknowledged the full payload.
func (f *FrameBuffer) MarkClean() { f.dirty = false }

// Packed returns a copy of the packed bitmap. When width*height is not a
// multiple of eight the trailing pad bits occupy the low-order positions of
// the final byte and are always zero.
func (f *FrameBuffer) Packed() []byte {
	out := make([]byte, len(f.bits))
	copy(out, f.bits)
	return out
}

// ColorModel implements image.Image.
func (f *FrameBuffer) ColorModel() color.Model { return color.GrayModel }

// Bounds implements image.Image.
func (f *FrameBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

// At implements image.Image. Set pixels read as white, clear pixels as black.
func (f *FrameBuffer) At(x, y int) color.Color {
	if f.Pixel(x, y) {
		return color.Gray{Y: 0xFF}
	}
	return color.Gray{Y: 0x00}
}

// Set implements draw.Image. Colors at or above half luminance turn the pixel
// on, everything else turns it off.
func (f *FrameBuffer) Set(x, y int, c color.Color) {
	f.SetPixel(x, y, color.Gray16Model.Convert(c).(color.Gray16).Y >= 0x8000)
}
