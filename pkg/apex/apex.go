// Package apex drives the monochrome OLED built into SteelSeries Apex
// keyboards. The firmware accepts screen updates as class-specific control
// transfers on the HID interface; see transport.go for the wire format.
package apex

import (
	"fmt"
	"sort"

	"github.com/steelhost/apexscreen/internal/usb"
)

// SteelSeriesVID is the vendor ID shared by the whole Apex line.
const SteelSeriesVID uint16 = 0x1038

// KeyboardInfo identifies one keyboard model: its USB identity and the pixel
// dimensions of its OLED. Values are immutable once constructed.
type KeyboardInfo struct {
	VendorID  uint16
	ProductID uint16
	Width     int
	Height    int
}

// Validate checks the dimension invariant.
func (k KeyboardInfo) Validate() error {
	if k.Width <= 0 || k.Height <= 0 {
		return fmt.Errorf("invalid screen dimensions %dx%d", k.Width, k.Height)
	}
	return nil
}

// Matches reports whether an enumerated device descriptor is this keyboard.
func (k KeyboardInfo) Matches(info usb.DeviceInfo) bool {
	return info.Vendor == k.VendorID && info.Product == k.ProductID
}

// ScreenArea is the screen size in pixels.
func (k KeyboardInfo) ScreenArea() int { return k.Width * k.Height }

func (k KeyboardInfo) String() string {
	return fmt.Sprintf("%04x:%04x %dx%d", k.VendorID, k.ProductID, k.Width, k.Height)
}

// The OLED is 128x40 across the Apex line; only the product IDs differ.
var models = map[string]KeyboardInfo{
	"apex7":    {VendorID: SteelSeriesVID, ProductID: 0x1614, Width: 128, Height: 40},
	"apex7tkl": {VendorID: SteelSeriesVID, ProductID: 0x1618, Width: 128, Height: 40},
	"apexpro":  {VendorID: SteelSeriesVID, ProductID: 0x1610, Width: 128, Height: 40},
}

// Lookup resolves a built-in keyboard model by name.
func Lookup(name string) (KeyboardInfo, bool) {
	info, ok := models[name]
	return info, ok
}

// Models returns the known model names, sorted.
func Models() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
