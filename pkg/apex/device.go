package apex

import (
	"fmt"

	"github.com/steelhost/apexscreen/internal/screen"
	"github.com/steelhost/apexscreen/internal/usb"
)

// Device is one matched keyboard together with the frame buffer describing
// what its OLED should show. The embedded frame buffer makes the device a
// draw.Image, so text and shape collaborators paint straight onto it.
//
// The underlying USB device is not held open: each flush re-resolves the
// keyboard by vendor/product filter and opens it just for that transmission.
type Device struct {
	*screen.FrameBuffer
	bus  usb.Bus
	info KeyboardInfo
}

// Open confirms a matching keyboard is currently attached and returns a
// device with a blank frame buffer. A fresh buffer counts as dirty, so the
// first flush always transmits.
func Open(bus usb.Bus, info KeyboardInfo) (*Device, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	entries, err := bus.Enumerate()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	if _, err := usb.FindDevice(entries, info.VendorID, info.ProductID); err != nil {
		return nil, fmt.Errorf("locating keyboard %04x:%04x: %w", info.VendorID, info.ProductID, err)
	}
	return &Device{
		FrameBuffer: screen.New(info.Width, info.Height),
		bus:         bus,
		info:        info,
	}, nil
}

// Info returns the keyboard model this device targets.
func (d *Device) Info() KeyboardInfo { return d.info }

// Flush transmits the frame buffer if it changed since the last successful
// transmission and is a no-op otherwise. The dirty flag is cleared only when
// the device acknowledged the full payload.
func (d *Device) Flush() error {
	if !d.FrameBuffer.Dirty() {
		return nil
	}
	if err := send(d.bus, d.info, CmdImage, 0, EncodeImage(d.FrameBuffer)); err != nil {
		return err
	}
	d.FrameBuffer.MarkClean()
	return nil
}
