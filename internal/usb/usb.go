// Package usb abstracts the host USB stack: bus enumeration, opening a device
// with its interfaces claimed, class control transfers and hotplug watching.
package usb

import (
	"errors"
	"log/slog"
)

// ErrNotFound reports that no attached device matched the requested
// vendor/product filter. Callers distinguish it from transport failures with
// errors.Is.
var ErrNotFound = errors.New("usb: device not found")

// DeviceInfo is the descriptor subset the driver matches on.
type DeviceInfo struct {
	Vendor  uint16
	Product uint16
}

// Enumeration is one attached device as seen during a bus scan. Err is set
// when the descriptor could not be read; such entries are skipped during
// matching rather than failing the whole scan.
type Enumeration struct {
	Info DeviceInfo
	Err  error
}

// Handle is an open device with the kernel driver detached and its interfaces
// claimed, ready for control requests. Handles are short-lived: one per
// transmission.
type Handle interface {
	// Control issues a single control transfer and returns the number of
	// bytes transferred.
	Control(requestType, request uint8, value, index uint16, data []byte) (int, error)
	Close() error
}

// Bus enumerates attached devices and opens handles to them.
type Bus interface {
	Enumerate() ([]Enumeration, error)
	// Open opens the first device matching vendor/product. It returns
	// ErrNotFound when nothing matches.
	Open(vendor, product uint16) (Handle, error)
	Close() error
}

// FindDevice returns the first enumerated device matching vendor/product.
// Entries whose descriptors failed to read are logged and skipped; one bad
// device on the bus must not hide the real target among the rest.
func FindDevice(entries []Enumeration, vendor, product uint16) (DeviceInfo, error) {
	for _, e := range entries {
		if e.Err != nil {
			slog.Warn("skipping unreadable USB device", slog.Any("error", e.Err))
			continue
		}
		if e.Info.Vendor == vendor && e.Info.Product == product {
			return e.Info, nil
		}
	}
	return DeviceInfo{}, ErrNotFound
}
