package usb

import (
	"log/slog"
	"sync"
	"time"
)

// Watcher receives hotplug notifications for devices matching a
// vendor/product filter. Callbacks run synchronously on the monitor
// goroutine and must return quickly without touching the bus: the only thing
// a watcher may do is hand the event off, typically onto a channel drained by
// a worker.
type Watcher interface {
	DeviceArrived()
	DeviceLeft()
}

// Registration keeps a hotplug monitor alive. Closing it is the only way to
// stop callbacks.
type Registration struct {
	once sync.Once
	stop chan struct{}
	done chan struct{}
}

// Close deregisters the watcher and waits for the monitor goroutine to exit.
// Safe to call more than once.
func (r *Registration) Close() {
	r.once.Do(func() { close(r.stop) })
	<-r.done
}

// RegisterHotplug starts a monitor that scans the bus every interval and
// notifies w when a device matching vendor/product arrives or departs. The
// stack in use exposes no libusb hotplug callbacks, so arrivals and
// departures are edges in the matching-device count between scans. The first
// scan establishes a baseline without notifications; an initial paint is the
// caller's job.
func RegisterHotplug(bus Bus, vendor, product uint16, interval time.Duration, w Watcher) *Registration {
	if interval <= 0 {
		interval = time.Second
	}
	r := &Registration{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	// The baseline is established before registration returns so that a
	// device already present never reads as an arrival.
	present, err := matchCount(bus, vendor, product)
	if err != nil {
		slog.Warn("hotplug baseline scan failed", slog.Any("error", err))
	}

	go func() {
		defer close(r.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				n, err := matchCount(bus, vendor, product)
				if err != nil {
					slog.Warn("hotplug scan failed", slog.Any("error", err))
					continue
				}
				switch {
				case n > present:
					slog.Debug("USB device arrived")
					w.DeviceArrived()
				case n < present:
					slog.Debug("USB device left")
					w.DeviceLeft()
				}
				present = n
			}
		}
	}()
	return r
}

func matchCount(bus Bus, vendor, product uint16) (int, error) {
	entries, err := bus.Enumerate()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.Err == nil && e.Info.Vendor == vendor && e.Info.Product == product {
			n++
		}
	}
	return n, nil
}
