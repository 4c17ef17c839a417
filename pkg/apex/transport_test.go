package apex

import (
	"errors"
	"testing"

	"github.com/steelhost/apexscreen/internal/screen"
	"github.com/steelhost/apexscreen/internal/usb"
)

var apex7 = KeyboardInfo{VendorID: 0x1038, ProductID: 0x1614, Width: 128, Height: 40}

func apex7Bus() *usb.MockBus {
	return usb.NewMockBus(usb.Enumeration{Info: usb.DeviceInfo{Vendor: 0x1038, Product: 0x1614}})
}

func TestCommandWireParameters(t *testing.T) {
	tests := []struct {
		cmd   Command
		slot  uint16
		value uint16
		index uint16
	}{
		{CmdImage, 0, 0x0300, 0x0001},
		{CmdColors, 0, 0x0300, 0x0001},
		{CmdConfig, 0x0007, 0x0200, 0x0007},
	}
	for _, tt := range tests {
		t.Run(tt.cmd.String(), func(t *testing.T) {
			if got := tt.cmd.Value(); got != tt.value {
				t.Fatalf("Value() = %#04x, want %#04x", got, tt.value)
			}
			if got := tt.cmd.Index(tt.slot); got != tt.index {
				t.Fatalf("Index() = %#04x, want %#04x", got, tt.index)
			}
		})
	}
}

func TestEncodeImage(t *testing.T) {
	fb := screen.New(128, 40)
	payload := EncodeImage(fb)

	if len(payload) != 641 {
		t.Fatalf("payload length = %d, want 641", len(payload))
	}
	if payload[0] != ImageTag {
		t.Fatalf("payload[0] = %#02x, want %#02x", payload[0], ImageTag)
	}
}

func TestEncodeImageRoundTrip(t *testing.T) {
	// 10x3 = 30 bits: the packed bitmap is not byte-aligned, so the round
	// trip exercises the pad bits.
	fb := screen.New(10, 3)
	on := [][2]int{{0, 0}, {9, 0}, {4, 1}, {0, 2}, {9, 2}}
	for _, p := range on {
		fb.SetPixel(p[0], p[1], true)
	}

	payload := EncodeImage(fb)
	if payload[0] != ImageTag {
		t.Fatalf("command byte = %#02x, want %#02x", payload[0], ImageTag)
	}
	bits := payload[1:]
	if len(bits) != 4 {
		t.Fatalf("bitmap length = %d, want 4", len(bits))
	}

	for y := 0; y < 3; y++ {
		for x := 0; x < 10; x++ {
			i := x + y*10
			got := bits[i>>3]&(1<<(7-uint(i)&7)) != 0
			if got != fb.Pixel(x, y) {
				t.Fatalf("pixel (%d,%d): wire %v, buffer %v", x, y, got, fb.Pixel(x, y))
			}
		}
	}
}

func TestFlushIdempotent(t *testing.T) {
	bus := apex7Bus()
	dev, err := Open(bus, apex7)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	dev.SetPixel(0, 0, true)
	if err := dev.Flush(); err != nil {
		t.Fatalf("first flush: %v", err)
	}
	if err := dev.Flush(); err != nil {
		t.Fatalf("second flush: %v", err)
	}

	transfers := bus.Transfers()
	if len(transfers) != 1 {
		t.Fatalf("got %d transfers, want exactly 1 (second flush must be a no-op)", len(transfers))
	}

	tr := transfers[0]
	if tr.RequestType != 0x21 || tr.Request != 0x09 {
		t.Fatalf("request type/code = %#02x/%#02x, want 0x21/0x09", tr.RequestType, tr.Request)
	}
	if tr.Value != 0x0300 || tr.Index != 0x0001 {
		t.Fatalf("wValue/wIndex = %#04x/%#04x, want 0x0300/0x0001", tr.Value, tr.Index)
	}
	if len(tr.Data) != 641 {
		t.Fatalf("payload length = %d, want 641", len(tr.Data))
	}
}

func TestFlushAgainAfterWrite(t *testing.T) {
	bus := apex7Bus()
	dev, err := Open(bus, apex7)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := dev.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	dev.SetPixel(5, 5, true)
	if err := dev.Flush(); err != nil {
		t.Fatalf("flush after write: %v", err)
	}

	if got := len(bus.Transfers()); got != 2 {
		t.Fatalf("got %d transfers, want 2", got)
	}
}

func TestFlushShortWrite(t *testing.T) {
	bus := apex7Bus()
	bus.ShortWrite = true

	dev, err := Open(bus, apex7)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	err = dev.Flush()
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if errors.Is(err, usb.ErrNotFound) {
		t.Fatalf("a short write must not read as device-not-found")
	}

	// The screen was not updated, so the buffer stays dirty and the next
	// flush retries.
	bus.ShortWrite = false
	if err := dev.Flush(); err != nil {
		t.Fatalf("retry flush: %v", err)
	}
}

func TestFlushTransferError(t *testing.T) {
	bus := apex7Bus()
	bus.ControlErr = errors.New("pipe stalled")

	dev, err := Open(bus, apex7)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	err = dev.Flush()
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if !dev.Dirty() {
		t.Fatalf("failed flush must leave the buffer dirty")
	}
}

func TestOpenNotFound(t *testing.T) {
	bus := usb.NewMockBus(usb.Enumeration{Info: usb.DeviceInfo{Vendor: 0x046D, Product: 0xC52B}})

	_, err := Open(bus, apex7)
	if !errors.Is(err, usb.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestOpenSkipsUnreadableDevice(t *testing.T) {
	bus := usb.NewMockBus(
		usb.Enumeration{Err: errors.New("descriptor read failed")},
		usb.Enumeration{Info: usb.DeviceInfo{Vendor: 0x1038, Product: 0x1614}},
	)

	if _, err := Open(bus, apex7); err != nil {
		t.Fatalf("Open should skip the unreadable device: %v", err)
	}
}

func TestOpenInvalidDimensions(t *testing.T) {
	bus := apex7Bus()
	_, err := Open(bus, KeyboardInfo{VendorID: 0x1038, ProductID: 0x1614})
	if err == nil {
		t.Fatalf("expected dimension validation error")
	}
}
