package apex

import (
	"errors"
	"fmt"

	"github.com/steelhost/apexscreen/internal/screen"
	"github.com/steelhost/apexscreen/internal/usb"
)

const (
	// bmRequestType: host-to-device, class, recipient interface.
	requestTypeClassInterfaceOut = 0x21
	// bRequest: HID SetReport, reused by the firmware for OLED commands.
	requestSetReport = 0x09

	// ImageTag is the payload byte marking an OLED image frame.
	ImageTag byte = 0x65
)

// Command identifies one control-request kind understood by the firmware.
// Only CmdImage is exercised by the screen-update path; CmdColors and
// CmdConfig are declared with the wValue/wIndex pairs the firmware uses but
// their payload semantics are unconfirmed and no send path exists for them.
type Command uint8

const (
	CmdImage Command = iota
	CmdColors
	CmdConfig
)

func (c Command) String() string {
	switch c {
	case CmdImage:
		return "image"
	case CmdColors:
		return "colors"
	case CmdConfig:
		return "config"
	}
	return fmt.Sprintf("command(%d)", uint8(c))
}

// Value returns the control transfer's wValue field for this command.
func (c Command) Value() uint16 {
	if c == CmdConfig {
		return 0x0200
	}
	return 0x0300
}

// Index returns the control transfer's wIndex field. Only CmdConfig uses the
// slot argument, selecting a settings slot.
func (c Command) Index(slot uint16) uint16 {
	if c == CmdConfig {
		return slot
	}
	return 0x0001
}

// TransportError wraps a failed USB operation with the step that failed.
// It is distinguishable from usb.ErrNotFound: a transport error means a
// device was there and the conversation with it broke.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// EncodeImage frames the buffer for one control transfer: the image tag byte
// followed by the packed bitmap, 1+ceil(width*height/8) bytes in total.
func EncodeImage(fb *screen.FrameBuffer) []byte {
	packed := fb.Packed()
	out := make([]byte, 1+len(packed))
	out[0] = ImageTag
	copy(out[1:], packed)
	return out
}

// send performs exactly one control-transfer write: open the device by
// filter, claim (done inside Bus.Open), transfer, verify the full payload was
// written. The handle is released before returning; nothing stays open
// between transmissions.
func send(bus usb.Bus, info KeyboardInfo, cmd Command, slot uint16, payload []byte) error {
	h, err := bus.Open(info.VendorID, info.ProductID)
	if err != nil {
		if errors.Is(err, usb.ErrNotFound) {
			return err
		}
		return &TransportError{Op: "opening device", Err: err}
	}
	defer h.Close()

	n, err := h.Control(requestTypeClassInterfaceOut, requestSetReport, cmd.Value(), cmd.Index(slot), payload)
	if err != nil {
		return &TransportError{Op: fmt.Sprintf("sending %s request", cmd), Err: err}
	}
	if n != len(payload) {
		return &TransportError{
			Op:  fmt.Sprintf("sending %s request", cmd),
			Err: fmt.Errorf("short write: %d of %d bytes", n, len(payload)),
		}
	}
	return nil
}
