package usb

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/gousb"
)

// controlTimeout bounds each control transfer.
const controlTimeout = 5 * time.Second

// GousbBus is the libusb-backed Bus. The context is owned by the bus and torn
// down by Close; construct exactly one per process and pass it around.
type GousbBus struct {
	ctx *gousb.Context
}

func NewGousbBus() *GousbBus {
	return &GousbBus{ctx: gousb.NewContext()}
}

func (b *GousbBus) Enumerate() ([]Enumeration, error) {
	var entries []Enumeration
	_, err := b.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		entries = append(entries, Enumeration{Info: DeviceInfo{
			Vendor:  uint16(desc.Vendor),
			Product: uint16(desc.Product),
		}})
		return false
	})
	if err != nil && len(entries) == 0 {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return entries, nil
}

func (b *GousbBus) Open(vendor, product uint16) (Handle, error) {
	devs, err := b.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == vendor && uint16(desc.Product) == product
	})
	if len(devs) == 0 {
		if err != nil {
			return nil, fmt.Errorf("opening device %04x:%04x: %w", vendor, product, err)
		}
		return nil, ErrNotFound
	}
	// One physical device per process run; drop any extra matches.
	for _, d := range devs[1:] {
		d.Close()
	}
	h := &gousbHandle{dev: devs[0]}
	if err := h.claim(); err != nil {
		h.Close()
		return nil, err
	}
	h.dev.ControlTimeout = controlTimeout
	return h, nil
}

func (b *GousbBus) Close() error { return b.ctx.Close() }

type gousbHandle struct {
	dev     *gousb.Device
	configs []*gousb.Config
	ifaces  []*gousb.Interface
}

// claim enables kernel-driver auto-detach and claims every interface of every
// configuration. The OLED answers on interface 1, but claiming them all keeps
// the driver independent of descriptor ordering across firmware revisions.
func (h *gousbHandle) claim() error {
	if err := h.dev.SetAutoDetach(true); err != nil {
		return fmt.Errorf("enabling kernel driver auto-detach: %w", err)
	}
	nums := make([]int, 0, len(h.dev.Desc.Configs))
	for n := range h.dev.Desc.Configs {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	for _, n := range nums {
		cfg, err := h.dev.Config(n)
		if err != nil {
			return fmt.Errorf("selecting configuration %d: %w", n, err)
		}
		h.configs = append(h.configs, cfg)
		for _, ifd := range h.dev.Desc.Configs[n].Interfaces {
			iface, err := cfg.Interface(ifd.Number, 0)
			if err != nil {
				return fmt.Errorf("claiming configuration %d interface %d: %w", n, ifd.Number, err)
			}
			h.ifaces = append(h.ifaces, iface)
		}
	}
	return nil
}

func (h *gousbHandle) Control(requestType, request uint8, value, index uint16, data []byte) (int, error) {
	return h.dev.Control(requestType, request, value, index, data)
}

func (h *gousbHandle) Close() error {
	for _, iface := range h.ifaces {
		iface.Close()
	}
	for _, cfg := range h.configs {
		cfg.Close()
	}
	return h.dev.Close()
}
