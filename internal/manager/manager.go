// Package manager owns the redraw worker for one keyboard. Hotplug
// notifications and refresh requests are reduced to tagged messages on a
// channel; all device opens, drawing and control transfers happen on the
// worker, never on the notification path. At most one redraw is in flight at
// any time, so nothing here needs locking beyond the channel itself.
package manager

import (
	"context"
	"fmt"
	"image/draw"
	"log/slog"
	"os"
	"strings"

	"github.com/steelhost/apexscreen/internal/render"
	"github.com/steelhost/apexscreen/internal/usb"
	"github.com/steelhost/apexscreen/pkg/apex"
)

// Message is a tagged notification for the worker. It carries no device
// reference: the worker re-resolves the keyboard by filter, because
// references delivered with hotplug events are only valid inside the
// originating callback.
type Message uint8

const (
	DeviceArrived Message = iota
	DeviceLeft
	RefreshScreen
)

func (m Message) String() string {
	switch m {
	case DeviceArrived:
		return "device-arrived"
	case DeviceLeft:
		return "device-left"
	case RefreshScreen:
		return "refresh-screen"
	}
	return fmt.Sprintf("message(%d)", uint8(m))
}

// queueSize bounds the pending-message queue. Sends never block the
// notification path; a full queue drops the message, which only happens
// during an event storm where the redraws already queued ahead cover it.
const queueSize = 64

// Manager turns messages into redraws of one keyboard's OLED. It implements
// usb.Watcher, so it can be registered directly as the hotplug callback
// object; the callback methods do nothing but enqueue.
type Manager struct {
	// Render paints the frame buffer during a redraw. Defaults to the
	// hostname banner.
	Render func(dst draw.Image) error

	bus  usb.Bus
	info apex.KeyboardInfo
	msgs chan Message
	done chan struct{}
}

func New(bus usb.Bus, info apex.KeyboardInfo) *Manager {
	return &Manager{
		bus:  bus,
		info: info,
		msgs: make(chan Message, queueSize),
		done: make(chan struct{}),
	}
}

// Run is the worker loop. It blocks, receiving one message at a time in send
// order, until ctx is cancelled; cancellation is the manager's only terminal
// state, and no redraw failure ends the loop.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			slog.Info("manager stopping", slog.Any("reason", ctx.Err()))
			return
		case msg := <-m.msgs:
			m.handle(msg)
		}
	}
}

func (m *Manager) handle(msg Message) {
	slog.Debug("manager message received", slog.String("message", msg.String()))
	var err error
	switch msg {
	case DeviceArrived, RefreshScreen:
		err = m.redraw()
	case DeviceLeft:
		// Nothing to draw to; informational only.
	}
	if err != nil {
		slog.Error("error handling message",
			slog.String("message", msg.String()),
			slog.Any("error", err))
	}
}

// redraw re-resolves the keyboard by filter, paints the frame buffer and
// flushes it to the device.
func (m *Manager) redraw() error {
	dev, err := apex.Open(m.bus, m.info)
	if err != nil {
		return fmt.Errorf("opening keyboard: %w", err)
	}

	paint := m.Render
	if paint == nil {
		paint = hostBanner
	}
	if err := paint(dev); err != nil {
		return fmt.Errorf("painting frame buffer: %w", err)
	}

	if err := dev.Flush(); err != nil {
		return fmt.Errorf("flushing screen: %w", err)
	}
	return nil
}

func hostBanner(dst draw.Image) error {
	host, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("reading hostname: %w", err)
	}
	return render.HostStatus(dst, strings.ToUpper(host))
}

// Refresh requests an unconditional repaint, independent of hotplug
// activity. Used for the initial paint and external refresh triggers.
func (m *Manager) Refresh() { m.send(RefreshScreen) }

// DeviceArrived implements usb.Watcher.
func (m *Manager) DeviceArrived() { m.send(DeviceArrived) }

// DeviceLeft implements usb.Watcher.
func (m *Manager) DeviceLeft() { m.send(DeviceLeft) }

// send enqueues without ever blocking the caller. A send that cannot
// complete is logged, never a panic: watchers must stay callable until they
// are deregistered.
func (m *Manager) send(msg Message) {
	select {
	case <-m.done:
		slog.Error("message dropped, manager stopped", slog.String("message", msg.String()))
	case m.msgs <- msg:
	default:
		slog.Error("message dropped, queue full", slog.String("message", msg.String()))
	}
}
