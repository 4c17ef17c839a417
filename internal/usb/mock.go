package usb

import "sync"

// ControlTransfer records one control request issued against a MockBus handle.
type ControlTransfer struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Data        []byte
}

// MockBus is an in-memory Bus for tests. Enumerations are scripted and every
// control transfer issued through an opened handle is recorded.
type MockBus struct {
	OpenErr    error // returned by Open when set
	ControlErr error // returned by Control when set
	ShortWrite bool  // report one byte fewer than requested

	mu        sync.Mutex
	entries   []Enumeration
	transfers []ControlTransfer
}

func NewMockBus(entries ...Enumeration) *MockBus {
	return &MockBus{entries: entries}
}

// SetEntries replaces the scripted enumeration, simulating devices being
// plugged or unplugged.
func (b *MockBus) SetEntries(entries ...Enumeration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = entries
}

func (b *MockBus) Enumerate() ([]Enumeration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Enumeration, len(b.entries))
	copy(out, b.entries)
	return out, nil
}

func (b *MockBus) Open(vendor, product uint16) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	for _, e := range b.entries {
		if e.Err == nil && e.Info.Vendor == vendor && e.Info.Product == product {
			return &mockHandle{bus: b}, nil
		}
	}
	return nil, ErrNotFound
}

func (b *MockBus) Close() error { return nil }

// Transfers returns the control transfers recorded so far.
func (b *MockBus) Transfers() []ControlTransfer {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ControlTransfer, len(b.transfers))
	copy(out, b.transfers)
	return out
}

type mockHandle struct {
	bus *MockBus
}

func (h *mockHandle) Control(requestType, request uint8, value, index uint16, data []byte) (int, error) {
	h.bus.mu.Lock()
	defer h.bus.mu.Unlock()
	if h.bus.ControlErr != nil {
		return 0, h.bus.ControlErr
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	h.bus.transfers = append(h.bus.transfers, ControlTransfer{
		RequestType: requestType,
		Request:     request,
		Value:       value,
		Index:       index,
		Data:        buf,
	})
	if h.bus.ShortWrite && len(data) > 0 {
		return len(data) - 1, nil
	}
	return len(data), nil
}

func (h *mockHandle) Close() error { return nil }
