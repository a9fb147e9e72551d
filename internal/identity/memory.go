package identity

import (
	"context"
	"sync"
)

// MemorySlot keeps the value in process memory.
type MemorySlot struct {
	mu    sync.Mutex
	value string
	set   bool
}

func (m *MemorySlot) Load(context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.set, nil
}

func (m *MemorySlot) Save(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.set = value, true
	return nil
}

// MemorySlots keeps one MemorySlot per device.
type MemorySlots struct {
	mu    sync.Mutex
	slots map[string]*MemorySlot
}

func NewMemorySlots() *MemorySlots {
	return &MemorySlots{slots: make(map[string]*MemorySlot)}
}

func (m *MemorySlots) Slot(device string) Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[device]
	if !ok {
		s = &MemorySlot{}
		m.slots[device] = s
	}
	return s
}
