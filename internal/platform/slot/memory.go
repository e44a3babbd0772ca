package slot

import "sync"

// MemorySlot is an in-memory DurableSlot for tests and ephemeral sessions.
type MemorySlot struct {
	mu   sync.RWMutex
	data []byte
	set  bool

	// FailReads and FailWrites force ErrSlotUnavailable, for exercising
	// storage-failure paths in tests.
	FailReads  bool
	FailWrites bool
}

// NewMemorySlot returns an empty in-memory slot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

// Read implements DurableSlot.
func (s *MemorySlot) Read() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return nil, ErrSlotUnavailable
	}
	if !s.set {
		return nil, nil
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

// Write implements DurableSlot.
func (s *MemorySlot) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return ErrSlotUnavailable
	}
	s.data = make([]byte, len(data))
	copy(s.data, data)
	s.set = true
	return nil
}

// Clear implements DurableSlot.
func (s *MemorySlot) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return ErrSlotUnavailable
	}
	s.data = nil
	s.set = false
	return nil
}
