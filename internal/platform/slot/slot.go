// Package slot persists the shopper's cart to a named durable slot on the
// local device and reports external changes to it.
package slot

import "errors"

// Sentinel errors returned by slot implementations.
var (
	// ErrSlotUnavailable indicates the backing store cannot be reached.
	ErrSlotUnavailable = errors.New("slot: storage unavailable")
)

// DurableSlot stores an opaque serialized payload under a stable name. The
// cart writes its full item list on every mutation and reads it back when a
// new session starts.
type DurableSlot interface {
	// Read returns the stored payload. A slot that has never been written
	// returns (nil, nil): absence is not an error.
	Read() ([]byte, error)

	// Write replaces the stored payload.
	Write(data []byte) error

	// Clear removes the stored payload. Clearing an absent slot is a no-op.
	Clear() error
}
