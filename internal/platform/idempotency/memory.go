package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory. The storefront runs one
// process per shopper session, so this is the production store, not a test
// double. Expired records are purged lazily on Reserve.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Reserve(_ context.Context, requester, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked(now)

	id := recordID(requester, key)
	record, ok := s.records[id]
	if !ok {
		record = Record{
			Requester:   requester,
			Key:         key,
			Fingerprint: fingerprint,
			ReservedAt:  now,
			ExpiresAt:   now.Add(ttl),
		}
		s.records[id] = record
		return Reservation{State: ReservationStateNew, Record: record}, nil
	}

	if record.Fingerprint != fingerprint {
		return Reservation{}, ErrFingerprintMismatch
	}
	if record.Completed {
		return Reservation{State: ReservationStateCompleted, Record: record}, nil
	}
	return Reservation{State: ReservationStatePending, Record: record}, nil
}

func (s *MemoryStore) SaveResponse(_ context.Context, requester, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := recordID(requester, key)
	record, ok := s.records[id]
	if ok && record.Fingerprint != fingerprint {
		return ErrFingerprintMismatch
	}
	if !ok {
		record = Record{Requester: requester, Key: key, Fingerprint: fingerprint, ReservedAt: now}
	}

	record.Completed = true
	record.Response = Response{
		Status:  resp.Status,
		Headers: replayableHeaders(resp.Headers),
	}
	if len(resp.Body) > 0 {
		record.Response.Body = append([]byte(nil), resp.Body...)
	}
	record.ExpiresAt = now.Add(ttl)
	s.records[id] = record
	return nil
}

// Release drops the reservation so the shopper can retry after a failure.
func (s *MemoryStore) Release(_ context.Context, requester, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, recordID(requester, key))
	return nil
}

func (s *MemoryStore) purgeExpiredLocked(now time.Time) {
	for id, record := range s.records {
		if !record.ExpiresAt.IsZero() && !now.Before(record.ExpiresAt) {
			delete(s.records, id)
		}
	}
}
