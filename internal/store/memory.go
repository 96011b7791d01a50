package store

import (
	"sync"

	"github.com/i474232898/env-risk-correlator/internal/air"
)

// MemoryReadingStore is a concurrency-safe in-memory air.ReadingStore.
// Rows keep insertion order; a seen-key index enforces (region, time) uniqueness.
type MemoryReadingStore struct {
	mu sync.RWMutex

	rows []air.PollutionReading

	// key: normalized region, value: index of the last row for it
	latest map[string]int

	// key: (region, time) dedup key, value: index of the stored row
	seen map[string]int
}

// NewMemoryReadingStore creates an empty MemoryReadingStore.
func NewMemoryReadingStore() *MemoryReadingStore {
	return &MemoryReadingStore{
		latest: make(map[string]int),
		seen:   make(map[string]int),
	}
}

// AppendIfAbsent stores r unless a row with the same (region, time) exists.
func (s *MemoryReadingStore) AppendIfAbsent(r air.PollutionReading) (bool, error) {
	r.Region = air.NormalizeRegion(r.Region)
	key := r.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[key]; dup {
		return false, nil
	}
	s.seen[key] = len(s.rows)
	s.rows = append(s.rows, r)
	s.latest[r.Region] = len(s.rows) - 1
	return true, nil
}

// load replays a persisted row. A repeated key keeps the first row's values
// but still moves the region's latest pointer, so Latest follows file order.
func (s *MemoryReadingStore) load(r air.PollutionReading) {
	r.Region = air.NormalizeRegion(r.Region)
	key := r.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, dup := s.seen[key]; dup {
		s.latest[r.Region] = i
		return
	}
	s.seen[key] = len(s.rows)
	s.rows = append(s.rows, r)
	s.latest[r.Region] = len(s.rows) - 1
}

func (s *MemoryReadingStore) has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[key]
	return ok
}

// All returns a copy of every stored reading in insertion order.
func (s *MemoryReadingStore) All() ([]air.PollutionReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]air.PollutionReading, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

// Latest returns the last inserted reading for region.
func (s *MemoryReadingStore) Latest(region string) (air.PollutionReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.latest[air.NormalizeRegion(region)]
	if !ok {
		return air.PollutionReading{}, air.ErrNotFound
	}
	return s.rows[i], nil
}
