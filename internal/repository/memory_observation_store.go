package repository

import (
	"context"
	"sync"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
)

// MemoryObservationStore keeps imbalance history in a bounded ring.
// Backs the csv backend, where calibration history does not survive a
// restart (the Redis threshold cache covers warm starts).
type MemoryObservationStore struct {
	mu       sync.Mutex
	capacity int
	buf      []models.ImbalanceObservation
}

// NewMemoryObservationStore creates a store retaining the most recent
// capacity observations.
func NewMemoryObservationStore(capacity int) *MemoryObservationStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryObservationStore{capacity: capacity}
}

func (s *MemoryObservationStore) Append(_ context.Context, obs models.ImbalanceObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, obs)
	if len(s.buf) > s.capacity {
		s.buf = s.buf[len(s.buf)-s.capacity:]
	}
	return nil
}

// History returns the newest limit observations, oldest first.
func (s *MemoryObservationStore) History(_ context.Context, instrument string, limit int) ([]models.ImbalanceObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ImbalanceObservation, 0, limit)
	for _, obs := range s.buf {
		if instrument != "" && obs.Instrument != instrument {
			continue
		}
		out = append(out, obs)
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
