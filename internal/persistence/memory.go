package persistence

import (
	"context"
	"sync"

	"github.com/hourglass-exchange/hourglass/internal/model"
)

// MemorySink keeps the exited-position archive in process memory. Used
// in tests and as the default when no DATABASE_URL is configured.
type MemorySink struct {
	mu      sync.Mutex
	bySess  map[string][]model.ExitedPosition
}

func NewMemorySink() *MemorySink {
	return &MemorySink{bySess: make(map[string][]model.ExitedPosition)}
}

func (s *MemorySink) Archive(_ context.Context, session string, p model.ExitedPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySess[session] = append(s.bySess[session], p)
	return nil
}

func (s *MemorySink) ListBySession(_ context.Context, session string) ([]model.ExitedPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ExitedPosition, len(s.bySess[session]))
	copy(out, s.bySess[session])
	return out, nil
}
