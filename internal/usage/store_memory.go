package usage

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu   sync.RWMutex
	recs []Record
}

// NewMemoryStore constructs an in-memory usage store for dev and tests.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Add(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.recs = append(s.recs, rec)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) ListByChat(ctx context.Context, chatID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.recs {
		if r.ChatID == chatID {
			out = append(out, r)
		}
	}
	return out, nil
}
