package poller

import (
	"sync"

	"github.com/genricoloni/synthia/internal/domain"
)

// Store holds the most recent status record
type Store struct {
	mu sync.RWMutex
	st domain.Status
}

// NewStore creates a store holding the default status
func NewStore() *Store {
	return &Store{st: domain.DefaultStatus()}
}

// Current returns a copy of the stored status
func (s *Store) Current() domain.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st
}

// Set replaces the stored status and returns the previous one
func (s *Store) Set(st domain.Status) domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.st
	s.st = st
	return prev
}
