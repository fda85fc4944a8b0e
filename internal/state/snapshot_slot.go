package state

import (
	"sync"

	"easysave/internal/model"
)

// snapshotSlot holds the latest snapshot; replacement is wholesale so
// readers never observe a half-updated view.
type snapshotSlot struct {
	mu     sync.RWMutex
	value  model.BalanceSnapshot
	filled bool
}

func (s *snapshotSlot) store(snap model.BalanceSnapshot) {
	s.mu.Lock()
	s.value = snap
	s.filled = true
	s.mu.Unlock()
}

func (s *snapshotSlot) load() (model.BalanceSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.filled
}
