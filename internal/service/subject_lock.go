package service

import (
	"sync"

	"github.com/google/uuid"
)

// subjectLocks serializes rescoring per subject. Two concurrent ingests for
// the same subject racing through the read step would both observe the same
// stale score; the lock makes read→write a critical section. Locks are kept
// for the service lifetime; subject cardinality is bounded by the user table.
type subjectLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newSubjectLocks() *subjectLocks {
	return &subjectLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// acquire locks the subject's mutex and returns it for the caller to unlock.
func (s *subjectLocks) acquire(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m
}
