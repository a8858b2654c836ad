package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go_lecture_backend/models"
	"go_lecture_backend/pkg/apperrors"
)

// MemoryStore is a process-local Store used in tests and single-node dev
// runs. It honors the same atomicity and TTL contract as the redis store,
// expiring sessions lazily on access.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*models.UploadSession
	expires  map[string]time.Time
	chunks   map[string]map[int]bool
}

// NewMemoryStore builds a store whose sessions expire after ttl. A ttl of
// zero disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]*models.UploadSession),
		expires:  make(map[string]time.Time),
		chunks:   make(map[string]map[int]bool),
	}
}

// evictLocked drops the session if its TTL has lapsed. Caller holds mu.
func (s *MemoryStore) evictLocked(id string) {
	exp, ok := s.expires[id]
	if !ok || exp.IsZero() || time.Now().Before(exp) {
		return
	}
	delete(s.sessions, id)
	delete(s.expires, id)
	delete(s.chunks, id)
}

func (s *MemoryStore) Create(ctx context.Context, session *models.UploadSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(session.ID)
	if _, ok := s.sessions[session.ID]; ok {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	cp := *session
	s.sessions[session.ID] = &cp
	if s.ttl > 0 {
		s.expires[session.ID] = time.Now().Add(s.ttl)
	}
	s.chunks[session.ID] = make(map[int]bool)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.UploadSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(id)
	session, ok := s.sessions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *MemoryStore) AddChunk(ctx context.Context, id string, index int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(id)
	set, ok := s.chunks[id]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	set[index] = true
	if s.ttl > 0 {
		s.expires[id] = time.Now().Add(s.ttl)
	}
	return len(set), nil
}

func (s *MemoryStore) ReceivedIndices(ctx context.Context, id string) (map[int]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(id)
	set, ok := s.chunks[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := make(map[int]bool, len(set))
	for k, v := range set {
		cp[k] = v
	}
	return cp, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(id)
	if _, ok := s.sessions[id]; !ok {
		return false, nil
	}
	delete(s.sessions, id)
	delete(s.expires, id)
	delete(s.chunks, id)
	return true, nil
}
