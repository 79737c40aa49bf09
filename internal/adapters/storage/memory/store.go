package memory

import (
	"context"
	"path"
	"sync"
	"time"

	"asis-server/internal/domain"
)

// Store keeps as-is documents registered in code and a bounded history of
// served requests. Documents are returned as copies; nothing is derived or
// cached from them.
type Store struct {
	mu sync.RWMutex
	// documents by cleaned request path
	docs map[string][]byte

	// ring of served entries in insertion order
	served    []domain.ServedDocument
	maxServed int
	ttl       time.Duration
	now       func() time.Time
	evictions int
}

func NewStore(maxServed int, ttl time.Duration) *Store {
	return &Store{
		docs:      make(map[string][]byte),
		served:    make([]domain.ServedDocument, 0, maxServed),
		maxServed: maxServed,
		ttl:       ttl,
		now:       time.Now,
	}
}

func cleanPath(p string) string {
	return path.Clean("/" + p)
}

// Put registers raw as the document served at requestPath.
func (s *Store) Put(requestPath string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[cleanPath(requestPath)] = append([]byte(nil), raw...)
}

func (s *Store) Delete(requestPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, cleanPath(requestPath))
}

// DocumentRepository
func (s *Store) Open(ctx context.Context, requestPath string) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.docs[cleanPath(requestPath)]
	if !ok {
		return domain.Document{}, domain.ErrNotFound
	}
	return domain.Document{Path: requestPath, Raw: append([]byte(nil), raw...)}, nil
}

// HistoryRepository
func (s *Store) AppendServed(ctx context.Context, d domain.ServedDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// evict by ttl
	s.evictExpiredLocked()
	// evict by capacity
	if s.maxServed > 0 && len(s.served) >= s.maxServed {
		s.served = s.served[1:]
		s.evictions++
	}
	s.served = append(s.served, d)
	return nil
}

// ListServed returns up to limit entries, newest first. limit <= 0 means all.
func (s *Store) ListServed(ctx context.Context, limit int) ([]domain.ServedDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked()
	n := len(s.served)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.ServedDocument, 0, n)
	for i := len(s.served) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.served[i])
	}
	return out, nil
}

func (s *Store) ClearServed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.served = s.served[:0]
	return nil
}

// Evictions returns how many history entries were dropped so far.
func (s *Store) Evictions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evictions
}

func (s *Store) evictExpiredLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl)
	i := 0
	for i < len(s.served) && s.served[i].StartedAt.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.served = append(s.served[:0], s.served[i:]...)
		s.evictions += i
	}
}
