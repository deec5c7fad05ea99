// Package drafts holds an extracted, not yet saved project per session.
// A draft is created on extraction and cleared on save, discard or expiry.
package drafts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ai-portfolio/backend/internal/metrics"
	"github.com/ai-portfolio/backend/internal/storage/models"
)

var ErrNoSession = errors.New("session id is required")

type Store interface {
	Put(ctx context.Context, sessionID string, draft models.ProjectDraft) error
	Get(ctx context.Context, sessionID string) (models.ProjectDraft, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// NewSessionID returns an id for callers that did not send one.
func NewSessionID() string {
	return uuid.NewString()
}

type entry struct {
	draft     models.ProjectDraft
	expiresAt time.Time
}

// MemoryStore keeps drafts in process. Expired entries are dropped lazily.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, draft models.ProjectDraft) error {
	if sessionID == "" {
		return ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	s.entries[sessionID] = entry{draft: draft, expiresAt: s.now().Add(s.ttl)}
	metrics.ActiveDrafts.Set(float64(len(s.entries)))
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (models.ProjectDraft, bool, error) {
	if sessionID == "" {
		return models.ProjectDraft{}, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sessionID]
	if !ok {
		return models.ProjectDraft{}, false, nil
	}
	if s.expired(e) {
		delete(s.entries, sessionID)
		metrics.ActiveDrafts.Set(float64(len(s.entries)))
		return models.ProjectDraft{}, false, nil
	}
	return e.draft, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, sessionID)
	metrics.ActiveDrafts.Set(float64(len(s.entries)))
	return nil
}

func (s *MemoryStore) expired(e entry) bool {
	return s.ttl > 0 && !s.now().Before(e.expiresAt)
}

// sweep drops expired entries. Callers hold mu.
func (s *MemoryStore) sweep() {
	for id, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, id)
		}
	}
}
