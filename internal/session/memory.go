// internal/session/memory.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
)

// MemoryStore is the in-process Store used in tests and single-node
// development. Expiry matches the Redis backend's rolling TTL.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	ctx       models.ConversationContext
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 45 * time.Minute
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*models.ConversationContext, error) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()

	if !ok || s.now().After(entry.expiresAt) {
		return models.NewConversationContext(sessionID), nil
	}
	c := entry.ctx
	return &c, nil
}

func (s *MemoryStore) AfterSearch(ctx context.Context, sessionID, message, query string, top []models.Listing) error {
	return s.apply(ctx, sessionID, afterSearch(message, query, top))
}

func (s *MemoryStore) AfterCategoriesShown(ctx context.Context, sessionID, message string, categories []string) error {
	return s.apply(ctx, sessionID, afterCategoriesShown(message, categories))
}

func (s *MemoryStore) SetExternalPending(ctx context.Context, sessionID, message, query string) error {
	return s.apply(ctx, sessionID, setExternalPending(message, query))
}

func (s *MemoryStore) ClearExpectations(ctx context.Context, sessionID, message string) error {
	return s.apply(ctx, sessionID, clearExpectations(message))
}

func (s *MemoryStore) apply(ctx context.Context, sessionID string, m mutation) error {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	m(c)
	now := s.now()
	stamp(c, now)

	s.mu.Lock()
	s.entries[sessionID] = memoryEntry{ctx: *c, expiresAt: now.Add(s.ttl)}
	s.mu.Unlock()

	return nil
}
