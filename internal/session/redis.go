// internal/session/redis.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	stderrors "github.com/AlphaGL/Finda-backend-sub000/internal/common/errors"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/logger"
	"github.com/AlphaGL/Finda-backend-sub000/internal/common/metrics"
	"github.com/AlphaGL/Finda-backend-sub000/internal/models"
)

const sessionKeyPrefix = "session:ctx:"

// RedisStore keeps conversation contexts in Redis under a rolling TTL.
// Every write refreshes the TTL, so a session expires only after the
// configured idle period.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = 45 * time.Minute
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "session-store"}),
		now:    time.Now,
	}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*models.ConversationContext, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		metrics.CacheOps.WithLabelValues("session", "miss").Inc()
		return models.NewConversationContext(sessionID), nil
	}
	if err != nil {
		metrics.CacheOps.WithLabelValues("session", "error").Inc()
		return nil, stderrors.NewSessionStoreError("get", err)
	}

	var c models.ConversationContext
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		// Corrupt state is unrecoverable for this session; start fresh
		// rather than failing every subsequent turn.
		s.logger.Warn("discarding corrupt session context", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return models.NewConversationContext(sessionID), nil
	}

	metrics.CacheOps.WithLabelValues("session", "hit").Inc()
	return &c, nil
}

func (s *RedisStore) AfterSearch(ctx context.Context, sessionID, message, query string, top []models.Listing) error {
	return s.apply(ctx, sessionID, afterSearch(message, query, top))
}

func (s *RedisStore) AfterCategoriesShown(ctx context.Context, sessionID, message string, categories []string) error {
	return s.apply(ctx, sessionID, afterCategoriesShown(message, categories))
}

func (s *RedisStore) SetExternalPending(ctx context.Context, sessionID, message, query string) error {
	return s.apply(ctx, sessionID, setExternalPending(message, query))
}

func (s *RedisStore) ClearExpectations(ctx context.Context, sessionID, message string) error {
	return s.apply(ctx, sessionID, clearExpectations(message))
}

func (s *RedisStore) apply(ctx context.Context, sessionID string, m mutation) error {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	m(c)
	stamp(c, s.now())

	raw, err := json.Marshal(c)
	if err != nil {
		return stderrors.NewSessionStoreError("marshal", err)
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+sessionID, raw, s.ttl).Err(); err != nil {
		metrics.CacheOps.WithLabelValues("session", "error").Inc()
		return stderrors.NewSessionStoreError("set", err)
	}

	return nil
}
