package drafts

import (
	"context"
	"time"

	"github.com/ai-portfolio/backend/internal/cache/redis"
	"github.com/ai-portfolio/backend/internal/storage/models"
)

// RedisStore shares drafts between replicas. Redis handles expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, draft models.ProjectDraft) error {
	if sessionID == "" {
		return ErrNoSession
	}
	return s.client.SetDraft(ctx, sessionID, draft, s.ttl)
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (models.ProjectDraft, bool, error) {
	var draft models.ProjectDraft
	if sessionID == "" {
		return draft, false, nil
	}

	found, err := s.client.GetDraft(ctx, sessionID, &draft)
	if err != nil || !found {
		return models.ProjectDraft{}, false, err
	}
	return draft, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.DeleteDraft(ctx, sessionID)
}
