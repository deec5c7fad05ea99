package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/pkg/logger"
)

const (
	answerPrefix = "answer:"
	draftPrefix  = "draft:"
)

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) *Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	return &Client{client: client}
}

// NewFromAddr is used by tests against miniredis.
func NewFromAddr(addr string) *Client {
	return &Client{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Redis client initialized", zap.String("addr", c.client.Options().Addr))
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetAnswer(ctx context.Context, key string, answer interface{}, ttl time.Duration) error {
	if err := c.setJSON(ctx, answerPrefix+key, answer, ttl); err != nil {
		return fmt.Errorf("failed to set answer cache: %w", err)
	}

	logger.Debug("Answer cached", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetAnswer(ctx context.Context, key string, answer interface{}) (bool, error) {
	found, err := c.getJSON(ctx, answerPrefix+key, answer)
	if err != nil {
		return false, fmt.Errorf("failed to get answer cache: %w", err)
	}
	if found {
		logger.Debug("Answer cache hit", zap.String("key", key))
	}
	return found, nil
}

func (c *Client) SetDraft(ctx context.Context, sessionID string, draft interface{}, ttl time.Duration) error {
	if err := c.setJSON(ctx, draftPrefix+sessionID, draft, ttl); err != nil {
		return fmt.Errorf("failed to set draft: %w", err)
	}
	return nil
}

func (c *Client) GetDraft(ctx context.Context, sessionID string, draft interface{}) (bool, error) {
	found, err := c.getJSON(ctx, draftPrefix+sessionID, draft)
	if err != nil {
		return false, fmt.Errorf("failed to get draft: %w", err)
	}
	return found, nil
}

func (c *Client) DeleteDraft(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, draftPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// InvalidateAnswers drops every cached answer, e.g. after a project is deleted.
func (c *Client) InvalidateAnswers(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, answerPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Answer cache invalidated")
	return nil
}

func (c *Client) setJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *Client) getJSON(ctx context.Context, key string, v interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return true, nil
}
