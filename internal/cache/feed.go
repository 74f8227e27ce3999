// Package cache holds short-lived copies of read-mostly views. The friends
// feed is the only cached view; goal collections are always read from the
// database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/templui/goalboard/internal/model"
)

const (
	feedKeyPrefix  = "goalboard:feed:" // goalboard:feed:{owner_id}
	DefaultFeedTTL = 30 * time.Second
)

// FeedCache stores each owner's friends feed.
type FeedCache interface {
	Get(ctx context.Context, ownerID string) ([]model.PublicGoal, bool, error)
	Set(ctx context.Context, ownerID string, feed []model.PublicGoal) error
	Invalidate(ctx context.Context, ownerIDs ...string) error
}

// Connect opens a Redis client from a redis:// URL and checks it answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

type RedisFeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisFeedCache(client *redis.Client, ttl time.Duration) *RedisFeedCache {
	if ttl <= 0 {
		ttl = DefaultFeedTTL
	}
	return &RedisFeedCache{client: client, ttl: ttl}
}

func (c *RedisFeedCache) Get(ctx context.Context, ownerID string) ([]model.PublicGoal, bool, error) {
	data, err := c.client.Get(ctx, feedKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get feed: %w", err)
	}

	feed := []model.PublicGoal{}
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal feed: %w", err)
	}

	return feed, true, nil
}

func (c *RedisFeedCache) Set(ctx context.Context, ownerID string, feed []model.PublicGoal) error {
	if feed == nil {
		feed = []model.PublicGoal{}
	}

	data, err := json.Marshal(feed)
	if err != nil {
		return fmt.Errorf("failed to marshal feed: %w", err)
	}

	if err := c.client.Set(ctx, feedKey(ownerID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set feed: %w", err)
	}

	return nil
}

func (c *RedisFeedCache) Invalidate(ctx context.Context, ownerIDs ...string) error {
	if len(ownerIDs) == 0 {
		return nil
	}

	keys := make([]string, len(ownerIDs))
	for i, id := range ownerIDs {
		keys[i] = feedKey(id)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate feeds: %w", err)
	}

	return nil
}

func feedKey(ownerID string) string {
	return feedKeyPrefix + ownerID
}

// Nop never stores anything. It is used when Redis is not configured.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]model.PublicGoal, bool, error) {
	return nil, false, nil
}

func (Nop) Set(context.Context, string, []model.PublicGoal) error {
	return nil
}

func (Nop) Invalidate(context.Context, ...string) error {
	return nil
}
