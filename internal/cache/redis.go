package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"airsense/internal/domain"
)

const (
	DefaultTTL = 15 * time.Minute
	latestKey  = "airsense:news:latest"
)

type Config struct {
	URL string
	TTL time.Duration
}

// NewsCache keeps the latest articles list as one JSON value.
type NewsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect accepts a redis:// URL or a bare host:port.
func Connect(ctx context.Context, cfg Config) (*NewsCache, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opt = &redis.Options{Addr: cfg.URL}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return New(client, cfg.TTL), nil
}

func New(client *redis.Client, ttl time.Duration) *NewsCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &NewsCache{client: client, ttl: ttl}
}

func (c *NewsCache) SetLatest(ctx context.Context, articles []domain.Article) error {
	body, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("marshal articles: %w", err)
	}
	if err := c.client.Set(ctx, latestKey, body, c.ttl).Err(); err != nil {
		return fmt.Errorf("set latest news: %w", err)
	}
	return nil
}

// GetLatest reports false when the cache is cold.
func (c *NewsCache) GetLatest(ctx context.Context) ([]domain.Article, bool, error) {
	body, err := c.client.Get(ctx, latestKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get latest news: %w", err)
	}

	var articles []domain.Article
	if err := json.Unmarshal(body, &articles); err != nil {
		return nil, false, fmt.Errorf("decode latest news: %w", err)
	}
	return articles, true, nil
}

func (c *NewsCache) Close() error {
	return c.client.Close()
}
