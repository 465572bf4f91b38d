package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/onurcolak/survey-campaign-bot/environments"
	"github.com/onurcolak/survey-campaign-bot/pkg/logger"
)

type Client struct {
	client valkey.Client
}

const shortLinkKeyPrefix = "short_link:"

func NewRedisClient(cfg environments.RedisConfig) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Infof("Connected to Redis (via Valkey client)")

	return &Client{client: client}, nil
}

// ShortLinkKey derives the cache key for a long URL.
func ShortLinkKey(longURL string) string {
	sum := sha256.Sum256([]byte(longURL))
	return shortLinkKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *Client) CacheShortLink(ctx context.Context, longURL, shortURL string, ttl time.Duration) error {
	key := ShortLinkKey(longURL)

	err := c.client.Do(ctx, c.client.B().Set().Key(key).Value(shortURL).Ex(ttl).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to cache short link: %w", err)
	}

	logger.Debugf("Cached short link %s -> %s", longURL, shortURL)

	return nil
}

// GetShortLink returns ("", nil) on a cache miss.
func (c *Client) GetShortLink(ctx context.Context, longURL string) (string, error) {
	result := c.client.Do(ctx, c.client.B().Get().Key(ShortLinkKey(longURL)).Build())
	if result.Error() != nil {
		if valkey.IsValkeyNil(result.Error()) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get short link: %w", result.Error())
	}

	shortURL, err := result.ToString()
	if err != nil {
		return "", fmt.Errorf("failed to read short link: %w", err)
	}

	return shortURL, nil
}

func (c *Client) Close() error {
	c.client.Close()
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}
