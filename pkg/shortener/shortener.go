package shortener

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onurcolak/survey-campaign-bot/environments"
	"github.com/onurcolak/survey-campaign-bot/pkg/logger"
)

// Cache stores shortened links. GetShortLink returns "" on a miss.
type Cache interface {
	GetShortLink(ctx context.Context, longURL string) (string, error)
	CacheShortLink(ctx context.Context, longURL, shortURL string, ttl time.Duration) error
}

// TinyURL shortens links through the TinyURL create API. It never fails:
// any error falls back to the long link.
type TinyURL struct {
	httpClient *resty.Client
	endpoint   string
	cache      Cache
	ttl        time.Duration
}

// NewTinyURL builds the shortener. cache may be nil.
func NewTinyURL(cfg environments.ShortenerConfig, cache Cache) *TinyURL {
	return &TinyURL{
		httpClient: resty.New().SetTimeout(cfg.Timeout),
		endpoint:   cfg.Endpoint,
		cache:      cache,
		ttl:        cfg.CacheTTL,
	}
}

func (s *TinyURL) Shorten(ctx context.Context, longURL string) string {
	if longURL == "" {
		return longURL
	}

	if s.cache != nil {
		cached, err := s.cache.GetShortLink(ctx, longURL)
		if err != nil {
			logger.Warnf("Short link cache read failed: %v", err)
		} else if cached != "" {
			return cached
		}
	}

	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetQueryParam("url", longURL).
		Get(s.endpoint)
	if err != nil {
		logger.Warnf("TinyURL request failed, using long link: %v", err)
		return longURL
	}

	if resp.IsError() {
		logger.Warnf("TinyURL returned %d, using long link", resp.StatusCode())
		return longURL
	}

	shortURL := strings.TrimSpace(resp.String())
	if u, err := url.Parse(shortURL); err != nil || u.Scheme == "" || u.Host == "" {
		logger.Warnf("TinyURL returned an invalid link %q, using long link", shortURL)
		return longURL
	}

	if s.cache != nil {
		if err := s.cache.CacheShortLink(ctx, longURL, shortURL, s.ttl); err != nil {
			logger.Warnf("Short link cache write failed: %v", err)
		}
	}

	return shortURL
}
