package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onurcolak/survey-campaign-bot/environments"
	"github.com/onurcolak/survey-campaign-bot/internal/domain"
	"github.com/onurcolak/survey-campaign-bot/pkg/logger"
	"github.com/onurcolak/survey-campaign-bot/pkg/phone"
)

const (
	sendTextPath = "/api/messages/text"
	authHeader   = "x-gateway-auth-key"
	statusPath   = "/api/session/status"
)

// Client talks to the chat transport gateway that holds the paired
// WhatsApp session.
type Client struct {
	httpClient *resty.Client
	baseURL    string
}

func NewGatewayClient(cfg environments.GatewayConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader(authHeader, cfg.AuthKey)

	return &Client{
		httpClient: client,
		baseURL:    cfg.URL,
	}
}

// SendText delivers text to a normalized contact identifier.
func (c *Client) SendText(ctx context.Context, contact, text string) error {
	payload := domain.SendTextRequest{
		To:   phone.JID(contact),
		Text: text,
	}

	var sendResp domain.SendTextResponse

	startTime := time.Now()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&sendResp).
		Post(sendTextPath)

	duration := time.Since(startTime)

	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode(), resp.String())
	}

	logger.Debugf("Message to %s accepted in %v (id: %s)", contact, duration, sendResp.MessageID)

	return nil
}

// SessionStatus reports the gateway's connection state, e.g. "open".
func (c *Client) SessionStatus(ctx context.Context) (string, error) {
	var body struct {
		Status string `json:"status"`
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&body).
		Get(statusPath)
	if err != nil {
		return "", fmt.Errorf("failed to query gateway status: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	return body.Status, nil
}

func (c *Client) GetURL() string {
	return c.baseURL
}
