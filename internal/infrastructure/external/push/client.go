package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/podhive/access-engine/internal/application/port"
	"github.com/podhive/access-engine/internal/domain/entity"
)

// Client delivers push messages to a device gateway over HTTP.
// Implements port.PushSender.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new push gateway client
func NewClient(endpoint, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type pushRequest struct {
	To    []string          `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Type  string            `json:"type,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// Send delivers one message to a batch of device addresses
func (c *Client) Send(ctx context.Context, addresses []string, msg entity.PushMessage) error {
	if len(addresses) == 0 {
		return nil
	}
	if c.endpoint == "" {
		c.logger.Debug("Push endpoint not configured, skipping delivery",
			zap.Int("addresses", len(addresses)))
		return nil
	}

	payload, err := json.Marshal(pushRequest{
		To:    addresses,
		Title: msg.Title,
		Body:  msg.Body,
		Type:  msg.Type,
		Data:  msg.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach push gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("Push gateway rejected request",
			zap.Int("status", resp.StatusCode),
			zap.Int("addresses", len(addresses)),
			zap.ByteString("response", body))
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}

	c.logger.Info("Push message delivered",
		zap.Int("addresses", len(addresses)), zap.String("type", msg.Type))
	return nil
}

// Verify interface compliance
var _ port.PushSender = (*Client)(nil)
