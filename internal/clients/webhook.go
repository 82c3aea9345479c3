package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const webhookTimeout = 10 * time.Second

// webhookPayload is accepted by both Discord and Slack incoming webhooks
type webhookPayload struct {
	Content string `json:"content"`
}

// WebhookClient posts alert text to an operator-supplied URL
type WebhookClient struct {
	httpClient *http.Client
	url        string
}

// NewWebhookClient creates a webhook client for url
func NewWebhookClient(url string) *WebhookClient {
	return &WebhookClient{
		httpClient: &http.Client{Timeout: webhookTimeout},
		url:        url,
	}
}

// Notify posts {"content": content} to the webhook
func (c *WebhookClient) Notify(ctx context.Context, content string) error {
	body, err := json.Marshal(webhookPayload{Content: content})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
