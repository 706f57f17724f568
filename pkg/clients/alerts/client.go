package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fuelops/fuelcenter/internal/domain/models"
)

// Client delivers anomaly notifications to an external webhook.
type Client interface {
	Notify(ctx context.Context, alert Alert) error
}

// Alert is the notification payload posted to the webhook.
type Alert struct {
	Source   string           `json:"source"`
	Message  string           `json:"message"`
	Warnings []models.Warning `json:"warnings,omitempty"`
	SentAt   time.Time        `json:"sent_at"`
}

// WebhookClient is a resty-backed implementation of Client.
type WebhookClient struct {
	httpClient *resty.Client
	webhookURL string
}

// NewClient builds a webhook alert client for the given URL.
func NewClient(webhookURL string) *WebhookClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &WebhookClient{
		httpClient: restyClient,
		webhookURL: webhookURL,
	}
}

// Notify posts the alert as JSON. Any non-2xx response is an error.
func (c *WebhookClient) Notify(ctx context.Context, alert Alert) error {
	if alert.SentAt.IsZero() {
		alert.SentAt = time.Now().UTC()
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(alert).
		Post(c.webhookURL)
	if err != nil {
		return fmt.Errorf("post alert webhook: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("alert webhook returned %s: %s", resp.Status(), resp.String())
	}

	return nil
}
