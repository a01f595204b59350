package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/NasaVasa/coinalert/internal/domain"
)

// WebhookSender posts intents as JSON to an email or SMS gateway.
type WebhookSender struct {
	name string
	url  string
	http *http.Client
}

func NewWebhookSender(name, url string, client *http.Client) *WebhookSender {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &WebhookSender{name: name, url: url, http: client}
}

func (s *WebhookSender) Name() string {
	return s.name
}

func (s *WebhookSender) Send(ctx context.Context, intent domain.NotificationIntent) error {
	body, err := json.Marshal(intent)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
