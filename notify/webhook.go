package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dev-jujucollins/ebay-tracker/models"
)

// Webhook posts alert messages to a Discord/Slack-compatible endpoint. An
// empty URL disables dispatch; the local alert log is written either way.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a Webhook notifier for the given endpoint URL.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether an endpoint is configured.
func (w *Webhook) Enabled() bool {
	return w.url != ""
}

// Send posts the alert payload. A network error or non-2xx response is
// returned to the caller, which logs it and carries on: webhook failure
// never rolls back the observation, the alert record, or the local log.
func (w *Webhook) Send(ctx context.Context, item models.WatchItem, obs *models.PriceObservation, link string) error {
	payload := map[string]string{
		"content": fmt.Sprintf(
			"🔔 **Price Alert!**\n"+
				"**%s** average price is now **$%.2f**\n"+
				"That's $%.2f below your target of $%.2f!\n"+
				"[View on eBay](%s)",
			item.Name, obs.Average, item.TargetPrice-obs.Average, item.TargetPrice, link,
		),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
