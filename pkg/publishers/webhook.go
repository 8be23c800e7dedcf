package publishers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/khobor-lekhok/pkg/httpclient"
)

const snippetLimit = 200

type webhookPublisher struct {
	id     string
	cfg    WebhookConfig
	client httpclient.Client
	log    Logger
}

func newWebhookPublisher(client httpclient.Client, cfg Config, log Logger) (Publisher, error) {
	if cfg.Webhook == nil || cfg.Webhook.URL == "" {
		return nil, fmt.Errorf("publisher %q missing webhook configuration", cfg.ID)
	}
	if client == nil {
		client = httpclient.NewRestyClient(cfg.Webhook.Timeout())
	}
	hook := *cfg.Webhook
	if hook.Method = strings.ToUpper(strings.TrimSpace(hook.Method)); hook.Method == "" {
		hook.Method = "POST"
	}
	return &webhookPublisher{id: cfg.ID, cfg: hook, client: client, log: ensureLogger(log)}, nil
}

func (p *webhookPublisher) ID() string   { return p.id }
func (p *webhookPublisher) Type() string { return TypeWebhook }

// Publish sends evt as a JSON body. Any non-2xx status is an error.
func (p *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout())
	defer cancel()

	headers := map[string]string{
		"Content-Type": "application/json",
		"X-Event-Type": evt.Type,
	}
	for k, v := range p.cfg.Headers {
		headers[k] = v
	}

	resp, err := p.client.Do(ctx, p.cfg.Method, p.cfg.URL, headers, evt)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", p.id, err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return fmt.Errorf("webhook %s: status %d: %s", p.id, code, snippet(resp.Body()))
	}
	p.log.DebugObj("webhook event delivered", "publisher_webhook_delivery", map[string]any{
		"publisher": p.id,
		"event_id":  evt.ID,
		"status":    resp.StatusCode(),
	})
	return nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > snippetLimit {
		s = s[:snippetLimit] + "..."
	}
	return s
}
