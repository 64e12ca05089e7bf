package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// WebhookSink posts notices to a chat-style text webhook.
type WebhookSink struct {
	url      string
	client   *http.Client
	template *Template
	minLevel map[Level]bool
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookText struct {
	Content string `json:"content"`
}

// WebhookOption configures the webhook sink.
type WebhookOption func(*WebhookSink)

// WithWebhookTemplate overrides the content template.
func WithWebhookTemplate(tpl *Template) WebhookOption {
	return func(s *WebhookSink) {
		if tpl != nil {
			s.template = tpl
		}
	}
}

// WithWebhookLevels restricts delivery to the given levels.
func WithWebhookLevels(levels ...Level) WebhookOption {
	return func(s *WebhookSink) {
		if len(levels) == 0 {
			return
		}
		s.minLevel = make(map[Level]bool, len(levels))
		for _, level := range levels {
			s.minLevel[level] = true
		}
	}
}

// NewWebhookSink constructs a webhook sink.
func NewWebhookSink(url string, opts ...WebhookOption) (*WebhookSink, error) {
	if url == "" {
		return nil, errors.New("webhook sink: empty url")
	}
	tpl, err := NewTemplate("")
	if err != nil {
		return nil, err
	}
	s := &WebhookSink{
		url:      url,
		client:   &http.Client{Timeout: 10 * time.Second},
		template: tpl,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send implements Sink.
func (s *WebhookSink) Send(ctx context.Context, notice Notice) error {
	if s == nil || s.url == "" {
		return errors.New("webhook sink: empty url")
	}
	if s.minLevel != nil && !s.minLevel[notice.Level] {
		return nil
	}
	content, err := s.template.Render(notice)
	if err != nil {
		return err
	}
	body, err := json.Marshal(webhookPayload{
		MsgType: "text",
		Text:    webhookText{Content: content},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook sink: http %d", resp.StatusCode)
	}
	return nil
}
