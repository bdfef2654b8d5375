package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout    = 5 * time.Second
	defaultMaxRetries = 2
	defaultSource     = "auth_service"
	maxErrorBody      = 1 << 10
)

// HTTPConfig configures HTTPProvider.
type HTTPConfig struct {
	URL        string
	Token      string
	Source     string
	Timeout    time.Duration
	MaxRetries uint64
	// Backoff is the first retry delay; it doubles on each retry.
	Backoff time.Duration
}

// HTTPProvider sends messages through a JSON bulk-send endpoint.
type HTTPProvider struct {
	url        string
	token      string
	source     string
	maxRetries uint64
	backoff    time.Duration
	client     *http.Client
}

// NewHTTPProvider returns a provider posting to cfg.URL.
func NewHTTPProvider(cfg HTTPConfig) (*HTTPProvider, error) {
	if cfg.URL == "" || cfg.Token == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Source == "" {
		cfg.Source = defaultSource
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}

	return &HTTPProvider{
		url:        cfg.URL,
		token:      cfg.Token,
		source:     cfg.Source,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		client:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type sendRequest struct {
	Messages []sendMessage `json:"messages"`
	Validate bool          `json:"validate"`
}

type sendMessage struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
	Source    string `json:"source"`
}

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sms: provider returned status=%d body=%s", e.StatusCode, e.Body)
}

// Send posts msg, retrying transport errors and 5xx answers with exponential
// backoff. The code itself never appears in returned errors.
func (p *HTTPProvider) Send(ctx context.Context, msg Message) (*Result, error) {
	payload, err := json.Marshal(sendRequest{
		Messages: []sendMessage{{Recipient: msg.Recipient, Text: msg.Text(), Source: p.source}},
		Validate: true,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{}
	backoff := retry.WithMaxRetries(p.maxRetries, retry.NewExponential(p.backoff))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		res.Attempts++

		status, body, err := p.post(ctx, payload)
		if err != nil {
			return retry.RetryableError(err)
		}
		res.StatusCode = status

		if status >= http.StatusInternalServerError {
			return retry.RetryableError(&StatusError{StatusCode: status, Body: truncate(body)})
		}
		if status < 200 || status >= 300 {
			return &StatusError{StatusCode: status, Body: truncate(body)}
		}

		res.Response = map[string]any{}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &res.Response); err != nil {
				res.Response = map[string]any{"raw": truncate(body)}
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	return res, nil
}

func (p *HTTPProvider) post(ctx context.Context, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Token", p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("sms: post: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("sms: read body: %w", err)
	}

	return resp.StatusCode, body, nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}
