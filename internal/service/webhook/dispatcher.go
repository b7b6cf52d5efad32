package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gauntlet/internal/domain"
	"gauntlet/internal/domain/services"
)

const (
	// DefaultTimeout applies when Options.Timeout is zero
	DefaultTimeout = 60 * time.Second

	// maxResponseBytes bounds how much of a webhook reply is read
	maxResponseBytes = 4 << 20

	// maxErrorBodyBytes bounds how much of a failed reply is kept for logs
	maxErrorBodyBytes = 512
)

// Options configures a Dispatcher
type Options struct {
	// ResponseFields is the ordered list of JSON fields checked for the answer
	ResponseFields []string
	Timeout        time.Duration
	UserAgent      string
	// Client overrides the HTTP client (tests)
	Client *http.Client
}

// Dispatcher implements services.WebhookDispatcher over net/http.
// One POST per call, no retries.
type Dispatcher struct {
	httpClient *http.Client
	extractor  *Extractor
	html       *htmlRenderer
	userAgent  string
	logger     *slog.Logger
}

// NewDispatcher creates a webhook dispatcher
func NewDispatcher(opts Options, logger *slog.Logger) *Dispatcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Dispatcher{
		httpClient: client,
		extractor:  NewExtractor(opts.ResponseFields),
		html:       newHTMLRenderer(),
		userAgent:  opts.UserAgent,
		logger:     logger,
	}
}

// Send posts payload and reduces the response body to a Reply.
// HTML bodies are sanitized and converted to markdown.
func (d *Dispatcher) Send(ctx context.Context, url string, payload any) (*services.Reply, error) {
	body, contentType, err := d.post(ctx, url, payload)
	if err != nil {
		return nil, err
	}

	if isHTML(contentType) {
		text, err := d.html.Render(string(body))
		if err == nil {
			d.logger.Debug("webhook replied with html", "url", url, "bytes", len(body))
			return &services.Reply{Text: text}, nil
		}
		d.logger.Warn("html reply kept as raw text", "url", url, "error", err)
	}

	reply := d.extractor.Extract(body)
	if reply.Ambiguous() {
		d.logger.Warn("webhook response has several answer fields",
			"url", url,
			"candidates", reply.Candidates,
			"used", reply.Field,
		)
	}

	d.logger.Debug("webhook replied",
		"url", url,
		"field", reply.Field,
		"bytes", len(body),
	)

	return reply, nil
}

// Notify posts payload and ignores the response body
func (d *Dispatcher) Notify(ctx context.Context, url string, payload any) error {
	_, _, err := d.post(ctx, url, payload)
	return err
}

// post performs the request and returns the body and its Content-Type
func (d *Dispatcher) post(ctx context.Context, url string, payload any) ([]byte, string, error) {
	if url == "" {
		return nil, "", domain.ErrWebhookNotConfigured
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, "", fmt.Errorf("%w: build request: %v", domain.ErrWebhookFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.Error("webhook request failed", "url", url, "error", err)
		return nil, "", fmt.Errorf("%w: %v", domain.ErrWebhookFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read response: %v", domain.ErrWebhookFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := body
		if len(snippet) > maxErrorBodyBytes {
			snippet = snippet[:maxErrorBodyBytes]
		}
		d.logger.Error("webhook returned non-success status",
			"url", url,
			"status", resp.StatusCode,
			"body", string(snippet),
		)
		return nil, "", &domain.WebhookStatusError{
			URL:    url,
			Status: resp.StatusCode,
			Body:   string(snippet),
		}
	}

	return body, resp.Header.Get("Content-Type"), nil
}
