package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	mimeJSON          = "application/json"
	headerContentType = "Content-Type"
	headerUserAgent   = "User-Agent"

	// DefaultTimeout bounds one provider call when no timeout is configured.
	DefaultTimeout = 30 * time.Second
	// maxBodyBytes caps how much of a provider response is read.
	maxBodyBytes = 1 << 20
	// maxDetailBytes caps how much of an error body ends up in a FailureRecord.
	maxDetailBytes = 512
)

// Option configures the HTTP side of an adapter.
type Option func(*transport)

// WithHTTPClient overrides the default HTTP client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(t *transport) {
		t.client = hc
	}
}

// WithTimeout replaces the client timeout. A hung provider call fails once it
// elapses. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(t *transport) {
		if d > 0 {
			t.client = &http.Client{Timeout: d}
		}
	}
}

// WithUserAgent sets the User-Agent header. Some edge networks reject Go's default.
func WithUserAgent(ua string) Option {
	return func(t *transport) {
		t.userAgent = ua
	}
}

type transport struct {
	client    *http.Client
	userAgent string
}

func newTransport(opts []Option) transport {
	t := transport{client: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// postJSON marshals payload, POSTs it and returns the response body.
// Every failure comes back as a *ProviderError tagged with provider.
func (t transport) postJSON(ctx context.Context, provider, url string, headers map[string]string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{Provider: provider, Detail: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Provider: provider, Detail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set(headerContentType, mimeJSON)
	if t.userAgent != "" {
		req.Header.Set(headerUserAgent, t.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: provider, Detail: transportDetail(err)}
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &ProviderError{Provider: provider, StatusCode: resp.StatusCode, Detail: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{Provider: provider, StatusCode: resp.StatusCode, Detail: truncate(strings.TrimSpace(string(respBody)))}
	}
	return respBody, nil
}

// transportDetail strips the request URL from *url.Error messages; gateway
// URLs carry account identifiers that do not belong in client-facing errors.
func transportDetail(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return "request failed: " + uerr.Err.Error()
	}
	return "request failed: " + err.Error()
}

func truncate(s string) string {
	if s == "" {
		return "empty response body"
	}
	if len(s) <= maxDetailBytes {
		return s
	}
	cut := maxDetailBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func endpoint(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
