package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/projectaghoy/aghoy/internal/infra/llm"
	"github.com/projectaghoy/aghoy/internal/infra/ratelimit"
)

const analyzeBody = `{"messages":[{"role":"user","content":"is this a scam?"}],"jsonMode":true}`

func providers() []llm.ProviderConfig {
	return []llm.ProviderConfig{
		{Name: "primary", Kind: llm.KindOpenAI, BaseURL: "http://primary", Model: "m1", Credential: "k1", Priority: 1},
		{Name: "backup", Kind: llm.KindOpenAI, BaseURL: "http://backup", Model: "m2", Credential: "k2", Priority: 2},
	}
}

// newTestRouter wires the real limiter and failover router over a scripted adapter.
func newTestRouter(t *testing.T, invoke llm.AdapterFunc) http.Handler {
	t.Helper()
	logger, _ := test.NewNullLogger()
	ps := providers()
	return NewRouter(Deps{
		Broker:          llm.NewRouter(ps, map[llm.Kind]llm.Adapter{llm.KindOpenAI: invoke}),
		Providers:       ps,
		Limiter:         ratelimit.New(ratelimit.NewMemoryStore()),
		Logger:          logger,
		TrustedIPHeader: "CF-Connecting-IP",
		FingerprintKey:  "test",
	})
}

func okAdapter(_ context.Context, _ llm.CompletionRequest, cfg llm.ProviderConfig) (*llm.CompletionResult, error) {
	return &llm.CompletionResult{Text: `{"verdict":"SAFE"}`, Provider: cfg.Name}, nil
}

func serve(h http.Handler, method, path, body, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if ip != "" {
		req.Header.Set("CF-Connecting-IP", ip)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return body["error"]
}

func TestNewRouter_HealthEndpoint(t *testing.T) {
	t.Parallel()

	rr := serve(newTestRouter(t, okAdapter), http.MethodGet, "/health", "", "")
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "ok") {
		t.Errorf("expected body to contain 'ok', got %q", rr.Body.String())
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS headers on /health")
	}
}

func TestNewRouter_AnalyzeSuccess(t *testing.T) {
	t.Parallel()

	rr := serve(newTestRouter(t, okAdapter), http.MethodPost, "/api/analyze", analyzeBody, "198.51.100.1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var got llm.CompletionResult
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Provider != "primary" {
		t.Errorf("expected primary provider, got %q", got.Provider)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID on response")
	}
}

func TestNewRouter_PreflightAlwaysSucceeds(t *testing.T) {
	t.Parallel()

	logger, _ := test.NewNullLogger()
	h := NewRouter(Deps{
		Broker:  llm.Misconfigured(&llm.ConfigurationError{Reason: "CF_ACCOUNT_ID and CF_GATEWAY_ID must be set together"}),
		Limiter: ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.WithLimit(1)),
		Logger:  logger,
	})

	for i := 0; i < 3; i++ {
		rr := serve(h, http.MethodOptions, "/api/analyze", "", "198.51.100.1")
		if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
			t.Fatalf("preflight #%d: got %d %q", i+1, rr.Code, rr.Body.String())
		}
		if rr.Header().Get("Access-Control-Allow-Methods") == "" {
			t.Fatalf("preflight #%d: missing CORS headers", i+1)
		}
	}
}

func TestNewRouter_MethodNotAllowedBeforeLimiter(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, okAdapter)
	for i := 0; i < 10; i++ {
		rr := serve(h, http.MethodGet, "/api/analyze", "", "198.51.100.2")
		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("GET #%d: expected 405, got %d", i+1, rr.Code)
		}
		if msg := errorOf(t, rr); msg != "Method Not Allowed" {
			t.Fatalf("GET #%d: error = %q", i+1, msg)
		}
	}

	// GETs were not counted against the quota.
	if rr := serve(h, http.MethodPost, "/api/analyze", analyzeBody, "198.51.100.2"); rr.Code != http.StatusOK {
		t.Errorf("expected first POST admitted, got %d", rr.Code)
	}
}

func TestNewRouter_SixthRequestRateLimited(t *testing.T) {
	t.Parallel()

	var calls int
	h := newTestRouter(t, func(ctx context.Context, req llm.CompletionRequest, cfg llm.ProviderConfig) (*llm.CompletionResult, error) {
		calls++
		return okAdapter(ctx, req, cfg)
	})

	for i := 1; i <= 5; i++ {
		if rr := serve(h, http.MethodPost, "/api/analyze", analyzeBody, "203.0.113.7"); rr.Code != http.StatusOK {
			t.Fatalf("request #%d: expected 200, got %d", i, rr.Code)
		}
	}
	rr := serve(h, http.MethodPost, "/api/analyze", analyzeBody, "203.0.113.7")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("request #6: expected 429, got %d", rr.Code)
	}
	if msg := errorOf(t, rr); msg != "Too Many Requests. Please wait a minute before scanning again." {
		t.Errorf("unexpected 429 message %q", msg)
	}
	if calls != 5 {
		t.Errorf("expected 5 provider calls, got %d", calls)
	}

	// Another identity has its own window.
	if rr := serve(h, http.MethodPost, "/api/analyze", analyzeBody, "203.0.113.8"); rr.Code != http.StatusOK {
		t.Errorf("other identity: expected 200, got %d", rr.Code)
	}
}

func TestNewRouter_SpoofedForwardingHeadersShareThePeerQuota(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, okAdapter)

	limited := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(analyzeBody))
		req.RemoteAddr = "203.0.113.5:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.0.1.%d", i))
		req.Header.Set("True-Client-IP", fmt.Sprintf("10.0.2.%d", i))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 15 {
		t.Errorf("rate-limited responses = %d of 20; want 15", limited)
	}
}

func TestNewRouter_BadBody(t *testing.T) {
	t.Parallel()

	rr := serve(newTestRouter(t, okAdapter), http.MethodPost, "/api/analyze", `{"messages":"nope"}`, "198.51.100.3")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestNewRouter_AllProvidersFailed(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, func(_ context.Context, _ llm.CompletionRequest, cfg llm.ProviderConfig) (*llm.CompletionResult, error) {
		if cfg.Name == "primary" {
			return nil, &llm.ProviderError{Provider: cfg.Name, Detail: "boom1"}
		}
		return nil, &llm.ProviderError{Provider: cfg.Name, Detail: "boom2"}
	})

	rr := serve(h, http.MethodPost, "/api/analyze", analyzeBody, "198.51.100.4")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if msg := errorOf(t, rr); msg != "All providers failed. primary: boom1 | backup: boom2" {
		t.Errorf("unexpected error %q", msg)
	}
}

func TestNewRouter_FallbackToBackup(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, func(ctx context.Context, req llm.CompletionRequest, cfg llm.ProviderConfig) (*llm.CompletionResult, error) {
		if cfg.Name == "primary" {
			return nil, errors.New("connection refused")
		}
		return okAdapter(ctx, req, cfg)
	})

	rr := serve(h, http.MethodPost, "/api/analyze", analyzeBody, "198.51.100.5")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"provider":"backup"`) {
		t.Fatalf("expected backup success, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestNewRouter_NoCredentialsIsDistinct500(t *testing.T) {
	t.Parallel()

	logger, _ := test.NewNullLogger()
	ps := providers()
	for i := range ps {
		ps[i].Credential = ""
	}
	var calls int
	h := NewRouter(Deps{
		Broker: llm.NewRouter(ps, map[llm.Kind]llm.Adapter{llm.KindOpenAI: llm.AdapterFunc(
			func(_ context.Context, _ llm.CompletionRequest, _ llm.ProviderConfig) (*llm.CompletionResult, error) {
				calls++
				return nil, errors.New("unreachable")
			})}),
		Providers: ps,
		Limiter:   ratelimit.New(ratelimit.NewMemoryStore()),
		Logger:    logger,
	})

	rr := serve(h, http.MethodPost, "/api/analyze", analyzeBody, "198.51.100.6")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if msg := errorOf(t, rr); !strings.HasPrefix(msg, "service misconfigured") {
		t.Errorf("expected misconfiguration message, got %q", msg)
	}
	if calls != 0 {
		t.Errorf("expected no adapter calls, got %d", calls)
	}
}

func TestNewRouter_ScanAndDojoShareLimiter(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, func(_ context.Context, req llm.CompletionRequest, cfg llm.ProviderConfig) (*llm.CompletionResult, error) {
		if req.JSONMode {
			return &llm.CompletionResult{Text: `{"verdict":"SUSPICIOUS","riskScore":6}`, Provider: cfg.Name}, nil
		}
		return &llm.CompletionResult{Text: "Hello, you won!", Provider: cfg.Name}, nil
	})

	ip := "192.0.2.50"
	for i := 0; i < 3; i++ {
		if rr := serve(h, http.MethodPost, "/api/scan", `{"text":"You won a raffle, send fee"}`, ip); rr.Code != http.StatusOK {
			t.Fatalf("scan #%d: expected 200, got %d %s", i+1, rr.Code, rr.Body.String())
		}
	}
	for i := 0; i < 2; i++ {
		if rr := serve(h, http.MethodPost, "/api/dojo", `{"message":"who is this?"}`, ip); rr.Code != http.StatusOK {
			t.Fatalf("dojo #%d: expected 200, got %d %s", i+1, rr.Code, rr.Body.String())
		}
	}
	if rr := serve(h, http.MethodPost, "/api/scan", `{"text":"You won a raffle, send fee"}`, ip); rr.Code != http.StatusTooManyRequests {
		t.Errorf("expected shared quota exhausted, got %d", rr.Code)
	}
}

func TestNewRouter_ProvidersListing(t *testing.T) {
	t.Parallel()

	rr := serve(newTestRouter(t, okAdapter), http.MethodGet, "/api/providers", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "k1") {
		t.Error("credential leaked")
	}
	if !strings.Contains(rr.Body.String(), `"name":"primary"`) {
		t.Errorf("unexpected body %s", rr.Body.String())
	}
}

func TestNewRouter_UnknownRoute(t *testing.T) {
	t.Parallel()

	rr := serve(newTestRouter(t, okAdapter), http.MethodGet, "/nope", "", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}
