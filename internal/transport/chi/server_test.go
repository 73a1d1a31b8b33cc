package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/postgen/internal/domain"
	generationuc "github.com/kailas-cloud/postgen/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/postgen/internal/usecase/health"
	"github.com/kailas-cloud/postgen/internal/usecase/quota"
	usageuc "github.com/kailas-cloud/postgen/internal/usecase/usage"
)

// --- Stubs ---

type stubGenerator struct {
	mu        sync.Mutex
	text      string
	err       error
	healthErr error
	calls     int
}

func (g *stubGenerator) Generate(_ context.Context, _ string, _ domain.Tone) (domain.Generation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return domain.Generation{}, g.err
	}
	return domain.Generation{Text: g.text, Model: "llama-3.1-8b-instant", TotalTokens: 180}, nil
}

func (g *stubGenerator) HealthCheck(_ context.Context) error { return g.healthErr }

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// --- Helpers ---

func newTestRouter(gen *stubGenerator, apiKeys ...string) http.Handler {
	ledger := quota.NewLedger(24 * time.Hour)
	gate := quota.NewGate(ledger, quota.GateConfig{FreeLimit: 3, BypassPassword: "pro2025"}, zap.NewNop())
	tracker := usageuc.NewTracker("postgen:", zap.NewNop())
	genSvc := generationuc.New(gate, gen, tracker, zap.NewNop()).
		WithUpgradeURL("https://gumroad.com/l/linkedinai")
	usageSvc := usageuc.New(tracker, genSvc, ledger)
	healthSvc := healthuc.New(nil, gen)

	r := chi.NewRouter()
	NewServer(genSvc, usageSvc, healthSvc).Register(r, apiKeys)
	return r
}

func postForm(h http.Handler, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func postJSON(h http.Handler, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func idea(text string) url.Values {
	return url.Values{"idea": {text}, "tone": {"professional"}}
}

// --- Form tests ---

func TestIndex_FreshClient(t *testing.T) {
	h := newTestRouter(&stubGenerator{text: "post"})

	rr := get(h, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "3 of 3 free posts left today") {
		t.Errorf("expected remaining count in page:\n%s", body)
	}
	if strings.Contains(body, `name="password"`) {
		t.Error("password field must be hidden while free posts remain")
	}
	if !strings.Contains(body, `<option value="witty">Witty</option>`) {
		t.Error("expected tone options")
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestSubmitForm_QuotaFlow(t *testing.T) {
	gen := &stubGenerator{text: "Shipping beats polishing. 🚀"}
	h := newTestRouter(gen)

	for _, want := range []string{"3 of 3", "2 of 3", "1 of 3"} {
		rr := postForm(h, idea("I launched a SaaS"))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		body := rr.Body.String()
		if !strings.Contains(body, want+" free posts left today") {
			t.Errorf("expected %q in page", want)
		}
		if !strings.Contains(body, "Shipping beats polishing. 🚀") {
			t.Error("expected generated post in page")
		}
	}

	rr := postForm(h, idea("I launched a SaaS"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for exhausted quota page, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Upgrade to Pro: https://gumroad.com/l/linkedinai") {
		t.Errorf("expected upsell message:\n%s", body)
	}
	if !strings.Contains(body, `name="password"`) {
		t.Error("password field must be shown when no free posts remain")
	}
	if gen.callCount() != 3 {
		t.Errorf("denied request reached the generator: %d calls", gen.callCount())
	}

	values := idea("I launched a SaaS")
	values.Set("password", "pro2025")
	rr = postForm(h, values)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with bypass password, got %d", rr.Code)
	}
	if gen.callCount() != 4 {
		t.Errorf("expected 4 generator calls, got %d", gen.callCount())
	}

	if !strings.Contains(get(h, "/").Body.String(), "0 of 3 free posts left today") {
		t.Error("bypass must not restore free posts")
	}
}

func TestSubmitForm_EmptyIdea(t *testing.T) {
	gen := &stubGenerator{text: "post"}
	h := newTestRouter(gen)

	rr := postForm(h, idea("   "))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Please enter an idea.") {
		t.Error("expected empty idea message")
	}
	if gen.callCount() != 0 {
		t.Error("generator must not be called for blank ideas")
	}
	if !strings.Contains(rr.Body.String(), "3 of 3 free posts left today") {
		t.Error("blank idea must not consume quota")
	}
}

func TestSubmitForm_UpstreamError(t *testing.T) {
	gen := &stubGenerator{err: &domain.UpstreamError{StatusCode: 500, Message: "upstream exploded"}}
	h := newTestRouter(gen)

	rr := postForm(h, idea("idea"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Error 500: upstream exploded") {
		t.Errorf("expected upstream error text:\n%s", rr.Body.String())
	}

	if !strings.Contains(get(h, "/").Body.String(), "2 of 3 free posts left today") {
		t.Error("allowed attempt must consume quota even when the provider fails")
	}
}

func TestSubmitForm_EscapesInput(t *testing.T) {
	h := newTestRouter(&stubGenerator{text: "<b>bold</b>"})

	rr := postForm(h, idea("<script>alert(1)</script>"))
	body := rr.Body.String()
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("idea must be HTML-escaped")
	}
	if strings.Contains(body, "<b>bold</b>") {
		t.Error("generated post must be HTML-escaped")
	}
}

func TestSubmitForm_KeepsSelectedTone(t *testing.T) {
	h := newTestRouter(&stubGenerator{text: "post"})

	rr := postForm(h, url.Values{"idea": {"x"}, "tone": {"bold"}})
	if !strings.Contains(rr.Body.String(), `<option value="bold" selected>Bold</option>`) {
		t.Error("expected submitted tone to stay selected")
	}
}

// --- JSON API tests ---

func TestCreatePost(t *testing.T) {
	h := newTestRouter(&stubGenerator{text: "post text"})

	rr := postJSON(h, "/api/v1/posts", `{"idea":"I launched a SaaS","tone":"witty"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp PostResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == "" || resp.Post != "post text" || resp.Tone != "witty" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Remaining != 3 || resp.Reason != "free" {
		t.Errorf("unexpected quota fields %+v", resp)
	}
}

func TestCreatePost_QuotaExceeded(t *testing.T) {
	h := newTestRouter(&stubGenerator{text: "post"})
	for range 3 {
		postJSON(h, "/api/v1/posts", `{"idea":"x"}`)
	}

	rr := postJSON(h, "/api/v1/posts", `{"idea":"x"}`)
	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rr.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != ErrorCodeQuotaExceeded {
		t.Errorf("expected quota_exceeded, got %s", resp.Code)
	}
	if resp.Remaining == nil || *resp.Remaining != 0 {
		t.Errorf("expected remaining 0, got %v", resp.Remaining)
	}
}

func TestCreatePost_Errors(t *testing.T) {
	tests := []struct {
		name       string
		gen        *stubGenerator
		body       string
		wantStatus int
		wantCode   ErrorCode
		retryable  bool
	}{
		{"invalid json", &stubGenerator{}, `{`, http.StatusBadRequest, ErrorCodeBadRequest, false},
		{"invalid tone", &stubGenerator{}, `{"idea":"x","tone":"sarcastic"}`, http.StatusBadRequest, ErrorCodeValidationFailed, false},
		{
			"rate limited",
			&stubGenerator{err: &domain.UpstreamError{StatusCode: 429, Message: "slow down", Cause: domain.ErrRateLimited}},
			`{"idea":"x"}`, http.StatusTooManyRequests, ErrorCodeRateLimited, true,
		},
		{
			"timeout",
			&stubGenerator{err: &domain.UpstreamError{Message: "context deadline exceeded", Cause: domain.ErrGenerationTimeout}},
			`{"idea":"x"}`, http.StatusGatewayTimeout, ErrorCodeProviderTimeout, true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := postJSON(newTestRouter(tc.gen), "/api/v1/posts", tc.body)
			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rr.Code)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tc.wantCode || resp.Retryable != tc.retryable {
				t.Errorf("unexpected error response %+v", resp)
			}
		})
	}
}

func TestAPI_RequiresKeyWhenConfigured(t *testing.T) {
	h := newTestRouter(&stubGenerator{text: "post"}, "secret")

	if rr := postJSON(h, "/api/v1/posts", `{"idea":"x"}`); rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", rr.Code)
	}
	if rr := postJSON(h, "/api/v1/posts", `{"idea":"x"}`, "Authorization", "Bearer secret"); rr.Code != http.StatusCreated {
		t.Errorf("expected 201 with key, got %d", rr.Code)
	}
	if rr := get(h, "/"); rr.Code != http.StatusOK {
		t.Errorf("form must stay public, got %d", rr.Code)
	}
	if rr := get(h, "/health"); rr.Code != http.StatusOK {
		t.Errorf("health must stay public, got %d", rr.Code)
	}
}

func TestGetUsage(t *testing.T) {
	h := newTestRouter(&stubGenerator{text: "post"})
	postForm(h, idea("x"))

	rr := get(h, "/api/v1/usage")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp UsageResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Period != "day" || resp.Generations != 1 || resp.Tokens != 180 {
		t.Errorf("unexpected usage %+v", resp)
	}
	if resp.ActiveClients != 1 {
		t.Errorf("expected 1 active client, got %d", resp.ActiveClients)
	}
	if resp.Quota.Remaining != 2 || resp.Quota.FreeLimit != 3 || resp.Quota.Exhausted {
		t.Errorf("unexpected quota %+v", resp.Quota)
	}
}

func TestGetUsage_InvalidPeriod(t *testing.T) {
	h := newTestRouter(&stubGenerator{})
	if rr := get(h, "/api/v1/usage?period=year"); rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

// --- Health & metrics ---

func TestHealthCheck(t *testing.T) {
	rr := get(newTestRouter(&stubGenerator{}), "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Checks["generation"] != "ok" {
		t.Errorf("unexpected health %+v", resp)
	}
}

func TestHealthCheck_ProviderDown(t *testing.T) {
	rr := get(newTestRouter(&stubGenerator{healthErr: &domain.UpstreamError{StatusCode: 401, Message: "Invalid API Key"}}), "/health")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	rr := get(newTestRouter(&stubGenerator{}), "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
