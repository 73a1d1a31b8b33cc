package chi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/postgen/internal/domain"
	domusage "github.com/kailas-cloud/postgen/internal/domain/usage"
	logpkg "github.com/kailas-cloud/postgen/internal/logger"
	"github.com/kailas-cloud/postgen/internal/metrics"
	generationuc "github.com/kailas-cloud/postgen/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/postgen/internal/usecase/health"
	usageuc "github.com/kailas-cloud/postgen/internal/usecase/usage"
)

const (
	apiPrefix = "/api/v1"
	// maxFormBytes caps form and JSON bodies.
	maxFormBytes = 64 << 10
)

// Server serves the post generator form and its JSON API.
type Server struct {
	generation *generationuc.Service
	usage      *usageuc.Service
	health     *healthuc.Service
}

// NewServer creates an HTTP server.
func NewServer(
	generation *generationuc.Service,
	usage *usageuc.Service,
	health *healthuc.Service,
) *Server {
	return &Server{generation: generation, usage: usage, health: health}
}

// Register mounts all routes. apiKeys guard the JSON API when non-empty.
func (s *Server) Register(r chi.Router, apiKeys []string) {
	r.Get("/", s.Index)
	r.Post("/", s.SubmitForm)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", metrics.Handler())

	r.Route(apiPrefix, func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiKeys))
		r.Post("/posts", s.CreatePost)
		r.Get("/usage", s.GetUsage)
	})
}

// Index handles GET /. Touches the caller's ledger entry and renders the form.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	clientID := ClientID(r)
	remaining := s.generation.Remaining(r.Context(), clientID)

	data := newPageData("", remaining, s.generation.FreeLimit(), s.generation.Unlimited(), s.generation.UpgradeURL())
	s.render(w, r, data)
}

// SubmitForm handles POST /.
func (s *Server) SubmitForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	clientID := ClientID(r)
	req := generationuc.Request{
		ClientID: clientID,
		Idea:     r.PostFormValue("idea"),
		Tone:     r.PostFormValue("tone"),
		Password: r.PostFormValue("password"),
	}

	res, err := s.generation.Generate(r.Context(), req)

	data := newPageData(req.Tone, res.Verdict.Remaining, s.generation.FreeLimit(),
		s.generation.Unlimited(), s.generation.UpgradeURL())
	data.Idea = req.Idea

	// Failures show inline on the page.
	if err != nil {
		data.Error = userMessage(err)
		s.logError(r, clientID, err)
	}
	if res.Post != nil {
		data.Post = res.Post.Text
	}

	s.render(w, r, data)
}

// CreatePostRequest is the JSON body of POST /api/v1/posts.
type CreatePostRequest struct {
	Idea     string `json:"idea"`
	Tone     string `json:"tone,omitempty"`
	Password string `json:"password,omitempty"`
}

// PostResponse is a generated post.
type PostResponse struct {
	ID        string    `json:"id"`
	Post      string    `json:"post"`
	Tone      string    `json:"tone"`
	Model     string    `json:"model,omitempty"`
	Remaining int       `json:"remaining"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePost handles POST /api/v1/posts with the same quota rules as the form.
func (s *Server) CreatePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	var body CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	clientID := ClientID(r)
	res, err := s.generation.Generate(r.Context(), generationuc.Request{
		ClientID: clientID,
		Idea:     body.Idea,
		Tone:     body.Tone,
		Password: body.Password,
	})
	if err != nil {
		s.logError(r, clientID, err)
		status, code := classify(err)
		remaining := res.Verdict.Remaining
		writeJSON(w, status, ErrorResponse{
			Code:      code,
			Message:   userMessage(err),
			Retryable: domain.IsRetryable(err),
			Remaining: &remaining,
		})
		return
	}

	writeJSON(w, http.StatusCreated, PostResponse{
		ID:        res.Post.ID,
		Post:      res.Post.Text,
		Tone:      string(res.Post.Tone),
		Model:     res.Post.Model,
		Remaining: res.Verdict.Remaining,
		Reason:    string(res.Verdict.Reason),
		CreatedAt: res.Post.CreatedAt.UTC(),
	})
}

// UsageResponse is the JSON body of GET /api/v1/usage.
type UsageResponse struct {
	Period        string        `json:"period"`
	PeriodStartAt time.Time     `json:"period_start_at"`
	PeriodEndAt   time.Time     `json:"period_end_at"`
	Generations   int64         `json:"generations"`
	Tokens        int64         `json:"tokens"`
	ActiveClients int           `json:"active_clients"`
	Quota         QuotaResponse `json:"quota"`
}

// QuotaResponse is the caller's quota state.
type QuotaResponse struct {
	FreeLimit  int    `json:"free_limit"`
	Remaining  int    `json:"remaining"`
	Exhausted  bool   `json:"is_exhausted"`
	UpgradeURL string `json:"upgrade_url,omitempty"`
}

// GetUsage handles GET /api/v1/usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	report := s.usage.GetReport(r.Context(), ClientID(r), period)

	writeJSON(w, http.StatusOK, UsageResponse{
		Period:        string(report.Period),
		PeriodStartAt: report.PeriodStart,
		PeriodEndAt:   report.PeriodEnd,
		Generations:   report.Generations,
		Tokens:        report.Tokens,
		ActiveClients: report.ActiveClients,
		Quota: QuotaResponse{
			FreeLimit:  report.Quota.FreeLimit,
			Remaining:  report.Quota.Remaining,
			Exhausted:  report.Quota.Exhausted,
			UpgradeURL: report.Quota.UpgradeURL,
		},
	})
}

// HealthResponse is the JSON body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, data pageData) {
	if err := renderPage(w, data); err != nil {
		s.log(r).Error("render page", zap.Error(err))
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
	}
}

func (s *Server) logError(r *http.Request, clientID string, err error) {
	l := s.log(r).With(zap.String("client_id", clientID))
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		l.Warn("generation request failed", zap.String("code", string(code)), zap.Error(err))
		return
	}
	l.Debug("generation request rejected", zap.String("code", string(code)), zap.Error(err))
}

// log returns the request-scoped logger installed by WideEvent.
func (s *Server) log(r *http.Request) *zap.Logger {
	return logpkg.FromContext(r.Context())
}
