package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tokenops/quotaguard/internal/domain"
	domadm "github.com/tokenops/quotaguard/internal/domain/admission"
	"github.com/tokenops/quotaguard/internal/domain/quota"
	"github.com/tokenops/quotaguard/internal/domain/registry"
	healthuc "github.com/tokenops/quotaguard/internal/usecase/health"
)

// Engine is the admission surface served over HTTP. Both the plain and
// the instrumented admission service satisfy it.
type Engine interface {
	Request(ctx context.Context, model string, tokens int64) (domadm.Decision, error)
	Status(ctx context.Context) (quota.Record, quota.Origin)
	SetPlanTokens(ctx context.Context, tokens int64) (quota.Record, error)
	ResetBuckets(ctx context.Context) (quota.Record, error)
}

// Server exposes the admission engine as a JSON API.
type Server struct {
	engine Engine
	health *healthuc.Service
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(engine Engine, health *healthuc.Service, logger *zap.Logger) *Server {
	return &Server{engine: engine, health: health, logger: logger}
}

// Routes mounts all endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/quota", s.GetQuota)
		r.Get("/models", s.ListModels)
		r.Post("/admissions", s.CreateAdmission)
		r.Put("/plan", s.SetPlan)
		r.Post("/reset", s.ResetBuckets)
	})
}

// CreateAdmission handles POST /v1/admissions. The HTTP status mirrors
// the decision outcome; the body always carries the full decision.
func (s *Server) CreateAdmission(w http.ResponseWriter, r *http.Request) {
	var req admissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	d, err := s.engine.Request(r.Context(), req.Model, req.Tokens)
	if err != nil {
		s.internalError(w, err)
		return
	}

	writeJSON(w, statusForOutcome(d.Outcome()), decisionToAdmission(d))
}

// GetQuota handles GET /v1/quota.
func (s *Server) GetQuota(w http.ResponseWriter, r *http.Request) {
	rec, origin := s.engine.Status(r.Context())

	resp := recordToQuota(rec)
	resp.Origin = string(origin)
	writeJSON(w, http.StatusOK, resp)
}

// ListModels handles GET /v1/models.
func (s *Server) ListModels(w http.ResponseWriter, _ *http.Request) {
	buckets := registry.Buckets()
	items := make([]bucketModels, len(buckets))
	for i, b := range buckets {
		items[i] = bucketModels{
			ID:         string(b),
			DailyLimit: b.DailyLimit(),
			Models:     registry.ModelsFor(b),
		}
	}

	writeJSON(w, http.StatusOK, modelsResponse{Buckets: items})
}

// SetPlan handles PUT /v1/plan.
func (s *Server) SetPlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	rec, err := s.engine.SetPlanTokens(r.Context(), req.PlanTokensLeft)
	if err != nil {
		if errors.Is(err, domain.ErrNegativePlanTokens) {
			writeError(w, http.StatusBadRequest, codeValidationFailed, domain.ErrNegativePlanTokens.Error())
			return
		}
		s.internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordToQuota(rec))
}

// ResetBuckets handles POST /v1/reset.
func (s *Server) ResetBuckets(w http.ResponseWriter, r *http.Request) {
	rec, err := s.engine.ResetBuckets(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordToQuota(rec))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// statusForOutcome maps a decision outcome to its HTTP status.
func statusForOutcome(o domadm.Outcome) int {
	switch o {
	case domadm.OutcomeAdmitted:
		return http.StatusOK
	case domadm.OutcomeDeniedByPlan:
		return http.StatusConflict
	case domadm.OutcomeDeniedUnknownModel:
		return http.StatusNotFound
	case domadm.OutcomeDeniedInvalidCost:
		return http.StatusBadRequest
	case domadm.OutcomeDeniedOverLimit:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func recordToQuota(rec quota.Record) quotaResponse {
	buckets := registry.Buckets()
	items := make([]bucketStatus, len(buckets))
	for i, b := range buckets {
		items[i] = bucketStatus{
			ID:         string(b),
			Remaining:  rec.Remaining(b),
			DailyLimit: b.DailyLimit(),
		}
	}

	return quotaResponse{
		Date:           rec.Date(),
		PlanTokensLeft: rec.PlanTokensLeft(),
		Buckets:        items,
	}
}

func decisionToAdmission(d domadm.Decision) admissionResponse {
	resp := admissionResponse{
		Outcome: string(d.Outcome()),
		Model:   d.Model(),
	}

	switch d.Outcome() {
	case domadm.OutcomeAdmitted, domadm.OutcomeDeniedOverLimit:
		bucket := string(d.Bucket())
		tokens := d.Tokens()
		remaining := d.Remaining()
		resp.Bucket = &bucket
		resp.Tokens = &tokens
		resp.Remaining = &remaining
	case domadm.OutcomeDeniedByPlan:
		plan := d.PlanTokensLeft()
		resp.PlanTokensLeft = &plan
	case domadm.OutcomeDeniedInvalidCost:
		tokens := d.Tokens()
		resp.Tokens = &tokens
	}

	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
