package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gifrank/internal/domain"
	"github.com/kailas-cloud/gifrank/internal/domain/rank"
	"github.com/kailas-cloud/gifrank/internal/logger"
	healthuc "github.com/kailas-cloud/gifrank/internal/usecase/health"
)

// StatusClientClosedRequest is returned when the caller went away mid-request.
const StatusClientClosedRequest = 499

const defaultTrendingLimit = 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface.
type Server struct {
	ranker        Ranker
	suggester     Suggester
	terms         TermGenerator
	trending      TrendingSource
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server. Only ranker is required; routes backed by a nil
// collaborator answer 501.
func NewServer(
	ranker Ranker,
	suggester Suggester,
	terms TermGenerator,
	trending TrendingSource,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		ranker:    ranker,
		suggester: suggester,
		terms:     terms,
		trending:  trending,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, ErrorResponseCodeVectorDimMismatch),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorResponseCodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorResponseCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrGeneratorError, http.StatusBadGateway, ErrorResponseCodeGeneratorError),
		sentinelHandler(domain.ErrProviderUnavailable,
			http.StatusServiceUnavailable, ErrorResponseCodeProviderUnavailable),
		sentinelHandler(domain.ErrProviderError, http.StatusBadGateway, ErrorResponseCodeProviderError),
		sentinelHandler(domain.ErrNotConfigured, http.StatusNotImplemented, ErrorResponseCodeNotConfigured),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, ErrorResponseCodeTimeout),
		sentinelHandler(context.Canceled, StatusClientClosedRequest, ErrorResponseCodeClientClosedRequest),
	}
	return s
}

// Rank handles POST /v1/rank.
func (s *Server) Rank(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	rankReq, err := rank.NewRequest(req.Query, req.SearchTerms, derefInt(req.PerTermLimit, 0), derefInt(req.TopK, rank.DefaultTopK))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.ranker.Rank(ctx, &rankReq)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, rankResultToResponse(res))
}

// Suggest handles POST /v1/suggest.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	if s.suggester == nil {
		s.handleDomainError(w, r, domain.ErrNotConfigured)
		return
	}
	var req SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.suggester.Suggest(ctx, req.Message, derefInt(req.TopK, rank.DefaultTopK))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := SuggestResponse{
		Query:        res.Query,
		SearchTerms:  res.Terms,
		RankResponse: rankResultToResponse(res.Rank),
	}
	if res.Reply != "" {
		reply := res.Reply
		resp.Reply = &reply
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, resp)
}

// Terms handles POST /v1/terms.
func (s *Server) Terms(w http.ResponseWriter, r *http.Request) {
	if s.terms == nil {
		s.handleDomainError(w, r, domain.ErrNotConfigured)
		return
	}
	var req TermsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	terms, err := s.terms.Generate(r.Context(), req.Message)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TermsResponse{Terms: terms})
}

// Trending handles GET /v1/trending.
func (s *Server) Trending(w http.ResponseWriter, r *http.Request, params TrendingParams) {
	if s.trending == nil {
		s.handleDomainError(w, r, domain.ErrNotConfigured)
		return
	}
	limit := defaultTrendingLimit
	if params.Limit != nil {
		limit = *params.Limit
	}
	if limit <= 0 || limit > rank.MaxPerTermLimit {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed,
			"limit must be between 1 and "+strconv.Itoa(rank.MaxPerTermLimit))
		return
	}

	items := s.trending.Trending(r.Context(), limit)
	if items == nil {
		items = []string{}
	}
	writeJSON(w, http.StatusOK, TrendingResponse{Items: items})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: string(healthuc.Healthy), Checks: map[string]string{}})
		return
	}
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func rankResultToResponse(res rank.Result) RankResponse {
	items := make([]RankedItem, len(res.Items))
	for i, it := range res.Items {
		items[i] = RankedItem{URL: it.URL, Score: it.Score}
	}
	resp := RankResponse{
		Outcome:    string(res.Outcome),
		Items:      items,
		Candidates: res.Candidates,
		Failed:     res.Failed,
	}
	if res.Reason != rank.ReasonNone {
		reason := string(res.Reason)
		resp.Reason = &reason
	}
	return resp
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens()))
	}
}

// derefInt returns def for an omitted field so an explicit zero still reaches validation.
func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrVectorDimMismatch,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrGeneratorError,
		domain.ErrProviderUnavailable,
		domain.ErrProviderError,
		domain.ErrNotConfigured,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request canceled"
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
