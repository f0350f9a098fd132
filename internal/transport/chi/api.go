package chi

import (
	"fmt"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorResponseCode is a stable machine-readable error code.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest             ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed       ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnauthorized           ErrorResponseCode = "unauthorized"
	ErrorResponseCodeVectorDimMismatch      ErrorResponseCode = "vector_dim_mismatch"
	ErrorResponseCodeRateLimited            ErrorResponseCode = "rate_limited"
	ErrorResponseCodeProviderError          ErrorResponseCode = "provider_error"
	ErrorResponseCodeProviderUnavailable    ErrorResponseCode = "provider_unavailable"
	ErrorResponseCodeEmbeddingProviderError ErrorResponseCode = "embedding_provider_error"
	ErrorResponseCodeGeneratorError         ErrorResponseCode = "generator_error"
	ErrorResponseCodeNotConfigured          ErrorResponseCode = "not_configured"
	ErrorResponseCodeTimeout                ErrorResponseCode = "timeout"
	ErrorResponseCodeClientClosedRequest    ErrorResponseCode = "client_closed_request"
	ErrorResponseCodeInternalError          ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// RankRequest is the body of POST /v1/rank.
type RankRequest struct {
	Query        string   `json:"query"`
	SearchTerms  []string `json:"search_terms,omitempty"`
	PerTermLimit *int     `json:"per_term_limit,omitempty"`
	TopK         *int     `json:"top_k,omitempty"`
}

// RankedItem is one GIF in a rank response.
type RankedItem struct {
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

// RankResponse is the body of a successful POST /v1/rank.
type RankResponse struct {
	Outcome    string       `json:"outcome"`
	Reason     *string      `json:"reason,omitempty"`
	Items      []RankedItem `json:"items"`
	Candidates int          `json:"candidates"`
	Failed     int          `json:"failed"`
}

// SuggestRequest is the body of POST /v1/suggest.
type SuggestRequest struct {
	Message string `json:"message"`
	TopK    *int   `json:"top_k,omitempty"`
}

// SuggestResponse is the body of a successful POST /v1/suggest.
type SuggestResponse struct {
	Reply       *string  `json:"reply,omitempty"`
	Query       string   `json:"query"`
	SearchTerms []string `json:"search_terms"`
	RankResponse
}

// TermsRequest is the body of POST /v1/terms.
type TermsRequest struct {
	Message string `json:"message"`
}

// TermsResponse is the body of a successful POST /v1/terms.
type TermsResponse struct {
	Terms []string `json:"terms"`
}

// TrendingParams are the query parameters of GET /v1/trending.
type TrendingParams struct {
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
}

// TrendingResponse is the body of GET /v1/trending.
type TrendingResponse struct {
	Items []string `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ServerInterface is implemented by Server.
type ServerInterface interface {
	// (POST /v1/rank)
	Rank(w http.ResponseWriter, r *http.Request)
	// (POST /v1/suggest)
	Suggest(w http.ResponseWriter, r *http.Request)
	// (POST /v1/terms)
	Terms(w http.ResponseWriter, r *http.Request)
	// (GET /v1/trending)
	Trending(w http.ResponseWriter, r *http.Request, params TrendingParams)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a query parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ChiServerOptions configures route registration.
type ChiServerOptions struct {
	BaseRouter       gochi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// serverInterfaceWrapper binds parameters before dispatching to the handler.
type serverInterfaceWrapper struct {
	handler          ServerInterface
	errorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *serverInterfaceWrapper) Trending(w http.ResponseWriter, r *http.Request) {
	var params TrendingParams
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}
	siw.handler.Trending(w, r, params)
}

// HandlerWithOptions registers every route of si on the base router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = gochi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := &serverInterfaceWrapper{handler: si, errorHandlerFunc: options.ErrorHandlerFunc}

	r.Post("/v1/rank", si.Rank)
	r.Post("/v1/suggest", si.Suggest)
	r.Post("/v1/terms", si.Terms)
	r.Get("/v1/trending", wrapper.Trending)
	r.Get("/health", si.HealthCheck)
	r.Get("/metrics", si.Metrics)
	return r
}
