// Package httpapi exposes the recommendation service over HTTP: hand-written
// chi handlers with JSON bodies and a flat error-code vocabulary.
package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/casai-labs/furnish/internal/domain"
	"github.com/casai-labs/furnish/internal/domain/catalog"
	"github.com/casai-labs/furnish/internal/domain/query"
	"github.com/casai-labs/furnish/internal/domain/rank"
	"github.com/casai-labs/furnish/internal/domain/style"
	healthuc "github.com/casai-labs/furnish/internal/usecase/health"
)

// ErrorCode is the machine-readable error vocabulary of the API.
type ErrorCode string

const (
	CodeBadRequest            ErrorCode = "bad_request"
	CodeUnauthorized          ErrorCode = "unauthorized"
	CodeValidationFailed      ErrorCode = "validation_failed"
	CodeImageDecodeFailed     ErrorCode = "image_decode_failed"
	CodeEmbeddingQuota        ErrorCode = "embedding_quota_exceeded"
	CodeEmbeddingProviderFail ErrorCode = "embedding_provider_error"
	CodeInternalError         ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Recommender is the consumer contract for the recommendation usecase.
type Recommender interface {
	Recommend(ctx context.Context, q query.Query) ([]rank.Result, catalog.Match, error)
}

// HealthService is the consumer contract for the health usecase.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	recommender   Recommender
	health        HealthService
	defaultAlpha  float64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. defaultAlpha is applied when the
// request body leaves the blend weight unset.
func NewServer(recommender Recommender, health HealthService, defaultAlpha float64, logger *zap.Logger) *Server {
	s := &Server{
		recommender:  recommender,
		health:       health,
		defaultAlpha: defaultAlpha,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrImageDecode, http.StatusBadRequest, CodeImageDecodeFailed),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, CodeEmbeddingQuota),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderFail),
	}
	return s
}

// RegisterRoutes mounts the API routes on the given router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/recommend", s.Recommend)
	r.Get("/styles", s.Styles)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// recommendRequest is the POST /recommend body.
type recommendRequest struct {
	Text         string   `json:"text"`
	ImageB64     string   `json:"image_b64"`
	Alpha        *float64 `json:"alpha"`
	Category     string   `json:"category"`
	TargetWidth  *float64 `json:"target_width"`
	TargetLength *float64 `json:"target_length"`
	TopK         *int     `json:"top_k"`
}

// recommendItem is one ranked catalog item in the response.
type recommendItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"image_url"`
	ProductLink string   `json:"product_link,omitempty"`
	Width       *float64 `json:"width,omitempty"`
	Length      *float64 `json:"length,omitempty"`
	Similarity  float64  `json:"similarity"`
	FinalScore  float64  `json:"final_score"`
}

// recommendResponse is the POST /recommend body on success.
type recommendResponse struct {
	CategoryMatch string          `json:"category_match"`
	Items         []recommendItem `json:"items"`
}

// Recommend handles POST /recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := s.queryFromRequest(req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results, match, err := s.recommender.Recommend(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]recommendItem, len(results))
	for i := range results {
		items[i] = resultToItem(&results[i])
	}

	writeJSON(w, http.StatusOK, recommendResponse{
		CategoryMatch: string(match),
		Items:         items,
	})
}

// queryFromRequest validates the body and builds the domain query.
func (s *Server) queryFromRequest(req recommendRequest) (query.Query, error) {
	var image []byte
	if req.ImageB64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.ImageB64)
		if err != nil {
			return query.Query{}, fmt.Errorf("%w: %w", domain.ErrImageDecode, err)
		}
		image = decoded
	}

	opts := []query.Option{}
	switch {
	case req.Alpha != nil:
		opts = append(opts, query.WithAlpha(*req.Alpha))
	case s.defaultAlpha > 0:
		opts = append(opts, query.WithAlpha(s.defaultAlpha))
	}
	if req.Category != "" {
		opts = append(opts, query.WithCategoryHint(req.Category))
	}
	if req.TargetWidth != nil || req.TargetLength != nil {
		if req.TargetWidth == nil || req.TargetLength == nil {
			return query.Query{}, fmt.Errorf("%w: target_width and target_length must be supplied together",
				domain.ErrInvalidQuery)
		}
		opts = append(opts, query.WithTargetDimensions(*req.TargetWidth, *req.TargetLength))
	}
	if req.TopK != nil {
		opts = append(opts, query.WithTopK(*req.TopK))
	}

	return query.New(req.Text, image, opts...)
}

func resultToItem(r *rank.Result) recommendItem {
	it := r.Item()
	item := recommendItem{
		ID:          it.ID(),
		Name:        it.Name(),
		Price:       it.Price(),
		Category:    it.Category(),
		ImageURL:    it.ImageRef(),
		ProductLink: it.ProductLink(),
		Similarity:  r.Similarity(),
		FinalScore:  r.FinalScore(),
	}
	if w, l, ok := it.Dimensions(); ok {
		item.Width = &w
		item.Length = &l
	}
	return item
}

// stylesResponse is the GET /styles body.
type stylesResponse struct {
	Styles map[string]string `json:"styles"`
}

// Styles handles GET /styles.
func (s *Server) Styles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stylesResponse{Styles: style.Descriptions()})
}

// healthResponse is the GET /health body.
type healthResponse struct {
	Status       string            `json:"status"`
	Checks       map[string]string `json:"checks"`
	CatalogItems int               `json:"catalog_items"`
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
		Status:       string(report.Status),
		Checks:       checks,
		CatalogItems: report.CatalogItems,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrImageDecode,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
