// Package chi implements the HTTP surface: pipeline runs, on-demand
// cluster scoring, article ingestion, health, and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/newsradar/internal/domain"
	"github.com/kailas-cloud/newsradar/internal/usecase/dedup"
	"github.com/kailas-cloud/newsradar/internal/usecase/health"
	"github.com/kailas-cloud/newsradar/internal/usecase/pipeline"
)

// maxRunWindowHours bounds how far back a single run may reach.
const maxRunWindowHours = 24 * 14

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// ArticleSaver persists ingested articles.
type ArticleSaver interface {
	Save(ctx context.Context, a domain.Article) error
}

// Server exposes the pipeline over HTTP.
type Server struct {
	pipeline      *pipeline.Service
	engine        *dedup.Engine
	articles      ArticleSaver
	health        *health.Service
	logger        *zap.Logger
	now           func() time.Time
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	pipelineSvc *pipeline.Service,
	engine *dedup.Engine,
	articles ArticleSaver,
	healthSvc *health.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		pipeline: pipelineSvc,
		engine:   engine,
		articles: articles,
		health:   healthSvc,
		logger:   logger,
		now:      time.Now,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrClusterNotFound, http.StatusNotFound, "cluster_not_found"),
		sentinelHandler(domain.ErrArticleNotFound, http.StatusNotFound, "article_not_found"),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, "vector_dim_mismatch"),
		sentinelHandler(domain.ErrMembershipConflict, http.StatusConflict, "membership_conflict"),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_provider_error"),
		sentinelHandler(domain.ErrDraftProviderError, http.StatusBadGateway, "draft_provider_error"),
		sentinelHandler(domain.ErrRunFailed, http.StatusInternalServerError, "run_failed"),
	}
	return s
}

// Register mounts the API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/v1/articles", s.IngestArticle)
	r.Post("/v1/pipeline/run", s.RunPipeline)
	r.Post("/v1/clusters/{id}/score", s.ScoreCluster)
	r.Get("/v1/clusters/{id}", s.GetCluster)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ingestRequest struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"source_id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	PublishedAt time.Time `json:"published_at"`
}

type ingestResponse struct {
	ArticleID   string `json:"article_id"`
	ClusterID   string `json:"cluster_id"`
	ClusterSize int    `json:"cluster_size"`
	Degraded    bool   `json:"degraded,omitempty"`
}

// IngestArticle handles POST /v1/articles: persist the article and assign
// it to a story cluster.
func (s *Server) IngestArticle(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	a, err := domain.NewArticle(req.ID, req.SourceID, req.URL, req.Title, req.Body,
		req.PublishedAt, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	if err := s.articles.Save(r.Context(), a); err != nil {
		s.handleDomainError(w, err)
		return
	}

	c, err := s.engine.Assign(r.Context(), a, s.now())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ingestResponse{
		ArticleID:   a.ID(),
		ClusterID:   c.ID(),
		ClusterSize: c.Size(),
		Degraded:    c.Degraded(),
	})
}

type runRequest struct {
	From  *time.Time `json:"from,omitempty"`
	To    *time.Time `json:"to,omitempty"`
	Hours int        `json:"hours,omitempty"`
	TopK  int        `json:"top_k,omitempty"`
}

// RunPipeline handles POST /v1/pipeline/run. The window comes either as
// explicit bounds or as a trailing-hours shorthand (default 24).
func (s *Server) RunPipeline(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	// An empty body runs with defaults.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	window, err := windowFromRequest(req, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	res, err := s.pipeline.Run(r.Context(), window, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func windowFromRequest(req runRequest, now time.Time) (domain.Window, error) {
	if req.From != nil || req.To != nil {
		if req.From == nil || req.To == nil {
			return domain.Window{}, errors.New("from and to must be provided together")
		}
		return domain.NewWindow(*req.From, *req.To)
	}
	hours := req.Hours
	if hours <= 0 {
		hours = 24
	}
	if hours > maxRunWindowHours {
		return domain.Window{}, errors.New("window too large")
	}
	return domain.LastHours(now, hours), nil
}

// ScoreCluster handles POST /v1/clusters/{id}/score.
func (s *Server) ScoreCluster(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := s.pipeline.ScoreCluster(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type clusterResponse struct {
	ID          string    `json:"id"`
	ArticleIDs  []string  `json:"article_ids"`
	SourceCount int       `json:"source_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Degraded    bool      `json:"degraded,omitempty"`
	Version     int       `json:"version"`
}

// GetCluster handles GET /v1/clusters/{id}.
func (s *Server) GetCluster(w http.ResponseWriter, r *http.Request) {
	c, err := s.engine.Cluster(chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clusterResponse{
		ID:          c.ID(),
		ArticleIDs:  c.ArticleIDs(),
		SourceCount: c.SourceCount(),
		CreatedAt:   c.CreatedAt(),
		UpdatedAt:   c.UpdatedAt(),
		Degraded:    c.Degraded(),
		Version:     c.Version(),
	})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != health.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, map[string]any{
		"status":   report.Status,
		"checks":   report.Checks,
		"clusters": s.engine.Size(),
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

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client
// without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrClusterNotFound,
		domain.ErrArticleNotFound,
		domain.ErrVectorDimMismatch,
		domain.ErrMembershipConflict,
		domain.ErrEmbeddingProviderError,
		domain.ErrDraftProviderError,
		domain.ErrRunFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
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
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
