package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/newsradar/internal/config"
	"github.com/kailas-cloud/newsradar/internal/domain"
	"github.com/kailas-cloud/newsradar/internal/index"
	kvredis "github.com/kailas-cloud/newsradar/internal/kv/redis"
	"github.com/kailas-cloud/newsradar/internal/llm"
	logpkg "github.com/kailas-cloud/newsradar/internal/logger"
	"github.com/kailas-cloud/newsradar/internal/metrics"
	articlerepo "github.com/kailas-cloud/newsradar/internal/repository/article"
	"github.com/kailas-cloud/newsradar/internal/repository/embcache"
	reputationrepo "github.com/kailas-cloud/newsradar/internal/repository/reputation"
	chiTransport "github.com/kailas-cloud/newsradar/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/newsradar/internal/transport/openai"
	deduppc "github.com/kailas-cloud/newsradar/internal/usecase/dedup"
	healthuc "github.com/kailas-cloud/newsradar/internal/usecase/health"
	hotnessuc "github.com/kailas-cloud/newsradar/internal/usecase/hotness"
	pipelineuc "github.com/kailas-cloud/newsradar/internal/usecase/pipeline"
	"github.com/kailas-cloud/newsradar/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting newsradar API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
	)

	ctx := context.Background()

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()
	metrics.RegisterHTTPMetrics()

	// Cache store (embedding cache + source reputations). Optional: the
	// service runs without it, just slower and with neutral reputations.
	var cache *kvredis.Store
	if len(cfg.Cache.Addrs) > 0 {
		cache, err = kvredis.NewStore(kvredis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cache.Close()

		if err := cache.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Article store: postgres when configured, in-memory otherwise.
	var articles interface {
		chiTransport.ArticleSaver
		pipelineuc.ArticleStore
	}
	if cfg.Postgres.DSN != "" {
		pg, err := articlerepo.NewPostgres(ctx, cfg.Postgres.DSN)
		if err != nil {
			logger.Fatal("Failed to connect to postgres", zap.Error(err))
		}
		defer pg.Close()
		articles = pg
		logger.Info("Connected to postgres article store")
	} else {
		articles = articlerepo.NewMemory()
		logger.Warn("No postgres DSN configured, using in-memory article store")
	}

	// Embedder chain: OpenAI transport wrapped in the cache decorator.
	baseEmbedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})
	var embedder domain.Embedder = baseEmbedder
	if cache != nil {
		embedder = embcache.New(embedder, cache, cfg.Cache.KeyPrefix, metrics.EmbeddingCacheTotal, logger)
	}
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cached", cache != nil),
	)

	// Dedup engine over a flat cosine index, rebuilt from the store.
	engine := deduppc.New(embedder, index.New(cfg.Embedding.Dimensions), deduppc.Config{
		SimilarityThreshold: cfg.Clustering.SimilarityThreshold,
		RecencyWindow:       time.Duration(cfg.Clustering.RecencyWindowHours) * time.Hour,
		CandidateK:          cfg.Clustering.CandidateK,
	})
	rebuildCtx := logpkg.ContextWithLogger(ctx, logger)
	rebuildWindow := domain.LastHours(time.Now(), cfg.Clustering.RecencyWindowHours)
	if err := engine.RebuildFromStore(rebuildCtx, articles, rebuildWindow); err != nil {
		logger.Fatal("Failed to rebuild cluster state", zap.Error(err))
	}

	// Hotness scorer with reputation lookups.
	var reputations *reputationrepo.Repo
	if cache != nil {
		reputations = reputationrepo.New(cache, cfg.Cache.KeyPrefix, cfg.Hotness.SourceReputations, logger)
	} else {
		reputations = reputationrepo.New(nil, cfg.Cache.KeyPrefix, cfg.Hotness.SourceReputations, logger)
	}
	scorer := hotnessuc.New(reputations, hotnessuc.Config{
		Weights: domain.HotnessWeights{
			Materiality:    cfg.Hotness.Weights.Materiality,
			Velocity:       cfg.Hotness.Weights.Velocity,
			Breadth:        cfg.Hotness.Weights.Breadth,
			Credibility:    cfg.Hotness.Weights.Credibility,
			Unexpectedness: cfg.Hotness.Weights.Unexpectedness,
		},
		Threshold:        cfg.Hotness.Threshold,
		BaselinePerHour:  cfg.Hotness.BaselinePerHour,
		SpikeBucket:      time.Duration(cfg.Hotness.SpikeBucketMin) * time.Minute,
		SourceSaturation: cfg.Hotness.SourceSaturation,
		DecayRates:       decayRates(cfg.Hotness.DecayRates),
	})

	// LLM enrichment provider. Optional: without an API key the pipeline
	// skips the enrichment stage.
	var enricher pipelineuc.Enricher
	if cfg.LLM.APIKey != "" {
		switch cfg.LLM.Provider {
		case "anthropic":
			enricher = llm.NewAnthropicProvider(cfg.LLM.APIKey, cfg.LLM.Model)
		default:
			enricher = llm.NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
		}
		logger.Info("Enrichment enabled", zap.String("provider", cfg.LLM.Provider))
	} else {
		logger.Warn("No LLM API key configured, enrichment disabled")
	}

	pipelineSvc := pipelineuc.New(articles, engine, scorer, enricher, pipelineuc.Config{
		DefaultTopK:        cfg.Pipeline.DefaultTopK,
		ScoringParallelism: cfg.Pipeline.ScoringParallelism,
		EnrichTimeout:      time.Duration(cfg.Pipeline.EnrichTimeoutSec) * time.Second,
		EnrichConcurrency:  int64(cfg.Pipeline.EnrichConcurrencyCap),
	})

	// Health checks cover only what is wired.
	var cachePinger healthuc.Pinger
	if cache != nil {
		cachePinger = cache
	}
	var articlesPinger healthuc.Pinger
	if pg, ok := articles.(*articlerepo.PostgresRepo); ok {
		articlesPinger = pg
	}
	healthSvc := healthuc.New(articlesPinger, cachePinger, baseEmbedder)

	// HTTP server
	server := chiTransport.NewServer(pipelineSvc, engine, articles, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func decayRates(c config.DecayRatesConfig) domain.DecayRates {
	d := domain.DefaultDecayRates()
	if c.Earnings > 0 {
		d.Earnings = c.Earnings
	}
	if c.Mergers > 0 {
		d.Mergers = c.Mergers
	}
	if c.Regulatory > 0 {
		d.Regulatory = c.Regulatory
	}
	if c.MarketMove > 0 {
		d.MarketMove = c.MarketMove
	}
	if c.Default > 0 {
		d.Default = c.Default
	}
	return d
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
