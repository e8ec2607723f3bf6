// Package main provides the campus assistant server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/neuraruet/assistant-go/internal/answer"
	"github.com/neuraruet/assistant-go/internal/buildinfo"
	"github.com/neuraruet/assistant-go/internal/chat"
	"github.com/neuraruet/assistant-go/internal/config"
	"github.com/neuraruet/assistant-go/internal/docgen"
	"github.com/neuraruet/assistant-go/internal/intent"
	"github.com/neuraruet/assistant-go/internal/llm"
	"github.com/neuraruet/assistant-go/internal/logger"
	"github.com/neuraruet/assistant-go/internal/memory"
	"github.com/neuraruet/assistant-go/internal/metrics"
	"github.com/neuraruet/assistant-go/internal/rag"
	"github.com/neuraruet/assistant-go/internal/retrieval"
	"github.com/neuraruet/assistant-go/internal/sentry"
	"github.com/neuraruet/assistant-go/internal/storage"
	"github.com/neuraruet/assistant-go/internal/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var log *logger.Logger
	if cfg.BetterStackToken != "" {
		log = logger.NewWithShipping(cfg.LogLevel, cfg.BetterStackToken, cfg.BetterStackEndpoint)
	} else {
		log = logger.New(cfg.LogLevel)
	}
	log.WithField("version", buildinfo.Version).Info("Starting assistant server")

	// Error reporting is optional; a missing token disables it.
	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize error reporting")
	}
	defer sentry.Flush(2 * time.Second)

	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())
	m := metrics.New(registry)

	// Two completion clients against the same Groq endpoint: a small fast
	// model for gating and extraction, a larger one for answer synthesis.
	routerClient, err := llm.NewGroqClient(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.RouterModel, cfg.LLMTimeout)
	if err != nil {
		log.WithError(err).Fatal("Failed to create router model client")
	}
	chatClient, err := llm.NewGroqClient(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.ChatModel, cfg.LLMTimeout)
	if err != nil {
		log.WithError(err).Fatal("Failed to create chat model client")
	}

	// Semantic search is optional: without an embedding key the assistant
	// still answers from SQL filtering and BM25 keyword ranking.
	var vectorDB *rag.VectorDB
	embedder := llm.NewEmbeddingClient(cfg.HFAPIKey, cfg.EmbeddingURL, cfg.EmbeddingRPM, cfg.EmbedMaxRetries)
	if embedder.IsConfigured() {
		vectorDB, err = rag.NewVectorDB(cfg.DataDir, embedder.NewEmbeddingFunc(), log)
		if err != nil {
			log.WithError(err).Warn("Failed to create vector database, semantic search disabled")
			vectorDB = nil
		}
	} else {
		log.Info("Embedding API key not configured, semantic search disabled")
	}

	bm25Index := rag.NewBM25Index(log)
	searcher := rag.NewHybridSearcher(vectorDB, bm25Index, log)
	buildIndexes(db, searcher, m, log)

	coverGen, err := docgen.NewCoverGenerator(cfg.DocumentDir)
	if err != nil {
		log.WithError(err).Fatal("Failed to create cover generator")
	}
	marksheetGen, err := docgen.NewMarksheetGenerator(cfg.DocumentDir)
	if err != nil {
		log.WithError(err).Fatal("Failed to create marksheet generator")
	}

	synth := answer.NewSynthesizer(chatClient)
	toolRegistry := tools.NewRegistry(
		tools.NewMaterialsTool(routerClient, db, retrieval.NewSearcher(db), searcher.VectorDB(), synth, m, log),
		tools.NewNoticesTool(db, searcher, synth, m, log),
		tools.NewMarksTool(routerClient, db, synth, m, log),
		tools.NewCoverTool(routerClient, coverGen, synth, m, log),
		tools.NewMarksheetTool(routerClient, db, marksheetGen, m, log),
	)

	gate := intent.NewRouter(routerClient, log.Logger)
	recaller := memory.NewRecaller(db, cfg.HistoryTurns)
	orchestrator := chat.NewOrchestrator(gate, toolRegistry, recaller, db, synth, m, log)

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))

	setupRoutes(router, orchestrator, db, searcher, registry, cfg, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  config.ServerHTTPRead,
		WriteTimeout: config.ServerHTTPWrite,
		IdleTimeout:  config.ServerHTTPIdle,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if err := db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}

	log.Info("Server stopped")
}

// buildIndexes loads the stored corpus and builds the BM25 and vector
// indexes. Failures degrade to SQL-only retrieval rather than blocking
// startup.
func buildIndexes(db *storage.DB, searcher *rag.HybridSearcher, m *metrics.Metrics, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), config.IndexBuildTimeout)
	defer cancel()

	start := time.Now()
	notices, err := db.AllNotices(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to load notices for index build")
		return
	}
	materials, err := db.AllMaterials(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to load materials for index build")
		return
	}

	if err := searcher.Initialize(ctx, notices, materials); err != nil {
		log.WithError(err).Warn("Failed to build retrieval indexes, falling back to SQL-only retrieval")
		return
	}

	m.RecordIndexBuild(time.Since(start).Seconds())
	log.WithFields(map[string]any{
		"notices":     len(notices),
		"materials":   len(materials),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Retrieval indexes built")
}
