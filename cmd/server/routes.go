// Package main provides the campus assistant server entry point.
package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neuraruet/assistant-go/internal/chat"
	"github.com/neuraruet/assistant-go/internal/config"
	"github.com/neuraruet/assistant-go/internal/logger"
	"github.com/neuraruet/assistant-go/internal/profile"
	"github.com/neuraruet/assistant-go/internal/rag"
	"github.com/neuraruet/assistant-go/internal/storage"
)

// chatRequest is the POST /api/v1/chat body. The actor profile is
// attached by the calling backend, which owns authentication; this
// service trusts it as scope ground truth.
type chatRequest struct {
	RoomID string    `json:"room_id" binding:"required"`
	Text   string    `json:"text" binding:"required"`
	Actor  chatActor `json:"actor" binding:"required"`
}

type chatActor struct {
	ID          string `json:"id" binding:"required"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role" binding:"required,oneof=student teacher cr"`
	Dept        string `json:"dept" binding:"required"`
	Series      string `json:"series" binding:"required"`
	Section     string `json:"section"`
	Roll        string `json:"roll"`
}

// setupRoutes configures all HTTP routes.
func setupRoutes(router *gin.Engine, orchestrator *chat.Orchestrator, db *storage.DB, searcher *rag.HybridSearcher, registry *prometheus.Registry, cfg *config.Config, log *logger.Logger) {
	// Liveness: the process is up. Never checks dependencies.
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness: database reachable, retrieval index state reported.
	readyHandler := func(c *gin.Context) {
		if err := db.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":        "ready",
			"database":      "connected",
			"hybrid_search": searcher.IsEnabled(),
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	router.POST("/api/v1/chat", chatHandler(orchestrator, log))

	// The publishing backend pushes new rows here so both search tiers
	// stay fresh without a restart.
	router.POST("/api/v1/notices", ingestNoticeHandler(db, searcher, log))
	router.POST("/api/v1/materials", ingestMaterialHandler(db, searcher, log))

	// Generated cover pages and marksheets are served for download.
	router.Static("/documents", cfg.DocumentDir)

	metricsHandler := gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if cfg.MetricsPassword != "" {
		authorized := router.Group("/", gin.BasicAuth(gin.Accounts{
			cfg.MetricsUsername: cfg.MetricsPassword,
		}))
		authorized.GET("/metrics", metricsHandler)
	} else {
		router.GET("/metrics", metricsHandler)
	}
}

// noticeIngestRequest is what the publishing backend posts when a
// notice goes out. Like the chat actor, scope fields are trusted.
type noticeIngestRequest struct {
	ID            string `json:"id"`
	Title         string `json:"title" binding:"required"`
	Message       string `json:"message" binding:"required"`
	CreatedByRole string `json:"created_by_role"`
	CreatedByName string `json:"created_by_name"`
	Dept          string `json:"dept" binding:"required"`
	Series        string `json:"series" binding:"required"`
	Section       string `json:"section"`
}

type materialIngestRequest struct {
	ID         string `json:"id"`
	Type       string `json:"type" binding:"required"`
	DriveURL   string `json:"drive_url" binding:"required"`
	CourseCode string `json:"course_code" binding:"required"`
	CourseName string `json:"course_name"`
	Dept       string `json:"dept" binding:"required"`
	Series     string `json:"series" binding:"required"`
	Section    string `json:"section"`
	WrittenBy  string `json:"written_by"`
	Topic      string `json:"topic"`
	CTNo       int    `json:"ct_no"`
	Year       int    `json:"year"`
}

// ingestNoticeHandler persists a newly published notice and indexes it
// in both search tiers. An index failure is logged, not surfaced: the
// SQL tier already sees the row, and the startup sync picks up anything
// missed here.
func ingestNoticeHandler(db *storage.DB, searcher *rag.HybridSearcher, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req noticeIngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}

		n := &storage.Notice{
			ID:            req.ID,
			Title:         req.Title,
			Message:       req.Message,
			CreatedByRole: req.CreatedByRole,
			CreatedByName: req.CreatedByName,
			Dept:          req.Dept,
			Series:        req.Series,
			Section:       req.Section,
			CreatedAt:     time.Now().Unix(),
		}
		if n.ID == "" {
			n.ID = uuid.NewString()
		}

		if err := db.SaveNotice(c.Request.Context(), n); err != nil {
			log.WithError(err).Error("failed to save ingested notice")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save notice"})
			return
		}
		if err := searcher.AddNotice(c.Request.Context(), n); err != nil {
			log.WithError(err).WithField("notice_id", n.ID).Warn("failed to index ingested notice")
		}

		c.JSON(http.StatusCreated, gin.H{"id": n.ID})
	}
}

// ingestMaterialHandler persists a newly uploaded material record and
// adds it to the semantic index.
func ingestMaterialHandler(db *storage.DB, searcher *rag.HybridSearcher, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req materialIngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}

		mt := storage.MaterialType(req.Type)
		if !mt.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown material type: " + req.Type})
			return
		}

		m := &storage.Material{
			ID:         req.ID,
			Type:       mt,
			DriveURL:   req.DriveURL,
			CourseCode: req.CourseCode,
			CourseName: req.CourseName,
			Dept:       req.Dept,
			Series:     req.Series,
			Section:    req.Section,
			WrittenBy:  req.WrittenBy,
			Topic:      req.Topic,
			CTNo:       req.CTNo,
			Year:       req.Year,
			CreatedAt:  time.Now().Unix(),
		}
		if m.ID == "" {
			m.ID = uuid.NewString()
		}

		if err := db.SaveMaterial(c.Request.Context(), m); err != nil {
			log.WithError(err).Error("failed to save ingested material")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save material"})
			return
		}
		if err := searcher.AddMaterial(c.Request.Context(), m); err != nil {
			log.WithError(err).WithField("material_id", m.ID).Warn("failed to index ingested material")
		}

		c.JSON(http.StatusCreated, gin.H{"id": m.ID})
	}
}

// chatHandler runs one conversational turn.
func chatHandler(orchestrator *chat.Orchestrator, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}

		actor := profile.Actor{
			ID:          req.Actor.ID,
			DisplayName: req.Actor.DisplayName,
			Role:        profile.Role(req.Actor.Role),
			Dept:        req.Actor.Dept,
			Series:      req.Actor.Series,
			Section:     req.Actor.Section,
			Roll:        req.Actor.Roll,
		}

		reply, err := orchestrator.RunTurn(c.Request.Context(), req.RoomID, actor, req.Text)
		if err != nil {
			log.WithRoom(req.RoomID).WithError(err).Error("chat turn failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "the assistant could not process this message, please try again"})
			return
		}

		c.JSON(http.StatusOK, reply)
	}
}
