// Package api exposes the variant pipeline over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/subject-variants-server/internal/domain"
	"github.com/subject-variants-server/internal/middleware"
	"github.com/subject-variants-server/internal/service"
)

// Server represents the HTTP server.
type Server struct {
	configManager domain.ConfigManager
	pipelines     *service.Pipelines
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance.
func NewServer(configManager domain.ConfigManager, pipelines *service.Pipelines, logger *logrus.Logger) *Server {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())

	server := &Server{
		configManager: configManager,
		pipelines:     pipelines,
		logger:        logger,
		router:        router,
	}

	server.setupRoutes()

	return server
}

// Start starts the HTTP server and blocks until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetConfig().Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/patients/:patientId/genes/:gene/variants", s.handleRunPipeline)
		v1.GET("/patients/:patientId/genes/:gene/readiness", s.handleReadiness)
	}
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// handleRunPipeline runs the pipeline for a (gene, patient) pairing and, on
// readiness, releases the translated rows. The POST is the explicit consumer
// action that permits handing rows out.
func (s *Server) handleRunPipeline(c *gin.Context) {
	gene := c.Param("gene")
	patientID := c.Param("patientId")

	orch := s.pipelines.Get(gene, patientID)
	if err := orch.Run(c.Request.Context()); err != nil {
		s.respondPipelineError(c, err)
		return
	}

	var rows []domain.VariantRow
	delivered := orch.Confirm(func(r []domain.VariantRow) { rows = r })

	c.JSON(http.StatusOK, gin.H{
		"gene":      domain.NormalizeGeneSymbol(gene),
		"patient":   patientID,
		"readiness": orch.Readiness(),
		"delivered": delivered,
		"variants":  rows,
	})
}

// handleReadiness reports the progress indicator for an existing pairing.
// Unknown pairings are simply not ready yet.
func (s *Server) handleReadiness(c *gin.Context) {
	gene := c.Param("gene")
	patientID := c.Param("patientId")

	readiness := domain.ReadinessNotReady
	if orch, ok := s.pipelines.Lookup(gene, patientID); ok {
		readiness = orch.Readiness()
	}

	c.JSON(http.StatusOK, gin.H{
		"gene":      domain.NormalizeGeneSymbol(gene),
		"patient":   patientID,
		"readiness": readiness,
	})
}

// respondPipelineError maps pipeline error kinds onto HTTP statuses.
func (s *Server) respondPipelineError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindResolutionFailed, domain.KindFetchFailed:
		status = http.StatusBadGateway
	case domain.KindMalformedPayload:
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{
		"error":          err.Error(),
		"kind":           string(domain.KindOf(err)),
		"correlation_id": c.GetString("correlation_id"),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}
