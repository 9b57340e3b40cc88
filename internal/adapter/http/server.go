package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
	"github.com/couchcryptid/airquality-ingest-service/internal/pipeline"
	"github.com/couchcryptid/airquality-ingest-service/internal/progress"
	"github.com/couchcryptid/airquality-ingest-service/internal/query"
)

// DefaultMaxUploadBytes caps the upload body when no limit is configured.
const DefaultMaxUploadBytes = 50 << 20

// Ingester starts ingestion jobs and exposes their progress.
type Ingester interface {
	Start(data []byte, opts pipeline.Options) (string, error)
	Subscribe(ctx context.Context, jobID string) (*progress.Subscription, error)
}

// Querier serves measurement reads.
type Querier interface {
	SeriesForParameter(ctx context.Context, req query.SeriesRequest) ([]domain.SeriesPoint, error)
	AllParametersForRange(ctx context.Context, req query.RangeRequest) ([]domain.Measurement, error)
}

// Services are the collaborators behind the HTTP routes.
type Services struct {
	Ingester       Ingester
	Querier        Querier
	Ready          sharedobs.ReadinessChecker
	MaxUploadBytes int64
}

// Server exposes the measurement API alongside health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	services   Services
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the measurement routes plus /healthz,
// /readyz, and /metrics.
func NewServer(addr string, services Services, logger *slog.Logger) *Server {
	if services.MaxUploadBytes <= 0 {
		services.MaxUploadBytes = DefaultMaxUploadBytes
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     engine,
			ReadTimeout: 60 * time.Second,
			// Progress streams stay open for the life of a job.
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		services: services,
		logger:   logger,
	}

	engine.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	engine.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(services.Ready)))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	m := engine.Group("/measurements")
	m.POST("/upload", s.handleUpload)
	m.GET("/progress/:id", s.handleProgress)
	m.GET("/parameter-time-series", s.handleSeries)
	m.GET("/date-range", s.handleDateRange)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
