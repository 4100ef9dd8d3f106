package ui

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"karyoscore/adapters/excel"
	"karyoscore/app"
	"karyoscore/internal"
	"karyoscore/internal/errors"
	"karyoscore/internal/metrics"
	"karyoscore/ports"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// Options tunes the HTTP surface
type Options struct {
	UploadMaxBytes int64
	ReadTimeout    time.Duration
	HistoryLimit   int
}

// Server represents the web server of the karyotype analyzer
type Server struct {
	router    *gin.Engine
	templates *template.Template
	http      *http.Server

	analysis *app.AnalysisService
	batches  *app.BatchService
	reader   *excel.DataReader
	runs     ports.RunRepository // nil when history is disabled
	metrics  *metrics.Metrics
	logger   *internal.Logger
	opts     Options
}

// NewServer creates the server and its routes. runs and m may be nil.
func NewServer(analysis *app.AnalysisService, batches *app.BatchService, runs ports.RunRepository, m *metrics.Metrics, logger *internal.Logger, opts Options) (*Server, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if opts.UploadMaxBytes <= 0 {
		opts.UploadMaxBytes = 10 << 20
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}

	s := &Server{
		router:   gin.New(),
		analysis: analysis,
		batches:  batches,
		reader:   excel.NewDataReader(logger),
		runs:     runs,
		metrics:  m,
		logger:   logger,
		opts:     opts,
	}

	if err := s.parseTemplates(embeddedTemplates); err != nil {
		return nil, err
	}

	s.router.MaxMultipartMemory = opts.UploadMaxBytes
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) parseTemplates(files fs.FS) error {
	tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(files, "templates/*.html")
	if err != nil {
		return errors.Wrap(err, "failed to parse templates")
	}
	s.templates = tmpl
	return nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/analyze", s.handleAnalyzeForm)
	s.router.POST("/batch", s.limitUpload(), s.handleBatchForm)

	api := s.router.Group("/api")
	api.POST("/analyze", s.handleAnalyzeAPI)
	api.GET("/analyze/export", s.handleAnalyzeExport)
	api.POST("/batch", s.limitUpload(), s.handleBatchAPI)
	api.POST("/batch/export", s.limitUpload(), s.handleBatchExport)
	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)
	api.GET("/runs/:id/export", s.handleExportRun)

	s.router.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server and blocks until it stops
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting karyoscore UI on http://%s", addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "server stopped")
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
