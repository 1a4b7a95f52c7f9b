// Package server exposes report generation over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/ppiankov/reporter/internal/logger"
	"github.com/ppiankov/reporter/internal/model"
	"github.com/ppiankov/reporter/internal/pipeline"
	"github.com/ppiankov/reporter/internal/realize"
	"github.com/ppiankov/reporter/internal/worker"
)

// Reporter generates reports
type Reporter interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Response, error)
	Languages() []string
}

// ReportRequest is the body of POST /api/report/json. Data is either the
// message JSON itself or a string holding it.
type ReportRequest struct {
	Language string          `json:"language"`
	Format   string          `json:"format"`
	Data     json.RawMessage `json:"data"`
	Links    bool            `json:"links"`
}

// ReportForm is the form-encoded body of POST /api/report
type ReportForm struct {
	Language string `form:"language"`
	Format   string `form:"format"`
	Data     string `form:"data"`
	Links    bool   `form:"links"`
}

// Server is the HTTP API
type Server struct {
	cfg      model.ServerConfig
	reporter Reporter
	log      *logger.Logger
	engine   *gin.Engine
}

// New creates the server and its routes
func New(cfg model.ServerConfig, reporter Reporter, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{cfg: cfg, reporter: reporter, log: log}
	s.engine = s.router()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(s.log))
	if len(s.cfg.AllowOrigins) > 0 {
		r.Use(CORS(s.cfg.AllowOrigins))
	}

	r.GET("/health", s.health)

	api := r.Group("/api")
	api.Use(RateLimit(worker.NewLimiter(s.cfg.RequestsPerSecond, s.cfg.Burst)))
	{
		api.GET("/languages", s.languages)
		api.GET("/formats", s.formats)
		api.POST("/report", s.reportForm)
		api.POST("/report/json", s.reportJSON)
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": s.reporter.Languages()})
}

func (s *Server) formats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"formats": realize.Formats()})
}

// reportForm accepts form fields; JSON bodies are passed on to reportJSON
func (s *Server) reportForm(c *gin.Context) {
	if c.ContentType() == binding.MIMEJSON {
		s.reportJSON(c)
		return
	}

	var form ReportForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form: " + err.Error()})
		return
	}
	s.generate(c, pipeline.Request{
		Language: form.Language,
		Format:   form.Format,
		Data:     []byte(form.Data),
		Links:    form.Links,
	})
}

func (s *Server) reportJSON(c *gin.Context) {
	var body ReportRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	data := []byte(body.Data)
	var inner string
	if err := json.Unmarshal(body.Data, &inner); err == nil {
		data = []byte(inner)
	}

	s.generate(c, pipeline.Request{
		Language: body.Language,
		Format:   body.Format,
		Data:     data,
		Links:    body.Links,
	})
}

func (s *Server) generate(c *gin.Context, req pipeline.Request) {
	resp, err := s.reporter.Run(c.Request.Context(), req)
	switch {
	case errors.Is(err, pipeline.ErrUnsupportedLanguage), errors.Is(err, pipeline.ErrUnknownFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		s.log.Error("report generation failed", "error", err, "request_id", c.GetString("request_id"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report generation failed"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
