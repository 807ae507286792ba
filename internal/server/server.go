package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/agenthands/vectordb-crud/internal/core"
	"github.com/agenthands/vectordb-crud/internal/core/model"
	"github.com/agenthands/vectordb-crud/internal/vectorstore"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NextCursorHeader carries the listing cursor for the following page.
const NextCursorHeader = "X-Next-Cursor"

// RecordService is what the HTTP layer needs from core.Service.
type RecordService interface {
	CreateRecord(ctx context.Context, title, description string) (*model.Record, error)
	ListRecords(ctx context.Context, opts vectorstore.ListOptions) (*model.Page, error)
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	UpdateRecord(ctx context.Context, id, title, description string) (*model.Record, error)
	DeleteRecord(ctx context.Context, id string) error
	SearchRecords(ctx context.Context, query string) ([]model.Match, error)
	Summarize(ctx context.Context, id string) (model.Summary, error)
	TextToSpeech(ctx context.Context, id string) (model.Media, error)
	TextToImage(ctx context.Context, id string) (model.Media, error)
	Classify(ctx context.Context, id string) ([]model.Label, error)
}

// RequestObserver receives one observation per handled request.
type RequestObserver interface {
	ObserveRequest(method, route string, code int, duration time.Duration)
}

type Server struct {
	Service RecordService
	Logger  *slog.Logger

	// Metrics and MetricsHandler are optional.
	Metrics        RequestObserver
	MetricsHandler http.Handler
}

func NewServer(svc RecordService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Service: svc,
		Logger:  logger,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(cors.Default())

	r.POST("/create-record", s.CreateRecord)
	r.GET("/get-all-records", s.GetAllRecords)
	r.GET("/get-record/:id", s.GetRecord)
	r.POST("/update-record/:id", s.UpdateRecord)
	r.DELETE("/delete-record/:id", s.DeleteRecord)
	r.GET("/search-record/:query", s.SearchRecords)

	r.GET("/summarize/:id", s.Summarize)
	r.GET("/convert-text-to-speech/:id", s.TextToSpeech)
	r.GET("/convert-text-to-image/:id", s.TextToImage)
	r.GET("/feature-extract/:id", s.FeatureExtract)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(s.MetricsHandler))
	}

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		code := c.Writer.Status()

		if s.Metrics != nil {
			s.Metrics.ObserveRequest(c.Request.Method, route, code, elapsed)
		}

		attrs := []any{
			"method", c.Request.Method,
			"route", route,
			"status", code,
			"duration", elapsed,
		}
		level := slog.LevelInfo
		if code >= http.StatusInternalServerError {
			level = slog.LevelError
			if err := c.Errors.Last(); err != nil {
				attrs = append(attrs, "error", err.Err)
			}
		}
		s.Logger.Log(c.Request.Context(), level, "request", attrs...)
	}
}

// writeError maps service errors onto status codes. The body is always
// {"error": message}. Unclassified errors are attached to the context and
// logged once by requestLogger.
func (s *Server) writeError(c *gin.Context, err error) {
	var ie *core.InferenceError

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		code = http.StatusNotFound
	case errors.As(err, &ie):
		code = http.StatusBadGateway
	default:
		_ = c.Error(err)
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

type RecordRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) bindRecord(c *gin.Context) (RecordRequest, bool) {
	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return req, false
	}
	return req, true
}

func (s *Server) CreateRecord(c *gin.Context) {
	req, ok := s.bindRecord(c)
	if !ok {
		return
	}

	rec, err := s.Service.CreateRecord(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Record created successfully",
		"response": gin.H{"id": rec.ID},
	})
}

func (s *Server) GetAllRecords(c *gin.Context) {
	opts := vectorstore.ListOptions{Cursor: c.Query("cursor")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		opts.Limit = limit
	}

	page, err := s.Service.ListRecords(c.Request.Context(), opts)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if page.NextCursor != "" {
		c.Header(NextCursorHeader, page.NextCursor)
	}
	c.JSON(http.StatusOK, page.Items)
}

func (s *Server) GetRecord(c *gin.Context) {
	rec, err := s.Service.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"record": rec})
}

func (s *Server) UpdateRecord(c *gin.Context) {
	req, ok := s.bindRecord(c)
	if !ok {
		return
	}

	if _, err := s.Service.UpdateRecord(c.Request.Context(), c.Param("id"), req.Title, req.Description); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Record updated successfully"})
}

func (s *Server) DeleteRecord(c *gin.Context) {
	if err := s.Service.DeleteRecord(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Record deleted successfully"})
}

func (s *Server) SearchRecords(c *gin.Context) {
	matches, err := s.Service.SearchRecords(c.Request.Context(), c.Param("query"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": matches})
}

func (s *Server) Summarize(c *gin.Context) {
	sum, err := s.Service.Summarize(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": sum})
}

func (s *Server) TextToSpeech(c *gin.Context) {
	id := c.Param("id")
	media, err := s.Service.TextToSpeech(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	filename := fmt.Sprintf("%s.mp3", id)
	if media.Artifact != nil {
		filename = path.Base(media.Artifact.Name)
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, media.ContentType, media.Data)
}

func (s *Server) TextToImage(c *gin.Context) {
	media, err := s.Service.TextToImage(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"blob":         base64.StdEncoding.EncodeToString(media.Data),
		"content_type": media.ContentType,
	})
}

func (s *Server) FeatureExtract(c *gin.Context) {
	labels, err := s.Service.Classify(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"features": labels})
}
