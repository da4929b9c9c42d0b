package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"tutorattend/internal/httpmiddleware"
)

// Paths served without access logging or rate limiting.
var systemPaths = []string{"/health", "/healthz", "/metrics"}

// RouterConfig holds what NewRouter needs besides the handlers.
type RouterConfig struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	// Limiter is optional; nil disables rate limiting.
	Limiter httpmiddleware.Limiter
}

// NewRouter wires middleware and routes.
func NewRouter(cfg RouterConfig, h *Handler, health *Health) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.RequestLogger(cfg.Logger, systemPaths...))
	r.Use(httpmiddleware.Metrics())
	r.Use(httpmiddleware.CORS(cfg.AllowedOrigins))
	r.Use(httpmiddleware.SecurityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", health.check)
	r.GET("/healthz", health.check)

	api := r.Group("/")
	if cfg.Limiter != nil {
		api.Use(httpmiddleware.RateLimit(cfg.Limiter))
	}

	api.GET("/students", h.listStudents)
	api.POST("/students", h.createStudent)
	api.GET("/students/:id", h.getStudent)
	api.PUT("/students/:id", h.updateStudent)

	api.GET("/sessions", h.listSessions)
	api.POST("/sessions", h.createSession)

	api.GET("/attendance", h.listAttendance)
	api.POST("/attendance", h.markAttendance)

	api.GET("/reports/summary", h.summary)

	return r
}
