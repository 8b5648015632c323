// Package server exposes the audit pipeline over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/contract-auditor/internal/export"
	"github.com/joseph-ayodele/contract-auditor/internal/pipeline"
	"github.com/joseph-ayodele/contract-auditor/internal/repository"
)

// MaxContractRunes bounds contractText on /api/audit.
const MaxContractRunes = 400_000

type Config struct {
	Pipeline         *pipeline.Pipeline
	DB               *repository.DB             // optional, used by /healthz
	Audits           repository.AuditRepository // nil disables the history routes
	Logger           *zap.Logger
	AnonymizeDefault bool
	MaxUploadBytes   int64
}

type Handler struct {
	pipeline         *pipeline.Pipeline
	db               *repository.DB
	audits           repository.AuditRepository
	exporter         *export.Service
	logger           *zap.Logger
	anonymizeDefault bool
}

// NewRouter builds the gin engine with every route and middleware installed.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	h := &Handler{
		pipeline:         cfg.Pipeline,
		db:               cfg.DB,
		audits:           cfg.Audits,
		logger:           cfg.Logger,
		anonymizeDefault: cfg.AnonymizeDefault,
	}
	if cfg.Audits != nil {
		h.exporter = export.NewService(cfg.Audits, nil)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadBytes
	r.Use(RequestID(), Recovery(cfg.Logger), RequestLogger(cfg.Logger))

	r.GET("/healthz", h.Health)

	api := r.Group("/api", BodyLimit(cfg.MaxUploadBytes))
	{
		api.POST("/parse", h.Parse)
		api.POST("/audit", h.AuditText)
		api.POST("/analyze", h.Analyze)

		if cfg.Audits != nil {
			audits := api.Group("/audits")
			{
				audits.GET("", h.ListAudits)
				audits.GET("/:id", h.GetAudit)
				audits.GET("/:id/export", h.ExportAudit)
			}
		}
	}
	return r
}

func (h *Handler) Health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context(), 2*time.Second); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
