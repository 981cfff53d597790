package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/miradorstack/mirador-status/internal/engine"
	"github.com/miradorstack/mirador-status/internal/models"
	"github.com/miradorstack/mirador-status/internal/repo"
	"github.com/miradorstack/mirador-status/internal/services"
)

// maxRecordsBody caps POSTed record payloads.
const maxRecordsBody = 8 << 20

// Dashboard is the behaviour the HTTP API needs from the dashboard service.
type Dashboard interface {
	Snapshot() (services.Snapshot, error)
	Group(id string) (models.Group, bool)
	Transform(records []models.RawService) engine.Result
	Refresh(ctx context.Context) error
	Stats() services.Stats
}

// NewRouter builds the dashboard HTTP API:
//
//	GET  /healthz
//	GET  /api/v1/groups        latest snapshot
//	GET  /api/v1/groups/:id    one group of the latest snapshot
//	POST /api/v1/groups        groups for the posted records
//	GET  /api/v1/stats         refresh statistics
//	POST /api/v1/refresh       reload the record source now
func NewRouter(logger *slog.Logger, dashboard Dashboard) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{logger: logger, dashboard: dashboard}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.GET("/groups", h.listGroups)
		v1.GET("/groups/:id", h.getGroup)
		v1.POST("/groups", h.transform)
		v1.GET("/stats", h.stats)
		v1.POST("/refresh", h.refresh)
	}
	return r
}

type handlers struct {
	logger    *slog.Logger
	dashboard Dashboard
}

func (h *handlers) listGroups(c *gin.Context) {
	snap, err := h.dashboard.Snapshot()
	if err != nil {
		jsonErr(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) getGroup(c *gin.Context) {
	g, ok := h.dashboard.Group(c.Param("id"))
	if !ok {
		jsonErr(c, http.StatusNotFound, "group not found")
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *handlers) transform(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxRecordsBody)
	records, err := repo.DecodeRecords(body)
	if err != nil {
		jsonErr(c, http.StatusBadRequest, err.Error())
		return
	}
	res := h.dashboard.Transform(records)
	c.JSON(http.StatusOK, gin.H{
		"groups":                 res.Groups,
		"serviceCount":           res.Services,
		"unresolvedDependencies": unresolvedView(res.Unresolved()),
	})
}

func (h *handlers) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.dashboard.Stats())
}

func (h *handlers) refresh(c *gin.Context) {
	if err := h.dashboard.Refresh(c.Request.Context()); err != nil {
		if errors.Is(err, context.Canceled) {
			jsonErr(c, http.StatusRequestTimeout, "refresh cancelled")
			return
		}
		jsonErr(c, http.StatusBadGateway, err.Error())
		return
	}
	snap, err := h.dashboard.Snapshot()
	if err != nil {
		jsonErr(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"generatedAt": snap.GeneratedAt, "groups": len(snap.Groups)})
}

type unresolvedDependency struct {
	Service  string `json:"service"`
	Declared string `json:"declared"`
	Invalid  bool   `json:"invalidPattern"`
}

func unresolvedView(resolutions []engine.Resolution) []unresolvedDependency {
	out := make([]unresolvedDependency, 0, len(resolutions))
	for _, r := range resolutions {
		out = append(out, unresolvedDependency{Service: r.Service, Declared: r.Declared, Invalid: r.Invalid})
	}
	return out
}

func jsonErr(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}
