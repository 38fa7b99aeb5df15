package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/velvet/backend/internal/infrastructure/logger"
)

// Pinger checks a dependency's liveness
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// HealthHandler reports service health
type HealthHandler struct {
	db  Pinger
	now func() time.Time
}

// NewHealthHandler creates a new HealthHandler. db may be nil when the
// ledger is disabled.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, now: time.Now}
}

// Check godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Checks:    map[string]string{},
	}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		err := h.db.PingContext(ctx)
		cancel()
		if err != nil {
			logger.GetGinLogger(c).Warn("Database health check failed", zap.Error(err))
			resp.Status = "unhealthy"
			resp.Checks["database"] = "unhealthy"
			status = http.StatusServiceUnavailable
		} else {
			resp.Checks["database"] = "healthy"
		}
	}

	c.JSON(status, resp)
}
