package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suitableit/smmdoc-sub003/internal/interfaces/http/dto"
)

// Pinger reports whether the backing store answers
type Pinger interface {
	Ping() error
}

// HealthHandler serves the liveness endpoint
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a HealthHandler
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Register mounts the health route on the engine root, outside the API prefix
func (h *HealthHandler) Register(engine *gin.Engine) {
	engine.GET("/healthz", h.Healthz)
}

// Healthz reports process and database health
func (h *HealthHandler) Healthz(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(dto.ErrCodeInternal, "database unreachable"))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
}
