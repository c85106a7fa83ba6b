package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// DBの疎通確認（*sql.DB を想定）
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db   Pinger
	resp Responder
}

func NewHealthHandler(db Pinger, resp Responder) *HealthHandler {
	return &HealthHandler{db: db, resp: resp}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.health)
}

type healthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
}

// GET /health
func (h *HealthHandler) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		if h.resp.Log != nil {
			h.resp.Log.WithError(err).Warn("health check failed")
		}
		return c.JSON(http.StatusServiceUnavailable, Envelope{
			Success: false,
			Message: "database unreachable",
			Data:    healthResponse{Status: "degraded", DB: "down"},
		})
	}
	return h.resp.ok(c, "", healthResponse{Status: "ok", DB: "up"})
}
