package server

import (
	"ebake/internal/config"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	if h.Health != nil {
		h.Health.RegisterRoutes(e)
	}

	// 管理者ルート
	h.AdminCake.RegisterRoutes(e, cfg)
	h.Cake.RegisterRoutes(e)
	h.Order.RegisterRoutes(e, cfg)
	h.AuditLog.RegisterRoutes(e, cfg)
}
