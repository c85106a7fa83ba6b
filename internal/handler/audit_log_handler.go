package handler

import (
	"ebake/internal/config"
	"ebake/internal/domain/model"
	"ebake/internal/middleware"
	"ebake/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuditLogHandler struct {
	uc   *usecase.AuditLogUsecase
	resp Responder
}

func NewAuditLogHandler(uc *usecase.AuditLogUsecase, resp Responder) *AuditLogHandler {
	return &AuditLogHandler{uc: uc, resp: resp}
}

func (h *AuditLogHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/audit-logs", h.list)
}

type auditLogListResponse struct {
	Logs []model.AuditLog `json:"logs"`
}

// GET /admin/audit-logs
func (h *AuditLogHandler) list(c echo.Context) error {
	logs, err := h.uc.List(c.Request().Context(), usecase.AuditLogListParams{
		ActorUserID:  c.QueryParam("actor_user_id"),
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		ResourceID:   c.QueryParam("resource_id"),
		From:         c.QueryParam("from"),
		To:           c.QueryParam("to"),
		Limit:        c.QueryParam("limit"),
		Offset:       c.QueryParam("offset"),
	})
	if err != nil {
		return h.resp.writeError(c, err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return h.resp.ok(c, "", auditLogListResponse{Logs: logs})
}
