package handler

import (
	"ebake/internal/config"
	"ebake/internal/middleware"
	"ebake/internal/usecase"
	"ebake/internal/validator"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc      *usecase.OrderUsecase
	adminUC *usecase.AdminOrderUsecase
	resp    Responder
}

func NewOrderHandler(uc *usecase.OrderUsecase, adminUC *usecase.AdminOrderUsecase, resp Responder) *OrderHandler {
	return &OrderHandler{uc: uc, adminUC: adminUC, resp: resp}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("", h.create)
	g.GET("/my-orders", h.mine)
	g.GET("/admin/all", h.all, middleware.AdminRoleGuard())
	g.GET("/:id", h.detail)
	g.PATCH("/:id/status", h.updateStatus, middleware.AdminRoleGuard())
}

type orderPagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalOrders int64 `json:"totalOrders"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

type orderListResponse struct {
	Orders     []usecase.OrderView `json:"orders"`
	Pagination orderPagination     `json:"pagination"`
}

type orderResponse struct {
	Order usecase.OrderView `json:"order"`
}

func toOrderListResponse(out usecase.OrderListOutput) orderListResponse {
	orders := out.Orders
	if orders == nil {
		orders = []usecase.OrderView{}
	}
	return orderListResponse{
		Orders: orders,
		Pagination: orderPagination{
			CurrentPage: out.Pagination.CurrentPage,
			TotalPages:  out.Pagination.TotalPages,
			TotalOrders: out.Pagination.Total,
			HasNext:     out.Pagination.HasNext,
			HasPrev:     out.Pagination.HasPrev,
		},
	}
}

func orderListParams(c echo.Context) usecase.OrderListParams {
	return usecase.OrderListParams{
		Page:      c.QueryParam("page"),
		Limit:     c.QueryParam("limit"),
		Status:    c.QueryParam("status"),
		Search:    c.QueryParam("search"),
		StartDate: c.QueryParam("startDate"),
		EndDate:   c.QueryParam("endDate"),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: c.QueryParam("sortOrder"),
	}
}

// POST /orders
func (h *OrderHandler) create(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return h.resp.unauthorized(c)
	}

	//管理者はbodyを読む前に403（壊れたカートでも同じ）
	if err := h.uc.CheckCanOrder(actor); err != nil {
		return h.resp.writeError(c, err)
	}

	var req validator.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return h.resp.badRequest(c, "invalid body")
	}

	//検証はusecase側
	out, err := h.uc.PlaceOrder(c.Request().Context(), actor, req)
	if err != nil {
		return h.resp.writeError(c, err)
	}

	return h.resp.created(c, "Order placed successfully", orderResponse{Order: out})
}

// GET /orders/my-orders
func (h *OrderHandler) mine(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return h.resp.unauthorized(c)
	}

	out, err := h.uc.ListMine(c.Request().Context(), actor, orderListParams(c))
	if err != nil {
		return h.resp.writeError(c, err)
	}
	return h.resp.ok(c, "", toOrderListResponse(out))
}

// GET /orders/admin/all
func (h *OrderHandler) all(c echo.Context) error {
	out, err := h.uc.ListAll(c.Request().Context(), orderListParams(c))
	if err != nil {
		return h.resp.writeError(c, err)
	}
	return h.resp.ok(c, "", toOrderListResponse(out))
}

// GET /orders/:id
func (h *OrderHandler) detail(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return h.resp.unauthorized(c)
	}

	out, err := h.uc.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return h.resp.writeError(c, err)
	}
	return h.resp.ok(c, "", orderResponse{Order: out})
}

// PATCH /orders/:id/status
func (h *OrderHandler) updateStatus(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return h.resp.unauthorized(c)
	}

	var req validator.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return h.resp.badRequest(c, "invalid body")
	}

	out, err := h.adminUC.UpdateStatus(c.Request().Context(), actor, c.Param("id"), req)
	if err != nil {
		return h.resp.writeError(c, err)
	}
	return h.resp.ok(c, out.Message, orderResponse{Order: out.Order})
}
