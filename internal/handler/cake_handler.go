package handler

import (
	"ebake/internal/domain/model"
	"ebake/internal/repository"
	"ebake/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cakes の公開API
type CakeHandler struct {
	uc   *usecase.CakeUsecase
	resp Responder
}

// DI
func NewCakeHandler(uc *usecase.CakeUsecase, resp Responder) *CakeHandler {
	return &CakeHandler{uc: uc, resp: resp}
}

// 公開商品のルートを登録
func (h *CakeHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/cakes", h.list)
	e.GET("/cakes/:id", h.detail)
}

type cakePagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCakes  int64 `json:"totalCakes"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

type cakeFilters struct {
	Flavors    []string `json:"flavors"`
	Categories []string `json:"categories"`
}

type cakeListResponse struct {
	Cakes      []model.Cake   `json:"cakes"`
	Pagination cakePagination `json:"pagination"`
	Filters    *cakeFilters   `json:"filters,omitempty"`
}

type cakeResponse struct {
	Cake model.Cake `json:"cake"`
}

func catalogParams(c echo.Context) usecase.CatalogQueryParams {
	return usecase.CatalogQueryParams{
		Page:        c.QueryParam("page"),
		Limit:       c.QueryParam("limit"),
		Search:      c.QueryParam("search"),
		Flavor:      c.QueryParam("flavor"),
		MinPrice:    c.QueryParam("minPrice"),
		MaxPrice:    c.QueryParam("maxPrice"),
		Category:    c.QueryParam("category"),
		IsAvailable: c.QueryParam("isAvailable"),
		SortBy:      c.QueryParam("sortBy"),
		SortOrder:   c.QueryParam("sortOrder"),
	}
}

func toCakeListResponse(out usecase.CakeListOutput) cakeListResponse {
	cakes := out.Cakes
	if cakes == nil {
		cakes = []model.Cake{}
	}
	res := cakeListResponse{
		Cakes: cakes,
		Pagination: cakePagination{
			CurrentPage: out.Pagination.CurrentPage,
			TotalPages:  out.Pagination.TotalPages,
			TotalCakes:  out.Pagination.Total,
			HasNext:     out.Pagination.HasNext,
			HasPrev:     out.Pagination.HasPrev,
		},
	}
	if out.Filters != nil {
		res.Filters = toCakeFilters(*out.Filters)
	}
	return res
}

func toCakeFilters(f repository.CakeFilterOptions) *cakeFilters {
	cf := &cakeFilters{Flavors: f.Flavors, Categories: f.Categories}
	if cf.Flavors == nil {
		cf.Flavors = []string{}
	}
	if cf.Categories == nil {
		cf.Categories = []string{}
	}
	return cf
}

// GET /cakes
func (h *CakeHandler) list(c echo.Context) error {
	out, err := h.uc.ListPublic(c.Request().Context(), catalogParams(c))
	if err != nil {
		return h.resp.writeError(c, err)
	}
	return h.resp.ok(c, "", toCakeListResponse(out))
}

// GET /cakes/:id
func (h *CakeHandler) detail(c echo.Context) error {
	cake, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.resp.writeError(c, err)
	}
	return h.resp.ok(c, "", cakeResponse{Cake: cake})
}
