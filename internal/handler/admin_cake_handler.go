package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"ebake/internal/config"
	"ebake/internal/middleware"
	"ebake/internal/repository"
	"ebake/internal/usecase"
	"ebake/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// 商品の管理API（/cakes 配下、admin のみ）
type AdminCakeHandler struct {
	uc            *usecase.CakeUsecase
	resp          Responder
	maxImageBytes int64
}

// DI
func NewAdminCakeHandler(uc *usecase.CakeUsecase, resp Responder, maxImageBytes int64) *AdminCakeHandler {
	return &AdminCakeHandler{uc: uc, resp: resp, maxImageBytes: maxImageBytes}
}

// adminを登録
// /cakes は公開ルートと同居するのでグループではなくルート単位で守る
func (h *AdminCakeHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	guard := []echo.MiddlewareFunc{middleware.AuthJWT(cfg), middleware.AdminRoleGuard()}

	e.GET("/cakes/admin/all", h.list, guard...)
	e.POST("/cakes", h.create, guard...)
	e.PUT("/cakes/:id", h.update, guard...)
	e.DELETE("/cakes/:id", h.delete, guard...)
	e.PATCH("/cakes/:id/availability", h.setAvailability, guard...)
}

// GET /cakes/admin/all
func (h *AdminCakeHandler) list(c echo.Context) error {
	out, err := h.uc.ListAdmin(c.Request().Context(), catalogParams(c))
	if err != nil {
		return h.resp.writeError(c, err)
	}
	return h.resp.ok(c, "", toCakeListResponse(out))
}

// POST /cakes（multipart: 各項目 + image）
func (h *AdminCakeHandler) create(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return h.resp.unauthorized(c)
	}

	form, err := bindCakeForm(c)
	if err != nil {
		return h.resp.writeError(c, err)
	}

	img, closeImg, err := h.imageFromRequest(c)
	if err != nil {
		return h.resp.writeError(c, err)
	}
	defer closeImg()

	cake, err := h.uc.Create(c.Request().Context(), actor, form, img)
	if err != nil {
		return h.resp.writeError(c, err)
	}
	return h.resp.created(c, "Cake created successfully", cakeResponse{Cake: cake})
}

// PUT /cakes/:id（imageは任意）
func (h *AdminCakeHandler) update(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return h.resp.unauthorized(c)
	}

	form, err := bindCakeForm(c)
	if err != nil {
		return h.resp.writeError(c, err)
	}

	img, closeImg, err := h.imageFromRequest(c)
	if err != nil {
		return h.resp.writeError(c, err)
	}
	defer closeImg()

	cake, err := h.uc.Update(c.Request().Context(), actor, c.Param("id"), form, img)
	if err != nil {
		return h.resp.writeError(c, err)
	}
	return h.resp.ok(c, "Cake updated successfully", cakeResponse{Cake: cake})
}

// DELETE /cakes/:id
func (h *AdminCakeHandler) delete(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return h.resp.unauthorized(c)
	}

	if err := h.uc.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return h.resp.writeError(c, err)
	}
	return h.resp.ok(c, "Cake deleted successfully", nil)
}

// PATCH /cakes/:id/availability
func (h *AdminCakeHandler) setAvailability(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return h.resp.unauthorized(c)
	}

	var req validator.AvailabilityRequest
	if err := c.Bind(&req); err != nil {
		return h.resp.badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return h.resp.badRequest(c, "isAvailable is required",
			usecase.FieldError{Field: "isAvailable", Message: "is required"})
	}

	cake, err := h.uc.SetAvailability(c.Request().Context(), actor, c.Param("id"), *req.IsAvailable)
	if err != nil {
		return h.resp.writeError(c, err)
	}

	msg := "Cake deactivated successfully"
	if cake.IsAvailable {
		msg = "Cake activated successfully"
	}
	return h.resp.ok(c, msg, cakeResponse{Cake: cake})
}

// 画像（任意）。image/* かつ上限以下のみ受け付ける。
func (h *AdminCakeHandler) imageFromRequest(c echo.Context) (*repository.ImageUpload, func(), error) {
	noop := func() {}

	if !isMultipart(c) {
		return nil, noop, nil
	}

	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, invalidField("image", "could not read uploaded image")
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, noop, invalidField("image", "only image files are allowed")
	}
	if h.maxImageBytes > 0 && fh.Size > h.maxImageBytes {
		return nil, noop, invalidField("image", "file too large, maximum size is "+strconv.FormatInt(h.maxImageBytes/(1024*1024), 10)+"MB")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, noop, invalidField("image", "could not read uploaded image")
	}

	return &repository.ImageUpload{
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Body:        f,
	}, func() { f.Close() }, nil
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

func invalidField(field string, message string) error {
	return &usecase.HTTPError{
		Status:  http.StatusBadRequest,
		Kind:    usecase.KindValidationFailed,
		Message: message,
		Details: []usecase.FieldError{{Field: field, Message: message}},
	}
}

// multipartでもJSONでも受け取る。
// multipartの配列項目（weightOptions/tags/flavors）はJSON文字列で来る。
func bindCakeForm(c echo.Context) (validator.CakeForm, error) {
	if !isMultipart(c) {
		var form validator.CakeForm
		if err := c.Bind(&form); err != nil {
			return validator.CakeForm{}, invalidField("body", "invalid body")
		}
		return form, nil
	}

	mf, err := c.MultipartForm()
	if err != nil {
		return validator.CakeForm{}, invalidField("body", "invalid multipart form")
	}
	return parseCakeMultipart(mf)
}

func parseCakeMultipart(mf *multipart.Form) (validator.CakeForm, error) {
	var form validator.CakeForm
	var bad []usecase.FieldError

	get := func(key string) (string, bool) {
		vs, ok := mf.Value[key]
		if !ok || len(vs) == 0 {
			return "", false
		}
		return vs[0], true
	}

	if v, ok := get("name"); ok {
		form.Name = &v
	}
	if v, ok := get("description"); ok {
		form.Description = &v
	}
	if v, ok := get("category"); ok && strings.TrimSpace(v) != "" {
		form.Category = &v
	}

	if v, ok := get("price"); ok && strings.TrimSpace(v) != "" {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			bad = append(bad, usecase.FieldError{Field: "price", Message: "must be a number"})
		} else {
			form.Price = &d
		}
	}

	if v, ok := get("isAvailable"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			bad = append(bad, usecase.FieldError{Field: "isAvailable", Message: "must be true or false"})
		} else {
			form.IsAvailable = &b
		}
	}

	if v, ok := get("weightOptions"); ok && strings.TrimSpace(v) != "" {
		var opts []validator.WeightOptionForm
		if err := json.Unmarshal([]byte(v), &opts); err != nil {
			bad = append(bad, usecase.FieldError{Field: "weightOptions", Message: "must be a JSON array"})
		} else {
			if opts == nil {
				opts = []validator.WeightOptionForm{}
			}
			form.WeightOptions = opts
		}
	}

	if v, ok := get("tags"); ok {
		form.Tags = parseStringList(v)
	}

	// flavors が無ければ旧フィールド flavor を使う
	if v, ok := get("flavors"); ok {
		form.Flavors = parseStringList(v)
	} else if v, ok := get("flavor"); ok {
		form.Flavors = []string{v}
	}

	if len(bad) > 0 {
		return validator.CakeForm{}, &usecase.HTTPError{
			Status:  http.StatusBadRequest,
			Kind:    usecase.KindValidationFailed,
			Message: "validation failed",
			Details: bad,
		}
	}
	return form, nil
}

// JSON配列 → カンマ区切り → 単一値 の順に解釈する
func parseStringList(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return []string{}
	}

	var list []string
	if err := json.Unmarshal([]byte(s), &list); err == nil {
		if list == nil {
			return []string{}
		}
		return list
	}

	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return []string{s}
}
