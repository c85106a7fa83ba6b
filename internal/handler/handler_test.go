package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ebake/internal/config"
	"ebake/internal/domain/model"
	"ebake/internal/repository"
	"ebake/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "handler-secret"
	testCakeID  = "6f1c2a7e-9a43-4c1b-8f0e-2d3b4a5c6d7e"
	testUserID  = "0b7e5d2c-1f4a-4e8b-9c3d-5a6b7c8d9e0f"
	testAdminID = "c9e8d7f6-a5b4-4c3d-9e2f-1a0b9c8d7e6f"
)

// =====================
// stubs
// =====================

// 一覧と1件取得だけを返す商品リポジトリ
type stubCakeRepo struct {
	cakes   []model.Cake
	listErr error
}

func (r *stubCakeRepo) List(ctx context.Context, q repository.CakeListQuery) ([]model.Cake, int64, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	return r.cakes, int64(len(r.cakes)), nil
}

func (r *stubCakeRepo) FilterOptions(ctx context.Context) (repository.CakeFilterOptions, error) {
	return repository.CakeFilterOptions{Flavors: []string{"Chocolate"}}, nil
}

func (r *stubCakeRepo) FindByID(ctx context.Context, id string) (model.Cake, error) {
	for _, c := range r.cakes {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Cake{}, repository.ErrNotFound
}

func (r *stubCakeRepo) FindByIDsUnscoped(ctx context.Context, ids []string) ([]model.Cake, error) {
	return r.cakes, nil
}

func (r *stubCakeRepo) Create(ctx context.Context, c model.Cake) (model.Cake, error) {
	panic("not used in handler tests")
}

func (r *stubCakeRepo) Update(ctx context.Context, c model.Cake) (model.Cake, error) {
	panic("not used in handler tests")
}

func (r *stubCakeRepo) SetAvailability(ctx context.Context, id string, available bool) (model.Cake, error) {
	panic("not used in handler tests")
}

func (r *stubCakeRepo) SoftDelete(ctx context.Context, id string) error {
	panic("not used in handler tests")
}

type envelopeResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorBody      `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelopeResponse {
	t.Helper()
	var env envelopeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func bearer(t *testing.T, sub string, role string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + tok
}

func sampleCake() model.Cake {
	c := model.Cake{
		ID:          testCakeID,
		Name:        "Chocolate Truffle",
		Price:       decimal.NewFromInt(550),
		IsAvailable: true,
		Category:    model.CategoryBirthday,
		WeightOptions: []model.WeightOption{
			{Weight: model.Weight1kg, Price: decimal.NewFromInt(550)},
		},
	}
	c.SetFlavors([]string{"Chocolate"})
	return c
}

func newCakeEcho(cakes repository.CakeRepository) *echo.Echo {
	e := echo.New()
	uc := usecase.NewCakeUsecase(cakes, nil, nil, nil, nil)
	NewCakeHandler(uc, NewResponder(nil, false)).RegisterRoutes(e)
	NewAdminCakeHandler(uc, NewResponder(nil, false), 1024).RegisterRoutes(e, config.Config{JWTSecret: testSecret})
	return e
}

// =====================
// cakes
// =====================

func TestCakeHandler_List(t *testing.T) {
	e := newCakeEcho(&stubCakeRepo{cakes: []model.Cake{sampleCake()}})

	req := httptest.NewRequest(http.MethodGet, "/cakes?limit=500", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	var data struct {
		Cakes []struct {
			ID            string  `json:"id"`
			Price         float64 `json:"price"`
			AverageRating float64 `json:"averageRating"`
		} `json:"cakes"`
		Pagination struct {
			CurrentPage int   `json:"currentPage"`
			TotalPages  int   `json:"totalPages"`
			TotalCakes  int64 `json:"totalCakes"`
			HasNext     bool  `json:"hasNext"`
		} `json:"pagination"`
		Filters *struct {
			Flavors    []string `json:"flavors"`
			Categories []string `json:"categories"`
		} `json:"filters"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Cakes, 1)
	assert.Equal(t, 550.0, data.Cakes[0].Price)
	assert.Equal(t, int64(1), data.Pagination.TotalCakes)
	assert.Equal(t, 1, data.Pagination.TotalPages)
	require.NotNil(t, data.Filters)
	assert.Equal(t, []string{"Chocolate"}, data.Filters.Flavors)
	assert.Equal(t, []string{}, data.Filters.Categories)
}

func TestCakeHandler_List_StoreUnavailable(t *testing.T) {
	e := newCakeEcho(&stubCakeRepo{listErr: repository.ErrStoreUnavailable})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cakes", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, usecase.KindStoreUnavailable, env.Error.Kind)
	// 本番モードでは原因を出さない
	assert.Empty(t, env.Error.Cause)
}

func TestCakeHandler_Detail(t *testing.T) {
	e := newCakeEcho(&stubCakeRepo{cakes: []model.Cake{sampleCake()}})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cakes/"+testCakeID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, id := range []string{"not-a-uuid", "11111111-2222-4333-8444-555555555555"} {
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cakes/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
		assert.Equal(t, usecase.KindNotFound, decodeEnvelope(t, rec).Error.Kind)
	}
}

// 管理者一覧は /cakes/:id に吸われず、認可が必要
func TestAdminCakeHandler_ListRequiresAdmin(t *testing.T) {
	e := newCakeEcho(&stubCakeRepo{cakes: []model.Cake{sampleCake()}})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cakes/admin/all", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/cakes/admin/all", nil)
	req.Header.Set("Authorization", bearer(t, testUserID, "user"))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/cakes/admin/all", nil)
	req.Header.Set("Authorization", bearer(t, testAdminID, "admin"))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func multipartBody(t *testing.T, fields map[string]string, file string, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != "" {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="image"; filename="` + file + `"`}
		h["Content-Type"] = []string{contentType}
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

// 画像以外・大きすぎる画像はusecaseに渡す前に弾く
func TestAdminCakeHandler_Create_RejectsBadImage(t *testing.T) {
	e := newCakeEcho(&stubCakeRepo{})

	cases := []struct {
		name        string
		contentType string
		size        int
		message     string
	}{
		{"not an image", "application/pdf", 10, "only image files are allowed"},
		{"too large", "image/png", 2048, "file too large"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, ct := multipartBody(t, map[string]string{"name": "Mango Delight"}, "x.bin", tc.contentType, bytes.Repeat([]byte{1}, tc.size))
			req := httptest.NewRequest(http.MethodPost, "/cakes", body)
			req.Header.Set(echo.HeaderContentType, ct)
			req.Header.Set("Authorization", bearer(t, testAdminID, "admin"))
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Contains(t, env.Message, tc.message)
		})
	}
}

// 画像なしの作成 => IMAGE_REQUIRED
func TestAdminCakeHandler_Create_ImageRequired(t *testing.T) {
	e := newCakeEcho(&stubCakeRepo{})

	body, ct := multipartBody(t, map[string]string{"name": "Mango Delight", "flavors": `["Mango"]`}, "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/cakes", body)
	req.Header.Set(echo.HeaderContentType, ct)
	req.Header.Set("Authorization", bearer(t, testAdminID, "admin"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, usecase.KindImageRequired, decodeEnvelope(t, rec).Error.Kind)
}

// =====================
// multipart parsing
// =====================

func TestParseCakeMultipart(t *testing.T) {
	form, err := parseCakeMultipart(&multipart.Form{Value: map[string][]string{
		"name":          {"Mango Delight"},
		"price":         {"650.50"},
		"isAvailable":   {"false"},
		"weightOptions": {`[{"weight":"500g","price":650.5},{"weight":"1kg","price":"1200"}]`},
		"tags":          {"summer, fruity"},
		"flavor":        {"Mango"},
		"category":      {" "},
	}})
	require.NoError(t, err)

	assert.Equal(t, "Mango Delight", *form.Name)
	assert.True(t, decimal.RequireFromString("650.5").Equal(*form.Price))
	assert.False(t, *form.IsAvailable)
	require.Len(t, form.WeightOptions, 2)
	assert.True(t, decimal.NewFromInt(1200).Equal(*form.WeightOptions[1].Price))
	assert.Equal(t, []string{"summer", "fruity"}, form.Tags)
	// 旧フィールド flavor
	assert.Equal(t, []string{"Mango"}, form.Flavors)
	assert.Nil(t, form.Category)
	assert.Nil(t, form.Description)
}

func TestParseCakeMultipart_BadValues(t *testing.T) {
	_, err := parseCakeMultipart(&multipart.Form{Value: map[string][]string{
		"price":         {"six hundred"},
		"isAvailable":   {"nope"},
		"weightOptions": {"500g:650"},
	}})
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)

	fields := []string{}
	for _, d := range he.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"price", "isAvailable", "weightOptions"}, fields)
}

func TestParseStringList(t *testing.T) {
	assert.Equal(t, []string{"Chocolate", "Vanilla"}, parseStringList(`["Chocolate","Vanilla"]`))
	assert.Equal(t, []string{"Chocolate", "Vanilla"}, parseStringList("Chocolate, Vanilla,"))
	assert.Equal(t, []string{"Chocolate"}, parseStringList(" Chocolate "))
	assert.Equal(t, []string{}, parseStringList("  "))
	assert.Equal(t, []string{}, parseStringList("null"))
}

// =====================
// orders
// =====================

func newOrderEcho() *echo.Echo {
	e := echo.New()
	loc := time.FixedZone("IST", 5*3600+1800)
	orderUC := usecase.NewOrderUsecase(nil, nil, nil, nil, nil, loc, nil)
	adminUC := usecase.NewAdminOrderUsecase(nil, nil, nil, nil, nil)
	NewOrderHandler(orderUC, adminUC, NewResponder(nil, false)).RegisterRoutes(e, config.Config{JWTSecret: testSecret})
	return e
}

// 管理者の注文はbodyを読まずに403（bindできないbodyでも）
func TestOrderHandler_Create_AdminForbidden(t *testing.T) {
	bodies := map[string]string{
		"empty cart":        `{"items":[]}`,
		"quantity string":   `{"items":[{"cakeId":"` + testCakeID + `","quantity":"two","weight":"1kg"}]}`,
		"quantity fraction": `{"items":[{"cakeId":"` + testCakeID + `","quantity":1.5,"weight":"1kg"}]}`,
		"truncated json":    `{"items":`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			e := newOrderEcho()

			req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			req.Header.Set("Authorization", bearer(t, testAdminID, "admin"))
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, usecase.KindForbiddenRole, decodeEnvelope(t, rec).Error.Kind)
		})
	}
}

func TestOrderHandler_Create_InvalidJSON(t *testing.T) {
	e := newOrderEcho()

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"items":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", bearer(t, testUserID, "user"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, usecase.KindValidationFailed, decodeEnvelope(t, rec).Error.Kind)
}

func TestOrderHandler_Create_Unauthenticated(t *testing.T) {
	e := newOrderEcho()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// 理由なしのキャンセルはDBに触れずに400
func TestOrderHandler_UpdateStatus_MissingReason(t *testing.T) {
	e := newOrderEcho()

	req := httptest.NewRequest(http.MethodPatch, "/orders/a3d8c1f2-5b6e-4a7d-8c9b-0e1f2a3b4c5d/status",
		strings.NewReader(`{"status":"Cancelled","cancellationReason":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", bearer(t, testAdminID, "admin"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, usecase.KindMissingCancellationReason, decodeEnvelope(t, rec).Error.Kind)
}

func TestOrderHandler_UpdateStatus_UserForbidden(t *testing.T) {
	e := newOrderEcho()

	req := httptest.NewRequest(http.MethodPatch, "/orders/a3d8c1f2-5b6e-4a7d-8c9b-0e1f2a3b4c5d/status",
		strings.NewReader(`{"status":"Completed"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", bearer(t, testUserID, "user"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// =====================
// response
// =====================

func TestResponder_WriteError_DebugCause(t *testing.T) {
	e := echo.New()
	e.GET("/boom", func(c echo.Context) error {
		return NewResponder(nil, true).writeError(c, errors.New("db exploded"))
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, usecase.KindInternal, env.Error.Kind)
	assert.Equal(t, "db exploded", env.Error.Cause)
}

type failingPinger struct{ err error }

func (p failingPinger) PingContext(ctx context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	e := echo.New()
	NewHealthHandler(failingPinger{}, NewResponder(nil, false)).RegisterRoutes(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	e = echo.New()
	NewHealthHandler(failingPinger{err: errors.New("down")}, NewResponder(nil, false)).RegisterRoutes(e)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
