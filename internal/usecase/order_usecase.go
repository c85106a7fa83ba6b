package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ebake/internal/domain/model"
	repo "ebake/internal/repository"
	"ebake/internal/validator"

	"github.com/google/uuid"
)

const (
	MyOrdersLimit    = 10
	AdminOrdersLimit = 20
	MaxOrderLimit    = 50
)

type OrderUsecase struct {
	orders  repo.OrderRepository
	cakes   repo.CakeRepository
	ids     IDGenerator
	clock   Clock
	loc     *time.Location
	metrics OrderRecorder
	view    orderPresenter
}

// DI
// locは「明日」の計算と日付パラメータの解釈に使う
func NewOrderUsecase(
	orders repo.OrderRepository,
	cakes repo.CakeRepository,
	users repo.UserRepository,
	ids IDGenerator,
	clock Clock,
	loc *time.Location,
	metrics OrderRecorder,
) *OrderUsecase {
	if loc == nil {
		loc = time.Local
	}
	return &OrderUsecase{
		orders:  orders,
		cakes:   cakes,
		ids:     ids,
		clock:   clock,
		loc:     loc,
		metrics: recorderOrNop(metrics),
		view:    orderPresenter{cakes: cakes, users: users},
	}
}

// PlaceOrder は注文確定の唯一の経路。
// ロール→入力→配達日→明細の順に確認し、最初の違反で止める。書き込みは最後の1回だけ。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, actor model.Actor, req validator.PlaceOrderRequest) (OrderView, error) {
	if err := u.CheckCanOrder(actor); err != nil {
		return OrderView{}, err
	}

	req.Normalize()
	if err := validator.Struct(req); err != nil {
		return OrderView{}, u.reject(fromValidation(err))
	}

	delivery, ok := parseDate(req.EstimatedDelivery, u.loc)
	if !ok {
		return OrderView{}, u.reject(newValidationError("validation failed", []FieldError{
			{Field: "estimatedDelivery", Message: "must be a date (YYYY-MM-DD)"},
		}))
	}

	// サーバー時刻で一度だけ判定
	now := u.clock.Now()
	if delivery.Before(tomorrowMidnight(now, u.loc)) {
		return OrderView{}, u.reject(newKindError(http.StatusBadRequest, KindInvalidDeliveryDate,
			"delivery date must be at least 1 day from today"))
	}

	orderID := u.ids.NewID()

	// 明細ごとに今のカタログから価格を引き直す（クライアントの価格は使わない）
	items := make([]model.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		cake, err := u.cakes.FindByID(ctx, line.CakeID)
		if errors.Is(err, repo.ErrNotFound) {
			return OrderView{}, u.reject(newKindError(http.StatusBadRequest, KindCakeNotFound,
				fmt.Sprintf("cake with ID %s not found", line.CakeID)))
		}
		if err != nil {
			return OrderView{}, storeError(err, "error creating order")
		}

		if !cake.IsAvailable {
			return OrderView{}, u.reject(newKindError(http.StatusBadRequest, KindCakeUnavailable,
				fmt.Sprintf("cake %q is currently unavailable", cake.Name)))
		}

		weight := model.Weight(line.Weight)
		opt, ok := cake.FindWeightOption(weight)
		if !ok {
			return OrderView{}, u.reject(newKindError(http.StatusBadRequest, KindWeightOptionUnavailable,
				fmt.Sprintf("weight option %q not available for %q", line.Weight, cake.Name)))
		}

		//スナップショット
		items = append(items, model.OrderItem{
			OrderID:          orderID,
			CakeID:           cake.ID,
			CakeNameSnapshot: cake.Name,
			Quantity:         line.Quantity,
			Weight:           weight,
			Price:            opt.Price,
			CreatedAt:        now,
		})
	}

	// 金額列に収まらない合計は再送しても通らないので400
	total := model.SumLineItems(items)
	if !model.FitsAmount(total) {
		return OrderView{}, u.reject(newValidationError("order total is too large", []FieldError{
			{Field: "items", Message: "order total cannot exceed " + model.MaxAmount.String()},
		}))
	}

	order := model.Order{
		ID:          orderID,
		UserID:      actor.UserID,
		Items:       items,
		TotalAmount: total,
		CustomerInfo: model.CustomerInfo{
			Name:  req.CustomerInfo.Name,
			Phone: req.CustomerInfo.Phone,
			Email: req.CustomerInfo.Email,
		},
		DeliveryAddress: model.DeliveryAddress{
			Street:   req.DeliveryAddress.Street,
			Area:     req.DeliveryAddress.Area,
			City:     req.DeliveryAddress.City,
			Pincode:  req.DeliveryAddress.Pincode,
			Landmark: req.DeliveryAddress.Landmark,
		},
		Status:            model.OrderStatusPlaced,
		EstimatedDelivery: delivery,
		Notes:             req.Notes,
		OrderDate:         now,
	}

	// 注文＋明細を1回で書く
	created, err := u.orders.Create(ctx, order)
	if err != nil {
		return OrderView{}, u.reject(&HTTPError{
			Status:  http.StatusServiceUnavailable,
			Kind:    KindPersistence,
			Message: "could not save the order, please try again",
			Cause:   err,
		})
	}

	amount, _ := created.TotalAmount.Float64()
	u.metrics.OrderPlaced(amount, len(created.Items))

	return u.view.presentOne(ctx, created), nil
}

// 管理者は注文できない（カートの中身に関係なく）
// handlerはbodyを読む前にこれを呼ぶ
func (u *OrderUsecase) CheckCanOrder(actor model.Actor) error {
	if actor.IsAdmin() {
		return u.reject(newKindError(http.StatusForbidden, KindForbiddenRole,
			"admins cannot place orders, please use a customer account"))
	}
	return nil
}

func (u *OrderUsecase) reject(he *HTTPError) error {
	u.metrics.OrderRejected(string(he.Kind))
	return he
}

type OrderListParams struct {
	Page      string
	Limit     string
	Status    string
	Search    string
	StartDate string
	EndDate   string
	SortBy    string
	SortOrder string
}

type OrderListOutput struct {
	Orders     []OrderView
	Pagination Pagination
}

var orderSortFields = map[string]repo.OrderSortField{
	"createdAt":         repo.OrderSortCreatedAt,
	"totalAmount":       repo.OrderSortTotalAmount,
	"estimatedDelivery": repo.OrderSortEstimatedDelivery,
	"status":            repo.OrderSortStatus,
}

// GET /orders/my-orders
func (u *OrderUsecase) ListMine(ctx context.Context, actor model.Actor, p OrderListParams) (OrderListOutput, error) {
	userID := actor.UserID
	f := repo.OrderListFilter{
		Page:   parsePage(p.Page),
		Limit:  clampLimit(p.Limit, MyOrdersLimit, MaxOrderLimit),
		UserID: &userID,
	}
	if s := strings.TrimSpace(p.Status); s != "" {
		f.Statuses = []model.OrderStatus{model.OrderStatus(s)}
	}
	f.SortBy, f.SortDesc = resolveSort(p.SortBy, p.SortOrder, orderSortFields, repo.OrderSortCreatedAt)

	return u.list(ctx, f)
}

// GET /orders/admin/all
func (u *OrderUsecase) ListAll(ctx context.Context, p OrderListParams) (OrderListOutput, error) {
	f := repo.OrderListFilter{
		Page:  parsePage(p.Page),
		Limit: clampLimit(p.Limit, AdminOrdersLimit, MaxOrderLimit),
	}

	// 画面の "Pending" は "Order Placed" のこと
	if s := strings.TrimSpace(p.Status); s != "" {
		if strings.EqualFold(s, "Pending") {
			s = string(model.OrderStatusPlaced)
		}
		f.Statuses = []model.OrderStatus{model.OrderStatus(s)}
	}

	if s := strings.TrimSpace(p.Search); s != "" {
		f.SearchPattern = ContainsPattern(s)
	}

	// 読めない日付は無視
	if from, ok := parseDate(p.StartDate, u.loc); ok {
		f.From = &from
	}
	if to, ok := parseDate(p.EndDate, u.loc); ok {
		// 日付だけならその日の終わりまで含める
		if isDateOnly(p.EndDate) {
			to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		f.To = &to
	}

	f.SortBy, f.SortDesc = resolveSort(p.SortBy, p.SortOrder, orderSortFields, repo.OrderSortCreatedAt)

	return u.list(ctx, f)
}

func (u *OrderUsecase) list(ctx context.Context, f repo.OrderListFilter) (OrderListOutput, error) {
	orders, total, err := u.orders.List(ctx, f)
	if err != nil {
		return OrderListOutput{}, storeError(err, "error fetching orders")
	}

	views, err := u.view.present(ctx, orders)
	if err != nil {
		return OrderListOutput{}, storeError(err, "error fetching orders")
	}

	return OrderListOutput{
		Orders:     views,
		Pagination: newPagination(f.Page, f.Limit, total),
	}, nil
}

// GET /orders/:id
// 他人の注文は存在しない扱い。不正なIDも404。
func (u *OrderUsecase) Get(ctx context.Context, actor model.Actor, id string) (OrderView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return OrderView{}, newKindError(http.StatusNotFound, KindOrderNotFound, "order not found")
	}

	o, err := u.orders.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderView{}, newKindError(http.StatusNotFound, KindOrderNotFound, "order not found")
	}
	if err != nil {
		return OrderView{}, storeError(err, "error fetching order")
	}

	if !actor.IsAdmin() && o.UserID != actor.UserID {
		return OrderView{}, newKindError(http.StatusNotFound, KindOrderNotFound, "order not found")
	}

	views, err := u.view.present(ctx, []model.Order{o})
	if err != nil {
		return OrderView{}, storeError(err, "error fetching order")
	}
	return views[0], nil
}

// 翌日0時（locの暦で）
func tomorrowMidnight(now time.Time, loc *time.Location) time.Time {
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day()+1, 0, 0, 0, 0, loc)
}

const dateOnlyLayout = "2006-01-02"

func isDateOnly(s string) bool {
	_, err := time.Parse(dateOnlyLayout, strings.TrimSpace(s))
	return err == nil
}

// "YYYY-MM-DD"（locの0時）または RFC3339
func parseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(dateOnlyLayout, s, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
