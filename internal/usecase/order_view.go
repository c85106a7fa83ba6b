package usecase

import (
	"context"
	"time"

	"ebake/internal/domain/model"
	repo "ebake/internal/repository"

	"github.com/shopspring/decimal"
)

// 明細に付ける商品情報（表示用、削除済みでも出す）
type OrderCakeView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Flavor   string   `json:"flavor"`
	Flavors  []string `json:"flavors"`
	ImageURL string   `json:"imageUrl"`
}

type OrderItemView struct {
	CakeID string `json:"cakeId"`
	// 商品が見つからなければnull
	Cake     *OrderCakeView  `json:"cake"`
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Weight   model.Weight    `json:"weight"`
	Price    decimal.Decimal `json:"price"`
}

type OrderUserView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// 注文のレスポンス
type OrderView struct {
	ID                 string                `json:"id"`
	UserID             string                `json:"userId"`
	User               *OrderUserView        `json:"user"`
	Items              []OrderItemView       `json:"items"`
	TotalAmount        decimal.Decimal       `json:"totalAmount"`
	CustomerInfo       model.CustomerInfo    `json:"customerInfo"`
	DeliveryAddress    model.DeliveryAddress `json:"deliveryAddress"`
	FormattedAddress   string                `json:"formattedAddress"`
	Status             model.OrderStatus     `json:"status"`
	EstimatedDelivery  time.Time             `json:"estimatedDelivery"`
	CancellationReason *string               `json:"cancellationReason,omitempty"`
	Notes              string                `json:"notes,omitempty"`
	OrderDate          time.Time             `json:"orderDate"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

// 注文に商品・ユーザーの表示用情報を結合する（読み取りのみ）
type orderPresenter struct {
	cakes repo.CakeRepository
	users repo.UserRepository
}

func (p orderPresenter) present(ctx context.Context, orders []model.Order) ([]OrderView, error) {
	cakeIDs := make([]string, 0)
	userIDs := make([]string, 0, len(orders))
	seenCake := map[string]struct{}{}
	seenUser := map[string]struct{}{}
	for _, o := range orders {
		if _, ok := seenUser[o.UserID]; !ok {
			seenUser[o.UserID] = struct{}{}
			userIDs = append(userIDs, o.UserID)
		}
		for _, it := range o.Items {
			if _, ok := seenCake[it.CakeID]; !ok {
				seenCake[it.CakeID] = struct{}{}
				cakeIDs = append(cakeIDs, it.CakeID)
			}
		}
	}

	cakes, err := p.cakes.FindByIDsUnscoped(ctx, cakeIDs)
	if err != nil {
		return nil, err
	}
	users, err := p.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	cakeByID := make(map[string]model.Cake, len(cakes))
	for _, c := range cakes {
		cakeByID[c.ID] = c
	}
	userByID := make(map[string]model.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o, cakeByID, userByID))
	}
	return views, nil
}

// 結合に失敗しても注文自体は返したいとき用
func (p orderPresenter) presentOne(ctx context.Context, o model.Order) OrderView {
	views, err := p.present(ctx, []model.Order{o})
	if err != nil || len(views) == 0 {
		return toOrderView(o, nil, nil)
	}
	return views[0]
}

func toOrderView(o model.Order, cakes map[string]model.Cake, users map[string]model.User) OrderView {
	items := make([]OrderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		iv := OrderItemView{
			CakeID:   it.CakeID,
			Name:     it.CakeNameSnapshot,
			Quantity: it.Quantity,
			Weight:   it.Weight,
			Price:    it.Price,
		}
		if c, ok := cakes[it.CakeID]; ok {
			iv.Cake = &OrderCakeView{
				ID:       c.ID,
				Name:     c.Name,
				Flavor:   c.Flavor,
				Flavors:  []string(c.Flavors),
				ImageURL: c.ImageURL,
			}
		}
		items = append(items, iv)
	}

	v := OrderView{
		ID:                 o.ID,
		UserID:             o.UserID,
		Items:              items,
		TotalAmount:        o.TotalAmount,
		CustomerInfo:       o.CustomerInfo,
		DeliveryAddress:    o.DeliveryAddress,
		FormattedAddress:   o.DeliveryAddress.Formatted(),
		Status:             o.Status,
		EstimatedDelivery:  o.EstimatedDelivery,
		CancellationReason: o.CancellationReason,
		Notes:              o.Notes,
		OrderDate:          o.OrderDate,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	if u, ok := users[o.UserID]; ok {
		v.User = &OrderUserView{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
	}
	return v
}
