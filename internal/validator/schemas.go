package validator

import (
	"strings"

	"github.com/shopspring/decimal"
)

// 注文明細（クライアントの価格は受け取らない）
// 数量は1明細100個まで
type OrderItemRequest struct {
	CakeID   string `json:"cakeId" validate:"required,uuid"`
	Quantity int64  `json:"quantity" validate:"required,min=1,max=100"`
	Weight   string `json:"weight" validate:"required,weight"`
}

type CustomerInfoRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=50"`
	Phone string `json:"phone" validate:"required,inphone"`
	Email string `json:"email" validate:"required,email,max=255"`
}

type DeliveryAddressRequest struct {
	Street   string `json:"street" validate:"required,min=5,max=100"`
	Area     string `json:"area" validate:"required,min=2,max=50"`
	City     string `json:"city" validate:"required,deliverycity"`
	Pincode  string `json:"pincode" validate:"required,pincode"`
	Landmark string `json:"landmark" validate:"omitempty,max=100"`
}

// POST /orders
type PlaceOrderRequest struct {
	Items           []OrderItemRequest     `json:"items" validate:"required,min=1,max=50,dive"`
	CustomerInfo    CustomerInfoRequest    `json:"customerInfo"`
	DeliveryAddress DeliveryAddressRequest `json:"deliveryAddress"`
	// "YYYY-MM-DD" または RFC3339
	EstimatedDelivery string `json:"estimatedDelivery" validate:"required"`
	Notes             string `json:"notes" validate:"omitempty,max=200"`
}

// 前後空白を落とし、メールを小文字にする
func (r *PlaceOrderRequest) Normalize() {
	r.CustomerInfo.Name = strings.TrimSpace(r.CustomerInfo.Name)
	r.CustomerInfo.Phone = strings.TrimSpace(r.CustomerInfo.Phone)
	r.CustomerInfo.Email = strings.ToLower(strings.TrimSpace(r.CustomerInfo.Email))

	r.DeliveryAddress.Street = strings.TrimSpace(r.DeliveryAddress.Street)
	r.DeliveryAddress.Area = strings.TrimSpace(r.DeliveryAddress.Area)
	r.DeliveryAddress.City = strings.TrimSpace(r.DeliveryAddress.City)
	r.DeliveryAddress.Pincode = strings.TrimSpace(r.DeliveryAddress.Pincode)
	r.DeliveryAddress.Landmark = strings.TrimSpace(r.DeliveryAddress.Landmark)

	r.EstimatedDelivery = strings.TrimSpace(r.EstimatedDelivery)
	r.Notes = strings.TrimSpace(r.Notes)

	for i := range r.Items {
		r.Items[i].CakeID = strings.TrimSpace(r.Items[i].CakeID)
		r.Items[i].Weight = strings.TrimSpace(r.Items[i].Weight)
	}
}

// PATCH /orders/:id/status
// statusの値チェックと理由の必須チェックはusecase側（種別を分けて返すため）
type UpdateOrderStatusRequest struct {
	Status             string `json:"status"`
	CancellationReason string `json:"cancellationReason" validate:"omitempty,max=500"`
}

type WeightOptionForm struct {
	Weight string           `json:"weight" validate:"required,weight"`
	Price  *decimal.Decimal `json:"price" validate:"required,min=0"`
}

// 商品の作成/更新フォーム。nilは「送られていない」。
type CakeForm struct {
	Name          *string            `json:"name" validate:"omitempty,min=2,max=100"`
	Flavors       []string           `json:"flavors" validate:"omitempty,dive,max=50"`
	Price         *decimal.Decimal   `json:"price" validate:"omitempty,min=0"`
	Description   *string            `json:"description" validate:"omitempty,min=10,max=500"`
	Category      *string            `json:"category" validate:"omitempty,category"`
	WeightOptions []WeightOptionForm `json:"weightOptions" validate:"omitempty,dive"`
	IsAvailable   *bool              `json:"isAvailable"`
	Tags          []string           `json:"tags" validate:"omitempty,dive,max=50"`
}

// PATCH /cakes/:id/availability
type AvailabilityRequest struct {
	IsAvailable *bool `json:"isAvailable" validate:"required"`
}
