package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "Order Placed"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderStatusPlaced, OrderStatusCompleted, OrderStatusCancelled:
		return st, true
	default:
		return "", false
	}
}

// 終端（出ていく遷移が定義されていない）状態か
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled:
		return true
	case OrderStatusPlaced:
		return false
	default:
		return false
	}
}

// 配達できる都市はここだけ
const DeliveryCity = "Hyderabad"

var pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// ValidPincode は6桁のPINコードか確認する。
func ValidPincode(s string) bool {
	return pincodePattern.MatchString(s)
}

// 注文時点の連絡先（ユーザー情報とは連動しない）
type CustomerInfo struct {
	Name  string `gorm:"type:varchar(50);not null" json:"name"`
	Phone string `gorm:"type:varchar(20);not null" json:"phone"`
	Email string `gorm:"type:varchar(255);not null" json:"email"`
}

// 配送先住所（注文時点のコピー）
type DeliveryAddress struct {
	Street   string `gorm:"type:varchar(100);not null" json:"street"`
	Area     string `gorm:"type:varchar(50);not null" json:"area"`
	City     string `gorm:"type:varchar(20);not null" json:"city"`
	Pincode  string `gorm:"type:char(6);not null" json:"pincode"`
	Landmark string `gorm:"type:varchar(100)" json:"landmark,omitempty"`
}

// "street, area, city - pincode[, Near landmark]"
func (a DeliveryAddress) Formatted() string {
	s := a.Street + ", " + a.Area + ", " + a.City + " - " + a.Pincode
	if strings.TrimSpace(a.Landmark) != "" {
		s += ", Near " + a.Landmark
	}
	return s
}

type Order struct {
	ID                 string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             string          `gorm:"type:uuid;not null;index:idx_orders_user_created,priority:1" json:"userId"`
	Items              []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	CustomerInfo       CustomerInfo    `gorm:"embedded;embeddedPrefix:customer_" json:"customerInfo"`
	DeliveryAddress    DeliveryAddress `gorm:"embedded;embeddedPrefix:delivery_" json:"deliveryAddress"`
	Status             OrderStatus     `gorm:"type:varchar(20);not null;index:idx_orders_status_created,priority:1" json:"status"`
	EstimatedDelivery  time.Time       `gorm:"not null" json:"estimatedDelivery"`
	CancellationReason *string         `gorm:"type:varchar(500)" json:"cancellationReason,omitempty"`
	Notes              string          `gorm:"type:varchar(200)" json:"notes,omitempty"`
	OrderDate          time.Time       `gorm:"not null" json:"orderDate"`
	CreatedAt          time.Time       `gorm:"not null;autoCreateTime;index:idx_orders_user_created,priority:2;index:idx_orders_status_created,priority:2" json:"createdAt"`
	UpdatedAt          time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

// Σ(price * quantity)
func SumLineItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// 金額列 numeric(12,2) の上限
var MaxAmount = decimal.RequireFromString("9999999999.99")

// 小数2桁以内で、金額列に収まるか
func FitsAmount(d decimal.Decimal) bool {
	return d.Equal(d.Round(2)) && d.Abs().LessThanOrEqual(MaxAmount)
}
