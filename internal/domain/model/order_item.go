package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細
// 価格・重量・商品名は注文時点のスナップショット。以後カタログが変わっても書き換えない。
type OrderItem struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderID          string          `gorm:"type:uuid;not null;index" json:"-"`
	CakeID           string          `gorm:"type:uuid;not null;index" json:"cakeId"`
	CakeNameSnapshot string          `gorm:"type:varchar(100);not null" json:"name"`
	Quantity         int64           `gorm:"not null" json:"quantity"`
	Weight           Weight          `gorm:"type:varchar(10);not null" json:"weight"`
	Price            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	CreatedAt        time.Time       `gorm:"not null;autoCreateTime" json:"-"`
}

func (it OrderItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(it.Quantity))
}
