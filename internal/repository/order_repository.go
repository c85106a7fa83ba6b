package repository

import (
	"context"
	"time"

	"ebake/internal/domain/model"
)

type OrderSortField string

const (
	OrderSortCreatedAt         OrderSortField = "created_at"
	OrderSortTotalAmount       OrderSortField = "total_amount"
	OrderSortEstimatedDelivery OrderSortField = "estimated_delivery"
	OrderSortStatus            OrderSortField = "status"
)

// 注文一覧の絞り込み
type OrderListFilter struct {
	Page  int
	Limit int

	//nilなら全ユーザー（管理者）
	UserID *string
	//空なら全ステータス
	Statuses []model.OrderStatus
	// 顧客名・電話・メールの部分一致（エスケープ済み）
	SearchPattern string
	From          *time.Time
	To            *time.Time

	SortBy   OrderSortField
	SortDesc bool
}

type OrderRepository interface {
	// 明細ごと1回の書き込みで保存する
	Create(ctx context.Context, order model.Order) (model.Order, error)
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)
	// reasonはキャンセル時のみ。nilなら既存の値を触らない。
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, reason *string) error
}
