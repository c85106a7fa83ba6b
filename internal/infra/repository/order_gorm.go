package repository

import (
	"context"
	"errors"

	"ebake/internal/domain/model"
	"ebake/internal/infra/db"
	repo "ebake/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

var _ repo.OrderRepository = (*OrderGormRepository)(nil)

func orderedItems(tx *gorm.DB) *gorm.DB {
	return tx.Order("id asc")
}

// 注文＋明細を1回で保存（明細だけ残ることはない）
func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (model.Order, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return model.Order{}, db.Classify(err)
	}
	return order, nil
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("id = ?", orderID).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, db.Classify(err)
	}
	return o, nil
}

// 一覧の絞り込み条件（件数取得と一覧取得で共有）
func applyOrderFilter(q *gorm.DB, f repo.OrderListFilter) *gorm.DB {
	//user_id 絞り込み
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	//status 絞り込み
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}

	// 顧客名・電話・メール
	if f.SearchPattern != "" {
		p := f.SearchPattern
		q = q.Where(
			`(customer_name ILIKE ? ESCAPE '\' OR customer_phone ILIKE ? ESCAPE '\' OR customer_email ILIKE ? ESCAPE '\')`,
			p, p, p,
		)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	return q
}

// ユーザー別/管理者用の一覧
func (r *OrderGormRepository) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	q := applyOrderFilter(r.db.WithContext(ctx).Model(&model.Order{}), f)

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, db.Classify(err)
	}

	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = repo.OrderSortCreatedAt
	}
	order := clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: string(sortBy)}, Desc: f.SortDesc},
		{Column: clause.Column{Name: "id"}, Desc: f.SortDesc},
	}}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	err := q.
		Preload("Items", orderedItems).
		Clauses(order).
		Limit(f.Limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, db.Classify(err)
	}

	return items, total, nil
}

// ステータス更新。reasonがnilならキャンセル理由は触らない。
func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, reason *string) error {
	values := map[string]interface{}{"status": status}
	if reason != nil {
		values["cancellation_reason"] = *reason
	}

	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(values)

	if res.Error != nil {
		return db.Classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
