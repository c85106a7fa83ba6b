package repository

import (
	"context"

	"ebake/internal/domain/model"
	"ebake/internal/infra/db"
	repo "ebake/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuditLogGormRepository struct {
	db *gorm.DB
}

// DI（txの中ではtx付きのDBで作る）
func NewAuditLogGormRepository(db *gorm.DB) *AuditLogGormRepository {
	return &AuditLogGormRepository{db: db}
}

var _ repo.AuditLogRepository = (*AuditLogGormRepository)(nil)

// 管理者操作と同じtxで書く
func (r *AuditLogGormRepository) Create(ctx context.Context, entry model.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return db.Classify(err)
	}
	return nil
}

// 誰が / 何をした / どの商品・注文に / いつ
func applyAuditLogFilter(tx *gorm.DB, f repo.AuditLogFilter) *gorm.DB {
	if f.ActorUserID != nil {
		tx = tx.Where("actor_user_id = ?", *f.ActorUserID)
	}
	if len(f.Actions) > 0 {
		tx = tx.Where("action IN ?", f.Actions)
	}

	// 対象はtype+idの組で引くことが多い
	switch {
	case f.ResourceType != nil && f.ResourceID != nil:
		tx = tx.Where("resource_type = ? AND resource_id = ?", *f.ResourceType, *f.ResourceID)
	case f.ResourceType != nil:
		tx = tx.Where("resource_type = ?", *f.ResourceType)
	case f.ResourceID != nil:
		tx = tx.Where("resource_id = ?", *f.ResourceID)
	}

	if f.CreatedFrom != nil {
		tx = tx.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		tx = tx.Where("created_at <= ?", *f.CreatedTo)
	}
	return tx
}

// 新しい順（同時刻はid順）
var auditLogOrder = clause.OrderBy{Columns: []clause.OrderByColumn{
	{Column: clause.Column{Name: "created_at"}, Desc: true},
	{Column: clause.Column{Name: "id"}, Desc: true},
}}

// 件数・位置はusecase側で丸め済み
func (r *AuditLogGormRepository) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	q := applyAuditLogFilter(r.db.WithContext(ctx).Model(&model.AuditLog{}), f).Clauses(auditLogOrder)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	logs := []model.AuditLog{}
	if err := q.Find(&logs).Error; err != nil {
		return []model.AuditLog{}, db.Classify(err)
	}
	return logs, nil
}
