package repository

import (
	"context"
	"time"

	"ebake/internal/domain/model"
)

// 監査ログの絞り込み条件。nil/空は条件なし。
type AuditLogFilter struct {
	// uuid文字列
	ActorUserID *string
	Actions     []model.AuditAction

	ResourceType *model.AuditResourceType
	// 商品ID または 注文ID
	ResourceID *string

	CreatedFrom *time.Time
	CreatedTo   *time.Time

	Limit  int
	Offset int
}

// 監査ログの保存・一覧取得の約束。
type AuditLogRepository interface {
	//監査ログを1件保存（管理者操作と同じtxで）
	Create(ctx context.Context, log model.AuditLog) error

	//新しい順で返す
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
