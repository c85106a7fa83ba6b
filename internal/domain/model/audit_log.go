package model

import "time"

// 商品作成、注文ステータス更新など。
type AuditAction string

const (
	AuditActionCreateCake AuditAction = "CREATE_CAKE"
	AuditActionUpdateCake AuditAction = "UPDATE_CAKE"
	AuditActionDeleteCake AuditAction = "DELETE_CAKE"
	//公開/非公開の切り替え
	AuditActionToggleAvailability AuditAction = "TOGGLE_AVAILABILITY"
	//注文ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceCake  AuditResourceType = "cake"
	AuditResourceOrder AuditResourceType = "order"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作した管理者のID。
	ActorUserID string `gorm:"type:uuid;not null;index" json:"actorUserId"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resourceType"`

	ResourceID string `gorm:"type:uuid;not null;index" json:"resourceId"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before"`
	AfterJSON  string `gorm:"type:text" json:"after"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}

func ParseAuditAction(s string) (AuditAction, bool) {
	switch a := AuditAction(s); a {
	case AuditActionCreateCake, AuditActionUpdateCake, AuditActionDeleteCake,
		AuditActionToggleAvailability, AuditActionUpdateOrderStatus:
		return a, true
	}
	return "", false
}

func ParseAuditResourceType(s string) (AuditResourceType, bool) {
	switch rt := AuditResourceType(s); rt {
	case AuditResourceCake, AuditResourceOrder:
		return rt, true
	}
	return "", false
}
