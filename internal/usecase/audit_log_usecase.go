package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"ebake/internal/domain/model"
	repo "ebake/internal/repository"

	"github.com/google/uuid"
)

type AuditLogUsecase struct {
	logs repo.AuditLogRepository
	loc  *time.Location
}

func NewAuditLogUsecase(logs repo.AuditLogRepository, loc *time.Location) *AuditLogUsecase {
	if loc == nil {
		loc = time.Local
	}
	return &AuditLogUsecase{logs: logs, loc: loc}
}

// GET /admin/audit-logs のクエリ（未検証の文字列）
type AuditLogListParams struct {
	ActorUserID  string
	Action       string
	ResourceType string
	ResourceID   string
	From         string
	To           string
	Limit        string
	Offset       string
}

// 新しい順。
// action/resourceType は列挙外なら400（0件の絞り込みにはしない）。読めない日付・IDは無視する。
func (u *AuditLogUsecase) List(ctx context.Context, p AuditLogListParams) ([]model.AuditLog, error) {
	f := repo.AuditLogFilter{
		Limit:  clampLimit(p.Limit, 50, 200),
		Offset: 0,
	}
	if n, err := strconv.Atoi(strings.TrimSpace(p.Offset)); err == nil && n > 0 {
		f.Offset = n
	}

	var bad []FieldError

	// action=CREATE_CAKE,UPDATE_CAKE のように複数可
	for _, s := range strings.Split(p.Action, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		a, ok := model.ParseAuditAction(s)
		if !ok {
			bad = append(bad, FieldError{Field: "action", Message: "unknown action " + s})
			continue
		}
		f.Actions = append(f.Actions, a)
	}
	if s := strings.TrimSpace(p.ResourceType); s != "" {
		rt, ok := model.ParseAuditResourceType(strings.ToLower(s))
		if !ok {
			bad = append(bad, FieldError{Field: "resource_type", Message: "must be cake or order"})
		} else {
			f.ResourceType = &rt
		}
	}
	if len(bad) > 0 {
		return []model.AuditLog{}, newValidationError("validation failed", bad)
	}

	// uuid列なので形式の違うIDは条件にしない
	if s := strings.TrimSpace(p.ActorUserID); isUUID(s) {
		f.ActorUserID = &s
	}
	if s := strings.TrimSpace(p.ResourceID); isUUID(s) {
		f.ResourceID = &s
	}
	if t, ok := parseDate(p.From, u.loc); ok {
		f.CreatedFrom = &t
	}
	if t, ok := parseDate(p.To, u.loc); ok {
		if isDateOnly(p.To) {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		f.CreatedTo = &t
	}

	logs, err := u.logs.List(ctx, f)
	if err != nil {
		return []model.AuditLog{}, storeError(err, "error fetching audit logs")
	}
	return logs, nil
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
