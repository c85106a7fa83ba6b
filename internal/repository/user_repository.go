package repository

import (
	"context"

	"ebake/internal/domain/model"
)

// ユーザーの参照のみ（作成・更新は認証サービス側）
type UserRepository interface {
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID string) (model.User, error)
	// 表示用にまとめて取得する
	FindByIDs(ctx context.Context, userIDs []string) ([]model.User, error)
}
