package repository

import (
	"context"
	"errors"

	"ebake/internal/domain/model"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("not found")

	// DBに繋がらない（再試行可）
	ErrStoreUnavailable = errors.New("store unavailable")

	// DB応答がタイムアウトした（再試行可）
	ErrStoreTimeout = errors.New("store timeout")
)

// 並び替えに使える列（許可リスト）
type CakeSortField string

const (
	CakeSortCreatedAt CakeSortField = "created_at"
	CakeSortName      CakeSortField = "name"
	CakeSortPrice     CakeSortField = "price"
	CakeSortCategory  CakeSortField = "category"
)

// 一覧検索
// パターン系はLIKE用にエスケープ済みの値を受け取る（組み立てはusecase側）。
type CakeListQuery struct {
	Page  int
	Limit int

	// name / description / flavor の部分一致
	SearchPattern string
	// flavor または flavors のどれかに部分一致
	FlavorPattern string

	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Category string

	//nilなら公開状態で絞らない（管理者一覧）
	IsAvailable *bool

	SortBy   CakeSortField
	SortDesc bool
}

// 絞り込みUI用の候補
type CakeFilterOptions struct {
	Flavors    []string
	Categories []string
}

// 商品の永続化（保存・取得）だけを約束。
type CakeRepository interface {
	List(ctx context.Context, q CakeListQuery) ([]model.Cake, int64, error)
	// 公開中の商品に出てくるフレーバーとカテゴリ
	FilterOptions(ctx context.Context) (CakeFilterOptions, error)
	FindByID(ctx context.Context, id string) (model.Cake, error)
	// 表示用の結合。削除済みも含めて返す。
	FindByIDsUnscoped(ctx context.Context, ids []string) ([]model.Cake, error)

	Create(ctx context.Context, c model.Cake) (model.Cake, error)
	// 価格帯は丸ごと置き換える
	Update(ctx context.Context, c model.Cake) (model.Cake, error)
	SetAvailability(ctx context.Context, id string, available bool) (model.Cake, error)
	SoftDelete(ctx context.Context, id string) error
}
