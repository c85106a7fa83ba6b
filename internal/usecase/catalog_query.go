package usecase

import (
	"strconv"
	"strings"

	repo "ebake/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	PublicCakeLimit = 12
	AdminCakeLimit  = 10
	MaxCakeLimit    = 50
)

// 一覧のどちら向けか
type CatalogScope int

const (
	// 公開中のみ
	CatalogScopePublic CatalogScope = iota
	// 非公開も含む
	CatalogScopeAdmin
)

// クエリ文字列そのまま（未検証）
type CatalogQueryParams struct {
	Page        string
	Limit       string
	Search      string
	Flavor      string
	MinPrice    string
	MaxPrice    string
	Category    string
	IsAvailable string
	SortBy      string
	SortOrder   string
}

// 組み立て結果
type CatalogQuery struct {
	List repo.CakeListQuery
	// 絞り込み候補も集計するか（絞り込みなしの公開一覧のみ）
	WithFilterOptions bool
}

var cakeSortFields = map[string]repo.CakeSortField{
	"createdAt": repo.CakeSortCreatedAt,
	"name":      repo.CakeSortName,
	"price":     repo.CakeSortPrice,
	"category":  repo.CakeSortCategory,
}

// BuildCatalogQuery は未検証のパラメータから一覧検索を組み立てる。
// 範囲外のpage/limitは丸め、読めない価格は捨てる。エラーは返さない。
func BuildCatalogQuery(p CatalogQueryParams, scope CatalogScope) CatalogQuery {
	defLimit := PublicCakeLimit
	if scope == CatalogScopeAdmin {
		defLimit = AdminCakeLimit
	}

	q := repo.CakeListQuery{
		Page:  parsePage(p.Page),
		Limit: clampLimit(p.Limit, defLimit, MaxCakeLimit),
	}

	search := strings.TrimSpace(p.Search)
	if search != "" {
		q.SearchPattern = ContainsPattern(search)
	}

	flavor := strings.TrimSpace(p.Flavor)
	if flavor != "" {
		q.FlavorPattern = ContainsPattern(flavor)
	}

	q.MinPrice = parsePrice(p.MinPrice)
	q.MaxPrice = parsePrice(p.MaxPrice)

	// 未知のカテゴリもそのまま渡す（0件になるだけ）
	category := strings.TrimSpace(p.Category)
	if category != "" {
		q.Category = category
	}

	switch scope {
	case CatalogScopePublic:
		available := true
		q.IsAvailable = &available
	case CatalogScopeAdmin:
		if b, err := strconv.ParseBool(strings.TrimSpace(p.IsAvailable)); err == nil {
			q.IsAvailable = &b
		}
	}

	q.SortBy, q.SortDesc = resolveSort(p.SortBy, p.SortOrder, cakeSortFields, repo.CakeSortCreatedAt)

	withOptions := scope == CatalogScopePublic &&
		search == "" &&
		flavor == "" &&
		strings.TrimSpace(p.MinPrice) == "" &&
		strings.TrimSpace(p.MaxPrice) == "" &&
		category == ""

	return CatalogQuery{List: q, WithFilterOptions: withOptions}
}

// EscapeLike はLIKEの特殊文字（\ % _）をエスケープする。
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// 部分一致パターン
func ContainsPattern(s string) string {
	return "%" + EscapeLike(s) + "%"
}

func parsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// 空・読めない値はdef、範囲外は1..maxに丸める
func clampLimit(s string, def int, upper int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	if n < 1 {
		return 1
	}
	if n > upper {
		return upper
	}
	return n
}

// 負数・読めない値はnil（条件なし）
func parsePrice(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}

// 許可リストにないsortByはfallback。sortOrderはasc以外desc。
func resolveSort[F ~string](sortBy string, sortOrder string, allowed map[string]F, fallback F) (F, bool) {
	field, ok := allowed[strings.TrimSpace(sortBy)]
	if !ok {
		field = fallback
	}
	desc := !strings.EqualFold(strings.TrimSpace(sortOrder), "asc")
	return field, desc
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"-"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

func newPagination(page int, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}
