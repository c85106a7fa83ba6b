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

type CakeGormRepository struct {
	db *gorm.DB
}

// DI
func NewCakeGormRepository(db *gorm.DB) *CakeGormRepository {
	return &CakeGormRepository{db: db}
}

var _ repo.CakeRepository = (*CakeGormRepository)(nil)

// 価格帯は登録順で返す
func orderedWeightOptions(tx *gorm.DB) *gorm.DB {
	return tx.Order("id asc")
}

// 絞り込み条件だけを積む（件数取得と一覧取得で共有）
func applyCakeFilter(tx *gorm.DB, q repo.CakeListQuery) *gorm.DB {
	if q.IsAvailable != nil {
		tx = tx.Where("is_available = ?", *q.IsAvailable)
	}

	// name / description / flavor を対象
	if q.SearchPattern != "" {
		p := q.SearchPattern
		tx = tx.Where(
			`(name ILIKE ? ESCAPE '\' OR description ILIKE ? ESCAPE '\' OR flavor ILIKE ? ESCAPE '\')`,
			p, p, p,
		)
	}

	// 旧フィールド or 配列のどれか
	if q.FlavorPattern != "" {
		p := q.FlavorPattern
		tx = tx.Where(
			`(flavor ILIKE ? ESCAPE '\' OR EXISTS (SELECT 1 FROM unnest(flavors) AS f WHERE f ILIKE ? ESCAPE '\'))`,
			p, p,
		)
	}

	//価格帯
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}

	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}

	return tx
}

// 並び順。同値はidで決定的にする。
func cakeOrder(q repo.CakeListQuery) clause.OrderBy {
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = repo.CakeSortCreatedAt
	}
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: string(sortBy)}, Desc: q.SortDesc},
		{Column: clause.Column{Name: "id"}, Desc: q.SortDesc},
	}}
}

// 検索/価格帯/カテゴリ/ソート/ページング付きで返す。
func (r *CakeGormRepository) List(ctx context.Context, q repo.CakeListQuery) ([]model.Cake, int64, error) {
	var cakes []model.Cake
	var total int64

	base := applyCakeFilter(r.db.WithContext(ctx).Model(&model.Cake{}), q).Session(&gorm.Session{})

	//total（件数）
	if err := base.Count(&total).Error; err != nil {
		return []model.Cake{}, 0, db.Classify(err)
	}

	offset := (q.Page - 1) * q.Limit
	err := base.
		Preload("WeightOptions", orderedWeightOptions).
		Clauses(cakeOrder(q)).
		Offset(offset).
		Limit(q.Limit).
		Find(&cakes).Error
	if err != nil {
		return []model.Cake{}, 0, db.Classify(err)
	}

	return cakes, total, nil
}

// 公開中の商品のフレーバー（旧フィールド＋配列）とカテゴリ
func (r *CakeGormRepository) FilterOptions(ctx context.Context) (repo.CakeFilterOptions, error) {
	var flavors []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT f FROM (
			SELECT flavor AS f FROM cakes WHERE is_available = ? AND deleted_at IS NULL
			UNION
			SELECT unnest(flavors) AS f FROM cakes WHERE is_available = ? AND deleted_at IS NULL
		) AS t
		WHERE f IS NOT NULL AND f <> ''
		ORDER BY f`, true, true).
		Scan(&flavors).Error
	if err != nil {
		return repo.CakeFilterOptions{}, db.Classify(err)
	}

	var categories []string
	err = r.db.WithContext(ctx).
		Model(&model.Cake{}).
		Where("is_available = ?", true).
		Distinct().
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return repo.CakeFilterOptions{}, db.Classify(err)
	}

	return repo.CakeFilterOptions{Flavors: flavors, Categories: categories}, nil
}

// IDで商品を取得
func (r *CakeGormRepository) FindByID(ctx context.Context, id string) (model.Cake, error) {
	var c model.Cake
	err := r.db.WithContext(ctx).
		Preload("WeightOptions", orderedWeightOptions).
		Where("id = ?", id).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cake{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cake{}, db.Classify(err)
	}
	return c, nil
}

// 注文表示用。削除済みの商品も返す。
func (r *CakeGormRepository) FindByIDsUnscoped(ctx context.Context, ids []string) ([]model.Cake, error) {
	if len(ids) == 0 {
		return []model.Cake{}, nil
	}
	var cakes []model.Cake
	if err := r.db.WithContext(ctx).Unscoped().Where("id IN ?", ids).Find(&cakes).Error; err != nil {
		return []model.Cake{}, db.Classify(err)
	}
	return cakes, nil
}

// 商品の作成（価格帯も一緒に保存される）
func (r *CakeGormRepository) Create(ctx context.Context, c model.Cake) (model.Cake, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Cake{}, db.Classify(err)
	}
	return c, nil
}

// 商品の更新。価格帯は削除→作り直し。
func (r *CakeGormRepository) Update(ctx context.Context, c model.Cake) (model.Cake, error) {
	var out model.Cake
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Cake{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
			"name":         c.Name,
			"flavor":       c.Flavor,
			"flavors":      c.Flavors,
			"price":        c.Price,
			"description":  c.Description,
			"image_url":    c.ImageURL,
			"category":     c.Category,
			"is_available": c.IsAvailable,
			"tags":         c.Tags,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}

		if err := tx.Where("cake_id = ?", c.ID).Delete(&model.WeightOption{}).Error; err != nil {
			return err
		}
		if len(c.WeightOptions) > 0 {
			opts := make([]model.WeightOption, 0, len(c.WeightOptions))
			for _, o := range c.WeightOptions {
				opts = append(opts, model.WeightOption{CakeID: c.ID, Weight: o.Weight, Price: o.Price})
			}
			if err := tx.Create(&opts).Error; err != nil {
				return err
			}
		}

		return tx.Preload("WeightOptions", orderedWeightOptions).Where("id = ?", c.ID).First(&out).Error
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cake{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cake{}, db.Classify(err)
	}
	return out, nil
}

// 公開/非公開の切り替え
func (r *CakeGormRepository) SetAvailability(ctx context.Context, id string, available bool) (model.Cake, error) {
	res := r.db.WithContext(ctx).Model(&model.Cake{}).
		Where("id = ?", id).
		Update("is_available", available)
	if res.Error != nil {
		return model.Cake{}, db.Classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return model.Cake{}, repo.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// 商品削除（過去の注文明細はスナップショットなので影響しない）
func (r *CakeGormRepository) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Cake{})
	if res.Error != nil {
		return db.Classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
