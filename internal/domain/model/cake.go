package model

import (
	"math"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// 価格はJSON上は数値で返す（"550" ではなく 550）
	decimal.MarshalJSONWithoutQuotes = true
}

// 重量ラベル（閉じた列挙）
type Weight string

const (
	Weight500g  Weight = "500g"
	Weight1kg   Weight = "1kg"
	Weight1_5kg Weight = "1.5kg"
	Weight2kg   Weight = "2kg"
	Weight2_5kg Weight = "2.5kg"
	Weight3kg   Weight = "3kg"
)

// AllWeights は許可された重量ラベルを表示順で返す。
func AllWeights() []Weight {
	return []Weight{Weight500g, Weight1kg, Weight1_5kg, Weight2kg, Weight2_5kg, Weight3kg}
}

// 完全一致のみ（大文字小文字も区別）
func ParseWeight(s string) (Weight, bool) {
	switch w := Weight(s); w {
	case Weight500g, Weight1kg, Weight1_5kg, Weight2kg, Weight2_5kg, Weight3kg:
		return w, true
	default:
		return "", false
	}
}

type Category string

const (
	CategoryBirthday    Category = "Birthday"
	CategoryWedding     Category = "Wedding"
	CategoryAnniversary Category = "Anniversary"
	CategoryCorporate   Category = "Corporate"
	CategoryFestival    Category = "Festival"
	CategoryOther       Category = "Other"
)

func AllCategories() []Category {
	return []Category{
		CategoryBirthday,
		CategoryWedding,
		CategoryAnniversary,
		CategoryCorporate,
		CategoryFestival,
		CategoryOther,
	}
}

func ParseCategory(s string) (Category, bool) {
	switch c := Category(s); c {
	case CategoryBirthday, CategoryWedding, CategoryAnniversary, CategoryCorporate, CategoryFestival, CategoryOther:
		return c, true
	default:
		return "", false
	}
}

// 重量ごとの価格
type WeightOption struct {
	ID     int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	CakeID string          `gorm:"type:uuid;not null;index" json:"-"`
	Weight Weight          `gorm:"type:varchar(10);not null" json:"weight"`
	Price  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
}

// 商品（ケーキ）
// Flavor は旧クライアント向けに Flavors[0] と常に同じ値を持つ。
type Cake struct {
	ID            string          `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(100);not null" json:"name"`
	Flavor        string          `gorm:"type:varchar(50);not null" json:"flavor"`
	Flavors       pq.StringArray  `gorm:"type:text[];not null" json:"flavors"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null;index" json:"price"`
	Description   string          `gorm:"type:varchar(500);not null" json:"description"`
	WeightOptions []WeightOption  `gorm:"foreignKey:CakeID;constraint:OnDelete:CASCADE" json:"weightOptions"`
	ImageURL      string          `gorm:"type:text;not null" json:"imageUrl"`
	Category      Category        `gorm:"type:varchar(20);not null;index" json:"category"`
	Rating        float64         `gorm:"not null" json:"rating"`
	ReviewCount   int64           `gorm:"not null" json:"reviewCount"`
	AverageRating float64         `gorm:"-" json:"averageRating"`
	IsAvailable   bool            `gorm:"not null;index" json:"isAvailable"`
	Tags          pq.StringArray  `gorm:"type:text[]" json:"tags"`
	CreatedAt     time.Time       `gorm:"not null;autoCreateTime;index" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// 読み込み後に派生値を埋める
func (c *Cake) AfterFind(tx *gorm.DB) error {
	c.AverageRating = c.ComputeAverageRating()
	return nil
}

// rating / reviewCount（小数1桁）。レビューなしは0。
func (c Cake) ComputeAverageRating() float64 {
	if c.ReviewCount <= 0 {
		return 0
	}
	return math.Round(c.Rating/float64(c.ReviewCount)*10) / 10
}

// 指定重量の価格帯を返す。重複していたら先頭が勝つ。
func (c Cake) FindWeightOption(w Weight) (WeightOption, bool) {
	for _, opt := range c.WeightOptions {
		if opt.Weight == w {
			return opt, true
		}
	}
	return WeightOption{}, false
}

// Flavors の空要素を除き、Flavor を先頭要素に合わせる。
func (c *Cake) SetFlavors(flavors []string) {
	c.Flavors = NormalizeFlavors(flavors)
	if len(c.Flavors) > 0 {
		c.Flavor = c.Flavors[0]
	} else {
		c.Flavor = ""
	}
}

// 前後空白を落とし、空文字を捨てる
func NormalizeFlavors(in []string) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// 重量ラベルの重複を検出する（最初に重複したラベルを返す）
func DuplicateWeight(opts []WeightOption) (Weight, bool) {
	seen := make(map[Weight]struct{}, len(opts))
	for _, o := range opts {
		if _, ok := seen[o.Weight]; ok {
			return o.Weight, true
		}
		seen[o.Weight] = struct{}{}
	}
	return "", false
}
