package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ebake/internal/domain/model"
	repo "ebake/internal/repository"
	"ebake/internal/validator"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type CakeUsecase struct {
	cakes  repo.CakeRepository
	tx     repo.TransactionManager
	images repo.ImageStore
	ids    IDGenerator
	clock  Clock
}

// DI
func NewCakeUsecase(
	cakes repo.CakeRepository,
	tx repo.TransactionManager,
	images repo.ImageStore,
	ids IDGenerator,
	clock Clock,
) *CakeUsecase {
	return &CakeUsecase{
		cakes:  cakes,
		tx:     tx,
		images: images,
		ids:    ids,
		clock:  clock,
	}
}

type CakeListOutput struct {
	Cakes      []model.Cake
	Pagination Pagination
	// 絞り込みなしのときだけ入る
	Filters *repo.CakeFilterOptions
}

// GET /cakes
func (u *CakeUsecase) ListPublic(ctx context.Context, p CatalogQueryParams) (CakeListOutput, error) {
	return u.list(ctx, BuildCatalogQuery(p, CatalogScopePublic))
}

// GET /cakes/admin/all（非公開も含む）
func (u *CakeUsecase) ListAdmin(ctx context.Context, p CatalogQueryParams) (CakeListOutput, error) {
	return u.list(ctx, BuildCatalogQuery(p, CatalogScopeAdmin))
}

func (u *CakeUsecase) list(ctx context.Context, q CatalogQuery) (CakeListOutput, error) {
	cakes, total, err := u.cakes.List(ctx, q.List)
	if err != nil {
		return CakeListOutput{}, storeError(err, "error fetching cakes")
	}

	out := CakeListOutput{
		Cakes:      cakes,
		Pagination: newPagination(q.List.Page, q.List.Limit, total),
	}

	if q.WithFilterOptions {
		opts, err := u.cakes.FilterOptions(ctx)
		if err != nil {
			return CakeListOutput{}, storeError(err, "error fetching cakes")
		}
		out.Filters = &opts
	}
	return out, nil
}

// GET /cakes/:id
// 不正なIDは404（400にはしない）
func (u *CakeUsecase) Get(ctx context.Context, id string) (model.Cake, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Cake{}, newKindError(http.StatusNotFound, KindNotFound, "cake not found")
	}

	c, err := u.cakes.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cake{}, newKindError(http.StatusNotFound, KindNotFound, "cake not found")
	}
	if err != nil {
		return model.Cake{}, storeError(err, "error fetching cake details")
	}
	return c, nil
}

// 作成。画像→フレーバー→必須項目の順に確認する。
// 画像は検証がすべて通ってから保存し、保存後に失敗したら消す。
func (u *CakeUsecase) Create(ctx context.Context, actor model.Actor, form validator.CakeForm, image *repo.ImageUpload) (model.Cake, error) {
	if image == nil {
		return model.Cake{}, newKindError(http.StatusBadRequest, KindImageRequired, "cake image is required")
	}

	flavors := model.NormalizeFlavors(form.Flavors)
	if len(flavors) == 0 {
		return model.Cake{}, newKindError(http.StatusBadRequest, KindFlavorRequired, "at least one flavor is required")
	}

	// 足りない項目はまとめて返す
	var missing []FieldError
	if form.Name == nil || strings.TrimSpace(*form.Name) == "" {
		missing = append(missing, FieldError{Field: "name", Message: "is required"})
	}
	if form.Price == nil {
		missing = append(missing, FieldError{Field: "price", Message: "is required"})
	}
	if form.Description == nil || strings.TrimSpace(*form.Description) == "" {
		missing = append(missing, FieldError{Field: "description", Message: "is required"})
	}
	if len(form.WeightOptions) == 0 {
		missing = append(missing, FieldError{Field: "weightOptions", Message: "at least one weight option is required"})
	}
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, m := range missing {
			names = append(names, m.Field)
		}
		return model.Cake{}, newValidationError("missing required fields: "+strings.Join(names, ", "), missing)
	}

	trimCakeForm(&form)
	form.Flavors = flavors
	if err := checkCakeForm(form); err != nil {
		return model.Cake{}, err
	}

	cake := model.Cake{
		ID:          u.ids.NewID(),
		Name:        *form.Name,
		Price:       *form.Price,
		Description: *form.Description,
		Category:    model.CategoryOther,
		IsAvailable: true,
		Tags:        pq.StringArray(normalizeTags(form.Tags)),
	}
	cake.SetFlavors(flavors)
	cake.WeightOptions = toWeightOptions(form.WeightOptions)
	if form.Category != nil {
		cake.Category = model.Category(*form.Category)
	}
	if form.IsAvailable != nil {
		cake.IsAvailable = *form.IsAvailable
	}

	ref, err := u.images.Save(ctx, *image)
	if err != nil {
		return model.Cake{}, imageError(err)
	}
	cake.ImageURL = ref

	var created model.Cake
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Cakes().Create(ctx, cake)
		if err != nil {
			return err
		}
		created = c
		return u.audit(ctx, r, actor, model.AuditActionCreateCake, c.ID, nil, c)
	})
	if err != nil {
		u.discardImage(ctx, ref)
		return model.Cake{}, storeError(err, "error creating cake")
	}

	created.AverageRating = created.ComputeAverageRating()
	return created, nil
}

// 更新。送られていない項目は今の値のまま。
// 新しい画像がなければ画像URLも変えない。
func (u *CakeUsecase) Update(ctx context.Context, actor model.Actor, id string, form validator.CakeForm, image *repo.ImageUpload) (model.Cake, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Cake{}, newKindError(http.StatusNotFound, KindNotFound, "cake not found")
	}

	// 送られてきたフレーバーが全部空なら既存を消さずに拒否
	if form.Flavors != nil {
		flavors := model.NormalizeFlavors(form.Flavors)
		if len(flavors) == 0 {
			return model.Cake{}, newKindError(http.StatusBadRequest, KindFlavorRequired, "at least one flavor is required")
		}
		form.Flavors = flavors
	}

	trimCakeForm(&form)

	// 空文字で既存の値を消すことはできない
	var blank []FieldError
	if form.Name != nil && *form.Name == "" {
		blank = append(blank, FieldError{Field: "name", Message: "cannot be empty"})
	}
	if form.Description != nil && *form.Description == "" {
		blank = append(blank, FieldError{Field: "description", Message: "cannot be empty"})
	}
	if form.WeightOptions != nil && len(form.WeightOptions) == 0 {
		blank = append(blank, FieldError{Field: "weightOptions", Message: "at least one weight option is required"})
	}
	if len(blank) > 0 {
		return model.Cake{}, newValidationError("validation failed", blank)
	}

	if err := checkCakeForm(form); err != nil {
		return model.Cake{}, err
	}

	existing, err := u.cakes.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cake{}, newKindError(http.StatusNotFound, KindNotFound, "cake not found")
	}
	if err != nil {
		return model.Cake{}, storeError(err, "error updating cake")
	}

	next := applyCakeForm(existing, form)

	newRef := ""
	if image != nil {
		newRef, err = u.images.Save(ctx, *image)
		if err != nil {
			return model.Cake{}, imageError(err)
		}
		next.ImageURL = newRef
	}

	var updated model.Cake
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Cakes().Update(ctx, next)
		if err != nil {
			return err
		}
		updated = c
		return u.audit(ctx, r, actor, model.AuditActionUpdateCake, id, existing, c)
	})
	if err != nil {
		if newRef != "" {
			u.discardImage(ctx, newRef)
		}
		if errors.Is(err, repo.ErrNotFound) {
			return model.Cake{}, newKindError(http.StatusNotFound, KindNotFound, "cake not found")
		}
		return model.Cake{}, storeError(err, "error updating cake")
	}

	// 差し替えた古い画像は消す（失敗しても更新は成功扱い）
	if newRef != "" && existing.ImageURL != "" && existing.ImageURL != newRef {
		u.discardImage(ctx, existing.ImageURL)
	}

	return updated, nil
}

// DELETE /cakes/:id
// 過去の注文は明細のスナップショットを持っているので影響しない
func (u *CakeUsecase) Delete(ctx context.Context, actor model.Actor, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return newKindError(http.StatusNotFound, KindNotFound, "cake not found")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Cakes().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := r.Cakes().SoftDelete(ctx, id); err != nil {
			return err
		}
		return u.audit(ctx, r, actor, model.AuditActionDeleteCake, id, before, nil)
	})
	if errors.Is(err, repo.ErrNotFound) {
		return newKindError(http.StatusNotFound, KindNotFound, "cake not found")
	}
	if err != nil {
		return storeError(err, "error deleting cake")
	}
	return nil
}

// PATCH /cakes/:id/availability
func (u *CakeUsecase) SetAvailability(ctx context.Context, actor model.Actor, id string, available bool) (model.Cake, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Cake{}, newKindError(http.StatusNotFound, KindNotFound, "cake not found")
	}

	var out model.Cake
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Cakes().FindByID(ctx, id)
		if err != nil {
			return err
		}
		c, err := r.Cakes().SetAvailability(ctx, id, available)
		if err != nil {
			return err
		}
		out = c
		return u.audit(ctx, r, actor, model.AuditActionToggleAvailability, id,
			map[string]bool{"isAvailable": before.IsAvailable},
			map[string]bool{"isAvailable": c.IsAvailable},
		)
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cake{}, newKindError(http.StatusNotFound, KindNotFound, "cake not found")
	}
	if err != nil {
		return model.Cake{}, storeError(err, "error toggling cake availability")
	}
	return out, nil
}

// 監査ログ（同じトランザクション内）
func (u *CakeUsecase) audit(ctx context.Context, r repo.TxRepos, actor model.Actor, action model.AuditAction, resourceID string, before interface{}, after interface{}) error {
	return r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actor.UserID,
		Action:       action,
		ResourceType: model.AuditResourceCake,
		ResourceID:   resourceID,
		BeforeJSON:   toAuditJSON(before),
		AfterJSON:    toAuditJSON(after),
		CreatedAt:    u.clock.Now(),
	})
}

func (u *CakeUsecase) discardImage(ctx context.Context, ref string) {
	// 呼び出し元のctxが切れていても消しに行く
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	_ = u.images.Remove(cctx, ref)
}

func imageError(err error) error {
	return &HTTPError{Status: http.StatusInternalServerError, Kind: KindInternal, Message: "error saving cake image", Cause: err}
}

func toAuditJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func trimCakeForm(f *validator.CakeForm) {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		s := strings.TrimSpace(*p)
		return &s
	}
	f.Name = trim(f.Name)
	f.Description = trim(f.Description)
	f.Category = trim(f.Category)
	// 空のカテゴリは未指定扱い
	if f.Category != nil && *f.Category == "" {
		f.Category = nil
	}
	for i := range f.WeightOptions {
		f.WeightOptions[i].Weight = strings.TrimSpace(f.WeightOptions[i].Weight)
	}
}

var amountMessage = "must have at most 2 decimal places and not exceed " + model.MaxAmount.String()

// 長さ・列挙・金額・価格帯の重複
func checkCakeForm(f validator.CakeForm) error {
	if err := validator.Struct(f); err != nil {
		return fromValidation(err)
	}

	// 保存時に丸められないよう小数2桁まで
	var bad []FieldError
	if f.Price != nil && !model.FitsAmount(*f.Price) {
		bad = append(bad, FieldError{Field: "price", Message: amountMessage})
	}
	for i, o := range f.WeightOptions {
		if o.Price != nil && !model.FitsAmount(*o.Price) {
			bad = append(bad, FieldError{Field: fmt.Sprintf("weightOptions[%d].price", i), Message: amountMessage})
		}
	}
	if len(bad) > 0 {
		return newValidationError("validation failed", bad)
	}

	opts := toWeightOptions(f.WeightOptions)
	if w, dup := model.DuplicateWeight(opts); dup {
		return newValidationError(
			fmt.Sprintf("duplicate weight option %q", w),
			[]FieldError{{Field: "weightOptions", Message: "weight " + string(w) + " is listed more than once"}},
		)
	}
	return nil
}

// validatorのエラーをVALIDATION_FAILEDに変換する
func fromValidation(err error) *HTTPError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &HTTPError{Status: http.StatusBadRequest, Kind: KindValidationFailed, Message: "validation failed", Cause: err}
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{Field: fe.Field, Message: fe.Message})
	}
	return newValidationError("validation failed", details)
}

func toWeightOptions(in []validator.WeightOptionForm) []model.WeightOption {
	out := make([]model.WeightOption, 0, len(in))
	for _, o := range in {
		opt := model.WeightOption{Weight: model.Weight(o.Weight)}
		if o.Price != nil {
			opt.Price = *o.Price
		}
		out = append(out, opt)
	}
	return out
}

func normalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// 送られてきた項目だけ上書きする
func applyCakeForm(c model.Cake, f validator.CakeForm) model.Cake {
	if f.Name != nil {
		c.Name = *f.Name
	}
	if f.Flavors != nil {
		c.SetFlavors(f.Flavors)
	}
	if f.Price != nil {
		c.Price = *f.Price
	}
	if f.Description != nil {
		c.Description = *f.Description
	}
	if f.Category != nil {
		c.Category = model.Category(*f.Category)
	}
	if f.WeightOptions != nil {
		c.WeightOptions = toWeightOptions(f.WeightOptions)
	}
	if f.IsAvailable != nil {
		c.IsAvailable = *f.IsAvailable
	}
	if f.Tags != nil {
		c.Tags = pq.StringArray(normalizeTags(f.Tags))
	}
	return c
}
