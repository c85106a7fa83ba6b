package usecase_test

import (
	"context"
	"time"

	"ebake/internal/domain/model"
	repo "ebake/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// Repository mocks
// =====================

type CakeRepoMock struct{ mock.Mock }

func (m *CakeRepoMock) List(ctx context.Context, q repo.CakeListQuery) ([]model.Cake, int64, error) {
	args := m.Called(ctx, q)
	cakes, _ := args.Get(0).([]model.Cake)
	return cakes, args.Get(1).(int64), args.Error(2)
}

func (m *CakeRepoMock) FilterOptions(ctx context.Context) (repo.CakeFilterOptions, error) {
	args := m.Called(ctx)
	opts, _ := args.Get(0).(repo.CakeFilterOptions)
	return opts, args.Error(1)
}

func (m *CakeRepoMock) FindByID(ctx context.Context, id string) (model.Cake, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(model.Cake)
	return c, args.Error(1)
}

func (m *CakeRepoMock) FindByIDsUnscoped(ctx context.Context, ids []string) ([]model.Cake, error) {
	args := m.Called(ctx, ids)
	cakes, _ := args.Get(0).([]model.Cake)
	return cakes, args.Error(1)
}

func (m *CakeRepoMock) Create(ctx context.Context, c model.Cake) (model.Cake, error) {
	args := m.Called(ctx, c)
	created, _ := args.Get(0).(model.Cake)
	return created, args.Error(1)
}

func (m *CakeRepoMock) Update(ctx context.Context, c model.Cake) (model.Cake, error) {
	args := m.Called(ctx, c)
	updated, _ := args.Get(0).(model.Cake)
	return updated, args.Error(1)
}

func (m *CakeRepoMock) SetAvailability(ctx context.Context, id string, available bool) (model.Cake, error) {
	args := m.Called(ctx, id, available)
	c, _ := args.Get(0).(model.Cake)
	return c, args.Error(1)
}

func (m *CakeRepoMock) SoftDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type OrderRepoMock struct{ mock.Mock }

// Return(nil, nil) なら受け取った注文をそのまま返す
func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (model.Order, error) {
	args := m.Called(ctx, order)
	o, ok := args.Get(0).(model.Order)
	if !ok && args.Error(1) == nil {
		o = order
	}
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, reason *string) error {
	args := m.Called(ctx, orderID, status, reason)
	return args.Error(0)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) FindByID(ctx context.Context, userID string) (model.User, error) {
	panic("not used in usecase tests")
}

func (m *UserRepoMock) FindByIDs(ctx context.Context, userIDs []string) ([]model.User, error) {
	args := m.Called(ctx, userIDs)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, f)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type ImageStoreMock struct{ mock.Mock }

func (m *ImageStoreMock) Save(ctx context.Context, img repo.ImageUpload) (string, error) {
	args := m.Called(ctx, img)
	return args.String(0), args.Error(1)
}

func (m *ImageStoreMock) Remove(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

// =====================
// TxManager / TxRepos
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定する。fnのエラーはそのまま返す。
type TxManagerMock struct {
	Repos repo.TxRepos
	Calls int
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Calls++
	return fn(m.Repos)
}

type TxReposMock struct {
	orders *OrderRepoMock
	cakes  *CakeRepoMock
	audits *AuditRepoMock
}

func (r *TxReposMock) Orders() repo.OrderRepository       { return r.orders }
func (r *TxReposMock) Cakes() repo.CakeRepository         { return r.cakes }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository { return r.audits }

// =====================
// Clock / ID / Recorder
// =====================

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixedID struct{ id string }

func (g fixedID) NewID() string { return g.id }

type recorderSpy struct {
	placed      int
	placedTotal float64
	rejected    []string
	transitions [][2]model.OrderStatus
}

func (r *recorderSpy) OrderPlaced(total float64, lines int) {
	r.placed++
	r.placedTotal = total
}

func (r *recorderSpy) OrderRejected(kind string) {
	r.rejected = append(r.rejected, kind)
}

func (r *recorderSpy) StatusChanged(from model.OrderStatus, to model.OrderStatus) {
	r.transitions = append(r.transitions, [2]model.OrderStatus{from, to})
}
