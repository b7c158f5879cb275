package usecase_test

import (
	"context"

	"farmmarket/internal/domain/model"
	"farmmarket/internal/events"
	repo "farmmarket/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	products  repo.ProductRepository
	bids      repo.BidRepository
	auditLogs repo.AuditLogRepository
}

func (r *TxReposMock) Products() repo.ProductRepository   { return r.products }
func (r *TxReposMock) Bids() repo.BidRepository           { return r.bids }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) FindByID(ctx context.Context, id string) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindByIDForUpdate(ctx context.Context, id string) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used in BiddingUsecase tests")
}

func (m *ProductRepoMock) SetBidding(ctx context.Context, id string, from bool, to bool) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

type BidRepoMock struct{ mock.Mock }

func (m *BidRepoMock) FindByID(ctx context.Context, id string) (model.Bid, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(model.Bid)
	return b, args.Error(1)
}

func (m *BidRepoMock) ListActiveByProduct(ctx context.Context, productID string) ([]model.Bid, error) {
	args := m.Called(ctx, productID)
	bids, _ := args.Get(0).([]model.Bid)
	return bids, args.Error(1)
}

func (m *BidRepoMock) Create(ctx context.Context, b model.Bid) (model.Bid, error) {
	panic("not used in BiddingUsecase tests")
}

func (m *BidRepoMock) UpdateStatus(ctx context.Context, bidID string, status model.BidStatus) error {
	args := m.Called(ctx, bidID, status)
	return args.Error(0)
}

func (m *BidRepoMock) InactivateActiveByProduct(ctx context.Context, productID string, exceptBidID string) ([]string, error) {
	args := m.Called(ctx, productID, exceptBidID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	panic("not used in BiddingUsecase tests")
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, e events.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}
