package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"farmmarket/internal/domain/model"
	"farmmarket/internal/events"
	repo "farmmarket/internal/repository"
	"farmmarket/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixedIDs struct{}

func (fixedIDs) NewID() string { return "event-1" }

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }

type fixture struct {
	tm       *TxManagerMock
	products *ProductRepoMock
	bids     *BidRepoMock
	audit    *AuditRepoMock
	pub      *PublisherMock
	uc       *usecase.BiddingUsecase
}

func newFixture(strict bool) fixture {
	f := fixture{
		products: new(ProductRepoMock),
		bids:     new(BidRepoMock),
		audit:    new(AuditRepoMock),
		pub:      new(PublisherMock),
	}
	f.tm = &TxManagerMock{Repos: &TxReposMock{products: f.products, bids: f.bids, auditLogs: f.audit}}
	f.tm.On("WithinTx", mock.Anything)

	f.uc = usecase.NewBiddingUsecase(f.tm, f.products, f.bids, f.pub, nil, usecase.BiddingOptions{
		StrictReopen: strict,
		IDs:          fixedIDs{},
		Clock:        fixedClock{},
	})
	return f
}

func (f fixture) assertAll(t *testing.T) {
	t.Helper()
	f.products.AssertExpectations(t)
	f.bids.AssertExpectations(t)
	f.audit.AssertExpectations(t)
	f.pub.AssertExpectations(t)
}

func product(bidding bool) model.Product {
	return model.Product{ID: "p1", FarmerID: "farmer-1", Name: "トマト", IsBidding: bidding}
}

func bid(id string, status model.BidStatus) model.Bid {
	return model.Bid{ID: id, ProductID: "p1", BidderID: "c-" + id, Amount: decimal.NewFromInt(100), Status: status}
}

func auditAction(action model.AuditAction) any {
	return mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == action && l.ActorUserID == "farmer-1"
	})
}

func eventType(typ events.Type) any {
	return mock.MatchedBy(func(e events.Event) bool {
		return e.Type == typ && e.ProductID == "p1" && e.ID == "event-1"
	})
}

// =====================
// OpenBidding
// =====================

func TestOpenBidding_OK(t *testing.T) {
	f := newFixture(false)
	f.products.On("FindByIDForUpdate", mock.Anything, "p1").Return(product(false), nil)
	f.products.On("SetBidding", mock.Anything, "p1", false, true).Return(nil)
	f.audit.On("Create", mock.Anything, auditAction(model.AuditActionOpenBidding)).Return(nil)
	f.pub.On("Publish", mock.Anything, eventType(events.TypeBiddingOpened)).Return(nil)

	err := f.uc.OpenBidding(context.Background(), "farmer-1", "p1")

	assert.NoError(t, err)
	f.assertAll(t)
}

func TestOpenBidding_AlreadyOpen_NoOp(t *testing.T) {
	f := newFixture(false)
	f.products.On("FindByIDForUpdate", mock.Anything, "p1").Return(product(true), nil)

	err := f.uc.OpenBidding(context.Background(), "farmer-1", "p1")

	assert.NoError(t, err)
	f.products.AssertNotCalled(t, "SetBidding", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestOpenBidding_AlreadyOpen_Strict(t *testing.T) {
	f := newFixture(true)
	f.products.On("FindByIDForUpdate", mock.Anything, "p1").Return(product(true), nil)

	err := f.uc.OpenBidding(context.Background(), "farmer-1", "p1")

	assert.ErrorIs(t, err, usecase.ErrInvalidState)
	f.products.AssertNotCalled(t, "SetBidding", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOpenBidding_LostRace_NoOp(t *testing.T) {
	f := newFixture(false)
	f.products.On("FindByIDForUpdate", mock.Anything, "p1").Return(product(false), nil)
	f.products.On("SetBidding", mock.Anything, "p1", false, true).Return(repo.ErrStaleState)

	err := f.uc.OpenBidding(context.Background(), "farmer-1", "p1")

	assert.NoError(t, err)
	f.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOpenBidding_NotOwner(t *testing.T) {
	f := newFixture(false)
	f.products.On("FindByIDForUpdate", mock.Anything, "p1").Return(product(false), nil)

	err := f.uc.OpenBidding(context.Background(), "farmer-2", "p1")

	assert.ErrorIs(t, err, usecase.ErrUnauthorized)
	f.products.AssertNotCalled(t, "SetBidding", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOpenBidding_ProductNotFound(t *testing.T) {
	f := newFixture(false)
	f.products.On("FindByIDForUpdate", mock.Anything, "nope").Return(model.Product{}, repo.ErrNotFound)

	err := f.uc.OpenBidding(context.Background(), "farmer-1", "nope")

	assert.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestOpenBidding_EmptyProductID(t *testing.T) {
	f := newFixture(false)

	err := f.uc.OpenBidding(context.Background(), "farmer-1", "  ")

	assert.ErrorIs(t, err, usecase.ErrInvalidInput)
	f.tm.AssertNotCalled(t, "WithinTx", mock.Anything)
}

// =====================
// AcceptBid / RejectBid
// =====================

func TestAcceptBid_OK(t *testing.T) {
	f := newFixture(false)
	f.products.On("FindByIDForUpdate", mock.Anything, "p1").Return(product(true), nil)
	f.bids.On("FindByID", mock.Anything, "b1").Return(bid("b1", model.BidStatusActive), nil)
	f.bids.On("UpdateStatus", mock.Anything, "b1", model.BidStatusAccepted).Return(nil)
	f.audit.On("Create", mock.Anything, auditAction(model.AuditActionAcceptBid)).Return(nil)
	f.pub.On("Publish", mock.Anything, eventType(events.TypeBidAccepted)).Return(nil)

	err := f.uc.AcceptBid(context.Background(), "farmer-1", "p1", "b1")

	assert.NoError(t, err)
	f.assertAll(t)
	f.products.AssertNotCalled(t, "SetBidding", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRejectBid_OK(t *testing.T) {
	f := newFixture(false)
	f.products.On("FindByIDForUpdate", mock.Anything, "p1").Return(product(true), nil)
	f.bids.On("FindByID", mock.Anything, "b1").Return(bid("b1", model.BidStatusActive), nil)
	f.bids.On("UpdateStatus", mock.Anything, "b1", model.BidStatusRejected).Return(nil)
	f.audit.On("Create", mock.Anything, auditAction(model.AuditActionRejectBid)).Return(nil)
	f.pub.On("Publish", mock.Anything, eventType(events.TypeBidRejected)).Return(nil)

	err := f.uc.RejectBid(context.Background(), "farmer-1", "p1", "b1")

	assert.NoError(t, err)
	f.assertAll(t)
}

func TestAcceptBid_Errors(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		product model.Product
		bid     model.Bid
		bidErr  error
		want    error
	}{
		{"not owner", "farmer-2", product(true), bid("b1", model.BidStatusActive), nil, usecase.ErrUnauthorized},
		{"bid missing", "farmer-1", product(true), model.Bid{}, repo.ErrNotFound, usecase.ErrNotFound},
		{"bid of another product", "farmer-1", product(true), model.Bid{ID: "b1", ProductID: "p9", Status: model.BidStatusActive}, nil, usecase.ErrNotFound},
		{"bidding closed", "farmer-1", product(false), bid("b1", model.BidStatusActive), nil, usecase.ErrInvalidState},
		{"already won", "farmer-1", product(true), bid("b1", model.BidStatusWon), nil, usecase.ErrInvalidState},
		{"already accepted", "farmer-1", product(true), bid("b1", model.BidStatusAccepted), nil, usecase.ErrInvalidState},
		{"unknown status", "farmer-1", product(true), bid("b1", model.BidStatus("pending")), nil, usecase.ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(false)
			f.products.On("FindByIDForUpdate", mock.Anything, "p1").Return(tt.product, nil)
			f.bids.On("FindByID", mock.Anything, "b1").Return(tt.bid, tt.bidErr).Maybe()

			err := f.uc.AcceptBid(context.Background(), tt.actor, "p1", "b1")

			assert.ErrorIs(t, err, tt.want)
			f.bids.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
			f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestAcceptBid_EmptyBidID(t *testing.T) {
	f := newFixture(false)

	err := f.uc.AcceptBid(context.Background(), "farmer-1", "p1", "")

	assert.ErrorIs(t, err, usecase.ErrInvalidInput)
	f.tm.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestAcceptBid_ConcurrentTransition(t *testing.T) {
	f := newFixture(false)
	f.products.On("FindByIDForUpdate", mock.Anything, "p1").Return(product(true), nil)
	f.bids.On("FindByID", mock.Anything, "b1").Return(bid("b1", model.BidStatusActive), nil)
	f.bids.On("UpdateStatus", mock.Anything, "b1", model.BidStatusAccepted).Return(repo.ErrStaleState)

	err := f.uc.AcceptBid(context.Background(), "farmer-1", "p1", "b1")

	assert.ErrorIs(t, err, usecase.ErrInvalidState)
	f.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRejectBid_StoreFailure(t *testing.T) {
	f := newFixture(false)
	dbErr := errors.New("connection reset")
	f.products.On("FindByIDForUpdate", mock.Anything, "p1").Return(product(true), nil)
	f.bids.On("FindByID", mock.Anything, "b1").Return(bid("b1", model.BidStatusActive), nil)
	f.bids.On("UpdateStatus", mock.Anything, "b1", model.BidStatusRejected).Return(dbErr)

	err := f.uc.RejectBid(context.Background(), "farmer-1", "p1", "b1")

	assert.ErrorIs(t, err, usecase.ErrStoreFailure)
	assert.ErrorIs(t, err, dbErr)
	f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestAcceptBid_PublishFailureIsIgnored(t *testing.T) {
	f := newFixture(false)
	f.products.On("FindByIDForUpdate", mock.Anything, "p1").Return(product(true), nil)
	f.bids.On("FindByID", mock.Anything, "b1").Return(bid("b1", model.BidStatusActive), nil)
	f.bids.On("UpdateStatus", mock.Anything, "b1", model.BidStatusAccepted).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nats down"))

	err := f.uc.AcceptBid(context.Background(), "farmer-1", "p1", "b1")

	assert.NoError(t, err)
}

// =====================
// SelectWinner
// =====================

func TestSelectWinner_OK(t *testing.T) {
	f := newFixture(false)
	f.products.On("FindByIDForUpdate", mock.Anything, "p1").Return(product(true), nil)
	f.bids.On("FindByID", mock.Anything, "b2").Return(bid("b2", model.BidStatusActive), nil)
	f.bids.On("UpdateStatus", mock.Anything, "b2", model.BidStatusWon).Return(nil)
	f.bids.On("InactivateActiveByProduct", mock.Anything, "p1", "b2").Return([]string{"b3", "b1"}, nil)
	f.products.On("SetBidding", mock.Anything, "p1", true, false).Return(nil)
	f.audit.On("Create", mock.Anything, auditAction(model.AuditActionSelectWinner)).Return(nil)
	f.pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.TypeBiddingClosed && e.BidID == "b2" &&
			len(e.InactivatedBidIDs) == 2 && e.InactivatedBidIDs[0] == "b1" && e.InactivatedBidIDs[1] == "b3"
	})).Return(nil)

	out, err := f.uc.SelectWinner(context.Background(), "farmer-1", "p1", "b2")

	require.NoError(t, err)
	assert.Equal(t, "b2", out.WinnerBidID)
	assert.Equal(t, []string{"b1", "b3"}, out.InactivatedBidIDs)
	f.assertAll(t)
}

func TestSelectWinner_BiddingClosedByConcurrentCall(t *testing.T) {
	f := newFixture(false)
	f.products.On("FindByIDForUpdate", mock.Anything, "p1").Return(product(true), nil)
	f.bids.On("FindByID", mock.Anything, "b1").Return(bid("b1", model.BidStatusActive), nil)
	f.bids.On("UpdateStatus", mock.Anything, "b1", model.BidStatusWon).Return(nil)
	f.bids.On("InactivateActiveByProduct", mock.Anything, "p1", "b1").Return([]string{}, nil)
	f.products.On("SetBidding", mock.Anything, "p1", true, false).Return(repo.ErrStaleState)

	_, err := f.uc.SelectWinner(context.Background(), "farmer-1", "p1", "b1")

	assert.ErrorIs(t, err, usecase.ErrInvalidState)
	f.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestSelectWinner_ClosedProduct(t *testing.T) {
	f := newFixture(false)
	f.products.On("FindByIDForUpdate", mock.Anything, "p1").Return(product(false), nil)
	f.bids.On("FindByID", mock.Anything, "b1").Return(bid("b1", model.BidStatusActive), nil)

	_, err := f.uc.SelectWinner(context.Background(), "farmer-1", "p1", "b1")

	assert.ErrorIs(t, err, usecase.ErrInvalidState)
	f.bids.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestSelectWinner_StoreFailureWhileInactivating(t *testing.T) {
	f := newFixture(false)
	f.products.On("FindByIDForUpdate", mock.Anything, "p1").Return(product(true), nil)
	f.bids.On("FindByID", mock.Anything, "b1").Return(bid("b1", model.BidStatusActive), nil)
	f.bids.On("UpdateStatus", mock.Anything, "b1", model.BidStatusWon).Return(nil)
	f.bids.On("InactivateActiveByProduct", mock.Anything, "p1", "b1").Return(nil, errors.New("disk full"))

	_, err := f.uc.SelectWinner(context.Background(), "farmer-1", "p1", "b1")

	assert.ErrorIs(t, err, usecase.ErrStoreFailure)
	f.products.AssertNotCalled(t, "SetBidding", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// =====================
// ListActiveBids
// =====================

func TestListActiveBids_OK(t *testing.T) {
	f := newFixture(false)
	f.products.On("FindByID", mock.Anything, "p1").Return(product(true), nil)
	f.bids.On("ListActiveByProduct", mock.Anything, "p1").Return([]model.Bid{bid("b2", model.BidStatusActive)}, nil)

	out, err := f.uc.ListActiveBids(context.Background(), "farmer-1", "p1")

	require.NoError(t, err)
	assert.Equal(t, "p1", out.Product.ID)
	assert.Len(t, out.Bids, 1)
}

func TestListActiveBids_NotOwner(t *testing.T) {
	f := newFixture(false)
	f.products.On("FindByID", mock.Anything, "p1").Return(product(true), nil)

	_, err := f.uc.ListActiveBids(context.Background(), "", "p1")

	assert.ErrorIs(t, err, usecase.ErrUnauthorized)
	f.bids.AssertNotCalled(t, "ListActiveByProduct", mock.Anything, mock.Anything)
}

// =====================
// AppError
// =====================

func TestAppError_Status(t *testing.T) {
	tests := []struct {
		kind usecase.ErrorKind
		want int
	}{
		{usecase.KindInvalidInput, http.StatusBadRequest},
		{usecase.KindUnauthorized, http.StatusForbidden},
		{usecase.KindNotFound, http.StatusNotFound},
		{usecase.KindInvalidState, http.StatusConflict},
		{usecase.KindStoreFailure, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		ae, ok := usecase.AsAppError(usecase.NewAppError(tt.kind, "x"))
		require.True(t, ok)
		assert.Equal(t, tt.want, ae.Status(), tt.kind)
	}
}
