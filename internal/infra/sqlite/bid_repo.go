package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"farmmarket/internal/domain/model"
	repo "farmmarket/internal/repository"

	"github.com/jmoiron/sqlx"
)

const bidColumns = `id, product_id, bidder_id, amount, status, created_at, updated_at`

type BidRepo struct {
	db sqlx.ExtContext
}

func NewBidRepo(db sqlx.ExtContext) *BidRepo {
	return &BidRepo{db: db}
}

func (r *BidRepo) FindByID(ctx context.Context, id string) (model.Bid, error) {
	var b model.Bid
	err := sqlx.GetContext(ctx, r.db, &b, `SELECT `+bidColumns+` FROM bids WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bid{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Bid{}, err
	}
	return b, nil
}

func (r *BidRepo) ListActiveByProduct(ctx context.Context, productID string) ([]model.Bid, error) {
	bids := []model.Bid{}
	err := sqlx.SelectContext(ctx, r.db, &bids, `
SELECT `+bidColumns+` FROM bids
WHERE product_id = ? AND status = ?
ORDER BY created_at DESC, id DESC`, productID, model.BidStatusActive)
	if err != nil {
		return []model.Bid{}, err
	}
	return bids, nil
}

func (r *BidRepo) Create(ctx context.Context, b model.Bid) (model.Bid, error) {
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.Status == "" {
		b.Status = model.BidStatusActive
	}
	b.UpdatedAt = now

	_, err := sqlx.NamedExecContext(ctx, r.db, `
INSERT INTO bids(`+bidColumns+`)
VALUES(:id, :product_id, :bidder_id, :amount, :status, :created_at, :updated_at)`, b)
	if err != nil {
		return model.Bid{}, err
	}
	return b, nil
}

func (r *BidRepo) UpdateStatus(ctx context.Context, bidID string, status model.BidStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bids SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		status, time.Now().UTC(), bidID, model.BidStatusActive)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *BidRepo) InactivateActiveByProduct(ctx context.Context, productID string, exceptBidID string) ([]string, error) {
	ids := []string{}
	err := sqlx.SelectContext(ctx, r.db, &ids, `
UPDATE bids SET status = ?, updated_at = ?
WHERE product_id = ? AND status = ? AND id <> ?
RETURNING id`,
		model.BidStatusInactive, time.Now().UTC(), productID, model.BidStatusActive, exceptBidID)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
