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

const productColumns = `id, farmer_id, name, description, price, quantity, unit, is_bidding, created_at, updated_at`

type ProductRepo struct {
	db sqlx.ExtContext
}

// *sqlx.DB と *sqlx.Tx のどちらでも動く
func NewProductRepo(db sqlx.ExtContext) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) FindByID(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := sqlx.GetContext(ctx, r.db, &p, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// SQLiteに行ロックはない。コネクションが1本なのでトランザクション単位で直列になる
func (r *ProductRepo) FindByIDForUpdate(ctx context.Context, id string) (model.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *ProductRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := sqlx.NamedExecContext(ctx, r.db, `
INSERT INTO products(`+productColumns+`)
VALUES(:id, :farmer_id, :name, :description, :price, :quantity, :unit, :is_bidding, :created_at, :updated_at)`, p)
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) SetBidding(ctx context.Context, id string, from bool, to bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET is_bidding = ?, updated_at = ? WHERE id = ? AND is_bidding = ?`,
		to, time.Now().UTC(), id, from)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrStaleState
	}
	return nil
}
