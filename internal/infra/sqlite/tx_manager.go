package sqlite

import (
	"context"

	repo "farmmarket/internal/repository"

	"github.com/jmoiron/sqlx"
)

type txRepos struct {
	tx *sqlx.Tx
}

func (r *txRepos) Products() repo.ProductRepository   { return NewProductRepo(r.tx) }
func (r *txRepos) Bids() repo.BidRepository           { return NewBidRepo(r.tx) }
func (r *txRepos) AuditLogs() repo.AuditLogRepository { return NewAuditLogRepo(r.tx) }

type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

// fn の中では必ず r の repo を使う（コネクション1本なので外のdbを使うと詰まる）
func (m *TxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) (err error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txRepos{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
