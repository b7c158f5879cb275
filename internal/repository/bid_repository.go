package repository

import (
	"context"

	"farmmarket/internal/domain/model"
)

// 入札の保存・取得・状態更新を約束。
type BidRepository interface {
	FindByID(ctx context.Context, id string) (model.Bid, error)

	// 商品の active な入札を新しい順で返す
	ListActiveByProduct(ctx context.Context, productID string) ([]model.Bid, error)

	// 作成は入札サービス側の責務。シードやテストで使う
	Create(ctx context.Context, b model.Bid) (model.Bid, error)

	// active の入札だけ status を更新する。0件なら ErrStaleState
	UpdateStatus(ctx context.Context, bidID string, status model.BidStatus) error

	// exceptBidID 以外の active な入札をすべて inactive にし、実際に更新したIDを返す
	InactivateActiveByProduct(ctx context.Context, productID string, exceptBidID string) ([]string, error)
}
