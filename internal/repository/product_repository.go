package repository

import (
	"context"
	"errors"

	"farmmarket/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 条件付き更新が0件だった（他のリクエストが先に状態を変えた）
var ErrStaleState = errors.New("stale state")

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (model.Product, error)

	// トランザクション内で行ロックを取って取得する
	FindByIDForUpdate(ctx context.Context, id string) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)

	// is_bidding が from のときだけ to に更新する。0件なら ErrStaleState
	SetBidding(ctx context.Context, id string, from bool, to bool) error
}
