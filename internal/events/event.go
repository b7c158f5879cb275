package events

import (
	"context"
	"errors"
	"time"
)

// 入札まわりのイベント種別
type Type string

const (
	TypeBiddingOpened Type = "bidding.opened"
	TypeBidAccepted   Type = "bid.accepted"
	TypeBidRejected   Type = "bid.rejected"
	TypeBiddingClosed Type = "bidding.closed"
)

// コミット後に外へ流すイベント。
// 通知（落札・不採用のお知らせ）やダッシュボード更新が購読する。
type Event struct {
	ID                string    `json:"event_id"`
	Type              Type      `json:"type"`
	ProductID         string    `json:"product_id"`
	BidID             string    `json:"bid_id,omitempty"`
	FarmerID          string    `json:"farmer_id"`
	InactivatedBidIDs []string  `json:"inactivated_bid_ids,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// 何も設定されていないとき用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// 複数の宛先に流す。途中で失敗しても残りには送る
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
