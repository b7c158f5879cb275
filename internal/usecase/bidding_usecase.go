package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"farmmarket/internal/domain/model"
	"farmmarket/internal/events"
	repo "farmmarket/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type IDGenerator interface {
	NewID() string
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type BiddingOptions struct {
	// true なら入札受付中の商品への再オープンを InvalidState にする
	StrictReopen bool

	IDs   IDGenerator
	Clock Clock
}

// 農家の入札管理（受付開始・採用・不採用・落札者決定）。
type BiddingUsecase struct {
	tx        repo.TransactionManager
	products  repo.ProductRepository
	bids      repo.BidRepository
	publisher events.Publisher
	logger    *zap.Logger

	strictReopen bool
	ids          IDGenerator
	clock        Clock
}

// DI
func NewBiddingUsecase(
	tx repo.TransactionManager,
	products repo.ProductRepository,
	bids repo.BidRepository,
	publisher events.Publisher,
	logger *zap.Logger,
	opts BiddingOptions,
) *BiddingUsecase {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.IDs == nil {
		opts.IDs = UUIDGenerator{}
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	return &BiddingUsecase{
		tx:           tx,
		products:     products,
		bids:         bids,
		publisher:    publisher,
		logger:       logger,
		strictReopen: opts.StrictReopen,
		ids:          opts.IDs,
		clock:        opts.Clock,
	}
}

// 入札ページ用の出力
type ActiveBidsOutput struct {
	Product model.Product `json:"product"`
	Bids    []model.Bid   `json:"bids"`
}

// 落札者決定の結果
type SelectWinnerOutput struct {
	WinnerBidID       string   `json:"winner_bid_id"`
	InactivatedBidIDs []string `json:"inactivated_bid_ids"`
}

// 商品の active な入札一覧（新しい順）
func (u *BiddingUsecase) ListActiveBids(ctx context.Context, actorID, productID string) (ActiveBidsOutput, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ActiveBidsOutput{}, NewAppError(KindInvalidInput, "product id is required")
	}

	p, err := u.products.FindByID(ctx, productID)
	if err != nil {
		return ActiveBidsOutput{}, productLookupError(err)
	}
	if !p.IsOwnedBy(actorID) {
		return ActiveBidsOutput{}, NewAppError(KindUnauthorized, "not the owner of this product")
	}

	bids, err := u.bids.ListActiveByProduct(ctx, productID)
	if err != nil {
		return ActiveBidsOutput{}, storeFailure(err)
	}
	return ActiveBidsOutput{Product: p, Bids: bids}, nil
}

// 入札受付を開始する。受付中なら何もしない（strict なら InvalidState）
func (u *BiddingUsecase) OpenBidding(ctx context.Context, actorID, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return NewAppError(KindInvalidInput, "product id is required")
	}

	opened := false
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByIDForUpdate(ctx, productID)
		if err != nil {
			return productLookupError(err)
		}
		if !p.IsOwnedBy(actorID) {
			return NewAppError(KindUnauthorized, "not the owner of this product")
		}

		if p.IsBidding {
			if u.strictReopen {
				return NewAppError(KindInvalidState, "bidding is already open")
			}
			return nil
		}

		if err := r.Products().SetBidding(ctx, productID, false, true); err != nil {
			// 先に誰かが開けた
			if errors.Is(err, repo.ErrStaleState) {
				if u.strictReopen {
					return NewAppError(KindInvalidState, "bidding is already open")
				}
				return nil
			}
			return storeFailure(err)
		}

		if err := u.audit(ctx, r, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionOpenBidding,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			ProductID:    productID,
		},
			map[string]any{"is_bidding": false},
			map[string]any{"is_bidding": true},
		); err != nil {
			return err
		}
		opened = true
		return nil
	})
	if err != nil {
		return err
	}

	if opened {
		u.publish(ctx, events.Event{
			Type:      events.TypeBiddingOpened,
			ProductID: productID,
			FarmerID:  actorID,
		})
	}
	return nil
}

func (u *BiddingUsecase) AcceptBid(ctx context.Context, actorID, productID, bidID string) error {
	return u.decide(ctx, actorID, productID, bidID, model.BidStatusAccepted)
}

func (u *BiddingUsecase) RejectBid(ctx context.Context, actorID, productID, bidID string) error {
	return u.decide(ctx, actorID, productID, bidID, model.BidStatusRejected)
}

// 採用/不採用。対象の入札1行だけ更新する
func (u *BiddingUsecase) decide(ctx context.Context, actorID, productID, bidID string, to model.BidStatus) error {
	productID = strings.TrimSpace(productID)
	bidID = strings.TrimSpace(bidID)
	if productID == "" {
		return NewAppError(KindInvalidInput, "product id is required")
	}
	if bidID == "" {
		return NewAppError(KindInvalidInput, "bid id is required")
	}

	action := model.AuditActionAcceptBid
	eventType := events.TypeBidAccepted
	if to == model.BidStatusRejected {
		action = model.AuditActionRejectBid
		eventType = events.TypeBidRejected
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		b, err := u.loadForTransition(ctx, r, actorID, productID, bidID, to)
		if err != nil {
			return err
		}

		if err := r.Bids().UpdateStatus(ctx, bidID, to); err != nil {
			// 別リクエストが先に終端にした
			if errors.Is(err, repo.ErrStaleState) {
				return NewAppError(KindInvalidState, "bid is no longer active")
			}
			return storeFailure(err)
		}

		return u.audit(ctx, r, model.AuditLog{
			ActorUserID:  actorID,
			Action:       action,
			ResourceType: model.AuditResourceBid,
			ResourceID:   bidID,
			ProductID:    productID,
		},
			map[string]any{"status": b.Status},
			map[string]any{"status": to},
		)
	})
	if err != nil {
		return err
	}

	u.publish(ctx, events.Event{
		Type:      eventType,
		ProductID: productID,
		BidID:     bidID,
		FarmerID:  actorID,
	})
	return nil
}

// 落札者決定。
// 対象を won、他の active をすべて inactive、商品の受付を終了、を1トランザクションで行う
func (u *BiddingUsecase) SelectWinner(ctx context.Context, actorID, productID, bidID string) (SelectWinnerOutput, error) {
	productID = strings.TrimSpace(productID)
	bidID = strings.TrimSpace(bidID)
	if productID == "" {
		return SelectWinnerOutput{}, NewAppError(KindInvalidInput, "product id is required")
	}
	if bidID == "" {
		return SelectWinnerOutput{}, NewAppError(KindInvalidInput, "bid id is required")
	}

	var out SelectWinnerOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 商品行をロックするので同じ商品の落札者決定は直列になる
		if _, err := u.loadForTransition(ctx, r, actorID, productID, bidID, model.BidStatusWon); err != nil {
			return err
		}

		if err := r.Bids().UpdateStatus(ctx, bidID, model.BidStatusWon); err != nil {
			if errors.Is(err, repo.ErrStaleState) {
				return NewAppError(KindInvalidState, "bid is no longer active")
			}
			return storeFailure(err)
		}

		// 実際に inactive にした入札だけを返す（ロック外で作られた入札も含む）
		inactivated, err := r.Bids().InactivateActiveByProduct(ctx, productID, bidID)
		if err != nil {
			return storeFailure(err)
		}
		if inactivated == nil {
			inactivated = []string{}
		}
		slices.Sort(inactivated)

		if err := r.Products().SetBidding(ctx, productID, true, false); err != nil {
			if errors.Is(err, repo.ErrStaleState) {
				return NewAppError(KindInvalidState, "bidding is not open")
			}
			return storeFailure(err)
		}

		if err := u.audit(ctx, r, model.AuditLog{
			ActorUserID:  actorID,
			Action:       model.AuditActionSelectWinner,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			ProductID:    productID,
		},
			map[string]any{"is_bidding": true, "winner_bid_id": nil},
			map[string]any{"is_bidding": false, "winner_bid_id": bidID, "inactivated_bid_ids": inactivated},
		); err != nil {
			return err
		}

		out = SelectWinnerOutput{WinnerBidID: bidID, InactivatedBidIDs: inactivated}
		return nil
	})
	if err != nil {
		return SelectWinnerOutput{}, err
	}

	u.publish(ctx, events.Event{
		Type:              events.TypeBiddingClosed,
		ProductID:         productID,
		BidID:             bidID,
		FarmerID:          actorID,
		InactivatedBidIDs: out.InactivatedBidIDs,
	})
	return out, nil
}

// 商品と入札を読んで、遷移してよいかを確認する。
// 順番: 商品の存在 -> 所有者 -> 入札の存在と商品の一致 -> 受付中か -> 入札が to に遷移できるか
func (u *BiddingUsecase) loadForTransition(ctx context.Context, r repo.TxRepos, actorID, productID, bidID string, to model.BidStatus) (model.Bid, error) {
	p, err := r.Products().FindByIDForUpdate(ctx, productID)
	if err != nil {
		return model.Bid{}, productLookupError(err)
	}
	if !p.IsOwnedBy(actorID) {
		return model.Bid{}, NewAppError(KindUnauthorized, "not the owner of this product")
	}

	b, err := r.Bids().FindByID(ctx, bidID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Bid{}, NewAppError(KindNotFound, "bid not found")
	}
	if err != nil {
		return model.Bid{}, storeFailure(err)
	}
	// 他の商品の入札は存在しない扱い
	if !b.BelongsTo(productID) {
		return model.Bid{}, NewAppError(KindNotFound, "bid not found")
	}

	if !p.IsBidding {
		return model.Bid{}, NewAppError(KindInvalidState, "bidding is not open")
	}
	if !model.CanTransition(b.Status, to) {
		return model.Bid{}, NewAppError(KindInvalidState, "bid is already "+string(b.Status))
	}
	return b, nil
}

func productLookupError(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return NewAppError(KindNotFound, "product not found")
	}
	return storeFailure(err)
}

// entry の ID/JSON/CreatedAt 以外は呼び出し側で埋める
func (u *BiddingUsecase) audit(ctx context.Context, r repo.TxRepos, entry model.AuditLog, before, after map[string]any) error {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return &AppError{Kind: KindStoreFailure, Message: "encode audit log", Err: err}
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return &AppError{Kind: KindStoreFailure, Message: "encode audit log", Err: err}
	}

	entry.BeforeJSON = string(beforeJSON)
	entry.AfterJSON = string(afterJSON)
	entry.CreatedAt = u.clock.Now()

	if err := r.AuditLogs().Create(ctx, entry); err != nil {
		return storeFailure(err)
	}
	return nil
}

// コミット後に呼ぶ。失敗しても操作の結果は変えない
func (u *BiddingUsecase) publish(ctx context.Context, e events.Event) {
	e.ID = u.ids.NewID()
	e.OccurredAt = u.clock.Now()

	if err := u.publisher.Publish(ctx, e); err != nil {
		u.logger.Error("publish bidding event",
			zap.String("type", string(e.Type)),
			zap.String("product_id", e.ProductID),
			zap.Error(err),
		)
	}
}
