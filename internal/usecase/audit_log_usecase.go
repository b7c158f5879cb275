package usecase

import (
	"context"
	"strings"
	"time"

	"farmmarket/internal/domain/model"
	repo "farmmarket/internal/repository"
)

// 農家が自分の操作履歴を見る
type AuditLogUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditLogUsecase(auditRepo repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditRepo: auditRepo}
}

type AuditLogListInput struct {
	Action    string
	ProductID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

func (u *AuditLogUsecase) ListMine(ctx context.Context, actorID string, in AuditLogListInput) ([]model.AuditLog, error) {
	if strings.TrimSpace(actorID) == "" {
		return []model.AuditLog{}, NewAppError(KindUnauthorized, "unauthorized")
	}
	if in.Limit < 0 || in.Limit > 200 {
		return []model.AuditLog{}, NewAppError(KindInvalidInput, "invalid limit")
	}
	if in.Offset < 0 {
		return []model.AuditLog{}, NewAppError(KindInvalidInput, "invalid offset")
	}
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return []model.AuditLog{}, NewAppError(KindInvalidInput, "from must be before to")
	}

	// 他人のログは見せない
	f := repo.AuditLogFilter{
		ActorUserID: &actorID,
		CreatedFrom: in.From,
		CreatedTo:   in.To,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}

	if a := strings.TrimSpace(in.Action); a != "" {
		action := model.AuditAction(strings.ToUpper(a))
		switch action {
		case model.AuditActionOpenBidding, model.AuditActionAcceptBid, model.AuditActionRejectBid, model.AuditActionSelectWinner:
		default:
			return []model.AuditLog{}, NewAppError(KindInvalidInput, "invalid action")
		}
		f.Action = &action
	}
	// 入札への操作も商品IDで引ける
	if id := strings.TrimSpace(in.ProductID); id != "" {
		f.ProductID = &id
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return []model.AuditLog{}, storeFailure(err)
	}
	return logs, nil
}
