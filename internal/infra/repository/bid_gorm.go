package repository

import (
	"context"

	"farmmarket/internal/domain/model"
	repo "farmmarket/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BidGormRepository struct {
	db *gorm.DB
}

func NewBidGormRepository(db *gorm.DB) *BidGormRepository {
	return &BidGormRepository{db: db}
}

func (r *BidGormRepository) FindByID(ctx context.Context, id string) (model.Bid, error) {
	var b model.Bid
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error
	if isNotFound(err) {
		return model.Bid{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Bid{}, err
	}
	return b, nil
}

// 新しい順（表示用）
func (r *BidGormRepository) ListActiveByProduct(ctx context.Context, productID string) ([]model.Bid, error) {
	bids := []model.Bid{}
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ?", productID, model.BidStatusActive).
		Order("created_at desc").
		Order("id desc").
		Find(&bids).Error
	if err != nil {
		return []model.Bid{}, err
	}
	return bids, nil
}

func (r *BidGormRepository) Create(ctx context.Context, b model.Bid) (model.Bid, error) {
	if err := r.db.WithContext(ctx).Create(&b).Error; err != nil {
		return model.Bid{}, err
	}
	return b, nil
}

// active のときだけ更新する。終端状態を上書きしない
func (r *BidGormRepository) UpdateStatus(ctx context.Context, bidID string, status model.BidStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Bid{}).
		Where("id = ? AND status = ?", bidID, model.BidStatusActive).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrStaleState
	}
	return nil
}

// UPDATE ... RETURNING id。一覧を取ってから更新すると間に入った入札を取りこぼす
func (r *BidGormRepository) InactivateActiveByProduct(ctx context.Context, productID string, exceptBidID string) ([]string, error) {
	var updated []model.Bid
	err := r.db.WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("product_id = ? AND status = ? AND id <> ?", productID, model.BidStatusActive, exceptBidID).
		Update("status", model.BidStatusInactive).Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(updated))
	for _, b := range updated {
		ids = append(ids, b.ID)
	}
	return ids, nil
}
