package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BidStatus string

const (
	BidStatusActive   BidStatus = "active"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
	BidStatusWon      BidStatus = "won"
	BidStatusInactive BidStatus = "inactive"
)

func (s BidStatus) Valid() bool {
	switch s {
	case BidStatusActive, BidStatusAccepted, BidStatusRejected, BidStatusWon, BidStatusInactive:
		return true
	default:
		return false
	}
}

// active 以外はすべて終端
func (s BidStatus) IsTerminal() bool {
	return s.Valid() && s != BidStatusActive
}

// 遷移できるのは active -> 終端 だけ
func CanTransition(from, to BidStatus) bool {
	return from == BidStatusActive && to.IsTerminal()
}

// 消費者が商品に出した入札。削除はしない（履歴として残す）。
type Bid struct {
	ID        string          `gorm:"type:varchar(64);primaryKey" db:"id" json:"id"`
	ProductID string          `gorm:"type:varchar(64);not null;index;<-:create" db:"product_id" json:"product_id"`
	BidderID  string          `gorm:"type:varchar(64);not null;index;<-:create" db:"bidder_id" json:"bidder_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" db:"amount" json:"amount"`
	Status    BidStatus       `gorm:"type:varchar(20);not null;index" db:"status" json:"status"`
	CreatedAt time.Time       `gorm:"not null;index;<-:create" db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" db:"updated_at" json:"updated_at"`
}

func (b Bid) BelongsTo(productID string) bool {
	return b.ProductID == productID
}
