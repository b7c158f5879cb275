package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 農家が出品する商品。
// price/quantity/unit は表示用で、入札処理では変更しない。
type Product struct {
	ID          string          `gorm:"type:varchar(64);primaryKey" db:"id" json:"id"`
	FarmerID    string          `gorm:"type:varchar(64);not null;index" db:"farmer_id" json:"farmer_id"`
	Name        string          `gorm:"type:varchar(255);not null" db:"name" json:"name"`
	Description string          `gorm:"type:text" db:"description" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" db:"price" json:"price"`
	Quantity    int64           `gorm:"not null" db:"quantity" json:"quantity"`
	Unit        string          `gorm:"type:varchar(32);not null" db:"unit" json:"unit"`
	IsBidding   bool            `gorm:"not null;default:false" db:"is_bidding" json:"is_bidding"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" db:"updated_at" json:"updated_at"`
}

// 出品者本人か
func (p Product) IsOwnedBy(userID string) bool {
	return userID != "" && p.FarmerID == userID
}
