package model

import "time"

// 入札まわりの操作種別。
type AuditAction string

const (
	AuditActionOpenBidding  AuditAction = "OPEN_BIDDING"
	AuditActionAcceptBid    AuditAction = "ACCEPT_BID"
	AuditActionRejectBid    AuditAction = "REJECT_BID"
	AuditActionSelectWinner AuditAction = "SELECT_WINNER"
)

// 何に対する操作か
type AuditResourceType string

const (
	//商品に対する操作。
	AuditResourceProduct AuditResourceType = "product"

	//入札に対する操作。
	AuditResourceBid AuditResourceType = "bid"
)

// 監査ログ（農家の操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" db:"id" json:"id"`

	//操作した農家のID。
	ActorUserID string `gorm:"type:varchar(64);not null;index" db:"actor_user_id" json:"actor_user_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" db:"action" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" db:"resource_type" json:"resource_type"`

	ResourceID string `gorm:"type:varchar(64);not null;index" db:"resource_id" json:"resource_id"`

	//対象の商品ID（入札への操作でも商品で絞り込めるように持つ）。
	ProductID string `gorm:"type:varchar(64);not null;default:'';index" db:"product_id" json:"product_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" db:"before_json" json:"before_json"`
	AfterJSON  string `gorm:"type:text" db:"after_json" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" db:"created_at" json:"created_at"`
}
