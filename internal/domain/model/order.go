package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// 注文。明細と同時に1トランザクションで作成され、コミット後に初めて見える。
type Order struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//匿名注文も許すのでnull可
	UserID *int64 `gorm:"index" json:"user_id"`

	Status     OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalCents int64       `gorm:"not null" json:"total_cents"`
	CreatedAt  time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
