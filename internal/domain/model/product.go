package model

import (
	"time"

	"gorm.io/gorm"
)

// 商品。QuantityOnHandは予約/注文と同じトランザクション内の行ロック下でのみ更新する。
type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Slug        string `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Description string `gorm:"type:text" json:"description"`

	//価格はセント単位
	PriceCents int64 `gorm:"not null" json:"price_cents"`

	//在庫数。AllowBackorderがtrueの場合のみ負になれる
	QuantityOnHand int64 `gorm:"not null;default:0" json:"quantity_on_hand"`

	//バックオーダー許可（在庫マイナスでも売る）
	AllowBackorder bool `gorm:"not null;default:false" json:"allow_backorder"`

	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
