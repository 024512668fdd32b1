package model

import "time"

// 商品バリアント（SKU単位の在庫・価格）。
// PriceCentsがnilなら親商品の価格を使う。在庫はバリアント側が優先。
type ProductVariant struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64  `gorm:"not null;index" json:"product_id"`
	SKU       string `gorm:"type:varchar(64);not null;uniqueIndex" json:"sku"`
	Name      string `gorm:"type:varchar(255)" json:"name"`

	//価格上書き（セント）。nilなら商品価格
	PriceCents *int64 `gorm:"" json:"price_cents"`

	//バリアント在庫。バックオーダー可否は親商品のフラグに従う
	QuantityOnHand int64 `gorm:"not null;default:0" json:"quantity_on_hand"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
