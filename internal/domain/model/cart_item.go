package model

import "time"

// カート明細。価格は持たない。
// 注文確定時にカタログの現在価格でスナップショットするため。
// 同一商品+バリアントの1行への集約はCartUsecase.AddItemが行う
// （variant_idがNULLになれるので、ユニークインデックスには任せられない）。
type CartItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64 `gorm:"not null;index" json:"cart_id"`
	ProductID int64 `gorm:"not null;index" json:"product_id"`

	//バリアント指定（null可）
	VariantID *int64 `gorm:"index" json:"variant_id"`

	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
