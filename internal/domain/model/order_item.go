package model

import "time"

// 注文明細。商品名/スラッグ/SKU/単価は確定時点のスナップショット。
// 後からカタログを変更しても過去の注文は変わらない。
type OrderItem struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64  `gorm:"not null;index" json:"order_id"`
	ProductID int64  `gorm:"not null;index" json:"product_id"`
	VariantID *int64 `gorm:"index" json:"variant_id"`

	ProductNameSnapshot string `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	ProductSlugSnapshot string `gorm:"type:varchar(255);not null" json:"product_slug_snapshot"`
	VariantSKUSnapshot  string `gorm:"type:varchar(64)" json:"variant_sku_snapshot"`

	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"`
	Quantity       int64     `gorm:"not null" json:"quantity"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (i OrderItem) LineTotalCents() int64 {
	return i.UnitPriceCents * i.Quantity
}
