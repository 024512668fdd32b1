package model

import "time"

type ReservationStatus string

const (
	//在庫を引き当て済み。activeの間、予約数量はすでに在庫から差し引かれている
	ReservationStatusActive ReservationStatus = "ACTIVE"

	//注文に消費された（在庫は触らない）
	ReservationStatusCommitted ReservationStatus = "COMMITTED"

	//明示的に解放された（在庫を戻す）
	ReservationStatusCancelled ReservationStatus = "CANCELLED"

	//期限切れSweeperが解放した（在庫を戻す。監査用にCANCELLEDと区別）
	ReservationStatusExpired ReservationStatus = "EXPIRED"
)

type ReservationOwnerType string

const (
	ReservationOwnerCart ReservationOwnerType = "cart"
)

// 在庫予約。作成と在庫減算は同一トランザクション内で行い、決して乖離させない。
// ACTIVEから抜けたら以後は不変。
type StockReservation struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64 `gorm:"not null;index" json:"product_id"`

	//バリアント指定（null可）
	VariantID *int64 `gorm:"index" json:"variant_id"`

	Quantity int64 `gorm:"not null" json:"quantity"`

	OwnerType ReservationOwnerType `gorm:"type:varchar(20);not null;index:idx_res_owner" json:"owner_type"`
	OwnerID   string               `gorm:"type:varchar(64);not null;index:idx_res_owner" json:"owner_id"`

	Status ReservationStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//期限。nullなら無期限
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
