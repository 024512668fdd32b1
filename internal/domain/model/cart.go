package model

import "time"

type CartStatus string

const (
	CartStatusActive     CartStatus = "ACTIVE"
	CartStatusCheckedOut CartStatus = "CHECKED_OUT"
	CartStatusAbandoned  CartStatus = "ABANDONED"
)

// カート。ユーザーまたは匿名セッション（Token）が所有する。
// 注文に変換されるまでは自由に編集できる。
type Cart struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//匿名でも使えるようにuser_idはnull可
	UserID *int64 `gorm:"index" json:"user_id"`

	//匿名セッション用のアクセストークン（uuid）
	Token string `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`

	Status    CartStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
