package model

import "time"

// 冪等キーと注文の対応。OrderIDがnilの間は「未確定」で、リトライはそのまま通す。
// 一度束縛されたら同じキーの再送は元の注文を返す。
type IdempotencyRecord struct {
	ID  int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Key string `gorm:"type:varchar(255);not null;uniqueIndex" json:"key"`

	//確定した注文。nilなら未束縛（リトライ可）
	OrderID *int64 `gorm:"index" json:"order_id"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
