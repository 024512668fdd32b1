package repository

import (
	"context"

	"app/internal/domain/model"
)

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListActive(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	// 排他行ロック付きで取得。idは昇順に1行ずつロックする
	// （ロック順を決定的にしてデッドロックを避ける）。
	LockByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error)

	// ロック下で読んだ値から計算した新しい在庫数を書き込む
	UpdateQuantity(ctx context.Context, id int64, quantity int64) error

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
}

// バリアントの永続化。ロック規律は商品側と同じ。
type VariantRepository interface {
	FindByID(ctx context.Context, id int64) (model.ProductVariant, error)
	ListByProductID(ctx context.Context, productID int64) ([]model.ProductVariant, error)
	LockByIDs(ctx context.Context, ids []int64) (map[int64]model.ProductVariant, error)
	UpdateQuantity(ctx context.Context, id int64, quantity int64) error
}

// 管理者向け在庫調整（履歴付き）
type InventoryRepository interface {
	SetQuantity(ctx context.Context, productID int64, quantity int64) error
	CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error
}
