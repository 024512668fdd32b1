package repository

import (
	"context"

	"app/internal/domain/model"
)

type CartRepository interface {
	Create(ctx context.Context, cart model.Cart) (model.Cart, error)
	FindByID(ctx context.Context, cartID int64) (model.Cart, error)
	UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error
	Clear(ctx context.Context, cartID int64) error
}

// 同一商品+バリアントの集約（既存行なら加算、無ければ新規行）はusecase側で行う。
// variant_id無しの行はNULLになり、素のユニークインデックスでは重複を弾けないため。
type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	Create(ctx context.Context, item model.CartItem) (model.CartItem, error)
	AddQuantity(ctx context.Context, cartItemID int64, addQty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
}
