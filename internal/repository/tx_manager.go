package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Products() ProductRepository
	Variants() VariantRepository
	Carts() CartRepository
	CartItems() CartItemRepository
	Reservations() ReservationRepository
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Idempotency() IdempotencyRepository
	Inventory() InventoryRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがエラーを返したら全部ロールバック（部分コミットは絶対にしない）。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
