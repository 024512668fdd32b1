package repository

import (
	"context"

	repo "app/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	products     repo.ProductRepository
	variants     repo.VariantRepository
	carts        repo.CartRepository
	cartItems    repo.CartItemRepository
	reservations repo.ReservationRepository
	orders       repo.OrderRepository
	orderItems   repo.OrderItemRepository
	idempotency  repo.IdempotencyRepository
	inventory    repo.InventoryRepository
}

func (r *txReposGorm) Products() repo.ProductRepository         { return r.products }
func (r *txReposGorm) Variants() repo.VariantRepository         { return r.variants }
func (r *txReposGorm) Carts() repo.CartRepository               { return r.carts }
func (r *txReposGorm) CartItems() repo.CartItemRepository       { return r.cartItems }
func (r *txReposGorm) Reservations() repo.ReservationRepository { return r.reservations }
func (r *txReposGorm) Orders() repo.OrderRepository             { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository     { return r.orderItems }
func (r *txReposGorm) Idempotency() repo.IdempotencyRepository  { return r.idempotency }
func (r *txReposGorm) Inventory() repo.InventoryRepository      { return r.inventory }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			products:     NewProductGormRepository(tx),
			variants:     NewVariantGormRepository(tx),
			carts:        NewCartGormRepository(tx),
			cartItems:    NewCartItemGormRepository(tx),
			reservations: NewReservationGormRepository(tx),
			orders:       NewOrderGormRepository(tx),
			orderItems:   NewOrderItemGormRepository(tx),
			idempotency:  NewIdempotencyGormRepository(tx),
			inventory:    NewInventoryGormRepository(tx),
		}
		return fn(r)
	})
}
