package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type ReservationUsecase struct {
	tx repo.TransactionManager

	//一覧はトランザクション外から読む
	reservations repo.ReservationRepository
}

func NewReservationUsecase(tx repo.TransactionManager, reservations repo.ReservationRepository) *ReservationUsecase {
	return &ReservationUsecase{tx: tx, reservations: reservations}
}

type ReserveInput struct {
	CartID     int64
	TTLSeconds int64
}

type ReservationOutput struct {
	ID        int64      `json:"id"`
	ProductID int64      `json:"product_id"`
	VariantID *int64     `json:"variant_id"`
	Quantity  int64      `json:"quantity"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Reserve はカートの全明細分の在庫を引き当てて予約を作る。
// ロック規律はチェックアウトの直接減算経路と同じ（id昇順）。
// 1明細でも足りなければ全体を失敗させ、在庫には一切触れない。
func (u *ReservationUsecase) Reserve(ctx context.Context, in ReserveInput) ([]ReservationOutput, error) {
	if in.CartID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid cart_id")
	}
	if in.TTLSeconds < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid ttl_seconds")
	}

	var outs []ReservationOutput

	err := runWithRetry(ctx, func() error {
		outs = nil
		return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			cart, err := r.Carts().FindByID(ctx, in.CartID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "cart not found")
			}
			if err != nil {
				return err
			}
			if cart.Status != model.CartStatusActive {
				return NewHTTPError(http.StatusConflict, "cart already checked out")
			}

			items, err := r.CartItems().ListByCartID(ctx, in.CartID)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return ErrEmptyCart
			}

			productIDs := make([]int64, 0, len(items))
			variantIDs := make([]int64, 0, len(items))
			for _, ci := range items {
				productIDs = append(productIDs, ci.ProductID)
				if ci.VariantID != nil {
					variantIDs = append(variantIDs, *ci.VariantID)
				}
			}

			products, err := r.Products().LockByIDs(ctx, productIDs)
			if errors.Is(err, repo.ErrNotFound) {
				return ErrProductUnavailable
			}
			if err != nil {
				return err
			}

			variants := map[int64]model.ProductVariant{}
			if len(variantIDs) > 0 {
				variants, err = r.Variants().LockByIDs(ctx, variantIDs)
				if errors.Is(err, repo.ErrNotFound) {
					return ErrProductUnavailable
				}
				if err != nil {
					return err
				}
			}

			var expiresAt *time.Time
			if in.TTLSeconds > 0 {
				t := time.Now().Add(time.Duration(in.TTLSeconds) * time.Second)
				expiresAt = &t
			}

			ownerID := strconv.FormatInt(in.CartID, 10)

			for _, ci := range items {
				p := products[ci.ProductID]

				//減算と予約作成は同一トランザクション。決して乖離しない
				if ci.VariantID != nil {
					v := variants[*ci.VariantID]
					if v.QuantityOnHand < ci.Quantity && !p.AllowBackorder {
						return &InsufficientInventoryError{SKU: v.SKU}
					}
					v.QuantityOnHand -= ci.Quantity
					if err := r.Variants().UpdateQuantity(ctx, v.ID, v.QuantityOnHand); err != nil {
						return err
					}
					variants[v.ID] = v
				} else {
					if p.QuantityOnHand < ci.Quantity && !p.AllowBackorder {
						return &InsufficientInventoryError{SKU: p.Slug}
					}
					p.QuantityOnHand -= ci.Quantity
					if err := r.Products().UpdateQuantity(ctx, p.ID, p.QuantityOnHand); err != nil {
						return err
					}
					products[p.ID] = p
				}

				created, err := r.Reservations().Create(ctx, model.StockReservation{
					ProductID: ci.ProductID,
					VariantID: ci.VariantID,
					Quantity:  ci.Quantity,
					OwnerType: model.ReservationOwnerCart,
					OwnerID:   ownerID,
					Status:    model.ReservationStatusActive,
					ExpiresAt: expiresAt,
				})
				if err != nil {
					return err
				}

				outs = append(outs, toReservationOutput(created))
			}
			return nil
		})
	})

	if err != nil {
		return nil, err
	}
	return outs, nil
}

// ReleaseCart はカートが持つACTIVE予約を全部解放する（明示キャンセル）。
// 予約1件ずつが独立したトランザクション。
func (u *ReservationUsecase) ReleaseCart(ctx context.Context, cartID int64) (int, error) {
	if cartID <= 0 {
		return 0, NewHTTPError(http.StatusBadRequest, "invalid cart_id")
	}

	active, err := u.reservations.ListActiveByOwner(ctx, model.ReservationOwnerCart, strconv.FormatInt(cartID, 10))
	if err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	released := 0
	for _, res := range active {
		ok, err := u.releaseOne(ctx, res.ID, model.ReservationStatusCancelled)
		if err != nil {
			return released, err
		}
		if ok {
			released++
		}
	}
	return released, nil
}

// releaseOne は予約1件を解放して在庫を戻す。
// 既に終端ならno-op（冪等）。targetはCANCELLEDかEXPIRED。
func (u *ReservationUsecase) releaseOne(ctx context.Context, reservationID int64, target model.ReservationStatus) (bool, error) {
	released := false

	err := runWithRetry(ctx, func() error {
		released = false
		return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			res, err := r.Reservations().FindByID(ctx, reservationID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "reservation not found")
			}
			if err != nil {
				return err
			}
			if res.Status != model.ReservationStatusActive {
				//非ACTIVEの解放はno-op
				return nil
			}

			//在庫行をロックしてから戻す
			if res.VariantID != nil {
				variants, err := r.Variants().LockByIDs(ctx, []int64{*res.VariantID})
				if errors.Is(err, repo.ErrNotFound) {
					return ErrProductUnavailable
				}
				if err != nil {
					return err
				}

				ok, err := r.Reservations().TransitionFromActive(ctx, res.ID, target)
				if err != nil {
					return err
				}
				if !ok {
					//競争に負けた。相手が在庫を戻している
					return nil
				}

				v := variants[*res.VariantID]
				if err := r.Variants().UpdateQuantity(ctx, v.ID, v.QuantityOnHand+res.Quantity); err != nil {
					return err
				}
			} else {
				products, err := r.Products().LockByIDs(ctx, []int64{res.ProductID})
				if errors.Is(err, repo.ErrNotFound) {
					return ErrProductUnavailable
				}
				if err != nil {
					return err
				}

				ok, err := r.Reservations().TransitionFromActive(ctx, res.ID, target)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}

				p := products[res.ProductID]
				if err := r.Products().UpdateQuantity(ctx, p.ID, p.QuantityOnHand+res.Quantity); err != nil {
					return err
				}
			}

			released = true
			return nil
		})
	})

	return released, err
}

func toReservationOutput(r model.StockReservation) ReservationOutput {
	return ReservationOutput{
		ID:        r.ID,
		ProductID: r.ProductID,
		VariantID: r.VariantID,
		Quantity:  r.Quantity,
		Status:    string(r.Status),
		ExpiresAt: r.ExpiresAt,
	}
}
