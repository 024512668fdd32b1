package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// チェックアウトの2経路。アドホックな分岐にせず明示的に持つ。
type CheckoutMode string

const (
	//既存のACTIVE予約を消費する（在庫は予約時に引当済みなので触らない）
	CheckoutModeReservationBacked CheckoutMode = "RESERVATION_BACKED"

	//行ロック→再読→減算をチェックアウト内で行う
	CheckoutModeDirectDecrement CheckoutMode = "DIRECT_DECREMENT"
)

type CheckoutUsecase struct {
	tx repo.TransactionManager

	//冪等ゲートとリプレイ読み出しはトランザクション外から使う
	idem       repo.IdempotencyRepository
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	idem repo.IdempotencyRepository,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:         tx,
		idem:       idem,
		orders:     orders,
		orderItems: orderItems,
	}
}

type CheckoutInput struct {
	CartID         int64
	IdempotencyKey string
}

// 冪等キーが別トランザクションで先に束縛された場合の内部シグナル
var errKeyBoundElsewhere = errors.New("idempotency key bound elsewhere")

// Checkout はカートを注文に変換する。
// 在庫変化・予約ステータス変化・注文作成は全部1トランザクション。
// 途中で失敗したら注文も減算も一切残らない。
func (u *CheckoutUsecase) Checkout(ctx context.Context, userID *int64, in CheckoutInput) (OrderOutput, error) {
	if in.CartID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid cart_id")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	// 同じキーなら同じ注文をそのまま返す
	if key != "" {
		out, replayed, err := u.replay(ctx, key)
		if err != nil {
			return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if replayed {
			return out, nil
		}

		//未束縛レコードを用意。失敗時は束縛されないまま残り、リトライはそのまま通る
		if _, err := u.idem.Create(ctx, key); err != nil {
			if !errors.Is(err, repo.ErrConflict) {
				return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
			}
			// 同時に同じキーが来た。相手が束縛済みなら元の注文を返す
			out, replayed, err := u.replay(ctx, key)
			if err != nil {
				return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if replayed {
				return out, nil
			}
		}
	}

	var out OrderOutput

	err := runWithRetry(ctx, func() error {
		return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			result, err := u.checkoutInTx(ctx, r, userID, in.CartID, key)
			if err != nil {
				return err
			}
			out = result
			return nil
		})
	})

	if errors.Is(err, errKeyBoundElsewhere) {
		// 束縛競争に負けた。勝った方の注文を返す
		replayOut, replayed, rErr := u.replay(ctx, key)
		if rErr == nil && replayed {
			return replayOut, nil
		}
		return OrderOutput{}, NewHTTPError(http.StatusConflict, "idempotency conflict")
	}
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *CheckoutUsecase) checkoutInTx(ctx context.Context, r repo.TxRepos, userID *int64, cartID int64, key string) (OrderOutput, error) {
	cart, err := r.Carts().FindByID(ctx, cartID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "cart not found")
	}
	if err != nil {
		return OrderOutput{}, err
	}
	if cart.Status != model.CartStatusActive {
		return OrderOutput{}, NewHTTPError(http.StatusConflict, "cart already checked out")
	}

	items, err := r.CartItems().ListByCartID(ctx, cartID)
	if err != nil {
		return OrderOutput{}, err
	}
	if len(items) == 0 {
		return OrderOutput{}, ErrEmptyCart
	}

	reservations, err := r.Reservations().ListActiveByOwner(ctx, model.ReservationOwnerCart, strconv.FormatInt(cartID, 10))
	if err != nil {
		return OrderOutput{}, err
	}

	mode := CheckoutModeDirectDecrement
	if len(reservations) > 0 {
		mode = CheckoutModeReservationBacked
	}

	var orderItems []model.OrderItem
	switch mode {
	case CheckoutModeReservationBacked:
		orderItems, err = u.consumeReservations(ctx, r, items, reservations)
	case CheckoutModeDirectDecrement:
		orderItems, err = u.decrementDirect(ctx, r, items)
	}
	if err != nil {
		return OrderOutput{}, err
	}

	var total int64
	for _, it := range orderItems {
		total += it.LineTotalCents()
	}

	orderID, err := r.Orders().Create(ctx, model.Order{
		UserID:     userID,
		Status:     model.OrderStatusPending,
		TotalCents: total,
	})
	if err != nil {
		return OrderOutput{}, err
	}
	if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
		return OrderOutput{}, err
	}

	//カートをCHECKED_OUTにして明細をクリア（再注文防止）
	if err := r.Carts().UpdateStatus(ctx, cartID, model.CartStatusCheckedOut); err != nil {
		return OrderOutput{}, err
	}
	if err := r.Carts().Clear(ctx, cartID); err != nil {
		return OrderOutput{}, err
	}

	if key != "" {
		if err := r.Idempotency().Bind(ctx, key, orderID); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return OrderOutput{}, errKeyBoundElsewhere
			}
			return OrderOutput{}, err
		}
	}

	created := model.Order{
		ID:         orderID,
		UserID:     userID,
		Status:     model.OrderStatusPending,
		TotalCents: total,
		CreatedAt:  time.Now(),
	}
	return toOrderOutput(created, orderItems), nil
}

// 予約消費経路。全明細が予約でカバーされていなければReservationMismatchで全体を失敗させる。
// 部分的に直接減算へ落ちるフォールバックはしない。
func (u *CheckoutUsecase) consumeReservations(ctx context.Context, r repo.TxRepos, items []model.CartItem, reservations []model.StockReservation) ([]model.OrderItem, error) {
	used := make(map[int64]bool, len(reservations))

	orderItems := make([]model.OrderItem, 0, len(items))
	for _, ci := range items {
		res := findCovering(reservations, used, ci)
		if res == nil {
			return nil, ErrReservationMismatch
		}

		snap, err := u.snapshotItem(ctx, r, ci)
		if err != nil {
			return nil, err
		}

		// 在庫は予約時に引当済みなのでここでは触らない
		ok, err := r.Reservations().TransitionFromActive(ctx, res.ID, model.ReservationStatusCommitted)
		if err != nil {
			return nil, err
		}
		if !ok {
			//このトランザクション中に誰かが解放した
			return nil, ErrReservationMismatch
		}
		used[res.ID] = true

		orderItems = append(orderItems, snap)
	}
	return orderItems, nil
}

func findCovering(reservations []model.StockReservation, used map[int64]bool, ci model.CartItem) *model.StockReservation {
	for i := range reservations {
		res := &reservations[i]
		if used[res.ID] {
			continue
		}
		if res.ProductID != ci.ProductID {
			continue
		}
		if !sameVariant(res.VariantID, ci.VariantID) {
			continue
		}
		if res.Quantity < ci.Quantity {
			continue
		}
		return res
	}
	return nil
}

func sameVariant(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// 直接減算経路。商品/バリアントをid昇順にロックし、ロック下で読み直してから減らす。
func (u *CheckoutUsecase) decrementDirect(ctx context.Context, r repo.TxRepos, items []model.CartItem) ([]model.OrderItem, error) {
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
		return nil, ErrProductUnavailable
	}
	if err != nil {
		return nil, err
	}

	variants := map[int64]model.ProductVariant{}
	if len(variantIDs) > 0 {
		variants, err = r.Variants().LockByIDs(ctx, variantIDs)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProductUnavailable
		}
		if err != nil {
			return nil, err
		}
	}

	orderItems := make([]model.OrderItem, 0, len(items))
	for _, ci := range items {
		p := products[ci.ProductID]

		if ci.VariantID != nil {
			v := variants[*ci.VariantID]
			if v.QuantityOnHand < ci.Quantity && !p.AllowBackorder {
				return nil, &InsufficientInventoryError{SKU: v.SKU}
			}
			v.QuantityOnHand -= ci.Quantity
			if err := r.Variants().UpdateQuantity(ctx, v.ID, v.QuantityOnHand); err != nil {
				return nil, err
			}
			variants[v.ID] = v
		} else {
			if p.QuantityOnHand < ci.Quantity && !p.AllowBackorder {
				return nil, &InsufficientInventoryError{SKU: p.Slug}
			}
			p.QuantityOnHand -= ci.Quantity
			if err := r.Products().UpdateQuantity(ctx, p.ID, p.QuantityOnHand); err != nil {
				return nil, err
			}
			products[p.ID] = p
		}

		snap, err := u.snapshotItem(ctx, r, ci)
		if err != nil {
			return nil, err
		}
		orderItems = append(orderItems, snap)
	}
	return orderItems, nil
}

// 現在のカタログ価格・名前をOrderItemに固める。
// 後からカタログを編集しても過去の注文は変わらない。
func (u *CheckoutUsecase) snapshotItem(ctx context.Context, r repo.TxRepos, ci model.CartItem) (model.OrderItem, error) {
	p, err := r.Products().FindByID(ctx, ci.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.OrderItem{}, ErrProductUnavailable
	}
	if err != nil {
		return model.OrderItem{}, err
	}

	unit := p.PriceCents
	sku := ""
	if ci.VariantID != nil {
		v, err := r.Variants().FindByID(ctx, *ci.VariantID)
		if errors.Is(err, repo.ErrNotFound) {
			return model.OrderItem{}, ErrProductUnavailable
		}
		if err != nil {
			return model.OrderItem{}, err
		}
		if v.PriceCents != nil {
			unit = *v.PriceCents
		}
		sku = v.SKU
	}

	return model.OrderItem{
		ProductID:           ci.ProductID,
		VariantID:           ci.VariantID,
		ProductNameSnapshot: p.Name,
		ProductSlugSnapshot: p.Slug,
		VariantSKUSnapshot:  sku,
		UnitPriceCents:      unit,
		Quantity:            ci.Quantity,
	}, nil
}

// 束縛済みキーのリプレイ。保存された注文をそのまま返す
func (u *CheckoutUsecase) replay(ctx context.Context, key string) (OrderOutput, bool, error) {
	rec, found, err := u.idem.FindByKey(ctx, key)
	if err != nil {
		return OrderOutput{}, false, err
	}
	if !found || rec.OrderID == nil {
		return OrderOutput{}, false, nil
	}

	o, err := u.orders.FindByID(ctx, *rec.OrderID)
	if err != nil {
		return OrderOutput{}, false, err
	}
	items, err := u.orderItems.ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, false, err
	}
	return toOrderOutput(o, items), true, nil
}
