package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// チェックアウト/予約コアのエラー。
// ErrTransientLock以外は終端で、リトライしても結果は変わらない。
var (
	//カートが空
	ErrEmptyCart = errors.New("cart is empty")

	//予約がカートを完全にカバーしていない（直接減算へのフォールバックはしない）
	ErrReservationMismatch = errors.New("reservations do not cover cart")

	//参照していた商品/バリアントが同時に消えた
	ErrProductUnavailable = errors.New("product unavailable")

	//ストレージ層のロックタイムアウト/デッドロック。リトライ可能
	ErrTransientLock = errors.New("transient lock failure")
)

// 在庫不足。どのSKUで失敗したかを呼び出し側に伝える
type InsufficientInventoryError struct {
	SKU string
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("not enough inventory for %s", e.SKU)
}

// デッドロック/ロックタイムアウト/直列化失敗はリトライ対象
func isTransientDBError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
	}
	return false
}

const transientRetryLimit = 3

// 一時的なロック失敗だけを少回数リトライする。
// 使い切ったらErrTransientLockにして呼び出し側に503相当で返させる。
func runWithRetry(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i < transientRetryLimit; i++ {
		err = fn()
		if err == nil || !isTransientDBError(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 50 * time.Millisecond):
		}
	}
	return ErrTransientLock
}
