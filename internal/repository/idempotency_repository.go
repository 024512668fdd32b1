package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type IdempotencyRepository interface {
	FindByKey(ctx context.Context, key string) (model.IdempotencyRecord, bool, error)

	// 未束縛レコードを作る。キーが既にあればErrConflict
	Create(ctx context.Context, key string) (model.IdempotencyRecord, error)

	// キーを注文に束縛する（チェックアウトと同じトランザクション内で呼ぶ）
	Bind(ctx context.Context, key string, orderID int64) error

	// 古い未束縛レコードの掃除（束縛済みは消さない）
	DeleteUnboundBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
