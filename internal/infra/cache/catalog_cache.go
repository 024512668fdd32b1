package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"app/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const (
	keyProduct = "catalog:product:%d"
	keyList    = "catalog:products:%s"

	//登録済みの一覧キャッシュキー集合（書き込み時にまとめて消すため）
	keyListIndex = "catalog:products:keys"
)

// 商品表示用のRedisキャッシュ。
// コミット済みのやや古い値を返すだけで、チェックアウト判断には絶対に使わない。
type CatalogRedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCatalogRedisCache(rdb *redis.Client, ttl time.Duration) *CatalogRedisCache {
	return &CatalogRedisCache{rdb: rdb, ttl: ttl}
}

func (c *CatalogRedisCache) GetProduct(ctx context.Context, id int64) (model.Product, bool, error) {
	raw, err := c.rdb.Get(ctx, fmt.Sprintf(keyProduct, id)).Result()
	if err == redis.Nil {
		return model.Product{}, false, nil
	}
	if err != nil {
		return model.Product{}, false, err
	}
	var p model.Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return model.Product{}, false, err
	}
	return p, true, nil
}

func (c *CatalogRedisCache) SetProduct(ctx context.Context, p model.Product) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf(keyProduct, p.ID), raw, c.ttl).Err()
}

func (c *CatalogRedisCache) GetList(ctx context.Context, queryKey string) ([]byte, bool, error) {
	raw, err := c.rdb.Get(ctx, fmt.Sprintf(keyList, queryKey)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (c *CatalogRedisCache) SetList(ctx context.Context, queryKey string, payload []byte) error {
	key := fmt.Sprintf(keyList, queryKey)
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return err
	}
	//invalidate用に登録しておく
	return c.rdb.SAdd(ctx, keyListIndex, key).Err()
}

// 書き込みフック。商品キャッシュと登録済み一覧キャッシュを粗く全部消す。
func (c *CatalogRedisCache) Invalidate(ctx context.Context, productID int64) error {
	keys, err := c.rdb.SMembers(ctx, keyListIndex).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	keys = append(keys, fmt.Sprintf(keyProduct, productID), keyListIndex)
	return c.rdb.Del(ctx, keys...).Err()
}
