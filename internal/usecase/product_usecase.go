package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
)

// 表示用カタログキャッシュ。コミット済みのやや古い値で良い読み取り専用の口。
// チェックアウト判断には決して使わない。
type CatalogCache interface {
	GetProduct(ctx context.Context, id int64) (model.Product, bool, error)
	SetProduct(ctx context.Context, p model.Product) error
	GetList(ctx context.Context, queryKey string) ([]byte, bool, error)
	SetList(ctx context.Context, queryKey string, payload []byte) error

	//書き込みフック。商品と一覧のキャッシュをまとめて無効化する
	Invalidate(ctx context.Context, productID int64) error
}

type ProductUsecase struct {
	tx        repo.TransactionManager
	products  repo.ProductRepository
	variants  repo.VariantRepository
	inventory repo.InventoryRepository
	cache     CatalogCache
	log       zerolog.Logger
}

func NewProductUsecase(
	tx repo.TransactionManager,
	products repo.ProductRepository,
	variants repo.VariantRepository,
	inventory repo.InventoryRepository,
	cache CatalogCache,
	log zerolog.Logger,
) *ProductUsecase {
	return &ProductUsecase{
		tx:        tx,
		products:  products,
		variants:  variants,
		inventory: inventory,
		cache:     cache,
		log:       log,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type ProductDetailOutput struct {
	Product  model.Product          `json:"product"`
	Variants []model.ProductVariant `json:"variants"`
}

func (u *ProductUsecase) List(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid q")
	}

	queryKey := listQueryKey(in)

	//キャッシュ読み。失敗してもDBで返せるのでログだけ
	if raw, ok, err := u.cache.GetList(ctx, queryKey); err != nil {
		u.log.Warn().Err(err).Msg("catalog cache read failed")
	} else if ok {
		var out ProductListOutput
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
	}

	items, total, err := u.products.ListActive(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        in.Q,
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := ProductListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}

	if raw, err := json.Marshal(out); err == nil {
		if err := u.cache.SetList(ctx, queryKey, raw); err != nil {
			u.log.Warn().Err(err).Msg("catalog cache write failed")
		}
	}

	return out, nil
}

func (u *ProductUsecase) Get(ctx context.Context, id int64) (ProductDetailOutput, error) {
	if id <= 0 {
		return ProductDetailOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var p model.Product
	cached, ok, err := u.cache.GetProduct(ctx, id)
	if err != nil {
		u.log.Warn().Err(err).Msg("catalog cache read failed")
		ok = false
	}
	if ok {
		p = cached
	} else {
		p, err = u.products.FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := u.cache.SetProduct(ctx, p); err != nil {
			u.log.Warn().Err(err).Msg("catalog cache write failed")
		}
	}

	if !p.IsActive {
		return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	variants, err := u.variants.ListByProductID(ctx, id)
	if err != nil {
		return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductDetailOutput{Product: p, Variants: variants}, nil
}

type CreateProductInput struct {
	Name           string
	Slug           string
	Description    string
	PriceCents     int64
	QuantityOnHand int64
	AllowBackorder bool
}

func (u *ProductUsecase) Create(ctx context.Context, in CreateProductInput) (model.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid name")
	}
	if strings.TrimSpace(in.Slug) == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid slug")
	}
	if in.PriceCents < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid price_cents")
	}
	if in.QuantityOnHand < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid quantity_on_hand")
	}

	p, err := u.products.Create(ctx, model.Product{
		Name:           strings.TrimSpace(in.Name),
		Slug:           strings.TrimSpace(in.Slug),
		Description:    in.Description,
		PriceCents:     in.PriceCents,
		QuantityOnHand: in.QuantityOnHand,
		AllowBackorder: in.AllowBackorder,
		IsActive:       true,
	})
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.invalidate(ctx, p.ID)
	return p, nil
}

type SetQuantityInput struct {
	Quantity int64
	Reason   string
}

// SetQuantity は管理者の在庫調整。行ロック下で読み直してから設定し、履歴を残す。
func (u *ProductUsecase) SetQuantity(ctx context.Context, adminUserID int64, productID int64, in SetQuantityInput) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid reason")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		products, err := r.Products().LockByIDs(ctx, []int64{productID})
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		p := products[productID]

		if in.Quantity < 0 && !p.AllowBackorder {
			return NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}

		if err := r.Inventory().SetQuantity(ctx, productID, in.Quantity); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			AdminUserID: adminUserID,
			Delta:       in.Quantity - p.QuantityOnHand,
			Reason:      strings.TrimSpace(in.Reason),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return err
	}

	u.invalidate(ctx, productID)
	return nil
}

// コミット後のキャッシュ無効化フック。失敗してもTTLで自然に直るのでログだけ
func (u *ProductUsecase) invalidate(ctx context.Context, productID int64) {
	if err := u.cache.Invalidate(ctx, productID); err != nil {
		u.log.Warn().Err(err).Int64("product_id", productID).Msg("catalog cache invalidation failed")
	}
}

func listQueryKey(in ListProductsInput) string {
	minP, maxP := int64(-1), int64(-1)
	if in.MinPrice != nil {
		minP = *in.MinPrice
	}
	if in.MaxPrice != nil {
		maxP = *in.MaxPrice
	}
	return fmt.Sprintf("p%d:l%d:q%s:min%d:max%d:s%s", in.Page, in.Limit, in.Q, minP, maxP, in.Sort)
}
