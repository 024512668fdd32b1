package usecase

import (
	"context"
	"errors"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/google/uuid"
)

// CartUsecase は /carts の業務ロジック。
// カートは同時実行に敏感ではない（正の数量だけが不変条件）。
type CartUsecase struct {
	carts     repo.CartRepository
	cartItems repo.CartItemRepository
	products  repo.ProductRepository
	variants  repo.VariantRepository
}

func NewCartUsecase(
	carts repo.CartRepository,
	cartItems repo.CartItemRepository,
	products repo.ProductRepository,
	variants repo.VariantRepository,
) *CartUsecase {
	return &CartUsecase{
		carts:     carts,
		cartItems: cartItems,
		products:  products,
		variants:  variants,
	}
}

type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id"`
	Name      string `json:"name"`

	//表示用の現在価格。注文時に改めてスナップショットする
	PriceCents int64 `json:"price_cents"`
	Quantity   int64 `json:"quantity"`
}

type CartResponse struct {
	ID    int64              `json:"id"`
	Items []CartItemResponse `json:"items"`
}

type CreateCartOutput struct {
	ID int64 `json:"id"`

	//匿名アクセス用トークン。以後X-Cart-Tokenヘッダで渡す
	Token string `json:"token"`
}

type AddItemInput struct {
	ProductID int64
	VariantID *int64
	Quantity  int64
}

func (u *CartUsecase) CreateCart(ctx context.Context, userID *int64) (CreateCartOutput, error) {
	cart, err := u.carts.Create(ctx, model.Cart{
		UserID: userID,
		Token:  uuid.NewString(),
		Status: model.CartStatusActive,
	})
	if err != nil {
		return CreateCartOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return CreateCartOutput{ID: cart.ID, Token: cart.Token}, nil
}

func (u *CartUsecase) GetCart(ctx context.Context, cartID int64, token string) (CartResponse, error) {
	cart, err := u.findOwnedCart(ctx, cartID, token)
	if err != nil {
		return CartResponse{}, err
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// AddItem はカートに追加（同一商品+バリアントは数量加算）。
// 在庫チェックはここではしない。確定時にロック下で再検証される。
func (u *CartUsecase) AddItem(ctx context.Context, cartID int64, token string, in AddItemInput) (CartResponse, error) {
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	cart, err := u.findOwnedCart(ctx, cartID, token)
	if err != nil {
		return CartResponse{}, err
	}
	if cart.Status != model.CartStatusActive {
		return CartResponse{}, NewHTTPError(http.StatusConflict, "cart already checked out")
	}

	//商品チェック（公開のみ）
	p, err := u.products.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}

	//バリアント指定時は親子関係を確認
	if in.VariantID != nil {
		v, err := u.variants.FindByID(ctx, *in.VariantID)
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid variant")
		}
		if err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if v.ProductID != in.ProductID {
			return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid variant")
		}
	}

	// 既存行があれば加算、無ければ新規行。
	// variant_id無しの行はNULLで、ユニークインデックスでは重複を弾けないのでここで集約する
	items, err := u.cartItems.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	existing := findCartLine(items, in.ProductID, in.VariantID)
	if existing != nil {
		err = u.cartItems.AddQuantity(ctx, existing.ID, in.Quantity)
	} else {
		_, err = u.cartItems.Create(ctx, model.CartItem{
			CartID:    cart.ID,
			ProductID: in.ProductID,
			VariantID: in.VariantID,
			Quantity:  in.Quantity,
		})
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

func findCartLine(items []model.CartItem, productID int64, variantID *int64) *model.CartItem {
	for i := range items {
		it := &items[i]
		if it.ProductID == productID && sameVariant(it.VariantID, variantID) {
			return it
		}
	}
	return nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, cartID int64, token string, itemID int64) (CartResponse, error) {
	if itemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	cart, err := u.findOwnedCart(ctx, cartID, token)
	if err != nil {
		return CartResponse{}, err
	}

	if err := u.cartItems.DeleteByID(ctx, itemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// トークンが合わないカートは「存在しない扱い」にする
func (u *CartUsecase) findOwnedCart(ctx context.Context, cartID int64, token string) (model.Cart, error) {
	if cartID <= 0 {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "invalid cart_id")
	}

	cart, err := u.carts.FindByID(ctx, cartID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Cart{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if cart.Token != token {
		return model.Cart{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return cart, nil
}

func (u *CartUsecase) buildCartResponse(ctx context.Context, cartID int64) (CartResponse, error) {
	items, err := u.cartItems.ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outItems := make([]CartItemResponse, 0, len(items))
	for _, it := range items {
		p, err := u.products.FindByID(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				//表示中に商品が消えた明細はスキップ
				continue
			}
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		price := p.PriceCents
		if it.VariantID != nil {
			v, err := u.variants.FindByID(ctx, *it.VariantID)
			if err == nil && v.PriceCents != nil {
				price = *v.PriceCents
			}
		}

		outItems = append(outItems, CartItemResponse{
			ID:         it.ID,
			ProductID:  it.ProductID,
			VariantID:  it.VariantID,
			Name:       p.Name,
			PriceCents: price,
			Quantity:   it.Quantity,
		})
	}

	return CartResponse{ID: cartID, Items: outItems}, nil
}
