package usecase

import (
	"context"
	"net/http"

	repo "agrikonnect/internal/repository"
)

// CartUsecase は /cart の業務ロジック。
// ログイン済みはDB永続カート、ゲストはセッションカート。
// どちらを使うかはIdentityの認証フラグで決まり、以降の意味は同じ。
type CartUsecase struct {
	persistent  repo.CartStore
	guest       repo.CartStore
	productRepo repo.ProductRepository
}

func NewCartUsecase(
	persistent repo.CartStore,
	guest repo.CartStore,
	productRepo repo.ProductRepository,
) *CartUsecase {
	return &CartUsecase{
		persistent:  persistent,
		guest:       guest,
		productRepo: productRepo,
	}
}

func (u *CartUsecase) store(id Identity) repo.CartStore {
	if id.Authenticated() {
		return u.persistent
	}
	return u.guest
}

type CartItemResponse struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id"`
	Name        string  `json:"name"`
	PriceAtTime float64 `json:"price_at_time"`
	Quantity    int64   `json:"quantity"`
	Subtotal    float64 `json:"subtotal"`
}

type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	ItemCount int64              `json:"item_count"`
	Total     float64            `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

func (u *CartUsecase) GetCart(ctx context.Context, id Identity) (CartResponse, error) {
	return u.buildCartResponse(ctx, id)
}

// カートに追加（同一商品は数量加算、新規は現在価格をスナップショット）。
func (u *CartUsecase) AddToCart(ctx context.Context, id Identity, in AddCartInput) (CartResponse, error) {
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// 商品チェック（公開のみ）
	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsAvailable {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "product not available")
	}

	// 既存数量＋追加分が在庫を超えないこと
	store := u.store(id)
	items, err := store.List(ctx, id.CartKey())
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var existingQty int64 = 0
	for _, it := range items {
		if it.ProductID == in.ProductID {
			existingQty = it.Quantity
			break
		}
	}

	if existingQty+in.Quantity > p.StockQuantity {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "insufficient stock")
	}

	if err := store.Add(ctx, id.CartKey(), p, in.Quantity); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, id)
}

// 数量変更。0以下は削除に委譲。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, id Identity, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity <= 0 {
		return u.RemoveCartItem(ctx, id, cartItemID)
	}

	store := u.store(id)

	item, err := store.FindByID(ctx, id.CartKey(), cartItemID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//商品の在庫チェック
	p, err := u.productRepo.FindByID(ctx, item.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "product not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsAvailable {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "product not available")
	}
	if in.Quantity > p.StockQuantity {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "insufficient stock")
	}

	if err := store.UpdateQuantity(ctx, id.CartKey(), cartItemID, in.Quantity); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, id)
}

func (u *CartUsecase) RemoveCartItem(ctx context.Context, id Identity, cartItemID int64) (CartResponse, error) {
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := u.store(id).Remove(ctx, id.CartKey(), cartItemID); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.buildCartResponse(ctx, id)
}

// 件数と合計。合計はprice_at_timeベース。
func (u *CartUsecase) GetCartSummary(ctx context.Context, id Identity) (CartResponse, error) {
	return u.buildCartResponse(ctx, id)
}

func (u *CartUsecase) buildCartResponse(ctx context.Context, id Identity) (CartResponse, error) {
	items, err := u.store(id).List(ctx, id.CartKey())
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	respItems := make([]CartItemResponse, 0, len(items))
	var count int64 = 0
	var total float64 = 0

	for _, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		if err != nil {
			continue
		}
		if !p.IsAvailable {
			continue
		}

		subtotal := it.PriceAtTime * float64(it.Quantity)
		respItems = append(respItems, CartItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			Name:        p.Name,
			PriceAtTime: it.PriceAtTime,
			Quantity:    it.Quantity,
			Subtotal:    subtotal,
		})

		count += it.Quantity
		total += subtotal
	}

	return CartResponse{Items: respItems, ItemCount: count, Total: total}, nil
}
