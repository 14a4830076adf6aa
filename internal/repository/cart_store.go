package repository

import (
	"context"

	"agrikonnect/internal/domain/model"
)

// カートの持ち主。認証済みなら UserID、ゲストなら SessionID。
type CartKey struct {
	UserID    int64
	SessionID string
}

func (k CartKey) Authenticated() bool {
	return k.UserID > 0
}

// DB永続カートとゲストのセッションカートの共通の約束。
// どちらの実装でも不変条件は同じ：
//   - 同一商品の重複行は作らない（追加は数量加算）
//   - 数量は常に1以上（0以下はRemoveで消す）
//   - price_at_time は初回追加時に固定、再追加時のみ現在価格で取り直す
type CartStore interface {
	List(ctx context.Context, key CartKey) ([]model.CartItem, error)
	FindByID(ctx context.Context, key CartKey, itemID int64) (model.CartItem, error)

	// 既存行があれば数量加算して現在価格で取り直し、
	// 無ければ現在価格をスナップショットして新規作成
	Add(ctx context.Context, key CartKey, p model.Product, qty int64) error

	// 持ち主スコープで数量を上書き
	UpdateQuantity(ctx context.Context, key CartKey, itemID int64, qty int64) error

	Remove(ctx context.Context, key CartKey, itemID int64) error
	Clear(ctx context.Context, key CartKey) error
}
