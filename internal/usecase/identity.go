package usecase

import (
	"agrikonnect/internal/domain/model"
	repo "agrikonnect/internal/repository"
)

// リクエストスコープの操作者。middlewareが組み立てて明示的に渡す。
// セッションのグローバル状態には依存しない。
type Identity struct {
	UserID     int64
	Role       model.Role
	CustomerID int64
	FarmerID   int64

	// ゲストカートのセッショントークン（未ログイン時のみ）
	GuestSession string
}

func (id Identity) Authenticated() bool {
	return id.UserID > 0
}

func (id Identity) CartKey() repo.CartKey {
	if id.Authenticated() {
		return repo.CartKey{UserID: id.UserID}
	}
	return repo.CartKey{SessionID: id.GuestSession}
}
