package guestcart

import (
	"context"
	"errors"
	"sync"
	"time"

	"agrikonnect/internal/domain/model"
	repo "agrikonnect/internal/repository"

	"github.com/google/uuid"
)

// ゲスト用のセッションカート。プロセス内メモリのみで、DBには書かない。
// 永続カート（CartGormStore）と同じ不変条件を守る：
// 同一商品は1行・数量は1以上・price_at_timeは再追加時のみ取り直し。
type Store struct {
	mu     sync.Mutex
	nextID int64
	carts  map[string][]model.CartItem
}

func NewStore() *Store {
	return &Store{
		nextID: 1,
		carts:  map[string][]model.CartItem{},
	}
}

// ゲストカートのセッショントークンを発行
func (s *Store) NewSession() string {
	return uuid.NewString()
}

func (s *Store) List(ctx context.Context, key repo.CartKey) ([]model.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[key.SessionID]
	out := make([]model.CartItem, len(items))
	copy(out, items)
	return out, nil
}

func (s *Store) FindByID(ctx context.Context, key repo.CartKey, itemID int64) (model.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.carts[key.SessionID] {
		if it.ID == itemID {
			return it, nil
		}
	}
	return model.CartItem{}, repo.ErrNotFound
}

// 同一商品は数量加算しつつ現在価格でスナップショットを取り直す。
// 新規は現在価格をスナップショット。
func (s *Store) Add(ctx context.Context, key repo.CartKey, p model.Product, qty int64) error {
	if qty <= 0 {
		return errors.New("invalid quantity")
	}
	if key.SessionID == "" {
		return errors.New("missing session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[key.SessionID]
	for i := range items {
		if items[i].ProductID == p.ID {
			items[i].Quantity += qty
			items[i].PriceAtTime = p.Price
			items[i].UpdatedAt = time.Now()
			s.carts[key.SessionID] = items
			return nil
		}
	}

	now := time.Now()
	item := model.CartItem{
		ID:          s.nextID,
		ProductID:   p.ID,
		Quantity:    qty,
		PriceAtTime: p.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.nextID++

	s.carts[key.SessionID] = append(items, item)
	return nil
}

func (s *Store) UpdateQuantity(ctx context.Context, key repo.CartKey, itemID int64, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[key.SessionID]
	for i := range items {
		if items[i].ID == itemID {
			items[i].Quantity = qty
			items[i].UpdatedAt = time.Now()
			s.carts[key.SessionID] = items
			return nil
		}
	}
	return repo.ErrNotFound
}

func (s *Store) Remove(ctx context.Context, key repo.CartKey, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[key.SessionID]
	for i := range items {
		if items[i].ID == itemID {
			s.carts[key.SessionID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (s *Store) Clear(ctx context.Context, key repo.CartKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, key.SessionID)
	return nil
}
