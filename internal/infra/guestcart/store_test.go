package guestcart

import (
	"context"
	"testing"

	"agrikonnect/internal/domain/model"
	repo "agrikonnect/internal/repository"

	"github.com/stretchr/testify/assert"
)

func key(session string) repo.CartKey {
	return repo.CartKey{SessionID: session}
}

func TestStore_AddMergesSameProduct(t *testing.T) {
	s := NewStore()
	k := key(s.NewSession())
	p := model.Product{ID: 10, Price: 5.00}

	assert.NoError(t, s.Add(context.Background(), k, p, 2))
	assert.NoError(t, s.Add(context.Background(), k, p, 3))

	items, err := s.List(context.Background(), k)
	assert.NoError(t, err)
	if assert.Equal(t, 1, len(items)) {
		assert.Equal(t, int64(5), items[0].Quantity)
		assert.Equal(t, 5.00, items[0].PriceAtTime)
	}
}

func TestStore_ReAddRefreshesPriceSnapshot(t *testing.T) {
	s := NewStore()
	k := key(s.NewSession())

	assert.NoError(t, s.Add(context.Background(), k, model.Product{ID: 10, Price: 5.00}, 1))
	//値上げ後の再追加は現在価格で取り直す
	assert.NoError(t, s.Add(context.Background(), k, model.Product{ID: 10, Price: 9.00}, 1))

	items, _ := s.List(context.Background(), k)
	assert.Equal(t, 9.00, items[0].PriceAtTime)
	assert.Equal(t, int64(2), items[0].Quantity)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	s := NewStore()
	k1 := key(s.NewSession())
	k2 := key(s.NewSession())

	assert.NoError(t, s.Add(context.Background(), k1, model.Product{ID: 10, Price: 5.00}, 1))

	items1, _ := s.List(context.Background(), k1)
	items2, _ := s.List(context.Background(), k2)
	assert.Equal(t, 1, len(items1))
	assert.Empty(t, items2)
}

func TestStore_UpdateRemoveClear(t *testing.T) {
	s := NewStore()
	k := key(s.NewSession())

	assert.NoError(t, s.Add(context.Background(), k, model.Product{ID: 10, Price: 5.00}, 1))
	assert.NoError(t, s.Add(context.Background(), k, model.Product{ID: 11, Price: 3.00}, 1))

	items, _ := s.List(context.Background(), k)
	assert.Equal(t, 2, len(items))

	assert.NoError(t, s.UpdateQuantity(context.Background(), k, items[0].ID, 4))
	got, err := s.FindByID(context.Background(), k, items[0].ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(4), got.Quantity)

	assert.NoError(t, s.Remove(context.Background(), k, items[0].ID))
	_, err = s.FindByID(context.Background(), k, items[0].ID)
	assert.Equal(t, repo.ErrNotFound, err)

	assert.NoError(t, s.Clear(context.Background(), k))
	items, _ = s.List(context.Background(), k)
	assert.Empty(t, items)
}

func TestStore_MissingItem(t *testing.T) {
	s := NewStore()
	k := key(s.NewSession())

	assert.Equal(t, repo.ErrNotFound, s.UpdateQuantity(context.Background(), k, 999, 1))
	assert.Equal(t, repo.ErrNotFound, s.Remove(context.Background(), k, 999))
}

func TestStore_ListReturnsCopy(t *testing.T) {
	s := NewStore()
	k := key(s.NewSession())

	assert.NoError(t, s.Add(context.Background(), k, model.Product{ID: 10, Price: 5.00}, 1))

	items, _ := s.List(context.Background(), k)
	items[0].Quantity = 99

	again, _ := s.List(context.Background(), k)
	assert.Equal(t, int64(1), again[0].Quantity)
}
