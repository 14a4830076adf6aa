package repository

import (
	"context"
	"errors"
	"time"

	"agrikonnect/internal/domain/model"
	repo "agrikonnect/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 認証済みユーザーの永続カート。(user_id, product_id) にユニーク制約。
type CartGormStore struct {
	db *gorm.DB
}

// DI
func NewCartGormStore(db *gorm.DB) *CartGormStore {
	return &CartGormStore{db: db}
}

func (r *CartGormStore) List(ctx context.Context, key repo.CartKey) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", key.UserID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}

	return items, nil
}

func (r *CartGormStore) FindByID(ctx context.Context, key repo.CartKey, itemID int64) (model.CartItem, error) {
	var item model.CartItem

	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, key.UserID).
		First(&item).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

// 同一商品は数量加算しつつprice_at_timeを現在価格で取り直す。
// 新規行は現在価格をスナップショット。
func (r *CartGormStore) Add(ctx context.Context, key repo.CartKey, p model.Product, qty int64) error {
	if qty <= 0 {
		return errors.New("invalid quantity")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.CartItem

		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND product_id = ?", key.UserID, p.ID).
			First(&item).Error

		if err == nil {
			// 既存ありだったら数量を増やし、価格も取り直す
			res := tx.Model(&model.CartItem{}).
				Where("id = ?", item.ID).
				Updates(map[string]interface{}{
					"quantity":      item.Quantity + qty,
					"price_at_time": p.Price,
					"updated_at":    time.Now(),
				})

			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return repo.ErrNotFound
			}
			return nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		//無い場合は新規作成
		now := time.Now()
		newItem := model.CartItem{
			UserID:      key.UserID,
			ProductID:   p.ID,
			Quantity:    qty,
			PriceAtTime: p.Price,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := tx.Create(&newItem).Error; err != nil {
			// 同時追加で(user,product)ユニークに当たったら加算にフォールバック
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				res := tx.Model(&model.CartItem{}).
					Where("user_id = ? AND product_id = ?", key.UserID, p.ID).
					Updates(map[string]interface{}{
						"quantity":      gorm.Expr("quantity + ?", qty),
						"price_at_time": p.Price,
						"updated_at":    time.Now(),
					})
				if res.Error != nil {
					return res.Error
				}
				return nil
			}
			return err
		}

		return nil
	})
}

// 持ち主スコープで数量を上書き
func (r *CartGormStore) UpdateQuantity(ctx context.Context, key repo.CartKey, itemID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ? AND user_id = ?", itemID, key.UserID).
		Updates(map[string]interface{}{
			"quantity":   qty,
			"updated_at": time.Now(),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CartGormStore) Remove(ctx context.Context, key repo.CartKey, itemID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, key.UserID).
		Delete(&model.CartItem{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 注文確定後のカート空け
func (r *CartGormStore) Clear(ctx context.Context, key repo.CartKey) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", key.UserID).
		Delete(&model.CartItem{}).Error
}
