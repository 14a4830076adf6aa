package repository

import (
	"context"
	"errors"
	"strings"

	"agrikonnect/internal/domain/model"
	repo "agrikonnect/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 公開中（is_available）の商品だけを検索
func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}

	query := r.db.WithContext(ctx).Model(&model.Product{}).Where("is_available = ?", true)

	if s := strings.TrimSpace(q.Q); s != "" {
		query = query.Where("name ILIKE ?", "%"+s+"%")
	}
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.MinPrice != nil {
		query = query.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		query = query.Where("price <= ?", *q.MaxPrice)
	}
	if q.Organic != nil {
		query = query.Where("is_organic = ?", *q.Organic)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	switch q.Sort {
	case "price_asc":
		query = query.Order("price asc")
	case "price_desc":
		query = query.Order("price desc")
	default:
		query = query.Order("id desc")
	}

	var items []model.Product
	offset := (q.Page - 1) * q.Limit
	if err := query.Limit(q.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return items, total, nil
}

func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) ListByFarmer(ctx context.Context, farmerID int64) ([]model.Product, error) {
	var items []model.Product
	err := r.db.WithContext(ctx).
		Where("farmer_id = ?", farmerID).
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return []model.Product{}, err
	}
	return items, nil
}

func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"name":         p.Name,
			"category":     p.Category,
			"description":  p.Description,
			"price":        p.Price,
			"unit":         p.Unit,
			"is_available": p.IsAvailable,
			"is_organic":   p.IsOrganic,
			"is_gmo_free":  p.IsGMOFree,
			"image_url":    p.ImageURL,
			"updated_at":   p.UpdatedAt,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 注文数量の多い順（人気商品）
func (r *ProductGormRepository) ListPopular(ctx context.Context, limit int) ([]model.Product, error) {
	if limit <= 0 || limit > 50 {
		limit = 8
	}

	var items []model.Product
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Select("products.*").
		Joins("JOIN order_items ON order_items.product_id = products.id").
		Where("products.is_available = ?", true).
		Group("products.id").
		Order("sum(order_items.quantity) desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return []model.Product{}, err
	}

	return items, nil
}

// 過去に注文したカテゴリの商品。注文履歴が無ければ空。
func (r *ProductGormRepository) ListRecommendedForCustomer(ctx context.Context, customerID int64, limit int) ([]model.Product, error) {
	if limit <= 0 || limit > 50 {
		limit = 8
	}

	var items []model.Product
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.*
		FROM products p
		WHERE p.is_available = true
		  AND p.deleted_at IS NULL
		  AND p.category IN (
			SELECT DISTINCT pp.category
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			JOIN products pp ON pp.id = oi.product_id
			WHERE o.customer_id = ?
		  )
		ORDER BY p.id DESC
		LIMIT ?`, customerID, limit).Scan(&items).Error
	if err != nil {
		return []model.Product{}, err
	}

	return items, nil
}
