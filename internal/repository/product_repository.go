package repository

import (
	"context"
	"errors"

	"agrikonnect/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	Category string
	MinPrice *float64
	MaxPrice *float64
	Organic  *bool
	Sort     string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	ListByFarmer(ctx context.Context, farmerID int64) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error

	// 注文数量の多い順
	ListPopular(ctx context.Context, limit int) ([]model.Product, error)

	// 過去に注文したカテゴリから。履歴が無ければ空を返す（呼び側でpopularにフォールバック）
	ListRecommendedForCustomer(ctx context.Context, customerID int64, limit int) ([]model.Product, error)
}
