package repository

import (
	"context"

	"agrikonnect/internal/domain/model"
	repo "agrikonnect/internal/repository"

	"gorm.io/gorm"
)

type StatusHistoryGormRepository struct {
	db *gorm.DB
}

func NewStatusHistoryGormRepository(db *gorm.DB) *StatusHistoryGormRepository {
	return &StatusHistoryGormRepository{db: db}
}

func (r *StatusHistoryGormRepository) Create(ctx context.Context, h model.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(&h).Error
}

// 新しい順。操作者の名前とロールをusersからJOIN。
func (r *StatusHistoryGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]repo.TimelineEntry, error) {
	var rows []repo.TimelineEntry

	err := r.db.WithContext(ctx).
		Table("order_status_history").
		Select(`order_status_history.id,
			order_status_history.order_id,
			order_status_history.status,
			order_status_history.changed_by,
			users.name AS actor_name,
			users.role AS actor_role,
			order_status_history.note,
			order_status_history.created_at`).
		Joins("JOIN users ON users.id = order_status_history.changed_by").
		Where("order_status_history.order_id = ?", orderID).
		Order("order_status_history.id desc").
		Scan(&rows).Error
	if err != nil {
		return []repo.TimelineEntry{}, err
	}

	return rows, nil
}

func (r *StatusHistoryGormRepository) CountByOrderID(ctx context.Context, orderID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.OrderStatusHistory{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
