package repository

import (
	"context"
	"time"

	"agrikonnect/internal/domain/model"
)

// タイムライン1件。操作者の名前とロールをJOINで付ける。
type TimelineEntry struct {
	ID        int64             `json:"id"`
	OrderID   int64             `json:"order_id"`
	Status    model.OrderStatus `json:"status"`
	ChangedBy int64             `json:"changed_by"`
	ActorName string            `json:"actor_name"`
	ActorRole model.Role        `json:"actor_role"`
	Note      string            `json:"note,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// 追記専用。UpdateもDeleteも約束しない。
type StatusHistoryRepository interface {
	Create(ctx context.Context, h model.OrderStatusHistory) error

	// 新しい順
	ListByOrderID(ctx context.Context, orderID int64) ([]TimelineEntry, error)

	CountByOrderID(ctx context.Context, orderID int64) (int64, error)
}
