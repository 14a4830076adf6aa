package repository

import (
	"context"
	"time"

	"agrikonnect/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page       int
	Limit      int
	Status     string
	CustomerID *int64
	From       *time.Time
	To         *time.Time
}

// 進行中注文のフラットなJOIN行（明細1件につき1行）。
// アプリ側で order_id ごとにまとめ直す。
type ActiveOrderRow struct {
	OrderID         int64                `json:"order_id"`
	Status          model.OrderStatus    `json:"status"`
	TotalAmount     float64              `json:"total_amount"`
	DeliveryOption  model.DeliveryOption `json:"delivery_option"`
	OrderedAt       time.Time            `json:"ordered_at"`
	OrderItemID     int64                `json:"order_item_id"`
	ProductID       int64                `json:"product_id"`
	ProductName     string               `json:"product_name"`
	Quantity        int64                `json:"quantity"`
	UnitPrice       float64              `json:"unit_price"`
	ItemTotal       float64              `json:"item_total"`
}

// 期間集計（daily/weekly/monthly/yearly）の1行
type SalesStatsRow struct {
	Period     time.Time `json:"period"`
	OrderCount int64     `json:"order_count"`
	Revenue    float64   `json:"revenue"`
}

type DeliveryMetrics struct {
	TotalDeliveries    int64   `json:"total_deliveries"`
	AvgDeliveryMinutes float64 `json:"avg_delivery_minutes"`
	OnTime             int64   `json:"on_time"`
	Delayed            int64   `json:"delayed"`
	OnTimePercentage   float64 `json:"on_time_percentage"`
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	// 遷移で変わるカラムだけを書き戻す
	SaveTransition(ctx context.Context, order model.Order) error

	ListRecentByCustomer(ctx context.Context, customerID int64, limit int) ([]model.Order, error)
	ListActiveByCustomer(ctx context.Context, customerID int64) ([]ActiveOrderRow, error)
	ListPendingByFarmer(ctx context.Context, farmerID int64) ([]model.Order, error)

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	// period: daily / weekly / monthly / yearly
	SalesStats(ctx context.Context, period string, since time.Time) ([]SalesStatsRow, error)

	// since以降に配達完了した注文の集計
	DeliveryMetrics(ctx context.Context, since time.Time) (DeliveryMetrics, error)
}
