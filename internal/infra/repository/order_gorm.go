package repository

import (
	"context"
	"errors"
	"time"

	"agrikonnect/internal/domain/model"
	repo "agrikonnect/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

// 遷移で変わるカラムだけ書き戻す
func (r *OrderGormRepository) SaveTransition(ctx context.Context, o model.Order) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", o.ID).
		Updates(map[string]interface{}{
			"status":                  o.Status,
			"status_history":          o.StatusHistoryJSON,
			"cancellation_reason":     o.CancellationReason,
			"estimated_delivery_time": o.EstimatedDeliveryTime,
			"actual_delivery_time":    o.ActualDeliveryTime,
			"updated_at":              time.Now(),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) ListRecentByCustomer(ctx context.Context, customerID int64, limit int) ([]model.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var items []model.Order
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, err
	}

	return items, nil
}

// 明細1件につき1行の非正規化JOIN。まとめ直しはusecase側。
func (r *OrderGormRepository) ListActiveByCustomer(ctx context.Context, customerID int64) ([]repo.ActiveOrderRow, error) {
	terminal := []model.OrderStatus{
		model.OrderStatusCompleted,
		model.OrderStatusCancelled,
		model.OrderStatusRefunded,
	}

	var rows []repo.ActiveOrderRow
	err := r.db.WithContext(ctx).
		Table("orders").
		Select(`orders.id AS order_id,
			orders.status,
			orders.total_amount,
			orders.delivery_option,
			orders.created_at AS ordered_at,
			order_items.id AS order_item_id,
			order_items.product_id,
			order_items.product_name_snapshot AS product_name,
			order_items.quantity,
			order_items.unit_price,
			order_items.total_price AS item_total`).
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("orders.customer_id = ? AND orders.status NOT IN ?", customerID, terminal).
		Order("orders.id desc, order_items.id asc").
		Scan(&rows).Error
	if err != nil {
		return []repo.ActiveOrderRow{}, err
	}

	return rows, nil
}

// 自分の商品を含むpending注文
func (r *OrderGormRepository) ListPendingByFarmer(ctx context.Context, farmerID int64) ([]model.Order, error) {
	var items []model.Order
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Distinct("orders.*").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.farmer_id = ? AND orders.status = ?", farmerID, model.OrderStatusPending).
		Order("orders.id asc").
		Find(&items).Error
	if err != nil {
		return []model.Order{}, err
	}

	return items, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	//status 絞り込み
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	//customer_id 絞り込み
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("id desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) SalesStats(ctx context.Context, period string, since time.Time) ([]repo.SalesStatsRow, error) {
	var trunc string
	switch period {
	case "daily":
		trunc = "day"
	case "weekly":
		trunc = "week"
	case "monthly":
		trunc = "month"
	case "yearly":
		trunc = "year"
	default:
		return []repo.SalesStatsRow{}, errors.New("invalid period")
	}

	var rows []repo.SalesStatsRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT date_trunc(?, created_at) AS period,
		       count(*)                  AS order_count,
		       coalesce(sum(total_amount), 0) AS revenue
		FROM orders
		WHERE created_at >= ?
		GROUP BY 1
		ORDER BY 1 DESC`, trunc, since).Scan(&rows).Error
	if err != nil {
		return []repo.SalesStatsRow{}, err
	}

	return rows, nil
}

func (r *OrderGormRepository) DeliveryMetrics(ctx context.Context, since time.Time) (repo.DeliveryMetrics, error) {
	var agg struct {
		TotalDeliveries    int64
		AvgDeliveryMinutes float64
		OnTime             int64
		Delayed            int64
	}

	err := r.db.WithContext(ctx).Raw(`
		SELECT count(*) AS total_deliveries,
		       coalesce(avg(extract(epoch FROM (actual_delivery_time - created_at)) / 60), 0) AS avg_delivery_minutes,
		       coalesce(sum(CASE WHEN estimated_delivery_time IS NULL
		                          OR actual_delivery_time <= estimated_delivery_time THEN 1 ELSE 0 END), 0) AS on_time,
		       coalesce(sum(CASE WHEN estimated_delivery_time IS NOT NULL
		                         AND actual_delivery_time > estimated_delivery_time THEN 1 ELSE 0 END), 0) AS delayed
		FROM orders
		WHERE actual_delivery_time IS NOT NULL
		  AND actual_delivery_time >= ?`, since).Scan(&agg).Error
	if err != nil {
		return repo.DeliveryMetrics{}, err
	}

	m := repo.DeliveryMetrics{
		TotalDeliveries:    agg.TotalDeliveries,
		AvgDeliveryMinutes: agg.AvgDeliveryMinutes,
		OnTime:             agg.OnTime,
		Delayed:            agg.Delayed,
	}

	// 配達0件のときは0%（ゼロ除算ガード）
	if m.TotalDeliveries > 0 {
		m.OnTimePercentage = float64(m.OnTime) / float64(m.TotalDeliveries) * 100
	}

	return m, nil
}
