package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"agrikonnect/internal/domain/model"
	repo "agrikonnect/internal/repository"

	"go.uber.org/zap"
)

type OrderUsecase struct {
	tx     repo.TransactionManager
	users  repo.UserRepository
	logger *zap.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, users repo.UserRepository, logger *zap.Logger) *OrderUsecase {
	return &OrderUsecase{tx: tx, users: users, logger: logger}
}

type PlaceOrderInput struct {
	DeliveryOption string
	Address        string
	Notes          string
}

type OrderItemOutput struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int64   `json:"quantity"`
	Total     float64 `json:"total"`
}

type OrderOutput struct {
	ID                    int64             `json:"id"`
	CustomerID            int64             `json:"customer_id"`
	Status                string            `json:"status"`
	TotalAmount           float64           `json:"total_amount"`
	DeliveryOption        string            `json:"delivery_option"`
	DeliveryAddress       string            `json:"delivery_address"`
	DeliveryNotes         string            `json:"delivery_notes,omitempty"`
	EstimatedDeliveryTime *time.Time        `json:"estimated_delivery_time,omitempty"`
	ActualDeliveryTime    *time.Time        `json:"actual_delivery_time,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	Items                 []OrderItemOutput `json:"items"`
}

// カートから注文を作る。
// 合計はカートのprice_at_timeのみで計算し、商品の現在価格は使わない。
// 在庫減算・注文・明細・カートクリアは1トランザクション。
// 失敗時は全ロールバックでカートは残る。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, id Identity, in PlaceOrderInput) (OrderOutput, error) {
	if !id.Authenticated() {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//注文者のcustomerプロフィール解決
	customer, err := u.users.FindCustomerByUserID(ctx, id.UserID)
	if err == repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusForbidden, "customer profile required")
	}
	if err != nil {
		u.logger.Error("resolve customer failed", zap.Int64("user_id", id.UserID), zap.Error(err))
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	option := model.DeliveryOption(strings.TrimSpace(in.DeliveryOption))
	if option == "" {
		option = model.DeliveryOptionDelivery
	}
	if option != model.DeliveryOptionPickup && option != model.DeliveryOptionDelivery {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid delivery_option")
	}

	address := strings.TrimSpace(in.Address)
	if address == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "delivery address required")
	}

	var out OrderOutput

	//注文処理はトランザクション
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		key := id.CartKey()

		cartItems, err := r.CartItems().List(ctx, key)
		if err != nil {
			u.logger.Error("load cart failed", zap.Int64("user_id", id.UserID), zap.Error(err))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart is empty")
		}

		//在庫を確定時に再チェックして減らす
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		var total float64 = 0
		now := time.Now()

		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusBadRequest, "product no longer available")
			}
			if err != nil {
				u.logger.Error("load product failed", zap.Int64("product_id", ci.ProductID), zap.Error(err))
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.IsAvailable {
				return NewHTTPError(http.StatusBadRequest, "product no longer available")
			}

			//在庫減算（足りないなら false）
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ci.ProductID, ci.Quantity)
			if err != nil {
				u.logger.Error("decrease stock failed", zap.Int64("product_id", ci.ProductID), zap.Error(err))
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "insufficient stock")
			}

			//スナップショット。unit_priceはカートのprice_at_time。
			itemTotal := ci.PriceAtTime * float64(ci.Quantity)
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           ci.ProductID,
				ProductNameSnapshot: p.Name,
				Quantity:            ci.Quantity,
				UnitPrice:           ci.PriceAtTime,
				TotalPrice:          itemTotal,
				CreatedAt:           now,
			})

			total += itemTotal
		}

		//行内JSONの初期履歴
		historyJSON, err := json.Marshal([]model.StatusHistoryEntry{{
			Status:    model.OrderStatusPending,
			ChangedBy: id.UserID,
			Timestamp: now,
		}})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		// 注文作成
		orderID, err := r.Orders().Create(ctx, model.Order{
			CustomerID:        customer.ID,
			TotalAmount:       total,
			DeliveryOption:    option,
			DeliveryAddress:   address,
			DeliveryNotes:     strings.TrimSpace(in.Notes),
			Status:            model.OrderStatusPending,
			StatusHistoryJSON: string(historyJSON),
			CreatedAt:         now,
			UpdatedAt:         now,
		})
		if err != nil {
			u.logger.Error("create order failed", zap.Int64("customer_id", customer.ID), zap.Error(err))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			u.logger.Error("create order items failed", zap.Int64("order_id", orderID), zap.Error(err))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//履歴テーブルにも初期行を追記
		if err := r.StatusHistory().Create(ctx, model.OrderStatusHistory{
			OrderID:   orderID,
			Status:    model.OrderStatusPending,
			ChangedBy: id.UserID,
			CreatedAt: now,
		}); err != nil {
			u.logger.Error("create status history failed", zap.Int64("order_id", orderID), zap.Error(err))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//確定できたのでカートを空にする
		if err := r.CartItems().Clear(ctx, key); err != nil {
			u.logger.Error("clear cart failed", zap.Int64("user_id", id.UserID), zap.Error(err))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		created := model.Order{
			ID:              orderID,
			CustomerID:      customer.ID,
			TotalAmount:     total,
			DeliveryOption:  option,
			DeliveryAddress: address,
			DeliveryNotes:   strings.TrimSpace(in.Notes),
			Status:          model.OrderStatusPending,
			CreatedAt:       now,
		}
		out = toOrderOutput(created, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListRecentByCustomer(ctx context.Context, id Identity, limit int) ([]OrderOutput, error) {
	if id.CustomerID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListRecentByCustomer(ctx, id.CustomerID, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

type ActiveOrderItemOutput struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

type ActiveOrderOutput struct {
	ID             int64                   `json:"id"`
	Status         string                  `json:"status"`
	TotalAmount    float64                 `json:"total_amount"`
	DeliveryOption string                  `json:"delivery_option"`
	OrderedAt      time.Time               `json:"ordered_at"`
	Items          []ActiveOrderItemOutput `json:"items"`
}

// 進行中注文。JOINは明細ごとに1行返るので、order_idでまとめ直す。
func (u *OrderUsecase) ListActiveByCustomer(ctx context.Context, id Identity) ([]ActiveOrderOutput, error) {
	if id.CustomerID <= 0 {
		return []ActiveOrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []ActiveOrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rows, err := r.Orders().ListActiveByCustomer(ctx, id.CustomerID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = groupActiveRows(rows)
		return nil
	})

	if err != nil {
		return []ActiveOrderOutput{}, err
	}
	return outs, nil
}

func groupActiveRows(rows []repo.ActiveOrderRow) []ActiveOrderOutput {
	outs := make([]ActiveOrderOutput, 0)
	index := map[int64]int{}

	for _, row := range rows {
		i, ok := index[row.OrderID]
		if !ok {
			outs = append(outs, ActiveOrderOutput{
				ID:             row.OrderID,
				Status:         string(row.Status),
				TotalAmount:    row.TotalAmount,
				DeliveryOption: string(row.DeliveryOption),
				OrderedAt:      row.OrderedAt,
				Items:          []ActiveOrderItemOutput{},
			})
			i = len(outs) - 1
			index[row.OrderID] = i
		}

		outs[i].Items = append(outs[i].Items, ActiveOrderItemOutput{
			ProductID: row.ProductID,
			Name:      row.ProductName,
			Quantity:  row.Quantity,
			UnitPrice: row.UnitPrice,
			Total:     row.ItemTotal,
		})
	}

	return outs
}

// 自分の商品を含むpending注文（農家ダッシュボード用）
func (u *OrderUsecase) ListPendingByFarmer(ctx context.Context, id Identity) ([]OrderOutput, error) {
	if id.FarmerID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListPendingByFarmer(ctx, id.FarmerID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// 農家が触れるのは自分の商品を含む注文だけ（管理者は全件）。
// 含まない注文は「存在しない扱い」にする。
func (u *OrderUsecase) AssertFarmerOnOrder(ctx context.Context, id Identity, orderID int64) error {
	if id.Role == model.RoleAdmin {
		return nil
	}
	if id.FarmerID <= 0 {
		return NewHTTPError(http.StatusForbidden, "forbidden")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		for _, it := range items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err == repo.ErrNotFound {
				//削除済み商品は持ち主を判定できないのでスキップ
				continue
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if p.FarmerID == id.FarmerID {
				return nil
			}
		}

		return NewHTTPError(http.StatusNotFound, "not found")
	})
}

func (u *OrderUsecase) GetOrderDetail(ctx context.Context, id Identity, orderID int64) (OrderOutput, error) {
	if !id.Authenticated() {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//他人の注文は「存在しない扱い」にする（管理者は全件）
		if id.Role != model.RoleAdmin && o.CustomerID != id.CustomerID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// daily/weekly/monthly/yearly の売上集計
func (u *OrderUsecase) SalesStats(ctx context.Context, period string) ([]repo.SalesStatsRow, error) {
	var since time.Time
	now := time.Now()

	switch period {
	case "daily":
		since = now.AddDate(0, 0, -30)
	case "weekly":
		since = now.AddDate(0, -6, 0)
	case "monthly":
		since = now.AddDate(-1, 0, 0)
	case "yearly":
		since = now.AddDate(-5, 0, 0)
	default:
		return []repo.SalesStatsRow{}, NewHTTPError(http.StatusBadRequest, "invalid period")
	}

	var rows []repo.SalesStatsRow
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		rows, err = r.Orders().SalesStats(ctx, period, since)
		if err != nil {
			u.logger.Error("sales stats failed", zap.String("period", period), zap.Error(err))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return []repo.SalesStatsRow{}, err
	}
	return rows, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Total:     it.TotalPrice,
		})
	}

	return OrderOutput{
		ID:                    o.ID,
		CustomerID:            o.CustomerID,
		Status:                string(o.Status),
		TotalAmount:           o.TotalAmount,
		DeliveryOption:        string(o.DeliveryOption),
		DeliveryAddress:       o.DeliveryAddress,
		DeliveryNotes:         o.DeliveryNotes,
		EstimatedDeliveryTime: o.EstimatedDeliveryTime,
		ActualDeliveryTime:    o.ActualDeliveryTime,
		CreatedAt:             o.CreatedAt,
		Items:                 outItems,
	}
}
