package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"agrikonnect/internal/domain/model"
	repo "agrikonnect/internal/repository"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newStatusFixture() (*StatusUsecase, *fakeTxRepos) {
	r := newFakeTxRepos()
	uc := NewStatusUsecase(&fakeTxManager{r: r}, zap.NewNop())
	return uc, r
}

func seedOrder(r *fakeTxRepos, status model.OrderStatus) int64 {
	history, _ := json.Marshal([]model.StatusHistoryEntry{{
		Status:    model.OrderStatusPending,
		ChangedBy: 1,
		Timestamp: time.Now(),
	}})

	id, _ := r.orders.Create(context.Background(), model.Order{
		CustomerID:        1,
		TotalAmount:       13,
		DeliveryOption:    model.DeliveryOptionDelivery,
		DeliveryAddress:   "somewhere",
		Status:            status,
		StatusHistoryJSON: string(history),
	})
	return id
}

var adminActor = Identity{UserID: 99, Role: model.RoleAdmin}

// =====================
// 遷移の基本
// =====================

func TestUpdateOrderStatus_ValidTransition(t *testing.T) {
	uc, r := newStatusFixture()
	orderID := seedOrder(r, model.OrderStatusPending)

	out, err := uc.UpdateOrderStatus(context.Background(), adminActor, orderID, model.OrderStatusConfirmed, "looks good")
	assert.NoError(t, err)
	assert.Equal(t, "pending", out.FromStatus)
	assert.Equal(t, "confirmed", out.ToStatus)

	o := r.orders.orders[orderID]
	assert.Equal(t, model.OrderStatusConfirmed, o.Status)

	//履歴テーブルに1行追記
	n, _ := r.hist.CountByOrderID(context.Background(), orderID)
	assert.Equal(t, int64(1), n)

	//行内JSONにも追記（seed分＋今回分）
	var entries []model.StatusHistoryEntry
	assert.NoError(t, json.Unmarshal([]byte(o.StatusHistoryJSON), &entries))
	assert.Equal(t, 2, len(entries))
	assert.Equal(t, model.OrderStatusConfirmed, entries[1].Status)
	assert.Equal(t, adminActor.UserID, entries[1].ChangedBy)
	assert.Equal(t, "looks good", entries[1].Note)
}

func TestUpdateOrderStatus_InvalidTransition(t *testing.T) {
	uc, r := newStatusFixture()
	orderID := seedOrder(r, model.OrderStatusPending)

	_, err := uc.UpdateOrderStatus(context.Background(), adminActor, orderID, model.OrderStatusDelivered, "")
	assertErrContains(t, err, "invalid status transition from pending to delivered")

	//状態も履歴も変わらない
	assert.Equal(t, model.OrderStatusPending, r.orders.orders[orderID].Status)
	n, _ := r.hist.CountByOrderID(context.Background(), orderID)
	assert.Equal(t, int64(0), n)
}

func TestUpdateOrderStatus_RefundedIsTerminal(t *testing.T) {
	uc, r := newStatusFixture()
	orderID := seedOrder(r, model.OrderStatusRefunded)

	for target := range model.OrderTransitions {
		_, err := uc.UpdateOrderStatus(context.Background(), adminActor, orderID, target, "")
		assertErrContains(t, err, "invalid status transition")
	}
}

func TestUpdateOrderStatus_UnknownStatus(t *testing.T) {
	uc, r := newStatusFixture()
	orderID := seedOrder(r, model.OrderStatusPending)

	_, err := uc.UpdateOrderStatus(context.Background(), adminActor, orderID, model.OrderStatus("shipped"), "")
	assertErrContains(t, err, `unknown status "shipped"`)
}

func TestUpdateOrderStatus_OrderNotFound(t *testing.T) {
	uc, _ := newStatusFixture()

	_, err := uc.UpdateOrderStatus(context.Background(), adminActor, 999, model.OrderStatusConfirmed, "")
	assertErrContains(t, err, "not found")
}

func TestUpdateOrderStatus_Unauthenticated(t *testing.T) {
	uc, r := newStatusFixture()
	orderID := seedOrder(r, model.OrderStatusPending)

	_, err := uc.UpdateOrderStatus(context.Background(), Identity{}, orderID, model.OrderStatusConfirmed, "")
	assertErrContains(t, err, "unauthorized")
}

// =====================
// 遷移先フック
// =====================

func TestUpdateOrderStatus_OutForDeliverySetsEstimate(t *testing.T) {
	uc, r := newStatusFixture()
	orderID := seedOrder(r, model.OrderStatusProcessing)

	before := time.Now()
	_, err := uc.UpdateOrderStatus(context.Background(), adminActor, orderID, model.OrderStatusOutForDelivery, "")
	assert.NoError(t, err)

	o := r.orders.orders[orderID]
	if assert.NotNil(t, o.EstimatedDeliveryTime) {
		//だいたい now+2h
		want := before.Add(2 * time.Hour)
		assert.WithinDuration(t, want, *o.EstimatedDeliveryTime, time.Minute)
	}
	assert.Nil(t, o.ActualDeliveryTime)
}

func TestUpdateOrderStatus_DeliveredSetsActualTime(t *testing.T) {
	uc, r := newStatusFixture()
	orderID := seedOrder(r, model.OrderStatusOutForDelivery)

	before := time.Now()
	_, err := uc.UpdateOrderStatus(context.Background(), adminActor, orderID, model.OrderStatusDelivered, "")
	assert.NoError(t, err)

	o := r.orders.orders[orderID]
	if assert.NotNil(t, o.ActualDeliveryTime) {
		assert.WithinDuration(t, before, *o.ActualDeliveryTime, time.Minute)
	}
}

func TestUpdateOrderStatus_CancelRestoresStock(t *testing.T) {
	uc, r := newStatusFixture()
	orderID := seedOrder(r, model.OrderStatusConfirmed)

	//注文済みの明細（購入時に在庫は減っている前提）
	r.inv.stock[10] = 3
	r.inv.stock[11] = 0
	_ = r.items.CreateBulk(context.Background(), orderID, []model.OrderItem{
		{ProductID: 10, Quantity: 2, UnitPrice: 5, TotalPrice: 10},
		{ProductID: 11, Quantity: 1, UnitPrice: 3, TotalPrice: 3},
	})

	_, err := uc.UpdateOrderStatus(context.Background(), adminActor, orderID, model.OrderStatusCancelled, "changed my mind")
	assert.NoError(t, err)

	//明細ぶん在庫が戻る
	assert.Equal(t, int64(5), r.inv.stock[10])
	assert.Equal(t, int64(1), r.inv.stock[11])

	o := r.orders.orders[orderID]
	assert.Equal(t, model.OrderStatusCancelled, o.Status)
	assert.Equal(t, "changed my mind", o.CancellationReason)
}

// =====================
// タイムライン・指標
// =====================

func TestGetOrderTimeline_NewestFirst(t *testing.T) {
	uc, r := newStatusFixture()
	orderID := seedOrder(r, model.OrderStatusPending)

	_, err := uc.UpdateOrderStatus(context.Background(), adminActor, orderID, model.OrderStatusConfirmed, "")
	assert.NoError(t, err)
	_, err = uc.UpdateOrderStatus(context.Background(), adminActor, orderID, model.OrderStatusProcessing, "")
	assert.NoError(t, err)

	entries, err := uc.GetOrderTimeline(context.Background(), orderID)
	assert.NoError(t, err)
	if assert.Equal(t, 2, len(entries)) {
		assert.Equal(t, model.OrderStatusProcessing, entries[0].Status)
		assert.Equal(t, model.OrderStatusConfirmed, entries[1].Status)
	}
}

func TestGetOrderTimeline_NotFound(t *testing.T) {
	uc, _ := newStatusFixture()

	_, err := uc.GetOrderTimeline(context.Background(), 42)
	assertErrContains(t, err, "not found")
}

func TestGetDeliveryMetrics_PassesThrough(t *testing.T) {
	uc, r := newStatusFixture()
	r.orders.metrics = repo.DeliveryMetrics{
		TotalDeliveries:    4,
		AvgDeliveryMinutes: 95,
		OnTime:             3,
		Delayed:            1,
		OnTimePercentage:   75,
	}

	m, err := uc.GetDeliveryMetrics(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(4), m.TotalDeliveries)
	assert.Equal(t, float64(75), m.OnTimePercentage)
}

func TestPossibleNextStatuses(t *testing.T) {
	uc, _ := newStatusFixture()

	assert.ElementsMatch(t,
		[]model.OrderStatus{model.OrderStatusConfirmed, model.OrderStatusCancelled},
		uc.PossibleNextStatuses(model.OrderStatusPending))

	assert.Empty(t, uc.PossibleNextStatuses(model.OrderStatusRefunded))
	assert.Empty(t, uc.PossibleNextStatuses(model.OrderStatus("bogus")))
}
