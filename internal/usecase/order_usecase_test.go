package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"agrikonnect/internal/domain/model"
	repo "agrikonnect/internal/repository"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newOrderFixture() (*OrderUsecase, *fakeTxRepos, *fakeUserRepo) {
	r := newFakeTxRepos()
	users := newFakeUserRepo()
	uc := NewOrderUsecase(&fakeTxManager{r: r}, users, zap.NewNop())
	return uc, r, users
}

func seedCustomer(users *fakeUserRepo) Identity {
	u := &model.User{Name: "Asha", Email: "asha@example.com", Role: model.RoleCustomer, IsActive: true}
	_ = users.Create(context.Background(), u)
	c := &model.Customer{UserID: u.ID}
	_ = users.CreateCustomer(context.Background(), c)

	return Identity{UserID: u.ID, Role: model.RoleCustomer, CustomerID: c.ID}
}

// =====================
// PlaceOrder
// =====================

func TestPlaceOrder_Success(t *testing.T) {
	uc, r, users := newOrderFixture()
	id := seedCustomer(users)
	key := id.CartKey()

	// P: 5.00×2, Q: 3.00×1 → 合計13.00
	p := model.Product{ID: 10, Name: "Tomatoes", Price: 5.00, StockQuantity: 8, IsAvailable: true}
	q := model.Product{ID: 11, Name: "Basil", Price: 3.00, StockQuantity: 4, IsAvailable: true}
	r.prods.products[p.ID] = p
	r.prods.products[q.ID] = q
	r.inv.stock[p.ID] = p.StockQuantity
	r.inv.stock[q.ID] = q.StockQuantity

	_ = r.cart.Add(context.Background(), key, p, 2)
	_ = r.cart.Add(context.Background(), key, q, 1)

	out, err := uc.PlaceOrder(context.Background(), id, PlaceOrderInput{
		DeliveryOption: "delivery",
		Address:        "12 Hill Road",
	})
	assert.NoError(t, err)

	assert.Equal(t, "pending", out.Status)
	assert.Equal(t, 13.00, out.TotalAmount)
	assert.Equal(t, id.CustomerID, out.CustomerID)
	assert.Equal(t, 2, len(out.Items))

	//在庫が減っている
	assert.Equal(t, int64(6), r.inv.stock[p.ID])
	assert.Equal(t, int64(3), r.inv.stock[q.ID])

	//カートは空
	left, _ := r.cart.List(context.Background(), key)
	assert.Empty(t, left)

	//履歴テーブルに初期行
	n, _ := r.hist.CountByOrderID(context.Background(), out.ID)
	assert.Equal(t, int64(1), n)

	//行内JSONの初期履歴もpending
	stored := r.orders.orders[out.ID]
	var entries []model.StatusHistoryEntry
	assert.NoError(t, json.Unmarshal([]byte(stored.StatusHistoryJSON), &entries))
	if assert.Equal(t, 1, len(entries)) {
		assert.Equal(t, model.OrderStatusPending, entries[0].Status)
	}
}

func TestPlaceOrder_SnapshotPriceWins(t *testing.T) {
	uc, r, users := newOrderFixture()
	id := seedCustomer(users)
	key := id.CartKey()

	p := model.Product{ID: 10, Name: "Tomatoes", Price: 5.00, StockQuantity: 8, IsAvailable: true}
	r.prods.products[p.ID] = p
	r.inv.stock[p.ID] = p.StockQuantity
	_ = r.cart.Add(context.Background(), key, p, 2)

	//カート追加後に値上げ。合計はカートのprice_at_timeで決まる。
	p.Price = 9.99
	r.prods.products[p.ID] = p

	out, err := uc.PlaceOrder(context.Background(), id, PlaceOrderInput{Address: "12 Hill Road"})
	assert.NoError(t, err)
	assert.Equal(t, 10.00, out.TotalAmount)
	assert.Equal(t, 5.00, out.Items[0].UnitPrice)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	uc, r, users := newOrderFixture()
	id := seedCustomer(users)

	_, err := uc.PlaceOrder(context.Background(), id, PlaceOrderInput{Address: "12 Hill Road"})
	assertErrContains(t, err, "cart is empty")

	//注文は作られない
	assert.Empty(t, r.orders.orders)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	uc, r, users := newOrderFixture()
	id := seedCustomer(users)
	key := id.CartKey()

	p := model.Product{ID: 10, Name: "Tomatoes", Price: 5.00, StockQuantity: 1, IsAvailable: true}
	r.prods.products[p.ID] = p
	r.inv.stock[p.ID] = 1
	_ = r.cart.Add(context.Background(), key, p, 2)

	_, err := uc.PlaceOrder(context.Background(), id, PlaceOrderInput{Address: "12 Hill Road"})
	assertErrContains(t, err, "insufficient stock")

	//注文は作られず、カートも残る
	assert.Empty(t, r.orders.orders)
	left, _ := r.cart.List(context.Background(), key)
	assert.Equal(t, 1, len(left))
}

func TestPlaceOrder_ProductGone(t *testing.T) {
	uc, r, users := newOrderFixture()
	id := seedCustomer(users)
	key := id.CartKey()

	p := model.Product{ID: 10, Name: "Tomatoes", Price: 5.00, StockQuantity: 8, IsAvailable: true}
	r.prods.products[p.ID] = p
	_ = r.cart.Add(context.Background(), key, p, 1)

	//確定前に商品が消えた
	delete(r.prods.products, p.ID)

	_, err := uc.PlaceOrder(context.Background(), id, PlaceOrderInput{Address: "12 Hill Road"})
	assertErrContains(t, err, "product no longer available")
}

func TestPlaceOrder_Unauthenticated(t *testing.T) {
	uc, _, _ := newOrderFixture()

	_, err := uc.PlaceOrder(context.Background(), Identity{}, PlaceOrderInput{Address: "x"})
	assertErrContains(t, err, "unauthorized")
}

func TestPlaceOrder_MissingAddress(t *testing.T) {
	uc, _, users := newOrderFixture()
	id := seedCustomer(users)

	_, err := uc.PlaceOrder(context.Background(), id, PlaceOrderInput{})
	assertErrContains(t, err, "delivery address required")
}

func TestPlaceOrder_InvalidDeliveryOption(t *testing.T) {
	uc, _, users := newOrderFixture()
	id := seedCustomer(users)

	_, err := uc.PlaceOrder(context.Background(), id, PlaceOrderInput{
		DeliveryOption: "drone",
		Address:        "12 Hill Road",
	})
	assertErrContains(t, err, "invalid delivery_option")
}

// =====================
// 閲覧系
// =====================

func TestGetOrderDetail_OtherCustomerLooksMissing(t *testing.T) {
	uc, r, users := newOrderFixture()
	owner := seedCustomer(users)

	orderID, _ := r.orders.Create(context.Background(), model.Order{
		CustomerID: owner.CustomerID,
		Status:     model.OrderStatusPending,
	})

	other := Identity{UserID: 50, Role: model.RoleCustomer, CustomerID: 50}
	_, err := uc.GetOrderDetail(context.Background(), other, orderID)
	assertErrContains(t, err, "not found")

	//本人は見える
	out, err := uc.GetOrderDetail(context.Background(), owner, orderID)
	assert.NoError(t, err)
	assert.Equal(t, orderID, out.ID)

	//管理者も見える
	out, err = uc.GetOrderDetail(context.Background(), Identity{UserID: 99, Role: model.RoleAdmin}, orderID)
	assert.NoError(t, err)
	assert.Equal(t, orderID, out.ID)
}

// =====================
// 農家スコープ
// =====================

func TestAssertFarmerOnOrder(t *testing.T) {
	uc, r, users := newOrderFixture()
	id := seedCustomer(users)
	key := id.CartKey()

	//farmer 9 の商品だけが入った注文
	p := model.Product{ID: 10, Name: "Tomatoes", FarmerID: 9, Price: 5.00, StockQuantity: 8, IsAvailable: true}
	r.prods.products[p.ID] = p
	r.inv.stock[p.ID] = p.StockQuantity
	_ = r.cart.Add(context.Background(), key, p, 1)

	out, err := uc.PlaceOrder(context.Background(), id, PlaceOrderInput{
		DeliveryOption: "delivery",
		Address:        "12 Hill Road",
	})
	assert.NoError(t, err)

	owner := Identity{UserID: 2, Role: model.RoleFarmer, FarmerID: 9}
	other := Identity{UserID: 3, Role: model.RoleFarmer, FarmerID: 4}
	admin := Identity{UserID: 4, Role: model.RoleAdmin}

	//自分の商品を含む注文は触れる
	assert.NoError(t, uc.AssertFarmerOnOrder(context.Background(), owner, out.ID))

	//他の農家には「存在しない扱い」
	err = uc.AssertFarmerOnOrder(context.Background(), other, out.ID)
	assertErrContains(t, err, "not found")
	if he, ok := AsHTTPError(err); assert.True(t, ok) {
		assert.Equal(t, 404, he.Status)
	}

	//管理者は全件
	assert.NoError(t, uc.AssertFarmerOnOrder(context.Background(), admin, out.ID))

	//存在しない注文
	err = uc.AssertFarmerOnOrder(context.Background(), owner, 999)
	assertErrContains(t, err, "not found")

	//FarmerIDなしは拒否
	err = uc.AssertFarmerOnOrder(context.Background(), Identity{UserID: 5, Role: model.RoleFarmer}, out.ID)
	assertErrContains(t, err, "forbidden")
}

func TestSalesStats_InvalidPeriod(t *testing.T) {
	uc, _, _ := newOrderFixture()

	_, err := uc.SalesStats(context.Background(), "hourly")
	assertErrContains(t, err, "invalid period")
}

func TestGroupActiveRows(t *testing.T) {
	rows := []repo.ActiveOrderRow{
		{OrderID: 1, Status: model.OrderStatusPending, TotalAmount: 13, ProductID: 10, ProductName: "Tomatoes", Quantity: 2, UnitPrice: 5, ItemTotal: 10},
		{OrderID: 1, Status: model.OrderStatusPending, TotalAmount: 13, ProductID: 11, ProductName: "Basil", Quantity: 1, UnitPrice: 3, ItemTotal: 3},
		{OrderID: 2, Status: model.OrderStatusConfirmed, TotalAmount: 5, ProductID: 10, ProductName: "Tomatoes", Quantity: 1, UnitPrice: 5, ItemTotal: 5},
	}

	outs := groupActiveRows(rows)
	if assert.Equal(t, 2, len(outs)) {
		assert.Equal(t, int64(1), outs[0].ID)
		assert.Equal(t, 2, len(outs[0].Items))
		assert.Equal(t, int64(2), outs[1].ID)
		assert.Equal(t, 1, len(outs[1].Items))
	}
}
