package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"agrikonnect/internal/domain/model"
	repo "agrikonnect/internal/repository"

	"github.com/stretchr/testify/assert"
)

// =====================
// インメモリのフェイク一式。
// Txを跨ぐ注文/遷移のテストはモックだと組み立てが煩雑なので、
// 本物と同じ不変条件を持つフェイクで通しの挙動を見る。
// =====================

func assertErrContains(t *testing.T, err error, want string) {
	t.Helper()
	assert.Error(t, err)
	if err != nil {
		assert.True(t, strings.Contains(err.Error(), want),
			"error %q should contain %q", err.Error(), want)
	}
}

type fakeOrderRepo struct {
	nextID  int64
	orders  map[int64]model.Order
	metrics repo.DeliveryMetrics
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{nextID: 1, orders: map[int64]model.Order{}}
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) Create(ctx context.Context, order model.Order) (int64, error) {
	order.ID = f.nextID
	f.nextID++
	f.orders[order.ID] = order
	return order.ID, nil
}

func (f *fakeOrderRepo) SaveTransition(ctx context.Context, order model.Order) error {
	if _, ok := f.orders[order.ID]; !ok {
		return repo.ErrNotFound
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) ListRecentByCustomer(ctx context.Context, customerID int64, limit int) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range f.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListActiveByCustomer(ctx context.Context, customerID int64) ([]repo.ActiveOrderRow, error) {
	return []repo.ActiveOrderRow{}, nil
}

func (f *fakeOrderRepo) ListPendingByFarmer(ctx context.Context, farmerID int64) ([]model.Order, error) {
	return []model.Order{}, nil
}

func (f *fakeOrderRepo) ListAdmin(ctx context.Context, flt repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	return []model.Order{}, 0, nil
}

func (f *fakeOrderRepo) SalesStats(ctx context.Context, period string, since time.Time) ([]repo.SalesStatsRow, error) {
	return []repo.SalesStatsRow{}, nil
}

func (f *fakeOrderRepo) DeliveryMetrics(ctx context.Context, since time.Time) (repo.DeliveryMetrics, error) {
	return f.metrics, nil
}

type fakeOrderItemRepo struct {
	items map[int64][]model.OrderItem
}

func newFakeOrderItemRepo() *fakeOrderItemRepo {
	return &fakeOrderItemRepo{items: map[int64][]model.OrderItem{}}
}

func (f *fakeOrderItemRepo) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	for i := range items {
		items[i].OrderID = orderID
	}
	f.items[orderID] = append(f.items[orderID], items...)
	return nil
}

func (f *fakeOrderItemRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return f.items[orderID], nil
}

type fakeHistoryRepo struct {
	rows []model.OrderStatusHistory
}

func (f *fakeHistoryRepo) Create(ctx context.Context, h model.OrderStatusHistory) error {
	f.rows = append(f.rows, h)
	return nil
}

func (f *fakeHistoryRepo) ListByOrderID(ctx context.Context, orderID int64) ([]repo.TimelineEntry, error) {
	out := []repo.TimelineEntry{}
	//新しい順
	for i := len(f.rows) - 1; i >= 0; i-- {
		h := f.rows[i]
		if h.OrderID == orderID {
			out = append(out, repo.TimelineEntry{
				OrderID:   h.OrderID,
				Status:    h.Status,
				ChangedBy: h.ChangedBy,
				Note:      h.Note,
				CreatedAt: h.CreatedAt,
			})
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) CountByOrderID(ctx context.Context, orderID int64) (int64, error) {
	var n int64
	for _, h := range f.rows {
		if h.OrderID == orderID {
			n++
		}
	}
	return n, nil
}

type fakeCartStore struct {
	nextID int64
	items  map[int64][]model.CartItem // key: UserID
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{nextID: 1, items: map[int64][]model.CartItem{}}
}

func (f *fakeCartStore) List(ctx context.Context, key repo.CartKey) ([]model.CartItem, error) {
	out := make([]model.CartItem, len(f.items[key.UserID]))
	copy(out, f.items[key.UserID])
	return out, nil
}

func (f *fakeCartStore) FindByID(ctx context.Context, key repo.CartKey, itemID int64) (model.CartItem, error) {
	for _, it := range f.items[key.UserID] {
		if it.ID == itemID {
			return it, nil
		}
	}
	return model.CartItem{}, repo.ErrNotFound
}

func (f *fakeCartStore) Add(ctx context.Context, key repo.CartKey, p model.Product, qty int64) error {
	items := f.items[key.UserID]
	for i := range items {
		if items[i].ProductID == p.ID {
			items[i].Quantity += qty
			items[i].PriceAtTime = p.Price
			f.items[key.UserID] = items
			return nil
		}
	}

	f.items[key.UserID] = append(items, model.CartItem{
		ID:          f.nextID,
		UserID:      key.UserID,
		ProductID:   p.ID,
		Quantity:    qty,
		PriceAtTime: p.Price,
	})
	f.nextID++
	return nil
}

func (f *fakeCartStore) UpdateQuantity(ctx context.Context, key repo.CartKey, itemID int64, qty int64) error {
	items := f.items[key.UserID]
	for i := range items {
		if items[i].ID == itemID {
			items[i].Quantity = qty
			f.items[key.UserID] = items
			return nil
		}
	}
	return repo.ErrNotFound
}

func (f *fakeCartStore) Remove(ctx context.Context, key repo.CartKey, itemID int64) error {
	items := f.items[key.UserID]
	for i := range items {
		if items[i].ID == itemID {
			f.items[key.UserID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (f *fakeCartStore) Clear(ctx context.Context, key repo.CartKey) error {
	delete(f.items, key.UserID)
	return nil
}

type fakeInventoryRepo struct {
	stock       map[int64]int64
	adjustments []model.InventoryAdjustment
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{stock: map[int64]int64{}}
}

func (f *fakeInventoryRepo) SetStock(ctx context.Context, productID int64, newStock int64) error {
	if _, ok := f.stock[productID]; !ok {
		return repo.ErrNotFound
	}
	f.stock[productID] = newStock
	return nil
}

func (f *fakeInventoryRepo) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	cur, ok := f.stock[productID]
	if !ok || cur < qty {
		return false, nil
	}
	f.stock[productID] = cur - qty
	return true, nil
}

func (f *fakeInventoryRepo) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	f.stock[productID] += qty
	return nil
}

func (f *fakeInventoryRepo) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	f.adjustments = append(f.adjustments, adjustment)
	return nil
}

type fakeProductRepo struct {
	products map[int64]model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[int64]model.Product{}}
}

func (f *fakeProductRepo) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	return []model.Product{}, 0, nil
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) ListByFarmer(ctx context.Context, farmerID int64) ([]model.Product, error) {
	return []model.Product{}, nil
}

func (f *fakeProductRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeProductRepo) Update(ctx context.Context, p model.Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return repo.ErrNotFound
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) SoftDelete(ctx context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) ListPopular(ctx context.Context, limit int) ([]model.Product, error) {
	return []model.Product{}, nil
}

func (f *fakeProductRepo) ListRecommendedForCustomer(ctx context.Context, customerID int64, limit int) ([]model.Product, error) {
	return []model.Product{}, nil
}

type fakeUserRepo struct {
	users     map[int64]*model.User
	customers map[int64]*model.Customer // key: UserID
	farmers   map[int64]*model.Farmer   // key: UserID
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     map[int64]*model.User{},
		customers: map[int64]*model.Customer{},
		farmers:   map[int64]*model.Farmer{},
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return repo.ErrDuplicateEmail
		}
	}
	user.ID = int64(len(f.users) + 1)
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return repo.ErrUserNotFound
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) CreateCustomer(ctx context.Context, c *model.Customer) error {
	c.ID = int64(len(f.customers) + 1)
	f.customers[c.UserID] = c
	return nil
}

func (f *fakeUserRepo) CreateFarmer(ctx context.Context, fm *model.Farmer) error {
	fm.ID = int64(len(f.farmers) + 1)
	f.farmers[fm.UserID] = fm
	return nil
}

func (f *fakeUserRepo) FindCustomerByUserID(ctx context.Context, userID int64) (*model.Customer, error) {
	c, ok := f.customers[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return c, nil
}

func (f *fakeUserRepo) FindFarmerByUserID(ctx context.Context, userID int64) (*model.Farmer, error) {
	fm, ok := f.farmers[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return fm, nil
}

func (f *fakeUserRepo) ListFarmers(ctx context.Context, page int, limit int) ([]model.Farmer, int64, error) {
	return []model.Farmer{}, 0, nil
}

func (f *fakeUserRepo) SetFarmerVerified(ctx context.Context, farmerID int64, verified bool) error {
	for _, fm := range f.farmers {
		if fm.ID == farmerID {
			fm.Verified = verified
			return nil
		}
	}
	return repo.ErrNotFound
}

func (f *fakeUserRepo) SetUserActive(ctx context.Context, userID int64, active bool) error {
	u, ok := f.users[userID]
	if !ok {
		return repo.ErrUserNotFound
	}
	u.IsActive = active
	return nil
}

type fakeAuditRepo struct {
	logs []model.AuditLog
}

func (f *fakeAuditRepo) Create(ctx context.Context, log model.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	return f.logs, nil
}

// =====================
// TxRepos / TransactionManager
// =====================

type fakeTxRepos struct {
	orders *fakeOrderRepo
	items  *fakeOrderItemRepo
	hist   *fakeHistoryRepo
	cart   *fakeCartStore
	inv    *fakeInventoryRepo
	prods  *fakeProductRepo
}

func newFakeTxRepos() *fakeTxRepos {
	return &fakeTxRepos{
		orders: newFakeOrderRepo(),
		items:  newFakeOrderItemRepo(),
		hist:   &fakeHistoryRepo{},
		cart:   newFakeCartStore(),
		inv:    newFakeInventoryRepo(),
		prods:  newFakeProductRepo(),
	}
}

func (f *fakeTxRepos) Orders() repo.OrderRepository { return f.orders }

func (f *fakeTxRepos) OrderItems() repo.OrderItemRepository { return f.items }

func (f *fakeTxRepos) StatusHistory() repo.StatusHistoryRepository { return f.hist }

func (f *fakeTxRepos) CartItems() repo.CartStore { return f.cart }

func (f *fakeTxRepos) Inventory() repo.InventoryRepository { return f.inv }

func (f *fakeTxRepos) Products() repo.ProductRepository { return f.prods }

// ロールバックは模倣しない。失敗パスのテストは
// 「失敗より後の書き込みが起きない」ことを見る。
type fakeTxManager struct {
	r *fakeTxRepos
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.r)
}

var errBoom = errors.New("boom")
