package model

import "time"

// カートの明細。(user_id, product_id) で1行。
// price_at_time は追加時点の価格を保存。閲覧では追随せず、
// 同じ商品を再追加したときだけ現在価格で取り直す。
type CartItem struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64     `gorm:"not null;index:idx_cart_user_product,unique" json:"user_id"`
	ProductID   int64     `gorm:"not null;index:idx_cart_user_product,unique" json:"product_id"`
	Quantity    int64     `gorm:"not null" json:"quantity"`
	PriceAtTime float64   `gorm:"column:price_at_time;not null" json:"price_at_time"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
