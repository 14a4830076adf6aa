package model

import "time"

// 注文明細。親注文と同一トランザクションで作成される。
// unit_price は注文時点のスナップショット（商品の現在価格ではない）。
type OrderItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64     `gorm:"not null;index" json:"order_id"`
	ProductID           int64     `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	UnitPrice           float64   `gorm:"column:unit_price;not null" json:"unit_price"`
	TotalPrice          float64   `gorm:"column:total_price;not null" json:"total_price"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
