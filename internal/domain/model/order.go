package model

import "time"

type DeliveryOption string

const (
	DeliveryOptionPickup   DeliveryOption = "pickup"
	DeliveryOptionDelivery DeliveryOption = "delivery"
)

// 注文。チェックアウトで1度だけ作られ、以後はステータス遷移でのみ変わる。
// 物理削除はしない（キャンセルはステータス）。
// total_amount は作成時点の明細合計（quantity × unit_price の総和）。
type Order struct {
	ID                    int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID            int64          `gorm:"not null;index" json:"customer_id"`
	TotalAmount           float64        `gorm:"column:total_amount;not null" json:"total_amount"`
	DeliveryOption        DeliveryOption `gorm:"type:varchar(20);not null" json:"delivery_option"`
	DeliveryAddress       string         `gorm:"type:text;not null" json:"delivery_address"`
	DeliveryNotes         string         `gorm:"type:text" json:"delivery_notes"`
	Status                OrderStatus    `gorm:"type:varchar(30);not null;index" json:"status"`
	StatusHistoryJSON     string         `gorm:"column:status_history;type:text" json:"-"`
	CancellationReason    string         `gorm:"type:text" json:"cancellation_reason,omitempty"`
	EstimatedDeliveryTime *time.Time     `gorm:"column:estimated_delivery_time" json:"estimated_delivery_time,omitempty"`
	ActualDeliveryTime    *time.Time     `gorm:"column:actual_delivery_time" json:"actual_delivery_time,omitempty"`
	CreatedAt             time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// status_history カラムに積む1エントリ。行内JSONのミラー。
// 正は order_status_history テーブル。
type StatusHistoryEntry struct {
	Status    OrderStatus `json:"status"`
	ChangedBy int64       `json:"changed_by"`
	Note      string      `json:"note,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
