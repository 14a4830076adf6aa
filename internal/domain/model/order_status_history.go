package model

import "time"

// 遷移ごとに1行追記される監査証跡。更新も削除もしない。
type OrderStatusHistory struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64       `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"type:varchar(30);not null" json:"status"`
	ChangedBy int64       `gorm:"column:changed_by;not null" json:"changed_by"`
	Note      string      `gorm:"type:text" json:"note"`
	CreatedAt time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}
