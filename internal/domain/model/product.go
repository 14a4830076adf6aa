package model

import (
	"time"

	"gorm.io/gorm"
)

// 農家が出品する農産物。
// stock_quantity はコミット後に必ず 0 以上。
type Product struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	FarmerID      int64          `gorm:"not null;index" json:"farmer_id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Category      string         `gorm:"type:varchar(100);not null;index" json:"category"`
	Description   string         `gorm:"type:text" json:"description"`
	Price         float64        `gorm:"not null" json:"price"`
	Unit          string         `gorm:"type:varchar(30);not null" json:"unit"`
	StockQuantity int64          `gorm:"column:stock_quantity;not null" json:"stock_quantity"`
	IsAvailable   bool           `gorm:"not null;default:false" json:"is_available"`
	IsOrganic     bool           `gorm:"not null;default:false" json:"is_organic"`
	IsGMOFree     bool           `gorm:"column:is_gmo_free;not null;default:false" json:"is_gmo_free"`
	ImageURL      string         `gorm:"type:varchar(500)" json:"image_url"`
	CreatedAt     time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
