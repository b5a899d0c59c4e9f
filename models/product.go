package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	Name               string           `gorm:"size:200;not null" json:"name"`
	Description        string           `gorm:"size:1000" json:"description"`
	Price              decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"price"`
	OriginalPrice      *decimal.Decimal `gorm:"type:decimal(10,2)" json:"original_price"`
	DiscountPercentage int              `gorm:"not null" json:"discount_percentage"`
	Brand              string           `gorm:"size:100;not null;index" json:"brand"`
	SKU                *string          `gorm:"column:sku;size:50;uniqueIndex" json:"sku"`
	StockQuantity      int              `gorm:"not null" json:"stock_quantity"`
	MinStockLevel      int              `gorm:"not null" json:"min_stock_level"`
	IsActive           bool             `gorm:"not null;index" json:"is_active"`
	IsFeatured         bool             `gorm:"not null" json:"is_featured"`
	IsNew              bool             `gorm:"not null" json:"is_new"`
	Weight             *float64         `json:"weight"`
	Dimensions         string           `gorm:"size:100" json:"dimensions"`
	Color              string           `gorm:"size:50" json:"color"`
	Size               string           `gorm:"size:50" json:"size"`
	Material           string           `gorm:"size:100" json:"material"`
	WarrantyPeriod     string           `gorm:"size:50" json:"warranty_period"`
	Rating             float64          `gorm:"not null" json:"rating"`
	ReviewCount        int              `gorm:"not null" json:"review_count"`
	ViewCount          int              `gorm:"not null" json:"view_count"`
	SoldCount          int              `gorm:"not null" json:"sold_count"`
	CreatedAt          time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	CategoryID         *uint            `gorm:"index" json:"category_id"`
	Category           *Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Images             []ProductImage   `gorm:"foreignKey:ProductID" json:"images,omitempty"`
}

// HasDiscount reports whether a discount percentage is set.
func (p *Product) HasDiscount() bool { return p.DiscountPercentage > 0 }

// IsLowStock matches the reorder threshold: in stock but at or below the minimum level.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity > 0 && p.StockQuantity <= p.MinStockLevel
}
