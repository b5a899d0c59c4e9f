package models

import "time"

type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ImageURL  string    `gorm:"column:image_url;size:500;not null" json:"image_url"`
	AltText   string    `gorm:"size:255" json:"alt_text"`
	IsPrimary bool      `gorm:"not null" json:"is_primary"`
	SortOrder int       `gorm:"not null" json:"sort_order"`
	ProductID uint      `gorm:"index;not null" json:"product_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
