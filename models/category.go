package models

import "time"

type Category struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Slug            *string   `gorm:"size:100;uniqueIndex" json:"slug"`
	Description     string    `gorm:"size:500" json:"description"`
	Image           string    `gorm:"size:255" json:"image"`
	ParentID        *uint     `gorm:"index" json:"parent_id"`
	IsActive        bool      `gorm:"not null" json:"is_active"`
	SortOrder       int       `gorm:"not null" json:"sort_order"`
	MetaTitle       string    `gorm:"size:200" json:"meta_title"`
	MetaDescription string    `gorm:"size:500" json:"meta_description"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
