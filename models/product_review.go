package models

import "time"

type ProductReview struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Rating             int       `gorm:"not null" json:"rating"`
	Comment            string    `gorm:"size:2000" json:"comment"`
	IsVerifiedPurchase bool      `gorm:"not null" json:"is_verified_purchase"`
	HelpfulCount       int       `gorm:"not null" json:"helpful_count"`
	NotHelpfulCount    int       `gorm:"not null" json:"not_helpful_count"`
	ProductID          uint      `gorm:"uniqueIndex:idx_review_user_product,priority:2;index;not null" json:"product_id"`
	UserID             uint      `gorm:"uniqueIndex:idx_review_user_product,priority:1;not null" json:"user_id"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
