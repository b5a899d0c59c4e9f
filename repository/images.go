package repository

import (
	"context"

	"gorm.io/gorm"

	"ustore/models"
)

type ImageRepository struct {
	db *gorm.DB
}

func (r *ImageRepository) ListByProduct(ctx context.Context, productID uint) ([]models.ProductImage, error) {
	images := []models.ProductImage{}
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).
		Order("sort_order ASC, id ASC").Find(&images).Error
	return images, err
}

func (r *ImageRepository) FindByID(ctx context.Context, id uint) (*models.ProductImage, error) {
	var image models.ProductImage
	if err := r.db.WithContext(ctx).First(&image, id).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *ImageRepository) FindPrimary(ctx context.Context, productID uint) (*models.ProductImage, error) {
	var image models.ProductImage
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_primary = ?", productID, true).
		Order("id").First(&image).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

// FindFirst returns the lowest sort-order image of the product.
func (r *ImageRepository) FindFirst(ctx context.Context, productID uint) (*models.ProductImage, error) {
	var image models.ProductImage
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).
		Order("sort_order ASC, id ASC").First(&image).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *ImageRepository) CountByProduct(ctx context.Context, productID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ProductImage{}).Where("product_id = ?", productID).Count(&n).Error
	return n, err
}

func (r *ImageRepository) Create(ctx context.Context, image *models.ProductImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *ImageRepository) Save(ctx context.Context, image *models.ProductImage) error {
	return r.db.WithContext(ctx).Save(image).Error
}

func (r *ImageRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.ProductImage{}, id)
	return res.RowsAffected, res.Error
}

func (r *ImageRepository) DeleteByProduct(ctx context.Context, productID uint) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error
}

// ClearPrimary demotes every primary image of the product except keepID.
func (r *ImageRepository) ClearPrimary(ctx context.Context, productID, keepID uint) error {
	return r.db.WithContext(ctx).Model(&models.ProductImage{}).
		Where("product_id = ? AND id <> ? AND is_primary = ?", productID, keepID, true).
		Update("is_primary", false).Error
}
