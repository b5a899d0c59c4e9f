package repository

import (
	"context"

	"gorm.io/gorm"

	"ustore/models"
)

type CategoryRepository struct {
	db *gorm.DB
}

const categoryOrder = "sort_order ASC, id ASC"

func (r *CategoryRepository) FindByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// ExistsByName reports whether another category than excludeID uses name.
// Pass 0 to check every row.
func (r *CategoryRepository) ExistsByName(ctx context.Context, name string, excludeID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("name = ? AND id <> ?", name, excludeID).Count(&n).Error
	return n > 0, err
}

// ExistsBySlug reports whether another category than excludeID uses slug.
func (r *CategoryRepository) ExistsBySlug(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("slug = ? AND id <> ?", slug, excludeID).Count(&n).Error
	return n > 0, err
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *CategoryRepository) Save(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *CategoryRepository) SetActive(ctx context.Context, id uint, active bool) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Update("is_active", active)
	return res.RowsAffected, res.Error
}

func (r *CategoryRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Category{}, id)
	return res.RowsAffected, res.Error
}

// PromoteChildren turns the direct children of parentID into root categories.
func (r *CategoryRepository) PromoteChildren(ctx context.Context, parentID uint) error {
	return r.db.WithContext(ctx).Model(&models.Category{}).
		Where("parent_id = ?", parentID).Update("parent_id", nil).Error
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := r.db.WithContext(ctx).Order("id").Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) FindActive(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order(categoryOrder).Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) FindByParent(ctx context.Context, parentID uint) ([]models.Category, error) {
	categories := []models.Category{}
	err := r.db.WithContext(ctx).
		Where("parent_id = ? AND is_active = ?", parentID, true).
		Order(categoryOrder).Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) FindRoots(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := r.db.WithContext(ctx).
		Where("parent_id IS NULL AND is_active = ?", true).
		Order(categoryOrder).Find(&categories).Error
	return categories, err
}

// FindWithActiveProducts returns active categories referenced by at least one
// active product.
func (r *CategoryRepository) FindWithActiveProducts(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND EXISTS (SELECT 1 FROM products p WHERE p.category_id = categories.id AND p.is_active = ?)", true, true).
		Order(categoryOrder).Find(&categories).Error
	return categories, err
}
