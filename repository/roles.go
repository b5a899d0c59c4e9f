package repository

import (
	"context"

	"gorm.io/gorm"

	"ustore/models"
)

type RoleRepository struct {
	db *gorm.DB
}

func (r *RoleRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Role{}).Count(&n).Error
	return n, err
}

func (r *RoleRepository) FindByName(ctx context.Context, name models.RoleName) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) Create(ctx context.Context, role *models.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *RoleRepository) FindAll(ctx context.Context) ([]models.Role, error) {
	roles := []models.Role{}
	err := r.db.WithContext(ctx).Order("id").Find(&roles).Error
	return roles, err
}
