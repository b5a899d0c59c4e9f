package repository

import (
	"context"

	"gorm.io/gorm"

	"ustore/models"
)

type UserRepository struct {
	db *gorm.DB
}

var userSorts = sortColumns{
	"id":         "id",
	"username":   "username",
	"email":      "email",
	"created_at": "created_at",
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Roles").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Roles").
		Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByLogin matches an active user whose username or email equals login.
func (r *UserRepository) FindActiveByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Roles").
		Where("is_active = ? AND (username = ? OR email = ?)", true, login, login).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// Create inserts the user together with its role assignments.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Save writes every column of the user. Role assignments are left untouched.
func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Roles").Save(user).Error
}

// SetFlag updates a single boolean column.
func (r *UserRepository) SetFlag(ctx context.Context, id uint, column string, value bool) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	return res.RowsAffected, res.Error
}

// Delete removes the user and its role assignments.
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	user := models.User{ID: id}
	return r.db.WithContext(ctx).Select("Roles").Delete(&user).Error
}

func (r *UserRepository) FindAll(ctx context.Context, req PageRequest) (Page[models.User], error) {
	return findPage[models.User](ctx, r.db, req, userSorts, pageQuery{preloads: []string{"Roles"}})
}

func (r *UserRepository) FindActive(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := r.db.WithContext(ctx).Preload("Roles").
		Where("is_active = ?", true).Order("id").Find(&users).Error
	return users, err
}
