// Package repository holds the gorm queries behind every service operation.
package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories bound to one connection or transaction.
type Store struct {
	db *gorm.DB

	Users      *UserRepository
	Roles      *RoleRepository
	Categories *CategoryRepository
	Products   *ProductRepository
	Images     *ImageRepository
	Reviews    *ReviewRepository
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{
		db:         conn,
		Users:      &UserRepository{db: conn},
		Roles:      &RoleRepository{db: conn},
		Categories: &CategoryRepository{db: conn},
		Products:   &ProductRepository{db: conn},
		Images:     &ImageRepository{db: conn},
		Reviews:    &ReviewRepository{db: conn},
	}
}

// Transaction runs fn as one unit of work. Every repository reached through the
// Store passed to fn shares the transaction; returning an error rolls it back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
