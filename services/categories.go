package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ustore/apperror"
	"ustore/models"
	"ustore/repository"
)

type CategoryInput struct {
	Name            string  `json:"name" validate:"required,max=100"`
	Slug            *string `json:"slug" validate:"omitempty,min=1,max=100"`
	Description     string  `json:"description" validate:"max=500"`
	Image           string  `json:"image" validate:"max=255"`
	ParentID        *uint   `json:"parent_id"`
	IsActive        *bool   `json:"is_active"`
	SortOrder       int     `json:"sort_order"`
	MetaTitle       string  `json:"meta_title" validate:"max=200"`
	MetaDescription string  `json:"meta_description" validate:"max=500"`
}

// CategoryPatch lists the category fields to overwrite; nil fields are kept.
type CategoryPatch struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=100"`
	Slug            *string `json:"slug" validate:"omitempty,min=1,max=100"`
	Description     *string `json:"description" validate:"omitempty,max=500"`
	Image           *string `json:"image" validate:"omitempty,max=255"`
	ParentID        *uint   `json:"parent_id"`
	IsActive        *bool   `json:"is_active"`
	SortOrder       *int    `json:"sort_order"`
	MetaTitle       *string `json:"meta_title" validate:"omitempty,max=200"`
	MetaDescription *string `json:"meta_description" validate:"omitempty,max=500"`
}

func (p CategoryPatch) apply(c *models.Category) {
	set(&c.Name, p.Name)
	setPtr(&c.Slug, p.Slug)
	set(&c.Description, p.Description)
	set(&c.Image, p.Image)
	setPtr(&c.ParentID, p.ParentID)
	set(&c.IsActive, p.IsActive)
	set(&c.SortOrder, p.SortOrder)
	set(&c.MetaTitle, p.MetaTitle)
	set(&c.MetaDescription, p.MetaDescription)
}

type CategoryService struct {
	store  *repository.Store
	events EventPublisher
	log    logrus.FieldLogger
}

func NewCategoryService(store *repository.Store, events EventPublisher, log logrus.FieldLogger) *CategoryService {
	return &CategoryService{store: store, events: publisherOrNop(events), log: log}
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:            in.Name,
		Slug:            in.Slug,
		Description:     in.Description,
		Image:           in.Image,
		ParentID:        in.ParentID,
		IsActive:        boolOr(in.IsActive, true),
		SortOrder:       in.SortOrder,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := checkCategoryName(ctx, tx, category.Name, 0); err != nil {
			return err
		}
		if category.Slug != nil {
			if err := checkCategorySlug(ctx, tx, *category.Slug, 0); err != nil {
				return err
			}
		}
		if category.ParentID != nil {
			if err := checkParent(ctx, tx, 0, *category.ParentID); err != nil {
				return err
			}
		}
		return tx.Categories.Create(ctx, category)
	})
	if err != nil {
		return nil, storageError(s.conflict(ctx, category.Slug, 0, err), "Category not found")
	}

	s.log.WithField("category_id", category.ID).Info("Category created")
	s.events.Publish("category.created", category)
	return category, nil
}

// Update merges patch into the category. Name and slug are only re-checked
// for uniqueness when they change, and the check ignores the category itself.
func (s *CategoryService) Update(ctx context.Context, id uint, patch CategoryPatch) (*models.Category, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	var category *models.Category
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		category, err = tx.Categories.FindByID(ctx, id)
		if err != nil {
			return storageError(err, "Category not found")
		}

		if patch.Name != nil && *patch.Name != category.Name {
			if err := checkCategoryName(ctx, tx, *patch.Name, id); err != nil {
				return err
			}
		}
		if patch.Slug != nil && (category.Slug == nil || *patch.Slug != *category.Slug) {
			if err := checkCategorySlug(ctx, tx, *patch.Slug, id); err != nil {
				return err
			}
		}
		if patch.ParentID != nil && (category.ParentID == nil || *patch.ParentID != *category.ParentID) {
			if err := checkParent(ctx, tx, id, *patch.ParentID); err != nil {
				return err
			}
		}

		patch.apply(category)
		return tx.Categories.Save(ctx, category)
	})
	if err != nil {
		return nil, storageError(s.conflict(ctx, patch.Slug, id, err), "Category not found")
	}

	s.log.WithField("category_id", id).Info("Category updated")
	s.events.Publish("category.updated", category)
	return category, nil
}

// conflict names the unique key a concurrent writer took between the
// pre-checks and the write. It runs outside the failed transaction.
func (s *CategoryService) conflict(ctx context.Context, slug *string, excludeID uint, err error) error {
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	if slug != nil {
		if err := checkCategorySlug(ctx, s.store, *slug, excludeID); err != nil {
			return err
		}
	}
	return apperror.New(apperror.DuplicateName, "Category name already exists")
}

func checkCategoryName(ctx context.Context, tx *repository.Store, name string, excludeID uint) error {
	exists, err := tx.Categories.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return internal(err)
	}
	if exists {
		return apperror.Newf(apperror.DuplicateName, "Category with name '%s' already exists", name)
	}
	return nil
}

func checkCategorySlug(ctx context.Context, tx *repository.Store, slug string, excludeID uint) error {
	exists, err := tx.Categories.ExistsBySlug(ctx, slug, excludeID)
	if err != nil {
		return internal(err)
	}
	if exists {
		return apperror.Newf(apperror.DuplicateSlug, "Category with slug '%s' already exists", slug)
	}
	return nil
}

// checkParent verifies that parentID exists and that making it the parent of
// id would not close a cycle. id is 0 for a category not yet stored.
func checkParent(ctx context.Context, tx *repository.Store, id, parentID uint) error {
	if id != 0 && parentID == id {
		return apperror.New(apperror.ValidationFailed, "Category cannot be its own parent")
	}

	seen := map[uint]bool{}
	cur := parentID
	for {
		parent, err := tx.Categories.FindByID(ctx, cur)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if cur == parentID {
				return apperror.New(apperror.CategoryNotFound, "Parent category not found")
			}
			return nil
		}
		if err != nil {
			return internal(err)
		}
		if parent.ParentID == nil || seen[parent.ID] {
			return nil
		}
		seen[parent.ID] = true
		if id != 0 && *parent.ParentID == id {
			return apperror.New(apperror.ValidationFailed, "Parent assignment would create a cycle")
		}
		cur = *parent.ParentID
	}
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.store.Categories.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "Category not found")
	}
	return category, nil
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.store.Categories.FindBySlug(ctx, slug)
	if err != nil {
		return nil, storageError(err, "Category not found")
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return listOrInternal[models.Category](s.store.Categories.FindAll(ctx))
}

// ListActive returns active categories by sort order.
func (s *CategoryService) ListActive(ctx context.Context) ([]models.Category, error) {
	return listOrInternal[models.Category](s.store.Categories.FindActive(ctx))
}

func (s *CategoryService) ListByParent(ctx context.Context, parentID uint) ([]models.Category, error) {
	return listOrInternal[models.Category](s.store.Categories.FindByParent(ctx, parentID))
}

func (s *CategoryService) ListRoots(ctx context.Context) ([]models.Category, error) {
	return listOrInternal[models.Category](s.store.Categories.FindRoots(ctx))
}

// ListWithProducts returns categories holding at least one active product.
func (s *CategoryService) ListWithProducts(ctx context.Context) ([]models.Category, error) {
	return listOrInternal[models.Category](s.store.Categories.FindWithActiveProducts(ctx))
}

// ProductCount counts the active products in the category.
func (s *CategoryService) ProductCount(ctx context.Context, id uint) (int64, error) {
	exists, err := s.store.Categories.ExistsByID(ctx, id)
	if err != nil {
		return 0, internal(err)
	}
	if !exists {
		return 0, apperror.New(apperror.NotFound, "Category not found")
	}
	n, err := s.store.Products.CountActiveInCategory(ctx, id)
	if err != nil {
		return 0, internal(err)
	}
	return n, nil
}

func (s *CategoryService) Activate(ctx context.Context, id uint) error {
	return s.setActive(ctx, id, true)
}

func (s *CategoryService) Deactivate(ctx context.Context, id uint) error {
	return s.setActive(ctx, id, false)
}

func (s *CategoryService) setActive(ctx context.Context, id uint, active bool) error {
	n, err := s.store.Categories.SetActive(ctx, id, active)
	if err != nil {
		return internal(err)
	}
	if n == 0 {
		return apperror.New(apperror.NotFound, "Category not found")
	}
	s.log.WithFields(logrus.Fields{"category_id": id, "active": active}).Info("Category status changed")
	s.events.Publish("category.updated", map[string]any{"id": id, "is_active": active})
	return nil
}

// Delete removes the category. Its products lose their category and its
// direct children become roots.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		exists, err := tx.Categories.ExistsByID(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return apperror.New(apperror.NotFound, "Category not found")
		}
		if err := tx.Products.DetachCategory(ctx, id); err != nil {
			return err
		}
		if err := tx.Categories.PromoteChildren(ctx, id); err != nil {
			return err
		}
		_, err = tx.Categories.Delete(ctx, id)
		return err
	})
	if err != nil {
		return storageError(err, "Category not found")
	}

	s.log.WithField("category_id", id).Info("Category deleted")
	s.events.Publish("category.deleted", map[string]any{"id": id})
	return nil
}

func listOrInternal[T any](items []T, err error) ([]T, error) {
	if err != nil {
		return nil, internal(err)
	}
	return items, nil
}
