package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ustore/apperror"
	"ustore/metrics"
	"ustore/models"
	"ustore/repository"
)

// CategoryRef points at an existing category by id, as in {"category": {"id": 3}}.
type CategoryRef struct {
	ID *uint `json:"id"`
}

type ProductInput struct {
	Name               string           `json:"name" validate:"required,max=200"`
	Description        string           `json:"description" validate:"max=1000"`
	Price              decimal.Decimal  `json:"price"`
	OriginalPrice      *decimal.Decimal `json:"original_price"`
	DiscountPercentage int              `json:"discount_percentage" validate:"min=0,max=100"`
	Brand              string           `json:"brand" validate:"required,max=100"`
	SKU                *string          `json:"sku" validate:"omitempty,min=1,max=50"`
	StockQuantity      int              `json:"stock_quantity" validate:"min=0"`
	MinStockLevel      int              `json:"min_stock_level" validate:"min=0"`
	IsActive           *bool            `json:"is_active"`
	IsFeatured         bool             `json:"is_featured"`
	IsNew              bool             `json:"is_new"`
	Weight             *float64         `json:"weight" validate:"omitempty,min=0"`
	Dimensions         string           `json:"dimensions" validate:"max=100"`
	Color              string           `json:"color" validate:"max=50"`
	Size               string           `json:"size" validate:"max=50"`
	Material           string           `json:"material" validate:"max=100"`
	WarrantyPeriod     string           `json:"warranty_period" validate:"max=50"`
	CategoryID         *uint            `json:"category_id"`
	Category           *CategoryRef     `json:"category"`
}

func (in ProductInput) categoryID() *uint {
	if in.CategoryID != nil {
		return in.CategoryID
	}
	if in.Category != nil {
		return in.Category.ID
	}
	return nil
}

// ProductPatch lists the product fields to overwrite; nil fields are kept.
// Derived counters (rating, views, sold) cannot be patched.
type ProductPatch struct {
	Name               *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description        *string          `json:"description" validate:"omitempty,max=1000"`
	Price              *decimal.Decimal `json:"price"`
	OriginalPrice      *decimal.Decimal `json:"original_price"`
	DiscountPercentage *int             `json:"discount_percentage" validate:"omitempty,min=0,max=100"`
	Brand              *string          `json:"brand" validate:"omitempty,min=1,max=100"`
	SKU                *string          `json:"sku" validate:"omitempty,min=1,max=50"`
	StockQuantity      *int             `json:"stock_quantity" validate:"omitempty,min=0"`
	MinStockLevel      *int             `json:"min_stock_level" validate:"omitempty,min=0"`
	IsActive           *bool            `json:"is_active"`
	IsFeatured         *bool            `json:"is_featured"`
	IsNew              *bool            `json:"is_new"`
	Weight             *float64         `json:"weight" validate:"omitempty,min=0"`
	Dimensions         *string          `json:"dimensions" validate:"omitempty,max=100"`
	Color              *string          `json:"color" validate:"omitempty,max=50"`
	Size               *string          `json:"size" validate:"omitempty,max=50"`
	Material           *string          `json:"material" validate:"omitempty,max=100"`
	WarrantyPeriod     *string          `json:"warranty_period" validate:"omitempty,max=50"`
	CategoryID         *uint            `json:"category_id"`
	Category           *CategoryRef     `json:"category"`
}

func (p ProductPatch) categoryID() *uint {
	return ProductInput{CategoryID: p.CategoryID, Category: p.Category}.categoryID()
}

func (p ProductPatch) apply(pr *models.Product) {
	set(&pr.Name, p.Name)
	set(&pr.Description, p.Description)
	set(&pr.Price, p.Price)
	setPtr(&pr.OriginalPrice, p.OriginalPrice)
	set(&pr.DiscountPercentage, p.DiscountPercentage)
	set(&pr.Brand, p.Brand)
	setPtr(&pr.SKU, p.SKU)
	set(&pr.StockQuantity, p.StockQuantity)
	set(&pr.MinStockLevel, p.MinStockLevel)
	set(&pr.IsActive, p.IsActive)
	set(&pr.IsFeatured, p.IsFeatured)
	set(&pr.IsNew, p.IsNew)
	setPtr(&pr.Weight, p.Weight)
	set(&pr.Dimensions, p.Dimensions)
	set(&pr.Color, p.Color)
	set(&pr.Size, p.Size)
	set(&pr.Material, p.Material)
	set(&pr.WarrantyPeriod, p.WarrantyPeriod)
}

func checkPrices(price *decimal.Decimal, original *decimal.Decimal) error {
	if price != nil && !price.IsPositive() {
		return apperror.New(apperror.ValidationFailed, "Price must be greater than 0")
	}
	if original != nil && original.IsNegative() {
		return apperror.New(apperror.ValidationFailed, "Original price must be greater than or equal to 0")
	}
	for _, d := range []*decimal.Decimal{price, original} {
		if d != nil && !d.Equal(d.Round(2)) {
			return apperror.New(apperror.ValidationFailed, "Prices allow at most two decimal places")
		}
	}
	return nil
}

type ProductService struct {
	store  *repository.Store
	events EventPublisher
	log    logrus.FieldLogger
}

func NewProductService(store *repository.Store, events EventPublisher, log logrus.FieldLogger) *ProductService {
	return &ProductService{store: store, events: publisherOrNop(events), log: log}
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Brand = strings.TrimSpace(in.Brand)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := checkPrices(&in.Price, in.OriginalPrice); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:               in.Name,
		Description:        in.Description,
		Price:              in.Price,
		OriginalPrice:      in.OriginalPrice,
		DiscountPercentage: in.DiscountPercentage,
		Brand:              in.Brand,
		SKU:                in.SKU,
		StockQuantity:      in.StockQuantity,
		MinStockLevel:      in.MinStockLevel,
		IsActive:           boolOr(in.IsActive, true),
		IsFeatured:         in.IsFeatured,
		IsNew:              in.IsNew,
		Weight:             in.Weight,
		Dimensions:         in.Dimensions,
		Color:              in.Color,
		Size:               in.Size,
		Material:           in.Material,
		WarrantyPeriod:     in.WarrantyPeriod,
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if product.SKU != nil {
			if err := checkSKU(ctx, tx, *product.SKU, 0); err != nil {
				return err
			}
		}
		if id := in.categoryID(); id != nil {
			category, err := resolveCategory(ctx, tx, *id)
			if err != nil {
				return err
			}
			product.CategoryID = &category.ID
			product.Category = category
		}
		if err := tx.Products.Create(ctx, product); err != nil {
			return uniqueViolation(err, apperror.DuplicateSku, "Product with this SKU already exists")
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err, "Product not found")
	}

	s.log.WithField("product_id", product.ID).Info("Product created")
	s.events.Publish("product.created", product)
	return product, nil
}

// Update merges patch into the product. The SKU is re-checked only when it
// changes; a category reference is resolved the same way as on create.
func (s *ProductService) Update(ctx context.Context, id uint, patch ProductPatch) (*models.Product, error) {
	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	if err := checkPrices(patch.Price, patch.OriginalPrice); err != nil {
		return nil, err
	}

	var product *models.Product
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		product, err = tx.Products.FindByID(ctx, id)
		if err != nil {
			return storageError(err, "Product not found")
		}

		if patch.SKU != nil && (product.SKU == nil || *patch.SKU != *product.SKU) {
			if err := checkSKU(ctx, tx, *patch.SKU, id); err != nil {
				return err
			}
		}
		if cid := patch.categoryID(); cid != nil {
			category, err := resolveCategory(ctx, tx, *cid)
			if err != nil {
				return err
			}
			product.CategoryID = &category.ID
			product.Category = category
		}

		patch.apply(product)
		if err := tx.Products.Save(ctx, product); err != nil {
			return uniqueViolation(err, apperror.DuplicateSku, "Product with this SKU already exists")
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err, "Product not found")
	}

	s.log.WithField("product_id", id).Info("Product updated")
	s.events.Publish("product.updated", product)
	return product, nil
}

func checkSKU(ctx context.Context, tx *repository.Store, sku string, excludeID uint) error {
	exists, err := tx.Products.ExistsBySKU(ctx, sku, excludeID)
	if err != nil {
		return internal(err)
	}
	if exists {
		return apperror.Newf(apperror.DuplicateSku, "Product with SKU '%s' already exists", sku)
	}
	return nil
}

func resolveCategory(ctx context.Context, tx *repository.Store, id uint) (*models.Category, error) {
	category, err := tx.Categories.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Newf(apperror.CategoryNotFound, "Category with id %d not found", id)
	}
	if err != nil {
		return nil, internal(err)
	}
	return category, nil
}

// Get returns the product and counts the fetch as one view. The increment is
// an in-place update; concurrent fetches never lose a view, but the returned
// count may not reflect views recorded by other requests in between.
func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	n, err := s.store.Products.IncrementViews(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	if n == 0 {
		return nil, apperror.New(apperror.NotFound, "Product not found")
	}
	metrics.RecordProductView()

	product, err := s.store.Products.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "Product not found")
	}
	return product, nil
}

// GetBySKU looks a product up by SKU without counting a view.
func (s *ProductService) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	product, err := s.store.Products.FindBySKU(ctx, sku)
	if err != nil {
		return nil, storageError(err, "Product not found")
	}
	return product, nil
}

type productPage = repository.Page[models.Product]

func pageOrInternal(page productPage, err error) (productPage, error) {
	if err != nil {
		return page, internal(err)
	}
	return page, nil
}

func (s *ProductService) List(ctx context.Context, req repository.PageRequest) (productPage, error) {
	return pageOrInternal(s.store.Products.FindAll(ctx, req))
}

func (s *ProductService) ListActive(ctx context.Context, req repository.PageRequest) (productPage, error) {
	return pageOrInternal(s.store.Products.FindActive(ctx, req))
}

func (s *ProductService) ListByCategory(ctx context.Context, categoryID uint, req repository.PageRequest) (productPage, error) {
	return pageOrInternal(s.store.Products.FindByCategory(ctx, categoryID, req))
}

func (s *ProductService) ListByBrand(ctx context.Context, brand string, req repository.PageRequest) (productPage, error) {
	return pageOrInternal(s.store.Products.FindByBrand(ctx, brand, req))
}

func (s *ProductService) ListFeatured(ctx context.Context, req repository.PageRequest) (productPage, error) {
	return pageOrInternal(s.store.Products.FindFeatured(ctx, req))
}

func (s *ProductService) ListNew(ctx context.Context, req repository.PageRequest) (productPage, error) {
	return pageOrInternal(s.store.Products.FindNew(ctx, req))
}

// Search matches keyword case-insensitively against name and description.
func (s *ProductService) Search(ctx context.Context, keyword string, req repository.PageRequest) (productPage, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return productPage{}, apperror.New(apperror.ValidationFailed, "Search keyword is required")
	}
	return pageOrInternal(s.store.Products.Search(ctx, keyword, req))
}

// ListByPriceRange returns products priced within [minPrice, maxPrice].
func (s *ProductService) ListByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal, req repository.PageRequest) (productPage, error) {
	if minPrice.IsNegative() || maxPrice.LessThan(minPrice) {
		return productPage{}, apperror.New(apperror.ValidationFailed, "Price range must satisfy 0 <= min <= max")
	}
	return pageOrInternal(s.store.Products.FindByPriceRange(ctx, minPrice, maxPrice, req))
}

func (s *ProductService) ListByMinRating(ctx context.Context, minRating float64, req repository.PageRequest) (productPage, error) {
	return pageOrInternal(s.store.Products.FindByMinRating(ctx, minRating, req))
}

func (s *ProductService) ListDiscounted(ctx context.Context, req repository.PageRequest) (productPage, error) {
	return pageOrInternal(s.store.Products.FindDiscounted(ctx, req))
}

func (s *ProductService) ListInStock(ctx context.Context, req repository.PageRequest) (productPage, error) {
	return pageOrInternal(s.store.Products.FindInStock(ctx, req))
}

// Filter applies every present criterion of f. An empty filter lists the
// same products as ListActive.
func (s *ProductService) Filter(ctx context.Context, f repository.ProductFilter, req repository.PageRequest) (productPage, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MaxPrice.LessThan(*f.MinPrice) {
		return productPage{}, apperror.New(apperror.ValidationFailed, "max_price must not be below min_price")
	}
	return pageOrInternal(s.store.Products.FindWithFilters(ctx, f, req))
}

func (s *ProductService) ListBestSelling(ctx context.Context, req repository.PageRequest) (productPage, error) {
	return pageOrInternal(s.store.Products.FindBestSelling(ctx, req))
}

func (s *ProductService) ListMostViewed(ctx context.Context, req repository.PageRequest) (productPage, error) {
	return pageOrInternal(s.store.Products.FindMostViewed(ctx, req))
}

// LowStock lists active products at or below their reorder threshold.
func (s *ProductService) LowStock(ctx context.Context) ([]models.Product, error) {
	return listOrInternal[models.Product](s.store.Products.FindLowStock(ctx))
}

func (s *ProductService) OutOfStock(ctx context.Context) ([]models.Product, error) {
	return listOrInternal[models.Product](s.store.Products.FindOutOfStock(ctx))
}

// Similar lists the other active products of the product's category. A
// product without a category has no similar products.
func (s *ProductService) Similar(ctx context.Context, id uint, req repository.PageRequest) (productPage, error) {
	product, err := s.store.Products.FindByID(ctx, id)
	if err != nil {
		return productPage{}, storageError(err, "Product not found")
	}
	if product.CategoryID == nil {
		return repository.EmptyPage[models.Product](req), nil
	}
	return pageOrInternal(s.store.Products.FindSimilar(ctx, *product.CategoryID, id, req))
}

// RecomputeRating refreshes the rating and review count from the stored reviews.
func (s *ProductService) RecomputeRating(ctx context.Context, id uint) (*models.Product, error) {
	var product *models.Product
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		product, err = refreshRating(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, storageError(err, "Product not found")
	}

	s.log.WithFields(logrus.Fields{
		"product_id":   id,
		"rating":       product.Rating,
		"review_count": product.ReviewCount,
	}).Info("Product rating recomputed")
	return product, nil
}

// refreshRating sets rating to the mean review rating (0 without reviews)
// and review count to the number of reviews.
func refreshRating(ctx context.Context, tx *repository.Store, productID uint) (*models.Product, error) {
	product, err := tx.Products.FindByID(ctx, productID)
	if err != nil {
		return nil, storageError(err, "Product not found")
	}
	avg, err := tx.Reviews.AverageRating(ctx, productID)
	if err != nil {
		return nil, internal(err)
	}
	count, err := tx.Reviews.CountByProduct(ctx, productID)
	if err != nil {
		return nil, internal(err)
	}

	product.Rating = avg
	product.ReviewCount = int(count)
	if _, err := tx.Products.UpdateRating(ctx, productID, product.Rating, product.ReviewCount); err != nil {
		return nil, internal(err)
	}
	return product, nil
}

// AdjustStock records the sale of quantity units: stock goes down and the
// sold count goes up by the same amount in one conditional update. Selling
// more than is in stock fails with InsufficientStock and changes nothing.
func (s *ProductService) AdjustStock(ctx context.Context, id uint, quantity int) (*models.Product, error) {
	if quantity <= 0 {
		return nil, apperror.New(apperror.ValidationFailed, "Quantity must be greater than 0")
	}

	var product *models.Product
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		n, err := tx.Products.DeductStock(ctx, id, quantity)
		if err != nil {
			return internal(err)
		}
		if n == 0 {
			exists, err := tx.Products.ExistsByID(ctx, id)
			if err != nil {
				return internal(err)
			}
			if !exists {
				return apperror.New(apperror.NotFound, "Product not found")
			}
			return apperror.Newf(apperror.InsufficientStock, "Insufficient stock for product %d", id)
		}
		product, err = tx.Products.FindByID(ctx, id)
		return err
	})
	if err != nil {
		if apperror.Is(err, apperror.InsufficientStock) {
			metrics.RecordStockAdjustment("rejected")
		}
		return nil, storageError(err, "Product not found")
	}

	metrics.RecordStockAdjustment("applied")
	s.log.WithFields(logrus.Fields{"product_id": id, "quantity": quantity}).Info("Stock adjusted")
	s.events.Publish("product.stock_adjusted", map[string]any{
		"id":             id,
		"quantity":       quantity,
		"stock_quantity": product.StockQuantity,
		"sold_count":     product.SoldCount,
	})
	return product, nil
}

// Delete removes the product with its images and reviews.
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		exists, err := tx.Products.ExistsByID(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return apperror.New(apperror.NotFound, "Product not found")
		}
		if err := tx.Images.DeleteByProduct(ctx, id); err != nil {
			return err
		}
		if err := tx.Reviews.DeleteByProduct(ctx, id); err != nil {
			return err
		}
		_, err = tx.Products.Delete(ctx, id)
		return err
	})
	if err != nil {
		return storageError(err, "Product not found")
	}

	s.log.WithField("product_id", id).Info("Product deleted")
	s.events.Publish("product.deleted", map[string]any{"id": id})
	return nil
}
