package repository

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ustore/models"
)

type ProductRepository struct {
	db *gorm.DB
}

// ProductFilter is the multi-criteria listing filter. A nil field imposes no
// constraint; present fields are combined with AND. Only active products match.
type ProductFilter struct {
	CategoryID *uint
	Brand      *string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	MinRating  *float64
	InStock    *bool
}

var productSorts = sortColumns{
	"id":                  "id",
	"name":                "name",
	"brand":               "brand",
	"price":               "price",
	"rating":              "rating",
	"discount_percentage": "discount_percentage",
	"stock_quantity":      "stock_quantity",
	"sold_count":          "sold_count",
	"view_count":          "view_count",
	"created_at":          "created_at",
	"updated_at":          "updated_at",
}

func active(tx *gorm.DB) *gorm.DB {
	return tx.Where("is_active = ?", true)
}

func (f ProductFilter) scope(tx *gorm.DB) *gorm.DB {
	tx = active(tx)
	if f.CategoryID != nil {
		tx = tx.Where("category_id = ?", *f.CategoryID)
	}
	if f.Brand != nil {
		tx = tx.Where("brand = ?", *f.Brand)
	}
	if f.MinPrice != nil {
		tx = tx.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		tx = tx.Where("price <= ?", *f.MaxPrice)
	}
	if f.MinRating != nil {
		tx = tx.Where("rating >= ?", *f.MinRating)
	}
	if f.InStock != nil {
		if *f.InStock {
			tx = tx.Where("stock_quantity > 0")
		} else {
			tx = tx.Where("stock_quantity = 0")
		}
	}
	return tx
}

func (r *ProductRepository) page(ctx context.Context, req PageRequest, scope func(*gorm.DB) *gorm.DB,
	fixed ...clause.OrderByColumn) (Page[models.Product], error) {
	return findPage[models.Product](ctx, r.db, req, productSorts, pageQuery{
		scope:    scope,
		preloads: []string{"Category"},
		fixed:    fixed,
	})
}

func (r *ProductRepository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Category").Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// ExistsBySKU reports whether a product other than excludeID carries sku.
func (r *ProductRepository) ExistsBySKU(ctx context.Context, sku string, excludeID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("sku = ? AND id <> ?", sku, excludeID).Count(&n).Error
	return n > 0, err
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
}

// Save writes every column of the product without touching associations.
func (r *ProductRepository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	return res.RowsAffected, res.Error
}

// IncrementViews bumps view_count in place without touching updated_at.
func (r *ProductRepository) IncrementViews(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	return res.RowsAffected, res.Error
}

// DeductStock moves quantity units from stock to sold in one conditional
// update. It affects no rows when the product is missing or has fewer than
// quantity units left.
func (r *ProductRepository) DeductStock(ctx context.Context, id uint, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, quantity).
		Updates(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity - ?", quantity),
			"sold_count":     gorm.Expr("sold_count + ?", quantity),
		})
	return res.RowsAffected, res.Error
}

func (r *ProductRepository) UpdateRating(ctx context.Context, id uint, rating float64, reviewCount int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{"rating": rating, "review_count": reviewCount})
	return res.RowsAffected, res.Error
}

// DetachCategory clears the category of every product that references it.
func (r *ProductRepository) DetachCategory(ctx context.Context, categoryID uint) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("category_id = ?", categoryID).Update("category_id", nil).Error
}

func (r *ProductRepository) CountActiveInCategory(ctx context.Context, categoryID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(active).
		Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}

func (r *ProductRepository) FindAll(ctx context.Context, req PageRequest) (Page[models.Product], error) {
	return r.page(ctx, req, nil)
}

func (r *ProductRepository) FindActive(ctx context.Context, req PageRequest) (Page[models.Product], error) {
	return r.page(ctx, req, active)
}

func (r *ProductRepository) FindByCategory(ctx context.Context, categoryID uint, req PageRequest) (Page[models.Product], error) {
	return r.FindWithFilters(ctx, ProductFilter{CategoryID: &categoryID}, req)
}

func (r *ProductRepository) FindByBrand(ctx context.Context, brand string, req PageRequest) (Page[models.Product], error) {
	return r.FindWithFilters(ctx, ProductFilter{Brand: &brand}, req)
}

func (r *ProductRepository) FindFeatured(ctx context.Context, req PageRequest) (Page[models.Product], error) {
	return r.page(ctx, req, func(tx *gorm.DB) *gorm.DB {
		return active(tx).Where("is_featured = ?", true)
	})
}

func (r *ProductRepository) FindNew(ctx context.Context, req PageRequest) (Page[models.Product], error) {
	return r.page(ctx, req, func(tx *gorm.DB) *gorm.DB {
		return active(tx).Where("is_new = ?", true)
	})
}

// Search matches keyword as a case-insensitive substring of name or description.
func (r *ProductRepository) Search(ctx context.Context, keyword string, req PageRequest) (Page[models.Product], error) {
	pattern := "%" + escapeLike(strings.ToLower(keyword)) + "%"
	return r.page(ctx, req, func(tx *gorm.DB) *gorm.DB {
		return active(tx).Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", pattern, pattern)
	})
}

func (r *ProductRepository) FindByPriceRange(ctx context.Context, min, max decimal.Decimal, req PageRequest) (Page[models.Product], error) {
	return r.FindWithFilters(ctx, ProductFilter{MinPrice: &min, MaxPrice: &max}, req)
}

func (r *ProductRepository) FindByMinRating(ctx context.Context, minRating float64, req PageRequest) (Page[models.Product], error) {
	return r.FindWithFilters(ctx, ProductFilter{MinRating: &minRating}, req)
}

func (r *ProductRepository) FindDiscounted(ctx context.Context, req PageRequest) (Page[models.Product], error) {
	return r.page(ctx, req, func(tx *gorm.DB) *gorm.DB {
		return active(tx).Where("discount_percentage > 0")
	})
}

func (r *ProductRepository) FindInStock(ctx context.Context, req PageRequest) (Page[models.Product], error) {
	inStock := true
	return r.FindWithFilters(ctx, ProductFilter{InStock: &inStock}, req)
}

func (r *ProductRepository) FindWithFilters(ctx context.Context, f ProductFilter, req PageRequest) (Page[models.Product], error) {
	return r.page(ctx, req, f.scope)
}

// FindSimilar lists active products in categoryID other than excludeID.
func (r *ProductRepository) FindSimilar(ctx context.Context, categoryID, excludeID uint, req PageRequest) (Page[models.Product], error) {
	return r.page(ctx, req, func(tx *gorm.DB) *gorm.DB {
		return active(tx).Where("category_id = ? AND id <> ?", categoryID, excludeID)
	})
}

func (r *ProductRepository) FindBestSelling(ctx context.Context, req PageRequest) (Page[models.Product], error) {
	return r.page(ctx, req, active, orderBy("sold_count", true))
}

func (r *ProductRepository) FindMostViewed(ctx context.Context, req PageRequest) (Page[models.Product], error) {
	return r.page(ctx, req, active, orderBy("view_count", true))
}

func (r *ProductRepository) FindLowStock(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := r.db.WithContext(ctx).Preload("Category").Scopes(active).
		Where("stock_quantity > 0 AND stock_quantity <= min_stock_level").
		Order("id").Find(&products).Error
	return products, err
}

func (r *ProductRepository) FindOutOfStock(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := r.db.WithContext(ctx).Preload("Category").Scopes(active).
		Where("stock_quantity = 0").Order("id").Find(&products).Error
	return products, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
