package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ustore/models"
)

type ReviewRepository struct {
	db *gorm.DB
}

// ReviewOrder selects how a product's reviews are ranked.
type ReviewOrder string

const (
	ReviewsRecent  ReviewOrder = "recent"
	ReviewsHelpful ReviewOrder = "helpful"
)

// ReviewFilter narrows a product's reviews. Nil fields impose no constraint.
type ReviewFilter struct {
	Rating       *int
	VerifiedOnly bool
	Order        ReviewOrder
}

func (r *ReviewRepository) FindByID(ctx context.Context, id uint) (*models.ProductReview, error) {
	var review models.ProductReview
	if err := r.db.WithContext(ctx).First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepository) ExistsByUserAndProduct(ctx context.Context, userID, productID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ProductReview{}).
		Where("user_id = ? AND product_id = ?", userID, productID).Count(&n).Error
	return n > 0, err
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.ProductReview) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *ReviewRepository) Save(ctx context.Context, review *models.ProductReview) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *ReviewRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.ProductReview{}, id)
	return res.RowsAffected, res.Error
}

func (r *ReviewRepository) DeleteByProduct(ctx context.Context, productID uint) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.ProductReview{}).Error
}

func (r *ReviewRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.ProductReview{}).Error
}

// ProductIDsByUser lists the products the user has reviewed.
func (r *ReviewRepository) ProductIDsByUser(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.ProductReview{}).
		Where("user_id = ?", userID).Distinct().Pluck("product_id", &ids).Error
	return ids, err
}

// AverageRating returns the mean rating of the product's reviews, or 0 when
// it has none.
func (r *ReviewRepository) AverageRating(ctx context.Context, productID uint) (float64, error) {
	var avg sql.NullFloat64
	row := r.db.WithContext(ctx).Model(&models.ProductReview{}).
		Select("AVG(rating)").Where("product_id = ?", productID).Row()
	if err := row.Scan(&avg); err != nil {
		return 0, err
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

func (r *ReviewRepository) CountByProduct(ctx context.Context, productID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ProductReview{}).Where("product_id = ?", productID).Count(&n).Error
	return n, err
}

// CountByRating returns the number of reviews per rating value that occurs.
func (r *ReviewRepository) CountByRating(ctx context.Context, productID uint) (map[int]int64, error) {
	var rows []struct {
		Rating int
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&models.ProductReview{}).
		Select("rating, COUNT(*) AS total").Where("product_id = ?", productID).
		Group("rating").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.Rating] = row.Total
	}
	return counts, nil
}

// AddVote increments the helpful or not-helpful counter in place.
func (r *ReviewRepository) AddVote(ctx context.Context, id uint, helpful bool) (int64, error) {
	column := "not_helpful_count"
	if helpful {
		column = "helpful_count"
	}
	res := r.db.WithContext(ctx).Model(&models.ProductReview{}).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	return res.RowsAffected, res.Error
}

func (r *ReviewRepository) FindByProduct(ctx context.Context, productID uint, f ReviewFilter, req PageRequest) (Page[models.ProductReview], error) {
	order := orderBy("created_at", true)
	if f.Order == ReviewsHelpful {
		order = orderBy("helpful_count - not_helpful_count", true)
		order.Column.Raw = true
	}
	return findPage[models.ProductReview](ctx, r.db, req, nil, pageQuery{
		scope: func(tx *gorm.DB) *gorm.DB {
			tx = tx.Where("product_id = ?", productID)
			if f.Rating != nil {
				tx = tx.Where("rating = ?", *f.Rating)
			}
			if f.VerifiedOnly {
				tx = tx.Where("is_verified_purchase = ?", true)
			}
			return tx
		},
		fixed: []clause.OrderByColumn{order, orderBy("id", true)},
	})
}

func (r *ReviewRepository) FindByUser(ctx context.Context, userID uint, req PageRequest) (Page[models.ProductReview], error) {
	return findPage[models.ProductReview](ctx, r.db, req, nil, pageQuery{
		scope: func(tx *gorm.DB) *gorm.DB { return tx.Where("user_id = ?", userID) },
		fixed: []clause.OrderByColumn{orderBy("created_at", true), orderBy("id", true)},
	})
}
