package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"ustore/apperror"
	"ustore/models"
	"ustore/repository"
)

type ReviewInput struct {
	Rating             int    `json:"rating" validate:"required,min=1,max=5"`
	Comment            string `json:"comment" validate:"max=2000"`
	IsVerifiedPurchase bool   `json:"is_verified_purchase"`
}

type ReviewPatch struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

func (p ReviewPatch) apply(r *models.ProductReview) {
	set(&r.Rating, p.Rating)
	set(&r.Comment, p.Comment)
}

// RatingDistribution counts a product's reviews per star value.
type RatingDistribution struct {
	ProductID uint          `json:"product_id"`
	Counts    map[int]int64 `json:"counts"`
	Total     int64         `json:"total"`
}

// ReviewService enforces one review per user and product, and keeps the
// product's rating and review count in step with every review write.
type ReviewService struct {
	store *repository.Store
	log   logrus.FieldLogger
}

func NewReviewService(store *repository.Store, log logrus.FieldLogger) *ReviewService {
	return &ReviewService{store: store, log: log}
}

func (s *ReviewService) Create(ctx context.Context, actor *Principal, productID uint, in ReviewInput) (*models.ProductReview, error) {
	actor, err := RequirePrincipal(actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	review := &models.ProductReview{
		Rating:             in.Rating,
		Comment:            in.Comment,
		IsVerifiedPurchase: in.IsVerifiedPurchase,
		ProductID:          productID,
		UserID:             actor.UserID,
	}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := productExists(ctx, tx, productID); err != nil {
			return err
		}
		exists, err := tx.Reviews.ExistsByUserAndProduct(ctx, actor.UserID, productID)
		if err != nil {
			return internal(err)
		}
		if exists {
			return apperror.New(apperror.DuplicateReview, "You have already reviewed this product")
		}
		if err := tx.Reviews.Create(ctx, review); err != nil {
			return uniqueViolation(err, apperror.DuplicateReview, "You have already reviewed this product")
		}
		_, err = refreshRating(ctx, tx, productID)
		return err
	})
	if err != nil {
		return nil, storageError(err, "Product not found")
	}

	s.log.WithFields(logrus.Fields{"review_id": review.ID, "product_id": productID, "user_id": actor.UserID}).Info("Review created")
	return review, nil
}

// Update lets the author change the rating or comment of a review.
func (s *ReviewService) Update(ctx context.Context, actor *Principal, id uint, patch ReviewPatch) (*models.ProductReview, error) {
	actor, err := RequirePrincipal(actor)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	var review *models.ProductReview
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		review, err = tx.Reviews.FindByID(ctx, id)
		if err != nil {
			return storageError(err, "Review not found")
		}
		if review.UserID != actor.UserID {
			return apperror.New(apperror.Forbidden, "Only the author can edit a review")
		}
		patch.apply(review)
		if err := tx.Reviews.Save(ctx, review); err != nil {
			return err
		}
		_, err = refreshRating(ctx, tx, review.ProductID)
		return err
	})
	if err != nil {
		return nil, storageError(err, "Review not found")
	}

	s.log.WithField("review_id", id).Info("Review updated")
	return review, nil
}

// Delete removes a review. Staff may delete any review, others only their own.
func (s *ReviewService) Delete(ctx context.Context, actor *Principal, id uint) error {
	actor, err := RequirePrincipal(actor)
	if err != nil {
		return err
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		review, err := tx.Reviews.FindByID(ctx, id)
		if err != nil {
			return storageError(err, "Review not found")
		}
		if review.UserID != actor.UserID && !actor.IsStaff() {
			return apperror.New(apperror.Forbidden, "Only the author can delete a review")
		}
		if _, err := tx.Reviews.Delete(ctx, id); err != nil {
			return err
		}
		_, err = refreshRating(ctx, tx, review.ProductID)
		return err
	})
	if err != nil {
		return storageError(err, "Review not found")
	}

	s.log.WithFields(logrus.Fields{"review_id": id, "user_id": actor.UserID}).Info("Review deleted")
	return nil
}

func (s *ReviewService) Get(ctx context.Context, id uint) (*models.ProductReview, error) {
	review, err := s.store.Reviews.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "Review not found")
	}
	return review, nil
}

func (s *ReviewService) ListByProduct(ctx context.Context, productID uint, f repository.ReviewFilter, req repository.PageRequest) (repository.Page[models.ProductReview], error) {
	if f.Rating != nil && (*f.Rating < 1 || *f.Rating > 5) {
		return repository.Page[models.ProductReview]{}, apperror.New(apperror.ValidationFailed, "rating must be between 1 and 5")
	}
	if err := productExists(ctx, s.store, productID); err != nil {
		return repository.Page[models.ProductReview]{}, err
	}
	page, err := s.store.Reviews.FindByProduct(ctx, productID, f, req)
	if err != nil {
		return page, internal(err)
	}
	return page, nil
}

func (s *ReviewService) ListByUser(ctx context.Context, userID uint, req repository.PageRequest) (repository.Page[models.ProductReview], error) {
	page, err := s.store.Reviews.FindByUser(ctx, userID, req)
	if err != nil {
		return page, internal(err)
	}
	return page, nil
}

// Vote records a helpful or not-helpful vote on a review.
func (s *ReviewService) Vote(ctx context.Context, id uint, helpful bool) (*models.ProductReview, error) {
	n, err := s.store.Reviews.AddVote(ctx, id, helpful)
	if err != nil {
		return nil, internal(err)
	}
	if n == 0 {
		return nil, apperror.New(apperror.NotFound, "Review not found")
	}
	return s.Get(ctx, id)
}

// Distribution returns the review count for each rating from 1 to 5.
func (s *ReviewService) Distribution(ctx context.Context, productID uint) (*RatingDistribution, error) {
	if err := productExists(ctx, s.store, productID); err != nil {
		return nil, err
	}
	counts, err := s.store.Reviews.CountByRating(ctx, productID)
	if err != nil {
		return nil, internal(err)
	}

	dist := &RatingDistribution{ProductID: productID, Counts: make(map[int]int64, 5)}
	for star := 1; star <= 5; star++ {
		dist.Counts[star] = counts[star]
		dist.Total += counts[star]
	}
	return dist, nil
}
