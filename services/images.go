package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ustore/apperror"
	"ustore/models"
	"ustore/repository"
)

type ImageInput struct {
	ImageURL  string `json:"image_url" validate:"required,max=500"`
	AltText   string `json:"alt_text" validate:"max=255"`
	IsPrimary bool   `json:"is_primary"`
	SortOrder int    `json:"sort_order"`
}

type ImagePatch struct {
	ImageURL  *string `json:"image_url" validate:"omitempty,min=1,max=500"`
	AltText   *string `json:"alt_text" validate:"omitempty,max=255"`
	IsPrimary *bool   `json:"is_primary"`
	SortOrder *int    `json:"sort_order"`
}

func (p ImagePatch) apply(img *models.ProductImage) {
	set(&img.ImageURL, p.ImageURL)
	set(&img.AltText, p.AltText)
	set(&img.IsPrimary, p.IsPrimary)
	set(&img.SortOrder, p.SortOrder)
}

// ImageService manages the images owned by a product. A product has at most
// one primary image: promoting an image demotes the previous one.
type ImageService struct {
	store *repository.Store
	log   logrus.FieldLogger
}

func NewImageService(store *repository.Store, log logrus.FieldLogger) *ImageService {
	return &ImageService{store: store, log: log}
}

func (s *ImageService) List(ctx context.Context, productID uint) ([]models.ProductImage, error) {
	if err := productExists(ctx, s.store, productID); err != nil {
		return nil, err
	}
	images, err := s.store.Images.ListByProduct(ctx, productID)
	if err != nil {
		return nil, internal(err)
	}
	return images, nil
}

// Add attaches an image to the product. The first image of a product becomes
// primary regardless of the request.
func (s *ImageService) Add(ctx context.Context, productID uint, in ImageInput) (*models.ProductImage, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	image := &models.ProductImage{
		ImageURL:  in.ImageURL,
		AltText:   in.AltText,
		IsPrimary: in.IsPrimary,
		SortOrder: in.SortOrder,
		ProductID: productID,
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := productExists(ctx, tx, productID); err != nil {
			return err
		}
		n, err := tx.Images.CountByProduct(ctx, productID)
		if err != nil {
			return err
		}
		if n == 0 {
			image.IsPrimary = true
		}
		if err := tx.Images.Create(ctx, image); err != nil {
			return err
		}
		if image.IsPrimary {
			return tx.Images.ClearPrimary(ctx, productID, image.ID)
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err, "Product not found")
	}

	s.log.WithFields(logrus.Fields{"product_id": productID, "image_id": image.ID}).Info("Product image added")
	return image, nil
}

func (s *ImageService) Update(ctx context.Context, id uint, patch ImagePatch) (*models.ProductImage, error) {
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	var image *models.ProductImage
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		image, err = tx.Images.FindByID(ctx, id)
		if err != nil {
			return err
		}
		patch.apply(image)
		if err := tx.Images.Save(ctx, image); err != nil {
			return err
		}
		if image.IsPrimary {
			return tx.Images.ClearPrimary(ctx, image.ProductID, image.ID)
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err, "Image not found")
	}

	s.log.WithField("image_id", id).Info("Product image updated")
	return image, nil
}

func (s *ImageService) Delete(ctx context.Context, id uint) error {
	n, err := s.store.Images.Delete(ctx, id)
	if err != nil {
		return internal(err)
	}
	if n == 0 {
		return apperror.New(apperror.NotFound, "Image not found")
	}
	s.log.WithField("image_id", id).Info("Product image deleted")
	return nil
}

// Primary returns the primary image of the product, falling back to its
// first image by sort order.
func (s *ImageService) Primary(ctx context.Context, productID uint) (*models.ProductImage, error) {
	if err := productExists(ctx, s.store, productID); err != nil {
		return nil, err
	}
	image, err := s.store.Images.FindPrimary(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		image, err = s.store.Images.FindFirst(ctx, productID)
	}
	if err != nil {
		return nil, storageError(err, "Product has no images")
	}
	return image, nil
}

func productExists(ctx context.Context, store *repository.Store, id uint) error {
	exists, err := store.Products.ExistsByID(ctx, id)
	if err != nil {
		return internal(err)
	}
	if !exists {
		return apperror.New(apperror.NotFound, "Product not found")
	}
	return nil
}
