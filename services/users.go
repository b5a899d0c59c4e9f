package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"ustore/apperror"
	"ustore/models"
	"ustore/repository"
)

// NewUser is the payload for registering an account. Roles is accepted for
// compatibility with older clients and ignored: accounts always start with
// the default role only.
type NewUser struct {
	Username     string   `json:"username" validate:"required,min=3,max=50"`
	Email        string   `json:"email" validate:"required,email,max=100"`
	Password     string   `json:"password" validate:"required,min=4,max=72"`
	FullName     string   `json:"full_name" validate:"max=100"`
	Phone        string   `json:"phone" validate:"max=20"`
	Address      string   `json:"address" validate:"max=255"`
	City         string   `json:"city" validate:"max=100"`
	Country      string   `json:"country" validate:"max=100"`
	PostalCode   string   `json:"postal_code" validate:"max=20"`
	ProfileImage string   `json:"profile_image" validate:"max=255"`
	Roles        []string `json:"roles"`
}

// UserPatch holds profile fields to overwrite. Nil fields are left unchanged.
type UserPatch struct {
	FullName     *string `json:"full_name" validate:"omitempty,max=100"`
	Phone        *string `json:"phone" validate:"omitempty,max=20"`
	Address      *string `json:"address" validate:"omitempty,max=255"`
	City         *string `json:"city" validate:"omitempty,max=100"`
	Country      *string `json:"country" validate:"omitempty,max=100"`
	PostalCode   *string `json:"postal_code" validate:"omitempty,max=20"`
	ProfileImage *string `json:"profile_image" validate:"omitempty,max=255"`
}

func (p UserPatch) apply(u *models.User) {
	set(&u.FullName, p.FullName)
	set(&u.Phone, p.Phone)
	set(&u.Address, p.Address)
	set(&u.City, p.City)
	set(&u.Country, p.Country)
	set(&u.PostalCode, p.PostalCode)
	set(&u.ProfileImage, p.ProfileImage)
}

type PasswordChange struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=4,max=72"`
}

type UserService struct {
	store  *repository.Store
	hasher PasswordHasher
	log    logrus.FieldLogger
}

func NewUserService(store *repository.Store, hasher PasswordHasher, log logrus.FieldLogger) *UserService {
	return &UserService{store: store, hasher: hasher, log: log}
}

// Create registers a new active, unverified account holding only ROLE_USER.
func (s *UserService) Create(ctx context.Context, in NewUser) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if len(in.Roles) > 0 {
		s.log.WithField("username", in.Username).Debug("Ignoring requested roles on registration")
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "Failed to create user", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		Password:     hashed,
		FullName:     in.FullName,
		Phone:        in.Phone,
		Address:      in.Address,
		City:         in.City,
		Country:      in.Country,
		PostalCode:   in.PostalCode,
		ProfileImage: in.ProfileImage,
		IsActive:     true,
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		exists, err := tx.Users.ExistsByUsername(ctx, user.Username)
		if err != nil {
			return internal(err)
		}
		if exists {
			return apperror.New(apperror.DuplicateUsername, "Username is already taken")
		}
		exists, err = tx.Users.ExistsByEmail(ctx, user.Email)
		if err != nil {
			return internal(err)
		}
		if exists {
			return apperror.New(apperror.DuplicateEmail, "Email is already in use")
		}

		role, err := tx.Roles.FindByName(ctx, models.RoleUser)
		if err != nil {
			return storageError(err, "Default role is not initialized")
		}
		user.Roles = []models.Role{*role}

		if err := tx.Users.Create(ctx, user); err != nil {
			return uniqueViolation(err, apperror.DuplicateUsername, "Username or email is already in use")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("User registered")
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.store.Users.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "User not found")
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, req repository.PageRequest) (repository.Page[models.User], error) {
	page, err := s.store.Users.FindAll(ctx, req)
	if err != nil {
		return page, internal(err)
	}
	return page, nil
}

func (s *UserService) ListActive(ctx context.Context) ([]models.User, error) {
	users, err := s.store.Users.FindActive(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return users, nil
}

// Update merges the present profile fields of patch into the user.
func (s *UserService) Update(ctx context.Context, id uint, patch UserPatch) (*models.User, error) {
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		user, err = tx.Users.FindByID(ctx, id)
		if err != nil {
			return storageError(err, "User not found")
		}
		patch.apply(user)
		return tx.Users.Save(ctx, user)
	})
	if err != nil {
		return nil, storageError(err, "User not found")
	}

	s.log.WithField("user_id", id).Info("User profile updated")
	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, id uint, in PasswordChange) error {
	if err := validateStruct(in); err != nil {
		return err
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		user, err := tx.Users.FindByID(ctx, id)
		if err != nil {
			return storageError(err, "User not found")
		}
		ok, err := s.hasher.Matches(user.Password, in.OldPassword)
		if err != nil {
			return apperror.Wrap(apperror.Internal, "Failed to verify password", err)
		}
		if !ok {
			return apperror.New(apperror.InvalidOldPassword, "Old password is incorrect")
		}
		hashed, err := s.hasher.Hash(in.NewPassword)
		if err != nil {
			return apperror.Wrap(apperror.Internal, "Failed to change password", err)
		}
		user.Password = hashed
		return tx.Users.Save(ctx, user)
	})
	if err != nil {
		return storageError(err, "User not found")
	}

	s.log.WithField("user_id", id).Info("Password changed")
	return nil
}

func (s *UserService) Activate(ctx context.Context, id uint) error {
	return s.setFlag(ctx, id, "is_active", true)
}

func (s *UserService) Deactivate(ctx context.Context, id uint) error {
	return s.setFlag(ctx, id, "is_active", false)
}

func (s *UserService) Verify(ctx context.Context, id uint) error {
	return s.setFlag(ctx, id, "is_verified", true)
}

func (s *UserService) setFlag(ctx context.Context, id uint, column string, value bool) error {
	exists, err := s.store.Users.ExistsByID(ctx, id)
	if err != nil {
		return internal(err)
	}
	if !exists {
		return apperror.New(apperror.NotFound, "User not found")
	}
	if _, err := s.store.Users.SetFlag(ctx, id, column, value); err != nil {
		return internal(err)
	}
	s.log.WithFields(logrus.Fields{"user_id": id, column: value}).Info("User flag updated")
	return nil
}

// Delete removes the user together with its reviews, and refreshes the
// rating of every product the user had reviewed.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		exists, err := tx.Users.ExistsByID(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return apperror.New(apperror.NotFound, "User not found")
		}

		productIDs, err := tx.Reviews.ProductIDsByUser(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Reviews.DeleteByUser(ctx, id); err != nil {
			return err
		}
		for _, pid := range productIDs {
			if _, err := refreshRating(ctx, tx, pid); err != nil {
				return err
			}
		}
		return tx.Users.Delete(ctx, id)
	})
	if err != nil {
		return storageError(err, "User not found")
	}

	s.log.WithField("user_id", id).Info("User deleted")
	return nil
}
