package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"ustore/models"
	"ustore/repository"
)

// SeedRoles creates the fixed role set when the role table is empty. It is
// safe to call on every start; a populated table is left untouched.
func SeedRoles(ctx context.Context, store *repository.Store, log logrus.FieldLogger) (int, error) {
	created := 0
	err := store.Transaction(ctx, func(tx *repository.Store) error {
		n, err := tx.Roles.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for _, r := range models.DefaultRoles {
			role := r
			if err := tx.Roles.Create(ctx, &role); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, internal(err)
	}

	if created > 0 {
		log.WithField("count", created).Info("Default roles initialized")
	} else {
		log.Debug("Roles already present, skipping seed")
	}
	return created, nil
}
