package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ustore/logging"
	"ustore/models"
	"ustore/repository"
	"ustore/testutil"
)

type fixture struct {
	ctx        context.Context
	store      *repository.Store
	events     *recorder
	hasher     PasswordHasher
	tokens     *TokenIssuer
	users      *UserService
	auth       *AuthService
	categories *CategoryService
	products   *ProductService
	images     *ImageService
	reviews    *ReviewService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logging.Discard()
	store := repository.NewStore(testutil.NewDB(t))
	ctx := context.Background()
	_, err := SeedRoles(ctx, store, log)
	require.NoError(t, err)

	f := &fixture{
		ctx:    ctx,
		store:  store,
		events: &recorder{},
		hasher: PasswordHasher{Cost: bcrypt.MinCost},
		tokens: NewTokenIssuer("test-secret", time.Hour),
	}
	f.users = NewUserService(store, f.hasher, log)
	f.auth = NewAuthService(store, f.users, f.tokens, f.hasher, log)
	f.categories = NewCategoryService(store, f.events, log)
	f.products = NewProductService(store, f.events, log)
	f.images = NewImageService(store, log)
	f.reviews = NewReviewService(store, log)
	return f
}

func (f *fixture) user(t *testing.T, username string) *Principal {
	t.Helper()
	u, err := f.users.Create(f.ctx, NewUser{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	return principalOf(u)
}

func (f *fixture) category(t *testing.T, name string) *models.Category {
	t.Helper()
	c, err := f.categories.Create(f.ctx, CategoryInput{Name: name})
	require.NoError(t, err)
	return c
}

func (f *fixture) product(t *testing.T, in ProductInput) *models.Product {
	t.Helper()
	if in.Name == "" {
		in.Name = "Widget"
	}
	if in.Brand == "" {
		in.Brand = "Acme"
	}
	if in.Price.IsZero() {
		in.Price = decimal.NewFromInt(10)
	}
	p, err := f.products.Create(f.ctx, in)
	require.NoError(t, err)
	return p
}

func ptr[T any](v T) *T { return &v }

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Publish(event string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}
