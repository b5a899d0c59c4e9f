package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mirrors the sign-up, catalog and review flow a storefront client runs.
func TestStorefrontFlow(t *testing.T) {
	f := newFixture(t)

	alice, err := f.auth.SignUp(f.ctx, NewUser{Username: "alice", Email: "a@x.io", Password: "pass1234"})
	require.NoError(t, err)
	res, err := f.auth.SignIn(f.ctx, SignInRequest{Username: "alice", Password: "pass1234"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_USER"}, res.Roles)

	actor, err := f.auth.ResolvePrincipal(f.ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, actor.UserID)

	phones := f.category(t, "Phones")
	p := f.product(t, ProductInput{Name: "Pixel", CategoryID: &phones.ID, StockQuantity: 10})

	_, err = f.reviews.Create(f.ctx, actor, p.ID, ReviewInput{Rating: 4, Comment: "Solid"})
	require.NoError(t, err)

	got, err := f.products.Get(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Rating)
	assert.Equal(t, 1, got.ReviewCount)
	assert.Equal(t, 1, got.ViewCount)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Phones", got.Category.Name)
}
