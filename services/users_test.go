package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ustore/apperror"
	"ustore/logging"
	"ustore/models"
	"ustore/repository"
)

func TestSeedRolesIsIdempotent(t *testing.T) {
	f := newFixture(t)

	created, err := SeedRoles(f.ctx, f.store, logging.Discard())
	require.NoError(t, err)
	assert.Zero(t, created)

	roles, err := f.store.Roles.FindAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, models.RoleUser, roles[0].Name)
	assert.Equal(t, models.RoleAdmin, roles[1].Name)
	assert.Equal(t, models.RoleModerator, roles[2].Name)
}

func TestCreateUserAssignsDefaultRoleOnly(t *testing.T) {
	f := newFixture(t)

	u, err := f.users.Create(f.ctx, NewUser{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "secret",
		Roles:    []string{"ROLE_ADMIN"},
	})
	require.NoError(t, err)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsVerified)
	assert.Equal(t, []string{"ROLE_USER"}, u.RoleNames())
	assert.NotEqual(t, "secret", u.Password)

	stored, err := f.users.Get(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_USER"}, stored.RoleNames())
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	f.user(t, "bob")

	_, err := f.users.Create(f.ctx, NewUser{Username: "bob", Email: "other@example.com", Password: "secret"})
	assert.True(t, apperror.Is(err, apperror.DuplicateUsername))

	_, err = f.users.Create(f.ctx, NewUser{Username: "robert", Email: "bob@example.com", Password: "secret"})
	assert.True(t, apperror.Is(err, apperror.DuplicateEmail))
}

func TestCreateUserValidatesInput(t *testing.T) {
	f := newFixture(t)

	cases := map[string]NewUser{
		"short username": {Username: "ab", Email: "ab@example.com", Password: "secret"},
		"bad email":      {Username: "carol", Email: "not-an-email", Password: "secret"},
		"short password": {Username: "carol", Email: "carol@example.com", Password: "abc"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.users.Create(f.ctx, in)
			assert.True(t, apperror.Is(err, apperror.ValidationFailed), "got %v", err)
		})
	}
}

func TestUpdateUserMergesPresentFieldsOnly(t *testing.T) {
	f := newFixture(t)
	p := f.user(t, "bob")

	_, err := f.users.Update(f.ctx, p.UserID, UserPatch{FullName: ptr("Bob Smith"), City: ptr("Tashkent")})
	require.NoError(t, err)

	u, err := f.users.Update(f.ctx, p.UserID, UserPatch{Phone: ptr("+998")})
	require.NoError(t, err)
	assert.Equal(t, "Bob Smith", u.FullName)
	assert.Equal(t, "Tashkent", u.City)
	assert.Equal(t, "+998", u.Phone)
	assert.Equal(t, "bob@example.com", u.Email)

	_, err = f.users.Update(f.ctx, 999, UserPatch{Phone: ptr("1")})
	assert.True(t, apperror.Is(err, apperror.NotFound))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	p := f.user(t, "bob")

	err := f.users.ChangePassword(f.ctx, p.UserID, PasswordChange{OldPassword: "wrong", NewPassword: "newpass"})
	assert.True(t, apperror.Is(err, apperror.InvalidOldPassword))

	require.NoError(t, f.users.ChangePassword(f.ctx, p.UserID, PasswordChange{OldPassword: "secret", NewPassword: "newpass"}))

	_, err = f.auth.SignIn(f.ctx, SignInRequest{Username: "bob", Password: "secret"})
	assert.True(t, apperror.Is(err, apperror.InvalidCredentials))
	_, err = f.auth.SignIn(f.ctx, SignInRequest{Username: "bob", Password: "newpass"})
	assert.NoError(t, err)
}

func TestUserFlags(t *testing.T) {
	f := newFixture(t)
	p := f.user(t, "bob")

	require.NoError(t, f.users.Verify(f.ctx, p.UserID))
	require.NoError(t, f.users.Deactivate(f.ctx, p.UserID))

	u, err := f.users.Get(f.ctx, p.UserID)
	require.NoError(t, err)
	assert.True(t, u.IsVerified)
	assert.False(t, u.IsActive)

	active, err := f.users.ListActive(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, f.users.Activate(f.ctx, p.UserID))
	active, err = f.users.ListActive(f.ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	assert.True(t, apperror.Is(f.users.Verify(f.ctx, 42), apperror.NotFound))
}

func TestListUsersPaged(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"anna", "bella", "carla"} {
		f.user(t, name)
	}

	page, err := f.users.List(f.ctx, repository.PageRequest{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "carla", page.Items[0].Username)
}

func TestDeleteUserRemovesReviewsAndRefreshesRatings(t *testing.T) {
	f := newFixture(t)
	bob := f.user(t, "bob")
	ann := f.user(t, "ann")
	product := f.product(t, ProductInput{})

	_, err := f.reviews.Create(f.ctx, bob, product.ID, ReviewInput{Rating: 1})
	require.NoError(t, err)
	_, err = f.reviews.Create(f.ctx, ann, product.ID, ReviewInput{Rating: 5})
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(f.ctx, bob.UserID))

	_, err = f.users.Get(f.ctx, bob.UserID)
	assert.True(t, apperror.Is(err, apperror.NotFound))

	stored, err := f.store.Products.FindByID(f.ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, stored.Rating)
	assert.Equal(t, 1, stored.ReviewCount)

	assert.True(t, apperror.Is(f.users.Delete(f.ctx, bob.UserID), apperror.NotFound))
}
