package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ustore/apperror"
)

func TestFirstImageBecomesPrimary(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, ProductInput{})

	first, err := f.images.Add(f.ctx, p.ID, ImageInput{ImageURL: "/uploads/a.png"})
	require.NoError(t, err)
	assert.True(t, first.IsPrimary)

	second, err := f.images.Add(f.ctx, p.ID, ImageInput{ImageURL: "/uploads/b.png", SortOrder: 1})
	require.NoError(t, err)
	assert.False(t, second.IsPrimary)

	primary, err := f.images.Primary(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, primary.ID)

	_, err = f.images.Add(f.ctx, 404, ImageInput{ImageURL: "/uploads/c.png"})
	assert.True(t, apperror.Is(err, apperror.NotFound))

	_, err = f.images.Add(f.ctx, p.ID, ImageInput{})
	assert.True(t, apperror.Is(err, apperror.ValidationFailed))
}

func TestPromotingImageDemotesPreviousPrimary(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, ProductInput{})

	_, err := f.images.Add(f.ctx, p.ID, ImageInput{ImageURL: "/uploads/a.png"})
	require.NoError(t, err)
	second, err := f.images.Add(f.ctx, p.ID, ImageInput{ImageURL: "/uploads/b.png", IsPrimary: true})
	require.NoError(t, err)
	third, err := f.images.Add(f.ctx, p.ID, ImageInput{ImageURL: "/uploads/c.png"})
	require.NoError(t, err)

	primary, err := f.images.Primary(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, primary.ID)

	updated, err := f.images.Update(f.ctx, third.ID, ImagePatch{IsPrimary: ptr(true), AltText: ptr("side")})
	require.NoError(t, err)
	assert.Equal(t, "side", updated.AltText)
	assert.Equal(t, "/uploads/c.png", updated.ImageURL)

	images, err := f.images.List(f.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, images, 3)
	primaries := 0
	for _, img := range images {
		if img.IsPrimary {
			primaries++
			assert.Equal(t, third.ID, img.ID)
		}
	}
	assert.Equal(t, 1, primaries)
}

func TestPrimaryFallsBackToFirstImage(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, ProductInput{})

	_, err := f.images.Primary(f.ctx, p.ID)
	assert.True(t, apperror.Is(err, apperror.NotFound))

	first, err := f.images.Add(f.ctx, p.ID, ImageInput{ImageURL: "/uploads/a.png", SortOrder: 5})
	require.NoError(t, err)
	second, err := f.images.Add(f.ctx, p.ID, ImageInput{ImageURL: "/uploads/b.png", SortOrder: 1})
	require.NoError(t, err)
	_, err = f.images.Update(f.ctx, first.ID, ImagePatch{IsPrimary: ptr(false)})
	require.NoError(t, err)

	primary, err := f.images.Primary(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, primary.ID)

	require.NoError(t, f.images.Delete(f.ctx, second.ID))
	assert.True(t, apperror.Is(f.images.Delete(f.ctx, second.ID), apperror.NotFound))

	_, err = f.images.Update(f.ctx, 404, ImagePatch{AltText: ptr("x")})
	assert.True(t, apperror.Is(err, apperror.NotFound))
}
