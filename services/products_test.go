package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ustore/apperror"
	"ustore/models"
	"ustore/repository"
)

func ids(products []models.Product) []uint {
	out := make([]uint, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)
	phones := f.category(t, "Phones")

	p, err := f.products.Create(f.ctx, ProductInput{
		Name:     "Pixel",
		Brand:    "Google",
		Price:    decimal.RequireFromString("499.99"),
		SKU:      ptr("PX-1"),
		Category: &CategoryRef{ID: &phones.ID},
	})
	require.NoError(t, err)
	assert.True(t, p.IsActive)
	require.NotNil(t, p.CategoryID)
	assert.Equal(t, phones.ID, *p.CategoryID)
	assert.Zero(t, p.ViewCount)

	_, err = f.products.Create(f.ctx, ProductInput{Name: "Clone", Brand: "X", Price: decimal.NewFromInt(1), SKU: ptr("PX-1")})
	assert.True(t, apperror.Is(err, apperror.DuplicateSku))

	_, err = f.products.Create(f.ctx, ProductInput{Name: "Orphan", Brand: "X", Price: decimal.NewFromInt(1), CategoryID: ptr(uint(404))})
	assert.True(t, apperror.Is(err, apperror.CategoryNotFound))

	_, err = f.products.Create(f.ctx, ProductInput{Name: "Free", Brand: "X", Price: decimal.Zero})
	assert.True(t, apperror.Is(err, apperror.ValidationFailed))

	_, err = f.products.Create(f.ctx, ProductInput{Name: "Odd", Brand: "X", Price: decimal.NewFromInt(1), OriginalPrice: ptr(decimal.NewFromInt(-1))})
	assert.True(t, apperror.Is(err, apperror.ValidationFailed))

	got, err := f.products.GetBySKU(f.ctx, "PX-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("499.99")))
}

func TestProductsWithoutSKUDoNotCollide(t *testing.T) {
	f := newFixture(t)
	f.product(t, ProductInput{Name: "A"})
	f.product(t, ProductInput{Name: "B"})

	page, err := f.products.List(f.ctx, repository.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
}

func TestUpdateProductMergesPresentFields(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, ProductInput{Name: "Pixel", SKU: ptr("PX-1"), Color: "black", StockQuantity: 3})
	f.product(t, ProductInput{Name: "Galaxy", SKU: ptr("GX-1")})

	updated, err := f.products.Update(f.ctx, p.ID, ProductPatch{
		SKU:   ptr("PX-1"),
		Price: ptr(decimal.NewFromInt(450)),
	})
	require.NoError(t, err)
	assert.Equal(t, "Pixel", updated.Name)
	assert.Equal(t, "black", updated.Color)
	assert.Equal(t, 3, updated.StockQuantity)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(450)))

	_, err = f.products.Update(f.ctx, p.ID, ProductPatch{SKU: ptr("GX-1")})
	assert.True(t, apperror.Is(err, apperror.DuplicateSku))

	_, err = f.products.Update(f.ctx, p.ID, ProductPatch{CategoryID: ptr(uint(404))})
	assert.True(t, apperror.Is(err, apperror.CategoryNotFound))

	_, err = f.products.Update(f.ctx, 404, ProductPatch{Name: ptr("Ghost")})
	assert.True(t, apperror.Is(err, apperror.NotFound))

	assert.Equal(t, []string{"product.created", "product.created", "product.updated"}, f.events.names())
}

func TestGetProductCountsViews(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, ProductInput{SKU: ptr("V-1")})

	for i := 1; i <= 3; i++ {
		got, err := f.products.Get(f.ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, i, got.ViewCount)
	}

	bySKU, err := f.products.GetBySKU(f.ctx, "V-1")
	require.NoError(t, err)
	assert.Equal(t, 3, bySKU.ViewCount)

	_, err = f.products.Get(f.ctx, 404)
	assert.True(t, apperror.Is(err, apperror.NotFound))
}

func TestAdjustStock(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, ProductInput{StockQuantity: 10, SKU: ptr("S-1")})
	p.SoldCount = 2
	require.NoError(t, f.store.Products.Save(f.ctx, p))

	got, err := f.products.AdjustStock(f.ctx, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, got.StockQuantity)
	assert.Equal(t, 5, got.SoldCount)

	_, err = f.products.AdjustStock(f.ctx, p.ID, 8)
	assert.True(t, apperror.Is(err, apperror.InsufficientStock))

	_, err = f.products.AdjustStock(f.ctx, p.ID, 0)
	assert.True(t, apperror.Is(err, apperror.ValidationFailed))

	_, err = f.products.AdjustStock(f.ctx, 404, 1)
	assert.True(t, apperror.Is(err, apperror.NotFound))

	stored, err := f.store.Products.FindByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.StockQuantity)
	assert.Equal(t, 5, stored.SoldCount)
}

func TestPricesKeepTwoDecimals(t *testing.T) {
	f := newFixture(t)

	_, err := f.products.Create(f.ctx, ProductInput{Name: "Cable", Brand: "X", Price: decimal.RequireFromString("19.999")})
	assert.True(t, apperror.Is(err, apperror.ValidationFailed))

	_, err = f.products.Create(f.ctx, ProductInput{Name: "Cable", Brand: "X", Price: decimal.NewFromInt(20), OriginalPrice: ptr(decimal.RequireFromString("24.005"))})
	assert.True(t, apperror.Is(err, apperror.ValidationFailed))

	p, err := f.products.Create(f.ctx, ProductInput{Name: "Cable", Brand: "X", Price: decimal.RequireFromString("19.990")})
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("19.99")))

	_, err = f.products.Update(f.ctx, p.ID, ProductPatch{Price: ptr(decimal.RequireFromString("0.001"))})
	assert.True(t, apperror.Is(err, apperror.ValidationFailed))
}

func TestRatingIsUnroundedMean(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, ProductInput{})

	for i, rating := range []int{4, 4, 5} {
		reviewer := f.user(t, []string{"ann", "ben", "cat"}[i])
		_, err := f.reviews.Create(f.ctx, reviewer, p.ID, ReviewInput{Rating: rating})
		require.NoError(t, err)
	}

	stored, err := f.store.Products.FindByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 13.0/3, stored.Rating, 1e-9)

	page, err := f.products.ListByMinRating(f.ctx, 13.0/3, repository.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, p.ID, page.Items[0].ID)
}

func TestRecomputeRating(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, ProductInput{})

	got, err := f.products.RecomputeRating(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Rating)
	assert.Zero(t, got.ReviewCount)

	for i, rating := range []int{5, 3, 4} {
		reviewer := f.user(t, []string{"ann", "ben", "cat"}[i])
		_, err := f.reviews.Create(f.ctx, reviewer, p.ID, ReviewInput{Rating: rating})
		require.NoError(t, err)
	}

	got, err = f.products.RecomputeRating(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Rating)
	assert.Equal(t, 3, got.ReviewCount)

	_, err = f.products.RecomputeRating(f.ctx, 404)
	assert.True(t, apperror.Is(err, apperror.NotFound))
}

func TestProductListings(t *testing.T) {
	f := newFixture(t)
	phones := f.category(t, "Phones")

	cheap := f.product(t, ProductInput{Name: "Budget Phone", Brand: "Nokia", Price: decimal.NewFromInt(50), StockQuantity: 2, MinStockLevel: 5, CategoryID: &phones.ID, IsNew: true})
	mid := f.product(t, ProductInput{Name: "Mid Phone", Brand: "Samsung", Price: decimal.NewFromInt(300), StockQuantity: 20, CategoryID: &phones.ID, IsFeatured: true, DiscountPercentage: 10})
	premium := f.product(t, ProductInput{Name: "Premium Phone", Brand: "Apple", Price: decimal.NewFromInt(1000), StockQuantity: 0, Description: "Flagship 100% glass"})
	hidden := f.product(t, ProductInput{Name: "Hidden Phone", Brand: "Nokia", Price: decimal.NewFromInt(60), StockQuantity: 5, IsActive: ptr(false)})

	all := repository.PageRequest{}

	t.Run("active excludes inactive", func(t *testing.T) {
		page, err := f.products.ListActive(f.ctx, all)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{cheap.ID, mid.ID, premium.ID}, ids(page.Items))

		page, err = f.products.List(f.ctx, all)
		require.NoError(t, err)
		assert.Contains(t, ids(page.Items), hidden.ID)
	})

	t.Run("empty filter equals active", func(t *testing.T) {
		filtered, err := f.products.Filter(f.ctx, repository.ProductFilter{}, all)
		require.NoError(t, err)
		active, err := f.products.ListActive(f.ctx, all)
		require.NoError(t, err)
		assert.Equal(t, ids(active.Items), ids(filtered.Items))
	})

	t.Run("filter composes criteria", func(t *testing.T) {
		page, err := f.products.Filter(f.ctx, repository.ProductFilter{
			Brand:    ptr("Nokia"),
			MaxPrice: ptr(decimal.NewFromInt(100)),
		}, all)
		require.NoError(t, err)
		assert.Equal(t, []uint{cheap.ID}, ids(page.Items))

		page, err = f.products.Filter(f.ctx, repository.ProductFilter{InStock: ptr(false)}, all)
		require.NoError(t, err)
		assert.Equal(t, []uint{premium.ID}, ids(page.Items))
	})

	t.Run("price range constrains price only", func(t *testing.T) {
		page, err := f.products.ListByPriceRange(f.ctx, decimal.NewFromInt(50), decimal.NewFromInt(300), all)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{cheap.ID, mid.ID}, ids(page.Items))
	})

	t.Run("category brand featured new discounted", func(t *testing.T) {
		page, err := f.products.ListByCategory(f.ctx, phones.ID, all)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{cheap.ID, mid.ID}, ids(page.Items))

		page, err = f.products.ListByBrand(f.ctx, "Apple", all)
		require.NoError(t, err)
		assert.Equal(t, []uint{premium.ID}, ids(page.Items))

		page, err = f.products.ListFeatured(f.ctx, all)
		require.NoError(t, err)
		assert.Equal(t, []uint{mid.ID}, ids(page.Items))

		page, err = f.products.ListNew(f.ctx, all)
		require.NoError(t, err)
		assert.Equal(t, []uint{cheap.ID}, ids(page.Items))

		page, err = f.products.ListDiscounted(f.ctx, all)
		require.NoError(t, err)
		assert.Equal(t, []uint{mid.ID}, ids(page.Items))

		page, err = f.products.ListInStock(f.ctx, all)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{cheap.ID, mid.ID}, ids(page.Items))
	})

	t.Run("search", func(t *testing.T) {
		page, err := f.products.Search(f.ctx, "PHONE", all)
		require.NoError(t, err)
		assert.Len(t, page.Items, 3)

		page, err = f.products.Search(f.ctx, "100%", all)
		require.NoError(t, err)
		assert.Equal(t, []uint{premium.ID}, ids(page.Items))

		_, err = f.products.Search(f.ctx, "  ", all)
		assert.True(t, apperror.Is(err, apperror.ValidationFailed))
	})

	t.Run("stock reports", func(t *testing.T) {
		low, err := f.products.LowStock(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, []uint{cheap.ID}, ids(low))

		out, err := f.products.OutOfStock(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, []uint{premium.ID}, ids(out))
	})

	t.Run("similar", func(t *testing.T) {
		page, err := f.products.Similar(f.ctx, cheap.ID, all)
		require.NoError(t, err)
		assert.Equal(t, []uint{mid.ID}, ids(page.Items))

		page, err = f.products.Similar(f.ctx, premium.ID, all)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})

	t.Run("sorted and paged", func(t *testing.T) {
		page, err := f.products.ListActive(f.ctx, repository.PageRequest{Page: 0, Size: 2, Sort: "price", Desc: true})
		require.NoError(t, err)
		assert.Equal(t, []uint{premium.ID, mid.ID}, ids(page.Items))
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, 2, page.TotalPages)
	})

	t.Run("most viewed", func(t *testing.T) {
		_, err := f.products.Get(f.ctx, mid.ID)
		require.NoError(t, err)
		page, err := f.products.ListMostViewed(f.ctx, all)
		require.NoError(t, err)
		require.NotEmpty(t, page.Items)
		assert.Equal(t, mid.ID, page.Items[0].ID)
	})
}

func TestDeleteProductRemovesImagesAndReviews(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, ProductInput{})
	ann := f.user(t, "ann")

	_, err := f.images.Add(f.ctx, p.ID, ImageInput{ImageURL: "/uploads/a.png"})
	require.NoError(t, err)
	review, err := f.reviews.Create(f.ctx, ann, p.ID, ReviewInput{Rating: 4})
	require.NoError(t, err)

	require.NoError(t, f.products.Delete(f.ctx, p.ID))

	_, err = f.reviews.Get(f.ctx, review.ID)
	assert.True(t, apperror.Is(err, apperror.NotFound))
	n, err := f.store.Images.CountByProduct(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.True(t, apperror.Is(f.products.Delete(f.ctx, p.ID), apperror.NotFound))
}
