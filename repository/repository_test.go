package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ustore/models"
	"ustore/testutil"
)

func seedProducts(t *testing.T, store *Store, names ...string) []models.Product {
	t.Helper()
	out := make([]models.Product, 0, len(names))
	for _, name := range names {
		p := models.Product{Name: name, Brand: "Acme", Price: decimal.NewFromInt(10), IsActive: true, StockQuantity: 5}
		require.NoError(t, store.Products.Create(context.Background(), &p))
		out = append(out, p)
	}
	return out
}

func TestPageRequestNormalized(t *testing.T) {
	assert.Equal(t, PageRequest{Page: 0, Size: DefaultPageSize}, PageRequest{Page: -3}.normalized())
	assert.Equal(t, MaxPageSize, PageRequest{Size: 5000}.normalized().Size)
	assert.Equal(t, 7, PageRequest{Size: 7}.normalized().Size)
}

func TestFindPageWalksAllRows(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	ctx := context.Background()
	seedProducts(t, store, "a", "b", "c", "d", "e")

	seen := map[string]bool{}
	for page := 0; page < 3; page++ {
		p, err := store.Products.FindAll(ctx, PageRequest{Page: page, Size: 2, Sort: "name"})
		require.NoError(t, err)
		assert.Equal(t, int64(5), p.Total)
		assert.Equal(t, 3, p.TotalPages)
		for _, item := range p.Items {
			seen[item.Name] = true
		}
	}
	assert.Len(t, seen, 5)

	beyond, err := store.Products.FindAll(ctx, PageRequest{Page: 9, Size: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.NotNil(t, beyond.Items)
}

func TestUnknownSortFallsBackToID(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	products := seedProducts(t, store, "b", "a")

	page, err := store.Products.FindAll(context.Background(), PageRequest{Sort: "password; DROP TABLE products"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, products[0].ID, page.Items[0].ID)
}

func TestFindPageAppliesOrdering(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	ctx := context.Background()
	products := seedProducts(t, store, "a", "b", "c")

	page, err := store.Products.FindAll(ctx, PageRequest{Sort: "name", Desc: true, Size: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, []string{"c", "b"}, []string{page.Items[0].Name, page.Items[1].Name})

	_, err = store.Products.IncrementViews(ctx, products[1].ID)
	require.NoError(t, err)
	viewed, err := store.Products.FindMostViewed(ctx, PageRequest{})
	require.NoError(t, err)
	require.Len(t, viewed.Items, 3)
	assert.Equal(t, products[1].ID, viewed.Items[0].ID)
	assert.Equal(t, products[0].ID, viewed.Items[1].ID)
}

func TestSearchEscapesWildcards(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	seedProducts(t, store, "50% off sale", "5000 mAh battery", "snake_case cable", "snakecase")

	page, err := store.Products.Search(context.Background(), "50%", PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "50% off sale", page.Items[0].Name)

	page, err = store.Products.Search(context.Background(), "SNAKE_", PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "snake_case cable", page.Items[0].Name)
}

func TestDeductStockIsConditional(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	ctx := context.Background()
	p := seedProducts(t, store, "widget")[0]

	n, err := store.Products.DeductStock(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.Products.DeductStock(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := store.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.StockQuantity)
	assert.Equal(t, 5, stored.SoldCount)
}

func TestTransactionRollsBack(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Transaction(ctx, func(tx *Store) error {
		require.NoError(t, tx.Categories.Create(ctx, &models.Category{Name: "Phones", IsActive: true}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := store.Categories.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAverageRatingWithoutReviews(t *testing.T) {
	store := NewStore(testutil.NewDB(t))
	p := seedProducts(t, store, "widget")[0]

	avg, err := store.Reviews.AverageRating(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Zero(t, avg)
}
