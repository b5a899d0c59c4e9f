package routes

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"ustore/models"
	"ustore/repository"
	"ustore/services"
)

type productLister func(context.Context, repository.PageRequest) (repository.Page[models.Product], error)

func (h *Handler) productPage(c *fiber.Ctx, list productLister) error {
	page, err := list(c.UserContext(), pageRequest(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(page)
}

func (h *Handler) getAllProducts(c *fiber.Ctx) error {
	return h.productPage(c, h.Products.List)
}

func (h *Handler) getActiveProducts(c *fiber.Ctx) error {
	return h.productPage(c, h.Products.ListActive)
}

func (h *Handler) getFeaturedProducts(c *fiber.Ctx) error {
	return h.productPage(c, h.Products.ListFeatured)
}

func (h *Handler) getNewProducts(c *fiber.Ctx) error {
	return h.productPage(c, h.Products.ListNew)
}

func (h *Handler) getDiscountedProducts(c *fiber.Ctx) error {
	return h.productPage(c, h.Products.ListDiscounted)
}

func (h *Handler) getInStockProducts(c *fiber.Ctx) error {
	return h.productPage(c, h.Products.ListInStock)
}

func (h *Handler) getBestSellingProducts(c *fiber.Ctx) error {
	return h.productPage(c, h.Products.ListBestSelling)
}

func (h *Handler) getMostViewedProducts(c *fiber.Ctx) error {
	return h.productPage(c, h.Products.ListMostViewed)
}

func (h *Handler) searchProducts(c *fiber.Ctx) error {
	keyword := c.Query("keyword", c.Query("q"))
	return h.productPage(c, func(ctx context.Context, req repository.PageRequest) (repository.Page[models.Product], error) {
		return h.Products.Search(ctx, keyword, req)
	})
}

func (h *Handler) getProductsByCategory(c *fiber.Ctx) error {
	categoryID, err := paramID(c, "categoryId")
	if err != nil {
		return h.fail(c, err)
	}
	return h.productPage(c, func(ctx context.Context, req repository.PageRequest) (repository.Page[models.Product], error) {
		return h.Products.ListByCategory(ctx, categoryID, req)
	})
}

func (h *Handler) getProductsByBrand(c *fiber.Ctx) error {
	brand := c.Params("brand")
	return h.productPage(c, func(ctx context.Context, req repository.PageRequest) (repository.Page[models.Product], error) {
		return h.Products.ListByBrand(ctx, brand, req)
	})
}

func (h *Handler) getProductsByPriceRange(c *fiber.Ctx) error {
	minPrice, err := queryDecimal(c, "min_price")
	if err != nil {
		return h.fail(c, err)
	}
	maxPrice, err := queryDecimal(c, "max_price")
	if err != nil {
		return h.fail(c, err)
	}
	if minPrice == nil || maxPrice == nil {
		return h.fail(c, badRequest("min_price and max_price are required"))
	}
	return h.productPage(c, func(ctx context.Context, req repository.PageRequest) (repository.Page[models.Product], error) {
		return h.Products.ListByPriceRange(ctx, *minPrice, *maxPrice, req)
	})
}

func (h *Handler) getProductsByRating(c *fiber.Ctx) error {
	minRating, err := queryFloat(c, "min_rating")
	if err != nil {
		return h.fail(c, err)
	}
	if minRating == nil {
		return h.fail(c, badRequest("min_rating is required"))
	}
	return h.productPage(c, func(ctx context.Context, req repository.PageRequest) (repository.Page[models.Product], error) {
		return h.Products.ListByMinRating(ctx, *minRating, req)
	})
}

// filterProducts combines the optional criteria category_id, brand,
// min_price, max_price, min_rating and in_stock.
func (h *Handler) filterProducts(c *fiber.Ctx) error {
	var f repository.ProductFilter
	var err error
	if f.CategoryID, err = queryUint(c, "category_id"); err != nil {
		return h.fail(c, err)
	}
	if brand := c.Query("brand"); brand != "" {
		f.Brand = &brand
	}
	if f.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		return h.fail(c, err)
	}
	if f.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		return h.fail(c, err)
	}
	if f.MinRating, err = queryFloat(c, "min_rating"); err != nil {
		return h.fail(c, err)
	}
	if f.InStock, err = queryBool(c, "in_stock"); err != nil {
		return h.fail(c, err)
	}
	return h.productPage(c, func(ctx context.Context, req repository.PageRequest) (repository.Page[models.Product], error) {
		return h.Products.Filter(ctx, f, req)
	})
}

func (h *Handler) getSimilarProducts(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	return h.productPage(c, func(ctx context.Context, req repository.PageRequest) (repository.Page[models.Product], error) {
		return h.Products.Similar(ctx, id, req)
	})
}

func (h *Handler) getLowStockProducts(c *fiber.Ctx) error {
	products, err := h.Products.LowStock(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(products)
}

func (h *Handler) getOutOfStockProducts(c *fiber.Ctx) error {
	products, err := h.Products.OutOfStock(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(products)
}

// getProduct counts every successful fetch as a view.
func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	product, err := h.Products.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(product)
}

func (h *Handler) getProductBySKU(c *fiber.Ctx) error {
	product, err := h.Products.GetBySKU(c.UserContext(), c.Params("sku"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(product)
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	var req services.ProductInput
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	product, err := h.Products.Create(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var patch services.ProductPatch
	if err := parseBody(c, &patch); err != nil {
		return h.fail(c, err)
	}

	product, err := h.Products.Update(c.UserContext(), id, patch)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(product)
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	return h.idAction(c, h.Products.Delete, "Product deleted successfully")
}

type stockRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) adjustStock(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req stockRequest
	if err := parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	product, err := h.Products.AdjustStock(c.UserContext(), id, req.Quantity)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(product)
}

func (h *Handler) recomputeRating(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	product, err := h.Products.RecomputeRating(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"product_id":   product.ID,
		"rating":       product.Rating,
		"review_count": product.ReviewCount,
	})
}
