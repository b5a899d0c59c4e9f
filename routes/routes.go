package routes

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"ustore/metrics"
	"ustore/middleware"
	"ustore/models"
	"ustore/services"
)

// Handler carries the services behind every route.
type Handler struct {
	Auth       *services.AuthService
	Users      *services.UserService
	Categories *services.CategoryService
	Products   *services.ProductService
	Images     *services.ImageService
	Reviews    *services.ReviewService

	// AuthLimiter throttles sign-in and sign-up. Nil disables throttling.
	AuthLimiter *middleware.RateLimiter
	UploadDir   string
	Log         *logrus.Logger
}

// NewApp builds the fiber application with the shared middleware stack.
// Request logs go through the process logger.
func NewApp(log *logrus.Logger, corsOrigins string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "ustore",
		BodyLimit:    10 * 1024 * 1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
				message = fe.Message
			} else {
				log.WithError(err).WithField("path", c.Path()).Error("Unhandled error")
			}
			return c.Status(code).JSON(fiber.Map{"error": message})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{Output: log.Writer()}))
	app.Use(cors.New(cors.Config{AllowOrigins: corsOrigins}))
	app.Use(middleware.Metrics())
	return app
}

func SetupRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	app.Static("/uploads", h.UploadDir)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleModerator)
	admin := middleware.RequireRoles(models.RoleAdmin)
	authed := middleware.RequireAuth()

	api := app.Group("/api", middleware.Authenticate(h.Auth, h.Log))
	api.Post("/uploads", staff, h.uploadImage)

	// Auth routes
	auth := api.Group("/auth")
	throttle := func(c *fiber.Ctx) error { return c.Next() }
	if h.AuthLimiter != nil {
		throttle = h.AuthLimiter.Handler()
	}
	auth.Post("/signin", throttle, h.signIn)
	auth.Post("/signup", throttle, h.signUp)
	auth.Get("/me", authed, h.me)
	auth.Put("/me", authed, h.updateMe)
	auth.Put("/me/password", authed, h.changePassword)

	// User administration
	users := api.Group("/users")
	users.Get("/", admin, h.getAllUsers)
	users.Get("/active", admin, h.getActiveUsers)
	users.Post("/", admin, h.createUser)
	users.Get("/:id", admin, h.getUser)
	users.Put("/:id", admin, h.updateUser)
	users.Put("/:id/activate", admin, h.activateUser)
	users.Put("/:id/deactivate", admin, h.deactivateUser)
	users.Put("/:id/verify", admin, h.verifyUser)
	users.Delete("/:id", admin, h.deleteUser)
	users.Get("/:id/reviews", h.getUserReviews)

	// Category routes
	categories := api.Group("/categories")
	categories.Get("/", h.getAllCategories)
	categories.Get("/active", h.getActiveCategories)
	categories.Get("/root", h.getRootCategories)
	categories.Get("/with-products", h.getCategoriesWithProducts)
	categories.Get("/slug/:slug", h.getCategoryBySlug)
	categories.Get("/parent/:parentId", h.getSubcategories)
	categories.Get("/:id", h.getCategory)
	categories.Get("/:id/product-count", h.getCategoryProductCount)
	categories.Post("/", staff, h.createCategory)
	categories.Put("/:id", staff, h.updateCategory)
	categories.Put("/:id/activate", staff, h.activateCategory)
	categories.Put("/:id/deactivate", staff, h.deactivateCategory)
	categories.Delete("/:id", staff, h.deleteCategory)

	// Product routes
	products := api.Group("/products")
	products.Get("/", h.getAllProducts)
	products.Get("/active", h.getActiveProducts)
	products.Get("/search", h.searchProducts)
	products.Get("/filter", h.filterProducts)
	products.Get("/price-range", h.getProductsByPriceRange)
	products.Get("/rating", h.getProductsByRating)
	products.Get("/featured", h.getFeaturedProducts)
	products.Get("/new", h.getNewProducts)
	products.Get("/discounted", h.getDiscountedProducts)
	products.Get("/in-stock", h.getInStockProducts)
	products.Get("/low-stock", h.getLowStockProducts)
	products.Get("/out-of-stock", h.getOutOfStockProducts)
	products.Get("/best-selling", h.getBestSellingProducts)
	products.Get("/most-viewed", h.getMostViewedProducts)
	products.Get("/category/:categoryId", h.getProductsByCategory)
	products.Get("/brand/:brand", h.getProductsByBrand)
	products.Get("/sku/:sku", h.getProductBySKU)
	products.Get("/:id", h.getProduct)
	products.Get("/:id/similar", h.getSimilarProducts)
	products.Post("/", staff, h.createProduct)
	products.Put("/:id", staff, h.updateProduct)
	products.Delete("/:id", staff, h.deleteProduct)
	products.Post("/:id/stock", staff, h.adjustStock)
	products.Post("/:id/rating/recompute", staff, h.recomputeRating)

	// Product images
	products.Get("/:id/images", h.getProductImages)
	products.Get("/:id/images/primary", h.getPrimaryImage)
	products.Post("/:id/images", staff, h.addProductImage)
	images := api.Group("/images")
	images.Put("/:id", staff, h.updateProductImage)
	images.Delete("/:id", staff, h.deleteProductImage)

	// Reviews
	products.Get("/:id/reviews", h.getProductReviews)
	products.Get("/:id/reviews/distribution", h.getRatingDistribution)
	products.Post("/:id/reviews", authed, h.createReview)
	reviews := api.Group("/reviews")
	reviews.Get("/:id", h.getReview)
	reviews.Put("/:id", authed, h.updateReview)
	reviews.Delete("/:id", authed, h.deleteReview)
	reviews.Post("/:id/helpful", authed, h.voteHelpful)
	reviews.Post("/:id/not-helpful", authed, h.voteNotHelpful)
}
