package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"ustore/config"
	"ustore/events"
	"ustore/middleware"
	"ustore/repository"
	"ustore/routes"
	"ustore/services"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate, seed roles and serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	cfg, log, conn, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer closeDB(conn)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	store := repository.NewStore(conn)
	if _, err := services.SeedRoles(ctx, store, log); err != nil {
		return err
	}

	hub := events.NewHub(log)
	go hub.Run(ctx)

	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst, log)
	limiter.StartCleanup(time.Minute, ctx.Done())

	app := routes.NewApp(log, cfg.CORSOrigins)
	routes.SetupRoutes(app, newHandler(cfg, store, hub, limiter, log))

	// The websocket endpoint needs a hijackable connection, so it is served
	// by net/http next to the fiber app.
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.Handle("/", adaptor.FiberApp(app))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return app.ShutdownWithContext(shutdownCtx)
}

func newHandler(cfg *config.Config, store *repository.Store, hub *events.Hub, limiter *middleware.RateLimiter, log *logrus.Logger) *routes.Handler {
	hasher := services.DefaultPasswordHasher()
	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiration)
	users := services.NewUserService(store, hasher, log)

	return &routes.Handler{
		Auth:        services.NewAuthService(store, users, tokens, hasher, log),
		Users:       users,
		Categories:  services.NewCategoryService(store, hub, log),
		Products:    services.NewProductService(store, hub, log),
		Images:      services.NewImageService(store, log),
		Reviews:     services.NewReviewService(store, log),
		AuthLimiter: limiter,
		UploadDir:   cfg.UploadDir,
		Log:         log,
	}
}

func closeDB(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
