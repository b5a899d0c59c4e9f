// Package cmd holds the ustore command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"ustore/config"
	"ustore/db"
	"ustore/logging"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "ustore",
	Short: "UStore e-commerce backend",
	Long: `UStore serves the store API: accounts and roles, the product catalog
with categories, images and reviews.

Configuration is read from the environment, optionally seeded from an env file.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Env file to load before reading the environment")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

// bootstrap loads configuration and opens a migrated database.
func bootstrap(ctx context.Context) (*config.Config, *logrus.Logger, *gorm.DB, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, nil, err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	conn, err := db.Open(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.Migrate(conn.WithContext(ctx)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("Database migrated")
	return cfg, log, conn, nil
}
