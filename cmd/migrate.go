package cmd

import (
	"github.com/spf13/cobra"

	"ustore/repository"
	"ustore/services"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, conn, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		return closeDB(conn)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Migrate and insert the default roles when none exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, conn, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(conn)

		_, err = services.SeedRoles(cmd.Context(), repository.NewStore(conn), log)
		return err
	},
}
