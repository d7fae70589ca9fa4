package cmd

import (
	"github.com/spf13/cobra"

	"go-cropadvisor/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := config.InitDB(cfg.Database, log)
		if err != nil {
			log.Error("Migration failed", "error", err)
			return err
		}
		defer db.Close()

		log.Info("Migrations applied", "driver", cfg.Database.Driver)
		return nil
	},
}
