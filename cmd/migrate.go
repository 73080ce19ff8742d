package main

import (
	"github.com/immxrtalbeast/axenix_meet/lib/logger/sl"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg := loadConfig()
		log := setupLogger(cfg.Env)

		db, err := connectDatabase(cfg.Database)
		if err != nil {
			log.Error("failed to connect database", sl.Err(err))
			return err
		}
		return migrate(db, log)
	},
}
