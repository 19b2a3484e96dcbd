// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"github.com/spf13/cobra"

	"marketplace/internal/database"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			db, err := database.Connect(cfg.DSN(), log)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db.DB, log); err != nil {
				return err
			}

			seed, _ := cmd.Flags().GetBool("seed")
			if seed {
				return database.Seed(cmd.Context(), db, log)
			}
			return nil
		},
	}
	cmd.Flags().Bool("seed", false, "Insert the example categories into an empty table")
	return cmd
}
