package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jvlax-y/cekApar/common/database"
	"github.com/jvlax-y/cekApar/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded SQL schema to the configured database",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Sync()

	if !cfg.DatabaseEnabled {
		return fmt.Errorf("database is disabled (DB_ENABLED=false)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(conn)
	if err := db.Apply(ctx, conn, log); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Migration completed")
	return nil
}
