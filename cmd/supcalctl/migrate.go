package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"supcal/internal/config"
	"supcal/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dialect, dsn, err := sqlTarget()
			if err != nil {
				return err
			}
			if err := storage.RunMigrations(dialect, dsn); err != nil {
				return err
			}
			return printVersion(cmd, dialect, dsn)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dialect, dsn, err := sqlTarget()
			if err != nil {
				return err
			}
			return printVersion(cmd, dialect, dsn)
		},
	})

	return cmd
}

func sqlTarget() (storage.Dialect, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", "", err
	}
	switch cfg.DataBackend {
	case config.BackendSQLite:
		return storage.SQLite, cfg.SQLiteDBPath, nil
	case config.BackendPostgres:
		return storage.Postgres, cfg.DatabaseURL, nil
	default:
		return "", "", fmt.Errorf("backend %q has no schema", cfg.DataBackend)
	}
}

func printVersion(cmd *cobra.Command, dialect storage.Dialect, dsn string) error {
	version, dirty, err := storage.MigrationVersion(dialect, dsn)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s schema version %d", dialect, version)
	if dirty {
		fmt.Fprint(cmd.OutOrStdout(), " (dirty)")
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
