package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	migrateV4 "github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/yourusername/stoolpool-api/pkg/database"
)

type migrateFlags struct {
	dsn   string
	path  string
	steps int
}

func newMigrateCmd() *cobra.Command {
	f := &migrateFlags{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&f.dsn, "dsn", os.Getenv("DATABASE_URL"), "PostgreSQL URL (default: $DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&f.path, "path", "migrations", "Directory with SQL migrations")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, f, func(m *migrateV4.Migrate) error {
				return ignoreNoChange(m.Up())
			})
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last --steps migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.steps <= 0 {
				return &usageErr{msg: "--steps must be positive"}
			}
			return withMigrator(cmd, f, func(m *migrateV4.Migrate) error {
				return ignoreNoChange(m.Steps(-f.steps))
			})
		},
	}
	down.Flags().IntVar(&f.steps, "steps", 1, "Number of migrations to roll back")

	force := &cobra.Command{
		Use:   "force <version>",
		Short: "Set the schema version and clear the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return &usageErr{msg: fmt.Sprintf("invalid version %q", args[0])}
			}
			return withMigrator(cmd, f, func(m *migrateV4.Migrate) error {
				return m.Force(version)
			})
		},
	}

	cmd.AddCommand(up, down, force)
	return cmd
}

// withMigrator открывает базу через lib/pq, выполняет действие и печатает итоговую версию схемы
func withMigrator(cmd *cobra.Command, f *migrateFlags, action func(m *migrateV4.Migrate) error) error {
	if f.dsn == "" {
		return &usageErr{msg: "--dsn or DATABASE_URL is required"}
	}

	sqlDB, err := database.OpenSQL(f.dsn)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	m, err := database.NewMigrator(sqlDB, f.path)
	if err != nil {
		return err
	}
	if err := action(m); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrateV4.ErrNilVersion) {
		fmt.Fprintln(cmd.OutOrStdout(), "schema version: none")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d (dirty: %t)\n", version, dirty)
	return nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrateV4.ErrNoChange) {
		return nil
	}
	return err
}
