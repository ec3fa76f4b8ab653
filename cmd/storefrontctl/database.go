package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thesheunit/storefront/internal/infrastructure/database/postgres"
)

func migrateCmd() *cobra.Command {
	var skipIndexes bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(d *database) error {
				if err := d.migration.RunAutoMigrations(cmd.Context()); err != nil {
					return err
				}
				if !skipIndexes {
					if err := d.migration.CreateIndexes(cmd.Context()); err != nil {
						return err
					}
				}
				fmt.Println("Schema is up to date")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&skipIndexes, "skip-indexes", false, "Do not create secondary indexes")
	return cmd
}

func seedCmd() *cobra.Command {
	var adminEmail, adminPassword string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert an administrator and a starter catalog",
		Long: `Insert an administrator and a starter catalog when they are missing.
Existing rows are left untouched, so running seed twice is safe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(d *database) error {
				return d.migration.SeedInitialData(cmd.Context(), postgres.SeedOptions{
					AdminEmail:    adminEmail,
					AdminPassword: adminPassword,
					BcryptCost:    d.cfg.Security.BcryptCost,
				})
			})
		},
	}

	cmd.Flags().StringVar(&adminEmail, "admin-email", "", "Administrator email")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "Administrator password")
	return cmd
}

func dropCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop every storefront table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to drop tables without --yes")
			}
			return withDatabase(func(d *database) error {
				if d.cfg.IsProduction() {
					return errors.New("refusing to drop tables in production")
				}
				return d.migration.DropAllTables(cmd.Context())
			})
		},
	}

	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm dropping all tables")
	return cmd
}
