// Command storefrontctl runs operator tasks against the storefront database.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/thesheunit/storefront/internal/config"
	"github.com/thesheunit/storefront/internal/infrastructure/database/postgres"
	"github.com/thesheunit/storefront/internal/pkg/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Operator tools for the storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		migrateCmd(),
		seedCmd(),
		createAdminCmd(),
		dropCmd(),
		hashPasswordCmd(),
		testEmailCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// env loads configuration and the process logger
func env() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg), nil
}

// database is an open connection plus what commands need around it
type database struct {
	cfg       *config.Config
	log       *logrus.Logger
	db        *postgres.DB
	migration *postgres.Migration
}

// withDatabase opens the database for the duration of fn
func withDatabase(fn func(d *database) error) error {
	cfg, log, err := env()
	if err != nil {
		return err
	}
	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(&database{cfg: cfg, log: log, db: db, migration: postgres.NewMigration(db.GetDB(), log)})
}
