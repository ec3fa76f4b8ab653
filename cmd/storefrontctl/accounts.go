package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thesheunit/storefront/internal/domain/user"
	"github.com/thesheunit/storefront/internal/pkg/auth"
	"github.com/thesheunit/storefront/internal/pkg/email"
)

func createAdminCmd() *cobra.Command {
	var password, name string

	cmd := &cobra.Command{
		Use:   "create-admin <email>",
		Short: "Create an administrator or promote an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(d *database) error {
				passwords := auth.NewPasswordManager(d.cfg)
				if err := passwords.ValidatePassword(password); err != nil {
					return err
				}

				users := user.NewService(d.db.GetDB(), d.cfg, nil, d.log)
				u, err := users.CreateAdmin(cmd.Context(), args[0], password, name)
				if err != nil {
					return err
				}
				fmt.Printf("Administrator %s ready (id %d)\n", u.Email, u.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password for the account")
	cmd.Flags().StringVar(&name, "name", "Admin", "First name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash stored for a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := env()
			if err != nil {
				return err
			}
			passwords := auth.NewPasswordManager(cfg)
			hash, err := passwords.HashPassword(args[0])
			if err != nil {
				return err
			}
			if err := passwords.VerifyPassword(args[0], hash); err != nil {
				return fmt.Errorf("hash verification failed: %w", err)
			}
			fmt.Println(hash)
			return nil
		},
	}
}

func testEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send-test-email <to>",
		Short: "Send a test email through the configured provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := env()
			if err != nil {
				return err
			}
			svc := email.NewEmailService(cfg, log)
			err = svc.SendEmail(cmd.Context(), &email.Email{
				To:          []string{args[0]},
				Subject:     "Test email from " + cfg.App.Name,
				HTMLContent: "<h1>It works</h1><p>The " + cfg.External.Email.Provider + " provider delivered this message.</p>",
				Type:        "test",
			})
			if err != nil {
				return err
			}
			fmt.Printf("Sent test email to %s\n", args[0])
			return nil
		},
	}
}
