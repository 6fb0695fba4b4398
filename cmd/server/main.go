package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "coinledger",
		Short: "Coin ledger server",
		Long: `Runs the coin ledger: a chat economy where members register, ` +
			`trade coins and buy items from an admin-curated shop.`,
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(cmd.OutOrStdout(), migrateUp)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(cmd.OutOrStdout(), migrateDown)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(cmd.OutOrStdout(), migrateVersion)
			},
		},
	)

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare every balance with its journal and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd.Context(), cmd.OutOrStdout())
		},
	}

	var role string
	tokenCmd := &cobra.Command{
		Use:   "token <caller-id>",
		Short: "Issue an API token for a chat user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd.OutOrStdout(), args[0], role)
		},
	}
	tokenCmd.Flags().StringVar(&role, "role", "member", "Role granted by the token (member or admin)")

	rootCmd.AddCommand(serveCmd, migrateCmd, reconcileCmd, tokenCmd)

	return rootCmd
}
