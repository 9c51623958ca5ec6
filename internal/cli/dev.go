package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/clarence/internal/config"
	"github.com/example/clarence/internal/db"
)

// DevCmd returns the dev command group for development utilities.
func DevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Development utilities",
		Long: `Development utilities for working with a clarence dev database.

These commands require CLARENCE_DB_PATH to be set so they never touch the
default database in ~/.clarence.`,
	}

	cmd.AddCommand(devResetCmd())
	return cmd
}

func devResetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset dev database with fresh fixtures",
		Long: `Delete the dev database and recreate it with fixture data.

This command:
1. Deletes the existing dev database file
2. Creates a fresh database with the current schema
3. Seeds three negotiations at different stages

Safety: This command requires CLARENCE_DB_PATH to be set to prevent
accidental reset of the real database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			dbPath := os.Getenv(config.EnvDBPath)
			if dbPath == "" {
				return fmt.Errorf("%s not set\n\nThis safety check prevents accidental reset of your real database", config.EnvDBPath)
			}

			if !force {
				fmt.Fprintf(out, "This will delete and recreate: %s\n", dbPath)
				fmt.Fprint(out, "Continue? [y/N] ")
				var response string
				fmt.Fscanln(cmd.InOrStdin(), &response)
				if response != "y" && response != "Y" {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			db.Close()

			if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to delete database: %w", err)
			}
			fmt.Fprintf(out, "✓ Deleted %s\n", dbPath)

			db.SetPath(dbPath)
			database, err := db.GetDB()
			if err != nil {
				return fmt.Errorf("failed to create database: %w", err)
			}
			fmt.Fprintln(out, "✓ Created fresh database with schema")

			if err := db.SeedFixtures(database); err != nil {
				return fmt.Errorf("failed to seed fixtures: %w", err)
			}
			fmt.Fprintln(out, "✓ Seeded fixture data")

			fmt.Fprintln(out, "\nDev database reset complete!")
			fmt.Fprintln(out, "\nSeeded entities:")
			fmt.Fprintln(out, "  - NEG-0001 full-negotiation, intake (draft)")
			fmt.Fprintln(out, "  - NEG-0002 fast-track, foundation (in progress)")
			fmt.Fprintln(out, "  - NEG-0003 straight-to-contract (completed)")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}
