package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/clarence/internal/config"
	"github.com/example/clarence/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the clarence database and config",
		Long: `Initialize the clarence database with the required schema and write
.clarence/config.json in the current directory if it does not exist.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			dbPath, err := db.GetDBPath()
			if err != nil {
				return fmt.Errorf("failed to get database path: %w", err)
			}

			fmt.Fprintf(out, "Initializing clarence database at %s\n", dbPath)
			if _, err := db.GetDB(); err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}
			fmt.Fprintln(out, "✓ Database initialized successfully")

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			if _, err := config.LoadConfig(cwd); err == nil {
				fmt.Fprintln(out, "✓ Config already present at .clarence/config.json")
			} else {
				cfg := config.Default()
				cfg.Advice.Provider = provider
				if err := cfg.Validate(); err != nil {
					return err
				}
				if err := config.SaveConfig(cwd, cfg); err != nil {
					return err
				}
				fmt.Fprintln(out, "✓ Config file created at .clarence/config.json")
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, `  clarence session create "Acme" "Globex"`)
			fmt.Fprintln(out, "  clarence session list")

			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "advice", config.ProviderOffline, "Advice provider (offline, genai, none)")
	return cmd
}
