package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/clarence/internal/config"
	"github.com/example/clarence/internal/db"
	"github.com/example/clarence/internal/logging"
	"github.com/example/clarence/internal/version"
	"github.com/example/clarence/internal/wire"
)

// NewRootCmd builds the clarence command tree.
func NewRootCmd() *cobra.Command {
	var (
		verbose bool
		actor   string
		logger  *zap.Logger
	)

	rootCmd := &cobra.Command{
		Use:     "clarence",
		Short:   "Clarence - negotiation state and leverage engine",
		Version: version.String(),
		Long: `Clarence tracks B2B contract negotiations: clause positions and alignment,
each party's priority budget, the leverage split, and the stage pathway the
negotiation follows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = logging.New(verbose)
			if err != nil {
				return err
			}

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := config.Load(cwd)
			if err != nil {
				return err
			}
			if cfg.DBPath != "" {
				db.SetPath(cfg.DBPath)
			}
			wire.Configure(cfg, logger)

			return SetActor(actor)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().StringVar(&actor, "as", "", "Acting party (requesting or fulfilling), recorded in history")

	rootCmd.AddCommand(InitCmd())
	rootCmd.AddCommand(SessionCmd())
	rootCmd.AddCommand(ClauseCmd())
	rootCmd.AddCommand(PriorityCmd())
	rootCmd.AddCommand(LeverageCmd())
	rootCmd.AddCommand(StageCmd())
	rootCmd.AddCommand(TransitionCmd())
	rootCmd.AddCommand(CatalogueCmd())

	// Developer tools
	rootCmd.AddCommand(DevCmd())

	return rootCmd
}
