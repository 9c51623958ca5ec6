package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/clarence/internal/ports/primary"
	"github.com/example/clarence/internal/wire"
)

// SessionCmd returns the session command group.
func SessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"neg"},
		Short:   "Manage negotiation sessions",
		Long:    "Create, list, inspect and archive negotiation sessions.",
	}

	cmd.AddCommand(sessionCreateCmd())
	cmd.AddCommand(sessionListCmd())
	cmd.AddCommand(sessionShowCmd())
	cmd.AddCommand(sessionArchiveCmd())
	cmd.AddCommand(sessionHistoryCmd())
	return cmd
}

func sessionCreateCmd() *cobra.Command {
	var pathway string
	var bare bool

	cmd := &cobra.Command{
		Use:   "create [requesting-company] [fulfilling-company]",
		Short: "Start a negotiation between two companies",
		Long: `Start a negotiation session on a pathway.

The session is seeded with the catalogue's clause templates unless --bare is
given. Without --pathway the catalogue's default pathway is used.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.NegotiationAdapterWithOutput(cmd.OutOrStdout()).Create(NewContext(), primary.InitializeSessionRequest{
				RequestingCompany: args[0],
				FulfillingCompany: args[1],
				PathwayID:         pathway,
				SkipTemplates:     bare,
			})
			return err
		},
	}

	cmd.Flags().StringVarP(&pathway, "pathway", "p", "", "Pathway ID (default: catalogue default)")
	cmd.Flags().BoolVar(&bare, "bare", false, "Start without template clauses")
	return cmd
}

func sessionListCmd() *cobra.Command {
	var status string
	var all bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.NegotiationAdapterWithOutput(cmd.OutOrStdout()).List(NewContext(), primary.SessionFilters{
				Status:          status,
				IncludeArchived: all,
				Limit:           limit,
			})
			return err
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (draft, in_progress, completed)")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include archived sessions")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of sessions")
	return cmd
}

func sessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [session]",
		Short: "Show session details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSessionRef(args[0]); err != nil {
				return err
			}
			_, err := wire.NegotiationAdapterWithOutput(cmd.OutOrStdout()).Show(NewContext(), args[0])
			return err
		},
	}
}

func sessionArchiveCmd() *cobra.Command {
	var rev int64

	cmd := &cobra.Command{
		Use:   "archive [session]",
		Short: "Archive a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSessionRef(args[0]); err != nil {
				return err
			}
			return wire.NegotiationAdapterWithOutput(cmd.OutOrStdout()).Archive(NewContext(), primary.SessionRequest{
				SessionID:        args[0],
				ExpectedRevision: rev,
			})
		},
	}

	addRevisionFlag(cmd, &rev)
	return cmd
}

func sessionHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [session]",
		Short: "Show the audit trail of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSessionRef(args[0]); err != nil {
				return err
			}
			return wire.NegotiationAdapterWithOutput(cmd.OutOrStdout()).History(NewContext(), args[0], limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of events (0 for all)")
	return cmd
}

// addRevisionFlag registers --rev, the revision the caller last saw.
func addRevisionFlag(cmd *cobra.Command, rev *int64) {
	cmd.Flags().Int64Var(rev, "rev", 0, "Fail if the session revision differs (0 skips the check)")
}
