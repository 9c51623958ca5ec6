package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/clarence/internal/ports/primary"
	"github.com/example/clarence/internal/wire"
)

// ClauseCmd returns the clause command group.
func ClauseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clause",
		Short: "Manage the clauses of a session",
		Long:  "Add clauses, record each party's position and request advice.",
	}

	cmd.AddCommand(clauseAddCmd())
	cmd.AddCommand(clausePositionCmd())
	cmd.AddCommand(clausePriorityCmd())
	cmd.AddCommand(clauseNotesCmd())
	cmd.AddCommand(clauseAdviseCmd())
	return cmd
}

func clauseAddCmd() *cobra.Command {
	var description string
	var priority int
	var rev int64

	cmd := &cobra.Command{
		Use:   "add [session] [title]",
		Short: "Add a clause",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSessionRef(args[0]); err != nil {
				return err
			}
			return wire.NegotiationAdapterWithOutput(cmd.OutOrStdout()).AddClause(NewContext(), primary.AddClauseRequest{
				SessionID:        args[0],
				ExpectedRevision: rev,
				Title:            args[1],
				Description:      description,
				Priority:         priority,
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Clause description")
	cmd.Flags().IntVar(&priority, "priority", 0, "Priority 1-10 (default 5)")
	addRevisionFlag(cmd, &rev)
	return cmd
}

func clausePositionCmd() *cobra.Command {
	var partyName string
	var rev int64

	cmd := &cobra.Command{
		Use:   "position [session] [clause-id] [value]",
		Short: "Set a party's position on a clause (1-10)",
		Long: `Set a party's position on a clause.

The party defaults to the one given with --as. Changing a position clears any
advice previously recorded for the clause.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSessionRef(args[0]); err != nil {
				return err
			}
			if err := validateClauseID(args[1]); err != nil {
				return err
			}
			value, err := parseIntArg("position", args[2])
			if err != nil {
				return err
			}
			p, err := resolveParty(partyName)
			if err != nil {
				return err
			}
			return wire.NegotiationAdapterWithOutput(cmd.OutOrStdout()).SetPosition(NewContext(), primary.SetClausePositionRequest{
				SessionID:        args[0],
				ExpectedRevision: rev,
				ClauseID:         args[1],
				Party:            p,
				Value:            value,
			})
		},
	}

	cmd.Flags().StringVar(&partyName, "party", "", "requesting or fulfilling (default: --as)")
	addRevisionFlag(cmd, &rev)
	return cmd
}

func clausePriorityCmd() *cobra.Command {
	var rev int64

	cmd := &cobra.Command{
		Use:   "priority [session] [clause-id] [value]",
		Short: "Set a clause's priority (1-10)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSessionRef(args[0]); err != nil {
				return err
			}
			if err := validateClauseID(args[1]); err != nil {
				return err
			}
			value, err := parseIntArg("priority", args[2])
			if err != nil {
				return err
			}
			return wire.NegotiationAdapterWithOutput(cmd.OutOrStdout()).SetPriority(NewContext(), primary.SetClausePriorityRequest{
				SessionID:        args[0],
				ExpectedRevision: rev,
				ClauseID:         args[1],
				Value:            value,
			})
		},
	}

	addRevisionFlag(cmd, &rev)
	return cmd
}

func clauseNotesCmd() *cobra.Command {
	var rev int64

	cmd := &cobra.Command{
		Use:   "notes [session] [clause-id] [notes]",
		Short: "Replace a clause's notes",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSessionRef(args[0]); err != nil {
				return err
			}
			if err := validateClauseID(args[1]); err != nil {
				return err
			}
			return wire.NegotiationAdapterWithOutput(cmd.OutOrStdout()).SetNotes(NewContext(), primary.SetClauseNotesRequest{
				SessionID:        args[0],
				ExpectedRevision: rev,
				ClauseID:         args[1],
				Notes:            args[2],
			})
		},
	}

	addRevisionFlag(cmd, &rev)
	return cmd
}

func clauseAdviseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advise [session] [clause-id]",
		Short: "Request advice for one clause, or every unaligned clause",
		Long: `Request a recommendation and suggested compromise.

Without a clause ID every clause that is not aligned is advised in parallel.
Advice that arrives after a position changed is discarded.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSessionRef(args[0]); err != nil {
				return err
			}
			clauseID := ""
			if len(args) == 2 {
				if err := validateClauseID(args[1]); err != nil {
					return err
				}
				clauseID = args[1]
			}
			return wire.NegotiationAdapterWithOutput(cmd.OutOrStdout()).Advise(NewContext(), args[0], clauseID)
		},
	}
}
