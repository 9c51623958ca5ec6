package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/clarence/internal/ports/primary"
	"github.com/example/clarence/internal/wire"
)

// PriorityCmd returns the priority command group.
func PriorityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "priority",
		Short: "Allocate a party's priority budget",
		Long: `Each party spreads a budget of 25 points over cost, quality, speed,
innovation and risk (0-10 each). Over-budget allocations are stored but block
stages that require a valid budget.`,
	}

	cmd.AddCommand(prioritySetCmd())
	return cmd
}

func prioritySetCmd() *cobra.Command {
	var partyName string
	var rev int64

	cmd := &cobra.Command{
		Use:   "set [session] [dimension] [value]",
		Short: "Set one priority weight (0-10)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSessionRef(args[0]); err != nil {
				return err
			}
			value, err := parseIntArg("weight", args[2])
			if err != nil {
				return err
			}
			p, err := resolveParty(partyName)
			if err != nil {
				return err
			}
			return wire.NegotiationAdapterWithOutput(cmd.OutOrStdout()).SetWeight(NewContext(), primary.SetPriorityWeightRequest{
				SessionID:        args[0],
				ExpectedRevision: rev,
				Party:            p,
				Dimension:        args[1],
				Value:            value,
			})
		},
	}

	cmd.Flags().StringVar(&partyName, "party", "", "requesting or fulfilling (default: --as)")
	addRevisionFlag(cmd, &rev)
	return cmd
}
