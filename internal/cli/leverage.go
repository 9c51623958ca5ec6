package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/clarence/internal/ports/primary"
	"github.com/example/clarence/internal/wire"
)

// LeverageCmd returns the leverage command group.
func LeverageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leverage",
		Short: "Assess negotiating leverage",
		Long: `Derive the leverage split between the parties from intake answers.

Answers (all optional, unknown values count as neutral):
  --competitors      sole-source | few | several | many
  --criticality      low | medium | high | mission-critical
  --alternatives     none | weak | moderate | strong
  --timeline         immediate | short | normal | flexible
  --market-position  small | average | large | dominant
  --switching-costs  high | moderate | low | none`,
	}

	cmd.AddCommand(leverageSetCmd())
	cmd.AddCommand(leverageShowCmd())
	cmd.AddCommand(leverageCalcCmd())
	return cmd
}

func addFactorFlags(cmd *cobra.Command, f *primary.LeverageFactors) {
	cmd.Flags().StringVar(&f.Competitors, "competitors", "", "Number of competing suppliers")
	cmd.Flags().StringVar(&f.Criticality, "criticality", "", "How critical the service is to the requesting party")
	cmd.Flags().StringVar(&f.Alternatives, "alternatives", "", "Strength of the requesting party's alternatives")
	cmd.Flags().StringVar(&f.Timeline, "timeline", "", "Time pressure on the requesting party")
	cmd.Flags().StringVar(&f.MarketPosition, "market-position", "", "Market position of the requesting party")
	cmd.Flags().StringVar(&f.SwitchingCosts, "switching-costs", "", "Cost of switching away from the fulfilling party")
}

func leverageSetCmd() *cobra.Command {
	var factors primary.LeverageFactors
	var rev int64

	cmd := &cobra.Command{
		Use:   "set [session]",
		Short: "Store leverage answers on a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSessionRef(args[0]); err != nil {
				return err
			}
			return wire.NegotiationAdapterWithOutput(cmd.OutOrStdout()).SetLeverage(NewContext(), primary.SetLeverageFactorsRequest{
				SessionID:        args[0],
				ExpectedRevision: rev,
				Factors:          factors,
			})
		},
	}

	addFactorFlags(cmd, &factors)
	addRevisionFlag(cmd, &rev)
	return cmd
}

func leverageShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [session]",
		Short: "Show a session's leverage split",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSessionRef(args[0]); err != nil {
				return err
			}
			return wire.NegotiationAdapterWithOutput(cmd.OutOrStdout()).Leverage(NewContext(), args[0])
		},
	}
}

func leverageCalcCmd() *cobra.Command {
	var factors primary.LeverageFactors

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute a leverage split without a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wire.NegotiationAdapterWithOutput(cmd.OutOrStdout()).Calculate(factors)
			return nil
		},
	}

	addFactorFlags(cmd, &factors)
	return cmd
}
