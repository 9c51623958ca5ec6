package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/clarence/internal/ports/primary"
	"github.com/example/clarence/internal/wire"
)

// StageCmd returns the stage command group.
func StageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Move a session along its pathway",
		Long: `Complete the current stage and advance to the next one.

A stage must be completed before it can be left. Stages may also require a
minimum overall alignment or valid priority budgets for both parties.`,
	}

	cmd.AddCommand(stageCompleteCmd())
	cmd.AddCommand(stageAdvanceCmd())
	return cmd
}

func stageCompleteCmd() *cobra.Command {
	var stage string
	var rev int64

	cmd := &cobra.Command{
		Use:   "complete [session]",
		Short: "Mark a stage completed (default: current stage)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSessionRef(args[0]); err != nil {
				return err
			}
			return wire.NegotiationAdapterWithOutput(cmd.OutOrStdout()).CompleteStage(NewContext(), primary.CompleteStageRequest{
				SessionID:        args[0],
				ExpectedRevision: rev,
				Stage:            stage,
			})
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "Stage ID (default: current stage)")
	addRevisionFlag(cmd, &rev)
	return cmd
}

func stageAdvanceCmd() *cobra.Command {
	var complete bool
	var rev int64

	cmd := &cobra.Command{
		Use:   "advance [session]",
		Short: "Advance to the next stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSessionRef(args[0]); err != nil {
				return err
			}
			adapter := wire.NegotiationAdapterWithOutput(cmd.OutOrStdout())
			ctx := NewContext()
			if complete {
				if err := adapter.CompleteStage(ctx, primary.CompleteStageRequest{SessionID: args[0], ExpectedRevision: rev}); err != nil {
					return err
				}
				// The completion bumped the revision.
				rev = 0
			}
			return adapter.Advance(ctx, primary.SessionRequest{SessionID: args[0], ExpectedRevision: rev})
		},
	}

	cmd.Flags().BoolVarP(&complete, "complete", "c", false, "Complete the current stage first")
	addRevisionFlag(cmd, &rev)
	return cmd
}

// TransitionCmd returns the transition command group.
func TransitionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transition",
		Short: "Manage stage transition interstitials",
	}

	cmd.AddCommand(transitionSeenCmd())
	cmd.AddCommand(transitionCheckCmd())
	return cmd
}

func transitionSeenCmd() *cobra.Command {
	var rev int64

	cmd := &cobra.Command{
		Use:   "seen [session] [transition-id]",
		Short: "Record that a transition was shown",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSessionRef(args[0]); err != nil {
				return err
			}
			return wire.NegotiationAdapterWithOutput(cmd.OutOrStdout()).MarkSeen(NewContext(), primary.MarkTransitionSeenRequest{
				SessionID:        args[0],
				ExpectedRevision: rev,
				TransitionID:     args[1],
			})
		},
	}

	addRevisionFlag(cmd, &rev)
	return cmd
}

func transitionCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [session] [transition-id]",
		Short: "Report whether a transition would be shown",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateSessionRef(args[0]); err != nil {
				return err
			}
			show, err := wire.NegotiationService().ShouldShowTransition(NewContext(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to check transition: %w", err)
			}
			if show {
				fmt.Fprintf(cmd.OutOrStdout(), "%s would be shown\n", args[1])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s would not be shown\n", args[1])
			}
			return nil
		},
	}
}
