package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/clarence/internal/catalogue"
	"github.com/example/clarence/internal/wire"
)

// CatalogueCmd returns the catalogue command group.
func CatalogueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalogue",
		Short: "Inspect the stage and pathway catalogue",
	}

	cmd.AddCommand(catalogueShowCmd())
	cmd.AddCommand(catalogueDumpCmd())
	cmd.AddCommand(catalogueValidateCmd())
	return cmd
}

func catalogueShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List pathways and their stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := wire.Catalogue()
			out := cmd.OutOrStdout()

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "PATHWAY\tNAME\tSTAGES")
			for _, p := range cat.Pathways {
				marker := ""
				if p.ID == cat.DefaultPathway {
					marker = " (default)"
				}
				fmt.Fprintf(w, "%s%s\t%s\t%s\n", p.ID, marker, p.Name, strings.Join(p.Reachable(), " → "))
			}
			w.Flush()

			fmt.Fprintln(out)
			fmt.Fprintf(out, "%d clause templates\n", len(cat.ClauseTemplates))
			return nil
		},
	}
}

func catalogueDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the active catalogue as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := wire.Catalogue().Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func catalogueValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a catalogue file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("failed to read catalogue: %w", err)
			}
			cat, err := catalogue.LoadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d stages, %d pathways, %d transitions, %d clause templates\n",
				args[0], len(cat.Stages), len(cat.Pathways), len(cat.Transitions), len(cat.ClauseTemplates))
			return nil
		},
	}
}
