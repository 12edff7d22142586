package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/3jane-protocol/3jane-contracts/internal/domain"
)

func deploymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deployments",
		Short: "Inspect recorded deployments",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List deployments on the selected network",
			RunE: func(cmd *cobra.Command, args []string) error {
				ds, err := appCtx.Deployments.ListDeployments()
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				for _, d := range ds {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, d.Address.Hex(), d.Contract)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "show <name>",
			Short: "Print one deployment record",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, ok, err := appCtx.Deployments.LoadDeployment(args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: %s", domain.ErrDeploymentNotFound, args[0])
				}
				return printJSON(d)
			},
		},
	)
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
