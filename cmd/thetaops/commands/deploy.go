package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/3jane-protocol/3jane-contracts/internal/scripts"
)

func deployCmd() *cobra.Command {
	var tags []string
	var list bool
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Run deployment scripts against the selected network",
		Long: "Runs the deployment scripts selected by --tags, dependencies first.\n" +
			"Contracts already recorded for the network are reused.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := scripts.Default()
			if list {
				for _, s := range reg.Scripts() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-28s %s\n", s.ID, strings.Join(s.Tags, ", "))
				}
				return nil
			}
			if err := requirePassphrase(); err != nil {
				return err
			}
			ctx := cmd.Context()
			client, err := appCtx.Dial(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			env, err := appCtx.ScriptEnv(ctx, client, passphrase, appCtx.Config.Accounts, appCtx.Config.Params, logger)
			if err != nil {
				return err
			}
			return reg.Run(ctx, env, tags...)
		},
	}
	cmd.Flags().StringSliceVarP(&tags, "tags", "t", nil, "script tags to run (default all)")
	cmd.Flags().BoolVar(&list, "list", false, "list scripts and exit")
	return cmd
}
