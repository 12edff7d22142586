package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func keystoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keystore",
		Short: "Manage the encrypted deployer key",
	}

	var overwrite bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a new deployer key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			appCtx.Accounts.Overwrite = overwrite
			addr, err := appCtx.Accounts.GenerateAccount(passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Deployer key created.\nAddress: %s\n", addr.Hex())
			return nil
		},
	}
	initCmd.Flags().BoolVar(&overwrite, "force", false, "replace an existing key")

	importCmd := &cobra.Command{
		Use:   "import <hex-private-key>",
		Short: "Seal an existing private key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			appCtx.Accounts.Overwrite = overwrite
			addr, err := appCtx.Accounts.ImportAccount(passphrase, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Deployer key imported.\nAddress: %s\n", addr.Hex())
			return nil
		},
	}
	importCmd.Flags().BoolVar(&overwrite, "force", false, "replace an existing key")

	addressCmd := &cobra.Command{
		Use:   "address",
		Short: "Print the deployer address",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			addr, err := appCtx.Accounts.Address(passphrase)
			if err != nil {
				return err
			}
			fmt.Println(addr.Hex())
			return nil
		},
	}

	cmd.AddCommand(initCmd, importCmd, addressCmd)
	return cmd
}
