package commands

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3jane-protocol/3jane-contracts/internal/app"
)

const configFile = "thetaops.toml"

var (
	home       string
	passphrase string
	network    string
	configPath string
	verbose    bool

	logger *zap.Logger
	appCtx *app.App
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "thetaops",
		Short:         "Deploy and operate theta vaults",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".thetaops")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err = app.NewLogger(verbose)
			if err != nil {
				return err
			}
			appCtx, err = app.New(cfg, logger)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "state dir (default ~/.thetaops)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "keystore passphrase (or $"+app.EnvPassphrase+")")
	root.PersistentFlags().StringVarP(&network, "network", "n", "", "network name from the config (default mainnet)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <home>/"+configFile+" when present)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		keystoreCmd(),
		deployCmd(),
		deploymentsCmd(),
		signCmd(),
		orderCmd(),
		auctionCmd(),
		quoteCmd(),
	)
	return root
}

// loadConfig layers defaults, the config file, the --network flag and the
// environment, in that order.
func loadConfig() (app.Config, error) {
	cfg := app.DefaultConfig(home)
	path, required := configPath, true
	if path == "" {
		path, required = filepath.Join(home, configFile), false
	}
	if _, err := os.Stat(path); err == nil || required {
		var lerr error
		if cfg, lerr = app.LoadFile(path, cfg); lerr != nil {
			return app.Config{}, lerr
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return app.Config{}, err
	}
	if network != "" {
		cfg.Network = network
	}
	cfg, err := app.LoadEnv(cfg, ".env", filepath.Join(home, ".env"))
	if err != nil {
		return app.Config{}, err
	}
	if passphrase == "" {
		passphrase = cfg.Passphrase
	}
	return cfg, nil
}

func requirePassphrase() error {
	if passphrase == "" {
		return errors.New("passphrase required (-p or $" + app.EnvPassphrase + ")")
	}
	return nil
}
