package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Scdouglas1999/Paracord/internal/app"
	"github.com/Scdouglas1999/Paracord/internal/domain"
)

var (
	home       string
	passphrase string
	serverURL  string

	wire *app.Wire
)

// Execute runs the CLI.
func Execute() error {
	root := &cobra.Command{
		Use:   "paracord-e2ee",
		Short: "Paracord end-to-end encryption toolbox",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".paracord")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			cfg, err := app.LoadConfig(home)
			if err != nil {
				return err
			}
			if serverURL != "" {
				cfg.ServerURL = serverURL
			}
			wire = app.NewWire(cfg, passphrase)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "data dir (default ~/.paracord)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting local keys")
	root.PersistentFlags().StringVar(&serverURL, "server", "", "API base URL (overrides config.toml)")

	root.AddCommand(initCmd(), fingerprintCmd(), bundleCmd(), uploadCmd(), encryptCmd(), decryptCmd())
	return root.Execute()
}

// loadSeed fetches the identity seed for one call into the core.
func loadSeed() (domain.Ed25519Seed, error) {
	if passphrase == "" {
		return domain.Ed25519Seed{}, fmt.Errorf("passphrase required (-p)")
	}
	seed, ok, err := wire.Identity.Load(passphrase)
	if err != nil {
		return domain.Ed25519Seed{}, err
	}
	if !ok {
		return domain.Ed25519Seed{}, fmt.Errorf("no identity; run init first")
	}
	return seed, nil
}
