package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Scdouglas1999/Paracord/internal/crypto"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate an identity key and store it securely",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			seed, pub, err := crypto.GenerateSeed()
			if err != nil {
				return err
			}
			if err := wire.Identity.Save(passphrase, seed); err != nil {
				return err
			}
			fmt.Printf("Identity created.\nPublic key: %s\nFingerprint: %s\n",
				pub.Hex(), crypto.Fingerprint(pub.Slice()))
			return nil
		},
	}
}
