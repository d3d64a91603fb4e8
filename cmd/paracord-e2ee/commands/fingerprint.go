package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Scdouglas1999/Paracord/internal/crypto"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the identity public key and fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := loadSeed()
			if err != nil {
				return err
			}
			pub := crypto.PublicFromSeed(seed)
			fmt.Printf("Public key: %s\nFingerprint: %s\n", pub.Hex(), crypto.Fingerprint(pub.Slice()))
			return nil
		},
	}
}
