package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Scdouglas1999/Paracord/internal/domain"
)

// decrypt <peer-hex>: read a payload JSON from stdin and print the
// plaintext.
func decryptCmd() *cobra.Command {
	var channelID string

	cmd := &cobra.Command{
		Use:   "decrypt <peer-identity-hex>",
		Short: "Decrypt a direct message payload read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := loadSeed()
			if err != nil {
				return err
			}
			peer, err := parsePeer(args[0])
			if err != nil {
				return err
			}

			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			var payload domain.Payload
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("parse payload: %w", err)
			}

			plaintext, err := wire.Envelopes.DecryptDM(cmd.Context(), channelID, payload, seed, peer)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(plaintext))
			return nil
		},
	}
	cmd.Flags().StringVar(&channelID, "channel", "", "DM channel id")
	_ = cmd.MarkFlagRequired("channel")
	return cmd
}
