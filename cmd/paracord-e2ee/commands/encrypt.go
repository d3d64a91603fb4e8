package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Scdouglas1999/Paracord/internal/codec"
	"github.com/Scdouglas1999/Paracord/internal/domain"
)

// encrypt <peer-hex> <message>: produce a DM payload for the peer.
func encryptCmd() *cobra.Command {
	var channelID string
	var peerUserID string

	cmd := &cobra.Command{
		Use:   "encrypt <peer-identity-hex> <message>",
		Short: "Encrypt a direct message for a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := loadSeed()
			if err != nil {
				return err
			}
			peer, err := parsePeer(args[0])
			if err != nil {
				return err
			}

			payload, err := wire.Envelopes.EncryptDM(
				cmd.Context(), channelID, []byte(args[1]), seed, peer, peerUserID)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(payload)
		},
	}
	cmd.Flags().StringVar(&channelID, "channel", "", "DM channel id")
	cmd.Flags().StringVar(&peerUserID, "peer-user", "", "peer user id for bundle fetch (enables the Signal path on first contact)")
	_ = cmd.MarkFlagRequired("channel")
	return cmd
}

func parsePeer(hexKey string) (domain.Ed25519Public, error) {
	raw, err := codec.FromHex(hexKey)
	if err != nil || len(raw) != 32 {
		return domain.Ed25519Public{}, fmt.Errorf("peer identity must be 32 hex-encoded bytes")
	}
	var pub domain.Ed25519Public
	copy(pub[:], raw)
	return pub, nil
}
