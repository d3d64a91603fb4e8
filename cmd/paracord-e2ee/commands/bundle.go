package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Scdouglas1999/Paracord/internal/codec"
	"github.com/Scdouglas1999/Paracord/internal/crypto"
	"github.com/Scdouglas1999/Paracord/internal/store"
)

// bundle prints the public half of the local prekey store as JSON,
// generating the store first if it does not exist yet.
func bundleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bundle",
		Short: "Print the local prekey bundle (public keys only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := loadSeed()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			rec, ok, err := wire.Prekeys.Load(ctx)
			if err != nil {
				return err
			}
			if !ok {
				rec, err = store.GeneratePrekeys()
				if err != nil {
					return err
				}
				if err := wire.Prekeys.Save(ctx, rec); err != nil {
					return err
				}
			}

			spk := rec.SignSignedPrekey(seed)
			type opkOut struct {
				ID        uint64 `json:"id"`
				PublicKey string `json:"public_key"`
			}
			out := struct {
				IdentityKey  string `json:"identity_key"`
				SignedPrekey struct {
					ID        uint64 `json:"id"`
					PublicKey string `json:"public_key"`
					Signature string `json:"signature"`
				} `json:"signed_prekey"`
				OneTimePrekeys []opkOut `json:"one_time_prekeys"`
			}{
				IdentityKey: crypto.PublicFromSeed(seed).Hex(),
			}
			out.SignedPrekey.ID = spk.ID
			out.SignedPrekey.PublicKey = codec.ToBase64(spk.PublicKey.Slice())
			out.SignedPrekey.Signature = codec.ToBase64(spk.Signature)
			for _, opk := range rec.OneTimePrekeys {
				out.OneTimePrekeys = append(out.OneTimePrekeys, opkOut{
					ID:        opk.ID,
					PublicKey: codec.ToBase64(opk.PublicKey),
				})
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d one-time prekeys available\n", len(rec.OneTimePrekeys))
			return nil
		},
	}
}
