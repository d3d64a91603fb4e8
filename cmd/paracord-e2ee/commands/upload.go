package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// upload runs one prekey lifecycle pass against the server, the same
// reconciliation the client runs on every gateway ready signal.
func uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload",
		Short: "Publish prekeys to the server and replenish if low",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := loadSeed()
			if err != nil {
				return err
			}
			if wire.Keys == nil {
				return fmt.Errorf("no server configured. use --server or config.toml")
			}
			if err := wire.Lifecycle.HandleReady(cmd.Context(), seed); err != nil {
				return err
			}
			fmt.Println("prekeys reconciled")
			return nil
		},
	}
}
