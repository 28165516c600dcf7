package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newIdentityCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Print this device's anonymous token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), app.Session.DeviceID)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget the token; the next run starts with a fresh one",
		Long: `Forget the device token. Plans and insights stored under the old token
are left in place but are no longer reachable from this device.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.Identity == nil {
				return errors.New("no device identity store configured")
			}
			if err := app.Identity.Reset(); err != nil {
				return err
			}
			token, err := app.Identity.LoadOrCreate()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "New device token: %s\n", token)
			return nil
		},
	})
	return cmd
}
