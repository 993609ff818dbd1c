package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show controller node status and totals",
		Long: `Show the controller node's identity, version, and reachability,
together with the number of hosted networks and authorized members.

Member counting is best effort: networks whose member list cannot be
fetched are skipped with a warning.`,
		Example: `  # Controller overview
  ztadmin status

  # Machine-readable overview
  ztadmin status --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := setupApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			ctx = app.tel.WithContext(ctx)

			stats, err := app.service.ControllerStatus(ctx, currentActor())
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(stats)
			}

			fmt.Printf("Controller:  %s\n", app.client.BaseURL())
			fmt.Printf("Address:     %s\n", stats.Status.Address)
			fmt.Printf("Version:     %s\n", stats.Status.Version)
			fmt.Printf("Online:      %t\n", stats.Status.Online)
			fmt.Printf("Networks:    %d\n", stats.NetworkCount)
			fmt.Printf("Members:     %d\n", stats.MemberCount)
			if stats.Status.PlanetWorldID != 0 {
				fmt.Printf("World ID:    %d\n", stats.Status.PlanetWorldID)
				fmt.Printf("World birth: %d\n", stats.Status.PlanetWorldTimestamp)
			}
			return nil
		},
	}

	return cmd
}
