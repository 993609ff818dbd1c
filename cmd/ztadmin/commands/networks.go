package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newNetworksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "Network reconciliation and adoption",
		Long: `Reconcile controller-hosted networks against the admin database.

A network is unlinked when the controller hosts it but the admin database
has no record of it. Unlinked networks are invisible to administrative
tooling until they are adopted.`,
	}

	cmd.AddCommand(newNetworksUnlinkedCommand())
	cmd.AddCommand(newNetworksAdoptCommand())

	return cmd
}

func newNetworksUnlinkedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unlinked",
		Short: "List controller networks with no database record",
		Long: `List networks the controller hosts that the admin database does not know.

This command:
  - Fetches the network list from the controller API
  - Fetches the linked network IDs from the database
  - Reports the set difference with controller-side detail
  - Reports networks whose detail could not be fetched separately`,
		Example: `  # List unlinked networks
  ztadmin networks unlinked

  # Machine-readable output
  ztadmin networks unlinked --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := setupApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			ctx = app.tel.WithContext(ctx)

			result, err := app.service.UnlinkedNetworks(ctx, currentActor())
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(result)
			}

			if len(result.Networks) == 0 && len(result.Failed) == 0 {
				fmt.Printf("All %d controller networks are linked.\n", result.ControllerTotal)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NETWORK ID\tNAME\tPRIVATE\tMEMBERS\tCREATED")
			for _, n := range result.Networks {
				created := ""
				if n.CreationTime > 0 {
					created = time.UnixMilli(n.CreationTime).UTC().Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%s\n", n.ID, n.Name, n.Private, n.MemberCount, created)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			for _, f := range result.Failed {
				log.Warn().Str("network", f.ID).Err(f.Err).Msg("Failed to fetch network detail")
			}
			fmt.Printf("\n%d unlinked of %d controller networks (%d linked in database)\n",
				len(result.Networks), result.ControllerTotal, result.StoreTotal)

			return nil
		},
	}

	return cmd
}

func newNetworksAdoptCommand() *cobra.Command {
	var (
		name    string
		ownerID string
	)

	cmd := &cobra.Command{
		Use:   "adopt <network-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Link a controller network into the database",
		Long: `Adopt an unlinked network by creating its database record.

The network must exist on the controller and must not already be linked.
When no name is given the controller-side name is used.`,
		Example: `  # Adopt a network under an owner
  ztadmin networks adopt aaaa000000000001 --owner admin@example.com

  # Adopt with an explicit display name
  ztadmin networks adopt aaaa000000000001 --owner admin@example.com --name staging`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := setupApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			ctx = app.tel.WithContext(ctx)

			network, err := app.service.AdoptNetwork(ctx, currentActor(), args[0], name, ownerID)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(network)
			}

			fmt.Printf("Adopted network %s (%s) under owner %s\n", network.ID, network.Name, network.OwnerID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "display name (defaults to the controller-side name)")
	cmd.Flags().StringVar(&ownerID, "owner", "", "owning account identifier")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}
