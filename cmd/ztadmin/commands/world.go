package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ztadmin/ztadmin/pkg/world"
)

func newWorldCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "world",
		Short: "Custom root-server definition lifecycle",
		Long: `Manage the controller's root-server definition (the planet file).

Generation backs up the stock planet once, runs the world generator in a
staging directory, and installs the result atomically. Reset restores the
most recent backup and clears the custom-world settings.`,
	}

	cmd.AddCommand(newWorldGenerateCommand())
	cmd.AddCommand(newWorldResetCommand())
	cmd.AddCommand(newWorldStatusCommand())

	return cmd
}

func newWorldGenerateCommand() *cobra.Command {
	var (
		planetID    int64
		planetBirth int64
		recommend   bool
		identity    string
		endpoints   []string
		comment     string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate and install a custom planet",
		Long: `Generate a custom root-server definition and install it.

This command:
  - Backs up the live planet unless a backup already exists
  - Writes the generator config into the staging directory
  - Runs the world generator
  - Installs the produced planet atomically
  - Persists the world settings for later inspection

The world ID and revision timestamp either come from the flags or, with
--recommend, from the generator's own recommendation. Reserved values of
the public root servers are rejected.`,
		Example: `  # Generate with explicit world parameters
  ztadmin world generate --planet-id 8100100101 --planet-birth 1700000000000 \
    --endpoint 198.51.100.7/9993

  # Let the generator pick the parameters
  ztadmin world generate --recommend --endpoint 198.51.100.7/9993

  # Dual-stack root with a label
  ztadmin world generate --recommend \
    --endpoint 198.51.100.7/9993 --endpoint 2001:db8::7/9993 \
    --comment "primary root"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := setupApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			ctx = app.tel.WithContext(ctx)

			req := world.GenerateRequest{
				Recommend: recommend,
				Identity:  identity,
				Endpoints: endpoints,
				Comment:   comment,
			}
			if cmd.Flags().Changed("planet-id") {
				req.PlanetID = &planetID
			}
			if cmd.Flags().Changed("planet-birth") {
				req.PlanetBirth = &planetBirth
			}

			settings, err := app.service.GenerateWorld(ctx, currentActor(), req)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(settings)
			}

			fmt.Printf("Custom world installed at %s\n", app.manager.Layout().PlanetPath())
			fmt.Printf("  planet ID:    %d\n", settings.PlanetID)
			fmt.Printf("  planet birth: %d\n", settings.PlanetBirth)
			fmt.Printf("  endpoints:    %v\n", settings.Endpoints)
			return nil
		},
	}

	cmd.Flags().Int64Var(&planetID, "planet-id", 0, "custom world ID")
	cmd.Flags().Int64Var(&planetBirth, "planet-birth", 0, "world revision timestamp in epoch milliseconds")
	cmd.Flags().BoolVar(&recommend, "recommend", false, "use generator-recommended world ID and birth")
	cmd.Flags().StringVar(&identity, "identity", "", "root node public identity (defaults to the controller's)")
	cmd.Flags().StringSliceVarP(&endpoints, "endpoint", "e", nil, "root node endpoint as ip/port (repeatable)")
	cmd.Flags().StringVar(&comment, "comment", "", "free-form label for the root node")
	_ = cmd.MarkFlagRequired("endpoint")

	return cmd
}

func newWorldResetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the planet from its backup",
		Long: `Restore the most recent planet backup and clear the custom world.

The persisted world settings return to their defaults before the backup is
consulted, so the custom-world flag is cleared even when no backup exists.
On success the backup and staging directories are removed.`,
		Example: `  # Restore the stock planet
  ztadmin world reset`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := setupApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			ctx = app.tel.WithContext(ctx)

			if err := app.service.ResetWorld(ctx, currentActor()); err != nil {
				return err
			}

			fmt.Printf("Planet restored from backup at %s\n", app.manager.Layout().PlanetPath())
			return nil
		},
	}

	return cmd
}

func newWorldStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show world lifecycle state and artifacts",
		Example: `  # Human-readable world state
  ztadmin world status

  # Machine-readable world state
  ztadmin world status --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := setupApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			ctx = app.tel.WithContext(ctx)

			status, err := app.service.WorldStatus(ctx, currentActor())
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(status)
			}

			fmt.Printf("State:        %s\n", status.State)
			fmt.Printf("Planet:       %s\n", status.PlanetPath)
			if status.PlanetSize > 0 {
				fmt.Printf("Size:         %d bytes\n", status.PlanetSize)
				fmt.Printf("Modified:     %s\n", status.PlanetModTime.UTC().Format(time.RFC3339))
			} else {
				fmt.Println("Size:         absent")
			}
			fmt.Printf("Backups:      %d\n", status.BackupCount)
			if status.Settings != nil && status.Settings.InUse {
				fmt.Printf("Planet ID:    %d\n", status.Settings.PlanetID)
				fmt.Printf("Planet birth: %d\n", status.Settings.PlanetBirth)
				if status.Settings.Comment != "" {
					fmt.Printf("Comment:      %s\n", status.Settings.Comment)
				}
			}
			return nil
		},
	}

	return cmd
}
