package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath    string
	dataRoot      string
	controllerURL string
	logLevel      string
	jsonOutput    bool

	// buildVersion is the binary version, recorded for telemetry.
	buildVersion = "dev"
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	buildVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ztadmin",
		Short: "ztadmin - ZeroTier controller administration sidecar",
		Long: `ztadmin administers a self-hosted ZeroTier network controller.

It reconciles the networks the controller daemon hosts against the admin
database, and manages the lifecycle of a custom root-server definition
(the planet file): generation, one-time backup, and restoration.

Features:
  - Unlinked network discovery and adoption
  - Custom world generation via zt-mkworld
  - Planet backup and restore with atomic installs
  - Drift watching on the planet file
  - Audit trail for every administrative action`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dataRoot, "data-root", "", "controller data root directory")
	rootCmd.PersistentFlags().StringVar(&controllerURL, "controller-url", "", "controller API base URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "minimum log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newNetworksCommand())
	rootCmd.AddCommand(newWorldCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newAuditCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, buildDate))

	return rootCmd
}
