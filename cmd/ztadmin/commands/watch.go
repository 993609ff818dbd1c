package commands

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ztadmin/ztadmin/pkg/world"
)

func newWatchCommand() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the planet file for drift",
		Long: `Watch the planet file and report out-of-band changes.

The data root directory is watched so rename-based replacement is still
observed. Changes settle for half a second before they are reported, so a
temp-file-plus-rename install produces a single event.

With metrics enabled the drift counter and a Prometheus endpoint are
served for the lifetime of the watch.`,
		Example: `  # Watch until interrupted
  ztadmin watch

  # Watch and serve metrics
  ztadmin watch --metrics-addr :9594`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// The flag implies metrics for this invocation.
			metricsAddrOverride = metricsAddr

			app, err := setupApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			ctx = app.tel.WithContext(ctx)

			if app.cfg.Metrics.Enabled {
				if err := app.tel.StartMetricsServer(); err != nil {
					return err
				}
				log.Info().Str("addr", app.cfg.Metrics.ListenAddress).Msg("Metrics endpoint started")
			}

			watcher := world.NewWatcher(app.cfg.DataRoot, app.tel.Logger.Zerolog())
			watcher.OnDrift(func(ev world.DriftEvent) {
				app.tel.Metrics.RecordDriftDetection()
				_ = app.tel.Events.PublishWorldDrift(ev.Path, ev.Size)
				if jsonOutput {
					_ = printJSON(ev)
					return
				}
				if ev.Size == 0 {
					fmt.Printf("%s planet removed: %s\n", ev.ModTime.UTC().Format(time.RFC3339), ev.Path)
					return
				}
				fmt.Printf("%s planet changed: %s (%d bytes)\n",
					ev.ModTime.UTC().Format(time.RFC3339), ev.Path, ev.Size)
			})

			log.Info().Str("data_root", app.cfg.DataRoot).Msg("Watching planet file")
			return watcher.Watch(ctx)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while watching")

	return cmd
}
