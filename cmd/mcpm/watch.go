package main

import (
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jahfer/mcpm/pkg/cron"
	"github.com/jahfer/mcpm/pkg/resolver"
	"github.com/jahfer/mcpm/pkg/version"
)

func newWatchCmd(configPath *string) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Periodically check for a compatible upgrade",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			check := func() {
				// State is rebuilt per tick so a stale scan or memo
				// never outlives the run that produced it.
				a, err := loadApp(*configPath, appOptions{})
				if err != nil {
					log.Error("check failed", "err", err)
					return
				}

				res := resolver.New(a.provider, a.registry, a.cfg.Loader)

				resolution, err := res.Resolve(ctx, version.Parse(a.cfg.GameVersion))
				if err != nil {
					log.Error("check failed", "err", err)
					return
				}

				if resolution.UpgradeAvailable {
					log.Info("upgrade available",
						"current", resolution.Current.String(),
						"target", resolution.Common.String())
				} else {
					log.Debug("no upgrade available", "current", resolution.Current.String())
				}
			}

			log.Info("watching for compatible upgrades", "schedule", schedule)
			check()

			return cron.Watch(ctx, cron.NewRealScheduler(), schedule, check)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "@hourly", "cron schedule for the compatibility check")

	return cmd
}
