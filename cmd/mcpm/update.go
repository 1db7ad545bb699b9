package main

import (
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/jahfer/mcpm/pkg/resolver"
	"github.com/jahfer/mcpm/pkg/update"
	"github.com/jahfer/mcpm/pkg/version"
)

func newUpdateCmd(configPath *string) *cobra.Command {
	var (
		targetVersion string
		yes           bool
		retryApply    bool
		keepBackups   int
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Upgrade the whole mod set to a compatible game version",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath, appOptions{})
			if err != nil {
				return err
			}

			target, err := chooseTarget(cmd, a, targetVersion)
			if err != nil {
				return err
			}

			if !yes {
				return errors.Newf("refusing to update to %s without --yes", target)
			}

			installed := a.registry.Installed()
			targets := make([]update.Target, len(installed))

			for i, m := range installed {
				targets[i] = update.Target{
					Declaration:       m.Declaration,
					InstalledFilename: m.Filename,
				}
			}

			if len(targets) == 0 {
				return errors.New("no installed mods to update")
			}

			pipeline := update.NewPipeline(
				a.provider, update.NewDownloader(), a.cfg.ModsDir, a.cfg.BackupsDir, a.cfg.Loader)

			result, err := pipeline.Run(cmd.Context(), targets, target)

			for _, o := range result.Failed() {
				if o.FailedByAssociation {
					log.Error("mod abandoned because a sibling failed", "project", o.ProjectID)
				} else {
					log.Error("mod failed to stage", "project", o.ProjectID, "err", o.Err)
				}
			}

			if err != nil && pipeline.State() == update.StateBackedUp && retryApply {
				log.Warn("apply failed, retrying once", "backup", result.BackupPath, "err", err)

				if retryErr := pipeline.RetryApply(); retryErr != nil {
					return retryErr
				}

				err = nil
			}

			if err != nil {
				return err
			}

			log.Info("mod set updated", "version", target.String(), "backup", result.BackupPath)

			if keepBackups > 0 {
				deleted, pruneErr := update.PruneBackups(a.cfg.BackupsDir, keepBackups)
				if pruneErr != nil {
					log.Warn("failed to prune old backups", "err", pruneErr)
				} else if deleted > 0 {
					log.Info("pruned old backups", "deleted", deleted)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&targetVersion, "version", "", "target game version (default: highest common version)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "proceed without confirmation")
	cmd.Flags().BoolVar(&retryApply, "retry-apply", false, "retry the apply step once if it fails")
	cmd.Flags().IntVar(&keepBackups, "keep-backups", 0, "delete oldest backups beyond this count (0 keeps all)")

	return cmd
}

// chooseTarget picks the update target: an explicit --version, or the
// resolved highest common version.
func chooseTarget(cmd *cobra.Command, a *app, explicit string) (version.Version, error) {
	if explicit != "" {
		v := version.Parse(explicit)
		if !v.IsRelease() {
			return version.Version{}, errors.Newf("target version %q is not a release version", explicit)
		}

		return v, nil
	}

	res := resolver.New(a.provider, a.registry, a.cfg.Loader)

	resolution, err := res.Resolve(cmd.Context(), version.Parse(a.cfg.GameVersion))
	if err != nil {
		return version.Version{}, err
	}

	if !resolution.HasCommon {
		return version.Version{}, errors.New("no common version across the mod set")
	}

	if !resolution.UpgradeAvailable {
		return version.Version{}, errors.Newf("already at the highest common version %s", resolution.Common)
	}

	return resolution.Common, nil
}
