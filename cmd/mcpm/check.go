package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jahfer/mcpm/pkg/resolver"
	"github.com/jahfer/mcpm/pkg/version"
)

func newCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check which game version the whole mod set supports",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath, appOptions{})
			if err != nil {
				return err
			}

			res := resolver.New(a.provider, a.registry, a.cfg.Loader)

			resolution, err := res.Resolve(cmd.Context(), version.Parse(a.cfg.GameVersion))
			if err != nil {
				return err
			}

			printResolution(cmd.OutOrStdout(), resolution)

			return nil
		},
	}
}

func printResolution(out io.Writer, resolution *resolver.Resolution) {
	for _, mv := range resolution.PerMod {
		maxLabel := "none known"
		if !mv.Max.IsZero() {
			maxLabel = mv.Max.String()
		}

		fmt.Fprintf(out, "%-24s supports up to %s\n", mv.Mod.Declaration.ProjectID, maxLabel)
	}

	for _, d := range resolution.NoKnownVersions {
		fmt.Fprintf(out, "%-24s has no known release versions and blocks the whole group\n", d.ProjectID)
	}

	if !resolution.HasCommon {
		fmt.Fprintf(out, "no common version across the mod set (current: %s)\n", resolution.Current)
		return
	}

	scope := "all mods"
	if resolution.RequiredOnly {
		scope = "required mods only"
	}

	fmt.Fprintf(out, "common version: %s (%s); current: %s\n", resolution.Common, scope, resolution.Current)

	if resolution.UpgradeAvailable {
		fmt.Fprintf(out, "upgrade available: %s -> %s\n", resolution.Current, resolution.Common)
	} else {
		fmt.Fprintln(out, "already at the highest common version")
	}

	for _, b := range resolution.Blocking {
		line := fmt.Sprintf("%-24s blocks anything above %s", b.Mod.Declaration.ProjectID, b.Max)
		if b.Impact != nil && b.Impact.Total() > 0 {
			line += fmt.Sprintf(" (removing it would break %d mods)", b.Impact.Total())
		}

		fmt.Fprintln(out, line)
	}
}
