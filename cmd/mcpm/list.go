package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jahfer/mcpm/pkg/mods"
)

func newListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show declared mods and their installation state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath, appOptions{})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			installed := make(map[string]mods.InstalledMod)
			for _, m := range a.registry.Installed() {
				installed[m.Declaration.ProjectID] = m
			}

			ambiguous := make(map[string][]string)
			for _, am := range a.registry.Ambiguous() {
				ambiguous[am.Declaration.ProjectID] = am.Candidates
			}

			for _, d := range a.registry.Declarations() {
				switch {
				case ambiguous[d.ProjectID] != nil:
					fmt.Fprintf(out, "%-24s ambiguous: matches %s\n",
						d.ProjectID, strings.Join(ambiguous[d.ProjectID], ", "))
				default:
					m, ok := installed[d.ProjectID]
					if !ok {
						fmt.Fprintf(out, "%-24s missing (pattern %q)\n", d.ProjectID, d.FilenamePattern)
						continue
					}

					fmt.Fprintf(out, "%-24s %s (mod %s, minecraft %s)%s\n",
						d.ProjectID, m.Filename, m.Version, m.MinecraftVersion, flags(d))
				}
			}

			return nil
		},
	}
}

// flags renders the declaration attributes that matter in reports.
func flags(d mods.Declaration) string {
	var parts []string

	if d.IsPlatform {
		parts = append(parts, "platform")
	}

	if d.Optional {
		parts = append(parts, "optional")
	}

	if len(parts) == 0 {
		return ""
	}

	return " [" + strings.Join(parts, ", ") + "]"
}
