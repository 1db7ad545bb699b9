package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jahfer/mcpm/pkg/impact"
)

func newPruneCmd(configPath *string) *cobra.Command {
	var chain bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Report platform mods that are safe to remove",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath, appOptions{skipScan: true})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			summary := impact.Summarize(a.registry)

			for _, r := range summary.RemovalCandidates {
				fmt.Fprintf(out, "%-24s no dependents, safe to remove\n", r.ProjectID)
			}

			for _, r := range summary.Retained {
				fmt.Fprintf(out, "%-24s %d direct, %d indirect dependents\n",
					r.ProjectID, len(r.Direct), len(r.Indirect))

				if !chain {
					continue
				}

				dependents, anomalies := impact.TransitiveDependents(a.registry, r.ProjectID)

				names := make([]string, len(dependents))
				for i, d := range dependents {
					names[i] = d.ProjectID
				}

				fmt.Fprintf(out, "%-24s full chain: %s\n", "", strings.Join(names, ", "))

				for _, anomaly := range anomalies {
					fmt.Fprintf(out, "%-24s anomaly: %s\n", "", anomaly)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&chain, "chain", false, "also show the full dependent chain per platform mod")

	return cmd
}
